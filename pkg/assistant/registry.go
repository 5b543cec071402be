package assistant

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/backend"
	"github.com/Baishnab1708/MyChatBot/pkg/adapters/capture"
	"github.com/Baishnab1708/MyChatBot/pkg/adapters/speech"
	"github.com/Baishnab1708/MyChatBot/pkg/audio"
	"github.com/Baishnab1708/MyChatBot/pkg/config"
	"github.com/Baishnab1708/MyChatBot/pkg/transports"
	"github.com/spf13/afero"
)

// Deps are the process resources a provider factory may use.
type Deps struct {
	Config    config.Config
	SessionID string
	Logger    *slog.Logger
	Source    audio.Source
	Sink      audio.Sink
	Fs        afero.Fs
	Stdin     io.Reader
	Stdout    io.Writer
}

type CaptureFactory func(d Deps, settings map[string]any) (capture.Capturer, error)
type SpeechFactory func(d Deps, settings map[string]any) (speech.Speaker, error)
type BackendFactory func(d Deps, settings map[string]any) (backend.Asker, error)
type TransportFactory func(d Deps, settings map[string]any) (transports.Transport, error)

// ProviderRegistry maps provider names from config to constructors.
type ProviderRegistry struct {
	capture   map[string]CaptureFactory
	speech    map[string]SpeechFactory
	backend   map[string]BackendFactory
	transport map[string]TransportFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		capture:   make(map[string]CaptureFactory),
		speech:    make(map[string]SpeechFactory),
		backend:   make(map[string]BackendFactory),
		transport: make(map[string]TransportFactory),
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *ProviderRegistry) RegisterCapture(name string, factory CaptureFactory) {
	r.capture[normalizeName(name)] = factory
}

func (r *ProviderRegistry) RegisterSpeech(name string, factory SpeechFactory) {
	r.speech[normalizeName(name)] = factory
}

func (r *ProviderRegistry) RegisterBackend(name string, factory BackendFactory) {
	r.backend[normalizeName(name)] = factory
}

func (r *ProviderRegistry) RegisterTransport(name string, factory TransportFactory) {
	r.transport[normalizeName(name)] = factory
}

func (r *ProviderRegistry) BuildCapture(v config.VendorConfig, d Deps) (capture.Capturer, error) {
	fn := r.capture[normalizeName(v.Provider)]
	if fn == nil {
		return nil, fmt.Errorf("capture provider not registered: %s", v.Provider)
	}
	return fn(d, v.Settings)
}

func (r *ProviderRegistry) BuildSpeech(v config.VendorConfig, d Deps) (speech.Speaker, error) {
	fn := r.speech[normalizeName(v.Provider)]
	if fn == nil {
		return nil, fmt.Errorf("speech provider not registered: %s", v.Provider)
	}
	return fn(d, v.Settings)
}

func (r *ProviderRegistry) BuildBackend(v config.VendorConfig, d Deps) (backend.Asker, error) {
	fn := r.backend[normalizeName(v.Provider)]
	if fn == nil {
		return nil, fmt.Errorf("backend provider not registered: %s", v.Provider)
	}
	return fn(d, v.Settings)
}

func (r *ProviderRegistry) BuildTransport(v config.TransportsConfig, d Deps) (transports.Transport, error) {
	fn := r.transport[normalizeName(v.Provider)]
	if fn == nil {
		return nil, fmt.Errorf("transport provider not registered: %s", v.Provider)
	}
	return fn(d, v.Settings)
}
