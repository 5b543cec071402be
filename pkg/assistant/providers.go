package assistant

import (
	"fmt"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/backend"
	"github.com/Baishnab1708/MyChatBot/pkg/adapters/capture"
	"github.com/Baishnab1708/MyChatBot/pkg/adapters/speech"
	"github.com/Baishnab1708/MyChatBot/pkg/configutil"
	"github.com/Baishnab1708/MyChatBot/pkg/providers/deepgram"
	"github.com/Baishnab1708/MyChatBot/pkg/providers/elevenlabs"
	"github.com/Baishnab1708/MyChatBot/pkg/providers/httpask"
	"github.com/Baishnab1708/MyChatBot/pkg/providers/localask"
	"github.com/Baishnab1708/MyChatBot/pkg/providers/mock"
	"github.com/Baishnab1708/MyChatBot/pkg/transports"
	"github.com/Baishnab1708/MyChatBot/pkg/transports/console"
	transportmock "github.com/Baishnab1708/MyChatBot/pkg/transports/mock"
	"github.com/Baishnab1708/MyChatBot/pkg/transports/websocket"
)

// DefaultRegistry registers every built-in provider.
func DefaultRegistry() *ProviderRegistry {
	r := NewProviderRegistry()
	r.RegisterCapture("deepgram", buildDeepgram)
	r.RegisterCapture("mock", buildMockCapture)
	r.RegisterSpeech("elevenlabs", buildElevenLabs)
	r.RegisterSpeech("mock", buildMockSpeech)
	r.RegisterBackend("http", buildHTTPAsk)
	r.RegisterBackend("local", buildLocalAsk)
	r.RegisterBackend("mock", buildMockBackend)
	r.RegisterTransport("websocket", buildWebsocket)
	r.RegisterTransport("console", buildConsole)
	r.RegisterTransport("mock", func(Deps, map[string]any) (transports.Transport, error) {
		return transportmock.New(), nil
	})
	return r
}

func buildDeepgram(d Deps, settings map[string]any) (capture.Capturer, error) {
	var cfg deepgram.Config
	if err := configutil.Decode(settings, configutil.SchemaFor(cfg, "api_key"), &cfg); err != nil {
		return nil, fmt.Errorf("vendors.capture.settings: %w", err)
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = d.Config.Audio.SampleRate
	}
	cfg.SessionID = d.SessionID
	return deepgram.New(cfg, d.Source), nil
}

func buildMockCapture(_ Deps, settings map[string]any) (capture.Capturer, error) {
	var cfg mock.CaptureConfig
	if err := configutil.Decode(settings, configutil.SchemaFor(cfg), &cfg); err != nil {
		return nil, fmt.Errorf("vendors.capture.settings: %w", err)
	}
	return mock.NewCapturer(cfg), nil
}

func buildElevenLabs(d Deps, settings map[string]any) (speech.Speaker, error) {
	var cfg elevenlabs.Config
	if err := configutil.Decode(settings, configutil.SchemaFor(cfg, "api_key"), &cfg); err != nil {
		return nil, fmt.Errorf("vendors.speech.settings: %w", err)
	}
	cfg.VoiceID = configutil.StringValue(cfg.VoiceID, d.Config.Session.Voice)
	if cfg.VoiceID == "" {
		return nil, fmt.Errorf("vendors.speech.settings: missing: voice_id")
	}
	cfg.SessionID = d.SessionID
	return elevenlabs.New(cfg, d.Sink), nil
}

func buildMockSpeech(_ Deps, settings map[string]any) (speech.Speaker, error) {
	var cfg mock.SpeechConfig
	if err := configutil.Decode(settings, configutil.SchemaFor(cfg), &cfg); err != nil {
		return nil, fmt.Errorf("vendors.speech.settings: %w", err)
	}
	return mock.NewSpeaker(cfg), nil
}

func buildHTTPAsk(d Deps, settings map[string]any) (backend.Asker, error) {
	var cfg httpask.Config
	if err := configutil.Decode(settings, configutil.SchemaFor(cfg, "base_url"), &cfg); err != nil {
		return nil, fmt.Errorf("vendors.backend.settings: %w", err)
	}
	cfg.SessionID = d.SessionID
	return httpask.New(cfg), nil
}

func buildLocalAsk(d Deps, settings map[string]any) (backend.Asker, error) {
	var cfg localask.Config
	if err := configutil.Decode(settings, configutil.SchemaFor(cfg, "dir"), &cfg); err != nil {
		return nil, fmt.Errorf("vendors.backend.settings: %w", err)
	}
	return localask.New(d.Fs, cfg), nil
}

func buildMockBackend(_ Deps, settings map[string]any) (backend.Asker, error) {
	var cfg mock.BackendConfig
	if err := configutil.Decode(settings, configutil.SchemaFor(cfg), &cfg); err != nil {
		return nil, fmt.Errorf("vendors.backend.settings: %w", err)
	}
	return mock.NewAsker(cfg), nil
}

func buildWebsocket(d Deps, settings map[string]any) (transports.Transport, error) {
	var cfg websocket.Config
	if err := configutil.Decode(settings, configutil.SchemaFor(cfg), &cfg); err != nil {
		return nil, fmt.Errorf("transports.settings: %w", err)
	}
	return websocket.New(cfg, d.Logger), nil
}

func buildConsole(d Deps, settings map[string]any) (transports.Transport, error) {
	var cfg console.Config
	if err := configutil.Decode(settings, configutil.SchemaFor(cfg), &cfg); err != nil {
		return nil, fmt.Errorf("transports.settings: %w", err)
	}
	return console.New(cfg, d.Stdin, d.Stdout), nil
}
