package deepgram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/capture"
	"github.com/Baishnab1708/MyChatBot/pkg/audio"
	"github.com/Baishnab1708/MyChatBot/pkg/errorsx"
	"github.com/Baishnab1708/MyChatBot/pkg/logging"
	"github.com/Baishnab1708/MyChatBot/pkg/redact"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

type Config struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	Language       string `mapstructure:"language"`
	SampleRate     int    `mapstructure:"sample_rate"`
	Encoding       string `mapstructure:"encoding"`
	SessionID      string `mapstructure:"-"`
	UtteranceEndMS int    `mapstructure:"utterance_end_ms"`
	Endpointing    int    `mapstructure:"endpointing"`
	// NoSpeechTimeout resolves an attempt as no-speech when nothing is heard.
	NoSpeechTimeout time.Duration `mapstructure:"no_speech_timeout"`
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "nova-2"
	}
	if c.Language == "" {
		c.Language = "en-US"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.Encoding == "" {
		c.Encoding = "linear16"
	}
	if c.UtteranceEndMS == 0 {
		c.UtteranceEndMS = 1000
	}
	if c.NoSpeechTimeout == 0 {
		c.NoSpeechTimeout = 8 * time.Second
	}
	return c
}

// liveClient is the subset of the Deepgram websocket client used here.
type liveClient interface {
	Connect() bool
	Stream(r io.Reader) error
	Stop()
}

type dialFunc func(ctx context.Context, cfg Config, cb msginterfaces.LiveMessageCallback) (liveClient, error)

// Capturer performs single-shot speech recognition against Deepgram live
// transcription, fed from an audio.Source.
type Capturer struct {
	cfg    Config
	source audio.Source
	dial   dialFunc
	logger *slog.Logger

	mu     sync.Mutex
	active *attempt
}

func New(cfg Config, source audio.Source) *Capturer {
	return &Capturer{
		cfg:    cfg.withDefaults(),
		source: source,
		dial:   dialDeepgram,
		logger: logging.NewComponentLogger(slog.Default(), "deepgram_capture"),
	}
}

func (c *Capturer) Name() string { return "deepgram_live" }

func (c *Capturer) Begin(ctx context.Context) (<-chan capture.Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && !c.active.finished() {
		return nil, capture.ErrBusy
	}
	if c.source == nil {
		return nil, &errorsx.CaptureError{Kind: errorsx.CaptureOther, Code: "not-supported"}
	}

	frames, err := c.source.Start(ctx)
	if err != nil {
		c.logger.Error("audio_source_open_failed", slog.String("session_id", c.cfg.SessionID), slog.Any("error", err))
		return nil, errorsx.CaptureErrorFromCode(sourceErrorCode(err), errorsx.Wrap(err, errorsx.ReasonCaptureOpen))
	}

	a := newAttempt(c.cfg, c.logger)
	a.onFinish = func() { _ = c.source.Stop() }

	cl, err := c.dial(ctx, c.cfg, a)
	if err != nil {
		_ = c.source.Stop()
		c.logger.Error("deepgram_client_create_error", slog.String("session_id", c.cfg.SessionID), slog.Any("error", err))
		return nil, errorsx.CaptureErrorFromCode("network", errorsx.Wrap(err, errorsx.ReasonCaptureConnect))
	}
	if connected := cl.Connect(); !connected {
		_ = c.source.Stop()
		c.logger.Error("deepgram_connect_failed", slog.String("session_id", c.cfg.SessionID))
		return nil, errorsx.CaptureErrorFromCode("network", errorsx.Errorf(errorsx.ReasonCaptureConnect, "deepgram connection failed"))
	}
	a.client = cl
	c.active = a

	c.logger.Info("deepgram_connected",
		slog.String("session_id", c.cfg.SessionID),
		slog.String("model", c.cfg.Model),
		slog.String("language", c.cfg.Language))

	a.run(ctx, frames)
	return a.out, nil
}

func (c *Capturer) Stop() error {
	c.mu.Lock()
	a := c.active
	c.active = nil
	c.mu.Unlock()
	if a != nil {
		a.deliver(capture.Outcome{}, "stopped")
	}
	return nil
}

func dialDeepgram(ctx context.Context, cfg Config, cb msginterfaces.LiveMessageCallback) (liveClient, error) {
	clientOptions := &interfaces.ClientOptions{
		EnableKeepAlive: true,
	}
	transcriptOptions := &interfaces.LiveTranscriptionOptions{
		Model:          cfg.Model,
		Language:       cfg.Language,
		Encoding:       cfg.Encoding,
		SampleRate:     cfg.SampleRate,
		Channels:       1,
		InterimResults: true,
		VadEvents:      true,
		SmartFormat:    true,
		Punctuate:      true,
	}
	if cfg.UtteranceEndMS > 0 {
		transcriptOptions.UtteranceEndMs = fmt.Sprintf("%d", cfg.UtteranceEndMS)
	}
	if cfg.Endpointing > 0 {
		transcriptOptions.Endpointing = fmt.Sprintf("%d", cfg.Endpointing)
	}
	dg, err := client.NewWSUsingCallback(ctx, cfg.APIKey, clientOptions, transcriptOptions, cb)
	if err != nil {
		return nil, err
	}
	return dg, nil
}

// sourceErrorCode maps device errors to recognition error codes.
func sourceErrorCode(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "not allowed"), strings.Contains(msg, "denied"):
		return "not-allowed"
	default:
		return "audio-capture"
	}
}

// attempt is one capture. It is the Deepgram message callback and resolves
// exactly once.
type attempt struct {
	cfg    Config
	logger *slog.Logger
	client liveClient

	out      chan capture.Outcome
	once     sync.Once
	done     chan struct{}
	onFinish func()

	mu         sync.Mutex
	pipe       *io.PipeReader
	finals     []string
	heard      bool
	noSpeech   *time.Timer
	metaLogged bool
}

func newAttempt(cfg Config, logger *slog.Logger) *attempt {
	return &attempt{
		cfg:    cfg,
		logger: logger,
		out:    make(chan capture.Outcome, 1),
		done:   make(chan struct{}),
	}
}

func (a *attempt) run(ctx context.Context, frames <-chan audio.Frame) {
	pr, pw := io.Pipe()
	a.mu.Lock()
	a.pipe = pr
	a.mu.Unlock()
	go func() {
		err := a.client.Stream(pr)
		// Stream can return without draining, so unblock pump's writes.
		_ = pr.Close()
		if err != nil && !a.finished() {
			a.logger.Error("deepgram_stream_error", slog.String("session_id", a.cfg.SessionID), slog.Any("error", err))
			a.deliver(capture.Outcome{Err: errorsx.CaptureErrorFromCode("network", errorsx.Wrap(err, errorsx.ReasonCaptureStream))}, "stream_error")
		}
	}()
	go a.pump(ctx, frames, pw)

	a.mu.Lock()
	a.noSpeech = time.AfterFunc(a.cfg.NoSpeechTimeout, func() {
		a.deliver(capture.Outcome{Err: errorsx.CaptureErrorFromCode("no-speech", nil)}, "no_speech")
	})
	a.mu.Unlock()
}

func (a *attempt) pump(ctx context.Context, frames <-chan audio.Frame, pw *io.PipeWriter) {
	defer pw.Close()
	for {
		select {
		case <-ctx.Done():
			a.deliver(capture.Outcome{}, "context_done")
			return
		case <-a.done:
			return
		case f, ok := <-frames:
			if !ok {
				a.deliver(a.pending(), "source_closed")
				return
			}
			_, err := pw.Write(f.Data)
			f.Release()
			if err != nil {
				return
			}
		}
	}
}

func (a *attempt) finished() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// deliver resolves the attempt with o and tears the connection down. Later
// calls are ignored.
func (a *attempt) deliver(o capture.Outcome, reason string) {
	a.once.Do(func() {
		a.mu.Lock()
		if a.noSpeech != nil {
			a.noSpeech.Stop()
		}
		pipe := a.pipe
		a.mu.Unlock()

		close(a.done)
		if pipe != nil {
			_ = pipe.Close()
		}
		a.out <- o
		close(a.out)

		a.logger.Info("capture_resolved",
			slog.String("session_id", a.cfg.SessionID),
			slog.String("reason", reason),
			slog.Bool("transcript", o.Transcript != ""),
			slog.Bool("error", o.Err != nil))

		if a.onFinish != nil {
			a.onFinish()
		}
		// Stop triggers the Close callback, which re-enters deliver.
		if a.client != nil {
			go a.client.Stop()
		}
	})
}

// pending is the outcome for whatever has been finalized so far.
func (a *attempt) pending() capture.Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return capture.Outcome{Transcript: strings.TrimSpace(strings.Join(a.finals, " "))}
}

func (a *attempt) markHeard() {
	a.mu.Lock()
	a.heard = true
	if a.noSpeech != nil {
		a.noSpeech.Stop()
	}
	a.mu.Unlock()
}

// --- Callback Implementation ---

func (a *attempt) Open(or *msginterfaces.OpenResponse) error {
	a.logger.Debug("deepgram_connection_opened", slog.String("session_id", a.cfg.SessionID))
	return nil
}

func (a *attempt) Message(mr *msginterfaces.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	transcript := strings.TrimSpace(mr.Channel.Alternatives[0].Transcript)
	if transcript == "" {
		return nil
	}
	a.markHeard()

	a.logger.Debug("transcript_received",
		slog.String("session_id", a.cfg.SessionID),
		slog.String("transcript", redact.Text(transcript)),
		slog.Bool("is_final", mr.IsFinal),
		slog.Bool("speech_final", mr.SpeechFinal))

	if !mr.IsFinal {
		return nil
	}
	a.mu.Lock()
	a.finals = append(a.finals, transcript)
	a.mu.Unlock()
	if mr.SpeechFinal {
		a.deliver(a.pending(), "speech_final")
	}
	return nil
}

func (a *attempt) Metadata(md *msginterfaces.MetadataResponse) error {
	a.mu.Lock()
	first := !a.metaLogged
	a.metaLogged = true
	a.mu.Unlock()
	if first {
		a.logger.Info("deepgram_metadata_received",
			slog.String("session_id", a.cfg.SessionID),
			slog.String("request_id", md.RequestID))
	}
	return nil
}

func (a *attempt) SpeechStarted(ssr *msginterfaces.SpeechStartedResponse) error {
	a.markHeard()
	a.logger.Debug("speech_started_event", slog.String("session_id", a.cfg.SessionID))
	return nil
}

func (a *attempt) UtteranceEnd(ur *msginterfaces.UtteranceEndResponse) error {
	out := a.pending()
	a.mu.Lock()
	heard := a.heard
	a.mu.Unlock()
	if out.Transcript == "" && !heard {
		// Deepgram can report an utterance end before any speech; keep
		// waiting for the no-speech timer.
		return nil
	}
	a.deliver(out, "utterance_end")
	return nil
}

func (a *attempt) Close(cr *msginterfaces.CloseResponse) error {
	a.logger.Debug("deepgram_connection_closed", slog.String("session_id", a.cfg.SessionID))
	a.deliver(a.pending(), "closed")
	return nil
}

func (a *attempt) Error(er *msginterfaces.ErrorResponse) error {
	a.logger.Error("deepgram_error",
		slog.String("session_id", a.cfg.SessionID),
		slog.String("error_code", er.ErrCode),
		slog.String("error_message", er.ErrMsg))
	err := errorsx.Errorf(errorsx.ReasonCaptureStream, "deepgram %s: %s", er.ErrCode, er.ErrMsg)
	a.deliver(capture.Outcome{Err: errorsx.CaptureErrorFromCode("network", err)}, "error")
	return nil
}

func (a *attempt) UnhandledEvent(byData []byte) error {
	a.logger.Debug("deepgram_unhandled_event",
		slog.String("session_id", a.cfg.SessionID),
		slog.Int("size_bytes", len(byData)))
	return nil
}

var (
	_ capture.Capturer                  = (*Capturer)(nil)
	_ msginterfaces.LiveMessageCallback = (*attempt)(nil)
)
