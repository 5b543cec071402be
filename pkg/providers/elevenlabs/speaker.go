package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/speech"
	"github.com/Baishnab1708/MyChatBot/pkg/audio"
	"github.com/Baishnab1708/MyChatBot/pkg/errorsx"
	"github.com/Baishnab1708/MyChatBot/pkg/logging"
	"github.com/Baishnab1708/MyChatBot/pkg/resilience"
	"github.com/gorilla/websocket"
)

const defaultBaseURL = "wss://api.elevenlabs.io"

type Config struct {
	APIKey          string  `mapstructure:"api_key"`
	VoiceID         string  `mapstructure:"voice_id"`
	ModelID         string  `mapstructure:"model_id"`
	OutputFormat    string  `mapstructure:"output_format"`
	BaseURL         string  `mapstructure:"base_url"`
	Stability       float64 `mapstructure:"stability"`
	SimilarityBoost float64 `mapstructure:"similarity_boost"`
	SessionID       string  `mapstructure:"-"`
	// BreakerThreshold rate limits open the breaker for BreakerCooldown.
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

func (c Config) withDefaults() Config {
	if c.OutputFormat == "" {
		c.OutputFormat = "pcm_16000"
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.ModelID == "" {
		c.ModelID = "eleven_turbo_v2_5"
	}
	if c.Stability == 0 {
		c.Stability = 0.5
	}
	if c.SimilarityBoost == 0 {
		c.SimilarityBoost = 0.8
	}
	return c
}

// SampleRate derives the sample rate from an output format such as
// pcm_22050 or mp3_44100_128.
func SampleRate(format string) int {
	parts := strings.Split(format, "_")
	if len(parts) >= 2 {
		if n, err := strconv.Atoi(parts[1]); err == nil && n > 0 {
			return n
		}
	}
	return 16000
}

// Speaker streams each utterance through the ElevenLabs stream-input
// websocket and plays the returned PCM on an audio.Sink.
type Speaker struct {
	cfg     Config
	sink    audio.Sink
	breaker *resilience.CircuitBreaker
	dialer  websocket.Dialer
	logger  *slog.Logger

	mu     sync.Mutex
	active *playback
}

type playback struct {
	id        uint64
	cancel    context.CancelFunc
	mu        sync.Mutex
	cancelled bool
}

func (p *playback) stop() {
	p.mu.Lock()
	p.cancelled = true
	p.mu.Unlock()
	p.cancel()
}

func (p *playback) wasCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

func New(cfg Config, sink audio.Sink) *Speaker {
	cfg = cfg.withDefaults()
	if sink == nil {
		sink = audio.Discard{Rate: SampleRate(cfg.OutputFormat)}
	}
	return &Speaker{
		cfg:     cfg,
		sink:    sink,
		breaker: resilience.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		dialer:  websocket.Dialer{Proxy: http.ProxyFromEnvironment, HandshakeTimeout: 10 * time.Second},
		logger:  logging.NewComponentLogger(slog.Default(), "elevenlabs_speech"),
	}
}

func (s *Speaker) Name() string { return "elevenlabs_stream" }

func (s *Speaker) Speak(ctx context.Context, u speech.Utterance) <-chan speech.Outcome {
	out := make(chan speech.Outcome, 1)
	pctx, cancel := context.WithCancel(ctx)
	p := &playback{id: u.ID, cancel: cancel}

	s.mu.Lock()
	prev := s.active
	s.active = p
	s.mu.Unlock()
	if prev != nil {
		prev.stop()
	}

	go func() {
		defer close(out)
		defer cancel()
		err := s.synthesize(pctx, u)
		s.mu.Lock()
		if s.active == p {
			s.active = nil
		}
		s.mu.Unlock()
		if p.wasCancelled() {
			s.logger.Debug("utterance_cancelled", slog.Uint64("utterance_id", u.ID))
			return
		}
		if err != nil {
			s.logger.Warn("utterance_failed",
				slog.Uint64("utterance_id", u.ID),
				slog.String("reason", string(errorsx.Reason(err))),
				slog.Any("error", err))
		}
		out <- speech.Outcome{UtteranceID: u.ID, Err: err}
	}()
	return out
}

func (s *Speaker) Cancel() {
	s.mu.Lock()
	p := s.active
	s.active = nil
	s.mu.Unlock()
	if p != nil {
		p.stop()
		s.logger.Info("tts_cancelled", slog.Uint64("utterance_id", p.id))
	}
}

func (s *Speaker) synthesize(ctx context.Context, u speech.Utterance) error {
	voiceID := s.cfg.VoiceID
	if u.Voice != nil && u.Voice.ID != "" {
		voiceID = u.Voice.ID
	}
	if s.cfg.APIKey == "" || voiceID == "" {
		return &errorsx.SynthesisError{Kind: errorsx.SynthesisUnavailable, Detail: "missing elevenlabs config"}
	}
	if !s.breaker.Allow() {
		return &errorsx.SynthesisError{
			Kind:   errorsx.SynthesisUnavailable,
			Detail: "elevenlabs circuit open",
			Err:    errorsx.Errorf(errorsx.ReasonSpeechCircuitOpen, "circuit open until %s", s.breaker.OpenUntil().Format(time.RFC3339)),
		}
	}
	text := strings.TrimSpace(u.Text)
	if text == "" {
		return nil
	}

	conn, err := s.dial(ctx, voiceID)
	if err != nil {
		s.breaker.OnError(err)
		if resilience.IsRateLimit(err) {
			return &errorsx.SynthesisError{Kind: errorsx.SynthesisPlaybackFailed, Err: errorsx.Wrap(err, errorsx.ReasonSpeechRateLimit)}
		}
		return &errorsx.SynthesisError{Kind: errorsx.SynthesisPlaybackFailed, Err: errorsx.Wrap(err, errorsx.ReasonSpeechDial)}
	}
	s.breaker.OnSuccess()
	defer conn.Close()

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stopWatch:
		}
	}()

	messages := []map[string]any{
		{
			"text": " ",
			"voice_settings": map[string]any{
				"stability":        s.cfg.Stability,
				"similarity_boost": s.cfg.SimilarityBoost,
				"speed":            clampSpeed(u.Rate),
			},
		},
		{"text": text + " ", "try_trigger_generation": true},
		{"text": ""},
	}
	for _, m := range messages {
		if err := writeJSON(conn, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &errorsx.SynthesisError{Kind: errorsx.SynthesisPlaybackFailed, Err: errorsx.Wrap(err, errorsx.ReasonSpeechSend)}
		}
	}

	s.logger.Debug("utterance_sent",
		slog.String("session_id", s.cfg.SessionID),
		slog.Uint64("utterance_id", u.ID),
		slog.Float64("rate", u.Rate))
	return s.receive(ctx, conn)
}

func (s *Speaker) dial(ctx context.Context, voiceID string) (*websocket.Conn, error) {
	q := url.Values{}
	q.Set("model_id", s.cfg.ModelID)
	q.Set("output_format", s.cfg.OutputFormat)
	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(voiceID) + "/stream-input?" + q.Encode()

	conn, resp, err := s.dialer.DialContext(ctx, endpoint, http.Header{
		"xi-api-key": []string{s.cfg.APIKey},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			s.logger.Error("elevenlabs_rate_limited", slog.String("status", resp.Status))
			return nil, resilience.RateLimitError{Provider: "elevenlabs", Message: resp.Status}
		}
		s.logger.Error("elevenlabs_dial_failed", slog.Any("error", err))
		return nil, err
	}
	return conn, nil
}

type streamMessage struct {
	Audio       string `json:"audio"`
	AudioBase64 string `json:"audio_base_64"`
	IsFinal     bool   `json:"isFinal"`
	Error       string `json:"error"`
	Message     string `json:"message"`
}

func (s *Speaker) receive(ctx context.Context, conn *websocket.Conn) error {
	rate := SampleRate(s.cfg.OutputFormat)
	var pts time.Duration
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return &errorsx.SynthesisError{Kind: errorsx.SynthesisPlaybackFailed, Err: errorsx.Wrap(err, errorsx.ReasonSpeechPlayback)}
		}
		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("tts_websocket_raw_data", slog.Int("size_bytes", len(data)))
			continue
		}
		if msg.Error != "" {
			return &errorsx.SynthesisError{
				Kind:   errorsx.SynthesisPlaybackFailed,
				Detail: msg.Error,
				Err:    errorsx.Errorf(errorsx.ReasonSpeechPlayback, "elevenlabs %s: %s", msg.Error, msg.Message),
			}
		}
		chunk := msg.Audio
		if chunk == "" {
			chunk = msg.AudioBase64
		}
		if chunk != "" {
			raw, err := base64.StdEncoding.DecodeString(chunk)
			if err != nil {
				s.logger.Error("tts_audio_decode_error", slog.Any("error", err))
				continue
			}
			f := audio.NewFrame(raw, rate, 1, pts)
			pts += f.Duration()
			if err := s.sink.Play(ctx, f); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return &errorsx.SynthesisError{Kind: errorsx.SynthesisPlaybackFailed, Err: errorsx.Wrap(err, errorsx.ReasonSpeechPlayback)}
			}
		}
		if msg.IsFinal {
			return nil
		}
	}
}

func writeJSON(conn *websocket.Conn, payload map[string]any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

// clampSpeed keeps the rate inside the range ElevenLabs accepts.
func clampSpeed(rate float64) float64 {
	switch {
	case rate <= 0:
		return 1.0
	case rate < 0.7:
		return 0.7
	case rate > 1.2:
		return 1.2
	default:
		return rate
	}
}

var _ speech.Speaker = (*Speaker)(nil)
