package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/speech"
	"github.com/Baishnab1708/MyChatBot/pkg/audio"
	"github.com/Baishnab1708/MyChatBot/pkg/errorsx"
	"github.com/gorilla/websocket"
)

type recordingSink struct {
	mu     sync.Mutex
	frames int
	bytes  int
}

func (r *recordingSink) Name() string    { return "recording" }
func (r *recordingSink) SampleRate() int { return 16000 }

func (r *recordingSink) Play(ctx context.Context, f audio.Frame) error {
	r.mu.Lock()
	r.frames++
	r.bytes += len(f.Data)
	r.mu.Unlock()
	f.Release()
	return ctx.Err()
}

func (r *recordingSink) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

type fakeServer struct {
	mu       sync.Mutex
	received []map[string]any
	hold     bool
	errMsg   string
	status   int
}

func (f *fakeServer) handler(t *testing.T) http.HandlerFunc {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return func(w http.ResponseWriter, r *http.Request) {
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		if r.Header.Get("xi-api-key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg map[string]any
			_ = json.Unmarshal(data, &msg)
			f.mu.Lock()
			f.received = append(f.received, msg)
			f.mu.Unlock()
			if msg["text"] != "" {
				continue
			}
			if f.errMsg != "" {
				_ = conn.WriteJSON(map[string]any{"error": f.errMsg, "message": "bad voice"})
				continue
			}
			chunk := base64.StdEncoding.EncodeToString(make([]byte, 640))
			_ = conn.WriteJSON(map[string]any{"audio": chunk})
			if f.hold {
				continue
			}
			_ = conn.WriteJSON(map[string]any{"audio": chunk, "isFinal": false})
			_ = conn.WriteJSON(map[string]any{"isFinal": true})
		}
	}
}

func (f *fakeServer) Received() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.received...)
}

func newTestSpeaker(t *testing.T, fs *fakeServer, cfg Config) (*Speaker, *recordingSink) {
	t.Helper()
	srv := httptest.NewServer(fs.handler(t))
	t.Cleanup(srv.Close)
	cfg.BaseURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	if cfg.APIKey == "" {
		cfg.APIKey = "key"
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = "voice"
	}
	sink := &recordingSink{}
	return New(cfg, sink), sink
}

func awaitOutcome(t *testing.T, ch <-chan speech.Outcome) (speech.Outcome, bool) {
	t.Helper()
	select {
	case o, ok := <-ch:
		return o, ok
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for speech outcome")
	}
	return speech.Outcome{}, false
}

func TestSpeakPlaysUntilFinal(t *testing.T) {
	fs := &fakeServer{}
	s, sink := newTestSpeaker(t, fs, Config{})

	o, ok := awaitOutcome(t, s.Speak(context.Background(), speech.Utterance{ID: 4, Text: "Hello there", Rate: 1.1}))
	if !ok || o.Err != nil || o.UtteranceID != 4 {
		t.Fatalf("unexpected outcome %+v ok=%v", o, ok)
	}
	if sink.Frames() != 2 {
		t.Fatalf("expected 2 frames played, got %d", sink.Frames())
	}
	msgs := fs.Received()
	if len(msgs) != 3 {
		t.Fatalf("expected init, text and end messages, got %d", len(msgs))
	}
	settings, _ := msgs[0]["voice_settings"].(map[string]any)
	if settings["speed"] != 1.1 {
		t.Fatalf("expected speed 1.1, got %v", settings["speed"])
	}
	if msgs[1]["text"] != "Hello there " {
		t.Fatalf("unexpected text message %v", msgs[1])
	}
}

func TestCancelClosesWithoutOutcome(t *testing.T) {
	fs := &fakeServer{hold: true}
	s, sink := newTestSpeaker(t, fs, Config{})

	ch := s.Speak(context.Background(), speech.Utterance{ID: 1, Text: "a long answer"})
	deadline := time.Now().Add(2 * time.Second)
	for sink.Frames() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Cancel()
	s.Cancel()
	if o, ok := awaitOutcome(t, ch); ok {
		t.Fatalf("expected no outcome after cancel, got %+v", o)
	}
}

func TestCancelWhenIdleIsNoop(t *testing.T) {
	s := New(Config{}, nil)
	s.Cancel()
}

func TestServerErrorIsPlaybackFailure(t *testing.T) {
	fs := &fakeServer{errMsg: "invalid_voice"}
	s, _ := newTestSpeaker(t, fs, Config{})

	o, ok := awaitOutcome(t, s.Speak(context.Background(), speech.Utterance{ID: 2, Text: "hi"}))
	if !ok {
		t.Fatalf("expected outcome")
	}
	if se := errorsx.AsSynthesis(o.Err); se.Kind != errorsx.SynthesisPlaybackFailed {
		t.Fatalf("expected playback failure, got %v", o.Err)
	}
}

func TestMissingConfigIsUnavailable(t *testing.T) {
	s := New(Config{}, nil)
	o, _ := awaitOutcome(t, s.Speak(context.Background(), speech.Utterance{ID: 1, Text: "hi"}))
	if se := errorsx.AsSynthesis(o.Err); se.Kind != errorsx.SynthesisUnavailable {
		t.Fatalf("expected unavailable, got %v", o.Err)
	}
}

func TestRateLimitsOpenBreaker(t *testing.T) {
	fs := &fakeServer{status: http.StatusTooManyRequests}
	s, _ := newTestSpeaker(t, fs, Config{BreakerThreshold: 2, BreakerCooldown: time.Minute})

	for i := 0; i < 2; i++ {
		o, _ := awaitOutcome(t, s.Speak(context.Background(), speech.Utterance{ID: uint64(i + 1), Text: "hi"}))
		if !errorsx.HasReason(o.Err, errorsx.ReasonSpeechRateLimit) {
			t.Fatalf("expected rate limit reason, got %v", o.Err)
		}
	}
	o, _ := awaitOutcome(t, s.Speak(context.Background(), speech.Utterance{ID: 3, Text: "hi"}))
	if se := errorsx.AsSynthesis(o.Err); se.Kind != errorsx.SynthesisUnavailable {
		t.Fatalf("expected unavailable while circuit open, got %v", o.Err)
	}
	if !errorsx.HasReason(o.Err, errorsx.ReasonSpeechCircuitOpen) {
		t.Fatalf("expected circuit open reason, got %v", o.Err)
	}
}

func TestSampleRateFromFormat(t *testing.T) {
	cases := map[string]int{"pcm_16000": 16000, "pcm_22050": 22050, "mp3_44100_128": 44100, "ulaw_8000": 8000, "": 16000}
	for format, want := range cases {
		if got := SampleRate(format); got != want {
			t.Fatalf("%q: got %d want %d", format, got, want)
		}
	}
}
