package mock

import (
	"context"
	"sync"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/speech"
)

type SpeechConfig struct {
	// Delay is how long each utterance "plays".
	Delay time.Duration `mapstructure:"delay"`
	// Hold keeps utterances playing until Finish or Cancel.
	Hold bool `mapstructure:"hold"`
	// Err, when set, fails every utterance.
	Err error `mapstructure:"-"`
}

type Speaker struct {
	cfg SpeechConfig

	mu      sync.Mutex
	spoken  []speech.Utterance
	cancels int
	active  *utterance
}

type utterance struct {
	id     uint64
	out    chan speech.Outcome
	finish chan error
	stop   chan struct{}
	once   sync.Once
}

func (u *utterance) cancel() {
	u.once.Do(func() { close(u.stop) })
}

func NewSpeaker(cfg SpeechConfig) *Speaker {
	return &Speaker{cfg: cfg}
}

func (s *Speaker) Name() string { return "mock_speech" }

func (s *Speaker) Speak(ctx context.Context, u speech.Utterance) <-chan speech.Outcome {
	p := &utterance{
		id:     u.ID,
		out:    make(chan speech.Outcome, 1),
		finish: make(chan error, 1),
		stop:   make(chan struct{}),
	}
	s.mu.Lock()
	s.spoken = append(s.spoken, u)
	if s.active != nil {
		s.active.cancel()
	}
	s.active = p
	s.mu.Unlock()

	go s.play(ctx, p)
	return p.out
}

func (s *Speaker) play(ctx context.Context, p *utterance) {
	defer close(p.out)
	defer s.release(p)

	var done <-chan time.Time
	if !s.cfg.Hold {
		timer := time.NewTimer(s.cfg.Delay)
		defer timer.Stop()
		done = timer.C
	}
	select {
	case <-p.stop:
		return
	case <-ctx.Done():
		return
	case err := <-p.finish:
		p.out <- speech.Outcome{UtteranceID: p.id, Err: err}
	case <-done:
		p.out <- speech.Outcome{UtteranceID: p.id, Err: s.cfg.Err}
	}
}

// Finish completes a held utterance with err (nil for a normal end).
func (s *Speaker) Finish(err error) bool {
	s.mu.Lock()
	p := s.active
	s.mu.Unlock()
	if p == nil {
		return false
	}
	select {
	case p.finish <- err:
		return true
	default:
		return false
	}
}

func (s *Speaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
	if s.active != nil {
		s.active.cancel()
		s.active = nil
	}
}

// Spoken returns every utterance requested so far.
func (s *Speaker) Spoken() []speech.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]speech.Utterance(nil), s.spoken...)
}

// Cancels returns how many times Cancel was called.
func (s *Speaker) Cancels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

// Active reports whether an utterance is currently playing.
func (s *Speaker) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

func (s *Speaker) release(p *utterance) {
	s.mu.Lock()
	if s.active == p {
		s.active = nil
	}
	s.mu.Unlock()
}

var _ speech.Speaker = (*Speaker)(nil)
