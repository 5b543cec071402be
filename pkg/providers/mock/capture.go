package mock

import (
	"context"
	"sync"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/capture"
)

type CaptureConfig struct {
	// Transcripts are returned one per attempt, in order. When exhausted the
	// attempt ends with no result.
	Transcripts []string `mapstructure:"transcripts"`
	// Err, when set, fails every attempt.
	Err error `mapstructure:"-"`
	// Delay before the outcome is delivered.
	Delay time.Duration `mapstructure:"delay"`
	// Hold keeps every attempt open until Stop or context cancellation.
	Hold bool `mapstructure:"hold"`
}

type Capturer struct {
	cfg CaptureConfig

	mu     sync.Mutex
	next   int
	begins int
	stops  int
	active chan struct{}
}

func NewCapturer(cfg CaptureConfig) *Capturer {
	return &Capturer{cfg: cfg}
}

func (c *Capturer) Name() string { return "mock_capture" }

func (c *Capturer) Begin(ctx context.Context) (<-chan capture.Outcome, error) {
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return nil, capture.ErrBusy
	}
	c.begins++
	stop := make(chan struct{})
	c.active = stop
	outcome := capture.Outcome{Err: c.cfg.Err}
	if c.cfg.Err == nil && c.next < len(c.cfg.Transcripts) {
		outcome.Transcript = c.cfg.Transcripts[c.next]
		c.next++
	}
	c.mu.Unlock()

	out := make(chan capture.Outcome, 1)
	go func() {
		defer close(out)
		// The slot is free before the outcome is readable, so a caller may
		// Begin again as soon as it receives.
		deliver := func(o capture.Outcome) {
			c.release(stop)
			out <- o
		}
		if c.cfg.Hold {
			select {
			case <-stop:
			case <-ctx.Done():
			}
			deliver(capture.Outcome{})
			return
		}
		if c.cfg.Delay > 0 {
			timer := time.NewTimer(c.cfg.Delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-stop:
				deliver(capture.Outcome{})
				return
			case <-ctx.Done():
				deliver(capture.Outcome{})
				return
			}
		}
		deliver(outcome)
	}()
	return out, nil
}

func (c *Capturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	if c.active != nil {
		close(c.active)
		c.active = nil
	}
	return nil
}

// Begins returns how many attempts were opened.
func (c *Capturer) Begins() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.begins
}

// Stops returns how many times Stop was called.
func (c *Capturer) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

func (c *Capturer) release(stop chan struct{}) {
	c.mu.Lock()
	if c.active == stop {
		c.active = nil
	}
	c.mu.Unlock()
}

var _ capture.Capturer = (*Capturer)(nil)
