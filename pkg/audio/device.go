package audio

import "context"

// Source produces microphone audio. Start may be called again after Stop.
type Source interface {
	Name() string
	Start(ctx context.Context) (<-chan Frame, error)
	Stop() error
}

// Sink plays audio. Play blocks until the frame is handed to the device or
// ctx is done.
type Sink interface {
	Name() string
	SampleRate() int
	Play(ctx context.Context, f Frame) error
}

// Discard is a Sink that drops audio. Useful when only the speech timing
// matters.
type Discard struct {
	Rate int
}

func (Discard) Name() string { return "discard" }

func (d Discard) SampleRate() int {
	if d.Rate <= 0 {
		return 16000
	}
	return d.Rate
}

func (Discard) Play(ctx context.Context, f Frame) error {
	f.Release()
	return ctx.Err()
}
