package speech

import "context"

// Voice is an opaque handle to a synthesis voice, resolved once per session.
type Voice struct {
	ID       string
	Name     string
	Language string
}

// Utterance is one playback request.
type Utterance struct {
	ID    uint64
	Text  string
	Rate  float64
	Voice *Voice
}

// Outcome is the terminal result of one utterance. Err is nil when playback
// ended normally.
type Outcome struct {
	UtteranceID uint64
	Err         error
}

// Speaker defines the contract for any text-to-speech engine.
type Speaker interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Speak starts playback. The returned channel yields exactly one Outcome
	// and is closed, or is closed without an Outcome when the utterance is
	// cancelled.
	Speak(ctx context.Context, u Utterance) <-chan Outcome
	// Cancel stops the in-progress utterance. It is idempotent and safe to
	// call when nothing is speaking.
	Cancel()
}
