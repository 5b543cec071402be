package capture

import (
	"context"
	"errors"
)

// ErrBusy is returned by Begin while a previous attempt is still active.
var ErrBusy = errors.New("capture already active")

// Outcome is the single terminal result of one capture attempt. Exactly one of
// Transcript or Err is set; both empty means the attempt ended with no result.
type Outcome struct {
	Transcript string
	Err        error
}

// Ended reports whether the attempt finished without transcript or error.
func (o Outcome) Ended() bool {
	return o.Err == nil && o.Transcript == ""
}

// Capturer defines the contract for any speech-to-text engine used for
// single-shot capture.
type Capturer interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Begin opens one capture attempt. The returned channel yields exactly one
	// Outcome and is then closed.
	Begin(ctx context.Context) (<-chan Outcome, error)
	// Stop aborts the active attempt, if any. An attempt that has not
	// delivered yet resolves as ended.
	Stop() error
}
