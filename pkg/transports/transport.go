package transports

import (
	"context"
	"time"
)

// UpdateType names a surface element.
type UpdateType string

const (
	UpdateControl    UpdateType = "control"
	UpdateStatus     UpdateType = "status"
	UpdateWelcome    UpdateType = "welcome"
	UpdateTranscript UpdateType = "transcript"
	UpdateAlert      UpdateType = "alert"
)

// Phases of the transcript and alert elements.
const (
	PhaseShow = "show"
	PhaseFade = "fade"
	PhaseHide = "hide"
)

// Update is one change to the user-facing surface.
type Update struct {
	Type    UpdateType `json:"type"`
	ID      uint64     `json:"id,omitempty"`
	Control string     `json:"control,omitempty"`
	Text    string     `json:"text,omitempty"`
	Phase   string     `json:"phase,omitempty"`
	Level   string     `json:"level,omitempty"`
	At      time.Time  `json:"at"`
}

// GestureActivate is the only gesture the assistant understands: a tap on the
// mic control.
const GestureActivate = "activate"

// Gesture is one user action received from a surface.
type Gesture struct {
	Kind   string
	Client string
	At     time.Time
}

// Transport defines a vendor-agnostic boundary between the assistant and a
// user-facing surface. Implementations are responsible for their own network
// lifecycle. Send must not block.
type Transport interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Gestures() <-chan Gesture
	Send(Update) error
}

// ReadyReporter allows transports to expose readiness metadata (e.g., listen URLs).
// Implementations are optional and used for informational logging only.
type ReadyReporter interface {
	ReadyFields() map[string]any
}
