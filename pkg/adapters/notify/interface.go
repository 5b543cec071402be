package notify

import "time"

// Level marks how a notification should be presented.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a transient, non-blocking message for the user.
type Notification struct {
	Level   Level
	Kind    string
	Message string
	At      time.Time
}

// Sink displays notifications. Implementations must not block the caller.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }
