package metrics

import "time"

// Event names recorded by the assistant.
const (
	EventStateChange   = "state_change"
	EventTurnCompleted = "turn_completed"
	EventNotification  = "notification"
	EventCommand       = "command"
)

// Event is a single observation. Tags are low-cardinality labels; Fields
// carry values.
type Event struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

// NewEvent returns an event stamped with the current time.
func NewEvent(name string, value float64, tags map[string]string) Event {
	return Event{Name: name, Time: time.Now(), Value: value, Tags: tags}
}

type Observer interface {
	RecordEvent(ev Event)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(Event) {}

// OrNoop returns obs, or a NoopObserver when obs is nil.
func OrNoop(obs Observer) Observer {
	if obs == nil {
		return NoopObserver{}
	}
	return obs
}
