package interaction

import "time"

// State is the conversational state owned by the Controller.
type State int

const (
	StateIdle State = iota
	StateListening
	StateThinking
	StateSpeaking
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateListening:
		return "LISTENING"
	case StateThinking:
		return "THINKING"
	case StateSpeaking:
		return "SPEAKING"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether s is one of the four defined states.
func (s State) Valid() bool {
	return s >= StateIdle && s <= StateSpeaking
}

// StateChange represents a state transition event.
type StateChange struct {
	FromState State
	ToState   State
	Timestamp time.Time
	Reason    string
}

// StateListener observes state changes. Listeners are called from the
// Controller's loop goroutine and must not block or call back into the
// Controller synchronously.
type StateListener interface {
	OnStateChange(event StateChange)
}

var validTransitions = map[State][]State{
	StateIdle:      {StateListening, StateSpeaking},
	StateListening: {StateThinking, StateIdle},
	StateThinking:  {StateSpeaking, StateIdle},
	StateSpeaking:  {StateListening, StateIdle},
}

// transitionValid checks if a state transition is allowed.
func transitionValid(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError represents an invalid state transition attempt
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid state transition from " + e.From.String() + " to " + e.To.String()
}
