package interaction

import "time"

// EventKind enumerates everything the Controller reacts to.
type EventKind int

const (
	EventActivate EventKind = iota
	EventCaptureTranscript
	EventCaptureError
	EventCaptureEnded
	EventAnswer
	EventQueryFailed
	EventSpeechEnded
	EventSpeechError
)

func (k EventKind) String() string {
	switch k {
	case EventActivate:
		return "activate"
	case EventCaptureTranscript:
		return "capture_transcript"
	case EventCaptureError:
		return "capture_error"
	case EventCaptureEnded:
		return "capture_ended"
	case EventAnswer:
		return "answer"
	case EventQueryFailed:
		return "query_failed"
	case EventSpeechEnded:
		return "speech_ended"
	case EventSpeechError:
		return "speech_error"
	default:
		return "unknown"
	}
}

// Event is one input to the state machine. Seq identifies the collaborator
// operation the event reports on; it is zero for user gestures.
type Event struct {
	Kind EventKind
	Seq  uint64
	Text string
	Err  error
	At   time.Time
}
