package interaction

import (
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/speech"
	"github.com/google/uuid"
)

// Session is the per-run context. FirstInteraction is consumed exactly once.
// Voice is resolved before the session starts and never changes.
type Session struct {
	ID               string
	FirstInteraction bool
	Voice            *speech.Voice
}

// NewSession creates a fresh session with a random ID.
func NewSession(voice *speech.Voice) Session {
	return Session{
		ID:               uuid.NewString(),
		FirstInteraction: true,
		Voice:            voice,
	}
}

// Turn is the transcript of one capture and the sequence ID of the query it
// feeds.
type Turn struct {
	Seq        uint64
	Transcript string
	StartedAt  time.Time
}

// TurnOutcome describes how a turn finished.
type TurnOutcome string

const (
	TurnAnswered    TurnOutcome = "answered"
	TurnApologized  TurnOutcome = "apologized"
	TurnInterrupted TurnOutcome = "interrupted"
	TurnSpeechError TurnOutcome = "speech_error"
)

// TurnRecord is emitted once a turn is destroyed.
type TurnRecord struct {
	Turn    Turn
	Outcome TurnOutcome
	EndedAt time.Time
}

// Latency is the time from transcript to turn completion.
func (r TurnRecord) Latency() time.Duration {
	if r.Turn.StartedAt.IsZero() || r.EndedAt.Before(r.Turn.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.Turn.StartedAt)
}
