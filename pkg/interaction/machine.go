package interaction

import (
	"strings"
)

// Purpose tags what an outstanding utterance is for.
type Purpose int

const (
	PurposeNone Purpose = iota
	PurposeGreeting
	PurposeAnswer
	PurposeApology
)

// Machine is the complete conversational state. It is a plain value: Step
// never mutates its input and never performs I/O.
type Machine struct {
	State   State
	Session Session
	Copy    Copy

	seq        uint64
	captureSeq uint64
	querySeq   uint64
	speechSeq  uint64
	purpose    Purpose
	turn       *Turn
}

// NewMachine returns an idle machine for session.
func NewMachine(session Session, copy Copy) Machine {
	return Machine{
		State:   StateIdle,
		Session: session,
		Copy:    copy.withDefaults(),
	}
}

// Turn returns a copy of the in-flight turn, if any.
func (m Machine) Turn() *Turn {
	if m.turn == nil {
		return nil
	}
	t := *m.turn
	return &t
}

// Outstanding reports the sequence IDs of the pending capture, query and
// utterance. Zero means none.
func (m Machine) Outstanding() (capture, query, utterance uint64) {
	return m.captureSeq, m.querySeq, m.speechSeq
}

func (m *Machine) next() uint64 {
	m.seq++
	return m.seq
}

// Step computes the next machine and the commands the transition requires.
// Events that do not apply to the current state, or that report on an
// operation other than the outstanding one, are ignored.
func Step(m Machine, ev Event) (Machine, []Command) {
	switch ev.Kind {
	case EventActivate:
		return m.onActivate(ev)
	case EventCaptureTranscript, EventCaptureError, EventCaptureEnded:
		if m.State != StateListening || ev.Seq == 0 || ev.Seq != m.captureSeq {
			return m, nil
		}
		return m.onCapture(ev)
	case EventAnswer, EventQueryFailed:
		if m.State != StateThinking || ev.Seq == 0 || ev.Seq != m.querySeq {
			return m, nil
		}
		return m.onQuery(ev)
	case EventSpeechEnded, EventSpeechError:
		if m.State != StateSpeaking || ev.Seq == 0 || ev.Seq != m.speechSeq {
			return m, nil
		}
		return m.onSpeech(ev)
	}
	return m, nil
}

func (m Machine) onActivate(ev Event) (Machine, []Command) {
	switch m.State {
	case StateIdle:
		if m.Session.FirstInteraction {
			m.Session.FirstInteraction = false
			var cmds []Command
			cmds = append(cmds, Command{Kind: CmdSetWelcome, Text: m.Copy.GreetingWelcome})
			cmds = append(cmds, m.speak(PurposeGreeting, m.Copy.Greeting, m.Copy.GreetingRate))
			return m, cmds
		}
		cmd := m.beginCapture()
		return m, []Command{cmd}
	case StateSpeaking:
		cmds := []Command{{Kind: CmdCancelSpeech, Seq: m.speechSeq}}
		if m.purpose == PurposeGreeting {
			cmds = append(cmds, Command{Kind: CmdSetWelcome, Text: m.Copy.Welcome})
		}
		if rec := m.finishTurn(TurnInterrupted, ev); rec != nil {
			cmds = append(cmds, Command{Kind: CmdRecordTurn, Record: rec})
		}
		m.speechSeq = 0
		m.purpose = PurposeNone
		m.State = StateIdle
		return m, cmds
	default:
		// Listening self-terminates and a query cannot be aborted.
		return m, nil
	}
}

func (m Machine) onCapture(ev Event) (Machine, []Command) {
	m.captureSeq = 0
	m.State = StateIdle
	switch ev.Kind {
	case EventCaptureTranscript:
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			return m, nil
		}
		seq := m.next()
		m.turn = &Turn{Seq: seq, Transcript: text, StartedAt: ev.At}
		m.querySeq = seq
		m.State = StateThinking
		return m, []Command{
			{Kind: CmdShowTranscript, Seq: seq, Text: text},
			{Kind: CmdAsk, Seq: seq, Text: text},
		}
	case EventCaptureError:
		return m, []Command{{Kind: CmdNotify, Notice: captureNotice(ev.Err)}}
	default:
		return m, nil
	}
}

func (m Machine) onQuery(ev Event) (Machine, []Command) {
	m.querySeq = 0
	if ev.Kind == EventQueryFailed {
		cmds := []Command{{Kind: CmdNotify, Notice: networkNotice(ev.Err)}}
		cmds = append(cmds, m.speak(PurposeApology, m.Copy.Apology, m.Copy.AnswerRate))
		return m, cmds
	}
	answer := strings.TrimSpace(ev.Text)
	if answer == "" {
		answer = m.Copy.EmptyAnswer
	}
	cmd := m.speak(PurposeAnswer, answer, m.Copy.AnswerRate)
	return m, []Command{cmd}
}

func (m Machine) onSpeech(ev Event) (Machine, []Command) {
	purpose := m.purpose
	m.speechSeq = 0
	m.purpose = PurposeNone
	m.State = StateIdle

	var cmds []Command
	if ev.Kind == EventSpeechError {
		cmds = append(cmds, Command{Kind: CmdNotify, Notice: synthesisNotice(ev.Err)})
	}

	switch purpose {
	case PurposeGreeting:
		cmds = append(cmds, Command{Kind: CmdSetWelcome, Text: m.Copy.Welcome})
		if ev.Kind == EventSpeechEnded {
			cmds = append(cmds, m.beginCapture())
		}
	default:
		outcome := TurnAnswered
		switch {
		case ev.Kind == EventSpeechError:
			outcome = TurnSpeechError
		case purpose == PurposeApology:
			outcome = TurnApologized
		}
		if rec := m.finishTurn(outcome, ev); rec != nil {
			cmds = append(cmds, Command{Kind: CmdRecordTurn, Record: rec})
		}
	}
	return m, cmds
}

func (m *Machine) beginCapture() Command {
	seq := m.next()
	m.captureSeq = seq
	m.State = StateListening
	return Command{Kind: CmdBeginCapture, Seq: seq}
}

func (m *Machine) speak(purpose Purpose, text string, rate float64) Command {
	seq := m.next()
	m.speechSeq = seq
	m.purpose = purpose
	m.State = StateSpeaking
	return Command{Kind: CmdSpeak, Seq: seq, Text: text, Rate: rate}
}

func (m *Machine) finishTurn(outcome TurnOutcome, ev Event) *TurnRecord {
	if m.turn == nil {
		return nil
	}
	rec := &TurnRecord{Turn: *m.turn, Outcome: outcome, EndedAt: ev.At}
	m.turn = nil
	return rec
}
