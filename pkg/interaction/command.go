package interaction

import (
	"github.com/Baishnab1708/MyChatBot/pkg/adapters/notify"
)

// CommandKind enumerates the side effects a transition can request.
type CommandKind int

const (
	CmdBeginCapture CommandKind = iota
	CmdShowTranscript
	CmdAsk
	CmdSpeak
	CmdCancelSpeech
	CmdNotify
	CmdSetWelcome
	CmdRecordTurn
)

func (k CommandKind) String() string {
	switch k {
	case CmdBeginCapture:
		return "begin_capture"
	case CmdShowTranscript:
		return "show_transcript"
	case CmdAsk:
		return "ask"
	case CmdSpeak:
		return "speak"
	case CmdCancelSpeech:
		return "cancel_speech"
	case CmdNotify:
		return "notify"
	case CmdSetWelcome:
		return "set_welcome"
	case CmdRecordTurn:
		return "record_turn"
	default:
		return "unknown"
	}
}

// Command is one side effect the Controller must perform after a transition.
type Command struct {
	Kind   CommandKind
	Seq    uint64
	Text   string
	Rate   float64
	Notice notify.Notification
	Record *TurnRecord
}
