package interaction

import (
	"strings"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/notify"
	"github.com/Baishnab1708/MyChatBot/pkg/errorsx"
)

const (
	MsgPermissionDenied     = "Microphone access denied. Please enable it in your browser settings."
	MsgNoSpeech             = "No speech detected. Please tap the mic and try again."
	MsgCaptureUnsupported   = "Speech Recognition is not supported by this device."
	MsgSynthesisFailed      = "Speech synthesis failed."
	MsgSynthesisUnavailable = "Text-to-speech not supported or voice not loaded."
)

// Copy holds the fixed utterances and display copy of the assistant.
type Copy struct {
	Greeting        string
	GreetingRate    float64
	AnswerRate      float64
	Apology         string
	EmptyAnswer     string
	Welcome         string
	GreetingWelcome string
}

// DefaultCopy returns the stock assistant copy.
func DefaultCopy() Copy {
	return Copy{
		Greeting: "Hey there! You're probably looking for Baishnab, but he's busy right now. " +
			"Don't worry though, I'm here as Baishnab's assistant. You can ask me anything: " +
			"his introduction, projects, experience, skills, certifications, or even his contact details. " +
			"I'll walk you through everything.",
		GreetingRate:    1.0,
		AnswerRate:      1.1,
		Apology:         "I'm sorry, an error occurred. Please try again.",
		EmptyAnswer:     "Sorry, I don't have an answer for that.",
		Welcome:         "Hello!",
		GreetingWelcome: "Hi there!",
	}
}

// withDefaults fills blank fields from DefaultCopy.
func (c Copy) withDefaults() Copy {
	d := DefaultCopy()
	if strings.TrimSpace(c.Greeting) == "" {
		c.Greeting = d.Greeting
	}
	if c.GreetingRate <= 0 {
		c.GreetingRate = d.GreetingRate
	}
	if c.AnswerRate <= 0 {
		c.AnswerRate = d.AnswerRate
	}
	if strings.TrimSpace(c.Apology) == "" {
		c.Apology = d.Apology
	}
	if strings.TrimSpace(c.EmptyAnswer) == "" {
		c.EmptyAnswer = d.EmptyAnswer
	}
	if c.Welcome == "" {
		c.Welcome = d.Welcome
	}
	if c.GreetingWelcome == "" {
		c.GreetingWelcome = d.GreetingWelcome
	}
	return c
}

// captureNotice translates a capture failure into user copy.
func captureNotice(err error) notify.Notification {
	ce := errorsx.AsCapture(err)
	n := notify.Notification{Level: notify.LevelError, Kind: "capture_" + ce.Kind.String()}
	switch ce.Kind {
	case errorsx.CapturePermissionDenied:
		n.Message = MsgPermissionDenied
	case errorsx.CaptureNoSpeech:
		n.Message = MsgNoSpeech
	default:
		if ce.Code == "not-supported" {
			n.Message = MsgCaptureUnsupported
		} else {
			n.Message = "Recognition error: " + ce.Code
		}
	}
	return n
}

// networkNotice translates a backend failure into user copy. Every sub-kind
// drives the same transition; only the message differs.
func networkNotice(err error) notify.Notification {
	ne := errorsx.AsNetwork(err)
	return notify.Notification{
		Level:   notify.LevelError,
		Kind:    "backend_" + ne.Kind.String(),
		Message: "Error communicating with backend: " + ne.Error() + ".",
	}
}

// synthesisNotice translates a speech output failure into user copy.
func synthesisNotice(err error) notify.Notification {
	se := errorsx.AsSynthesis(err)
	n := notify.Notification{Level: notify.LevelError, Kind: "synthesis_" + se.Kind.String()}
	if se.Kind == errorsx.SynthesisUnavailable {
		n.Message = MsgSynthesisUnavailable
	} else {
		n.Message = MsgSynthesisFailed
	}
	return n
}
