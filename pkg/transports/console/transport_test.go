package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/transports"
)

func TestLinesBecomeGesturesUntilEOF(t *testing.T) {
	tr := New(Config{}, strings.NewReader("\nagain\n"), &bytes.Buffer{})
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	count := 0
	timeout := time.After(2 * time.Second)
	for {
		select {
		case g, ok := <-tr.Gestures():
			if !ok {
				if count != 2 {
					t.Fatalf("expected 2 gestures, got %d", count)
				}
				return
			}
			if g.Kind != transports.GestureActivate {
				t.Fatalf("unexpected gesture %q", g.Kind)
			}
			count++
		case <-timeout:
			t.Fatalf("gesture stream never closed")
		}
	}
}

func TestSendFormatsVisibleUpdates(t *testing.T) {
	var out bytes.Buffer
	tr := New(Config{}, strings.NewReader(""), &out)
	updates := []transports.Update{
		{Type: transports.UpdateWelcome, Text: "Hello!"},
		{Type: transports.UpdateControl, Control: "idle"},
		{Type: transports.UpdateStatus, Text: "Listening..."},
		{Type: transports.UpdateTranscript, Text: "what is go", Phase: transports.PhaseShow},
		{Type: transports.UpdateTranscript, Phase: transports.PhaseFade},
		{Type: transports.UpdateAlert, Text: "Speech synthesis failed.", Phase: transports.PhaseShow},
		{Type: transports.UpdateAlert, Phase: transports.PhaseHide},
	}
	for _, u := range updates {
		if err := tr.Send(u); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	want := "Hello!\n[Listening...]\nyou: what is go\n! Speech synthesis failed.\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}
