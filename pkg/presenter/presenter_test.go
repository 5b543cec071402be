package presenter

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/notify"
	"github.com/Baishnab1708/MyChatBot/pkg/interaction"
	"github.com/Baishnab1708/MyChatBot/pkg/transports"
	"github.com/Baishnab1708/MyChatBot/pkg/transports/mock"
)

// fakeTimers fires scheduled callbacks when the test advances time.
type fakeTimers struct {
	mu      sync.Mutex
	now     time.Duration
	pending []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeTimers) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, f: f}
	c.pending = append(c.pending, t)
	return t
}

func (c *fakeTimers) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.pending {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

func newPresenter(t *testing.T) (*Presenter, *mock.Transport, *fakeTimers) {
	t.Helper()
	out := mock.New()
	timers := &fakeTimers{}
	p := New(out, Options{AfterFunc: timers.AfterFunc})
	return p, out, timers
}

func phases(updates []transports.Update, typ transports.UpdateType) []string {
	var out []string
	for _, u := range updates {
		if u.Type == typ {
			out = append(out, u.Phase)
		}
	}
	return out
}

func TestInitPublishesInitialSurface(t *testing.T) {
	p, out, _ := newPresenter(t)
	p.Init()

	status, ok := out.Last(transports.UpdateStatus)
	if !ok || status.Text != StatusInitial {
		t.Fatalf("expected initial status, got %+v", status)
	}
	control, _ := out.Last(transports.UpdateControl)
	if control.Control != ControlIdle {
		t.Fatalf("expected idle control, got %q", control.Control)
	}
	welcome, _ := out.Last(transports.UpdateWelcome)
	if welcome.Text != "Hello!" {
		t.Fatalf("expected welcome copy, got %q", welcome.Text)
	}
}

func TestStateMapping(t *testing.T) {
	cases := []struct {
		state   interaction.State
		control string
		status  string
	}{
		{interaction.StateIdle, ControlIdle, StatusIdle},
		{interaction.StateListening, ControlListening, StatusListening},
		{interaction.StateThinking, ControlBusy, StatusThinking},
		{interaction.StateSpeaking, ControlBusy, StatusSpeaking},
	}
	for _, tc := range cases {
		p, out, _ := newPresenter(t)
		p.OnStateChange(interaction.StateChange{ToState: tc.state})
		control, _ := out.Last(transports.UpdateControl)
		status, _ := out.Last(transports.UpdateStatus)
		if control.Control != tc.control || status.Text != tc.status {
			t.Fatalf("%s: got control=%q status=%q", tc.state, control.Control, status.Text)
		}
	}
}

func TestTranscriptFadesThenHides(t *testing.T) {
	p, out, timers := newPresenter(t)
	p.ShowTranscript("what are your hours")

	timers.Advance(TranscriptVisible - time.Millisecond)
	if got := phases(out.Sent(), transports.UpdateTranscript); len(got) != 1 || got[0] != transports.PhaseShow {
		t.Fatalf("expected only show before the window ends, got %v", got)
	}
	timers.Advance(time.Millisecond)
	if got := phases(out.Sent(), transports.UpdateTranscript); len(got) != 2 || got[1] != transports.PhaseFade {
		t.Fatalf("expected fade at 3s, got %v", got)
	}
	timers.Advance(FadeDuration)
	got := phases(out.Sent(), transports.UpdateTranscript)
	if len(got) != 3 || got[2] != transports.PhaseHide {
		t.Fatalf("expected hide after fade, got %v", got)
	}
}

func TestNewTranscriptRestartsWindow(t *testing.T) {
	p, out, timers := newPresenter(t)
	p.ShowTranscript("first")
	timers.Advance(2 * time.Second)
	p.ShowTranscript("second")
	timers.Advance(2 * time.Second)

	if got := phases(out.Sent(), transports.UpdateTranscript); len(got) != 2 {
		t.Fatalf("expected the first fade cancelled, got %v", got)
	}
	timers.Advance(time.Second + FadeDuration)
	sent := out.Sent()
	got := phases(sent, transports.UpdateTranscript)
	want := []string{transports.PhaseShow, transports.PhaseShow, transports.PhaseFade, transports.PhaseHide}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	last, _ := out.Last(transports.UpdateTranscript)
	if last.ID != 2 {
		t.Fatalf("expected hide for the second transcript, got id %d", last.ID)
	}
}

func TestAlertsHideIndependently(t *testing.T) {
	p, out, timers := newPresenter(t)
	p.Notify(notify.Notification{Level: notify.LevelError, Message: "Speech synthesis failed."})
	timers.Advance(time.Second)
	p.Notify(notify.Notification{Level: notify.LevelError, Message: "No speech detected."})

	timers.Advance(AlertVisible + FadeDuration - time.Second)
	var hidden []uint64
	for _, u := range out.Sent() {
		if u.Type == transports.UpdateAlert && u.Phase == transports.PhaseHide {
			hidden = append(hidden, u.ID)
		}
	}
	if len(hidden) != 1 || hidden[0] != 1 {
		t.Fatalf("expected only the first alert hidden, got %v", hidden)
	}
	timers.Advance(time.Second)
	hidden = hidden[:0]
	for _, u := range out.Sent() {
		if u.Type == transports.UpdateAlert && u.Phase == transports.PhaseHide {
			hidden = append(hidden, u.ID)
		}
	}
	if len(hidden) != 2 {
		t.Fatalf("expected both alerts hidden, got %v", hidden)
	}
}

func TestAlertFadesBeforeHiding(t *testing.T) {
	p, out, timers := newPresenter(t)
	p.Notify(notify.Notification{Level: notify.LevelError, Message: "Speech synthesis failed."})
	timers.Advance(time.Second)
	p.Notify(notify.Notification{Level: notify.LevelError, Message: "No speech detected."})

	alertPhases := func() []string {
		var got []string
		for _, u := range out.Sent() {
			if u.Type == transports.UpdateAlert {
				got = append(got, fmt.Sprintf("%d:%s", u.ID, u.Phase))
			}
		}
		return got
	}

	timers.Advance(AlertVisible - time.Second)
	if got, want := strings.Join(alertPhases(), ","), "1:show,2:show,1:fade"; got != want {
		t.Fatalf("after visible window got %s, want %s", got, want)
	}
	timers.Advance(FadeDuration)
	if got, want := strings.Join(alertPhases(), ","), "1:show,2:show,1:fade,1:hide"; got != want {
		t.Fatalf("after fade got %s, want %s", got, want)
	}
	timers.Advance(time.Second)
	if got, want := strings.Join(alertPhases(), ","), "1:show,2:show,1:fade,1:hide,2:fade,2:hide"; got != want {
		t.Fatalf("after second alert got %s, want %s", got, want)
	}
}

func TestCloseStopsPendingTimers(t *testing.T) {
	p, out, timers := newPresenter(t)
	p.ShowTranscript("hello")
	p.Notify(notify.Notification{Message: "x"})
	p.Close()
	before := len(out.Sent())
	timers.Advance(10 * time.Second)
	if after := len(out.Sent()); after != before {
		t.Fatalf("expected no updates after close, got %d new", after-before)
	}
}
