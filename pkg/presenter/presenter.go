// Package presenter turns controller activity into surface updates: the mic
// control visual, the status line, the welcome copy, the transient transcript
// and alerts.
package presenter

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/notify"
	"github.com/Baishnab1708/MyChatBot/pkg/interaction"
	"github.com/Baishnab1708/MyChatBot/pkg/logging"
	"github.com/Baishnab1708/MyChatBot/pkg/transports"
)

const (
	TranscriptVisible = 3 * time.Second
	AlertVisible      = 3 * time.Second
	FadeDuration      = 300 * time.Millisecond
)

// Control visuals.
const (
	ControlIdle      = "idle"
	ControlListening = "listening"
	ControlBusy      = "busy"
)

// Status copy.
const (
	StatusInitial   = "Tap the mic to begin..."
	StatusIdle      = "Tap to speak..."
	StatusListening = "Listening..."
	StatusThinking  = "Thinking..."
	StatusSpeaking  = "Speaking..."
)

// Publisher receives surface updates. transports.Transport satisfies it.
type Publisher interface {
	Send(transports.Update) error
}

// Timer is the part of *time.Timer the presenter needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

type Options struct {
	Welcome   string
	AfterFunc AfterFunc
	Clock     func() time.Time
	Logger    *slog.Logger
}

type Presenter struct {
	out     Publisher
	after   AfterFunc
	now     func() time.Time
	welcome string
	log     *slog.Logger

	mu         sync.Mutex
	transcript uint64
	fadeTimer  Timer
	alertSeq   uint64
	alerts     map[uint64]Timer
}

func New(out Publisher, opts Options) *Presenter {
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Welcome == "" {
		opts.Welcome = interaction.DefaultCopy().Welcome
	}
	return &Presenter{
		out:     out,
		after:   opts.AfterFunc,
		now:     opts.Clock,
		welcome: opts.Welcome,
		log:     logging.NewComponentLogger(opts.Logger, "presenter"),
		alerts:  make(map[uint64]Timer),
	}
}

// Init publishes the initial surface.
func (p *Presenter) Init() {
	p.send(transports.Update{Type: transports.UpdateControl, Control: ControlIdle})
	p.send(transports.Update{Type: transports.UpdateStatus, Text: StatusInitial})
	p.send(transports.Update{Type: transports.UpdateWelcome, Text: p.welcome})
}

// OnStateChange maps a controller state onto the control visual and status.
func (p *Presenter) OnStateChange(ev interaction.StateChange) {
	control, status := Describe(ev.ToState)
	p.send(transports.Update{Type: transports.UpdateControl, Control: control})
	p.send(transports.Update{Type: transports.UpdateStatus, Text: status})
}

// Describe returns the control visual and status text for a state.
func Describe(s interaction.State) (control, status string) {
	switch s {
	case interaction.StateListening:
		return ControlListening, StatusListening
	case interaction.StateThinking:
		return ControlBusy, StatusThinking
	case interaction.StateSpeaking:
		return ControlBusy, StatusSpeaking
	default:
		return ControlIdle, StatusIdle
	}
}

func (p *Presenter) SetWelcome(text string) {
	p.send(transports.Update{Type: transports.UpdateWelcome, Text: text})
}

// ShowTranscript shows text for the visible window, then fades and hides it.
// Only one transcript timer is active; a new transcript restarts the window.
func (p *Presenter) ShowTranscript(text string) {
	p.mu.Lock()
	p.transcript++
	gen := p.transcript
	if p.fadeTimer != nil {
		p.fadeTimer.Stop()
	}
	p.fadeTimer = p.after(TranscriptVisible, func() { p.fadeTranscript(gen) })
	p.mu.Unlock()
	p.send(transports.Update{Type: transports.UpdateTranscript, ID: gen, Text: text, Phase: transports.PhaseShow})
}

func (p *Presenter) fadeTranscript(gen uint64) {
	p.mu.Lock()
	if gen != p.transcript {
		p.mu.Unlock()
		return
	}
	p.fadeTimer = p.after(FadeDuration, func() { p.hideTranscript(gen) })
	p.mu.Unlock()
	p.send(transports.Update{Type: transports.UpdateTranscript, ID: gen, Phase: transports.PhaseFade})
}

func (p *Presenter) hideTranscript(gen uint64) {
	p.mu.Lock()
	if gen != p.transcript {
		p.mu.Unlock()
		return
	}
	p.fadeTimer = nil
	p.mu.Unlock()
	p.send(transports.Update{Type: transports.UpdateTranscript, ID: gen, Phase: transports.PhaseHide})
}

// Notify shows an alert, fades it after the visible window and hides it once
// the fade completes. Alerts are independent of each other.
func (p *Presenter) Notify(n notify.Notification) {
	p.mu.Lock()
	p.alertSeq++
	id := p.alertSeq
	p.alerts[id] = p.after(AlertVisible, func() { p.fadeAlert(id) })
	p.mu.Unlock()
	p.send(transports.Update{Type: transports.UpdateAlert, ID: id, Text: n.Message, Level: string(n.Level), Phase: transports.PhaseShow})
}

func (p *Presenter) fadeAlert(id uint64) {
	p.mu.Lock()
	if _, ok := p.alerts[id]; !ok {
		p.mu.Unlock()
		return
	}
	p.alerts[id] = p.after(FadeDuration, func() { p.hideAlert(id) })
	p.mu.Unlock()
	p.send(transports.Update{Type: transports.UpdateAlert, ID: id, Phase: transports.PhaseFade})
}

func (p *Presenter) hideAlert(id uint64) {
	p.mu.Lock()
	if _, ok := p.alerts[id]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.alerts, id)
	p.mu.Unlock()
	p.send(transports.Update{Type: transports.UpdateAlert, ID: id, Phase: transports.PhaseHide})
}

// Close stops pending timers. Updates already published are not retracted.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transcript++
	if p.fadeTimer != nil {
		p.fadeTimer.Stop()
		p.fadeTimer = nil
	}
	for id, t := range p.alerts {
		t.Stop()
		delete(p.alerts, id)
	}
}

func (p *Presenter) send(u transports.Update) {
	if p.out == nil {
		return
	}
	u.At = p.now()
	if err := p.out.Send(u); err != nil {
		p.log.Warn("presenter_send_failed", "type", string(u.Type), "error", err.Error())
	}
}

var (
	_ interaction.StateListener = (*Presenter)(nil)
	_ interaction.Display       = (*Presenter)(nil)
	_ notify.Sink               = (*Presenter)(nil)
)
