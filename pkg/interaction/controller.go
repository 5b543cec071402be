package interaction

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/backend"
	"github.com/Baishnab1708/MyChatBot/pkg/adapters/capture"
	"github.com/Baishnab1708/MyChatBot/pkg/adapters/notify"
	"github.com/Baishnab1708/MyChatBot/pkg/adapters/speech"
	"github.com/Baishnab1708/MyChatBot/pkg/errorsx"
	"github.com/Baishnab1708/MyChatBot/pkg/logging"
	"github.com/Baishnab1708/MyChatBot/pkg/metrics"
	"github.com/Baishnab1708/MyChatBot/pkg/redact"
)

var (
	ErrNotStarted = errors.New("interaction: controller not started")
	ErrClosed     = errors.New("interaction: controller closed")
)

// Display receives the transcript and welcome copy the machine asks for.
type Display interface {
	ShowTranscript(text string)
	SetWelcome(text string)
}

// Options wires a Controller to its collaborators. Nil collaborators are
// replaced by stand-ins that fail with the matching "unavailable" error.
type Options struct {
	Capturer  capture.Capturer
	Speaker   speech.Speaker
	Asker     backend.Asker
	Notifier  notify.Sink
	Display   Display
	Copy      Copy
	Voice     *speech.Voice
	SessionID string
	// SkipGreeting starts the session as if the greeting had already played.
	SkipGreeting bool
	Logger       *slog.Logger
	Observer     metrics.Observer
	Clock        func() time.Time
	EventBuffer  int
}

// Controller runs the state machine. A single loop goroutine owns the
// Machine; collaborator results come back to it as events.
type Controller struct {
	capturer  capture.Capturer
	speaker   speech.Speaker
	asker     backend.Asker
	notifier  notify.Sink
	display   Display
	log       *slog.Logger
	obs       metrics.Observer
	sessionID string
	now       func() time.Time

	inbox chan message

	// machine is owned by the loop goroutine.
	machine Machine

	mu        sync.RWMutex
	state     State
	listeners []StateListener
	ctx       context.Context
	cancel    context.CancelFunc

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// New builds a Controller in the Idle state. Call Start before Activate.
func New(opts Options) *Controller {
	session := NewSession(opts.Voice)
	if opts.SessionID != "" {
		session.ID = opts.SessionID
	}
	if opts.SkipGreeting {
		session.FirstInteraction = false
	}
	base := opts.Logger
	if base == nil {
		base = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = 16
	}
	c := &Controller{
		capturer:  opts.Capturer,
		speaker:   opts.Speaker,
		asker:     opts.Asker,
		notifier:  opts.Notifier,
		display:   opts.Display,
		sessionID: session.ID,
		log:       logging.NewComponentLogger(base, "interaction").With(slog.String("session_id", session.ID)),
		obs:       metrics.OrNoop(opts.Observer),
		now:       clock,
		inbox:     make(chan message, buffer),
		machine:   NewMachine(session, opts.Copy),
		state:     StateIdle,
		done:      make(chan struct{}),
	}
	if c.capturer == nil {
		c.capturer = unavailableCapturer{}
	}
	if c.speaker == nil {
		c.speaker = unavailableSpeaker{}
	}
	if c.asker == nil {
		c.asker = unavailableAsker{}
	}
	if c.notifier == nil {
		c.notifier = notify.SinkFunc(func(notify.Notification) {})
	}
	if c.display == nil {
		c.display = nopDisplay{}
	}
	return c
}

// SessionID returns the ID of the session this controller drives.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// AddListener registers a state change listener. Register listeners before
// Start.
func (c *Controller) AddListener(l StateListener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// Start launches the event loop. It returns immediately; the loop runs until
// ctx is cancelled or Close is called.
func (c *Controller) Start(ctx context.Context) error {
	started := false
	c.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		c.mu.Lock()
		c.ctx = loopCtx
		c.cancel = cancel
		c.mu.Unlock()
		started = true
		go c.loop(loopCtx)
	})
	if !started {
		return errors.New("interaction: controller already started")
	}
	c.log.Info("controller_started",
		slog.String("capturer", c.capturer.Name()),
		slog.String("speaker", c.speaker.Name()),
		slog.String("asker", c.asker.Name()),
	)
	return nil
}

// Activate delivers one user gesture. Whether it begins capture, plays the
// greeting, interrupts speech or does nothing depends on the current state.
func (c *Controller) Activate() error {
	ctx := c.loopContext()
	if ctx == nil {
		return ErrNotStarted
	}
	if ctx.Err() != nil {
		return ErrClosed
	}
	if !c.post(ctx, Event{Kind: EventActivate}) {
		return ErrClosed
	}
	return nil
}

// State returns the last published state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot returns a copy of the machine as seen by the loop goroutine. It is
// queued behind every event posted before it.
func (c *Controller) Snapshot(ctx context.Context) (Machine, error) {
	loopCtx := c.loopContext()
	if loopCtx == nil {
		return Machine{}, ErrNotStarted
	}
	reply := make(chan Machine, 1)
	select {
	case c.inbox <- message{reply: reply}:
	case <-loopCtx.Done():
		return Machine{}, ErrClosed
	case <-ctx.Done():
		return Machine{}, ctx.Err()
	}
	select {
	case m := <-reply:
		return m, nil
	case <-loopCtx.Done():
		return Machine{}, ErrClosed
	case <-ctx.Done():
		return Machine{}, ctx.Err()
	}
}

// Close stops the loop, cancels speech and aborts any capture. It waits for
// the loop goroutine to exit.
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.RLock()
		cancel := c.cancel
		c.mu.RUnlock()
		if cancel == nil {
			return
		}
		cancel()
		<-c.done
		c.speaker.Cancel()
		if stopErr := c.capturer.Stop(); stopErr != nil {
			err = errorsx.Wrap(stopErr, errorsx.ReasonCaptureStream)
		}
		c.log.Info("controller_closed")
	})
	return err
}

func (c *Controller) loopContext() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctx
}

func (c *Controller) loop(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.inbox:
			if msg.reply != nil {
				msg.reply <- c.machine
				continue
			}
			c.handle(ctx, msg.ev)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = c.now()
	}
	prev := c.machine.State
	next, cmds := Step(c.machine, ev)
	c.machine = next
	if next.State != prev {
		c.publish(StateChange{FromState: prev, ToState: next.State, Timestamp: ev.At, Reason: ev.Kind.String()})
	} else if len(cmds) == 0 && ev.Kind != EventActivate {
		c.log.Debug("event_ignored",
			slog.String("event", ev.Kind.String()),
			slog.Uint64("seq", ev.Seq),
			slog.String("state", prev.String()),
		)
	}
	for _, cmd := range cmds {
		c.execute(ctx, cmd)
	}
}

func (c *Controller) publish(change StateChange) {
	if !transitionValid(change.FromState, change.ToState) {
		c.log.Error("invalid_transition", slog.Any("error", &InvalidTransitionError{From: change.FromState, To: change.ToState}))
	}
	c.mu.Lock()
	c.state = change.ToState
	listeners := append([]StateListener(nil), c.listeners...)
	c.mu.Unlock()

	c.log.Info("state_change",
		slog.String("from", change.FromState.String()),
		slog.String("to", change.ToState.String()),
		slog.String("reason", change.Reason),
	)
	c.obs.RecordEvent(metrics.Event{
		Name: metrics.EventStateChange,
		Time: change.Timestamp,
		Tags: map[string]string{
			"session_id": c.sessionID,
			"from":       change.FromState.String(),
			"to":         change.ToState.String(),
			"reason":     change.Reason,
		},
	})
	for _, l := range listeners {
		l.OnStateChange(change)
	}
}

func (c *Controller) execute(ctx context.Context, cmd Command) {
	c.obs.RecordEvent(metrics.Event{
		Name: metrics.EventCommand,
		Time: c.now(),
		Tags: map[string]string{"session_id": c.sessionID, "command": cmd.Kind.String()},
	})
	switch cmd.Kind {
	case CmdBeginCapture:
		go c.runCapture(ctx, cmd.Seq)
	case CmdShowTranscript:
		c.log.Info("transcript", slog.Uint64("seq", cmd.Seq), slog.String("text", redact.Text(cmd.Text)))
		c.display.ShowTranscript(cmd.Text)
	case CmdAsk:
		go c.runQuery(ctx, cmd.Seq, cmd.Text)
	case CmdSpeak:
		u := speech.Utterance{ID: cmd.Seq, Text: cmd.Text, Rate: cmd.Rate, Voice: c.machine.Session.Voice}
		go c.awaitSpeech(ctx, cmd.Seq, c.speaker.Speak(ctx, u))
	case CmdCancelSpeech:
		c.log.Info("speech_cancelled", slog.Uint64("seq", cmd.Seq))
		c.speaker.Cancel()
	case CmdNotify:
		n := cmd.Notice
		if n.At.IsZero() {
			n.At = c.now()
		}
		c.log.Warn("notification", slog.String("kind", n.Kind), slog.String("message", n.Message))
		c.obs.RecordEvent(metrics.Event{
			Name: metrics.EventNotification,
			Time: n.At,
			Tags: map[string]string{"session_id": c.sessionID, "kind": n.Kind, "level": string(n.Level)},
		})
		c.notifier.Notify(n)
	case CmdSetWelcome:
		c.display.SetWelcome(cmd.Text)
	case CmdRecordTurn:
		rec := cmd.Record
		if rec == nil {
			return
		}
		latency := rec.Latency()
		c.log.Info("turn_completed",
			slog.Uint64("seq", rec.Turn.Seq),
			slog.String("outcome", string(rec.Outcome)),
			slog.Duration("latency", latency),
		)
		c.obs.RecordEvent(metrics.Event{
			Name:  metrics.EventTurnCompleted,
			Time:  rec.EndedAt,
			Value: float64(latency.Milliseconds()),
			Tags: map[string]string{
				"session_id": c.sessionID,
				"outcome":    string(rec.Outcome),
				"seq":        strconv.FormatUint(rec.Turn.Seq, 10),
			},
		})
	}
}

func (c *Controller) runCapture(ctx context.Context, seq uint64) {
	outcomes, err := c.capturer.Begin(ctx)
	if err != nil {
		c.log.Warn("capture_begin_failed", slog.Uint64("seq", seq), slog.Any("error", err))
		c.post(ctx, Event{Kind: EventCaptureError, Seq: seq, Err: err})
		return
	}
	out, ok := <-outcomes
	switch {
	case !ok || out.Ended():
		c.post(ctx, Event{Kind: EventCaptureEnded, Seq: seq})
	case out.Err != nil:
		c.post(ctx, Event{Kind: EventCaptureError, Seq: seq, Err: out.Err})
	default:
		c.post(ctx, Event{Kind: EventCaptureTranscript, Seq: seq, Text: out.Transcript})
	}
}

func (c *Controller) runQuery(ctx context.Context, seq uint64, query string) {
	start := c.now()
	answer, err := c.asker.Ask(ctx, query)
	c.log.Debug("query_finished",
		slog.Uint64("seq", seq),
		slog.Duration("elapsed", c.now().Sub(start)),
		slog.Bool("ok", err == nil),
	)
	if err != nil {
		c.post(ctx, Event{Kind: EventQueryFailed, Seq: seq, Err: err})
		return
	}
	c.post(ctx, Event{Kind: EventAnswer, Seq: seq, Text: answer})
}

func (c *Controller) awaitSpeech(ctx context.Context, seq uint64, outcomes <-chan speech.Outcome) {
	out, ok := <-outcomes
	if !ok {
		// Cancelled utterances close without an outcome.
		return
	}
	if out.Err != nil {
		c.post(ctx, Event{Kind: EventSpeechError, Seq: seq, Err: out.Err})
		return
	}
	c.post(ctx, Event{Kind: EventSpeechEnded, Seq: seq})
}

func (c *Controller) post(ctx context.Context, ev Event) bool {
	if ev.At.IsZero() {
		ev.At = c.now()
	}
	select {
	case c.inbox <- message{ev: ev}:
		return true
	case <-ctx.Done():
		return false
	}
}

// message is either an event or a snapshot request.
type message struct {
	ev    Event
	reply chan Machine
}

type nopDisplay struct{}

func (nopDisplay) ShowTranscript(string) {}
func (nopDisplay) SetWelcome(string)     {}

type unavailableCapturer struct{}

func (unavailableCapturer) Name() string { return "unavailable" }
func (unavailableCapturer) Begin(context.Context) (<-chan capture.Outcome, error) {
	return nil, &errorsx.CaptureError{Kind: errorsx.CaptureOther, Code: "not-supported"}
}
func (unavailableCapturer) Stop() error { return nil }

type unavailableSpeaker struct{}

func (unavailableSpeaker) Name() string { return "unavailable" }
func (unavailableSpeaker) Speak(_ context.Context, u speech.Utterance) <-chan speech.Outcome {
	ch := make(chan speech.Outcome, 1)
	ch <- speech.Outcome{UtteranceID: u.ID, Err: &errorsx.SynthesisError{Kind: errorsx.SynthesisUnavailable}}
	close(ch)
	return ch
}
func (unavailableSpeaker) Cancel() {}

type unavailableAsker struct{}

func (unavailableAsker) Name() string { return "unavailable" }
func (unavailableAsker) Ask(context.Context, string) (string, error) {
	return "", &errorsx.NetworkError{Kind: errorsx.NetworkTransport, Message: "no answering service configured"}
}
