// Package assistant wires configuration, providers, the interaction
// controller and the user-facing surface into one runnable process.
package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/speech"
	"github.com/Baishnab1708/MyChatBot/pkg/audio"
	"github.com/Baishnab1708/MyChatBot/pkg/config"
	"github.com/Baishnab1708/MyChatBot/pkg/interaction"
	"github.com/Baishnab1708/MyChatBot/pkg/logging"
	"github.com/Baishnab1708/MyChatBot/pkg/metrics"
	"github.com/Baishnab1708/MyChatBot/pkg/observers"
	"github.com/Baishnab1708/MyChatBot/pkg/presenter"
	"github.com/Baishnab1708/MyChatBot/pkg/redact"
	"github.com/Baishnab1708/MyChatBot/pkg/runner"
	"github.com/Baishnab1708/MyChatBot/pkg/transports"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

type Options struct {
	Config    config.Config
	Providers *ProviderRegistry
	// Source and Sink are the local audio devices. Either may be nil.
	Source audio.Source
	Sink   audio.Sink
	Fs     afero.Fs
	Stdin  io.Reader
	Stdout io.Writer
	Logger *slog.Logger
	// Banner receives the startup banner. Nil disables it.
	Banner io.Writer
	// AfterFunc overrides presenter timers, mainly for tests.
	AfterFunc presenter.AfterFunc
}

// Assistant is one running session of the voice assistant.
type Assistant struct {
	cfg        config.Config
	sessionID  string
	controller *interaction.Controller
	presenter  *presenter.Presenter
	transport  transports.Transport
	runner     *runner.LifecycleRunner
	asyncObs   *metrics.AsyncObserver
	observers  *observers.MultiObserver
	timeline   *observers.TimelineObserver
	events     afero.File
	log        *slog.Logger
}

func New(opts Options) (*Assistant, error) {
	cfg := opts.Config
	base := opts.Logger
	if base == nil {
		base = slog.Default()
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	providers := opts.Providers
	if providers == nil {
		providers = DefaultRegistry()
	}
	redact.SetEnabled(cfg.Privacy.RedactPII)

	sessionID := uuid.NewString()
	log := logging.NewComponentLogger(base, "assistant").With(slog.String("session_id", sessionID))
	log.Info("assistant_init",
		"environment", cfg.Environment,
		"capture_provider", cfg.Vendors.Capture.Provider,
		"speech_provider", cfg.Vendors.Speech.Provider,
		"backend_provider", cfg.Vendors.Backend.Provider,
		"transport", cfg.Transports.Provider,
	)

	obsList := []metrics.Observer{observers.NewLatencyObserver(base)}
	if cfg.Observability.LogEvents {
		obsList = append(obsList, observers.NewLoggerObserver(base, slog.LevelDebug))
	}
	var timeline *observers.TimelineObserver
	if dir := strings.TrimSpace(cfg.Observability.TimelineDir); dir != "" {
		if cfg.Observability.RetentionDays > 0 {
			maxAge := time.Duration(cfg.Observability.RetentionDays) * 24 * time.Hour
			if n, err := observers.PurgeTimelines(fs, dir, maxAge, time.Now()); err != nil {
				log.Warn("timeline_purge_failed", "error", err.Error())
			} else if n > 0 {
				log.Info("timeline_purged", "files", n)
			}
		}
		timeline = observers.NewTimelineObserver(fs, dir)
		obsList = append(obsList, timeline)
	}
	var events afero.File
	if path := strings.TrimSpace(cfg.Observability.EventsFile); path != "" {
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		events = f
		obsList = append(obsList, metrics.NewJSONLObserver(f))
	}
	multi := observers.NewMultiObserver(obsList...)
	var sink metrics.Observer = multi
	if rate := cfg.Observability.SampleRate; rate < 1 {
		sink = metrics.NewSamplingObserver(multi, rate, metrics.EventStateChange, metrics.EventTurnCompleted, metrics.EventNotification)
	}
	asyncObs := metrics.NewAsyncObserver(sink, cfg.Observability.EventBuffer)
	abort := func(err error) (*Assistant, error) {
		asyncObs.Close()
		if events != nil {
			_ = events.Close()
		}
		return nil, err
	}

	deps := Deps{
		Config:    cfg,
		SessionID: sessionID,
		Logger:    base,
		Source:    opts.Source,
		Sink:      opts.Sink,
		Fs:        fs,
		Stdin:     opts.Stdin,
		Stdout:    opts.Stdout,
	}
	capturer, err := providers.BuildCapture(cfg.Vendors.Capture, deps)
	if err != nil {
		return abort(err)
	}
	speaker, err := providers.BuildSpeech(cfg.Vendors.Speech, deps)
	if err != nil {
		return abort(err)
	}
	asker, err := providers.BuildBackend(cfg.Vendors.Backend, deps)
	if err != nil {
		return abort(err)
	}
	transport, err := providers.BuildTransport(cfg.Transports, deps)
	if err != nil {
		return abort(err)
	}

	copyText := interaction.DefaultCopy()
	copyText.GreetingRate = cfg.Session.GreetingRate
	copyText.AnswerRate = cfg.Session.AnswerRate
	var voice *speech.Voice
	if v := strings.TrimSpace(cfg.Session.Voice); v != "" {
		voice = &speech.Voice{ID: v}
	}

	view := presenter.New(transport, presenter.Options{
		Welcome:   copyText.Welcome,
		AfterFunc: opts.AfterFunc,
		Logger:    base,
	})
	controller := interaction.New(interaction.Options{
		Capturer:     capturer,
		Speaker:      speaker,
		Asker:        asker,
		Notifier:     view,
		Display:      view,
		Copy:         copyText,
		Voice:        voice,
		SessionID:    sessionID,
		SkipGreeting: !cfg.Session.Greeting,
		Logger:       base,
		Observer:     asyncObs,
	})
	controller.AddListener(view)

	a := &Assistant{
		cfg:        cfg,
		sessionID:  sessionID,
		controller: controller,
		presenter:  view,
		transport:  transport,
		asyncObs:   asyncObs,
		observers:  multi,
		timeline:   timeline,
		events:     events,
		log:        log,
	}
	a.runner = runner.NewLifecycleRunner(runner.Options{
		Drainer: runner.DrainerFunc(a.drain),
		Hooks:   runner.Hooks{OnStart: a.start, OnStop: a.shutdown},
		Timeout: time.Duration(cfg.Runner.DrainTimeoutMS) * time.Millisecond,
		Banner:  opts.Banner,
	})
	return a, nil
}

// Run blocks until ctx ends or the surface closes, then drains.
func (a *Assistant) Run(ctx context.Context) error {
	return a.runner.Run(ctx)
}

func (a *Assistant) Stop() error {
	return a.runner.Stop()
}

func (a *Assistant) SessionID() string { return a.sessionID }

func (a *Assistant) Controller() *interaction.Controller { return a.controller }

func (a *Assistant) Transport() transports.Transport { return a.transport }

func (a *Assistant) start(ctx context.Context) error {
	if err := a.transport.Start(ctx); err != nil {
		return err
	}
	if err := a.controller.Start(ctx); err != nil {
		_ = a.transport.Stop()
		return err
	}
	a.presenter.Init()
	go a.routeGestures(ctx)

	fields := []any{"message", "assistant ready"}
	if rr, ok := a.transport.(transports.ReadyReporter); ok {
		for k, v := range rr.ReadyFields() {
			fields = append(fields, k, v)
		}
	}
	a.log.Info("assistant_ready", fields...)
	return nil
}

// routeGestures turns every activation gesture into Activate. A closed
// gesture stream ends the session.
func (a *Assistant) routeGestures(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case g, ok := <-a.transport.Gestures():
			if !ok {
				a.log.Info("surface_closed")
				go func() { _ = a.runner.Stop() }()
				return
			}
			if g.Kind != transports.GestureActivate {
				continue
			}
			if err := a.controller.Activate(); err != nil && !errors.Is(err, interaction.ErrClosed) {
				a.log.Warn("activate_failed", "error", err.Error())
			}
		}
	}
}

func (a *Assistant) drain() error {
	_ = a.transport.Stop()
	if err := a.controller.Close(); err != nil {
		a.log.Warn("controller_close_failed", "error", err.Error())
	}
	a.presenter.Close()
	return nil
}

func (a *Assistant) shutdown() {
	a.asyncObs.Close()
	if err := a.observers.Flush(); err != nil {
		a.log.Warn("observer_flush_failed", "error", err.Error())
	}
	if a.timeline != nil {
		_ = a.timeline.Close()
	}
	if a.events != nil {
		_ = a.events.Close()
	}
	a.log.Info("shutdown", "goroutines", runtime.NumGoroutine())
}
