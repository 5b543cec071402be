// Package console drives the assistant from a terminal: every input line is a
// tap on the mic, and surface updates are printed as lines.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/errorsx"
	"github.com/Baishnab1708/MyChatBot/pkg/transports"
)

type Config struct {
	Prompt bool `mapstructure:"prompt"`
}

type Transport struct {
	cfg      Config
	in       io.Reader
	out      io.Writer
	gestures chan transports.Gesture

	mu       sync.Mutex
	closed   bool
	stopOnce sync.Once
}

// New reads gestures from in and writes updates to out. Nil streams default to
// stdin and stdout.
func New(cfg Config, in io.Reader, out io.Writer) *Transport {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Transport{
		cfg:      cfg,
		in:       in,
		out:      out,
		gestures: make(chan transports.Gesture, 4),
	}
}

func (t *Transport) Name() string { return "console" }

func (t *Transport) Gestures() <-chan transports.Gesture { return t.gestures }

// Start scans input lines until EOF, which closes the gesture stream.
func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		<-ctx.Done()
		_ = t.Stop()
	}()
	go func() {
		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			t.mu.Lock()
			if t.closed {
				t.mu.Unlock()
				return
			}
			select {
			case t.gestures <- transports.Gesture{Kind: transports.GestureActivate, Client: "console", At: time.Now()}:
			default:
			}
			t.mu.Unlock()
		}
		_ = t.Stop()
	}()
	return nil
}

func (t *Transport) Stop() error {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		close(t.gestures)
		t.mu.Unlock()
	})
	return nil
}

func (t *Transport) Send(u transports.Update) error {
	line := format(u, t.cfg.Prompt)
	if line == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.out, line+"\n"); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	return nil
}

func format(u transports.Update, prompt bool) string {
	switch u.Type {
	case transports.UpdateStatus:
		if prompt && u.Text != "" {
			return fmt.Sprintf("[%s] (press Enter)", u.Text)
		}
		return fmt.Sprintf("[%s]", u.Text)
	case transports.UpdateWelcome:
		return u.Text
	case transports.UpdateTranscript:
		if u.Phase == transports.PhaseShow {
			return "you: " + u.Text
		}
	case transports.UpdateAlert:
		if u.Phase == transports.PhaseShow {
			return "! " + u.Text
		}
	}
	return ""
}

var _ transports.Transport = (*Transport)(nil)
