package mock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/transports"
)

// Transport is an in-memory transport for local testing and integration.
// It implements the transports.Transport interface without any network dependency.
type Transport struct {
	gestures chan transports.Gesture
	closed   atomic.Bool
	mu       sync.Mutex
	sent     []transports.Update
}

func New() *Transport {
	return &Transport{gestures: make(chan transports.Gesture, 64)}
}

func (t *Transport) Name() string { return "mock" }

func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		<-ctx.Done()
		_ = t.Stop()
	}()
	return nil
}

func (t *Transport) Stop() error {
	if t.closed.CompareAndSwap(false, true) {
		t.mu.Lock()
		close(t.gestures)
		t.mu.Unlock()
	}
	return nil
}

func (t *Transport) Gestures() <-chan transports.Gesture { return t.gestures }

func (t *Transport) Send(u transports.Update) error {
	if t.closed.Load() {
		return nil
	}
	t.mu.Lock()
	t.sent = append(t.sent, u)
	t.mu.Unlock()
	return nil
}

// Tap injects an activation gesture.
func (t *Transport) Tap() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed.Load() {
		return
	}
	select {
	case t.gestures <- transports.Gesture{Kind: transports.GestureActivate, Client: "mock", At: time.Now()}:
	default:
	}
}

// Sent returns every update published so far.
func (t *Transport) Sent() []transports.Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]transports.Update(nil), t.sent...)
}

// Last returns the most recent update of the given type.
func (t *Transport) Last(typ transports.UpdateType) (transports.Update, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.sent) - 1; i >= 0; i-- {
		if t.sent[i].Type == typ {
			return t.sent[i], true
		}
	}
	return transports.Update{}, false
}

var _ transports.Transport = (*Transport)(nil)
