package mock

import (
	"context"
	"sync"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/backend"
)

type BackendConfig struct {
	// Answers maps queries to answers. Unknown queries get Default.
	Answers map[string]string `mapstructure:"answers"`
	Default string            `mapstructure:"default"`
	Err     error             `mapstructure:"-"`
	Delay   time.Duration     `mapstructure:"delay"`
}

type Asker struct {
	cfg BackendConfig

	mu      sync.Mutex
	queries []string
}

func NewAsker(cfg BackendConfig) *Asker {
	if cfg.Default == "" {
		cfg.Default = "mock answer"
	}
	return &Asker{cfg: cfg}
}

func (a *Asker) Name() string { return "mock_backend" }

func (a *Asker) Ask(ctx context.Context, query string) (string, error) {
	a.mu.Lock()
	a.queries = append(a.queries, query)
	a.mu.Unlock()

	if a.cfg.Delay > 0 {
		timer := time.NewTimer(a.cfg.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if a.cfg.Err != nil {
		return "", a.cfg.Err
	}
	if answer, ok := a.cfg.Answers[query]; ok {
		return answer, nil
	}
	return a.cfg.Default, nil
}

// Queries returns every query received so far.
func (a *Asker) Queries() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.queries...)
}

var _ backend.Asker = (*Asker)(nil)
