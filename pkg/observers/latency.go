package observers

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/Baishnab1708/MyChatBot/pkg/metrics"
)

// LatencySummary aggregates turn latencies for one outcome.
type LatencySummary struct {
	Outcome string
	Count   int
	P50MS   float64
	MaxMS   float64
}

// LatencyObserver collects turn_completed latencies per outcome and logs a
// summary on Flush.
type LatencyObserver struct {
	mu      sync.Mutex
	samples map[string][]float64
	log     *slog.Logger
}

func NewLatencyObserver(log *slog.Logger) *LatencyObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LatencyObserver{samples: make(map[string][]float64), log: log}
}

func (o *LatencyObserver) RecordEvent(ev metrics.Event) {
	if ev.Name != metrics.EventTurnCompleted || ev.Value < 0 {
		return
	}
	outcome := ev.Tags["outcome"]
	if outcome == "" {
		outcome = "unknown"
	}
	o.mu.Lock()
	o.samples[outcome] = append(o.samples[outcome], ev.Value)
	o.mu.Unlock()
}

// Summaries returns one summary per outcome, sorted by outcome.
func (o *LatencyObserver) Summaries() []LatencySummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]LatencySummary, 0, len(o.samples))
	for outcome, vals := range o.samples {
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		out = append(out, LatencySummary{
			Outcome: outcome,
			Count:   len(sorted),
			P50MS:   sorted[(len(sorted)-1)/2],
			MaxMS:   sorted[len(sorted)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Outcome < out[j].Outcome })
	return out
}

func (o *LatencyObserver) Flush() error {
	for _, s := range o.Summaries() {
		o.log.Info("turn_latency",
			"outcome", s.Outcome,
			"turns", s.Count,
			"p50_ms", s.P50MS,
			"max_ms", s.MaxMS,
		)
	}
	return nil
}

var (
	_ metrics.Observer = (*LatencyObserver)(nil)
	_ metrics.Flusher  = (*LatencyObserver)(nil)
)
