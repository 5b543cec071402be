package metrics

import (
	"math"
	"sync/atomic"
)

// SamplingObserver forwards roughly rate of all events. Events named in
// always bypass sampling.
type SamplingObserver struct {
	inner       Observer
	rate        float64
	sampleEvery uint64
	counter     uint64
	always      map[string]struct{}
}

func NewSamplingObserver(inner Observer, rate float64, always ...string) *SamplingObserver {
	if rate > 1 {
		rate = 1
	}
	if rate < 0 {
		rate = 0
	}
	var every uint64
	if rate == 1 {
		every = 1
	} else if rate > 0 {
		every = uint64(math.Round(1.0 / rate))
		if every == 0 {
			every = 1
		}
	}
	keep := make(map[string]struct{}, len(always))
	for _, name := range always {
		keep[name] = struct{}{}
	}
	return &SamplingObserver{inner: OrNoop(inner), rate: rate, sampleEvery: every, always: keep}
}

func (s *SamplingObserver) RecordEvent(ev Event) {
	if _, ok := s.always[ev.Name]; ok {
		s.inner.RecordEvent(ev)
		return
	}
	if s.rate == 0 {
		return
	}
	if s.sampleEvery <= 1 {
		s.inner.RecordEvent(ev)
		return
	}
	n := atomic.AddUint64(&s.counter, 1)
	if n%s.sampleEvery == 0 {
		s.inner.RecordEvent(ev)
	}
}
