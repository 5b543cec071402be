package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensOnRateLimits(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := NewCircuitBreaker(2, time.Minute).WithClock(func() time.Time { return now })

	cb.OnError(errors.New("plain failure"))
	cb.OnError(RateLimitError{Provider: "elevenlabs"})
	if !cb.Allow() {
		t.Fatalf("breaker opened below threshold")
	}
	cb.OnError(RateLimitError{Provider: "elevenlabs"})
	if cb.Allow() {
		t.Fatalf("expected breaker open")
	}
	if got := cb.OpenUntil(); !got.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected open until %v", got)
	}

	now = now.Add(time.Minute)
	if !cb.Allow() {
		t.Fatalf("expected breaker closed after cooldown")
	}
}

func TestCircuitBreakerCustomPredicate(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute).CountWhen(func(error) bool { return true })
	cb.OnError(errors.New("dial failed"))
	if cb.Allow() {
		t.Fatalf("expected breaker open")
	}
	cb.OnSuccess()
	if !cb.Allow() {
		t.Fatalf("expected success to reset breaker")
	}
}
