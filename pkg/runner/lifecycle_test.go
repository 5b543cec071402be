package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunDrainsOnCancel(t *testing.T) {
	drained := make(chan struct{})
	stopped := false
	r := NewLifecycleRunner(Options{
		Drainer: DrainerFunc(func() error { close(drained); return nil }),
		Hooks:   Hooks{OnStop: func() { stopped = true }},
	})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for r.State() != StateRunning && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return")
	}
	select {
	case <-drained:
	default:
		t.Fatalf("expected drain")
	}
	if !stopped || r.State() != StateStopped {
		t.Fatalf("expected stopped state, got %v", r.State())
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatalf("expected second run to fail")
	}
}

func TestDrainTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	r := NewLifecycleRunner(Options{
		Drainer: DrainerFunc(func() error { <-block; return nil }),
		Timeout: 20 * time.Millisecond,
	})
	if err := r.Stop(); !errors.Is(err, ErrDrainTimeout) {
		t.Fatalf("expected drain timeout, got %v", err)
	}
}

func TestStartHookFailure(t *testing.T) {
	var buf bytes.Buffer
	r := NewLifecycleRunner(Options{
		Hooks:  Hooks{OnStart: func(context.Context) error { return errors.New("no mic") }},
		Banner: &buf,
	})
	err := r.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no mic") {
		t.Fatalf("expected start error, got %v", err)
	}
	if r.State() != StateStopped {
		t.Fatalf("expected stopped, got %v", r.State())
	}
	if !strings.Contains(buf.String(), "Version:") {
		t.Fatalf("expected banner output, got %q", buf.String())
	}
}
