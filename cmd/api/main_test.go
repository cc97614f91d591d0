package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/core/engine"
)

type slowSink struct {
	started   chan struct{}
	delivered atomic.Bool
}

func (s *slowSink) SubmitEntry(ctx context.Context, form domain.FormState) error {
	close(s.started)
	time.Sleep(50 * time.Millisecond)
	s.delivered.Store(true)
	return nil
}

func TestAwaitEngine_WaitsForInflightWork(t *testing.T) {
	sink := &slowSink{started: make(chan struct{})}
	eng := engine.New(engine.Deps{Sink: sink}, engine.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	for _, msg := range []engine.Msg{
		engine.FormFieldChanged{Field: domain.FieldTitle, Text: "Repair Café"},
		engine.SubmitNewEntry{},
	} {
		if err := eng.Dispatch(msg); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-sink.started:
	case <-time.After(time.Second):
		t.Fatal("submission never reached the sink")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()

	if err := awaitEngine(shutdownCtx, done); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !sink.delivered.Load() {
		t.Error("engine returned before the submission was delivered")
	}
}

func TestAwaitEngine_BoundedByContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := awaitEngine(ctx, make(chan error))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
