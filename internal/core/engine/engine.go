// Package engine owns the session state of a map-exploration client and
// applies messages to it one at a time.
//
// Every change goes through Update. The Engine's run loop is the only
// goroutine that touches the state; lookups run on their own goroutines and
// re-enter the loop through Dispatch. Overlapping lookups are neither
// sequenced nor cancelled, so the last result applied wins.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/core/ports"
	"github.com/samirrijal/mapgood/internal/pkg/metrics"
)

var (
	// ErrStopped is returned by Dispatch and the accessors once the run loop exited.
	ErrStopped = errors.New("engine stopped")

	errAlreadyRunning = errors.New("engine already running")
)

// Config tunes the run loop. Zero fields take their DefaultConfig value.
type Config struct {
	QueueSize     int
	LookupTimeout time.Duration
	Rules         domain.FormRules
}

// DefaultConfig returns the settings used when none are provided.
func DefaultConfig() Config {
	return Config{
		QueueSize:     256,
		LookupTimeout: 10 * time.Second,
		Rules:         domain.DefaultFormRules,
	}
}

// Deps are the collaborators effects are performed against.
// Sink and Diagnostics are optional.
type Deps struct {
	Places      ports.PlaceSearcher
	Entries     ports.EntrySearcher
	Surface     ports.MapSurface
	Sink        ports.EntrySink
	Diagnostics ports.DiagnosticPublisher
}

// Engine is the single owner of a session's State.
type Engine struct {
	deps      Deps
	cfg       Config
	observers []ports.StateObserver
	log       *slog.Logger

	state   *domain.State
	msgs    chan Msg
	queries chan func(*domain.State)

	running  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup
}

// New creates an Engine holding the initial state. Call Run to start it.
func New(deps Deps, cfg Config) *Engine {
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 256
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 10 * time.Second
	}
	if cfg.Rules == (domain.FormRules{}) {
		cfg.Rules = domain.DefaultFormRules
	}
	return &Engine{
		deps:    deps,
		cfg:     cfg,
		log:     slog.Default().With("component", "engine"),
		state:   domain.NewState(),
		msgs:    make(chan Msg, cfg.QueueSize),
		queries: make(chan func(*domain.State)),
		done:    make(chan struct{}),
	}
}

// Observe registers an observer notified after each state change.
// Must be called before Run.
func (e *Engine) Observe(o ports.StateObserver) {
	e.observers = append(e.observers, o)
}

// Running reports whether the run loop is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run processes messages until ctx is cancelled. It may be called once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errAlreadyRunning
	}
	select {
	case <-e.done:
		e.running.Store(false)
		return ErrStopped
	default:
	}

	e.log.Info("engine started", "queue_size", e.cfg.QueueSize)
	defer func() {
		e.running.Store(false)
		e.stop()
		e.inflight.Wait()
		e.log.Info("engine stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-e.msgs:
			e.handle(ctx, msg)
		case q := <-e.queries:
			q(e.state)
		}
	}
}

func (e *Engine) stop() {
	e.stopOnce.Do(func() { close(e.done) })
}

// Dispatch enqueues msg. Messages are applied in arrival order. Dispatch
// blocks while the queue is full and fails with ErrStopped after shutdown.
func (e *Engine) Dispatch(msg Msg) error {
	select {
	case <-e.done:
		return ErrStopped
	default:
	}
	select {
	case e.msgs <- msg:
		return nil
	case <-e.done:
		return ErrStopped
	}
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot(ctx context.Context) (domain.State, error) {
	var out domain.State
	err := e.query(ctx, func(s *domain.State) { out = s.Clone() })
	return out, err
}

// MapEntries returns the current entry list projected for the map surface.
func (e *Engine) MapEntries(ctx context.Context) ([]domain.Marker, error) {
	var out []domain.Marker
	err := e.query(ctx, func(s *domain.State) { out = domain.Project(s.Entries) })
	return out, err
}

// query runs fn on the loop goroutine and waits for it to finish. ctx only
// bounds the hand-off: once the loop holds fn it runs to completion inline,
// and the caller must not read fn's results before then.
func (e *Engine) query(ctx context.Context, fn func(*domain.State)) error {
	finished := make(chan struct{})
	q := func(s *domain.State) {
		fn(s)
		close(finished)
	}
	select {
	case e.queries <- q:
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

func (e *Engine) handle(ctx context.Context, msg Msg) {
	start := time.Now()

	tr := Update(e.state, msg, e.cfg.Rules)
	e.log.Debug("message applied", "kind", msg.Kind(), "changed", tr.Changed, "effects", len(tr.Effects))

	for _, eff := range tr.Effects {
		e.perform(ctx, eff)
	}

	if _, ok := msg.(SubmitNewEntry); ok {
		for _, v := range e.state.Violations {
			metrics.FormViolations.WithLabelValues(v.Rule).Inc()
		}
	}

	if tr.Changed && len(e.observers) > 0 {
		snapshot := e.state.Clone()
		for _, o := range e.observers {
			o.StateChanged(ctx, snapshot)
		}
	}

	metrics.MessagesHandled.WithLabelValues(msg.Kind()).Inc()
	metrics.MessageDuration.Observe(time.Since(start).Seconds())
}

func (e *Engine) perform(ctx context.Context, eff Effect) {
	switch ef := eff.(type) {
	case FetchPlaces:
		e.spawn(ctx, func(ctx context.Context) Msg {
			cities, err := e.deps.Places.SearchPlaces(ctx, ef.Query)
			if err != nil {
				return PlaceQueryFailed{Reason: err.Error()}
			}
			return PlaceQuerySucceeded{Cities: cities}
		})

	case FetchEntries:
		e.spawn(ctx, func(ctx context.Context) Msg {
			res, err := e.deps.Entries.SearchEntries(ctx, ef.Box)
			if err != nil {
				return EntriesSearchFailed{Reason: err.Error()}
			}
			return EntriesSearchSucceeded{Result: res}
		})

	case RecenterMap:
		if e.deps.Surface == nil {
			return
		}
		if err := e.deps.Surface.Recenter(ctx, ef.At); err != nil {
			e.log.Warn("recenter map failed", "error", err)
		}

	case RefreshOverlay:
		if e.deps.Surface == nil {
			return
		}
		if err := e.deps.Surface.RefreshOverlay(ctx, ef.Markers); err != nil {
			e.log.Warn("refresh overlay failed", "markers", len(ef.Markers), "error", err)
		}

	case CommitEntry:
		e.log.Info("create new entry", "title", ef.Form.Title)
		if e.deps.Sink == nil {
			return
		}
		e.inflight.Add(1)
		go func() {
			defer e.inflight.Done()
			if err := e.deps.Sink.SubmitEntry(ctx, ef.Form); err != nil {
				e.log.Error("submit entry failed", "title", ef.Form.Title, "error", err)
			}
		}()

	case Diagnostic:
		e.log.Error("fetch error", "source", ef.Source, "reason", ef.Reason)
		metrics.Diagnostics.WithLabelValues(ef.Source).Inc()
		if e.deps.Diagnostics == nil {
			return
		}
		e.inflight.Add(1)
		go func() {
			defer e.inflight.Done()
			if err := e.deps.Diagnostics.PublishDiagnostic(ctx, ef.Source, ef.Reason); err != nil {
				e.log.Warn("publish diagnostic failed", "error", err)
			}
		}()
	}
}

// spawn runs a lookup on its own goroutine and dispatches its result.
func (e *Engine) spawn(ctx context.Context, lookup func(context.Context) Msg) {
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()

		lctx, cancel := context.WithTimeout(ctx, e.cfg.LookupTimeout)
		defer cancel()

		msg := lookup(lctx)
		if err := e.Dispatch(msg); err != nil {
			e.log.Debug("lookup result dropped", "kind", msg.Kind(), "error", err)
		}
	}()
}
