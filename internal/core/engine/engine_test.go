package engine_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/core/engine"
)

// --- Fakes ---

type fakePlaces struct {
	searchFn func(ctx context.Context, query string) ([]domain.City, error)
}

func (f *fakePlaces) SearchPlaces(ctx context.Context, query string) ([]domain.City, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, query)
	}
	return nil, nil
}

type fakeEntries struct {
	searchFn func(ctx context.Context, box domain.BoundingBox) (domain.EntrySearchResult, error)
}

func (f *fakeEntries) SearchEntries(ctx context.Context, box domain.BoundingBox) (domain.EntrySearchResult, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, box)
	}
	return domain.EntrySearchResult{}, nil
}

type fakeSurface struct {
	mu        sync.Mutex
	centers   []domain.Coordinate
	overlays  [][]domain.Marker
	overlayCh chan []domain.Marker
}

func (f *fakeSurface) Recenter(ctx context.Context, at domain.Coordinate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.centers = append(f.centers, at)
	return nil
}

func (f *fakeSurface) RefreshOverlay(ctx context.Context, markers []domain.Marker) error {
	f.mu.Lock()
	f.overlays = append(f.overlays, markers)
	f.mu.Unlock()
	if f.overlayCh != nil {
		f.overlayCh <- markers
	}
	return nil
}

func (f *fakeSurface) recentered() []domain.Coordinate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Coordinate{}, f.centers...)
}

type fakeSink struct {
	submitted chan domain.FormState
}

func (f *fakeSink) SubmitEntry(ctx context.Context, form domain.FormState) error {
	f.submitted <- form
	return nil
}

type recordingObserver struct {
	mu     sync.Mutex
	states []domain.State
}

func (o *recordingObserver) StateChanged(ctx context.Context, s domain.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, s)
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.states)
}

// --- Helpers ---

func startEngine(t *testing.T, deps engine.Deps) *engine.Engine {
	t.Helper()
	e := engine.New(deps, engine.DefaultConfig())
	startRunning(t, e)
	return e
}

func startRunning(t *testing.T, e *engine.Engine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = e.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
}

func dispatch(t *testing.T, e *engine.Engine, msg engine.Msg) {
	t.Helper()
	if err := e.Dispatch(msg); err != nil {
		t.Fatalf("dispatch %s: %v", msg.Kind(), err)
	}
}

func waitForState(t *testing.T, e *engine.Engine, cond func(domain.State) bool) domain.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s, err := e.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if cond(s) {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	s, _ := e.Snapshot(context.Background())
	t.Fatalf("condition not met, last state: %+v", s)
	return s
}

// --- Tests ---

func TestEngine_PlaceSearchScenario(t *testing.T) {
	berlin := domain.City{Name: "Berlin", Country: "Germany", Coordinate: domain.Coordinate{Lat: 52.52, Lng: 13.405}}
	e := startEngine(t, engine.Deps{
		Places: &fakePlaces{searchFn: func(ctx context.Context, query string) ([]domain.City, error) {
			if query != "Berlin" {
				t.Errorf("expected query Berlin, got %q", query)
			}
			return []domain.City{berlin}, nil
		}},
		Entries: &fakeEntries{},
	})

	dispatch(t, e, engine.PlaceQueryChanged{Text: "Berlin"})

	s := waitForState(t, e, func(s domain.State) bool { return s.Cities != nil })
	if !reflect.DeepEqual(*s.Cities, []domain.City{berlin}) {
		t.Errorf("unexpected cities %+v", *s.Cities)
	}
}

func TestEngine_PlaceSearchFailureLeavesStateUntouched(t *testing.T) {
	called := make(chan struct{})
	e := startEngine(t, engine.Deps{
		Places: &fakePlaces{searchFn: func(ctx context.Context, query string) ([]domain.City, error) {
			defer close(called)
			return nil, errors.New("HTTP 503")
		}},
		Entries: &fakeEntries{},
	})

	dispatch(t, e, engine.PlaceQueryChanged{Text: "Berlin"})
	<-called

	s, err := e.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Cities != nil {
		t.Errorf("expected no candidates, got %+v", s.Cities)
	}
}

func TestEngine_ViewportSetBeforeSearchCompletes(t *testing.T) {
	release := make(chan struct{})
	e := startEngine(t, engine.Deps{
		Places: &fakePlaces{},
		Entries: &fakeEntries{searchFn: func(ctx context.Context, box domain.BoundingBox) (domain.EntrySearchResult, error) {
			<-release
			return domain.EntrySearchResult{}, errors.New("unreachable")
		}},
	})
	defer close(release)

	dispatch(t, e, engine.ViewportChanged{Box: berlinBox})

	s := waitForState(t, e, func(s domain.State) bool { return s.Viewport != nil })
	if *s.Viewport != berlinBox {
		t.Errorf("unexpected viewport %+v", *s.Viewport)
	}
}

func TestEngine_EntriesSearchRefreshesOverlay(t *testing.T) {
	visible := []domain.Entry{{ID: "a", Title: "Repair Café", Coordinate: domain.Coordinate{Lat: 52.5, Lng: 13.4}}}
	surface := &fakeSurface{overlayCh: make(chan []domain.Marker, 1)}
	e := startEngine(t, engine.Deps{
		Places: &fakePlaces{},
		Entries: &fakeEntries{searchFn: func(ctx context.Context, box domain.BoundingBox) (domain.EntrySearchResult, error) {
			return domain.EntrySearchResult{Visible: visible, Invisible: []domain.Entry{{ID: "hidden"}}}, nil
		}},
		Surface: surface,
	})

	dispatch(t, e, engine.ViewportChanged{Box: berlinBox})

	select {
	case markers := <-surface.overlayCh:
		want := []domain.Marker{{ID: "a", Name: "Repair Café", Coordinate: visible[0].Coordinate}}
		if !reflect.DeepEqual(markers, want) {
			t.Errorf("unexpected markers %+v", markers)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("overlay was not refreshed")
	}

	s, _ := e.Snapshot(context.Background())
	if !reflect.DeepEqual(s.Entries, visible) {
		t.Errorf("expected entries == visible, got %+v", s.Entries)
	}

	markers, err := e.MapEntries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(markers) != 1 || markers[0].ID != "a" {
		t.Errorf("unexpected map entries %+v", markers)
	}
}

func TestEngine_OutOfOrderEntriesLastAppliedWins(t *testing.T) {
	b1 := berlinBox
	b2 := domain.BoundingBox{
		NorthEast: domain.Coordinate{Lat: 48.2, Lng: 11.7},
		SouthWest: domain.Coordinate{Lat: 48.0, Lng: 11.4},
	}
	payload := map[domain.BoundingBox][]domain.Entry{
		b1: {{ID: "berlin-1"}},
		b2: {{ID: "munich-1"}},
	}
	release := map[domain.BoundingBox]chan struct{}{
		b1: make(chan struct{}),
		b2: make(chan struct{}),
	}
	started := make(chan domain.BoundingBox, 2)

	e := startEngine(t, engine.Deps{
		Places: &fakePlaces{},
		Entries: &fakeEntries{searchFn: func(ctx context.Context, box domain.BoundingBox) (domain.EntrySearchResult, error) {
			started <- box
			<-release[box]
			return domain.EntrySearchResult{Visible: payload[box]}, nil
		}},
	})

	dispatch(t, e, engine.ViewportChanged{Box: b1})
	dispatch(t, e, engine.ViewportChanged{Box: b2})
	<-started
	<-started

	close(release[b2])
	waitForState(t, e, func(s domain.State) bool {
		return len(s.Entries) == 1 && s.Entries[0].ID == "munich-1"
	})

	close(release[b1])
	s := waitForState(t, e, func(s domain.State) bool {
		return len(s.Entries) == 1 && s.Entries[0].ID == "berlin-1"
	})
	if *s.Viewport != b2 {
		t.Errorf("expected viewport to stay on the last requested box, got %+v", *s.Viewport)
	}
}

func TestEngine_RecenterDoesNotNotifyObservers(t *testing.T) {
	surface := &fakeSurface{}
	obs := &recordingObserver{}
	e := engine.New(engine.Deps{Places: &fakePlaces{}, Entries: &fakeEntries{}, Surface: surface}, engine.DefaultConfig())
	e.Observe(obs)
	startRunning(t, e)

	at := domain.Coordinate{Lat: 52.52, Lng: 13.405}
	dispatch(t, e, engine.ViewportCenterRequested{At: at})
	dispatch(t, e, engine.NewEntryFormRequested{})
	waitForState(t, e, func(s domain.State) bool { return s.FormVisible })

	if got := surface.recentered(); !reflect.DeepEqual(got, []domain.Coordinate{at}) {
		t.Errorf("unexpected recenter calls %+v", got)
	}
	if n := obs.count(); n != 1 {
		t.Errorf("expected 1 observer notification, got %d", n)
	}
}

func TestEngine_SubmitValidFormReachesSink(t *testing.T) {
	sink := &fakeSink{submitted: make(chan domain.FormState, 1)}
	e := startEngine(t, engine.Deps{Places: &fakePlaces{}, Entries: &fakeEntries{}, Sink: sink})

	dispatch(t, e, engine.FormFieldChanged{Field: domain.FieldTitle, Text: "Community Garden"})
	dispatch(t, e, engine.SubmitNewEntry{})

	select {
	case form := <-sink.submitted:
		if form.Title != "Community Garden" {
			t.Errorf("unexpected form %+v", form)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("entry was not submitted")
	}
}

func TestEngine_SubmitInvalidFormScenario(t *testing.T) {
	e := startEngine(t, engine.Deps{Places: &fakePlaces{}, Entries: &fakeEntries{}})

	dispatch(t, e, engine.FormFieldChanged{Field: domain.FieldTitle, Text: "Hi"})
	dispatch(t, e, engine.FormFieldChanged{Field: domain.FieldDescription, Text: "x"})
	dispatch(t, e, engine.SubmitNewEntry{})

	s := waitForState(t, e, func(s domain.State) bool { return len(s.Violations) > 0 })
	if !reflect.DeepEqual(s.Violations, []domain.FormViolation{domain.TitleLength(3, 25, 2)}) {
		t.Errorf("unexpected violations %+v", s.Violations)
	}
	if s.Draft != (domain.FormState{Title: "Hi", Description: "x"}) {
		t.Errorf("draft modified: %+v", s.Draft)
	}
}

func TestEngine_DispatchAfterStop(t *testing.T) {
	e := engine.New(engine.Deps{Places: &fakePlaces{}, Entries: &fakeEntries{}}, engine.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Run(ctx); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if err := e.Dispatch(engine.NewEntryFormRequested{}); !errors.Is(err, engine.ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
	if _, err := e.Snapshot(context.Background()); !errors.Is(err, engine.ErrStopped) {
		t.Errorf("expected ErrStopped from snapshot, got %v", err)
	}
	if err := e.Run(context.Background()); err == nil {
		t.Error("expected error when running a stopped engine")
	}
}

func TestEngine_SnapshotWithCancellingContext(t *testing.T) {
	e := startEngine(t, engine.Deps{Places: &fakePlaces{}, Entries: &fakeEntries{}})
	dispatch(t, e, engine.NewEntryFormRequested{})
	waitForState(t, e, func(s domain.State) bool { return s.FormVisible })

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithCancel(context.Background())
			go cancel()

			s, err := e.Snapshot(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if !s.FormVisible || s.Entries == nil {
				t.Errorf("snapshot returned a partial state: %+v", s)
			}

			markers, err := e.MapEntries(ctx)
			if err == nil && markers == nil {
				t.Error("map entries returned nil without an error")
			}
		}()
	}
	wg.Wait()
}
