package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/core/usecases"
)

// --- Mock PlaceSearcher ---

type mockPlaceSearcher struct {
	calls    int
	searchFn func(ctx context.Context, query string) ([]domain.City, error)
}

func (m *mockPlaceSearcher) SearchPlaces(ctx context.Context, query string) ([]domain.City, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]int
	getErr error
	setErr error
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Tests ---

var berlin = domain.City{Name: "Berlin", Country: "Germany", Coordinate: domain.Coordinate{Lat: 52.52, Lng: 13.405}}

func TestPlaceService_SearchPlaces(t *testing.T) {
	repo := &mockPlaceSearcher{
		searchFn: func(ctx context.Context, query string) ([]domain.City, error) {
			if query != "Berlin" {
				t.Errorf("expected trimmed query Berlin, got %q", query)
			}
			return []domain.City{berlin}, nil
		},
	}

	svc := usecases.NewPlaceService(repo, nil)

	cities, err := svc.SearchPlaces(context.Background(), "  Berlin ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cities) != 1 || cities[0] != berlin {
		t.Fatalf("unexpected cities %+v", cities)
	}
}

func TestPlaceService_SearchPlaces_EmptyQuery(t *testing.T) {
	repo := &mockPlaceSearcher{}
	svc := usecases.NewPlaceService(repo, nil)

	for _, q := range []string{"", "   "} {
		_, err := svc.SearchPlaces(context.Background(), q)
		if !errors.Is(err, usecases.ErrEmptyQuery) {
			t.Errorf("query %q: expected ErrEmptyQuery, got %v", q, err)
		}
	}
	if repo.calls != 0 {
		t.Errorf("searcher must not be called for empty queries, got %d calls", repo.calls)
	}
}

func TestPlaceService_SearchPlaces_ReadThroughCache(t *testing.T) {
	repo := &mockPlaceSearcher{
		searchFn: func(ctx context.Context, query string) ([]domain.City, error) {
			return []domain.City{berlin}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewPlaceService(repo, cache)

	for i := 0; i < 3; i++ {
		cities, err := svc.SearchPlaces(context.Background(), "Berlin")
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if len(cities) != 1 || cities[0] != berlin {
			t.Fatalf("call %d: unexpected cities %+v", i, cities)
		}
	}

	if repo.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", repo.calls)
	}
	if ttl := cache.ttls["places:search:berlin"]; ttl != 300 {
		t.Errorf("expected 300s TTL, got %d", ttl)
	}
}

func TestPlaceService_SearchPlaces_CacheFailureFallsThrough(t *testing.T) {
	repo := &mockPlaceSearcher{
		searchFn: func(ctx context.Context, query string) ([]domain.City, error) {
			return []domain.City{berlin}, nil
		},
	}
	cache := newMockCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	svc := usecases.NewPlaceService(repo, cache)

	cities, err := svc.SearchPlaces(context.Background(), "Berlin")
	if err != nil {
		t.Fatalf("cache failure must not fail the lookup: %v", err)
	}
	if len(cities) != 1 {
		t.Fatalf("expected 1 city, got %d", len(cities))
	}
}

func TestPlaceService_SearchPlaces_ErrorNotCached(t *testing.T) {
	fail := true
	repo := &mockPlaceSearcher{
		searchFn: func(ctx context.Context, query string) ([]domain.City, error) {
			if fail {
				return nil, errors.New("HTTP 503")
			}
			return []domain.City{berlin}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewPlaceService(repo, cache)

	if _, err := svc.SearchPlaces(context.Background(), "Berlin"); err == nil {
		t.Fatal("expected upstream error")
	}
	if len(cache.data) != 0 {
		t.Fatalf("failed lookup was cached: %v", cache.data)
	}

	fail = false
	cities, err := svc.SearchPlaces(context.Background(), "Berlin")
	if err != nil || len(cities) != 1 {
		t.Fatalf("expected recovery, got %v %+v", err, cities)
	}
}
