package ports

import (
	"context"

	"github.com/samirrijal/mapgood/internal/core/domain"
)

// MapSurface is the map widget owned by the host page.
type MapSurface interface {
	Recenter(ctx context.Context, at domain.Coordinate) error
	RefreshOverlay(ctx context.Context, markers []domain.Marker) error
}

// StateObserver receives a snapshot after every transition that changed state.
type StateObserver interface {
	StateChanged(ctx context.Context, snapshot domain.State)
}

// EntrySink receives a validated draft for committing.
type EntrySink interface {
	SubmitEntry(ctx context.Context, form domain.FormState) error
}

// DiagnosticPublisher forwards lookup failures to operators.
type DiagnosticPublisher interface {
	PublishDiagnostic(ctx context.Context, source, reason string) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
