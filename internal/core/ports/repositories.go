package ports

import (
	"context"

	"github.com/samirrijal/mapgood/internal/core/domain"
)

// PlaceSearcher resolves a free-text query to candidate cities.
type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, query string) ([]domain.City, error)
}

// EntrySearcher finds point-of-interest entries inside a bounding box.
type EntrySearcher interface {
	SearchEntries(ctx context.Context, box domain.BoundingBox) (domain.EntrySearchResult, error)
}
