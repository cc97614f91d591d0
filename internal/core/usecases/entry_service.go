package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/core/ports"
)

// EntryService finds the entries inside a viewport.
type EntryService struct {
	entries ports.EntrySearcher
	cache   ports.CacheService
}

// NewEntryService creates a new EntryService. cache may be nil.
func NewEntryService(entries ports.EntrySearcher, cache ports.CacheService) *EntryService {
	return &EntryService{entries: entries, cache: cache}
}

// SearchEntries returns the entries for box.
func (s *EntryService) SearchEntries(ctx context.Context, box domain.BoundingBox) (domain.EntrySearchResult, error) {
	if err := box.Validate(); err != nil {
		return domain.EntrySearchResult{}, fmt.Errorf("search entries: %w", err)
	}

	// Cache for 1 minute (entries are edited by other users)
	cacheKey := "entries:bbox:" + box.Query()
	return cached(ctx, s.cache, "entries_search", cacheKey, 60, func(ctx context.Context) (domain.EntrySearchResult, error) {
		return s.entries.SearchEntries(ctx, box)
	})
}
