package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/core/ports"
)

// ErrEmptyQuery is returned for a place search without any text.
var ErrEmptyQuery = errors.New("search query must not be empty")

// placeTTL is how long a geocoder answer is reused, in seconds.
const placeTTL = 300

// PlaceService resolves place names to candidate cities.
type PlaceService struct {
	places ports.PlaceSearcher
	cache  ports.CacheService
}

// NewPlaceService creates a new PlaceService. cache may be nil.
func NewPlaceService(places ports.PlaceSearcher, cache ports.CacheService) *PlaceService {
	return &PlaceService{places: places, cache: cache}
}

// SearchPlaces returns the cities matching query.
func (s *PlaceService) SearchPlaces(ctx context.Context, query string) ([]domain.City, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	cacheKey := "places:search:" + strings.ToLower(query)
	return cached(ctx, s.cache, "places_search", cacheKey, placeTTL, func(ctx context.Context) ([]domain.City, error) {
		return s.places.SearchPlaces(ctx, query)
	})
}
