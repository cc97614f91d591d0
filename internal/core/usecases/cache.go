package usecases

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/mapgood/internal/core/ports"
	"github.com/samirrijal/mapgood/internal/pkg/metrics"
)

// cached returns the value stored under key, or loads, stores and returns it.
// Cache failures fall through to load and never fail the call.
func cached[T any](ctx context.Context, cache ports.CacheService, operation, key string, ttlSeconds int, load func(context.Context) (T, error)) (T, error) {
	if cache != nil {
		if data, err := cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				metrics.CacheHits.WithLabelValues(operation).Inc()
				return v, nil
			}
		}
		metrics.CacheMisses.WithLabelValues(operation).Inc()
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if cache != nil {
		if data, err := json.Marshal(v); err == nil {
			_ = cache.Set(ctx, key, data, ttlSeconds)
		}
	}
	return v, nil
}
