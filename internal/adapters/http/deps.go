package http

import (
	"context"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/core/engine"
)

// Session is the read side of the engine.
type Session interface {
	Snapshot(ctx context.Context) (domain.State, error)
	MapEntries(ctx context.Context) ([]domain.Marker, error)
	Running() bool
}

// HostInput accepts the events a map page produces.
type HostInput interface {
	OnMarkerActivated(id string) error
	OnViewportSettled(neLat, neLng, swLat, swLng float64) error
	Dispatch(msg engine.Msg) error
}

// PlaceFinder answers direct place lookups outside the session.
type PlaceFinder interface {
	SearchPlaces(ctx context.Context, query string) ([]domain.City, error)
}

// ConnChecker reports whether a broker connection is up.
type ConnChecker interface {
	Connected() bool
}

// Pinger checks a cache connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Session Session
	Input   HostInput
	Places  PlaceFinder
	Hub     *Hub
	NATS    ConnChecker
	Cache   Pinger
	Version string
}
