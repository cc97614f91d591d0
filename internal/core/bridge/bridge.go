// Package bridge connects the host's map surface to the engine.
package bridge

import (
	"fmt"
	"time"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/core/engine"
)

// DefaultSettleDelay coalesces the burst of viewport events a continuous
// pan or zoom produces.
const DefaultSettleDelay = 15 * time.Millisecond

// Dispatcher delivers a message into the engine.
type Dispatcher interface {
	Dispatch(msg engine.Msg) error
}

// Bridge receives map-surface callbacks and turns them into messages.
type Bridge struct {
	dispatcher  Dispatcher
	settleDelay time.Duration
	onError     func(msg engine.Msg, err error)
}

// New creates a Bridge. A non-positive delay falls back to DefaultSettleDelay.
// onError is called when a deferred dispatch fails; it may be nil.
func New(d Dispatcher, settleDelay time.Duration, onError func(engine.Msg, error)) *Bridge {
	if settleDelay <= 0 {
		settleDelay = DefaultSettleDelay
	}
	if onError == nil {
		onError = func(engine.Msg, error) {}
	}
	return &Bridge{dispatcher: d, settleDelay: settleDelay, onError: onError}
}

// OnMarkerActivated selects the entry behind a clicked marker.
func (b *Bridge) OnMarkerActivated(id string) error {
	return b.dispatcher.Dispatch(engine.EntrySelected{ID: id})
}

// OnViewportSettled schedules a ViewportChanged for the given corners after
// the settle delay. Invalid boxes are rejected and never dispatched.
func (b *Bridge) OnViewportSettled(neLat, neLng, swLat, swLng float64) error {
	box := domain.BoundingBox{
		NorthEast: domain.Coordinate{Lat: neLat, Lng: neLng},
		SouthWest: domain.Coordinate{Lat: swLat, Lng: swLng},
	}
	if err := box.Validate(); err != nil {
		return fmt.Errorf("viewport settled: %w", err)
	}

	msg := engine.ViewportChanged{Box: box}
	time.AfterFunc(b.settleDelay, func() {
		if err := b.dispatcher.Dispatch(msg); err != nil {
			b.onError(msg, err)
		}
	})
	return nil
}

// Dispatch forwards any other host input, such as typed search text or form
// edits, straight into the engine.
func (b *Bridge) Dispatch(msg engine.Msg) error {
	return b.dispatcher.Dispatch(msg)
}
