package engine

import "github.com/samirrijal/mapgood/internal/core/domain"

// Effect is work requested by a transition. Update only describes effects;
// the Engine performs them.
type Effect interface {
	isEffect()
}

// FetchPlaces runs a place search; the result re-enters as
// PlaceQuerySucceeded or PlaceQueryFailed.
type FetchPlaces struct {
	Query string
}

// FetchEntries runs an entries search; the result re-enters as
// EntriesSearchSucceeded or EntriesSearchFailed.
type FetchEntries struct {
	Box domain.BoundingBox
}

// RecenterMap instructs the map surface to center on a coordinate.
type RecenterMap struct {
	At domain.Coordinate
}

// RefreshOverlay pushes the projected entry list to the map surface.
type RefreshOverlay struct {
	Markers []domain.Marker
}

// CommitEntry hands a validated draft to the entry sink.
type CommitEntry struct {
	Form domain.FormState
}

// Diagnostic reports a failure that does not change state.
type Diagnostic struct {
	Source string
	Reason string
}

func (FetchPlaces) isEffect()    {}
func (FetchEntries) isEffect()   {}
func (RecenterMap) isEffect()    {}
func (RefreshOverlay) isEffect() {}
func (CommitEntry) isEffect()    {}
func (Diagnostic) isEffect()     {}

// Transition is the outcome of applying one message.
type Transition struct {
	Effects []Effect
	// Changed reports whether the state was modified; observers are only
	// notified for changed states.
	Changed bool
}
