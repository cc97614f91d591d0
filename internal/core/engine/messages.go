package engine

import "github.com/samirrijal/mapgood/internal/core/domain"

// Msg describes one thing that happened. It is the only input to Update.
type Msg interface {
	// Kind is a stable name used in logs and metrics.
	Kind() string
	isMsg()
}

// PlaceQueryChanged is sent when the user edits the place search box.
type PlaceQueryChanged struct {
	Text string
}

// PlaceQuerySucceeded carries the cities resolved for a query.
type PlaceQuerySucceeded struct {
	Cities []domain.City
}

// PlaceQueryFailed carries the reason a place search failed.
type PlaceQueryFailed struct {
	Reason string
}

// ViewportCenterRequested asks the map surface to recenter on a coordinate.
type ViewportCenterRequested struct {
	At domain.Coordinate
}

// ViewportChanged is sent once the map viewport settled on a new box.
type ViewportChanged struct {
	Box domain.BoundingBox
}

// EntriesSearchSucceeded carries the entries found for a viewport.
type EntriesSearchSucceeded struct {
	Result domain.EntrySearchResult
}

// EntriesSearchFailed carries the reason an entries search failed.
type EntriesSearchFailed struct {
	Reason string
}

// EntrySelected is sent when a marker is activated.
type EntrySelected struct {
	ID string
}

// NewEntryFormRequested opens the new-entry form.
type NewEntryFormRequested struct{}

// FormFieldChanged updates one field of the draft.
type FormFieldChanged struct {
	Field domain.FormField
	Text  string
}

// SubmitNewEntry validates the draft and hands it off when valid.
type SubmitNewEntry struct{}

func (PlaceQueryChanged) Kind() string       { return "place_query_changed" }
func (PlaceQuerySucceeded) Kind() string     { return "place_query_succeeded" }
func (PlaceQueryFailed) Kind() string        { return "place_query_failed" }
func (ViewportCenterRequested) Kind() string { return "viewport_center_requested" }
func (ViewportChanged) Kind() string         { return "viewport_changed" }
func (EntriesSearchSucceeded) Kind() string  { return "entries_search_succeeded" }
func (EntriesSearchFailed) Kind() string     { return "entries_search_failed" }
func (EntrySelected) Kind() string           { return "entry_selected" }
func (NewEntryFormRequested) Kind() string   { return "new_entry_form_requested" }
func (FormFieldChanged) Kind() string        { return "form_field_changed" }
func (SubmitNewEntry) Kind() string          { return "submit_new_entry" }

func (PlaceQueryChanged) isMsg()       {}
func (PlaceQuerySucceeded) isMsg()     {}
func (PlaceQueryFailed) isMsg()        {}
func (ViewportCenterRequested) isMsg() {}
func (ViewportChanged) isMsg()         {}
func (EntriesSearchSucceeded) isMsg()  {}
func (EntriesSearchFailed) isMsg()     {}
func (EntrySelected) isMsg()           {}
func (NewEntryFormRequested) isMsg()   {}
func (FormFieldChanged) isMsg()        {}
func (SubmitNewEntry) isMsg()          {}
