package engine

import (
	"github.com/samirrijal/mapgood/internal/core/domain"
)

const (
	sourcePlaces  = "place_search"
	sourceEntries = "entries_search"
)

// Update applies msg to state and returns the effects to perform.
// It mutates nothing but state and performs no I/O.
func Update(state *domain.State, msg Msg, rules domain.FormRules) Transition {
	switch m := msg.(type) {
	case PlaceQueryChanged:
		return Transition{Effects: []Effect{FetchPlaces{Query: m.Text}}}

	case PlaceQuerySucceeded:
		// An empty result never replaces earlier candidates.
		if len(m.Cities) == 0 {
			return Transition{}
		}
		cities := append([]domain.City{}, m.Cities...)
		state.Cities = &cities
		return Transition{Changed: true}

	case PlaceQueryFailed:
		return Transition{Effects: []Effect{Diagnostic{Source: sourcePlaces, Reason: m.Reason}}}

	case ViewportCenterRequested:
		return Transition{Effects: []Effect{RecenterMap{At: m.At}}}

	case ViewportChanged:
		box := m.Box
		state.Viewport = &box
		return Transition{Effects: []Effect{FetchEntries{Box: box}}, Changed: true}

	case EntriesSearchSucceeded:
		state.Entries = append([]domain.Entry{}, m.Result.Visible...)
		return Transition{
			Effects: []Effect{RefreshOverlay{Markers: domain.Project(state.Entries)}},
			Changed: true,
		}

	case EntriesSearchFailed:
		return Transition{Effects: []Effect{Diagnostic{Source: sourceEntries, Reason: m.Reason}}}

	case EntrySelected:
		if e, ok := state.FindEntry(m.ID); ok {
			state.Selected = &e
		} else {
			state.Selected = nil
		}
		return Transition{Changed: true}

	case NewEntryFormRequested:
		state.FormVisible = true
		return Transition{Changed: true}

	case FormFieldChanged:
		return Transition{Changed: state.Draft.Set(m.Field, m.Text)}

	case SubmitNewEntry:
		violations := domain.Validate(state.Draft, rules)
		if len(violations) > 0 {
			state.Violations = violations
			return Transition{Changed: true}
		}
		state.Violations = []domain.FormViolation{}
		return Transition{Effects: []Effect{CommitEntry{Form: state.Draft}}, Changed: true}
	}

	return Transition{}
}
