package domain

// City is a place returned by the geocoder and accepted as selectable.
type City struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Coordinate
}

// Entry is a point-of-interest record overlaid on the map.
// Identity is the ID, never the content.
type Entry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Coordinate
}

// EntrySearchResult is the payload of an entries search scoped to a viewport.
type EntrySearchResult struct {
	Visible   []Entry `json:"visible"`
	Invisible []Entry `json:"invisible"`
}

// FormField names an editable field of the new-entry form.
type FormField string

const (
	FieldTitle       FormField = "title"
	FieldDescription FormField = "description"
)

// FormState is the mutable draft of a new entry.
type FormState struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Set updates the named field. Unknown fields are ignored and reported false.
func (f *FormState) Set(field FormField, text string) bool {
	switch field {
	case FieldTitle:
		f.Title = text
	case FieldDescription:
		f.Description = text
	default:
		return false
	}
	return true
}
