package domain

// State is the single application state of a map-exploration session.
// It is owned by the engine; everyone else sees copies from Clone.
type State struct {
	// Cities is nil until a place search produced at least one city.
	Cities      *[]City         `json:"cities"`
	Viewport    *BoundingBox    `json:"viewport"`
	Selected    *Entry          `json:"selected"`
	Entries     []Entry         `json:"entries"`
	FormVisible bool            `json:"form_visible"`
	Draft       FormState       `json:"draft"`
	Violations  []FormViolation `json:"violations"`
}

// NewState returns the initial state with every optional field absent.
func NewState() *State {
	return &State{
		Entries:    []Entry{},
		Violations: []FormViolation{},
	}
}

// FindEntry returns the first entry with the given ID.
func (s *State) FindEntry(id string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Clone creates a deep copy of the state.
func (s *State) Clone() State {
	out := State{
		FormVisible: s.FormVisible,
		Draft:       s.Draft,
		Entries:     append([]Entry{}, s.Entries...),
		Violations:  append([]FormViolation{}, s.Violations...),
	}
	if s.Cities != nil {
		cities := append([]City{}, (*s.Cities)...)
		out.Cities = &cities
	}
	if s.Viewport != nil {
		vp := *s.Viewport
		out.Viewport = &vp
	}
	if s.Selected != nil {
		sel := *s.Selected
		out.Selected = &sel
	}
	return out
}
