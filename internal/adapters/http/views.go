package http

import "github.com/samirrijal/mapgood/internal/core/domain"

// Response shapes. Fields are flat so the same structs serve REST and GraphQL.

type coordinateView struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type boxView struct {
	NorthEast coordinateView `json:"north_east"`
	SouthWest coordinateView `json:"south_west"`
}

type cityView struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type entryView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

type markerView struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type draftView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type violationView struct {
	Rule    string `json:"rule"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Actual  int    `json:"actual"`
	Message string `json:"message"`
}

type stateView struct {
	Cities      []cityView      `json:"cities"`
	Viewport    *boxView        `json:"viewport"`
	Selected    *entryView      `json:"selected"`
	Entries     []entryView     `json:"entries"`
	FormVisible bool            `json:"form_visible"`
	Draft       draftView       `json:"draft"`
	Violations  []violationView `json:"violations"`
}

func toCoordinate(c domain.Coordinate) coordinateView {
	return coordinateView{Lat: c.Lat, Lng: c.Lng}
}

func toCities(cities []domain.City) []cityView {
	out := make([]cityView, len(cities))
	for i, c := range cities {
		out[i] = cityView{Name: c.Name, Country: c.Country, Lat: c.Lat, Lng: c.Lng}
	}
	return out
}

func toEntry(e domain.Entry) entryView {
	return entryView{ID: e.ID, Title: e.Title, Description: e.Description, Lat: e.Lat, Lng: e.Lng}
}

func toEntries(entries []domain.Entry) []entryView {
	out := make([]entryView, len(entries))
	for i, e := range entries {
		out[i] = toEntry(e)
	}
	return out
}

func toMarkers(markers []domain.Marker) []markerView {
	out := make([]markerView, len(markers))
	for i, m := range markers {
		out[i] = markerView{ID: m.ID, Name: m.Name, Lat: m.Lat, Lng: m.Lng}
	}
	return out
}

// toState renders a snapshot. Absent candidates stay null.
func toState(s domain.State) stateView {
	v := stateView{
		Entries:     toEntries(s.Entries),
		FormVisible: s.FormVisible,
		Draft:       draftView{Title: s.Draft.Title, Description: s.Draft.Description},
		Violations:  make([]violationView, len(s.Violations)),
	}
	if s.Cities != nil {
		v.Cities = toCities(*s.Cities)
	}
	if s.Viewport != nil {
		v.Viewport = &boxView{NorthEast: toCoordinate(s.Viewport.NorthEast), SouthWest: toCoordinate(s.Viewport.SouthWest)}
	}
	if s.Selected != nil {
		sel := toEntry(*s.Selected)
		v.Selected = &sel
	}
	for i, fv := range s.Violations {
		v.Violations[i] = violationView{Rule: fv.Rule, Min: fv.Min, Max: fv.Max, Actual: fv.Actual, Message: fv.Message()}
	}
	return v
}
