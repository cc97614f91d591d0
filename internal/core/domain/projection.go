package domain

// Marker is the shape of an entry consumed by the map surface overlay.
type Marker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Coordinate
}

// Project converts entries into overlay markers, preserving order.
func Project(entries []Entry) []Marker {
	markers := make([]Marker, 0, len(entries))
	for _, e := range entries {
		markers = append(markers, Marker{ID: e.ID, Name: e.Title, Coordinate: e.Coordinate})
	}
	return markers
}
