package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrInvalidBoundingBox = errors.New("invalid bounding box")
)

// Coordinate represents a geographic coordinate (WGS 84) in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that both ordinates are finite and within range.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return fmt.Errorf("%w: ordinates must be finite", ErrInvalidCoordinate)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of [-90,90]", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of [-180,180]", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

// BoundingBox is the rectangular area visible in the map viewport.
type BoundingBox struct {
	NorthEast Coordinate `json:"north_east"`
	SouthWest Coordinate `json:"south_west"`
}

// Validate rejects boxes with invalid corners or an inverted latitude span.
// Longitude is not ordered: a box crossing the antimeridian has NE.Lng < SW.Lng.
func (b BoundingBox) Validate() error {
	if err := b.NorthEast.Validate(); err != nil {
		return fmt.Errorf("%w: north-east corner: %v", ErrInvalidBoundingBox, err)
	}
	if err := b.SouthWest.Validate(); err != nil {
		return fmt.Errorf("%w: south-west corner: %v", ErrInvalidBoundingBox, err)
	}
	if b.NorthEast.Lat < b.SouthWest.Lat {
		return fmt.Errorf("%w: north-east latitude %v below south-west latitude %v",
			ErrInvalidBoundingBox, b.NorthEast.Lat, b.SouthWest.Lat)
	}
	return nil
}

// Ordinates returns the box as [swLat, swLng, neLat, neLng].
func (b BoundingBox) Ordinates() [4]float64 {
	return [4]float64{b.SouthWest.Lat, b.SouthWest.Lng, b.NorthEast.Lat, b.NorthEast.Lng}
}

// Query formats the box as the "swLat,swLng,neLat,neLng" search parameter.
func (b BoundingBox) Query() string {
	ords := b.Ordinates()
	parts := make([]string, len(ords))
	for i, x := range ords {
		parts[i] = strconv.FormatFloat(x, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
