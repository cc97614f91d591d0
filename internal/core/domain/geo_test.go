package domain_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/mapgood/internal/core/domain"
)

func TestCoordinate_Validate(t *testing.T) {
	tests := []struct {
		name  string
		c     domain.Coordinate
		valid bool
	}{
		{"berlin", domain.Coordinate{Lat: 52.52, Lng: 13.405}, true},
		{"corners", domain.Coordinate{Lat: -90, Lng: 180}, true},
		{"lat too high", domain.Coordinate{Lat: 90.1, Lng: 0}, false},
		{"lng too low", domain.Coordinate{Lat: 0, Lng: -180.5}, false},
		{"nan", domain.Coordinate{Lat: math.NaN(), Lng: 0}, false},
		{"inf", domain.Coordinate{Lat: 0, Lng: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, domain.ErrInvalidCoordinate) {
				t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
			}
		})
	}
}

func TestBoundingBox_Validate(t *testing.T) {
	ok := domain.BoundingBox{
		NorthEast: domain.Coordinate{Lat: 52.6, Lng: 13.5},
		SouthWest: domain.Coordinate{Lat: 52.4, Lng: 13.3},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inverted := domain.BoundingBox{NorthEast: ok.SouthWest, SouthWest: ok.NorthEast}
	if err := inverted.Validate(); !errors.Is(err, domain.ErrInvalidBoundingBox) {
		t.Fatalf("expected ErrInvalidBoundingBox, got %v", err)
	}

	antimeridian := domain.BoundingBox{
		NorthEast: domain.Coordinate{Lat: 10, Lng: -170},
		SouthWest: domain.Coordinate{Lat: -10, Lng: 170},
	}
	if err := antimeridian.Validate(); err != nil {
		t.Fatalf("antimeridian box rejected: %v", err)
	}
}

func TestBoundingBox_Query(t *testing.T) {
	b := domain.BoundingBox{
		NorthEast: domain.Coordinate{Lat: 52.6, Lng: 13.5},
		SouthWest: domain.Coordinate{Lat: 52.4, Lng: -13.25},
	}
	if got := b.Query(); got != "52.4,-13.25,52.6,13.5" {
		t.Errorf("unexpected query %q", got)
	}
	if got := b.Ordinates(); got != [4]float64{52.4, -13.25, 52.6, 13.5} {
		t.Errorf("unexpected ordinates %v", got)
	}
}
