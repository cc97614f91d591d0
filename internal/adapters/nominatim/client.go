// Package nominatim resolves place names to cities through a Nominatim
// geocoder.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/pkg/fetch"
	"github.com/samirrijal/mapgood/internal/pkg/metrics"
)

const service = "place_search"

// Config selects the geocoder instance.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client implements ports.PlaceSearcher.
type Client struct {
	baseURL string
	fetch   *fetch.Client
}

// New creates a Client for cfg.BaseURL.
func New(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		fetch:   fetch.New(service, cfg.UserAgent, cfg.Timeout),
	}
}

// address is the addressdetails block of a search record.
type address struct {
	City        *string `json:"city"`
	Country     string  `json:"country"`
	CountryCode *string `json:"country_code"`
	Locality    *string `json:"locality"`
	Postcode    *string `json:"postcode"`
	State       *string `json:"state"`
	Village     *string `json:"village"`
}

// record is one element of the search response.
type record struct {
	Address     address  `json:"address"`
	BoundingBox []string `json:"boundingbox"`
	Class       string   `json:"class"`
	Type        string   `json:"type"`
	DisplayName string   `json:"display_name"`
	Lat         *string  `json:"lat"`
	Lon         *string  `json:"lon"`
}

func (r record) isCity() bool {
	switch r.Class {
	case "place":
		return r.Type == "city" || r.Type == "village"
	case "boundary":
		return r.Type == "administrative"
	}
	return false
}

// SearchPlaces queries the geocoder and returns the records that describe a
// city with a usable position. A non-2xx status or a body that is not a JSON
// array fails the whole call; individual malformed records are skipped.
func (c *Client) SearchPlaces(ctx context.Context, query string) ([]domain.City, error) {
	u := c.baseURL + "/search?q=" + url.QueryEscape(query) + "&format=json&addressdetails=1"

	body, err := c.fetch.GetJSON(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("search places %q: %w", query, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("search places %q: decode response: %w", query, err)
	}

	cities := make([]domain.City, 0, len(raw))
	for i, msg := range raw {
		var r record
		if err := json.Unmarshal(msg, &r); err != nil {
			drop("malformed", i, err)
			continue
		}
		if !r.isCity() {
			metrics.RecordsDropped.WithLabelValues(service, "not_a_city").Inc()
			continue
		}
		city, err := r.toCity()
		if err != nil {
			drop("incomplete", i, err)
			continue
		}
		cities = append(cities, city)
	}
	return cities, nil
}

func (r record) toCity() (domain.City, error) {
	if r.Address.City == nil || *r.Address.City == "" {
		return domain.City{}, fmt.Errorf("record %q has no city name", r.DisplayName)
	}
	if r.Lat == nil || r.Lon == nil {
		return domain.City{}, fmt.Errorf("record %q has no position", r.DisplayName)
	}
	lat, err := strconv.ParseFloat(*r.Lat, 64)
	if err != nil {
		return domain.City{}, fmt.Errorf("record %q: lat: %w", r.DisplayName, err)
	}
	lng, err := strconv.ParseFloat(*r.Lon, 64)
	if err != nil {
		return domain.City{}, fmt.Errorf("record %q: lon: %w", r.DisplayName, err)
	}
	at := domain.Coordinate{Lat: lat, Lng: lng}
	if err := at.Validate(); err != nil {
		return domain.City{}, fmt.Errorf("record %q: %w", r.DisplayName, err)
	}
	return domain.City{Name: *r.Address.City, Country: r.Address.Country, Coordinate: at}, nil
}

func drop(reason string, index int, err error) {
	metrics.RecordsDropped.WithLabelValues(service, reason).Inc()
	slog.Debug("place record skipped", "index", index, "reason", reason, "error", err)
}
