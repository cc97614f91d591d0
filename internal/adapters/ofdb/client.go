// Package ofdb searches the Open Fair DB entry index for the entries inside a
// bounding box.
package ofdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/pkg/fetch"
	"github.com/samirrijal/mapgood/internal/pkg/metrics"
)

const service = "entries_search"

// DefaultCategories restricts searches to initiatives and companies.
var DefaultCategories = []string{
	"2cd00bebec0c48ba9db761da48678134",
	"77b3c33a92554bcf8e8c2c86cedd6f6f",
}

// Config selects the index instance and the categories searched.
type Config struct {
	BaseURL    string
	Categories []string
	Timeout    time.Duration
}

// Client implements ports.EntrySearcher.
type Client struct {
	baseURL    string
	categories string
	fetch      *fetch.Client
}

// New creates a Client. Empty categories fall back to DefaultCategories.
func New(cfg Config) *Client {
	cats := cfg.Categories
	if len(cats) == 0 {
		cats = DefaultCategories
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		categories: strings.Join(cats, ","),
		fetch:      fetch.New(service, "", cfg.Timeout),
	}
}

type response struct {
	Visible   []json.RawMessage `json:"visible"`
	Invisible []json.RawMessage `json:"invisible"`
}

type entry struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

// SearchEntries returns the entries the index reports for box.
func (c *Client) SearchEntries(ctx context.Context, box domain.BoundingBox) (domain.EntrySearchResult, error) {
	q := url.Values{}
	q.Set("text", "")
	q.Set("categories", c.categories)
	q.Set("bbox", box.Query())
	u := c.baseURL + "/search?" + q.Encode()

	body, err := c.fetch.GetJSON(ctx, u)
	if err != nil {
		return domain.EntrySearchResult{}, fmt.Errorf("search entries: %w", err)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.EntrySearchResult{}, fmt.Errorf("search entries: decode response: %w", err)
	}

	return domain.EntrySearchResult{
		Visible:   decodeEntries(resp.Visible),
		Invisible: decodeEntries(resp.Invisible),
	}, nil
}

func decodeEntries(raw []json.RawMessage) []domain.Entry {
	entries := make([]domain.Entry, 0, len(raw))
	for i, msg := range raw {
		var e entry
		if err := json.Unmarshal(msg, &e); err != nil {
			drop("malformed", i, err)
			continue
		}
		if e.ID == "" || e.Lat == nil || e.Lng == nil {
			drop("incomplete", i, fmt.Errorf("entry %q lacks id or position", e.ID))
			continue
		}
		at := domain.Coordinate{Lat: *e.Lat, Lng: *e.Lng}
		if err := at.Validate(); err != nil {
			drop("invalid_position", i, err)
			continue
		}
		entries = append(entries, domain.Entry{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Coordinate:  at,
		})
	}
	return entries
}

func drop(reason string, index int, err error) {
	metrics.RecordsDropped.WithLabelValues(service, reason).Inc()
	slog.Debug("entry record skipped", "index", index, "reason", reason, "error", err)
}
