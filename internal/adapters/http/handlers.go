package http

import (
	"errors"
	"math"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/core/engine"
	"github.com/samirrijal/mapgood/internal/core/usecases"
	"github.com/samirrijal/mapgood/internal/pkg/geospatial"
)

// StateHandler returns the current session state.
func StateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := deps.Session.Snapshot(c.UserContext())
		if err != nil {
			return sessionError(c, err)
		}
		return c.JSON(toState(s))
	}
}

// MapEntriesHandler returns the entry list projected for the map overlay.
func MapEntriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		markers, err := deps.Session.MapEntries(c.UserContext())
		if err != nil {
			return sessionError(c, err)
		}
		return c.JSON(toMarkers(markers))
	}
}

// ListEntriesHandler pages through the full entries of the session.
func ListEntriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := deps.Session.Snapshot(c.UserContext())
		if err != nil {
			return sessionError(c, err)
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		total := len(s.Entries)
		offset = min(offset, total)
		end := offset + min(limit, total-offset)

		p := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, p)
		return c.JSON(PaginatedResponse{
			Data:       toEntries(s.Entries[offset:end]),
			Pagination: p,
		})
	}
}

// SearchPlacesHandler resolves ?q= to candidate cities without touching the
// session. With near_lat and near_lng the candidates are ordered by distance.
func SearchPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var near *domain.Coordinate
		if c.Query("near_lat") != "" || c.Query("near_lng") != "" {
			at := domain.Coordinate{
				Lat: c.QueryFloat("near_lat", math.NaN()),
				Lng: c.QueryFloat("near_lng", math.NaN()),
			}
			if err := at.Validate(); err != nil {
				return errBadRequest(c, "near_lat and near_lng must form a valid coordinate")
			}
			near = &at
		}

		cities, err := deps.Places.SearchPlaces(c.UserContext(), c.Query("q"))
		if errors.Is(err, usecases.ErrEmptyQuery) {
			return errBadRequest(c, "query parameter 'q' is required")
		}
		if err != nil {
			return errBadGateway(c, err.Error())
		}
		if near != nil {
			geospatial.SortByDistance(cities, *near)
		}
		return c.JSON(toCities(cities))
	}
}

func sessionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, engine.ErrStopped) {
		return errUnavailable(c, "session engine stopped")
	}
	return errInternal(c, err.Error())
}
