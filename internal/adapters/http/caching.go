package http

import (
	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		var ttl string
		switch c.Path() {
		case "/v1/health", "/v1/ready":
			ttl = "public, max-age=10"
		case "/metrics":
			ttl = "no-cache"
		case "/v1/state", "/v1/state/entries", "/v1/map/entries":
			// Session state changes with every message; revalidate via ETag.
			ttl = "private, no-cache"
		case "/v1/places/search":
			ttl = "public, max-age=300"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
