package middlewares

import (
	"password-reset/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with a ULID. A well-formed ULID sent by the
// client is kept so ids can be correlated across services.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if _, err := ulid.ParseStrict(id); err != nil {
			id = ulid.Make().String()
		}

		c.Set(RequestIDHeader, id)
		c.Locals("requestid", id)
		c.SetUserContext(logger.WithRequestID(c.UserContext(), id))

		return c.Next()
	}
}
