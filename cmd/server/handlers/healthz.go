package handlers

import (
	"context"
	"errors"
	"time"

	"password-reset/internal/clients/mongo"
	"password-reset/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const HealthzTimeout = 5 * time.Second

// ErrDBNotInitialized is reported while the mongo client is not connected.
var ErrDBNotInitialized = errors.New("database not initialized")

// Pinger checks a dependency.
type Pinger func(ctx context.Context) error

// PingMongo pings the primary of the singleton mongo client.
func PingMongo(ctx context.Context) error {
	db := mongo.DB()
	if db == nil {
		return ErrDBNotInitialized
	}
	return db.Client().Ping(ctx, readpref.Primary())
}

// Healthz returns a handler reporting the health of the server.
// @Summary Health check
// @Description Check if the server and its database are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /healthz [get]
func Healthz(ping Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), HealthzTimeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			logger.L().WarnContext(ctx, "health check failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status": "down",
			})
		}

		return c.JSON(fiber.Map{
			"status": "ok",
		})
	}
}
