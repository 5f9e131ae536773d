package main

import (
	"context"
	"fmt"

	"password-reset/cmd/server/handlers"
	"password-reset/cmd/server/handlers/auth"
	"password-reset/cmd/server/handlers/httperr"
	"password-reset/cmd/server/middlewares"
	"password-reset/internal/clients/mongo"
	"password-reset/internal/config"
	"password-reset/internal/logger"
	"password-reset/internal/notify"
	authServices "password-reset/internal/services/auth"
	util "password-reset/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// AuthPrefix is the second mount point of the auth routes.
const AuthPrefix = "/api/auth"

// accessLogFormat logs the route template, never the raw path: reset
// tokens travel in the URL.
const accessLogFormat = "${time} ${locals:requestid} ${status} - ${latency} ${method} ${route}\n"

// deps are the collaborators the router wires into the auth service.
type deps struct {
	users  authServices.UsersRepo
	mailer authServices.ResetMailer
	ping   handlers.Pinger
}

// setupRouter builds the production dependencies and returns the app.
// The mongo client must already be initialized.
func setupRouter(ctx context.Context, cfg config.Config) (*fiber.App, error) {
	usersRepo, err := mongo.NewUsersRepo(ctx, mongo.DB())
	if err != nil {
		return nil, fmt.Errorf("create users repository: %w", err)
	}

	mailer, err := notify.New(cfg, logger.L())
	if err != nil {
		return nil, err
	}

	return newRouter(cfg, deps{
		users:  usersRepo,
		mailer: mailer,
		ping:   handlers.PingMongo,
	})
}

// newRouter configures and returns a Fiber app with all routes
func newRouter(cfg config.Config, d deps) (*fiber.App, error) {
	v, err := util.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "password-reset",
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(middlewares.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Content-Type, " + middlewares.RequestIDHeader,
		ExposeHeaders: middlewares.RequestIDHeader,
	}))

	authMetrics := authServices.NewMetrics()
	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app, authMetrics.Collectors()...)
	}

	// registered before the access log so probes stay quiet
	app.Get("/healthz", handlers.Healthz(d.ping))

	if cfg.RequestLoggingEnabled {
		app.Use(fiberlogger.New(fiberlogger.Config{Format: accessLogFormat}))
		logger.L().Info("request logging enabled")
	} else {
		logger.L().Info("request logging disabled")
	}

	authSvc := authServices.NewService(d.users, d.mailer, cfg, logger.L(), authServices.WithMetrics(authMetrics))
	authHandlers := auth.NewHandlers(authSvc, v)

	authHandlers.Mount(app)
	authHandlers.Mount(app.Group(AuthPrefix))

	return app, nil
}
