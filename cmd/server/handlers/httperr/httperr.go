package httperr

import (
	"errors"
	"log/slog"
	"strings"

	"password-reset/internal/logger"
	"password-reset/internal/services/auth"
	"password-reset/internal/utils/crypto"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// E represents an HTTP error with status code and message
type E struct {
	Status  int    `json:"-" example:"400"`
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Bad Request"`
}

// Error implements the error interface
func (e E) Error() string {
	return e.Message
}

// JSON returns the error as JSON response
func (e E) JSON(c *fiber.Ctx) error {
	return c.Status(e.Status).JSON(e)
}

// Fail returns the error for Fiber's global error handler to process
func Fail(err E) error {
	return err
}

// BadRequest returns a 400 with the given message.
func BadRequest(message string) error {
	return Fail(E{Status: fiber.StatusBadRequest, Message: message})
}

// InvalidInput wraps a validation error and returns the standard response.
func InvalidInput(err error) error {
	return BadRequest("Invalid input: " + describe(err))
}

// describe turns validator output into something a client can act on.
func describe(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err.Error()
	}

	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min":
			msgs = append(msgs, field+" must be at least "+fe.Param()+" characters")
		case crypto.PasswordTag:
			msgs = append(msgs, crypto.ErrPasswordStrength.Error())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// InternalError returns an internal server error with the given message
func InternalError(message string) E {
	return E{Status: fiber.StatusInternalServerError, Message: message}
}

// Pre-defined HTTP errors
var (
	ErrBadRequest         = E{Status: fiber.StatusBadRequest, Message: "Bad Request"}
	ErrEmailExists        = E{Status: fiber.StatusBadRequest, Message: "Email already exists"}
	ErrInvalidCredentials = E{Status: fiber.StatusBadRequest, Message: "Invalid email or password"}
	ErrInvalidResetToken  = E{Status: fiber.StatusBadRequest, Message: "Password reset token is invalid or has expired"}
	ErrInternal           = InternalError("Internal Server Error")
)

// FromDomain maps auth sentinels to their HTTP form. ok is false for
// anything that is not a known client error.
func FromDomain(err error) (E, bool) {
	var ve *auth.ValidationError
	switch {
	case errors.As(err, &ve):
		return E{Status: fiber.StatusBadRequest, Message: "Invalid input: " + ve.Msg}, true
	case errors.Is(err, auth.ErrValidation):
		return ErrBadRequest, true
	case errors.Is(err, auth.ErrDuplicate), mongo.IsDuplicateKeyError(err):
		return ErrEmailExists, true
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ErrInvalidCredentials, true
	case errors.Is(err, auth.ErrInvalidResetToken):
		return ErrInvalidResetToken, true
	}
	return E{}, false
}

// UnmatchedPath is logged in place of a request path that matched no route.
const UnmatchedPath = "<unmatched>"

// Handler is the global error handler for Fiber
func Handler(c *fiber.Ctx, err error) error {
	return handle(c, err, logger.L())
}

// NewHandler is Handler reporting unhandled errors to log.
func NewHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return handle(c, err, log)
	}
}

// routePath is the route template, never the raw path: reset tokens are
// path parameters.
func routePath(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && len(route.Handlers) > 0 {
		return route.Path
	}
	return UnmatchedPath
}

func handle(c *fiber.Ctx, err error, log *slog.Logger) error {
	// Check if it's our custom error type
	var e E
	if errors.As(err, &e) {
		return e.JSON(c)
	}

	if mapped, ok := FromDomain(err); ok {
		return mapped.JSON(c)
	}

	var fiberError *fiber.Error
	if errors.As(err, &fiberError) {
		return c.Status(fiberError.Code).JSON(E{
			Status:  fiberError.Code,
			Message: fiberError.Message,
		})
	}

	attrs := []any{"method", c.Method(), "route", routePath(c), "error", err}
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs = append(attrs, "code", oopsErr.Code(), "context", oopsErr.Context())
	}
	log.ErrorContext(c.UserContext(), "unhandled error", attrs...)

	return ErrInternal.JSON(c)
}
