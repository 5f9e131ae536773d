package auth

import (
	"context"

	"password-reset/cmd/server/handlers/httperr"
	"password-reset/internal/logger"
	"password-reset/internal/services/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthService defines the interface for auth service
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error)
	ForgotPassword(ctx context.Context, req auth.ForgotPasswordRequest) (*auth.MessageResponse, error)
	ValidateResetToken(ctx context.Context, token string) (*auth.MessageResponse, error)
	ResetPassword(ctx context.Context, token string, req auth.ResetPasswordRequest) (*auth.MessageResponse, error)
}

// Handlers contains the auth HTTP handlers
type Handlers struct {
	authService AuthService
	validator   *validator.Validate
}

// NewHandlers creates new auth handlers
func NewHandlers(authService AuthService, validator *validator.Validate) *Handlers {
	return &Handlers{
		authService: authService,
		validator:   validator,
	}
}

// Mount registers the auth routes on r.
func (h *Handlers) Mount(r fiber.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Get("/reset-password/:token", h.ValidateResetToken)
	r.Post("/reset-password/:token", h.ResetPassword)
}

// trimmer is implemented by requests that clean their fields before validation.
type trimmer interface {
	TrimInput()
}

func (h *Handlers) parse(c *fiber.Ctx, req any, handler string) error {
	if err := c.BodyParser(req); err != nil {
		logger.L().WarnContext(c.UserContext(), "failed to parse request body", "handler", handler, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if t, ok := req.(trimmer); ok {
		t.TrimInput()
	}

	if err := h.validator.Struct(req); err != nil {
		logger.L().WarnContext(c.UserContext(), "request validation failed", "handler", handler, "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// fail translates known domain errors here; everything else goes to the
// terminal error handler, which logs it and answers 500.
func fail(c *fiber.Ctx, handler string, err error) error {
	if e, ok := httperr.FromDomain(err); ok {
		logger.L().InfoContext(c.UserContext(), "request rejected", "handler", handler, "reason", err.Error())
		return httperr.Fail(e)
	}
	return err
}

// Register handles user registration
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.RegisterRequest true "Registration request"
// @Success 201 {object} auth.AuthResponse
// @Failure 400 {object} httperr.E
// @Router /register [post]
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := h.parse(c, &req, "Register"); err != nil {
		return err
	}

	resp, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return fail(c, "Register", err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles user authentication
// @Summary Authenticate a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.LoginRequest true "Login request"
// @Success 200 {object} auth.AuthResponse
// @Failure 400 {object} httperr.E
// @Router /login [post]
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := h.parse(c, &req, "Login"); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return fail(c, "Login", err)
	}

	return c.JSON(resp)
}

// ForgotPassword starts a password reset. The answer does not depend on
// whether the email is registered.
// @Summary Request a password reset email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /forgot-password [post]
func (h *Handlers) ForgotPassword(c *fiber.Ctx) error {
	var req auth.ForgotPasswordRequest
	if err := h.parse(c, &req, "ForgotPassword"); err != nil {
		return err
	}

	resp, err := h.authService.ForgotPassword(c.UserContext(), req)
	if err != nil {
		return fail(c, "ForgotPassword", err)
	}

	return c.JSON(resp)
}

// ValidateResetToken checks a reset token without consuming it.
// @Summary Check a password reset token
// @Tags auth
// @Produce json
// @Param token path string true "Reset token"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Router /reset-password/{token} [get]
func (h *Handlers) ValidateResetToken(c *fiber.Ctx) error {
	resp, err := h.authService.ValidateResetToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return fail(c, "ValidateResetToken", err)
	}

	return c.JSON(resp)
}

// ResetPassword sets a new password and burns the token.
// @Summary Reset a password
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "Reset token"
// @Param request body auth.ResetPasswordRequest true "New password"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Router /reset-password/{token} [post]
func (h *Handlers) ResetPassword(c *fiber.Ctx) error {
	var req auth.ResetPasswordRequest
	if err := h.parse(c, &req, "ResetPassword"); err != nil {
		return err
	}

	resp, err := h.authService.ResetPassword(c.UserContext(), c.Params("token"), req)
	if err != nil {
		return fail(c, "ResetPassword", err)
	}

	return c.JSON(resp)
}
