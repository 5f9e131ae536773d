package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"password-reset/cmd/server/handlers/httperr"
	"password-reset/internal/config"
	"password-reset/internal/logger"
	util "password-reset/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// CreateTestApp creates a basic Fiber app for testing with common configuration
func CreateTestApp(t *testing.T) *fiber.App {
	t.Helper()
	InitLogger(t)

	return fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
	})
}

// InitLogger makes sure the singleton logger exists.
func InitLogger(t *testing.T) {
	t.Helper()
	_, err := logger.Init(config.Config{LogLevel: "error", LogFormat: "text"})
	require.NoError(t, err)
}

// CreateTestValidator creates the same validator the server uses
func CreateTestValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v, err := util.NewValidator()
	require.NoError(t, err)
	return v
}

// CreateJSONRequest creates an HTTP request with JSON body
func CreateJSONRequest(method, url string, body any) *http.Request {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSON reads a JSON response body into a generic map.
func DecodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	return got
}
