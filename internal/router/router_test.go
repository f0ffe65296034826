package router

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridcast/gridcast/internal/config"
	"github.com/gridcast/gridcast/internal/logging"
	"github.com/gridcast/gridcast/internal/services"
)

func newTestApp(t *testing.T, auth config.AuthConfig) *fiber.App {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Output.Dir = t.TempDir()
	cfg.Auth = auth

	svc := services.NewForecastService(cfg, logging.Nop(), nil, nil)
	return New(logging.Nop(), svc, cfg)
}

func TestRouter_Routes(t *testing.T) {
	app := newTestApp(t, config.AuthConfig{})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/health", fiber.StatusOK},
		{"GET", "/metrics", fiber.StatusOK},
		{"GET", "/v1/forecast/latest", fiber.StatusNotFound},
		{"GET", "/v1/unknown", fiber.StatusNotFound},
		{"GET", "/nope", fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRouter_RequestID(t *testing.T) {
	app := newTestApp(t, config.AuthConfig{})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/forecast/latest", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/v1/forecast/latest", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
}

func TestRouter_AuthProtectsV1(t *testing.T) {
	key := "0123456789abcdef0123456789abcdef"
	app := newTestApp(t, config.AuthConfig{Enabled: true, APIKeys: []string{key}})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/v1/forecast/runs", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/v1/forecast/latest", nil)
	req.Header.Set("X-API-Key", key)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
