package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/gridcast/gridcast/internal/config"
	"github.com/gridcast/gridcast/internal/logging"
)

// generateAPIKey generates a valid API key of specified length
func generateAPIKey(length int) string {
	key := make([]byte, length)
	for i := range key {
		key[i] = 'a' + byte(i%26)
	}
	return string(key)
}

func authApp(cfg config.AuthConfig) *fiber.App {
	app := fiber.New()
	app.Use(APIKeyAuth(logging.Nop(), cfg))
	app.Post("/v1/forecast/runs", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected bool
	}{
		{"exactly 32 chars", generateAPIKey(32), true},
		{"longer than 32 chars", generateAPIKey(64), true},
		{"too short", generateAPIKey(31), false},
		{"empty", "", false},
		{"32 spaces", strings.Repeat(" ", 32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAPIKey(tt.key); got != tt.expected {
				t.Errorf("ValidateAPIKey(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := map[string]string{
		"abcdefghijklmnop": "abcd****",
		"abcd":             "****",
		"":                 "****",
		"abcde":            "abcd****",
	}
	for key, want := range tests {
		if got := maskAPIKey(key); got != want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	app := authApp(config.AuthConfig{Enabled: false})

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/forecast/runs", nil))
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	validKey := generateAPIKey(32)
	weakKey := generateAPIKey(31)
	app := authApp(config.AuthConfig{Enabled: true, APIKeys: []string{validKey, weakKey}})

	tests := []struct {
		name       string
		headerName string
		headerVal  string
		wantStatus int
	}{
		{"X-API-Key header", "X-API-Key", validKey, fiber.StatusOK},
		{"Authorization Bearer header", "Authorization", "Bearer " + validKey, fiber.StatusOK},
		{"Authorization plain header", "Authorization", validKey, fiber.StatusOK},
		{"missing API key", "", "", fiber.StatusUnauthorized},
		{"wrong API key", "X-API-Key", validKey + "wrong", fiber.StatusUnauthorized},
		{"weak configured key is ignored", "X-API-Key", weakKey, fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/v1/forecast/runs", nil)
			if tt.headerName != "" {
				req.Header.Set(tt.headerName, tt.headerVal)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to test request: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}
