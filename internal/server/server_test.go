package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"glassfactory-chat/internal/bootstrap"
	"glassfactory-chat/internal/config"
	"glassfactory-chat/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, webhookURL string) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		App:     config.AppConfig{Port: "0", CorsAllowedOrigins: "https://glassfactory.example", JwtSecret: "secret"},
		Webhook: config.WebhookConfig{URL: webhookURL, Timeout: 2 * time.Second},
	}

	container := bootstrap.NewContainer(nil, cfg, logger.NewNopLogger())
	t.Cleanup(container.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, container.ConsumerService.Consume(ctx))

	return New(cfg, container).GetApp()
}

func TestServerChatRoundTrip(t *testing.T) {
	n8n := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"item","content":"Welcome to Glass Factory"}` + "\n"))
	}))
	defer n8n.Close()

	app := newTestServer(t, n8n.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hello","sessionId":"session-1-abc","isNewSession":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Welcome to Glass Factory", out["response"])
}

func TestServerCORSPreflight(t *testing.T) {
	app := newTestServer(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://glassfactory.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://glassfactory.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServerUnknownRoute(t *testing.T) {
	app := newTestServer(t, "http://127.0.0.1:1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestServerArchiveDisabled(t *testing.T) {
	app := newTestServer(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s/turns", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func signedToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "tester",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestServerLiveFeedRequiresTokenAndUpgrade(t *testing.T) {
	app := newTestServer(t, "http://127.0.0.1:1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/sessions/s/live", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/sessions/s/live?token="+signedToken(t), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
