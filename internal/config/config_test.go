package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, 60*time.Second, cfg.Webhook.Timeout)
	assert.True(t, strings.HasSuffix(cfg.Webhook.URL, "/chat"))
	assert.Equal(t, "file", cfg.Client.Storage)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "storage.json", filepath.Base(cfg.Client.ResolvedStoragePath()))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("GO_ENV", "production")
	t.Setenv("WEBHOOK_URL", "http://n8n.local/webhook/chat")
	t.Setenv("WEBHOOK_TIMEOUT", "5s")
	t.Setenv("CHAT_STORAGE", "redis")
	t.Setenv("CHAT_STORAGE_PATH", "/tmp/chat.json")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "http://n8n.local/webhook/chat", cfg.Webhook.URL)
	assert.Equal(t, 5*time.Second, cfg.Webhook.Timeout)
	assert.Equal(t, "redis", cfg.Client.Storage)
	assert.Equal(t, "/tmp/chat.json", cfg.Client.ResolvedStoragePath())
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("WEBHOOK_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}
