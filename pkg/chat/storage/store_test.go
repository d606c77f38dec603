package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "n8n-chat-session", "session-1"))
	require.NoError(t, s.Set(ctx, "n8n-chat-session", "session-2"))
	v, ok, err := s.Get(ctx, "n8n-chat-session")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "session-2", v)

	require.NoError(t, s.Delete(ctx, "n8n-chat-session"))
	_, ok, err = s.Get(ctx, "n8n-chat-session")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	require.NoError(t, s.Set(context.Background(), "glassfactory-dark-mode", "true"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(context.Background(), "glassfactory-dark-mode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "floppy"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}
	s, err := NewRedisStoreFromURL(context.Background(), url, "glassfactory:test:")
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestGormStore(t *testing.T) {
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}
	s, err := NewGormStoreFromDSN(dsn)
	require.NoError(t, err)
	exerciseStore(t, s)
}
