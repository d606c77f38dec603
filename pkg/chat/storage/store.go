// Package storage is the durable key/value store behind the chat client.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Store keeps string values under string keys. Writes are synchronous.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

type Config struct {
	Backend  string
	Path     string // file backend
	RedisURL string
	Prefix   string // redis key prefix
	DSN      string // postgres backend
}

// Open builds the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Path)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.Prefix)
	case BackendPostgres:
		return NewGormStoreFromDSN(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
