package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glassfactory-chat/internal/config"
	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/internal/tui"
	"glassfactory-chat/pkg/chat"
	"glassfactory-chat/pkg/chat/storage"

	"github.com/charmbracelet/lipgloss"
)

// The proxy gives up on the webhook after its own timeout; wait slightly longer
// so the client sees the proxy's answer instead of a local timeout.
const apiGrace = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// 2. File-only logger, the terminal belongs to the UI
	log := logger.NewIsolatedLogger(cfg.Client.ResolvedLogFilePath())
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Client storage
	store, err := storage.Open(ctx, storage.Config{
		Backend:  cfg.Client.Storage,
		Path:     cfg.Client.ResolvedStoragePath(),
		RedisURL: cfg.Database.RedisURL,
		DSN:      cfg.Database.Connection,
	})
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Client.Storage, err)
	}

	log.Info("Main", "Starting chat client", map[string]interface{}{
		"api_url": cfg.Client.APIURL,
		"storage": cfg.Client.Storage,
	})

	// 4. Run the UI
	return tui.Run(ctx, tui.Options{
		Store:       store,
		API:         chat.NewHTTPClient(cfg.Client.APIURL, cfg.Webhook.Timeout+apiGrace),
		Logger:      log,
		PrefersDark: lipgloss.HasDarkBackground(),
	})
}
