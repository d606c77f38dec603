package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glassfactory-chat/internal/bootstrap"
	"glassfactory-chat/internal/config"
	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/internal/server"
	"glassfactory-chat/internal/tracer"
	"glassfactory-chat/pkg/database"

	"github.com/fatih/color"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	// 2. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(context.Background(), cfg.Tracing, sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Database is optional: it only backs the turn archive
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection, gormlogger.Warn)
		if err != nil {
			sysLogger.Error("Main", "Unable to connect to GORM DB, continuing without archive", map[string]interface{}{"error": err})
			gormDB = nil
		}
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg, sysLogger)
	defer container.Close()

	// 5. Start Background Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go container.LiveHub.Run(ctx)

	if err := container.ConsumerService.Consume(ctx); err != nil {
		sysLogger.Error("Main", "Consumer failed to start", map[string]interface{}{"error": err})
	}

	// 6. Run Server
	srv := server.New(cfg, container)
	printBanner(cfg)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sysLogger.Error("Main", "Graceful shutdown failed", map[string]interface{}{"error": err})
		}
	}()

	if err := srv.Run(); err != nil {
		sysLogger.Error("Main", "Server stopped", map[string]interface{}{"error": err})
		os.Exit(1)
	}
}

func printBanner(cfg *config.Config) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)
	on := color.New(color.FgGreen).SprintFunc()
	off := color.New(color.FgYellow).SprintFunc()

	state := func(enabled bool) string {
		if enabled {
			return on("enabled")
		}
		return off("disabled")
	}

	title.Println("Glass Factory chat proxy")
	label.Print("  listening  ")
	color.White("http://localhost:%s/api/chat", cfg.App.Port)
	label.Print("  webhook    ")
	color.White("%s (timeout %s)", cfg.Webhook.URL, cfg.Webhook.Timeout)
	label.Print("  archive    ")
	color.White("%s", state(cfg.Database.Connection != ""))
	label.Print("  live feed  ")
	color.White("ws://localhost:%s/api/sessions/:sessionId/live (redis fan-out %s)", cfg.App.Port, state(cfg.Database.RedisURL != ""))
	label.Print("  nats relay ")
	color.White("%s", state(cfg.App.NatsURL != ""))
	label.Print("  tracing    ")
	color.White("%s", state(cfg.Tracing.Enabled))
}
