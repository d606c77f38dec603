package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Webhook  WebhookConfig
	Database DatabaseConfig
	Client   ClientConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string `env:"APP_PORT" envDefault:"3000"`
	Environment        string `env:"GO_ENV" envDefault:"development"`
	LogFilePath        string `env:"LOG_FILE_PATH" envDefault:"logs/app.log"`
	CorsAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	NatsURL            string `env:"NATS_URL"`
	JwtSecret          string `env:"JWT_SECRET"`
}

type WebhookConfig struct {
	URL     string        `env:"WEBHOOK_URL" envDefault:"https://glassfactory.app.n8n.cloud/webhook/129559da-251d-40c0-8247-26078bad8c3a/chat"`
	Timeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"60s"`
}

type DatabaseConfig struct {
	Connection string `env:"DB_CONNECTION_STRING"`
	RedisURL   string `env:"REDIS_URL"`
}

// ClientConfig is read by the terminal client only.
type ClientConfig struct {
	APIURL      string `env:"CHAT_API_URL" envDefault:"http://localhost:3000"`
	Storage     string `env:"CHAT_STORAGE" envDefault:"file"`
	StoragePath string `env:"CHAT_STORAGE_PATH"`
	LogFilePath string `env:"CHAT_LOG_FILE_PATH"`
}

type TracingConfig struct {
	Enabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ResolvedStoragePath falls back to ~/.glassfactory/storage.json.
func (c ClientConfig) ResolvedStoragePath() string {
	if c.StoragePath != "" {
		return c.StoragePath
	}
	return filepath.Join(glassfactoryDir(), "storage.json")
}

// ResolvedLogFilePath falls back to ~/.glassfactory/chat.log.
func (c ClientConfig) ResolvedLogFilePath() string {
	if c.LogFilePath != "" {
		return c.LogFilePath
	}
	return filepath.Join(glassfactoryDir(), "chat.log")
}

func glassfactoryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".glassfactory"
	}
	return filepath.Join(home, ".glassfactory")
}
