package server

import (
	"context"

	"glassfactory-chat/internal/bootstrap"
	"glassfactory-chat/internal/config"
	"glassfactory-chat/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "glassfactory-chat",
		BodyLimit:             15 * 1024 * 1024, // base64 images inflate by a third
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	if cfg.Tracing.Enabled {
		app.Use(otelfiber.Middleware())
	}

	app.Use(serverutils.ErrorHandlerMiddleware())
	app.Use(serverutils.OptionalJwtMiddleware(cfg.App.JwtSecret))

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")
	c.ChatController.RegisterRoutes(api)
	c.LiveHandler.RegisterRoutes(api)
}
