package controller

import (
	"encoding/json"
	"errors"

	"glassfactory-chat/internal/constant"
	"glassfactory-chat/internal/dto"
	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/internal/pkg/serverutils"
	"glassfactory-chat/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
	ListTurns(ctx *fiber.Ctx) error
}

type chatController struct {
	service     service.IChatService
	turnService service.ITurnService
	logger      logger.ILogger
}

func NewChatController(service service.IChatService, turnService service.ITurnService, log logger.ILogger) IChatController {
	return &chatController{
		service:     service,
		turnService: turnService,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
	r.Post("/chat", c.Chat)
	r.Get("/sessions/:sessionId/turns", c.ListTurns)
}

func (c *chatController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": constant.HealthStatusOK})
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	// The body is JSON whatever Content-Type the caller sends.
	var req dto.ChatRequest
	if err := json.Unmarshal(ctx.Body(), &req); err != nil {
		c.logger.Error("ChatController", "Invalid request body", map[string]interface{}{"error": err})
		return c.chatFailed(ctx)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.UserContext(), &req, serverutils.IsAuthenticated(ctx))
	if err != nil {
		c.logger.Error("ChatController", "Chat API error", map[string]interface{}{"session_id": req.SessionId, "error": err})
		return c.chatFailed(ctx)
	}

	return ctx.JSON(res)
}

func (c *chatController) chatFailed(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusInternalServerError).JSON(dto.ChatErrorResponse{
		Error:    constant.ChatFailedError,
		Response: constant.ChatFailedApology,
	})
}

// ListTurns reads back the archive. Only bearer-authenticated callers may see it.
func (c *chatController) ListTurns(ctx *fiber.Ctx) error {
	if !serverutils.IsAuthenticated(ctx) {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing or invalid token")
	}

	res, err := c.turnService.ListBySession(ctx.UserContext(), ctx.Params("sessionId"), ctx.QueryInt("limit", 50), ctx.QueryInt("offset", 0))
	if err != nil {
		if errors.Is(err, service.ErrArchiveDisabled) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return err
	}
	return ctx.JSON(res)
}
