package handler

import (
	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/internal/pkg/serverutils"
	internalWS "glassfactory-chat/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const liveLogModule = "LiveHandler"

// LiveHandler streams a session's completed turns over a websocket.
type LiveHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewLiveHandler(hub *internalWS.Hub, log logger.ILogger) *LiveHandler {
	return &LiveHandler{
		hub:    hub,
		logger: log,
	}
}

func (h *LiveHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/sessions/:sessionId/live", h.ServeWs)
}

// ServeWs requires the same bearer token as the turn archive. Browsers that
// cannot set headers on a websocket pass it as ?token=.
func (h *LiveHandler) ServeWs(c *fiber.Ctx) error {
	if !serverutils.IsAuthenticated(c) {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing or invalid token")
	}

	sessionID := c.Params("sessionId")
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info(liveLogModule, "Starting live session", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID)
		h.logger.Info(liveLogModule, "Live session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}
