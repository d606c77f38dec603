package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glassfactory-chat/internal/constant"
	"glassfactory-chat/internal/dto"
	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/pkg/webhook"

	"github.com/google/uuid"
)

const chatLogModule = "ChatService"

// WebhookSender is the automation webhook as seen by the service.
type WebhookSender interface {
	Send(ctx context.Context, turn webhook.Turn) (webhook.StreamResult, error)
}

type IChatService interface {
	// Chat forwards one validated request and normalizes the reply.
	// authenticated comes from the request's bearer token, not from the body.
	Chat(ctx context.Context, req *dto.ChatRequest, authenticated bool) (*dto.ChatResponse, error)
}

type chatService struct {
	webhook   WebhookSender
	publisher IPublisherService
	logger    logger.ILogger
	now       func() time.Time
}

func NewChatService(webhook WebhookSender, publisher IPublisherService, log logger.ILogger) IChatService {
	return &chatService{
		webhook:   webhook,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

func (s *chatService) Chat(ctx context.Context, req *dto.ChatRequest, authenticated bool) (*dto.ChatResponse, error) {
	turn := webhook.Turn{
		ChatInput: req.Message,
		SessionID: req.SessionId,
	}

	if req.Image != "" {
		img, err := webhook.DecodeDataURL(req.Image)
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		turn.Image = img
		if turn.ChatInput == "" {
			turn.ChatInput = constant.ImageAnalysisPrompt
		}
	}

	s.logger.Info(chatLogModule, "Forwarding chat turn", map[string]interface{}{
		"session_id":     req.SessionId,
		"is_new_session": req.IsNewSession,
		"has_image":      turn.Image != nil,
		"message_length": len(req.Message),
	})

	result, err := s.webhook.Send(ctx, turn)
	if err != nil {
		s.logger.Error(chatLogModule, "Webhook call failed", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err,
		})
		return nil, fmt.Errorf("webhook: %w", err)
	}

	if result.Dropped > 0 {
		s.logger.Warn(chatLogModule, "Skipped unparseable stream lines", map[string]interface{}{
			"session_id": req.SessionId,
			"dropped":    result.Dropped,
			"items":      result.Items,
		})
	}

	imageProcessed := turn.Image != nil && MentionsImage(result.Text)
	now := s.now().UTC()

	res := &dto.ChatResponse{
		Response:       result.Text,
		Timestamp:      now.Format(time.RFC3339),
		ImageProcessed: imageProcessed,
	}
	if res.Response == "" {
		res.Response = constant.FallbackResponse
	}

	s.publishTurn(ctx, req, turn.ChatInput, result, res, authenticated, now)
	return res, nil
}

func (s *chatService) publishTurn(
	ctx context.Context,
	req *dto.ChatRequest,
	chatInput string,
	result webhook.StreamResult,
	res *dto.ChatResponse,
	authenticated bool,
	now time.Time,
) {
	if s.publisher == nil {
		return
	}

	profile := &dto.UserProfile{}
	if req.UserProfile != nil {
		profile.IsAuthenticated = req.UserProfile.IsAuthenticated
	}
	if authenticated {
		profile.IsAuthenticated = true
	}

	msg := &dto.TurnCompletedMessage{
		TurnId:         uuid.NewString(),
		SessionId:      req.SessionId,
		ChatInput:      chatInput,
		Response:       res.Response,
		HadImage:       req.Image != "",
		ImageProcessed: res.ImageProcessed,
		IsNewSession:   req.IsNewSession,
		UserProfile:    profile,
		DroppedLines:   result.Dropped,
		OccurredAt:     now.Format(time.RFC3339Nano),
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.Warn(chatLogModule, "Failed to publish turn", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
	}
}

// MentionsImage is the reply heuristic behind imageProcessed: a case-insensitive
// substring match against constant.ImageKeywords. "see" also matches "seems".
func MentionsImage(reply string) bool {
	lower := strings.ToLower(reply)
	for _, keyword := range constant.ImageKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
