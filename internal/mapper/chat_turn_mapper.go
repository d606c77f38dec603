package mapper

import (
	"encoding/json"
	"time"

	"glassfactory-chat/internal/dto"
	"glassfactory-chat/internal/entity"
	"glassfactory-chat/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatTurnMapper struct{}

func NewChatTurnMapper() *ChatTurnMapper {
	return &ChatTurnMapper{}
}

func (m *ChatTurnMapper) ToModel(t *entity.ChatTurn) *model.ChatTurn {
	if t == nil {
		return nil
	}

	profile, err := json.Marshal(t.UserProfile)
	if err != nil {
		profile = []byte("{}")
	}

	return &model.ChatTurn{
		Id:             t.Id,
		SessionId:      t.SessionId,
		ChatInput:      t.ChatInput,
		Response:       t.Response,
		HadImage:       t.HadImage,
		ImageProcessed: t.ImageProcessed,
		IsNewSession:   t.IsNewSession,
		UserProfile:    datatypes.JSON(profile),
		DroppedLines:   t.DroppedLines,
		OccurredAt:     t.OccurredAt,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *ChatTurnMapper) ToEntity(t *model.ChatTurn) *entity.ChatTurn {
	if t == nil {
		return nil
	}

	var profile entity.ChatTurnProfile
	if len(t.UserProfile) > 0 {
		_ = json.Unmarshal(t.UserProfile, &profile)
	}

	return &entity.ChatTurn{
		Id:             t.Id,
		SessionId:      t.SessionId,
		ChatInput:      t.ChatInput,
		Response:       t.Response,
		HadImage:       t.HadImage,
		ImageProcessed: t.ImageProcessed,
		IsNewSession:   t.IsNewSession,
		UserProfile:    profile,
		DroppedLines:   t.DroppedLines,
		OccurredAt:     t.OccurredAt,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *ChatTurnMapper) ToEntities(models []*model.ChatTurn) []*entity.ChatTurn {
	out := make([]*entity.ChatTurn, 0, len(models))
	for _, t := range models {
		out = append(out, m.ToEntity(t))
	}
	return out
}

// FromMessage converts the bus payload. A bad turn id or timestamp is replaced, not rejected.
func (m *ChatTurnMapper) FromMessage(msg *dto.TurnCompletedMessage) *entity.ChatTurn {
	if msg == nil {
		return nil
	}

	id, err := uuid.Parse(msg.TurnId)
	if err != nil {
		id = uuid.New()
	}
	occurredAt, err := time.Parse(time.RFC3339Nano, msg.OccurredAt)
	if err != nil {
		occurredAt = time.Now().UTC()
	}

	var profile entity.ChatTurnProfile
	if msg.UserProfile != nil {
		profile.IsAuthenticated = msg.UserProfile.IsAuthenticated
	}

	return &entity.ChatTurn{
		Id:             id,
		SessionId:      msg.SessionId,
		ChatInput:      msg.ChatInput,
		Response:       msg.Response,
		HadImage:       msg.HadImage,
		ImageProcessed: msg.ImageProcessed,
		IsNewSession:   msg.IsNewSession,
		UserProfile:    profile,
		DroppedLines:   msg.DroppedLines,
		OccurredAt:     occurredAt,
	}
}

func (m *ChatTurnMapper) ToResponse(t *entity.ChatTurn) *dto.ChatTurnResponse {
	if t == nil {
		return nil
	}
	return &dto.ChatTurnResponse{
		Id:              t.Id.String(),
		SessionId:       t.SessionId,
		ChatInput:       t.ChatInput,
		Response:        t.Response,
		HadImage:        t.HadImage,
		ImageProcessed:  t.ImageProcessed,
		IsNewSession:    t.IsNewSession,
		IsAuthenticated: t.UserProfile.IsAuthenticated,
		OccurredAt:      t.OccurredAt.Format(time.RFC3339),
	}
}
