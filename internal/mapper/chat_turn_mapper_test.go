package mapper

import (
	"testing"
	"time"

	"glassfactory-chat/internal/dto"
	"glassfactory-chat/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatTurnMapperFromMessage(t *testing.T) {
	m := NewChatTurnMapper()
	id := uuid.New()
	occurred := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	turn := m.FromMessage(&dto.TurnCompletedMessage{
		TurnId:         id.String(),
		SessionId:      "session-1-abc",
		ChatInput:      "hi",
		Response:       "hello",
		HadImage:       true,
		ImageProcessed: true,
		UserProfile:    &dto.UserProfile{IsAuthenticated: true},
		DroppedLines:   2,
		OccurredAt:     occurred.Format(time.RFC3339Nano),
	})
	require.NotNil(t, turn)
	assert.Equal(t, id, turn.Id)
	assert.Equal(t, "session-1-abc", turn.SessionId)
	assert.True(t, turn.UserProfile.IsAuthenticated)
	assert.Equal(t, 2, turn.DroppedLines)
	assert.True(t, occurred.Equal(turn.OccurredAt))
}

func TestChatTurnMapperFromMessageRepairsBadFields(t *testing.T) {
	turn := NewChatTurnMapper().FromMessage(&dto.TurnCompletedMessage{TurnId: "nope", OccurredAt: "yesterday"})
	require.NotNil(t, turn)
	assert.NotEqual(t, uuid.Nil, turn.Id)
	assert.False(t, turn.OccurredAt.IsZero())
	assert.False(t, turn.UserProfile.IsAuthenticated)
}

func TestChatTurnMapperProfileColumn(t *testing.T) {
	m := NewChatTurnMapper()
	in := &entity.ChatTurn{Id: uuid.New(), SessionId: "s", UserProfile: entity.ChatTurnProfile{IsAuthenticated: true}}

	row := m.ToModel(in)
	assert.JSONEq(t, `{"isAuthenticated":true}`, string(row.UserProfile))

	out := m.ToEntity(row)
	assert.Equal(t, in.UserProfile, out.UserProfile)
	assert.Nil(t, m.ToEntity(nil))
}
