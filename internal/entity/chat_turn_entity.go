package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatTurn is one answered request to POST /api/chat.
type ChatTurn struct {
	Id             uuid.UUID
	SessionId      string
	ChatInput      string
	Response       string
	HadImage       bool
	ImageProcessed bool
	IsNewSession   bool
	UserProfile    ChatTurnProfile
	DroppedLines   int
	OccurredAt     time.Time
	CreatedAt      time.Time
}

type ChatTurnProfile struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}
