package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatTurn struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	SessionId      string         `gorm:"type:varchar(64);not null;index"`
	ChatInput      string         `gorm:"type:text;not null"`
	Response       string         `gorm:"type:text;not null"`
	HadImage       bool           `gorm:"not null;default:false"`
	ImageProcessed bool           `gorm:"not null;default:false"`
	IsNewSession   bool           `gorm:"not null;default:false"`
	UserProfile    datatypes.JSON `gorm:"type:jsonb"`
	DroppedLines   int            `gorm:"not null;default:0"`
	OccurredAt     time.Time      `gorm:"not null;index"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}
