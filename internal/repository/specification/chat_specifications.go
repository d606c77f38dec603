package specification

import (
	"time"

	"gorm.io/gorm"
)

// BySessionID matches turns of one client session id (the `session-...` string, not a uuid).
type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type OccurredSince struct {
	Since time.Time
}

func (s OccurredSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("occurred_at >= ?", s.Since)
}
