package storage

import (
	"context"
	"errors"
	"time"

	"glassfactory-chat/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"
)

type clientStorageEntry struct {
	Key       string    `gorm:"type:text;primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (clientStorageEntry) TableName() string {
	return "client_storage"
}

// GormStore keeps client storage in a postgres table so several machines can share history.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := database.Migrate(db, &clientStorageEntry{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func NewGormStoreFromDSN(dsn string) (*GormStore, error) {
	db, err := database.NewGormDBFromDSN(dsn, gormLogger.Silent)
	if err != nil {
		return nil, err
	}
	return NewGormStore(db)
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var e clientStorageEntry
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return e.Value, true, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	e := clientStorageEntry{Key: key, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&clientStorageEntry{}).Error
}
