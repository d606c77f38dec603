package implementation

import (
	"context"

	"glassfactory-chat/internal/entity"
	"glassfactory-chat/internal/mapper"
	"glassfactory-chat/internal/model"
	"glassfactory-chat/internal/repository/contract"
	"glassfactory-chat/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatTurnRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatTurnMapper
}

func NewChatTurnRepository(db *gorm.DB) contract.ChatTurnRepository {
	return &ChatTurnRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatTurnMapper(),
	}
}

func (r *ChatTurnRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatTurnRepositoryImpl) Create(ctx context.Context, turn *entity.ChatTurn) error {
	m := r.mapper.ToModel(turn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*turn = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChatTurnRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error) {
	var models []*model.ChatTurn
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ChatTurnRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatTurn{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
