package contract

import (
	"context"

	"glassfactory-chat/internal/entity"
	"glassfactory-chat/internal/repository/specification"
)

type ChatTurnRepository interface {
	Create(ctx context.Context, turn *entity.ChatTurn) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
