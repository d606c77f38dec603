package service

import (
	"context"
	"errors"

	"glassfactory-chat/internal/dto"
	"glassfactory-chat/internal/mapper"
	"glassfactory-chat/internal/repository/contract"
	"glassfactory-chat/internal/repository/specification"
)

var ErrArchiveDisabled = errors.New("turn archive is not configured")

const maxTurnsPerPage = 100

type ITurnService interface {
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]*dto.ChatTurnResponse, error)
}

type turnService struct {
	repo   contract.ChatTurnRepository
	mapper *mapper.ChatTurnMapper
}

// NewTurnService reads the archive. repo may be nil when no database is configured.
func NewTurnService(repo contract.ChatTurnRepository) ITurnService {
	return &turnService{repo: repo, mapper: mapper.NewChatTurnMapper()}
}

func (s *turnService) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]*dto.ChatTurnResponse, error) {
	if s.repo == nil {
		return nil, ErrArchiveDisabled
	}
	if limit <= 0 || limit > maxTurnsPerPage {
		limit = maxTurnsPerPage
	}
	if offset < 0 {
		offset = 0
	}

	turns, err := s.repo.FindAll(ctx,
		specification.BySessionID{SessionID: sessionID},
		specification.OrderBy{Field: "occurred_at"},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatTurnResponse, 0, len(turns))
	for _, t := range turns {
		res = append(res, s.mapper.ToResponse(t))
	}
	return res, nil
}
