package service

import (
	"context"
	"encoding/json"

	"glassfactory-chat/internal/dto"
	"glassfactory-chat/internal/mapper"
	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/internal/repository/contract"
	"glassfactory-chat/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerLogModule = "ConsumerService"

// EventRelay forwards events off the process, e.g. to NATS.
type EventRelay interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	turnRepo   contract.ChatTurnRepository
	relay      EventRelay
	mapper     *mapper.ChatTurnMapper
	logger     logger.ILogger
}

// NewConsumerService archives and relays completed turns. turnRepo and relay
// are both optional; pass nil to skip a sink.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	turnRepo contract.ChatTurnRepository,
	relay EventRelay,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		turnRepo:   turnRepo,
		relay:      relay,
		mapper:     mapper.NewChatTurnMapper(),
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: sink failures are logged and the turn is not retried.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.TurnCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerLogModule, "Failed to unmarshal turn", map[string]interface{}{"message_id": msg.UUID, "error": err})
		return
	}

	turn := cs.mapper.FromMessage(&payload)

	if cs.turnRepo != nil {
		if err := cs.turnRepo.Create(ctx, turn); err != nil {
			cs.logger.Error(consumerLogModule, "Failed to archive turn", map[string]interface{}{
				"turn_id":    turn.Id.String(),
				"session_id": turn.SessionId,
				"error":      err,
			})
		}
	}

	if cs.relay != nil {
		event := events.ChatTurn{
			TurnID:          turn.Id.String(),
			SessionID:       turn.SessionId,
			ChatInput:       turn.ChatInput,
			Response:        turn.Response,
			HadImage:        turn.HadImage,
			ImageProcessed:  turn.ImageProcessed,
			IsNewSession:    turn.IsNewSession,
			IsAuthenticated: turn.UserProfile.IsAuthenticated,
			DroppedLines:    turn.DroppedLines,
			OccurredAt:      turn.OccurredAt,
		}
		if err := cs.relay.Publish(ctx, event); err != nil {
			cs.logger.Warn(consumerLogModule, "Failed to relay turn", map[string]interface{}{
				"turn_id": turn.Id.String(),
				"error":   err.Error(),
			})
		}
	}

	cs.logger.Debug(consumerLogModule, "Turn processed", map[string]interface{}{"turn_id": turn.Id.String(), "session_id": turn.SessionId})
}
