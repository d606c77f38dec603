package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	Publish(ctx context.Context, payload any) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) Publish(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)

	if err := ps.publisher.Publish(ps.topicName, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", ps.topicName, err)
	}
	return nil
}
