package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type EventHandler func(ctx context.Context, event events.Event) error

type Subscriber struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	cc     jetstream.ConsumeContext
	logger logger.ILogger
}

func NewSubscriber(url string, log logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js, logger: log}, nil
}

// Subscribe consumes subject from the EVENTS stream. An empty durableName creates
// an ephemeral consumer that only sees new messages.
func (s *Subscriber) Subscribe(ctx context.Context, subject, durableName string, handler EventHandler) error {
	cfg := jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if durableName == "" {
		cfg.DeliverPolicy = jetstream.DeliverNewPolicy
	}

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, cfg)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var payload map[string]interface{}
		if err := json.Unmarshal(msg.Data(), &payload); err != nil {
			s.logger.Error("NatsSubscriber", "Invalid event payload", map[string]interface{}{"subject": msg.Subject(), "error": err})
			_ = msg.Term()
			return
		}

		occurredAt := time.Now()
		if meta, err := msg.Metadata(); err == nil {
			occurredAt = meta.Timestamp
		}

		event := events.BaseEvent{
			Type:       strings.TrimPrefix(msg.Subject(), SubjectPrefix),
			Data:       payload,
			OccurredAt: occurredAt,
		}

		if err := handler(ctx, event); err != nil {
			s.logger.Error("NatsSubscriber", "Handler failed", map[string]interface{}{"subject": msg.Subject(), "error": err})
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.cc = cc

	s.logger.Info("NatsSubscriber", "Subscribed", map[string]interface{}{"subject": subject, "durable": durableName})
	return nil
}

func (s *Subscriber) Close() {
	if s.cc != nil {
		s.cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
