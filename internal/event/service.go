package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
)

// Service consumes product events published by the outbox relay.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
}

// New creates a new event service.
func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
) *Service {
	return &Service{
		logger:     logger.With(slog.String("service", "event")),
		mqConsumer: mqConsumer,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	if err := s.RegisterHandlers(); err != nil {
		return nil, err
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	cleanup := func() {
		mqCleanup()
	}

	return cleanup, nil
}

func (s *Service) RegisterHandlers() error {
	handlers := map[string]mq.HandlerFunc{
		TopicProductCreated: handle(s.handleProductCreatedEvent),
		TopicProductUpdated: handle(s.handleProductUpdatedEvent),
		TopicProductDeleted: handle(s.handleProductDeletedEvent),
		TopicProductsPurged: handle(s.handleProductsPurgedEvent),
	}

	for topic, h := range handlers {
		if err := s.mqConsumer.RegisterHandler(topic, h); err != nil {
			return fmt.Errorf("register %s event handler: %w", topic, err)
		}
	}

	return nil
}

// handle decodes the payload into T before calling fn.
func handle[T any](fn func(ctx context.Context, ev T) error) mq.HandlerFunc {
	return func(ctx context.Context, topic string, payload []byte) error {
		var ev T
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s event: %w", topic, err)
		}

		if err := fn(ctx, ev); err != nil {
			return fmt.Errorf("handle %s event: %w", topic, err)
		}

		return nil
	}
}

func (s *Service) handleProductCreatedEvent(ctx context.Context, ev ProductCreatedEvent) error {
	s.logger.InfoContext(ctx, "handling product created event", slog.Any("event", ev))
	return nil
}

func (s *Service) handleProductUpdatedEvent(ctx context.Context, ev ProductUpdatedEvent) error {
	s.logger.InfoContext(ctx, "handling product updated event", slog.Any("event", ev))
	return nil
}

func (s *Service) handleProductDeletedEvent(ctx context.Context, ev ProductDeletedEvent) error {
	s.logger.InfoContext(ctx, "handling product deleted event", slog.Any("event", ev))
	return nil
}

func (s *Service) handleProductsPurgedEvent(ctx context.Context, ev ProductsPurgedEvent) error {
	s.logger.InfoContext(ctx, "handling products purged event", slog.Int64("deleted", ev.Deleted))
	return nil
}
