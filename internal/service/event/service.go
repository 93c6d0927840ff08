package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bloodsight/bloodsight-api/internal/model"
	"github.com/bloodsight/bloodsight-api/internal/repository"
	"github.com/bloodsight/bloodsight-api/pkg/logger"
	"github.com/bloodsight/bloodsight-api/pkg/messaging"
)

const (
	maxRetries  = 3
	retryDelay  = 5 * time.Second
	eventExpiry = 24 * time.Hour
)

// EventService persists domain events to the outbox table and pushes
// them to the broker. The worker drains whatever the inline publish
// attempt could not deliver.
type EventService struct {
	outboxRepo repository.OutboxRepository
	broker     messaging.Broker
	logger     *logger.Logger
}

func NewEventService(outboxRepo repository.OutboxRepository, broker messaging.Broker, logger *logger.Logger) *EventService {
	return &EventService{
		outboxRepo: outboxRepo,
		broker:     broker,
		logger:     logger,
	}
}

func (s *EventService) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payloadJSON,
		Status:    string(model.OutboxStatusPending),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	// Try immediate delivery; the worker retries on failure.
	go func() {
		if err := s.processEvent(context.Background(), event); err != nil {
			s.logger.Error(err, "inline event delivery failed", "event_type", eventType)
		}
	}()

	return nil
}

func (s *EventService) ProcessPendingEvents(ctx context.Context) error {
	events, err := s.outboxRepo.GetPendingEventsWithLock(ctx, 100)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, event := range events {
		if err := s.processEvent(ctx, event); err != nil {
			s.handleProcessingError(ctx, event, err)
		}
	}

	return nil
}

func (s *EventService) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	tx, err := s.outboxRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.broker.Publish(ctx, event.EventType, event.Payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	now := time.Now()
	if err := s.outboxRepo.UpdateStatusTx(ctx, tx, event.ID, string(model.OutboxStatusProcessed), nil, &now); err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *EventService) handleProcessingError(ctx context.Context, event *model.OutboxEvent, err error) {
	event.RetryCount++
	errMsg := err.Error()
	retryAt := time.Now().Add(retryDelay * time.Duration(event.RetryCount))

	if event.RetryCount >= maxRetries {
		s.logger.Error(err, "event exhausted retries", "event_id", event.ID.String(), "event_type", event.EventType)
	}

	if updateErr := s.outboxRepo.UpdateStatusTx(ctx, nil, event.ID, string(model.OutboxStatusFailed), &errMsg, &retryAt); updateErr != nil {
		s.logger.Error(updateErr, "failed to schedule event retry", "event_id", event.ID.String())
	}
}

func (s *EventService) CleanupProcessedEvents(ctx context.Context) error {
	cutoff := time.Now().Add(-eventExpiry)
	count, err := s.outboxRepo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup events: %w", err)
	}

	s.logger.Info("cleaned up processed events", "deleted", count)
	return nil
}
