package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/records"
)

// Publisher announces committed record changes.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error
}

// RecordService orchestrates record mutations across the store and the
// event publisher. The store is the source of truth; events are best effort.
type RecordService struct {
	store     records.Store
	publisher Publisher
	newID     func() string
}

// NewRecordService wires store and publisher. publisher may be nil.
func NewRecordService(store records.Store, publisher Publisher) *RecordService {
	return &RecordService{
		store:     store,
		publisher: publisher,
		newID:     uuid.NewString,
	}
}

func (s *RecordService) List(ctx context.Context) ([]core.Record, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return list, nil
}

// Create validates and expands d, then inserts the rows in one call.
// Validation failures never reach the store.
func (s *RecordService) Create(ctx context.Context, d core.Delivery) ([]core.Record, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	rows := d.Expand(s.newID)
	if err := s.Insert(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert stores rows as they are, e.g. generated seed data.
func (s *RecordService) Insert(ctx context.Context, rows []core.Record) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.store.Insert(ctx, rows); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	for _, r := range rows {
		s.publish(ctx, amqp.NewInsertedEvent(r))
	}
	return nil
}

// Update validates d and replaces the editable fields of current in the
// store. It returns current with d applied.
func (s *RecordService) Update(ctx context.Context, current core.Record, d core.Draft) (core.Record, error) {
	if err := d.Validate(); err != nil {
		return current, err
	}
	if err := s.store.Update(ctx, current.ID, d); err != nil {
		return current, fmt.Errorf("update record %s: %w", current.ID, err)
	}
	updated := d.ApplyTo(current)
	s.publish(ctx, amqp.NewUpdatedEvent(updated))
	return updated, nil
}

func (s *RecordService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	s.publish(ctx, amqp.NewDeletedEvent(id))
	return nil
}

func (s *RecordService) publish(ctx context.Context, ev *amqp.RecordEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record event",
			"op", ev.Op, "id", ev.ID, "error", err)
	}
}

// IsValidation reports whether err is an input problem rather than a store
// failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		core.ErrCompanyRequired,
		core.ErrNoQuantity,
		core.ErrNegativeAmount,
		core.ErrNegativeQuantity,
		core.ErrInvalidPaymentType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
