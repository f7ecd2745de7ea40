// Package worker keeps the Google Sheets mirror in step with the record
// store by applying change events from AMQP.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/records"
)

// Mirror is the copy of the records kept for people who read the sheet.
type Mirror interface {
	records.Lister
	Upsert(ctx context.Context, r core.Record) error
	Delete(ctx context.Context, id string) error
}

// MirrorWorker applies record events to a Mirror.
type MirrorWorker struct {
	mirror Mirror
	logger *log.Logger
}

func NewMirrorWorker(mirror Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &MirrorWorker{mirror: mirror, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleRecordEvent applies one event. Inserted and updated events carry
// the full row and are upserted, so redelivery is harmless. Deleting a row
// the mirror never had succeeds.
func (w *MirrorWorker) HandleRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	fields := log.NewFields().WithRecordID(ev.ID).WithOperation(string(ev.Op))
	w.logger.LogFields(ctx, slog.LevelDebug, "Processing record event", fields)

	switch ev.Op {
	case amqp.OpInserted, amqp.OpUpdated:
		if len(ev.Record) == 0 {
			return fmt.Errorf("%s event %s has no record", ev.Op, ev.ID)
		}
		if err := w.mirror.Upsert(ctx, ev.Row()); err != nil {
			return fmt.Errorf("mirror upsert %s: %w", ev.ID, err)
		}
	case amqp.OpDeleted:
		err := w.mirror.Delete(ctx, ev.ID)
		if errors.Is(err, records.ErrNotFound) {
			w.logger.WarnContext(ctx, "Deleted record was not mirrored", log.FieldRecordID, ev.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("mirror delete %s: %w", ev.ID, err)
		}
	default:
		return fmt.Errorf("unknown op %q", ev.Op)
	}

	w.logger.LogFields(ctx, slog.LevelInfo, "Mirrored record event", fields)
	return nil
}

// Backfill makes the mirror match source: rows missing from the mirror or
// differing from their source row are upserted, and mirror rows unknown to
// source are removed. It recovers from
// events lost while the worker was down.
func (w *MirrorWorker) Backfill(ctx context.Context, source records.Lister) error {
	want, err := source.List(ctx)
	if err != nil {
		return fmt.Errorf("list source records: %w", err)
	}
	have, err := w.mirror.List(ctx)
	if err != nil {
		return fmt.Errorf("list mirrored records: %w", err)
	}

	mirrored := make(map[string]map[string]any, len(have))
	for _, r := range have {
		mirrored[r.ID] = records.Encode(r)
	}
	wanted := make(map[string]bool, len(want))

	added, changed, removed, failed := 0, 0, 0, 0
	for _, r := range want {
		wanted[r.ID] = true
		row, ok := mirrored[r.ID]
		if ok && maps.Equal(row, records.Encode(r)) {
			continue
		}
		if err := w.mirror.Upsert(ctx, r); err != nil {
			w.logger.ErrorContext(ctx, "Failed to backfill record", log.FieldRecordID, r.ID, log.FieldError, err)
			failed++
			continue
		}
		if ok {
			changed++
		} else {
			added++
		}
	}
	for _, r := range have {
		if wanted[r.ID] || r.ID == "" {
			continue
		}
		if err := w.mirror.Delete(ctx, r.ID); err != nil && !errors.Is(err, records.ErrNotFound) {
			w.logger.ErrorContext(ctx, "Failed to remove stale mirror row", log.FieldRecordID, r.ID, log.FieldError, err)
			failed++
			continue
		}
		removed++
	}

	w.logger.InfoContext(ctx, "Backfill completed",
		"source", len(want), "added", added, "changed", changed, "removed", removed, "errors", failed)
	if failed > 0 {
		return fmt.Errorf("backfill: %d rows failed", failed)
	}
	return nil
}
