package worker

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/records/memory"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: &bytes.Buffer{}})
}

func record(id, company string, amount int64) core.Record {
	return core.Record{
		ID:                id,
		SaleDate:          time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		CompanyName:       company,
		AggregateType:     core.TypeS1,
		AggregateQuantity: decimal.NewFromInt(1),
		Amount:            decimal.NewFromInt(amount),
		PaymentType:       core.Cash,
	}
}

type failingMirror struct{ *memory.Store }

func (failingMirror) Upsert(context.Context, core.Record) error { return errors.New("quota exceeded") }

func TestMirrorWorker_HandleRecordEvent(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewMirrorWorker(mirror, quietLogger())

	require.NoError(t, w.HandleRecordEvent(ctx, amqp.NewInsertedEvent(record("r1", "FOUR N", 1400))))
	// Redelivery of the same insert does not duplicate the row.
	require.NoError(t, w.HandleRecordEvent(ctx, amqp.NewInsertedEvent(record("r1", "FOUR N", 1400))))

	require.NoError(t, w.HandleRecordEvent(ctx, amqp.NewUpdatedEvent(record("r1", "FOUR N TRADING", 1500))))
	list, _ := mirror.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "FOUR N TRADING", list[0].CompanyName)
	assert.True(t, list[0].Amount.Equal(decimal.NewFromInt(1500)))

	// An update for a row the mirror missed is added.
	require.NoError(t, w.HandleRecordEvent(ctx, amqp.NewUpdatedEvent(record("r2", "RA ROQUE", 700))))
	list, _ = mirror.List(ctx)
	assert.Len(t, list, 2)

	require.NoError(t, w.HandleRecordEvent(ctx, amqp.NewDeletedEvent("r1")))
	require.NoError(t, w.HandleRecordEvent(ctx, amqp.NewDeletedEvent("r1")), "deleting twice is harmless")
	list, _ = mirror.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "r2", list[0].ID)
}

func TestMirrorWorker_Errors(t *testing.T) {
	ctx := context.Background()
	w := NewMirrorWorker(failingMirror{memory.New()}, quietLogger())

	err := w.HandleRecordEvent(ctx, amqp.NewInsertedEvent(record("r1", "FOUR N", 1400)))
	assert.ErrorContains(t, err, "quota exceeded")

	err = w.HandleRecordEvent(ctx, &amqp.RecordEvent{Op: amqp.OpInserted, ID: "r1"})
	assert.ErrorContains(t, err, "has no record")

	err = w.HandleRecordEvent(ctx, &amqp.RecordEvent{Op: "renamed", ID: "r1"})
	assert.Error(t, err)
}

func TestMirrorWorker_Backfill(t *testing.T) {
	ctx := context.Background()
	source := memory.New(record("a", "FOUR N", 100), record("b", "RA ROQUE", 200))
	mirror := memory.New(record("b", "RA ROQUE", 200), record("stale", "OLD CO", 50))

	w := NewMirrorWorker(mirror, quietLogger())
	require.NoError(t, w.Backfill(ctx, source))

	list, _ := mirror.List(ctx)
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestMirrorWorker_BackfillReportsFailures(t *testing.T) {
	w := NewMirrorWorker(failingMirror{memory.New()}, quietLogger())
	err := w.Backfill(context.Background(), memory.New(record("a", "FOUR N", 100)))
	assert.ErrorContains(t, err, "1 rows failed")
}

type countingMirror struct {
	*memory.Store
	upserted []string
}

func (m *countingMirror) Upsert(ctx context.Context, r core.Record) error {
	m.upserted = append(m.upserted, r.ID)
	return m.Store.Upsert(ctx, r)
}

func TestMirrorWorker_BackfillRepairsChangedRows(t *testing.T) {
	ctx := context.Background()
	source := memory.New(record("r1", "NEW NAME", 150), record("r2", "RA ROQUE", 200))
	mirror := &countingMirror{Store: memory.New(record("r1", "OLD NAME", 100), record("r2", "RA ROQUE", 200))}

	w := NewMirrorWorker(mirror, quietLogger())
	require.NoError(t, w.Backfill(ctx, source))

	assert.Equal(t, []string{"r1"}, mirror.upserted, "unchanged rows are left alone")
	list, _ := mirror.List(ctx)
	for _, r := range list {
		if r.ID == "r1" {
			assert.Equal(t, "NEW NAME", r.CompanyName)
			assert.True(t, r.Amount.Equal(decimal.NewFromInt(150)), "amount %s", r.Amount)
		}
	}
}
