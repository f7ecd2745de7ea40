package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"tally/internal/core"
	"tally/internal/records"
)

// Op names the change a RecordEvent carries.
type Op string

const (
	OpInserted Op = "inserted"
	OpUpdated  Op = "updated"
	OpDeleted  Op = "deleted"
)

// RecordEvent announces a committed change to the sales_records table.
// Record holds the row in its snake_case wire form and is empty for deletes.
type RecordEvent struct {
	Op        Op             `json:"op"`
	ID        string         `json:"id"`
	Record    map[string]any `json:"record,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewInsertedEvent(r core.Record) *RecordEvent {
	return &RecordEvent{Op: OpInserted, ID: r.ID, Record: records.Encode(r), Timestamp: time.Now()}
}

func NewUpdatedEvent(r core.Record) *RecordEvent {
	return &RecordEvent{Op: OpUpdated, ID: r.ID, Record: records.Encode(r), Timestamp: time.Now()}
}

func NewDeletedEvent(id string) *RecordEvent {
	return &RecordEvent{Op: OpDeleted, ID: id, Timestamp: time.Now()}
}

// Row decodes the carried record. The event id wins over a missing row id.
func (e *RecordEvent) Row() core.Record {
	r := records.Decode(e.Record)
	if r.ID == "" {
		r.ID = e.ID
	}
	return r
}

func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var ev RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Op {
	case OpInserted, OpUpdated, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown op %q", ev.Op)
	}
	if ev.ID == "" {
		return nil, fmt.Errorf("event without id")
	}
	return &ev, nil
}
