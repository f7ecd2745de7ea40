package amqp

import (
	"context"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
)

// ackRecorder stands in for the broker channel behind a delivery.
type ackRecorder struct {
	acks     int
	requeued int
	dropped  int
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acks++; return nil }

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	if requeue {
		a.requeued++
	} else {
		a.dropped++
	}
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error { return a.Nack(0, false, requeue) }

func TestDispatch(t *testing.T) {
	deleted, _ := NewDeletedEvent("r1").ToJSON()

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		wantCalls  int
		want       ackRecorder
	}{
		{"handled event is acked", deleted, nil, 1, ackRecorder{acks: 1}},
		{"handler failure is requeued", deleted, errors.New("sheets quota"), 1, ackRecorder{requeued: 1}},
		{"undecodable body is dropped", []byte(`{"op":`), nil, 0, ackRecorder{dropped: 1}},
		{"unknown op is dropped", []byte(`{"op":"archived","id":"r1"}`), nil, 0, ackRecorder{dropped: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acks := &ackRecorder{}
			calls := 0
			var got *RecordEvent
			dispatch(context.Background(), amqp091.Delivery{Acknowledger: acks, Body: tt.body},
				func(_ context.Context, ev *RecordEvent) error {
					calls++
					got = ev
					return tt.handlerErr
				})

			if calls != tt.wantCalls {
				t.Fatalf("handler calls = %d, want %d", calls, tt.wantCalls)
			}
			if *acks != tt.want {
				t.Errorf("acks = %+v, want %+v", *acks, tt.want)
			}
			if calls > 0 && (got.Op != OpDeleted || got.ID != "r1") {
				t.Errorf("event = %+v", got)
			}
		})
	}
}
