package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
)

type recordingPublisher struct {
	topic string
	msgs  []domain.Message
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, msgs ...domain.Message) error {
	r.topic = topic
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func TestEventPublisher_KeysByIB(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewEventPublisher(rec, "ib-events", "withdrawal-events")

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := p.PublishWithdrawalEvent(context.Background(), domain.WithdrawalEvent{
		WithdrawalID: "w-1",
		IBID:         "ib-7",
		Status:       "APPROVED",
		Amount:       "300",
		OccurredAt:   at,
	})
	if err != nil {
		t.Fatalf("PublishWithdrawalEvent: %v", err)
	}

	if rec.topic != "withdrawal-events" {
		t.Errorf("topic = %q, want withdrawal-events", rec.topic)
	}
	if len(rec.msgs) != 1 || string(rec.msgs[0].Key) != "ib-7" {
		t.Fatalf("unexpected messages: %+v", rec.msgs)
	}

	var got domain.WithdrawalEvent
	if err := json.Unmarshal(rec.msgs[0].Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.WithdrawalID != "w-1" || got.Amount != "300" || !got.OccurredAt.Equal(at) {
		t.Errorf("payload = %+v", got)
	}
}

func TestEventPublisher_IBRequestTopic(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewEventPublisher(rec, "ib-events", "withdrawal-events")

	if err := p.PublishIBRequestEvent(context.Background(), domain.IBRequestEvent{IBID: "ib-1", Action: "approved"}); err != nil {
		t.Fatalf("PublishIBRequestEvent: %v", err)
	}
	if rec.topic != "ib-events" {
		t.Errorf("topic = %q, want ib-events", rec.topic)
	}
}
