package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodia/contexts/asset-core/token-ledger/adapters/memory"
	"custodia/contexts/asset-core/token-ledger/application/workers"
	"custodia/contexts/asset-core/token-ledger/ports"
)

type capturedEvent struct {
	Topic    string
	Envelope ports.EventEnvelope
}

type fakePublisher struct {
	published []capturedEvent
	failWith  error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.published = append(p.published, capturedEvent{Topic: topic, Envelope: event})
	return nil
}

func seedOutbox(t *testing.T, store *memory.Store, ids ...string) {
	t.Helper()
	events := make([]ports.EventEnvelope, 0, len(ids))
	for i, id := range ids {
		events = append(events, ports.EventEnvelope{
			EventID:          id,
			EventType:        "ledger.minted",
			OccurredAt:       time.Now().Add(time.Duration(i) * time.Millisecond),
			SourceService:    "token-ledger",
			TraceID:          id,
			SchemaVersion:    1,
			PartitionKeyPath: "account",
			PartitionKey:     "0x0000000000000000000000000000000000000001",
			Data:             []byte(`{"account":"0x0000000000000000000000000000000000000001","amount":"1"}`),
		})
	}
	if err := store.Apply(context.Background(), ports.ChangeSet{Events: events}); err != nil {
		t.Fatalf("seed outbox: %v", err)
	}
}

func TestOutboxRelayPublishesAndMarksSent(t *testing.T) {
	store := memory.NewStore()
	publisher := &fakePublisher{}
	seedOutbox(t, store, "evt-1", "evt-2")

	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		Topic:     "ledger.events",
		BatchSize: 10,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.published))
	}
	for _, event := range publisher.published {
		if event.Topic != "ledger.events" {
			t.Fatalf("unexpected topic %s", event.Topic)
		}
		if event.Envelope.EventType != "ledger.minted" {
			t.Fatalf("unexpected event type %s", event.Envelope.EventType)
		}
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("published rows must leave the pending set, got %d", len(pending))
	}
}

func TestOutboxRelayStopsOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	bang := errors.New("broker unavailable")
	publisher := &fakePublisher{failWith: bang}
	seedOutbox(t, store, "evt-1")

	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
	}
	if err := relay.RunOnce(context.Background()); !errors.Is(err, bang) {
		t.Fatalf("expected publish error, got %v", err)
	}

	// An unpublished row stays pending for the next cycle.
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed publish must keep the row pending, got %d", len(pending))
	}
}

func TestOutboxRelayEmptyCycle(t *testing.T) {
	store := memory.NewStore()
	publisher := &fakePublisher{}

	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("empty cycle should succeed: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("nothing should be published")
	}
}
