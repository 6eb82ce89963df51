package eventing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"household-registry/internal/eventing"
	"household-registry/internal/eventing/eventbus"
	"household-registry/internal/eventing/infrastructure/memory"
	"household-registry/internal/registry/application/events"
)

func newPipeline(t *testing.T) (*eventing.Publisher, *eventbus.InMemoryBus, *memory.OutboxStore, *memory.ProcessedStore) {
	t.Helper()
	bus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(events.HouseholdChanged{})
	registry.Register(events.CitizenChanged{})
	outbox := memory.NewOutboxStore()
	dispatcher := eventing.NewDispatcher(bus, outbox, registry, nil)
	publisher := eventing.NewPublisher(outbox, dispatcher, bus)
	return publisher, bus, outbox, memory.NewProcessedStore()
}

func TestPublishDeliversSynchronously(t *testing.T) {
	publisher, bus, outbox, _ := newPipeline(t)

	var mu sync.Mutex
	var received []events.HouseholdChanged
	bus.Subscribe(eventbus.EventTypeOf[events.HouseholdChanged](), func(_ context.Context, event any) error {
		evt, ok := event.(events.HouseholdChanged)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		mu.Lock()
		received = append(received, evt)
		mu.Unlock()
		return nil
	})

	ctx := eventing.WithHouseholdID(eventing.WithEventID(context.Background(), eventing.NewEventID()), "hh-1")
	err := publisher.Publish(ctx, events.HouseholdChanged{
		EventID: "evt-1", HouseholdID: "hh-1", Operation: events.OpCreate, OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(received) != 1 || received[0].HouseholdID != "hh-1" {
		t.Fatalf("expected synchronous delivery, got %v", received)
	}
	counts := outbox.StatusCounts()
	if counts["sent"] != 1 || counts["pending"] != 0 {
		t.Fatalf("unexpected outbox state %v", counts)
	}
}

func TestDispatchPreservesCommitOrder(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(events.CitizenChanged{})
	outbox := memory.NewOutboxStore()
	dispatcher := eventing.NewDispatcher(bus, outbox, registry, nil)

	var order []string
	bus.Subscribe(eventbus.EventTypeOf[events.CitizenChanged](), func(_ context.Context, event any) error {
		evt := event.(events.CitizenChanged)
		order = append(order, evt.CitizenID)
		return nil
	})

	base := time.Now().UTC()
	for i, id := range []string{"ctz-1", "ctz-2", "ctz-3"} {
		ctx := eventing.WithHouseholdID(eventing.WithEventID(context.Background(), eventing.NewEventID()), "hh-1")
		meta := eventing.MetaFromContext(ctx)
		env, err := eventing.BuildEnvelope(events.CitizenChanged{
			EventID: meta.EventID, CitizenID: id, HouseholdID: "hh-1",
			Operation: events.OpUpdate, OccurredAt: base.Add(time.Duration(i) * time.Millisecond),
		}, meta)
		if err != nil {
			t.Fatalf("build envelope: %v", err)
		}
		if _, err := outbox.Insert(context.Background(), env); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if err := dispatcher.Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(order) != 3 || order[0] != "ctz-1" || order[1] != "ctz-2" || order[2] != "ctz-3" {
		t.Fatalf("expected commit order preserved, got %v", order)
	}
}

func TestIdempotentConsumerSkipsDuplicates(t *testing.T) {
	publisher, bus, _, processed := newPipeline(t)

	calls := 0
	eventing.Subscribe(bus, eventbus.EventTypeOf[events.HouseholdChanged](), "fees.household", func(_ context.Context, _ any) error {
		calls++
		return nil
	}, processed)

	eventID := eventing.NewEventID()
	ctx := eventing.WithHouseholdID(eventing.WithEventID(context.Background(), eventID), "hh-1")
	event := events.HouseholdChanged{EventID: eventID, HouseholdID: "hh-1", Operation: events.OpUpdate, OccurredAt: time.Now().UTC()}

	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// Redelivery of the same event id must be a no-op.
	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("republish: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected one handler invocation, got %d", calls)
	}
}

func TestHandlerFailureDoesNotBlockLaterEvents(t *testing.T) {
	publisher, bus, outbox, _ := newPipeline(t)

	bus.Subscribe(eventbus.EventTypeOf[events.HouseholdChanged](), func(_ context.Context, event any) error {
		evt := event.(events.HouseholdChanged)
		if evt.HouseholdID == "hh-bad" {
			return errors.New("recalculation failed")
		}
		return nil
	})

	ctx := eventing.WithHouseholdID(eventing.WithEventID(context.Background(), eventing.NewEventID()), "hh-bad")
	if err := publisher.Publish(ctx, events.HouseholdChanged{
		EventID: "evt-bad", HouseholdID: "hh-bad", Operation: events.OpUpdate, OccurredAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ctx = eventing.WithHouseholdID(eventing.WithEventID(context.Background(), eventing.NewEventID()), "hh-good")
	if err := publisher.Publish(ctx, events.HouseholdChanged{
		EventID: "evt-good", HouseholdID: "hh-good", Operation: events.OpUpdate, OccurredAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	counts := outbox.StatusCounts()
	if counts["failed"] != 1 || counts["sent"] != 1 {
		t.Fatalf("unexpected outbox state %v", counts)
	}
}
