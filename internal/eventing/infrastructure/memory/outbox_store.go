package memory

import (
	"context"
	"errors"
	"sync"

	"household-registry/internal/eventing"
)

// OutboxStore is an in-memory outbox used by unit tests and single-node runs.
type OutboxStore struct {
	mu      sync.Mutex
	seq     int
	records []record
}

type record struct {
	id       string
	env      eventing.Envelope
	status   string
	attempts int
}

// NewOutboxStore constructs an in-memory outbox store.
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{}
}

// Insert appends an envelope as pending.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	_ = ctx
	if s == nil {
		return "", errors.New("outbox store: nil store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := eventing.NewEventID()
	s.records = append(s.records, record{id: id, env: env, status: "pending"})
	return id, nil
}

// ListPending returns pending records in insertion order.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	_ = ctx
	if s == nil {
		return nil, errors.New("outbox store: nil store")
	}
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []eventing.OutboxRecord
	for _, rec := range s.records {
		if rec.status != "pending" {
			continue
		}
		result = append(result, eventing.OutboxRecord{ID: rec.id, Envelope: rec.env})
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// MarkSent marks a record as sent.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, "sent")
}

// MarkFailed marks a record as failed.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, "failed")
}

func (s *OutboxStore) setStatus(_ context.Context, id, status string) error {
	if s == nil {
		return errors.New("outbox store: nil store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].id == id {
			s.records[i].status = status
			s.records[i].attempts++
			return nil
		}
	}
	return errors.New("outbox store: unknown record")
}

// StatusCounts reports record counts per status for assertions.
func (s *OutboxStore) StatusCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, rec := range s.records {
		counts[rec.status]++
	}
	return counts
}

// ProcessedStore is an in-memory idempotency store.
type ProcessedStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewProcessedStore constructs an in-memory processed store.
func NewProcessedStore() *ProcessedStore {
	return &ProcessedStore{seen: make(map[string]struct{})}
}

// HasProcessed reports whether the consumer already handled the event.
func (s *ProcessedStore) HasProcessed(_ context.Context, eventID, consumerName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[eventID+"|"+consumerName]
	return ok, nil
}

// MarkProcessed records the event as handled by the consumer.
func (s *ProcessedStore) MarkProcessed(_ context.Context, eventID, consumerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[eventID+"|"+consumerName] = struct{}{}
	return nil
}
