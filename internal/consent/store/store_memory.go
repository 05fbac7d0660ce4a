package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"physioflow/internal/consent/models"
)

// InMemoryStore keeps serialized consent records in memory for tests and
// single-node development. Payloads are stored as raw JSON so load-time
// corruption handling behaves exactly like the durable backends.
type InMemoryStore struct {
	opts options

	mu      sync.RWMutex
	records map[string][]byte
}

// NewInMemory constructs an empty in-memory consent store.
func NewInMemory(opts ...Option) *InMemoryStore {
	return &InMemoryStore{
		opts:    applyOptions(opts),
		records: make(map[string][]byte),
	}
}

func (s *InMemoryStore) Load(ctx context.Context, clientID string) (*models.Record, error) {
	s.mu.RLock()
	raw, ok := s.records[clientID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	record, err := models.DecodeRecord(raw)
	if err != nil {
		s.mu.Lock()
		delete(s.records, clientID)
		s.mu.Unlock()
		s.opts.recovered(ctx, clientID, err)
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *InMemoryStore) Save(_ context.Context, clientID string, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("consent record is required")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode consent record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[clientID] = raw
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, clientID)
	return nil
}

// SeedRaw plants an arbitrary payload for a client. Test seam for exercising
// the corrupt-storage recovery path.
func (s *InMemoryStore) SeedRaw(clientID string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[clientID] = append([]byte(nil), raw...)
}

// Len reports the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
