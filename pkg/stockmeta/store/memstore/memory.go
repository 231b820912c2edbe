package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/stockmeta/pkg/stockmeta/internalerr"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
)

// Store is an in-memory implementation of store.Store for tests and
// runs without a database.
type Store struct {
	mu      sync.RWMutex
	records map[string]store.Record
	order   []string // insertion order of record IDs
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{records: make(map[string]store.Record)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRecord inserts or replaces a record by ID.
func (s *Store) SaveRecord(ctx context.Context, r store.Record) error {
	if r.ID == "" || r.BatchID == "" {
		return fmt.Errorf("%w: record needs an ID and a batch ID", internalerr.ErrInvalidInput)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.records[r.ID] = copyRecord(r)
	return nil
}

// GetRecord returns a record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (store.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return store.Record{}, false, nil
	}
	return copyRecord(r), true, nil
}

// ListBatch returns a batch's records in insertion order.
func (s *Store) ListBatch(ctx context.Context, batchID string) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Record
	for _, id := range s.order {
		if r := s.records[id]; r.BatchID == batchID {
			out = append(out, copyRecord(r))
		}
	}
	return out, nil
}

// ListBatches summarizes batches, most recent first.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]store.BatchSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	byBatch := make(map[string]*store.BatchSummary)
	for _, id := range s.order {
		r := s.records[id]
		b, ok := byBatch[r.BatchID]
		if !ok {
			b = &store.BatchSummary{BatchID: r.BatchID, CreatedAt: r.CreatedAt}
			byBatch[r.BatchID] = b
		}
		b.Total++
		switch r.Status {
		case store.StatusCompleted:
			b.Completed++
		case store.StatusError:
			b.Failed++
		}
		if r.CreatedAt.Before(b.CreatedAt) {
			b.CreatedAt = r.CreatedAt
		}
	}
	s.mu.RUnlock()

	out := make([]store.BatchSummary, 0, len(byBatch))
	for _, b := range byBatch {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].BatchID > out[j].BatchID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyRecord(r store.Record) store.Record {
	if r.Keywords != nil {
		r.Keywords = append([]string(nil), r.Keywords...)
	}
	return r
}
