package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"accueil/internal/registration/models"
)

type storedRecord struct {
	record models.Record
	seq    uint64
}

// InMemory keeps records in a map guarded by a RWMutex.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]storedRecord
	seq     uint64
	now     func() time.Time
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemory) {
		s.now = now
	}
}

// NewInMemory creates an empty in-memory record store.
func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		records: make(map[string]storedRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) Create(_ context.Context, rec models.Record) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC()
	s.seq++
	s.records[rec.ID] = storedRecord{record: rec, seq: s.seq}
	out := rec
	return &out, nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}
	out := stored.record
	return &out, nil
}

func (s *InMemory) Update(_ context.Context, id string, rec models.Record) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}
	stored.record = stored.record.WithMutableFrom(rec)
	s.records[id] = stored
	out := stored.record
	return &out, nil
}

func (s *InMemory) ListRecent(_ context.Context, limit int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(time.Time{}, limit), nil
}

func (s *InMemory) ListSince(_ context.Context, since time.Time, limit int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(since, limit), nil
}

// newestFirst must be called with the read lock held.
func (s *InMemory) newestFirst(since time.Time, limit int) []*models.Record {
	all := make([]storedRecord, 0, len(s.records))
	for _, stored := range s.records {
		if !since.IsZero() && stored.record.CreatedAt.Before(since) {
			continue
		}
		all = append(all, stored)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.record.CreatedAt.Equal(b.record.CreatedAt) {
			return a.record.CreatedAt.After(b.record.CreatedAt)
		}
		return a.seq > b.seq
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]*models.Record, 0, len(all))
	for _, stored := range all {
		rec := stored.record
		out = append(out, &rec)
	}
	return out
}
