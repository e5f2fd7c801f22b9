package flow

import (
	"context"
	"sync"
	"time"

	"accueil/pkg/platform/sentinel"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// SessionStore persists flow sessions. Update is an atomic
// read-modify-write: fn sees the current snapshot and its changes are
// stored only if no other writer got in between. An error from fn aborts
// the write and is returned as is.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Snapshot, error)
	Put(ctx context.Context, snap *Snapshot) error
	Update(ctx context.Context, id string, fn func(*Snapshot) error) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = sentinel.ErrNotFound

type memoryEntry struct {
	snap    *Snapshot
	expires time.Time
}

// InMemorySessions keeps sessions in process memory.
type InMemorySessions struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type InMemoryOption func(*InMemorySessions)

func WithMemoryClock(now func() time.Time) InMemoryOption {
	return func(m *InMemorySessions) { m.now = now }
}

func NewInMemorySessions(ttl time.Duration, opts ...InMemoryOption) *InMemorySessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	m := &InMemorySessions{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *InMemorySessions) Get(_ context.Context, id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	return e.snap.clone(), nil
}

func (m *InMemorySessions) Put(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.sessions[snap.ID] = memoryEntry{snap: snap.clone(), expires: m.now().Add(m.ttl)}
	return nil
}

func (m *InMemorySessions) Update(_ context.Context, id string, fn func(*Snapshot) error) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	next := e.snap.clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	m.sessions[id] = memoryEntry{snap: next, expires: m.now().Add(m.ttl)}
	return next.clone(), nil
}

func (m *InMemorySessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(id); !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// live must be called with mu held.
func (m *InMemorySessions) live(id string) (memoryEntry, bool) {
	e, ok := m.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.now().Before(e.expires) {
		delete(m.sessions, id)
		return memoryEntry{}, false
	}
	return e, true
}

// sweep drops expired sessions. Called with mu held.
func (m *InMemorySessions) sweep() {
	now := m.now()
	for id, e := range m.sessions {
		if !now.Before(e.expires) {
			delete(m.sessions, id)
		}
	}
}
