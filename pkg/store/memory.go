package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore holds snapshots in memory.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	now       func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]*Snapshot), now: time.Now}
}

func (m *MemoryStore) Put(_ context.Context, s *Snapshot) error {
	if err := validate(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Snapshot, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[id]
	if !ok {
		return nil, notFound(id)
	}
	if s.Expired(m.now()) {
		delete(m.snapshots, id)
		return nil, notFound(id)
	}
	return s, nil
}

func (m *MemoryStore) List(_ context.Context) ([]*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	out := make([]*Snapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		if !s.Expired(now) {
			out = append(out, s.summary())
		}
	}
	sortNewest(out)
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, id)
	return nil
}

func (m *MemoryStore) Cleanup(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, s := range m.snapshots {
		if s.Expired(now) {
			delete(m.snapshots, id)
		}
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func sortNewest(s []*Snapshot) {
	slices.SortFunc(s, func(a, b *Snapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

var _ Store = (*MemoryStore)(nil)
