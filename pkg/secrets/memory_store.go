package secrets

import (
	"context"
	"sync"
	"time"

	iface "github.com/goliatone/go-signdesk/pkg/interfaces/secrets"
)

// MemoryStore is an in-memory implementation of the encrypted record Store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]iface.Record
}

var _ iface.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]iface.Record)}
}

func (m *MemoryStore) Put(_ context.Context, rec iface.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	k := recordKey(rec.Locator, rec.Version)
	if prev, ok := m.items[k]; ok {
		rec.CreatedAt = prev.CreatedAt
	} else if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	m.items[k] = rec
	return nil
}

func (m *MemoryStore) Latest(_ context.Context, loc iface.Locator) (iface.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest iface.Record
	var found bool
	for _, rec := range m.items {
		if rec.Locator == loc && (!found || rec.Version > latest.Version) {
			latest = rec
			found = true
		}
	}
	if !found {
		return iface.Record{}, iface.ErrRecordNotFound
	}
	return latest, nil
}

func (m *MemoryStore) Version(_ context.Context, loc iface.Locator, version string) (iface.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.items[recordKey(loc, version)]; ok {
		return rec, nil
	}
	return iface.Record{}, iface.ErrRecordNotFound
}

func (m *MemoryStore) Delete(_ context.Context, loc iface.Locator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, rec := range m.items {
		if rec.Locator == loc {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context, filter iface.Locator) ([]iface.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []iface.Record
	for _, rec := range m.items {
		if filter.Scope != "" && rec.Scope != filter.Scope {
			continue
		}
		if filter.SubjectID != "" && rec.SubjectID != filter.SubjectID {
			continue
		}
		if filter.Service != "" && rec.Service != filter.Service {
			continue
		}
		if filter.Key != "" && rec.Key != filter.Key {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func recordKey(loc iface.Locator, version string) string {
	return loc.Scope + "|" + loc.SubjectID + "|" + loc.Service + "|" + loc.Key + "|" + version
}
