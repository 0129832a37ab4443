package memory

import (
	"context"
	"sync"

	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
)

// Storage keeps key/value pairs in a map. A positive quota caps the total
// number of bytes held across keys and values, mirroring browser storage limits.
type Storage struct {
	mu    sync.RWMutex
	items map[string]string
	quota int
	used  int
}

var _ kv.Storage = (*Storage)(nil)

type Option func(*Storage)

// WithQuota limits the total size in bytes. Zero disables the limit.
func WithQuota(bytes int) Option {
	return func(s *Storage) {
		if bytes > 0 {
			s.quota = bytes
		}
	}
}

func New(opts ...Option) *Storage {
	s := &Storage{items: make(map[string]string)}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Storage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	return value, ok, nil
}

func (s *Storage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.used + len(value)
	if prev, ok := s.items[key]; ok {
		next -= len(prev)
	} else {
		next += len(key)
	}
	if s.quota > 0 && next > s.quota {
		return kv.ErrQuotaExceeded
	}
	s.items[key] = value
	s.used = next
	return nil
}

func (s *Storage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.items[key]; ok {
		s.used -= len(key) + len(prev)
		delete(s.items, key)
	}
	return nil
}

// Keys returns the stored keys in no particular order.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	return keys
}
