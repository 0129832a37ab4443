package partition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/interfaces/store"
)

// Partition is one named collection serialized as a JSON array under a
// single storage key. Reads decode the whole array and writes replace it.
type Partition[T any] struct {
	storage kv.Storage
	key     string
	idOf    func(T) string
	policy  store.CorruptionPolicy
	logger  logger.Logger
}

// Dependencies wires a partition to its substrate.
type Dependencies[T any] struct {
	Storage kv.Storage
	Key     string
	IDOf    func(T) string
	Policy  store.CorruptionPolicy
	Logger  logger.Logger
}

var (
	errStorageRequired = errors.New("partition: storage is required")
	errKeyRequired     = errors.New("partition: key is required")
	errIDRequired      = errors.New("partition: id function is required")
)

// New constructs a partition.
func New[T any](deps Dependencies[T]) (*Partition[T], error) {
	if deps.Storage == nil {
		return nil, errStorageRequired
	}
	if strings.TrimSpace(deps.Key) == "" {
		return nil, errKeyRequired
	}
	if deps.IDOf == nil {
		return nil, errIDRequired
	}
	if deps.Policy == "" {
		deps.Policy = store.PolicyReset
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Partition[T]{
		storage: deps.Storage,
		key:     deps.Key,
		idOf:    deps.IDOf,
		policy:  deps.Policy,
		logger:  deps.Logger.With(logger.F("partition", deps.Key)),
	}, nil
}

// Key returns the storage key backing the partition.
func (p *Partition[T]) Key() string {
	return p.key
}

// Load returns the stored collection. An absent key yields an empty slice.
// An undecodable payload yields an empty slice under PolicyReset and a
// *store.CorruptedError under PolicyFail.
func (p *Partition[T]) Load(ctx context.Context) ([]T, error) {
	raw, ok, err := p.storage.Get(ctx, p.key)
	if err != nil {
		return nil, fmt.Errorf("partition: read %s: %w", p.key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		corrupted := &store.CorruptedError{Key: p.key, Err: err}
		if p.policy == store.PolicyFail {
			p.logger.Error("partition payload corrupted", logger.F("error", err))
			return nil, corrupted
		}
		p.logger.Warn("partition payload corrupted, treating as empty", logger.F("error", err))
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Save replaces the stored collection.
func (p *Partition[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("partition: encode %s: %w", p.key, err)
	}
	if err := p.storage.Set(ctx, p.key, string(payload)); err != nil {
		return fmt.Errorf("partition: write %s: %w", p.key, err)
	}
	return nil
}

// Clear removes the key entirely.
func (p *Partition[T]) Clear(ctx context.Context) error {
	if err := p.storage.Remove(ctx, p.key); err != nil {
		return fmt.Errorf("partition: remove %s: %w", p.key, err)
	}
	return nil
}

// Find returns the first item with the given id.
func (p *Partition[T]) Find(ctx context.Context, id string) (T, bool, error) {
	var zero T
	items, err := p.Load(ctx)
	if err != nil {
		return zero, false, err
	}
	if idx := p.indexOf(items, id); idx >= 0 {
		return items[idx], true, nil
	}
	return zero, false, nil
}

// Pick returns the item with the given id from an already loaded slice.
func (p *Partition[T]) Pick(items []T, id string) (T, bool) {
	if idx := p.indexOf(items, id); idx >= 0 {
		return items[idx], true
	}
	var zero T
	return zero, false
}

// Contains reports whether id is present in items.
func (p *Partition[T]) Contains(items []T, id string) bool {
	return p.indexOf(items, id) >= 0
}

// Without returns a copy of items minus every entry with the given id and
// whether anything was dropped.
func (p *Partition[T]) Without(items []T, id string) ([]T, bool) {
	out := make([]T, 0, len(items))
	removed := false
	for _, item := range items {
		if p.idOf(item) == id {
			removed = true
			continue
		}
		out = append(out, item)
	}
	return out, removed
}

// Replace swaps the item carrying the same id as next.
func (p *Partition[T]) Replace(items []T, next T) ([]T, bool) {
	idx := p.indexOf(items, p.idOf(next))
	if idx < 0 {
		return items, false
	}
	out := append([]T(nil), items...)
	out[idx] = next
	return out, true
}

func (p *Partition[T]) indexOf(items []T, id string) int {
	for i, item := range items {
		if p.idOf(item) == id {
			return i
		}
	}
	return -1
}
