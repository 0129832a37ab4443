package secrets

import (
	"context"
	"sync"
	"time"
)

// StaticProvider keeps credentials in memory without encryption. Used for
// tests and for keys injected from the environment at startup.
type StaticProvider struct {
	mu    sync.RWMutex
	store map[string]SecretValue
	now   func() time.Time
}

// NewStaticProvider builds an in-memory provider seeded with optional values.
func NewStaticProvider(seed map[Reference]SecretValue) *StaticProvider {
	p := &StaticProvider{
		store: make(map[string]SecretValue),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for ref, val := range seed {
		if val.Version == "" {
			val.Version = ref.Version
		}
		p.store[key(ref)] = val
	}
	return p
}

func (p *StaticProvider) Get(_ context.Context, ref Reference) (SecretValue, error) {
	if err := ValidateReference(ref); err != nil {
		return SecretValue{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if ref.Version != "" {
		if val, ok := p.store[key(ref)]; ok {
			return val, nil
		}
		return SecretValue{}, ErrNotFound
	}
	// No version requested: latest by lexical max.
	var latest SecretValue
	var found bool
	for k, v := range p.store {
		if matchesBase(ref, k) {
			if !found || v.Version > latest.Version {
				latest = v
				found = true
			}
		}
	}
	if !found {
		return SecretValue{}, ErrNotFound
	}
	return latest, nil
}

func (p *StaticProvider) Put(_ context.Context, ref Reference, value []byte) (string, error) {
	if err := ValidateReference(ref); err != nil {
		return "", err
	}
	if len(value) == 0 {
		return "", ErrEmptyValue
	}
	now := p.now()
	if ref.Version == "" {
		ref.Version = now.Format(time.RFC3339Nano)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store[key(ref)] = SecretValue{
		Data:      append([]byte(nil), value...),
		Version:   ref.Version,
		Retrieved: now,
	}
	return ref.Version, nil
}

// Delete removes every version of the referenced credential.
func (p *StaticProvider) Delete(_ context.Context, ref Reference) error {
	if err := ValidateReference(ref); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.store {
		if matchesBase(ref, k) {
			delete(p.store, k)
		}
	}
	return nil
}

func (p *StaticProvider) Describe(ctx context.Context, ref Reference) (map[string]any, error) {
	val, err := p.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return map[string]any{"version": val.Version}, nil
}

func key(ref Reference) string {
	return baseKey(ref) + ref.Version
}

func baseKey(ref Reference) string {
	return string(ref.Scope) + "|" + ref.SubjectID + "|" + ref.Service + "|" + ref.Key + "|"
}

func matchesBase(ref Reference, k string) bool {
	prefix := baseKey(ref)
	return len(k) > len(prefix) && k[:len(prefix)] == prefix
}
