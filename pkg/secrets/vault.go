package secrets

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Vault resolves service credentials from the system provider and the user
// provider and lets users save or forget their own keys. Resolved values are
// cached for TTL; writes through the vault drop the cached entry.
type Vault struct {
	System Provider
	User   Provider
	TTL    time.Duration

	now   func() time.Time
	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value   SecretValue
	expires time.Time
}

var _ Resolver = (*Vault)(nil)

// NewVault builds a vault. Nil providers resolve nothing; ttl <= 0 disables caching.
func NewVault(system, user Provider, ttl time.Duration) *Vault {
	return &Vault{
		System: system,
		User:   user,
		TTL:    ttl,
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}
}

func (v *Vault) provider(scope Scope) Provider {
	switch scope {
	case ScopeSystem:
		return v.System
	case ScopeUser:
		return v.User
	}
	return nil
}

// Resolve returns every reference or the first failure. A scope without a
// provider reports ErrNotFound.
func (v *Vault) Resolve(ctx context.Context, refs ...Reference) (map[Reference]SecretValue, error) {
	if v == nil {
		return nil, ErrNotFound
	}
	now := v.now()
	out := make(map[Reference]SecretValue, len(refs))
	for _, ref := range refs {
		if val, ok := v.cached(ref, now); ok {
			out[ref] = val
			continue
		}
		prov := v.provider(ref.Scope)
		if prov == nil {
			return nil, ErrNotFound
		}
		val, err := prov.Get(ctx, ref)
		if err != nil {
			return nil, err
		}
		v.remember(ref, val, now)
		out[ref] = val
	}
	return out, nil
}

// Save stores a user's own credential and returns its version.
func (v *Vault) Save(ctx context.Context, userID, service, key, value string) (string, error) {
	if v == nil || v.User == nil {
		return "", ErrUnsupported
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrEmptyValue
	}
	ref := UserRef(userID, service, key)
	version, err := v.User.Put(ctx, ref, []byte(value))
	if err != nil {
		return "", err
	}
	v.forget(ref)
	return version, nil
}

// Forget removes a user's credential so lookups fall back to the system value.
func (v *Vault) Forget(ctx context.Context, userID, service, key string) error {
	if v == nil || v.User == nil {
		return ErrUnsupported
	}
	ref := UserRef(userID, service, key)
	v.forget(ref)
	if err := v.User.Delete(ctx, ref); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Status reports, per service, whether a credential resolves and from which
// scope, with the value masked.
func (v *Vault) Status(ctx context.Context, userID, key string, services ...string) map[string]map[string]any {
	out := make(map[string]map[string]any, len(services))
	for _, service := range services {
		val, ref, err := Lookup(ctx, v, Candidates(userID, service, key)...)
		if err != nil {
			out[service] = map[string]any{"configured": false}
			continue
		}
		out[service] = map[string]any{
			"configured": true,
			"scope":      string(ref.Scope),
			"value":      Mask(string(val.Data)),
		}
	}
	return out
}

func (v *Vault) cached(ref Reference, now time.Time) (SecretValue, bool) {
	if v.TTL <= 0 {
		return SecretValue{}, false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, ok := v.cache[key(ref)]
	if !ok || !entry.expires.After(now) {
		return SecretValue{}, false
	}
	return entry.value, true
}

func (v *Vault) remember(ref Reference, val SecretValue, now time.Time) {
	if v.TTL <= 0 {
		return
	}
	v.mu.Lock()
	v.cache[key(ref)] = cacheEntry{value: val, expires: now.Add(v.TTL)}
	v.mu.Unlock()
}

func (v *Vault) forget(ref Reference) {
	v.mu.Lock()
	delete(v.cache, key(ref))
	v.mu.Unlock()
}
