package kv

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by substrates that cap their total size.
var ErrQuotaExceeded = errors.New("kv: quota exceeded")

// Storage is the string key/value substrate every partition is persisted to.
// Values are opaque serialized payloads; writes replace the whole value.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Nop storage returns misses and ignores writes.
type Nop struct{}

var _ Storage = (*Nop)(nil)

func (n *Nop) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func (n *Nop) Set(ctx context.Context, key, value string) error {
	return nil
}

func (n *Nop) Remove(ctx context.Context, key string) error {
	return nil
}

// Namespaced prefixes every key with ns and a colon. An empty ns returns s unchanged.
func Namespaced(s Storage, ns string) Storage {
	if ns == "" || s == nil {
		return s
	}
	return namespaced{inner: s, prefix: ns + ":"}
}

type namespaced struct {
	inner  Storage
	prefix string
}

func (n namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n namespaced) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n namespaced) Remove(ctx context.Context, key string) error {
	return n.inner.Remove(ctx, n.prefix+key)
}
