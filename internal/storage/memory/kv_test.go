package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
)

func TestStorageRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "certificates", `[{"id":"c1"}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.Get(ctx, "certificates")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != `[{"id":"c1"}]` {
		t.Fatalf("unexpected value %s", got)
	}
	if err := s.Remove(ctx, "certificates"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "certificates"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestStorageQuota(t *testing.T) {
	s := New(WithQuota(16))
	ctx := context.Background()

	if err := s.Set(ctx, "k", "0123456789"); err != nil {
		t.Fatalf("set within quota: %v", err)
	}
	if err := s.Set(ctx, "k2", "0123456789"); !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	// replacing an existing value only counts the delta
	if err := s.Set(ctx, "k", "abcdefghijklmno"); err != nil {
		t.Fatalf("replace within quota: %v", err)
	}
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Set(ctx, "k2", "0123456789"); err != nil {
		t.Fatalf("set after remove: %v", err)
	}
}

func TestNamespacedStorage(t *testing.T) {
	s := New()
	ctx := context.Background()
	ns := kv.Namespaced(s, "tenant-a")
	if err := ns.Set(ctx, "audit-log", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "tenant-a:audit-log"); !ok {
		t.Fatalf("expected prefixed key, have %v", s.Keys())
	}
}
