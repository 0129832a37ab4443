package secrets

import (
	"bytes"
	"context"
	"testing"
)

func TestEncryptedStoreProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	prov, err := NewEncryptedStoreProvider(store, bytes.Repeat([]byte{1}, 32))
	if err != nil {
		t.Fatalf("provider: %v", err)
	}

	ver, err := prov.Put(ctx, testRef, []byte("supersecret"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := prov.Get(ctx, testRef)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Data) != "supersecret" || got.Version != ver {
		t.Fatalf("unexpected value %+v", got)
	}

	records, err := store.List(ctx, locator(Reference{Service: ServiceDocumentCloud}))
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one stored record, got %d %v", len(records), err)
	}
	if bytes.Contains(records[0].Cipher, []byte("supersecret")) {
		t.Fatalf("credential stored in clear text")
	}
	meta, err := prov.Describe(ctx, testRef)
	if err != nil || meta["version"] != ver {
		t.Fatalf("describe: %+v %v", meta, err)
	}
}

func TestEncryptedStoreProviderRejectsSwappedRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	prov, err := NewEncryptedStoreProvider(store, bytes.Repeat([]byte{3}, 32))
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	if _, err := prov.Put(ctx, testRef, []byte("value")); err != nil {
		t.Fatalf("put: %v", err)
	}
	rec, err := store.Latest(ctx, locator(testRef))
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	other := Reference{Scope: ScopeUser, SubjectID: "u2", Service: ServiceDocumentCloud, Key: KeyAPIKey}
	rec.Locator = locator(other)
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("put swapped: %v", err)
	}
	if _, err := prov.Get(ctx, other); err == nil {
		t.Fatalf("expected decrypt failure for swapped record")
	}
}

func TestEncryptedStoreProviderDelete(t *testing.T) {
	ctx := context.Background()
	prov, err := NewEncryptedStoreProvider(NewMemoryStore(), bytes.Repeat([]byte{2}, 32))
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	if _, err := prov.Put(ctx, testRef, []byte("k")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := prov.Delete(ctx, testRef); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := prov.Get(ctx, testRef); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestEncryptedStoreProviderKeySize(t *testing.T) {
	if _, err := NewEncryptedStoreProvider(NewMemoryStore(), []byte("short")); err == nil {
		t.Fatalf("expected key size error")
	}
	if _, err := NewEncryptedStoreProvider(nil, bytes.Repeat([]byte{1}, 32)); err == nil {
		t.Fatalf("expected store error")
	}
}
