package secrets

import (
	"context"
	"testing"
)

var testRef = Reference{Scope: ScopeUser, SubjectID: "u1", Service: ServiceDocumentCloud, Key: KeyAPIKey}

func TestStaticProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewStaticProvider(nil)
	ver, err := p.Put(ctx, testRef, []byte("secret"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if ver == "" {
		t.Fatalf("expected version to be set")
	}
	val, err := p.Get(ctx, testRef)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(val.Data) != "secret" {
		t.Fatalf("expected secret, got %s", val.Data)
	}
	if val.Retrieved.IsZero() {
		t.Fatalf("expected retrieved timestamp")
	}
	if err := p.Delete(ctx, testRef); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := p.Get(ctx, testRef); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStaticProviderLatestVersion(t *testing.T) {
	ctx := context.Background()
	v1 := testRef
	v1.Version = "2024-01-01"
	v2 := testRef
	v2.Version = "2024-06-01"
	p := NewStaticProvider(map[Reference]SecretValue{
		v1: {Data: []byte("old")},
		v2: {Data: []byte("new")},
	})
	val, err := p.Get(ctx, testRef)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(val.Data) != "new" || val.Version != "2024-06-01" {
		t.Fatalf("expected latest version, got %+v", val)
	}
	pinned, err := p.Get(ctx, v1)
	if err != nil || string(pinned.Data) != "old" {
		t.Fatalf("expected pinned version, got %+v %v", pinned, err)
	}
}

func TestValidateReference(t *testing.T) {
	cases := map[string]Reference{
		"scope":   {SubjectID: "u1", Service: "s", Key: "k"},
		"subject": {Scope: ScopeUser, Service: "s", Key: "k"},
		"service": {Scope: ScopeUser, SubjectID: "u1", Key: "k"},
	}
	for name, ref := range cases {
		if err := ValidateReference(ref); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := ValidateReference(testRef); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
