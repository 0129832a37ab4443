package secrets

import (
	"context"
	"testing"
)

func TestNopProvider(t *testing.T) {
	ctx := context.Background()
	var p NopProvider
	if _, err := p.Get(ctx, testRef); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound")
	}
	if err := p.Delete(ctx, testRef); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported on delete")
	}
}
