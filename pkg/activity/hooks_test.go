package activity

import (
	"context"
	"testing"
)

func TestHooksNotifyFanOut(t *testing.T) {
	var got []Event
	record := HookFunc(func(_ context.Context, evt Event) { got = append(got, evt) })
	hooks := Hooks{record, nil, Nop{}, record}

	hooks.Notify(context.Background(), Event{Verb: VerbSealCreated, Result: ResultSuccess})

	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if got[0].OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be stamped")
	}
	if !got[0].Succeeded() {
		t.Fatalf("expected success")
	}
}

func TestCloneMetadata(t *testing.T) {
	src := map[string]any{"k": "v"}
	dst := CloneMetadata(src)
	dst["k"] = "changed"
	if src["k"] != "v" {
		t.Fatalf("clone shares storage")
	}
	if CloneMetadata(nil) != nil {
		t.Fatalf("expected nil clone for empty input")
	}
}
