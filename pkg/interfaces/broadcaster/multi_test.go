package broadcaster

import (
	"context"
	"errors"
	"testing"
)

func TestMultiReachesEveryTarget(t *testing.T) {
	var got []string
	record := func(name string, err error) Broadcaster {
		return Func(func(_ context.Context, event Event) error {
			got = append(got, name+":"+event.Topic)
			return err
		})
	}
	boom := errors.New("boom")
	b := Multi(record("a", boom), nil, &Nop{}, record("b", nil))

	err := b.Broadcast(context.Background(), Event{Topic: "certificates.changed"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(got) != 2 || got[0] != "a:certificates.changed" || got[1] != "b:certificates.changed" {
		t.Fatalf("unexpected deliveries %v", got)
	}
}

func TestMultiCollapses(t *testing.T) {
	if _, ok := Multi().(*Nop); !ok {
		t.Fatalf("expected Nop for no targets")
	}
	single := Func(func(context.Context, Event) error { return nil })
	if _, ok := Multi(nil, single).(Func); !ok {
		t.Fatalf("expected the single target to be returned")
	}
}

func TestLoggingWithoutLogger(t *testing.T) {
	if err := Logging(nil).Broadcast(context.Background(), Event{Topic: "audit-log.changed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
