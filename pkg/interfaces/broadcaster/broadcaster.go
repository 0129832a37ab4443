package broadcaster

import "context"

// Event announces a change to one persisted partition, e.g. topic
// "certificates.changed" with the partition key as payload.
type Event struct {
	Topic   string
	Payload any
}

// Broadcaster pushes change events to views that must refresh.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// Nop broadcaster discards events.
type Nop struct{}

var _ Broadcaster = (*Nop)(nil)

func (n *Nop) Broadcast(ctx context.Context, event Event) error { return nil }
