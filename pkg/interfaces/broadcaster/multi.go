package broadcaster

import (
	"context"
	"errors"

	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
)

// Func adapts a function to the Broadcaster interface.
type Func func(ctx context.Context, event Event) error

func (f Func) Broadcast(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// Multi delivers every change event to all targets. Nil targets are skipped
// and a single target is returned as is.
func Multi(targets ...Broadcaster) Broadcaster {
	kept := make(multi, 0, len(targets))
	for _, target := range targets {
		if target == nil {
			continue
		}
		if _, nop := target.(*Nop); nop {
			continue
		}
		kept = append(kept, target)
	}
	switch len(kept) {
	case 0:
		return &Nop{}
	case 1:
		return kept[0]
	}
	return kept
}

type multi []Broadcaster

// Broadcast reaches every target even when one fails; failures are joined.
func (m multi) Broadcast(ctx context.Context, event Event) error {
	var errs []error
	for _, target := range m {
		if err := target.Broadcast(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Logging records change events at debug level.
func Logging(l logger.Logger) Broadcaster {
	if l == nil {
		return &Nop{}
	}
	return Func(func(_ context.Context, event Event) error {
		l.Debug("partition changed", logger.F("topic", event.Topic), logger.F("payload", event.Payload))
		return nil
	})
}
