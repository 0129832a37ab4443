package records

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-signdesk/internal/partition"
	"github.com/goliatone/go-signdesk/pkg/activity"
	"github.com/goliatone/go-signdesk/pkg/audit"
	"github.com/goliatone/go-signdesk/pkg/domain"
	"github.com/goliatone/go-signdesk/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/interfaces/store"
)

// Partition keys.
const (
	CertificatesKey = "certificates"
	DocumentsKey    = "signed-documents"
	SealsKey        = "custom-seals"
)

var (
	// ErrDuplicateID is returned when an add reuses an id already present.
	ErrDuplicateID = errors.New("records: duplicate id")
	// ErrBuiltinSeal is returned when a caller tries to add or remove a built-in seal.
	ErrBuiltinSeal = errors.New("records: built-in seals are read-only")
	// ErrInvalidTransition aliases the domain error raised by document patches.
	ErrInvalidTransition = domain.ErrInvalidTransition

	errStorageRequired = errors.New("records: storage is required")
)

// Dependencies wires the store to its substrate and subscribers.
type Dependencies struct {
	Storage     kv.Storage
	Policy      store.CorruptionPolicy
	Trail       *audit.Trail
	Activity    activity.Hooks
	Broadcaster broadcaster.Broadcaster
	Logger      logger.Logger
	Clock       func() time.Time
	ActorID     string
}

// Store is the partitioned persistence layer. Every mutation reads the whole
// partition, applies the change, writes it back and emits one activity event.
// Mutations are serialized within the process; concurrent writers sharing a
// substrate from other processes can still overwrite each other.
type Store struct {
	mu           sync.Mutex
	certificates *partition.Partition[domain.Certificate]
	documents    *partition.Partition[domain.SignedDocument]
	seals        *partition.Partition[domain.SignatureSeal]
	trail        *audit.Trail
	hooks        activity.Hooks
	broadcaster  broadcaster.Broadcaster
	logger       logger.Logger
	clock        func() time.Time
	actorID      string
}

// New constructs the store. When no trail is supplied one is created over the
// same storage. The trail is always subscribed first.
func New(deps Dependencies) (*Store, error) {
	if deps.Storage == nil {
		return nil, errStorageRequired
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = &broadcaster.Nop{}
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.Trail == nil {
		trail, err := audit.New(audit.Dependencies{
			Storage: deps.Storage,
			Policy:  deps.Policy,
			Logger:  deps.Logger,
		})
		if err != nil {
			return nil, err
		}
		deps.Trail = trail
	}

	certificates, err := partition.New(partition.Dependencies[domain.Certificate]{
		Storage: deps.Storage,
		Key:     CertificatesKey,
		IDOf:    func(c domain.Certificate) string { return c.ID },
		Policy:  deps.Policy,
		Logger:  deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	documents, err := partition.New(partition.Dependencies[domain.SignedDocument]{
		Storage: deps.Storage,
		Key:     DocumentsKey,
		IDOf:    func(d domain.SignedDocument) string { return d.ID },
		Policy:  deps.Policy,
		Logger:  deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	seals, err := partition.New(partition.Dependencies[domain.SignatureSeal]{
		Storage: deps.Storage,
		Key:     SealsKey,
		IDOf:    func(s domain.SignatureSeal) string { return s.ID },
		Policy:  deps.Policy,
		Logger:  deps.Logger,
	})
	if err != nil {
		return nil, err
	}

	hooks := make(activity.Hooks, 0, len(deps.Activity)+1)
	hooks = append(hooks, deps.Trail)
	hooks = append(hooks, deps.Activity...)

	return &Store{
		certificates: certificates,
		documents:    documents,
		seals:        seals,
		trail:        deps.Trail,
		hooks:        hooks,
		broadcaster:  deps.Broadcaster,
		logger:       deps.Logger,
		clock:        deps.Clock,
		actorID:      deps.ActorID,
	}, nil
}

// Trail exposes the audit trail subscribed to this store.
func (s *Store) Trail() *audit.Trail {
	return s.trail
}

// AuditLogs returns the audit trail, most recent first.
func (s *Store) AuditLogs(ctx context.Context) ([]domain.AuditLog, error) {
	return s.trail.List(ctx)
}

// ClearAuditLog empties the trail. Subscribers other than the trail still
// receive the clear event.
func (s *Store) ClearAuditLog(ctx context.Context) error {
	if err := s.trail.Clear(ctx); err != nil {
		s.emit(ctx, activity.VerbAuditCleared, "AUDIT_LOG", "", err)
		return err
	}
	s.emit(ctx, activity.VerbAuditCleared, "AUDIT_LOG", "", nil)
	s.broadcast(ctx, audit.PartitionKey)
	return nil
}

type mutation[T any] struct {
	part       *partition.Partition[T]
	verb       string
	entityType string
}

func add[T any](ctx context.Context, s *Store, m mutation[T], id string, item T) error {
	err := s.locked(func() error {
		items, err := m.part.Load(ctx)
		if err != nil {
			return err
		}
		if m.part.Contains(items, id) {
			return fmt.Errorf("%w: %s %s", ErrDuplicateID, m.entityType, id)
		}
		return m.part.Save(ctx, append(items, item))
	})
	return m.finish(ctx, s, id, err)
}

func remove[T any](ctx context.Context, s *Store, m mutation[T], id string) error {
	err := s.locked(func() error {
		items, err := m.part.Load(ctx)
		if err != nil {
			return err
		}
		rest, removed := m.part.Without(items, id)
		if !removed {
			return fmt.Errorf("records: %s %s: %w", m.entityType, id, store.ErrNotFound)
		}
		return m.part.Save(ctx, rest)
	})
	return m.finish(ctx, s, id, err)
}

// locked runs the read-modify-write fn under the store mutex. Hooks and
// subscribers are notified after it returns, so they may call back into the store.
func (s *Store) locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func find[T any](ctx context.Context, part *partition.Partition[T], entityType, id string) (T, error) {
	item, ok, err := part.Find(ctx, id)
	if err != nil {
		return item, fmt.Errorf("records: %w", err)
	}
	if !ok {
		return item, fmt.Errorf("records: %s %s: %w", entityType, id, store.ErrNotFound)
	}
	return item, nil
}

func (m mutation[T]) fail(ctx context.Context, s *Store, id string, err error) error {
	if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, ErrDuplicateID) && !errors.Is(err, ErrBuiltinSeal) {
		err = fmt.Errorf("records: %w", err)
	}
	s.emit(ctx, m.verb, m.entityType, id, err)
	return err
}

func (m mutation[T]) finish(ctx context.Context, s *Store, id string, err error) error {
	if err != nil {
		return m.fail(ctx, s, id, err)
	}
	m.succeed(ctx, s, id)
	return nil
}

func (m mutation[T]) succeed(ctx context.Context, s *Store, id string) {
	s.emit(ctx, m.verb, m.entityType, id, nil)
	s.broadcast(ctx, m.part.Key())
}

func (s *Store) emit(ctx context.Context, verb, entityType, id string, err error) {
	evt := activity.Event{
		Verb:       verb,
		ActorID:    s.actorID,
		ObjectType: entityType,
		ObjectID:   id,
		Result:     activity.ResultSuccess,
		OccurredAt: s.clock(),
	}
	if err != nil {
		evt.Result = activity.ResultFailure
		evt.Reason = err.Error()
		s.logger.Warn("records mutation failed",
			logger.F("action", verb),
			logger.F("entity_id", id),
			logger.F("error", err),
		)
	}
	s.hooks.Notify(ctx, evt)
}

func (s *Store) broadcast(ctx context.Context, key string) {
	if err := s.broadcaster.Broadcast(ctx, broadcaster.Event{Topic: key + ".changed", Payload: key}); err != nil {
		s.logger.Warn("records change broadcast failed", logger.F("partition", key), logger.F("error", err))
	}
}
