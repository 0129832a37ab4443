package settings

import (
	"context"
	"fmt"
	"strings"
	"sync"

	opts "github.com/goliatone/go-options"
	"github.com/goliatone/go-signdesk/internal/partition"
	"github.com/goliatone/go-signdesk/pkg/config"
	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
)

const (
	// PartitionKey holds every user's overrides.
	PartitionKey = "user-settings"

	KeyAccountID = "documentCloud.accountId"
	KeyLocale    = "localization.locale"

	// LocalUser owns the overrides when no user is signed in.
	LocalUser = "local"
)

var (
	SystemScope = opts.NewScope("system", opts.ScopePrioritySystem, opts.WithScopeLabel("System"))
	UserScope   = opts.NewScope("user", opts.ScopePriorityUser, opts.WithScopeLabel("User"))
)

// UserSettings is the persisted override document of one user.
type UserSettings struct {
	UserID string         `json:"userId"`
	Values map[string]any `json:"values"`
}

// Store layers user overrides persisted in the substrate over the system
// defaults derived from configuration.
type Store struct {
	mu        sync.Mutex
	partition *partition.Partition[UserSettings]
	system    map[string]any
}

// Dependencies wires the settings store.
type Dependencies struct {
	Storage kv.Storage
	Config  config.Config
	Logger  logger.Logger
}

func New(deps Dependencies) (*Store, error) {
	part, err := partition.New(partition.Dependencies[UserSettings]{
		Storage: deps.Storage,
		Key:     PartitionKey,
		IDOf:    func(u UserSettings) string { return u.UserID },
		Logger:  deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return &Store{partition: part, system: SystemDefaults(deps.Config)}, nil
}

// SystemDefaults maps configuration onto the settings tree.
func SystemDefaults(cfg config.Config) map[string]any {
	return map[string]any{
		"documentCloud": map[string]any{
			"accountId": cfg.DocumentCloud.AccountID,
		},
		"localization": map[string]any{
			"locale": cfg.Localization.DefaultLocale,
		},
	}
}

// Snapshots returns the system layer followed by the user's overrides, if any.
func (s *Store) Snapshots(ctx context.Context, userID string) ([]Snapshot, error) {
	snapshots := []Snapshot{{Scope: SystemScope, Data: s.system, SnapshotID: "config"}}
	user, ok, err := s.partition.Find(ctx, subject(userID))
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if ok && len(user.Values) > 0 {
		snapshots = append(snapshots, Snapshot{Scope: UserScope, Data: user.Values, SnapshotID: user.UserID})
	}
	return snapshots, nil
}

// Resolver merges the layers for userID.
func (s *Store) Resolver(ctx context.Context, userID string) (*Resolver, error) {
	snapshots, err := s.Snapshots(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewResolver(snapshots...)
}

// Set stores a user override at a dotted path.
func (s *Store) Set(ctx context.Context, userID, path string, value any) error {
	keys, err := splitPath(path)
	if err != nil {
		return err
	}
	return s.update(ctx, userID, func(values map[string]any) {
		node := values
		for _, key := range keys[:len(keys)-1] {
			child, ok := node[key].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[key] = child
			}
			node = child
		}
		node[keys[len(keys)-1]] = value
	})
}

// Unset drops a user override so the system value applies again.
func (s *Store) Unset(ctx context.Context, userID, path string) error {
	keys, err := splitPath(path)
	if err != nil {
		return err
	}
	return s.update(ctx, userID, func(values map[string]any) {
		node := values
		for _, key := range keys[:len(keys)-1] {
			child, ok := node[key].(map[string]any)
			if !ok {
				return
			}
			node = child
		}
		delete(node, keys[len(keys)-1])
	})
}

// AccountID resolves the document-cloud account for userID.
func (s *Store) AccountID(ctx context.Context, userID string) (string, error) {
	return s.resolveString(ctx, userID, KeyAccountID)
}

// Locale resolves the display locale for userID.
func (s *Store) Locale(ctx context.Context, userID string) (string, error) {
	return s.resolveString(ctx, userID, KeyLocale)
}

func (s *Store) resolveString(ctx context.Context, userID, path string) (string, error) {
	resolver, err := s.Resolver(ctx, userID)
	if err != nil {
		return "", err
	}
	value, _, err := resolver.ResolveString(path)
	return value, err
}

func (s *Store) update(ctx context.Context, userID string, mutate func(map[string]any)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.partition.Load(ctx)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	id := subject(userID)
	current := UserSettings{UserID: id, Values: map[string]any{}}
	for _, item := range all {
		if item.UserID == id {
			current = item
			if current.Values == nil {
				current.Values = map[string]any{}
			}
			break
		}
	}
	mutate(current.Values)

	next, replaced := s.partition.Replace(all, current)
	if !replaced {
		next = append(next, current)
	}
	if err := s.partition.Save(ctx, next); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}

func subject(userID string) string {
	if strings.TrimSpace(userID) == "" {
		return LocalUser
	}
	return userID
}

func splitPath(path string) ([]string, error) {
	keys := strings.Split(strings.TrimSpace(path), ".")
	for _, key := range keys {
		if key == "" {
			return nil, fmt.Errorf("settings: invalid path %q", path)
		}
	}
	return keys, nil
}
