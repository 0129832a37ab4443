package records

import (
	"context"
	"fmt"

	"github.com/goliatone/go-signdesk/pkg/activity"
	"github.com/goliatone/go-signdesk/pkg/domain"
)

func (s *Store) sealMutation(verb string) mutation[domain.SignatureSeal] {
	return mutation[domain.SignatureSeal]{part: s.seals, verb: verb, entityType: domain.EntitySeal}
}

// Seals returns the built-in seals followed by the custom ones.
func (s *Store) Seals(ctx context.Context) ([]domain.SignatureSeal, error) {
	custom, err := s.seals.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	return append(domain.BuiltinSeals(), custom...), nil
}

// CustomSeals returns only the user-defined seals.
func (s *Store) CustomSeals(ctx context.Context) ([]domain.SignatureSeal, error) {
	custom, err := s.seals.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	return custom, nil
}

// Seal looks up a seal by id across built-in and custom seals.
func (s *Store) Seal(ctx context.Context, id string) (domain.SignatureSeal, error) {
	for _, seal := range domain.BuiltinSeals() {
		if seal.ID == id {
			return seal, nil
		}
	}
	return find(ctx, s.seals, domain.EntitySeal, id)
}

// AddSeal stores a custom seal. Custom seals are never native nor default.
func (s *Store) AddSeal(ctx context.Context, seal domain.SignatureSeal) error {
	m := s.sealMutation(activity.VerbSealCreated)
	if domain.IsBuiltinSeal(seal.ID) {
		return m.fail(ctx, s, seal.ID, fmt.Errorf("%w: %s", ErrBuiltinSeal, seal.ID))
	}
	seal.IsNative = false
	seal.IsDefault = false
	now := s.clock()
	if seal.CreatedAt.IsZero() {
		seal.CreatedAt = now
	}
	if seal.UpdatedAt.IsZero() {
		seal.UpdatedAt = seal.CreatedAt
	}
	if err := seal.Validate(); err != nil {
		return m.fail(ctx, s, seal.ID, err)
	}
	return add(ctx, s, m, seal.ID, seal)
}

// RemoveSeal drops a custom seal. Built-in seals cannot be removed.
func (s *Store) RemoveSeal(ctx context.Context, id string) error {
	m := s.sealMutation(activity.VerbSealRemoved)
	if domain.IsBuiltinSeal(id) {
		return m.fail(ctx, s, id, fmt.Errorf("%w: %s", ErrBuiltinSeal, id))
	}
	return remove(ctx, s, m, id)
}
