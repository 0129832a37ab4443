package secrets

import (
	"context"
	"time"
)

// Scope defines the ownership boundary for a credential.
type Scope string

const (
	// ScopeSystem holds deployment credentials, seeded from the environment.
	ScopeSystem Scope = "system"
	// ScopeUser holds the keys a user saved in their own settings.
	ScopeUser Scope = "user"
)

// Reference identifies one credential of one external service.
type Reference struct {
	Scope     Scope
	SubjectID string
	Service   string
	Key       string
	Version   string
}

// SecretValue carries the resolved credential payload.
type SecretValue struct {
	Data      []byte
	Version   string
	Retrieved time.Time
	Metadata  map[string]any
}

// Provider resolves and manages credentials for a given scope.
type Provider interface {
	Get(ctx context.Context, ref Reference) (SecretValue, error)
	Put(ctx context.Context, ref Reference, value []byte) (string, error)
	Delete(ctx context.Context, ref Reference) error
	Describe(ctx context.Context, ref Reference) (map[string]any, error) // non-sensitive metadata only
}

// Resolver batches resolution of references and returns keyed results.
type Resolver interface {
	Resolve(ctx context.Context, refs ...Reference) (map[Reference]SecretValue, error)
}
