package secrets

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned by stores when no record matches a locator.
var ErrRecordNotFound = errors.New("secrets: record not found")

// Locator addresses every version of one credential.
type Locator struct {
	Scope     string
	SubjectID string
	Service   string
	Key       string
}

// Record is an encrypted credential version persisted by a Store.
type Record struct {
	Locator
	Version   string
	Cipher    []byte
	Nonce     []byte
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists encrypted credential records. Empty locator fields passed to
// List act as wildcards.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Latest(ctx context.Context, loc Locator) (Record, error)
	Version(ctx context.Context, loc Locator, version string) (Record, error)
	Delete(ctx context.Context, loc Locator) error
	List(ctx context.Context, filter Locator) ([]Record, error)
}
