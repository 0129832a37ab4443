package secrets

import (
	"context"
	"errors"
	"strings"
)

// Well-known services and keys resolved by the external clients.
const (
	ServiceDocumentCloud = "documentcloud"
	ServiceAssistant     = "assistant"
	ServiceFileStorage   = "filestorage"

	KeyAPIKey   = "api_key"
	KeyClientID = "client_id"

	// DefaultSubject owns system-scoped credentials.
	DefaultSubject = "default"
)

// SystemRef addresses a system-wide credential.
func SystemRef(service, key string) Reference {
	return Reference{Scope: ScopeSystem, SubjectID: DefaultSubject, Service: service, Key: key}
}

// UserRef addresses a credential a user configured for themselves.
func UserRef(userID, service, key string) Reference {
	return Reference{Scope: ScopeUser, SubjectID: userID, Service: service, Key: key}
}

// Candidates returns the lookup order for a credential: the user's own value
// first when userID is set, then the system value.
func Candidates(userID, service, key string) []Reference {
	refs := make([]Reference, 0, 2)
	if strings.TrimSpace(userID) != "" {
		refs = append(refs, UserRef(userID, service, key))
	}
	return append(refs, SystemRef(service, key))
}

// Lookup resolves refs in order and returns the first one found. It returns
// ErrNotFound when none resolve; any other failure is returned immediately.
func Lookup(ctx context.Context, resolver Resolver, refs ...Reference) (SecretValue, Reference, error) {
	if resolver == nil {
		return SecretValue{}, Reference{}, ErrNotFound
	}
	for _, ref := range refs {
		values, err := resolver.Resolve(ctx, ref)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return SecretValue{}, ref, err
		}
		if val, ok := values[ref]; ok && len(val.Data) > 0 {
			return val, ref, nil
		}
	}
	return SecretValue{}, Reference{}, ErrNotFound
}
