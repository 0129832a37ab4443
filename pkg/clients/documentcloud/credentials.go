package documentcloud

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-signdesk/pkg/secrets"
)

// Credentials authenticate a request. APIKey wins over BearerToken.
type Credentials struct {
	APIKey      string
	BearerToken string
}

func (c Credentials) empty() bool {
	return strings.TrimSpace(c.APIKey) == "" && strings.TrimSpace(c.BearerToken) == ""
}

// CredentialSource yields the credentials for the next request.
type CredentialSource interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// StaticCredentials always returns the same credentials.
type StaticCredentials Credentials

func (s StaticCredentials) Credentials(context.Context) (Credentials, error) {
	return Credentials(s), nil
}

// TokenSource yields the identity token used when no API key is configured.
type TokenSource interface {
	Token(ctx context.Context) (string, bool, error)
}

// SecretCredentials resolves the API key through the secrets resolver, the
// user's own key first. Without a key it falls back to the identity token.
type SecretCredentials struct {
	Resolver secrets.Resolver
	UserID   string
	Tokens   TokenSource
}

func (s SecretCredentials) Credentials(ctx context.Context) (Credentials, error) {
	val, _, err := secrets.Lookup(ctx, s.Resolver, secrets.Candidates(s.UserID, secrets.ServiceDocumentCloud, secrets.KeyAPIKey)...)
	switch {
	case err == nil:
		return Credentials{APIKey: string(val.Data)}, nil
	case !errors.Is(err, secrets.ErrNotFound):
		return Credentials{}, err
	}
	if s.Tokens == nil {
		return Credentials{}, nil
	}
	token, ok, err := s.Tokens.Token(ctx)
	if err != nil || !ok {
		return Credentials{}, err
	}
	return Credentials{BearerToken: token}, nil
}
