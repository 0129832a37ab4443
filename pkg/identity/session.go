package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
)

// Storage keys shared with the dashboard front-end.
const (
	DevSessionKey = "signplus_dev_session"
	TokenKey      = "signplus_jwt"
)

// DevUser is the principal of the local development session.
var DevUser = Principal{
	Subject: "dev|admin",
	Name:    "Admin Tester",
	Email:   "admin@signplus.test",
	Dev:     true,
}

// Principal is the signed-in user.
type Principal struct {
	Subject string
	Name    string
	Email   string
	Dev     bool
}

// Session keeps the local login state in the key/value substrate. Tokens are
// parsed without signature verification; they are only forwarded to services
// that verify them.
type Session struct {
	storage kv.Storage
	now     func() time.Time
	parser  *jwt.Parser
}

type SessionOption func(*Session)

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

var errStorageRequired = errors.New("identity: storage is required")

func NewSession(storage kv.Storage, opts ...SessionOption) (*Session, error) {
	if storage == nil {
		return nil, errStorageRequired
	}
	s := &Session{
		storage: storage,
		now:     time.Now,
		parser:  jwt.NewParser(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// LoginDev starts the local development session.
func (s *Session) LoginDev(ctx context.Context) error {
	return s.storage.Set(ctx, DevSessionKey, "true")
}

// IsDev reports whether the development session is active.
func (s *Session) IsDev(ctx context.Context) (bool, error) {
	value, ok, err := s.storage.Get(ctx, DevSessionKey)
	if err != nil {
		return false, fmt.Errorf("identity: %w", err)
	}
	return ok && value == "true", nil
}

// SetToken stores the identity token obtained from the provider.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if _, err := s.claims(token); err != nil {
		return err
	}
	return s.storage.Set(ctx, TokenKey, token)
}

// Token returns the stored identity token. An expired token is removed and
// reported as absent.
func (s *Session) Token(ctx context.Context) (string, bool, error) {
	token, ok, err := s.storage.Get(ctx, TokenKey)
	if err != nil {
		return "", false, fmt.Errorf("identity: %w", err)
	}
	if !ok || token == "" {
		return "", false, nil
	}
	claims, err := s.claims(token)
	if err != nil || s.expired(claims) {
		if rmErr := s.storage.Remove(ctx, TokenKey); rmErr != nil {
			return "", false, fmt.Errorf("identity: %w", rmErr)
		}
		return "", false, nil
	}
	return token, true, nil
}

// Principal returns the signed-in user, if any.
func (s *Session) Principal(ctx context.Context) (Principal, bool, error) {
	dev, err := s.IsDev(ctx)
	if err != nil {
		return Principal{}, false, err
	}
	if dev {
		return DevUser, true, nil
	}
	token, ok, err := s.Token(ctx)
	if err != nil || !ok {
		return Principal{}, false, err
	}
	claims, err := s.claims(token)
	if err != nil {
		return Principal{}, false, err
	}
	subject, _ := claims.GetSubject()
	return Principal{
		Subject: subject,
		Name:    stringClaim(claims, "name"),
		Email:   stringClaim(claims, "email"),
	}, true, nil
}

// Authenticated reports whether either a dev session or a live token exists.
func (s *Session) Authenticated(ctx context.Context) (bool, error) {
	_, ok, err := s.Principal(ctx)
	return ok, err
}

// Logout clears both the dev flag and the token.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.storage.Remove(ctx, DevSessionKey); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	if err := s.storage.Remove(ctx, TokenKey); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	return nil
}

func (s *Session) claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("identity: invalid token: %w", err)
	}
	return claims, nil
}

func (s *Session) expired(claims jwt.MapClaims) bool {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}

func stringClaim(claims jwt.MapClaims, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}
