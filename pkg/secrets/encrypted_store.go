package secrets

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	iface "github.com/goliatone/go-signdesk/pkg/interfaces/secrets"
	"golang.org/x/crypto/chacha20poly1305"
)

// EncryptedStoreProvider persists credentials encrypted with XChaCha20-Poly1305
// through a record Store (memory or the bun-backed credentials table).
type EncryptedStoreProvider struct {
	store iface.Store
	aead  cipherSuite
	now   func() time.Time
}

type cipherSuite interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
}

// NewEncryptedStoreProvider builds a provider using the given store and key.
func NewEncryptedStoreProvider(store iface.Store, key []byte) (*EncryptedStoreProvider, error) {
	if store == nil {
		return nil, fmt.Errorf("encrypted provider: store required")
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encrypted provider: key must be %d bytes", chacha20poly1305.KeySize)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &EncryptedStoreProvider{
		store: store,
		aead:  aead,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *EncryptedStoreProvider) Get(ctx context.Context, ref Reference) (SecretValue, error) {
	if err := ValidateReference(ref); err != nil {
		return SecretValue{}, err
	}
	var rec iface.Record
	var err error
	if ref.Version != "" {
		rec, err = p.store.Version(ctx, locator(ref), ref.Version)
	} else {
		rec, err = p.store.Latest(ctx, locator(ref))
	}
	if err != nil {
		return SecretValue{}, translateStoreError(err)
	}
	plain, err := p.aead.Open(nil, rec.Nonce, rec.Cipher, additionalData(ref))
	if err != nil {
		return SecretValue{}, fmt.Errorf("decrypt: %w", err)
	}
	return SecretValue{
		Data:      plain,
		Version:   rec.Version,
		Retrieved: p.now(),
		Metadata:  rec.Metadata,
	}, nil
}

func (p *EncryptedStoreProvider) Put(ctx context.Context, ref Reference, value []byte) (string, error) {
	if err := ValidateReference(ref); err != nil {
		return "", err
	}
	if len(value) == 0 {
		return "", ErrEmptyValue
	}
	if ref.Version == "" {
		ref.Version = p.now().Format(time.RFC3339Nano)
	}
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	rec := iface.Record{
		Locator:  locator(ref),
		Version:  ref.Version,
		Cipher:   p.aead.Seal(nil, nonce, value, additionalData(ref)),
		Nonce:    nonce,
		Metadata: map[string]any{"service": ref.Service},
	}
	if err := p.store.Put(ctx, rec); err != nil {
		return "", translateStoreError(err)
	}
	return ref.Version, nil
}

func (p *EncryptedStoreProvider) Delete(ctx context.Context, ref Reference) error {
	if err := ValidateReference(ref); err != nil {
		return err
	}
	return translateStoreError(p.store.Delete(ctx, locator(ref)))
}

func (p *EncryptedStoreProvider) Describe(ctx context.Context, ref Reference) (map[string]any, error) {
	if err := ValidateReference(ref); err != nil {
		return nil, err
	}
	rec, err := p.store.Latest(ctx, locator(ref))
	if err != nil {
		return nil, translateStoreError(err)
	}
	return map[string]any{
		"version":    rec.Version,
		"updated_at": rec.UpdatedAt,
		"meta":       rec.Metadata,
	}, nil
}

func locator(ref Reference) iface.Locator {
	return iface.Locator{
		Scope:     string(ref.Scope),
		SubjectID: ref.SubjectID,
		Service:   ref.Service,
		Key:       ref.Key,
	}
}

// additionalData binds the ciphertext to its locator so records cannot be swapped.
func additionalData(ref Reference) []byte {
	return []byte(baseKey(Reference{Scope: ref.Scope, SubjectID: ref.SubjectID, Service: ref.Service, Key: ref.Key}))
}

func translateStoreError(err error) error {
	if errors.Is(err, iface.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
