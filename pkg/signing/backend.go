package signing

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/goliatone/go-signdesk/pkg/domain"
)

// SigningRequest carries everything a backend needs to sign a file.
type SigningRequest struct {
	FileName    string
	ContentType string
	Content     []byte
	Certificate domain.Certificate
	Seal        *domain.SignatureSeal
	PIN         string
}

// SigningResult is the backend output for a signed file.
type SigningResult struct {
	Status   domain.DocumentStatus
	Content  []byte
	SignedAt time.Time
}

// SigningBackend produces a signature for a file.
type SigningBackend interface {
	Sign(ctx context.Context, req SigningRequest) (SigningResult, error)
}

// ValidationRequest describes a signed file submitted for verification.
type ValidationRequest struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ValidationResult is the technical verdict on a signed file.
type ValidationResult struct {
	IsValid    bool      `json:"isValid"`
	Timestamp  time.Time `json:"timestamp"`
	Signer     string    `json:"signer"`
	Issuer     string    `json:"issuer"`
	Integrity  bool      `json:"integrity"`
	Expired    bool      `json:"expired"`
	OCSP       string    `json:"ocsp"`
	TrustChain string    `json:"trustChain"`
}

// ValidationBackend verifies signatures.
type ValidationBackend interface {
	Validate(ctx context.Context, req ValidationRequest) (ValidationResult, error)
}

// SimulatedBackend stands in for a real signing device. It waits for Delay,
// signs everything and reports a file valid with probability ValidRate.
type SimulatedBackend struct {
	Delay     time.Duration
	ValidRate float64
	Rand      *rand.Rand
	Now       func() time.Time

	mu sync.Mutex
}

var (
	_ SigningBackend    = (*SimulatedBackend)(nil)
	_ ValidationBackend = (*SimulatedBackend)(nil)
)

func (b *SimulatedBackend) Sign(ctx context.Context, req SigningRequest) (SigningResult, error) {
	if err := wait(ctx, b.Delay); err != nil {
		return SigningResult{}, err
	}
	return SigningResult{
		Status:   domain.StatusValid,
		Content:  req.Content,
		SignedAt: b.now(),
	}, nil
}

func (b *SimulatedBackend) Validate(ctx context.Context, req ValidationRequest) (ValidationResult, error) {
	if err := wait(ctx, b.Delay); err != nil {
		return ValidationResult{}, err
	}
	return ValidationResult{
		IsValid:    b.float() < b.ValidRate,
		Timestamp:  b.now(),
		Signer:     "JOAO DA SILVA:12345678900",
		Issuer:     "AC SOLUTI Multipla v5",
		Integrity:  true,
		OCSP:       "REVOCATION_CHECK_OK",
		TrustChain: "VALID_CHAIN",
	}, nil
}

func (b *SimulatedBackend) float() float64 {
	if b.Rand == nil {
		return rand.Float64()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Rand.Float64()
}

func (b *SimulatedBackend) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now().UTC()
}

// StaticBackend returns fixed results.
type StaticBackend struct {
	Status     domain.DocumentStatus
	SignedAt   time.Time
	Validation ValidationResult
	Err        error
}

func (b StaticBackend) Sign(_ context.Context, req SigningRequest) (SigningResult, error) {
	if b.Err != nil {
		return SigningResult{}, b.Err
	}
	status := b.Status
	if status == "" {
		status = domain.StatusValid
	}
	return SigningResult{Status: status, Content: req.Content, SignedAt: b.SignedAt}, nil
}

func (b StaticBackend) Validate(context.Context, ValidationRequest) (ValidationResult, error) {
	if b.Err != nil {
		return ValidationResult{}, b.Err
	}
	return b.Validation, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
