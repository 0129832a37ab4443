package records

import (
	"context"
	"fmt"

	"github.com/goliatone/go-signdesk/pkg/activity"
	"github.com/goliatone/go-signdesk/pkg/domain"
)

func (s *Store) certificateMutation(verb string) mutation[domain.Certificate] {
	return mutation[domain.Certificate]{part: s.certificates, verb: verb, entityType: domain.EntityCertificate}
}

// Certificates returns the stored certificates in insertion order.
func (s *Store) Certificates(ctx context.Context) ([]domain.Certificate, error) {
	certs, err := s.certificates.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	return certs, nil
}

// Certificate returns one certificate or store.ErrNotFound.
func (s *Store) Certificate(ctx context.Context, id string) (domain.Certificate, error) {
	return find(ctx, s.certificates, domain.EntityCertificate, id)
}

// AddCertificate validates and appends a certificate.
func (s *Store) AddCertificate(ctx context.Context, cert domain.Certificate) error {
	m := s.certificateMutation(activity.VerbCertificateLoaded)
	if err := cert.Validate(); err != nil {
		return m.fail(ctx, s, cert.ID, err)
	}
	return add(ctx, s, m, cert.ID, cert)
}

// RemoveCertificate drops the certificate with the given id.
func (s *Store) RemoveCertificate(ctx context.Context, id string) error {
	return remove(ctx, s, s.certificateMutation(activity.VerbCertificateRemoved), id)
}
