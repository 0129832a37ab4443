package records

import (
	"context"
	"time"

	"github.com/goliatone/go-signdesk/pkg/domain"
)

// ExpiryWindow is how far ahead Stats looks for expiring certificates.
const ExpiryWindow = 30 * 24 * time.Hour

// Stats summarises the store for the dashboard.
type Stats struct {
	Documents            int
	BackedUpDocuments    int
	Certificates         int
	ExpiredCertificates  int
	CustomSeals          int
	AuditLogs            int
	ExpiringCertificates []domain.Certificate
}

// Stats counts every partition at now.
func (s *Store) Stats(ctx context.Context, now time.Time) (Stats, error) {
	docs, err := s.Documents(ctx)
	if err != nil {
		return Stats{}, err
	}
	certs, err := s.Certificates(ctx)
	if err != nil {
		return Stats{}, err
	}
	seals, err := s.CustomSeals(ctx)
	if err != nil {
		return Stats{}, err
	}
	logs, err := s.AuditLogs(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Documents:            len(docs),
		Certificates:         len(certs),
		CustomSeals:          len(seals),
		AuditLogs:            len(logs),
		ExpiringCertificates: []domain.Certificate{},
	}
	for _, doc := range docs {
		if doc.IsBackedUp {
			stats.BackedUpDocuments++
		}
	}
	for _, cert := range certs {
		switch {
		case cert.Expired(now):
			stats.ExpiredCertificates++
		case cert.ExpiresWithin(now, ExpiryWindow):
			stats.ExpiringCertificates = append(stats.ExpiringCertificates, cert)
		}
	}
	return stats, nil
}
