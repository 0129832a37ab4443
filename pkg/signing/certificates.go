package signing

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-signdesk/pkg/domain"
	"github.com/google/uuid"
)

const testIssuer = "AC SOLUTI Multipla v5"

// GenerateTestCertificate builds the mock certificate offered by the dashboard
// "add" action: a random subject, serial and thumbprint valid for one year
// from the start of today. An empty typ means TEST.
func GenerateTestCertificate(r *rand.Rand, now time.Time, typ domain.CertificateType) domain.Certificate {
	if r == nil {
		r = rand.New(rand.NewPCG(uint64(now.UnixNano()), 0))
	}
	if typ == "" {
		typ = domain.CertificateTest
	}
	source := domain.SourceToken
	if typ == domain.CertificateA1 {
		source = domain.SourceFile
	}
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return domain.Certificate{
		ID:           uuid.NewString(),
		Type:         typ,
		Source:       source,
		SubjectName:  "USUARIO TESTE " + strconv.Itoa(r.IntN(1000)) + ":12345678900",
		IssuerName:   testIssuer,
		SerialNumber: strings.ToUpper(strconv.FormatUint(r.Uint64(), 16)),
		ValidFrom:    day,
		ValidTo:      day.AddDate(1, 0, 0),
		Thumbprint:   "SHA256:" + strconv.FormatUint(r.Uint64(), 36),
		IsTest:       typ == domain.CertificateTest,
		CreatedAt:    now,
	}
}
