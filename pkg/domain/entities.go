package domain

import (
	"time"
)

// CertificateType identifies how a certificate is provisioned.
type CertificateType string

const (
	CertificateA1   CertificateType = "A1"
	CertificateA3   CertificateType = "A3"
	CertificateTest CertificateType = "TEST"
)

// CertificateSource identifies where the private key lives.
type CertificateSource string

const (
	SourceFile      CertificateSource = "FILE"
	SourceToken     CertificateSource = "TOKEN"
	SourceSmartcard CertificateSource = "SMARTCARD"
)

// FileType is the signed artefact format.
type FileType string

const (
	FilePDF FileType = "PDF"
	FileXML FileType = "XML"
)

// DocumentStatus is the signature status recorded at signing time.
type DocumentStatus string

const (
	StatusValid   DocumentStatus = "VALID"
	StatusExpired DocumentStatus = "EXPIRED"
	StatusRevoked DocumentStatus = "REVOKED"
	StatusInvalid DocumentStatus = "INVALID"
)

// AuditResult marks the outcome of an audited action.
type AuditResult string

const (
	ResultSuccess AuditResult = "SUCCESS"
	ResultFailure AuditResult = "FAILURE"
)

// Entity types recorded on audit entries.
const (
	EntityCertificate = "CERTIFICATE"
	EntityDocument    = "DOCUMENT"
	EntitySeal        = "SEAL"
)

// Certificate is a signing identity registered in the dashboard. Records are
// immutable once stored; they are only added or removed.
type Certificate struct {
	ID           string            `json:"id"`
	Type         CertificateType   `json:"type"`
	Source       CertificateSource `json:"source"`
	SubjectName  string            `json:"subjectName"`
	IssuerName   string            `json:"issuerName"`
	SerialNumber string            `json:"serialNumber"`
	ValidFrom    time.Time         `json:"validFrom"`
	ValidTo      time.Time         `json:"validTo"`
	Thumbprint   string            `json:"thumbprint"`
	IsTest       bool              `json:"isTest"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Expired reports whether the certificate is past its validity window at now.
func (c Certificate) Expired(now time.Time) bool {
	return !c.ValidTo.IsZero() && now.After(c.ValidTo)
}

// ExpiresWithin reports whether the certificate is still valid at now and
// expires no later than now+window.
func (c Certificate) ExpiresWithin(now time.Time, window time.Duration) bool {
	if c.ValidTo.IsZero() || c.Expired(now) {
		return false
	}
	return !c.ValidTo.After(now.Add(window))
}

// SignedDocument records a completed signing operation.
type SignedDocument struct {
	ID               string         `json:"id"`
	OriginalFileName string         `json:"originalFileName"`
	SignedFileName   string         `json:"signedFileName"`
	FileType         FileType       `json:"fileType"`
	FileSize         int64          `json:"fileSize"`
	SignedAt         time.Time      `json:"signedAt"`
	Status           DocumentStatus `json:"status"`
	SignerName       string         `json:"signerName"`
	IsBackedUp       bool           `json:"isBackedUp"`
	ExternalFileID   string         `json:"externalFileId,omitempty"`
}

// DocumentPatch is the only partial update allowed on a signed document.
// Nil fields are left untouched.
type DocumentPatch struct {
	IsBackedUp     *bool   `json:"isBackedUp,omitempty"`
	ExternalFileID *string `json:"externalFileId,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p DocumentPatch) Empty() bool {
	return p.IsBackedUp == nil && p.ExternalFileID == nil
}

// Apply merges the patch into doc. The backup flag only moves from false to true.
func (p DocumentPatch) Apply(doc SignedDocument) (SignedDocument, error) {
	if p.IsBackedUp != nil {
		if doc.IsBackedUp && !*p.IsBackedUp {
			return doc, ErrInvalidTransition
		}
		doc.IsBackedUp = *p.IsBackedUp
	}
	if p.ExternalFileID != nil {
		doc.ExternalFileID = *p.ExternalFileID
	}
	return doc, nil
}

// BackedUp builds the patch applied after a successful upload to file storage.
func BackedUp(externalFileID string) DocumentPatch {
	flag := true
	return DocumentPatch{IsBackedUp: &flag, ExternalFileID: &externalFileID}
}

// AuditLog is an append-only record of a mutation.
type AuditLog struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Action     string      `json:"action"`
	EntityType string      `json:"entityType"`
	EntityID   string      `json:"entityId"`
	Result     AuditResult `json:"result"`
	Details    string      `json:"details"`
}
