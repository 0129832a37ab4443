package signing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-signdesk/pkg/clients/filestorage"
	"github.com/goliatone/go-signdesk/pkg/domain"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/records"
	"github.com/google/uuid"
)

// DefaultSignerName is recorded when no certificate is selected.
const DefaultSignerName = "Signatário"

// Uploader backs signed files up to external storage.
type Uploader interface {
	Connected(ctx context.Context) bool
	UploadFile(ctx context.Context, content []byte, name, mimeType string) (filestorage.UploadedFile, error)
}

// Explainer turns a validation result into prose.
type Explainer interface {
	ExplainValidation(ctx context.Context, document string, result any) string
}

// Dependencies wires the signing service.
type Dependencies struct {
	Records     *records.Store
	Signer      SigningBackend
	Validator   ValidationBackend
	Uploader    Uploader
	Explainer   Explainer
	MaxFileSize int64
	Clock       func() time.Time
	NewID       func() string
	Logger      logger.Logger
}

// Service runs the sign and validate flows.
type Service struct {
	records     *records.Store
	signer      SigningBackend
	validator   ValidationBackend
	uploader    Uploader
	explainer   Explainer
	maxFileSize int64
	clock       func() time.Time
	newID       func() string
	logger      logger.Logger
}

func New(deps Dependencies) (*Service, error) {
	if deps.Records == nil {
		return nil, errors.New("signing: records store is required")
	}
	if deps.Signer == nil && deps.Validator == nil {
		backend := &SimulatedBackend{ValidRate: 0.85}
		deps.Signer, deps.Validator = backend, backend
	}
	if deps.Signer == nil {
		return nil, errors.New("signing: signing backend is required")
	}
	if deps.Validator == nil {
		return nil, errors.New("signing: validation backend is required")
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Service{
		records:     deps.Records,
		signer:      deps.Signer,
		validator:   deps.Validator,
		uploader:    deps.Uploader,
		explainer:   deps.Explainer,
		maxFileSize: deps.MaxFileSize,
		clock:       deps.Clock,
		newID:       deps.NewID,
		logger:      deps.Logger,
	}, nil
}

// SignRequest is a user's request to sign a file.
type SignRequest struct {
	FileName      string
	ContentType   string
	Content       []byte
	CertificateID string
	SealID        string
	PIN           string
	Backup        bool
}

// SignOutcome reports the stored document and the backup attempt.
type SignOutcome struct {
	Document  domain.SignedDocument
	Signed    []byte
	BackedUp  bool
	BackupErr error
}

// Sign signs the file, records the document and, when asked and connected,
// backs the signed file up. A failed backup leaves the document recorded.
func (s *Service) Sign(ctx context.Context, req SignRequest) (SignOutcome, error) {
	if err := domain.ValidateFile(req.FileName, req.ContentType, int64(len(req.Content)), s.maxFileSize); err != nil {
		return SignOutcome{}, err
	}
	if strings.TrimSpace(req.PIN) == "" {
		return SignOutcome{}, &domain.ValidationError{Field: "pin", Message: "is required"}
	}

	signerName := DefaultSignerName
	var cert domain.Certificate
	if req.CertificateID != "" {
		found, err := s.records.Certificate(ctx, req.CertificateID)
		if err != nil {
			return SignOutcome{}, fmt.Errorf("signing: certificate: %w", err)
		}
		if found.Expired(s.clock()) {
			return SignOutcome{}, &domain.ValidationError{Field: "certificate", Message: "is expired"}
		}
		cert = found
		signerName = found.SubjectName
	}

	var seal *domain.SignatureSeal
	if req.SealID != "" {
		found, err := s.records.Seal(ctx, req.SealID)
		if err != nil {
			return SignOutcome{}, fmt.Errorf("signing: seal: %w", err)
		}
		seal = &found
	}

	result, err := s.signer.Sign(ctx, SigningRequest{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Content:     req.Content,
		Certificate: cert,
		Seal:        seal,
		PIN:         req.PIN,
	})
	if err != nil {
		return SignOutcome{}, fmt.Errorf("signing: sign: %w", err)
	}
	signedAt := result.SignedAt
	if signedAt.IsZero() {
		signedAt = s.clock()
	}

	doc := domain.SignedDocument{
		ID:               s.newID(),
		OriginalFileName: req.FileName,
		SignedFileName:   domain.SignedFileName(domain.SanitizeFileName(req.FileName)),
		FileType:         domain.FileTypeFromName(req.FileName),
		FileSize:         int64(len(req.Content)),
		SignedAt:         signedAt,
		Status:           result.Status,
		SignerName:       signerName,
	}
	if err := s.records.AddDocument(ctx, doc); err != nil {
		return SignOutcome{}, err
	}
	outcome := SignOutcome{Document: doc, Signed: result.Content}

	if !req.Backup || s.uploader == nil || !s.uploader.Connected(ctx) {
		return outcome, nil
	}
	uploaded, err := s.uploader.UploadFile(ctx, result.Content, doc.SignedFileName, req.ContentType)
	if err != nil {
		s.logger.Warn("signed document backup failed", logger.F("document_id", doc.ID), logger.F("error", err))
		outcome.BackupErr = err
		return outcome, nil
	}
	updated, err := s.records.UpdateDocument(ctx, doc.ID, domain.BackedUp(uploaded.ID))
	if err != nil {
		outcome.BackupErr = err
		return outcome, nil
	}
	outcome.Document = updated
	outcome.BackedUp = true
	return outcome, nil
}

// ValidateRequest submits a signed file for verification.
type ValidateRequest struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Validation couples the technical verdict with its explanation.
type Validation struct {
	Result      ValidationResult
	Explanation string
}

func (s *Service) Validate(ctx context.Context, req ValidateRequest) (Validation, error) {
	if err := domain.ValidateFile(req.FileName, req.ContentType, int64(len(req.Content)), s.maxFileSize); err != nil {
		return Validation{}, err
	}
	result, err := s.validator.Validate(ctx, ValidationRequest{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Content:     req.Content,
	})
	if err != nil {
		return Validation{}, fmt.Errorf("signing: validate: %w", err)
	}
	out := Validation{Result: result}
	if s.explainer != nil {
		document := fmt.Sprintf("Arquivo: %s, Tamanho: %d bytes, Tipo: %s", req.FileName, len(req.Content), req.ContentType)
		out.Explanation = s.explainer.ExplainValidation(ctx, document, result)
	}
	return out, nil
}
