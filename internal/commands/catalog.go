package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-signdesk/pkg/domain"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/signing"
)

// Catalog exposes go-command compatible handlers for every dashboard mutation.
type Catalog struct {
	AddCertificate       command.Commander[AddCertificate]
	RemoveCertificate    command.Commander[RemoveCertificate]
	SignDocument         command.Commander[SignDocument]
	RemoveDocument       command.Commander[RemoveDocument]
	MarkDocumentBackedUp command.Commander[MarkDocumentBackedUp]
	CreateSeal           command.Commander[CreateSeal]
	RemoveSeal           command.Commander[RemoveSeal]
	ClearAuditLog        command.Commander[ClearAuditLog]
	UpdateSetting        command.Commander[UpdateSetting]
}

type recordService interface {
	AddCertificate(ctx context.Context, cert domain.Certificate) error
	RemoveCertificate(ctx context.Context, id string) error
	UpdateDocument(ctx context.Context, id string, patch domain.DocumentPatch) (domain.SignedDocument, error)
	RemoveDocument(ctx context.Context, id string) error
	AddSeal(ctx context.Context, seal domain.SignatureSeal) error
	RemoveSeal(ctx context.Context, id string) error
	ClearAuditLog(ctx context.Context) error
}

type signingService interface {
	Sign(ctx context.Context, req signing.SignRequest) (signing.SignOutcome, error)
}

type settingsService interface {
	Set(ctx context.Context, userID, path string, value any) error
	Unset(ctx context.Context, userID, path string) error
}

// Dependencies wires services into the command catalog.
type Dependencies struct {
	Records  recordService
	Signing  signingService
	Settings settingsService
	Clock    func() time.Time
	Logger   logger.Logger
}

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Records == nil {
		return nil, errors.New("commands: records service is required")
	}
	if deps.Signing == nil {
		return nil, errors.New("commands: signing service is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("commands: settings service is required")
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}

	return &Catalog{
		AddCertificate:       certificateAddCommand{records: deps.Records, clock: deps.Clock},
		RemoveCertificate:    certificateRemoveCommand{records: deps.Records},
		SignDocument:         documentSignCommand{signing: deps.Signing, logger: deps.Logger},
		RemoveDocument:       documentRemoveCommand{records: deps.Records},
		MarkDocumentBackedUp: documentBackupCommand{records: deps.Records},
		CreateSeal:           sealCreateCommand{records: deps.Records},
		RemoveSeal:           sealRemoveCommand{records: deps.Records},
		ClearAuditLog:        auditClearCommand{records: deps.Records},
		UpdateSetting:        settingUpdateCommand{settings: deps.Settings},
	}, nil
}

// AddCertificate registers a certificate. With Generate set a mock
// certificate of Type is created instead and written back to Certificate.
type AddCertificate struct {
	Certificate *domain.Certificate    `json:"certificate"`
	Generate    bool                   `json:"generate"`
	Type        domain.CertificateType `json:"type"`
}

type certificateAddCommand struct {
	records recordService
	clock   func() time.Time
}

func (c certificateAddCommand) Execute(ctx context.Context, msg AddCertificate) error {
	if msg.Generate {
		cert := signing.GenerateTestCertificate(nil, c.clock(), msg.Type)
		if err := c.records.AddCertificate(ctx, cert); err != nil {
			return err
		}
		if msg.Certificate != nil {
			*msg.Certificate = cert
		}
		return nil
	}
	if msg.Certificate == nil {
		return errors.New("commands: certificate is required")
	}
	return c.records.AddCertificate(ctx, *msg.Certificate)
}

// RemoveCertificate deletes a certificate by id.
type RemoveCertificate struct {
	ID string `json:"id"`
}

type certificateRemoveCommand struct {
	records recordService
}

func (c certificateRemoveCommand) Execute(ctx context.Context, msg RemoveCertificate) error {
	if strings.TrimSpace(msg.ID) == "" {
		return errors.New("commands: certificate id is required")
	}
	return c.records.RemoveCertificate(ctx, msg.ID)
}

// SignDocument runs the signing flow. The outcome is written to Result when set.
type SignDocument struct {
	signing.SignRequest
	Result *signing.SignOutcome `json:"-"`
}

type documentSignCommand struct {
	signing signingService
	logger  logger.Logger
}

func (c documentSignCommand) Execute(ctx context.Context, msg SignDocument) error {
	outcome, err := c.signing.Sign(ctx, msg.SignRequest)
	if err != nil {
		return err
	}
	if outcome.BackupErr != nil {
		c.logger.Warn("document signed without backup",
			logger.F("document_id", outcome.Document.ID),
			logger.F("error", outcome.BackupErr),
		)
	}
	if msg.Result != nil {
		*msg.Result = outcome
	}
	return nil
}

// RemoveDocument deletes a signed document record.
type RemoveDocument struct {
	ID string `json:"id"`
}

type documentRemoveCommand struct {
	records recordService
}

func (c documentRemoveCommand) Execute(ctx context.Context, msg RemoveDocument) error {
	if strings.TrimSpace(msg.ID) == "" {
		return errors.New("commands: document id is required")
	}
	return c.records.RemoveDocument(ctx, msg.ID)
}

// MarkDocumentBackedUp records an external backup of a signed document.
type MarkDocumentBackedUp struct {
	ID             string `json:"id"`
	ExternalFileID string `json:"external_file_id"`
}

type documentBackupCommand struct {
	records recordService
}

func (c documentBackupCommand) Execute(ctx context.Context, msg MarkDocumentBackedUp) error {
	if strings.TrimSpace(msg.ID) == "" {
		return errors.New("commands: document id is required")
	}
	_, err := c.records.UpdateDocument(ctx, msg.ID, domain.BackedUp(msg.ExternalFileID))
	return err
}

// CreateSeal stores a custom seal.
type CreateSeal struct {
	Seal domain.SignatureSeal `json:"seal"`
}

type sealCreateCommand struct {
	records recordService
}

func (c sealCreateCommand) Execute(ctx context.Context, msg CreateSeal) error {
	return c.records.AddSeal(ctx, msg.Seal)
}

// RemoveSeal deletes a custom seal.
type RemoveSeal struct {
	ID string `json:"id"`
}

type sealRemoveCommand struct {
	records recordService
}

func (c sealRemoveCommand) Execute(ctx context.Context, msg RemoveSeal) error {
	if strings.TrimSpace(msg.ID) == "" {
		return errors.New("commands: seal id is required")
	}
	return c.records.RemoveSeal(ctx, msg.ID)
}

// ClearAuditLog empties the audit trail.
type ClearAuditLog struct{}

type auditClearCommand struct {
	records recordService
}

func (c auditClearCommand) Execute(ctx context.Context, _ ClearAuditLog) error {
	return c.records.ClearAuditLog(ctx)
}

// UpdateSetting stores or, with Unset, drops a user override.
type UpdateSetting struct {
	UserID string `json:"user_id"`
	Path   string `json:"path"`
	Value  any    `json:"value"`
	Unset  bool   `json:"unset"`
}

type settingUpdateCommand struct {
	settings settingsService
}

func (c settingUpdateCommand) Execute(ctx context.Context, msg UpdateSetting) error {
	if msg.Unset {
		return c.settings.Unset(ctx, msg.UserID, msg.Path)
	}
	return c.settings.Set(ctx, msg.UserID, msg.Path, msg.Value)
}
