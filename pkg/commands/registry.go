package commands

import (
	command "github.com/goliatone/go-command"
	internalcommands "github.com/goliatone/go-signdesk/internal/commands"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/records"
	"github.com/goliatone/go-signdesk/pkg/settings"
	"github.com/goliatone/go-signdesk/pkg/signing"
)

// Re-export request types so consumers need not import internal packages.
type (
	AddCertificate       = internalcommands.AddCertificate
	RemoveCertificate    = internalcommands.RemoveCertificate
	SignDocument         = internalcommands.SignDocument
	RemoveDocument       = internalcommands.RemoveDocument
	MarkDocumentBackedUp = internalcommands.MarkDocumentBackedUp
	CreateSeal           = internalcommands.CreateSeal
	RemoveSeal           = internalcommands.RemoveSeal
	ClearAuditLog        = internalcommands.ClearAuditLog
	UpdateSetting        = internalcommands.UpdateSetting
)

// Registry exposes go-command compatible handlers backed by the module services.
type Registry struct {
	Catalog              *internalcommands.Catalog
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

// Dependencies mirror the internal command dependencies but keep them public.
type Dependencies struct {
	Records  *records.Store
	Signing  *signing.Service
	Settings *settings.Store
	Logger   logger.Logger
}

// New builds the registry using the provided dependencies.
func New(deps Dependencies) (*Registry, error) {
	internal := internalcommands.Dependencies{Logger: deps.Logger}
	// Typed nil pointers must not reach the interface checks.
	if deps.Records != nil {
		internal.Records = deps.Records
	}
	if deps.Signing != nil {
		internal.Signing = deps.Signing
	}
	if deps.Settings != nil {
		internal.Settings = deps.Settings
	}
	catalog, err := internalcommands.NewCatalog(internal)
	if err != nil {
		return nil, err
	}
	return &Registry{
		Catalog:              catalog,
		AddCertificate:       catalog.AddCertificate,
		RemoveCertificate:    catalog.RemoveCertificate,
		SignDocument:         catalog.SignDocument,
		RemoveDocument:       catalog.RemoveDocument,
		MarkDocumentBackedUp: catalog.MarkDocumentBackedUp,
		CreateSeal:           catalog.CreateSeal,
		RemoveSeal:           catalog.RemoveSeal,
		ClearAuditLog:        catalog.ClearAuditLog,
		UpdateSetting:        catalog.UpdateSetting,
	}, nil
}

// Commanders returns every handler so callers can register them with go-command registries.
func (r *Registry) Commanders() []any {
	if r == nil {
		return nil
	}
	return []any{
		r.AddCertificate,
		r.RemoveCertificate,
		r.SignDocument,
		r.RemoveDocument,
		r.MarkDocumentBackedUp,
		r.CreateSeal,
		r.RemoveSeal,
		r.ClearAuditLog,
		r.UpdateSetting,
	}
}
