package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-signdesk/internal/storage/memory"
	"github.com/goliatone/go-signdesk/pkg/config"
	"github.com/goliatone/go-signdesk/pkg/domain"
	"github.com/goliatone/go-signdesk/pkg/interfaces/store"
	"github.com/goliatone/go-signdesk/pkg/records"
	"github.com/goliatone/go-signdesk/pkg/settings"
	"github.com/goliatone/go-signdesk/pkg/signing"
)

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestCatalog(t *testing.T) (*Catalog, *records.Store, *settings.Store) {
	t.Helper()
	storage := memory.New()
	recs, err := records.New(records.Dependencies{Storage: storage, Clock: func() time.Time { return testNow }})
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	svc, err := signing.New(signing.Dependencies{
		Records:   recs,
		Signer:    signing.StaticBackend{SignedAt: testNow},
		Validator: signing.StaticBackend{},
		Clock:     func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	prefs, err := settings.New(settings.Dependencies{Storage: storage, Config: config.Defaults()})
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	cat, err := NewCatalog(Dependencies{
		Records:  recs,
		Signing:  svc,
		Settings: prefs,
		Clock:    func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat, recs, prefs
}

func TestCatalogCommands(t *testing.T) {
	ctx := context.Background()
	cat, recs, prefs := newTestCatalog(t)

	var cert domain.Certificate
	if err := cat.AddCertificate.Execute(ctx, AddCertificate{Generate: true, Certificate: &cert}); err != nil {
		t.Fatalf("add certificate: %v", err)
	}
	if cert.ID == "" || cert.Type != domain.CertificateTest {
		t.Fatalf("generated certificate not returned: %+v", cert)
	}

	var outcome signing.SignOutcome
	err := cat.SignDocument.Execute(ctx, SignDocument{
		SignRequest: signing.SignRequest{
			FileName:      "contrato.pdf",
			ContentType:   "application/pdf",
			Content:       []byte("%PDF"),
			CertificateID: cert.ID,
			PIN:           "0000",
		},
		Result: &outcome,
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if outcome.Document.SignerName != cert.SubjectName {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	if err := cat.MarkDocumentBackedUp.Execute(ctx, MarkDocumentBackedUp{ID: outcome.Document.ID, ExternalFileID: "drive-9"}); err != nil {
		t.Fatalf("mark backed up: %v", err)
	}
	doc, err := recs.Document(ctx, outcome.Document.ID)
	if err != nil || !doc.IsBackedUp || doc.ExternalFileID != "drive-9" {
		t.Fatalf("document not marked: %+v %v", doc, err)
	}

	seal := domain.BuiltinSeals()[0]
	seal.ID = "custom-1"
	seal.Name = "Selo Jurídico"
	if err := cat.CreateSeal.Execute(ctx, CreateSeal{Seal: seal}); err != nil {
		t.Fatalf("create seal: %v", err)
	}
	if err := cat.RemoveSeal.Execute(ctx, RemoveSeal{ID: "custom-1"}); err != nil {
		t.Fatalf("remove seal: %v", err)
	}
	if err := cat.RemoveDocument.Execute(ctx, RemoveDocument{ID: doc.ID}); err != nil {
		t.Fatalf("remove document: %v", err)
	}
	if err := cat.RemoveCertificate.Execute(ctx, RemoveCertificate{ID: cert.ID}); err != nil {
		t.Fatalf("remove certificate: %v", err)
	}

	logs, _ := recs.AuditLogs(ctx)
	if len(logs) != 7 {
		t.Fatalf("expected 7 audit entries, got %d", len(logs))
	}
	if err := cat.ClearAuditLog.Execute(ctx, ClearAuditLog{}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if logs, _ := recs.AuditLogs(ctx); len(logs) != 0 {
		t.Fatalf("expected empty trail, got %d", len(logs))
	}

	if err := cat.UpdateSetting.Execute(ctx, UpdateSetting{UserID: "u1", Path: settings.KeyAccountID, Value: "acc-1"}); err != nil {
		t.Fatalf("update setting: %v", err)
	}
	if account, _ := prefs.AccountID(ctx, "u1"); account != "acc-1" {
		t.Fatalf("expected acc-1, got %q", account)
	}
}

func TestCatalogValidation(t *testing.T) {
	ctx := context.Background()
	cat, _, _ := newTestCatalog(t)

	if err := cat.AddCertificate.Execute(ctx, AddCertificate{}); err == nil {
		t.Fatalf("expected error without certificate")
	}
	if err := cat.RemoveCertificate.Execute(ctx, RemoveCertificate{}); err == nil {
		t.Fatalf("expected error without id")
	}
	if err := cat.RemoveDocument.Execute(ctx, RemoveDocument{ID: "missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := cat.RemoveSeal.Execute(ctx, RemoveSeal{ID: domain.NativeSealID}); !errors.Is(err, records.ErrBuiltinSeal) {
		t.Fatalf("expected ErrBuiltinSeal, got %v", err)
	}

	if _, err := NewCatalog(Dependencies{}); err == nil {
		t.Fatalf("expected dependency error")
	}
}
