package records

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-signdesk/internal/storage/memory"
	"github.com/goliatone/go-signdesk/pkg/activity"
	"github.com/goliatone/go-signdesk/pkg/domain"
	"github.com/goliatone/go-signdesk/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
	"github.com/goliatone/go-signdesk/pkg/interfaces/store"
)

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, storage kv.Storage, hooks ...activity.Hook) *Store {
	t.Helper()
	s, err := New(Dependencies{
		Storage:  storage,
		Activity: hooks,
		Clock:    func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func testCertificate(id string) domain.Certificate {
	return domain.Certificate{
		ID:          id,
		Type:        domain.CertificateA1,
		Source:      domain.SourceFile,
		SubjectName: "ACME LTDA:12345678000199",
		IssuerName:  "AC Teste",
		ValidFrom:   testNow.AddDate(-1, 0, 0),
		ValidTo:     testNow.AddDate(1, 0, 0),
		CreatedAt:   testNow,
	}
}

func testDocument(id string, signedAt time.Time) domain.SignedDocument {
	return domain.SignedDocument{
		ID:               id,
		OriginalFileName: "contrato.pdf",
		SignedFileName:   domain.SignedFileName("contrato.pdf"),
		FileType:         domain.FilePDF,
		FileSize:         2048,
		SignedAt:         signedAt,
		Status:           domain.StatusValid,
		SignerName:       "Ana",
	}
}

func testSeal(id string) domain.SignatureSeal {
	seal := domain.BuiltinSeals()[0]
	seal.ID = id
	seal.Name = "Selo Jurídico"
	seal.CreatedAt = time.Time{}
	seal.UpdatedAt = time.Time{}
	return seal
}

func TestCertificateScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())

	cert := testCertificate("c1")
	if err := s.AddCertificate(ctx, cert); err != nil {
		t.Fatalf("add: %v", err)
	}
	certs, err := s.Certificates(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(certs) != 1 || !reflect.DeepEqual(certs[0], cert) {
		t.Fatalf("expected [c1], got %+v", certs)
	}
	logs, _ := s.AuditLogs(ctx)
	if len(logs) != 1 || logs[0].EntityType != domain.EntityCertificate || logs[0].Result != domain.ResultSuccess || logs[0].EntityID != "c1" {
		t.Fatalf("unexpected audit after add: %+v", logs)
	}

	if err := s.RemoveCertificate(ctx, "c1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	certs, _ = s.Certificates(ctx)
	if len(certs) != 0 {
		t.Fatalf("expected empty list, got %+v", certs)
	}
	logs, _ = s.AuditLogs(ctx)
	if len(logs) != 2 || logs[0].Action != activity.VerbCertificateRemoved || logs[1].Action != activity.VerbCertificateLoaded {
		t.Fatalf("unexpected audit after remove: %+v", logs)
	}
}

func TestRemoveMissingIDFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())
	if err := s.AddDocument(ctx, testDocument("d1", testNow)); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := s.RemoveDocument(ctx, "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	docs, _ := s.Documents(ctx)
	if len(docs) != 1 {
		t.Fatalf("collection changed: %+v", docs)
	}
	logs, _ := s.AuditLogs(ctx)
	if len(logs) != 2 || logs[0].Result != domain.ResultFailure || logs[0].EntityID != "nope" {
		t.Fatalf("expected FAILURE audit entry, got %+v", logs)
	}
}

func TestAddDuplicateAndInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())
	cert := testCertificate("c1")
	if err := s.AddCertificate(ctx, cert); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddCertificate(ctx, cert); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	bad := testCertificate("c2")
	bad.SubjectName = ""
	if err := s.AddCertificate(ctx, bad); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	certs, _ := s.Certificates(ctx)
	if len(certs) != 1 {
		t.Fatalf("expected single certificate, got %d", len(certs))
	}
	logs, _ := s.AuditLogs(ctx)
	if len(logs) != 3 || logs[0].Result != domain.ResultFailure || logs[1].Result != domain.ResultFailure {
		t.Fatalf("expected two failures on top, got %+v", logs)
	}
}

func TestUpdateDocument(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())
	first := testDocument("d1", testNow)
	second := testDocument("d2", testNow.Add(time.Minute))
	for _, doc := range []domain.SignedDocument{first, second} {
		if err := s.AddDocument(ctx, doc); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	updated, err := s.UpdateDocument(ctx, "d1", domain.BackedUp("drive-9"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := first
	want.IsBackedUp = true
	want.ExternalFileID = "drive-9"
	if !reflect.DeepEqual(updated, want) {
		t.Fatalf("unexpected update result %+v", updated)
	}
	docs, _ := s.Documents(ctx)
	if !reflect.DeepEqual(docs, []domain.SignedDocument{want, second}) {
		t.Fatalf("only d1 should change, got %+v", docs)
	}

	logs, _ := s.AuditLogs(ctx)
	if logs[0].Action != activity.VerbDocumentUpdated || logs[0].Result != domain.ResultSuccess {
		t.Fatalf("update should be audited, got %+v", logs[0])
	}

	off := false
	if _, err := s.UpdateDocument(ctx, "d1", domain.DocumentPatch{IsBackedUp: &off}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := s.UpdateDocument(ctx, "missing", domain.BackedUp("x")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentDocuments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())
	for i := 0; i < 4; i++ {
		if err := s.AddDocument(ctx, testDocument(fmt.Sprintf("d%d", i), testNow.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	recent, err := s.RecentDocuments(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "d3" || recent[1].ID != "d2" {
		t.Fatalf("unexpected recent documents %+v", recent)
	}
	docs, _ := s.Documents(ctx)
	if docs[0].ID != "d0" {
		t.Fatalf("storage order should be insertion order")
	}
}

func TestSeals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())

	seals, err := s.Seals(ctx)
	if err != nil {
		t.Fatalf("seals: %v", err)
	}
	builtins := domain.BuiltinSeals()
	if len(seals) != len(builtins) || seals[0].ID != domain.NativeSealID {
		t.Fatalf("expected built-ins only, got %+v", seals)
	}

	custom := testSeal("s1")
	custom.IsNative = true
	custom.IsDefault = true
	if err := s.AddSeal(ctx, custom); err != nil {
		t.Fatalf("add seal: %v", err)
	}
	seals, _ = s.Seals(ctx)
	if len(seals) != len(builtins)+1 || seals[0].ID != domain.NativeSealID || seals[len(seals)-1].ID != "s1" {
		t.Fatalf("built-ins must come first, got %+v", seals)
	}
	stored, err := s.Seal(ctx, "s1")
	if err != nil {
		t.Fatalf("seal lookup: %v", err)
	}
	if stored.IsNative || stored.IsDefault || !stored.CreatedAt.Equal(testNow) {
		t.Fatalf("custom seal flags not normalised: %+v", stored)
	}

	if err := s.RemoveSeal(ctx, domain.NativeSealID); !errors.Is(err, ErrBuiltinSeal) {
		t.Fatalf("expected ErrBuiltinSeal, got %v", err)
	}
	if err := s.AddSeal(ctx, testSeal(domain.NativeSealID)); !errors.Is(err, ErrBuiltinSeal) {
		t.Fatalf("expected ErrBuiltinSeal on add, got %v", err)
	}
	if err := s.RemoveSeal(ctx, "s1"); err != nil {
		t.Fatalf("remove seal: %v", err)
	}
	if _, err := s.Seal(ctx, "s1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRoundTripThroughStorage(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()
	s := newTestStore(t, storage)

	cert := testCertificate("c-ç")
	cert.SubjectName = "João Ñandú 東京"
	if err := s.AddCertificate(ctx, cert); err != nil {
		t.Fatalf("add: %v", err)
	}

	reopened := newTestStore(t, storage)
	got, err := reopened.Certificate(ctx, "c-ç")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !reflect.DeepEqual(got, cert) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", got, cert)
	}
	empty, err := reopened.Documents(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty documents, got %+v %v", empty, err)
	}
}

func TestCorruptedPartitionPolicies(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()
	if err := storage.Set(ctx, CertificatesKey, "not-json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	strict, err := New(Dependencies{Storage: storage, Policy: store.PolicyFail})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := strict.Certificates(ctx); !errors.Is(err, store.ErrCorrupted) {
		t.Fatalf("expected ErrCorrupted, got %v", err)
	}
	if err := strict.AddCertificate(ctx, testCertificate("c1")); !errors.Is(err, store.ErrCorrupted) {
		t.Fatalf("expected add to fail on corruption, got %v", err)
	}

	lenient := newTestStore(t, storage)
	if err := lenient.AddCertificate(ctx, testCertificate("c1")); err != nil {
		t.Fatalf("reset policy add: %v", err)
	}
	certs, _ := lenient.Certificates(ctx)
	if len(certs) != 1 {
		t.Fatalf("expected reset partition with one certificate, got %d", len(certs))
	}
}

func TestHooksAndBroadcast(t *testing.T) {
	ctx := context.Background()
	var events []activity.Event
	hook := activity.HookFunc(func(_ context.Context, evt activity.Event) {
		events = append(events, evt)
	})
	var topics []string
	cast := broadcaster.Func(func(_ context.Context, evt broadcaster.Event) error {
		topics = append(topics, evt.Topic)
		return nil
	})
	s, err := New(Dependencies{Storage: memory.New(), Activity: activity.Hooks{hook}, Broadcaster: cast, ActorID: "user-1"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := s.AddCertificate(ctx, testCertificate("c1")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.ClearAuditLog(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if len(events) != 2 || events[0].Verb != activity.VerbCertificateLoaded || events[1].Verb != activity.VerbAuditCleared {
		t.Fatalf("unexpected events %+v", events)
	}
	if events[0].ActorID != "user-1" || !events[0].Succeeded() {
		t.Fatalf("unexpected event fields %+v", events[0])
	}
	if !reflect.DeepEqual(topics, []string{"certificates.changed", "audit-log.changed"}) {
		t.Fatalf("unexpected topics %v", topics)
	}
	logs, _ := s.AuditLogs(ctx)
	if len(logs) != 0 {
		t.Fatalf("cleared trail should stay empty, got %+v", logs)
	}
}

func TestSubscribersMayWriteBack(t *testing.T) {
	ctx := context.Background()
	var s *Store
	var nestedErr error
	cast := broadcaster.Func(func(ctx context.Context, evt broadcaster.Event) error {
		if evt.Topic == "certificates.changed" {
			if _, err := s.Certificate(ctx, "c2"); errors.Is(err, store.ErrNotFound) {
				nestedErr = s.AddCertificate(ctx, testCertificate("c2"))
			}
		}
		return nil
	})
	var hookErr error
	hook := activity.HookFunc(func(ctx context.Context, evt activity.Event) {
		if evt.Verb == activity.VerbCertificateLoaded && evt.ObjectID == "c1" {
			_, hookErr = s.Certificates(ctx)
		}
	})
	var err error
	s, err = New(Dependencies{Storage: memory.New(), Activity: activity.Hooks{hook}, Broadcaster: cast})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.AddCertificate(ctx, testCertificate("c1")) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("AddCertificate blocked while notifying subscribers")
	}
	if nestedErr != nil || hookErr != nil {
		t.Fatalf("nested calls failed: %v / %v", nestedErr, hookErr)
	}
	certs, _ := s.Certificates(ctx)
	if len(certs) != 2 {
		t.Fatalf("expected both certificates, got %d", len(certs))
	}

	done2 := make(chan error, 1)
	go func() {
		_, err := s.UpdateDocument(ctx, "missing", domain.BackedUp("x"))
		done2 <- err
	}()
	select {
	case err := <-done2:
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("UpdateDocument blocked while notifying subscribers")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())

	soon := testCertificate("soon")
	soon.ValidTo = testNow.Add(10 * 24 * time.Hour)
	expired := testCertificate("old")
	expired.ValidTo = testNow.Add(-time.Hour)
	boundary := testCertificate("edge")
	boundary.ValidTo = testNow.Add(ExpiryWindow)
	for _, cert := range []domain.Certificate{testCertificate("ok"), soon, expired, boundary} {
		if err := s.AddCertificate(ctx, cert); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := s.AddDocument(ctx, testDocument("d1", testNow)); err != nil {
		t.Fatalf("add doc: %v", err)
	}
	if _, err := s.UpdateDocument(ctx, "d1", domain.BackedUp("x")); err != nil {
		t.Fatalf("update: %v", err)
	}

	stats, err := s.Stats(ctx, testNow)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Certificates != 4 || stats.ExpiredCertificates != 1 || len(stats.ExpiringCertificates) != 2 {
		t.Fatalf("unexpected certificate stats %+v", stats)
	}
	expiring := map[string]bool{}
	for _, cert := range stats.ExpiringCertificates {
		expiring[cert.ID] = true
	}
	if !expiring["soon"] || !expiring["edge"] {
		t.Fatalf("unexpected certificate stats %+v", stats)
	}
	if stats.Documents != 1 || stats.BackedUpDocuments != 1 || stats.AuditLogs != 6 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.AddDocument(ctx, testDocument(fmt.Sprintf("d%d", i), testNow)); err != nil {
				t.Errorf("add %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	docs, _ := s.Documents(ctx)
	if len(docs) != 20 {
		t.Fatalf("expected 20 documents, got %d", len(docs))
	}
	logs, _ := s.AuditLogs(ctx)
	if len(logs) != 20 {
		t.Fatalf("expected 20 audit entries, got %d", len(logs))
	}
}
