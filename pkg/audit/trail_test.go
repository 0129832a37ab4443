package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-signdesk/internal/storage/memory"
	"github.com/goliatone/go-signdesk/pkg/activity"
	"github.com/goliatone/go-signdesk/pkg/domain"
	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
	"github.com/goliatone/go-signdesk/pkg/interfaces/store"
	"github.com/goliatone/go-signdesk/pkg/locales"
)

func newTestTrail(t *testing.T, storage kv.Storage, locale string) *Trail {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seq := 0
	trail, err := New(Dependencies{
		Storage: storage,
		Locale:  locale,
		Clock: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
		NewID: func() string {
			seq++
			return fmt.Sprintf("log-%d", seq)
		},
	})
	if err != nil {
		t.Fatalf("new trail: %v", err)
	}
	return trail
}

func TestTrailAppendPrependsWithDetails(t *testing.T) {
	ctx := context.Background()
	trail := newTestTrail(t, memory.New(), locales.PortugueseBR)

	first, err := trail.Append(ctx, Entry{Action: "LOAD_CERTIFICATE", EntityType: domain.EntityCertificate, EntityID: "c1"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.Result != domain.ResultSuccess {
		t.Fatalf("expected SUCCESS default, got %s", first.Result)
	}
	if first.Details != "Ação LOAD_CERTIFICATE em CERTIFICATE (c1)" {
		t.Fatalf("unexpected details %q", first.Details)
	}
	if _, err := trail.Append(ctx, Entry{Action: "REMOVE_CERTIFICATE", EntityType: domain.EntityCertificate, EntityID: "c1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	logs, err := trail.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 2 || logs[0].Action != "REMOVE_CERTIFICATE" || logs[1].Action != "LOAD_CERTIFICATE" {
		t.Fatalf("expected newest first, got %+v", logs)
	}
	if !logs[0].Timestamp.After(logs[1].Timestamp) {
		t.Fatalf("timestamps not increasing")
	}
}

func TestTrailCapacityEvictsOldest(t *testing.T) {
	ctx := context.Background()
	trail := newTestTrail(t, memory.New(), locales.English)

	for i := 0; i < DefaultCapacity+1; i++ {
		if _, err := trail.Append(ctx, Entry{Action: "SIGN_DOCUMENT", EntityType: domain.EntityDocument, EntityID: fmt.Sprintf("d%d", i)}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	logs, err := trail.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != DefaultCapacity {
		t.Fatalf("expected %d entries, got %d", DefaultCapacity, len(logs))
	}
	if logs[0].EntityID != "d500" {
		t.Fatalf("expected newest first, got %s", logs[0].EntityID)
	}
	if logs[len(logs)-1].EntityID != "d1" {
		t.Fatalf("expected d0 evicted, oldest is %s", logs[len(logs)-1].EntityID)
	}
}

func TestTrailNotify(t *testing.T) {
	ctx := context.Background()
	trail := newTestTrail(t, memory.New(), locales.English)

	trail.Notify(ctx, activity.Event{Verb: activity.VerbDocumentRemoved, ObjectType: domain.EntityDocument, ObjectID: "missing", Result: activity.ResultFailure})
	trail.Notify(ctx, activity.Event{Verb: activity.VerbAuditCleared, Result: activity.ResultSuccess})

	logs, err := trail.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one entry, got %d", len(logs))
	}
	if logs[0].Result != domain.ResultFailure || logs[0].EntityID != "missing" {
		t.Fatalf("unexpected entry %+v", logs[0])
	}
}

type failingStorage struct{ memory.Storage }

func (f *failingStorage) Set(context.Context, string, string) error {
	return kv.ErrQuotaExceeded
}

func TestTrailNotifySwallowsErrors(t *testing.T) {
	ctx := context.Background()
	trail := newTestTrail(t, &failingStorage{}, locales.English)

	trail.Notify(ctx, activity.Event{Verb: activity.VerbSealCreated, ObjectType: domain.EntitySeal, ObjectID: "s1", Result: activity.ResultSuccess})

	_, err := trail.Append(ctx, Entry{Action: "X"})
	if !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Fatalf("expected quota error from Append, got %v", err)
	}
}

func TestTrailClearAndCorruption(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()
	trail := newTestTrail(t, storage, locales.English)

	if _, err := trail.Append(ctx, Entry{Action: "CREATE_SEAL"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := trail.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	logs, _ := trail.List(ctx)
	if len(logs) != 0 {
		t.Fatalf("expected empty trail, got %d", len(logs))
	}

	if err := storage.Set(ctx, PartitionKey, "[{"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	strict, err := New(Dependencies{Storage: storage, Policy: store.PolicyFail})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := strict.List(ctx); !errors.Is(err, store.ErrCorrupted) {
		t.Fatalf("expected ErrCorrupted, got %v", err)
	}
	if logs, err := trail.List(ctx); err != nil || len(logs) != 0 {
		t.Fatalf("reset policy should read empty, got %v %v", logs, err)
	}
}

func TestTrailExportCSV(t *testing.T) {
	ctx := context.Background()
	trail := newTestTrail(t, memory.New(), locales.English)
	if _, err := trail.Append(ctx, Entry{Action: "SIGN_DOCUMENT", EntityType: domain.EntityDocument, EntityID: "d1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	var buf bytes.Buffer
	if err := trail.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[1][2] != "SIGN_DOCUMENT" || rows[1][6] != "Action SIGN_DOCUMENT on DOCUMENT (d1)" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}
