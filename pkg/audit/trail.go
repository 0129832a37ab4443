package audit

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	i18n "github.com/goliatone/go-i18n"
	"github.com/goliatone/go-signdesk/internal/partition"
	"github.com/goliatone/go-signdesk/pkg/activity"
	"github.com/goliatone/go-signdesk/pkg/domain"
	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/interfaces/store"
	"github.com/goliatone/go-signdesk/pkg/locales"
	"github.com/google/uuid"
)

const (
	// PartitionKey is the storage key holding the trail.
	PartitionKey = "audit-log"
	// DefaultCapacity bounds the number of retained entries.
	DefaultCapacity = 500
)

// Entry describes one action to record.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	Result     domain.AuditResult
}

// Dependencies wires the trail.
type Dependencies struct {
	Storage    kv.Storage
	Capacity   int
	Policy     store.CorruptionPolicy
	Translator i18n.Translator
	Locale     string
	Clock      func() time.Time
	NewID      func() string
	Logger     logger.Logger
}

// Trail is the bounded, newest-first audit log. It subscribes to store
// events through Notify.
type Trail struct {
	mu         sync.Mutex
	partition  *partition.Partition[domain.AuditLog]
	capacity   int
	translator i18n.Translator
	locale     string
	clock      func() time.Time
	newID      func() string
	logger     logger.Logger
}

var _ activity.Hook = (*Trail)(nil)

var errStorageRequired = errors.New("audit: storage is required")

// New constructs the trail.
func New(deps Dependencies) (*Trail, error) {
	if deps.Storage == nil {
		return nil, errStorageRequired
	}
	if deps.Capacity <= 0 {
		deps.Capacity = DefaultCapacity
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return uuid.NewString() }
	}
	if deps.Translator == nil {
		translator, err := locales.NewTranslator(deps.Locale)
		if err != nil {
			return nil, fmt.Errorf("audit: translator: %w", err)
		}
		deps.Translator = translator
	}
	part, err := partition.New(partition.Dependencies[domain.AuditLog]{
		Storage: deps.Storage,
		Key:     PartitionKey,
		IDOf:    func(l domain.AuditLog) string { return l.ID },
		Policy:  deps.Policy,
		Logger:  deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Trail{
		partition:  part,
		capacity:   deps.Capacity,
		translator: deps.Translator,
		locale:     deps.Locale,
		clock:      deps.Clock,
		newID:      deps.NewID,
		logger:     deps.Logger,
	}, nil
}

// Capacity returns the maximum number of retained entries.
func (t *Trail) Capacity() int {
	return t.capacity
}

// Append records an entry with a fresh id and timestamp, prepends it and
// drops whatever exceeds the capacity.
func (t *Trail) Append(ctx context.Context, entry Entry) (domain.AuditLog, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return domain.AuditLog{}, errors.New("audit: action is required")
	}
	if entry.Result == "" {
		entry.Result = domain.ResultSuccess
	}
	record := domain.AuditLog{
		ID:         t.newID(),
		Timestamp:  t.clock(),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Result:     entry.Result,
		Details:    t.details(entry),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	logs, err := t.partition.Load(ctx)
	if err != nil {
		return domain.AuditLog{}, fmt.Errorf("audit: %w", err)
	}
	next := make([]domain.AuditLog, 0, min(len(logs)+1, t.capacity))
	next = append(next, record)
	next = append(next, logs...)
	if len(next) > t.capacity {
		next = next[:t.capacity]
	}
	if err := t.partition.Save(ctx, next); err != nil {
		return domain.AuditLog{}, fmt.Errorf("audit: %w", err)
	}
	return record, nil
}

// List returns the stored entries, most recent first.
func (t *Trail) List(ctx context.Context) ([]domain.AuditLog, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	logs, err := t.partition.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	return logs, nil
}

// Clear empties the trail.
func (t *Trail) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.partition.Save(ctx, nil); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}

// Notify appends one entry per store event. The clear event itself is not
// recorded so a cleared trail stays empty. Append failures are logged only.
func (t *Trail) Notify(ctx context.Context, evt activity.Event) {
	if evt.Verb == "" || evt.Verb == activity.VerbAuditCleared {
		return
	}
	result := domain.ResultSuccess
	if !evt.Succeeded() {
		result = domain.ResultFailure
	}
	if _, err := t.Append(ctx, Entry{
		Action:     evt.Verb,
		EntityType: evt.ObjectType,
		EntityID:   evt.ObjectID,
		Result:     result,
	}); err != nil {
		t.logger.Error("audit append failed",
			logger.F("action", evt.Verb),
			logger.F("entity_id", evt.ObjectID),
			logger.F("error", err),
		)
	}
}

var csvHeader = []string{"id", "timestamp", "action", "entityType", "entityId", "result", "details"}

// ExportCSV writes the trail, most recent first, as CSV.
func (t *Trail) ExportCSV(ctx context.Context, w io.Writer) error {
	logs, err := t.List(ctx)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("audit: export: %w", err)
	}
	for _, entry := range logs {
		row := []string{
			entry.ID,
			entry.Timestamp.UTC().Format(time.RFC3339),
			entry.Action,
			entry.EntityType,
			entry.EntityID,
			string(entry.Result),
			entry.Details,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("audit: export: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("audit: export: %w", err)
	}
	return nil
}

func (t *Trail) details(entry Entry) string {
	text, err := t.translator.Translate(t.locale, locales.KeyAuditDetails, entry.Action, entry.EntityType, entry.EntityID)
	if err != nil || text == "" {
		return fmt.Sprintf("%s %s (%s)", entry.Action, entry.EntityType, entry.EntityID)
	}
	return text
}
