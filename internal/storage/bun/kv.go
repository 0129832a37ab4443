package bunrepo

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Entry is one key/value row. Each partition is a single row holding the
// serialized collection.
type Entry struct {
	bun.BaseModel `bun:"table:kv_entries"`

	ID        uuid.UUID `bun:",pk,type:uuid"`
	Key       string    `bun:",notnull,unique"`
	Value     string    `bun:",notnull"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// Models lists the tables owned by this package.
func Models() []any {
	return []any{(*Entry)(nil), (*secretRecord)(nil)}
}

// CreateSchema creates the tables when they do not exist yet.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Storage is a kv.Storage persisted through bun. Reads go through
// go-repository-bun; writes are single-statement upserts so a partition is
// always replaced atomically.
type Storage struct {
	db   *bun.DB
	repo repository.Repository[*Entry]
	now  func() time.Time
}

var _ kv.Storage = (*Storage)(nil)

func NewStorage(db *bun.DB) *Storage {
	handlers := repository.ModelHandlers[*Entry]{
		NewRecord: func() *Entry { return &Entry{} },
		GetID:     func(e *Entry) uuid.UUID { return e.ID },
		SetID: func(e *Entry, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier:      func() string { return "key" },
		GetIdentifierValue: func(e *Entry) string { return e.Key },
	}
	return &Storage{
		db:   db,
		repo: repository.MustNewRepository[*Entry](db, handlers),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	entry, err := s.repo.Get(ctx, withKey(key))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	now := s.now()
	entry := &Entry{
		ID:        uuid.New(),
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.NewInsert().
		Model(entry).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*Entry)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	return err
}

// List returns the entries whose key starts with prefix, ordered by key.
func (s *Storage) List(ctx context.Context, prefix string) ([]Entry, error) {
	records, _, err := s.repo.List(ctx, withKeyPrefix(prefix))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(records))
	for i, rec := range records {
		out[i] = *rec
	}
	return out, nil
}
