package bunrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	iface "github.com/goliatone/go-signdesk/pkg/interfaces/secrets"
	"github.com/uptrace/bun"
)

type secretRecord struct {
	bun.BaseModel `bun:"table:credentials"`

	ID        int64          `bun:",pk,autoincrement"`
	Scope     string         `bun:",notnull,unique:credential_identity"`
	SubjectID string         `bun:",notnull,unique:credential_identity"`
	Service   string         `bun:",notnull,unique:credential_identity"`
	Key       string         `bun:",notnull,unique:credential_identity"`
	Version   string         `bun:",notnull,unique:credential_identity"`
	Cipher    []byte         `bun:",notnull"`
	Nonce     []byte         `bun:",notnull"`
	Metadata  map[string]any `bun:",type:jsonb"`
	CreatedAt time.Time      `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time      `bun:",nullzero,notnull,default:current_timestamp"`
}

// SecretStore keeps encrypted credentials next to the key/value entries.
type SecretStore struct {
	db *bun.DB
}

var _ iface.Store = (*SecretStore)(nil)

func NewSecretStore(db *bun.DB) *SecretStore {
	return &SecretStore{db: db}
}

func (s *SecretStore) Put(ctx context.Context, rec iface.Record) error {
	_, err := s.db.NewInsert().
		Model(toSecretRecord(rec)).
		On("CONFLICT (scope, subject_id, service, key, version) DO UPDATE").
		Set("cipher = EXCLUDED.cipher").
		Set("nonce = EXCLUDED.nonce").
		Set("metadata = EXCLUDED.metadata").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	return err
}

func (s *SecretStore) Latest(ctx context.Context, loc iface.Locator) (iface.Record, error) {
	var rec secretRecord
	err := s.locate(s.db.NewSelect().Model(&rec), loc).
		OrderExpr("version DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return iface.Record{}, translateNoRows(err)
	}
	return fromSecretRecord(rec), nil
}

func (s *SecretStore) Version(ctx context.Context, loc iface.Locator, version string) (iface.Record, error) {
	var rec secretRecord
	err := s.locate(s.db.NewSelect().Model(&rec), loc).
		Where("version = ?", version).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return iface.Record{}, translateNoRows(err)
	}
	return fromSecretRecord(rec), nil
}

func (s *SecretStore) Delete(ctx context.Context, loc iface.Locator) error {
	_, err := s.db.NewDelete().
		Model((*secretRecord)(nil)).
		Where("scope = ? AND subject_id = ? AND service = ? AND key = ?", loc.Scope, loc.SubjectID, loc.Service, loc.Key).
		Exec(ctx)
	return err
}

func (s *SecretStore) List(ctx context.Context, filter iface.Locator) ([]iface.Record, error) {
	var recs []secretRecord
	query := s.db.NewSelect().Model(&recs)
	if filter.Scope != "" {
		query = query.Where("scope = ?", filter.Scope)
	}
	if filter.SubjectID != "" {
		query = query.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.Service != "" {
		query = query.Where("service = ?", filter.Service)
	}
	if filter.Key != "" {
		query = query.Where("key = ?", filter.Key)
	}
	if err := query.Order("version ASC").Scan(ctx); err != nil {
		return nil, err
	}
	results := make([]iface.Record, 0, len(recs))
	for _, r := range recs {
		results = append(results, fromSecretRecord(r))
	}
	return results, nil
}

func (s *SecretStore) locate(q *bun.SelectQuery, loc iface.Locator) *bun.SelectQuery {
	return q.Where("scope = ? AND subject_id = ? AND service = ? AND key = ?", loc.Scope, loc.SubjectID, loc.Service, loc.Key)
}

func translateNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return iface.ErrRecordNotFound
	}
	return err
}

func toSecretRecord(rec iface.Record) *secretRecord {
	return &secretRecord{
		Scope:     rec.Scope,
		SubjectID: rec.SubjectID,
		Service:   rec.Service,
		Key:       rec.Key,
		Version:   rec.Version,
		Cipher:    rec.Cipher,
		Nonce:     rec.Nonce,
		Metadata:  rec.Metadata,
	}
}

func fromSecretRecord(rec secretRecord) iface.Record {
	return iface.Record{
		Locator: iface.Locator{
			Scope:     rec.Scope,
			SubjectID: rec.SubjectID,
			Service:   rec.Service,
			Key:       rec.Key,
		},
		Version:   rec.Version,
		Cipher:    rec.Cipher,
		Nonce:     rec.Nonce,
		Metadata:  rec.Metadata,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
