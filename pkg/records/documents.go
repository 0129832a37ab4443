package records

import (
	"context"
	"fmt"
	"sort"

	"github.com/goliatone/go-signdesk/pkg/activity"
	"github.com/goliatone/go-signdesk/pkg/domain"
	"github.com/goliatone/go-signdesk/pkg/interfaces/store"
)

func (s *Store) documentMutation(verb string) mutation[domain.SignedDocument] {
	return mutation[domain.SignedDocument]{part: s.documents, verb: verb, entityType: domain.EntityDocument}
}

// Documents returns the signed documents in insertion order.
func (s *Store) Documents(ctx context.Context) ([]domain.SignedDocument, error) {
	docs, err := s.documents.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	return docs, nil
}

// RecentDocuments returns up to n documents, most recently signed first.
// A non-positive n returns all of them.
func (s *Store) RecentDocuments(ctx context.Context, n int) ([]domain.SignedDocument, error) {
	docs, err := s.Documents(ctx)
	if err != nil {
		return nil, err
	}
	recent := make([]domain.SignedDocument, len(docs))
	for i, doc := range docs {
		recent[len(docs)-1-i] = doc
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].SignedAt.After(recent[j].SignedAt)
	})
	if n > 0 && len(recent) > n {
		recent = recent[:n]
	}
	return recent, nil
}

// Document returns one document or store.ErrNotFound.
func (s *Store) Document(ctx context.Context, id string) (domain.SignedDocument, error) {
	return find(ctx, s.documents, domain.EntityDocument, id)
}

// AddDocument validates and appends a signed document.
func (s *Store) AddDocument(ctx context.Context, doc domain.SignedDocument) error {
	m := s.documentMutation(activity.VerbDocumentSigned)
	if err := doc.Validate(); err != nil {
		return m.fail(ctx, s, doc.ID, err)
	}
	return add(ctx, s, m, doc.ID, doc)
}

// UpdateDocument applies patch to the document with the given id. Only the
// patched fields change; the updated record is returned.
func (s *Store) UpdateDocument(ctx context.Context, id string, patch domain.DocumentPatch) (domain.SignedDocument, error) {
	m := s.documentMutation(activity.VerbDocumentUpdated)

	var next domain.SignedDocument
	err := s.locked(func() error {
		docs, err := s.documents.Load(ctx)
		if err != nil {
			return err
		}
		current, ok := s.documents.Pick(docs, id)
		if !ok {
			return fmt.Errorf("records: %s %s: %w", domain.EntityDocument, id, store.ErrNotFound)
		}
		next, err = patch.Apply(current)
		if err != nil {
			return err
		}
		updated, _ := s.documents.Replace(docs, next)
		return s.documents.Save(ctx, updated)
	})
	if err := m.finish(ctx, s, id, err); err != nil {
		return domain.SignedDocument{}, err
	}
	return next, nil
}

// RemoveDocument drops the document with the given id.
func (s *Store) RemoveDocument(ctx context.Context, id string) error {
	return remove(ctx, s, s.documentMutation(activity.VerbDocumentRemoved), id)
}
