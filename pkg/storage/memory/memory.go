// Package memory provides an in-process [storage.Store].
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/gardengrid/pkg/storage"
)

type key struct{ user, collection string }

// Store keeps documents in maps guarded by a RWMutex.
type Store struct {
	mu   sync.RWMutex
	docs map[key]map[string]storage.Document
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[key]map[string]storage.Document)}
}

func (s *Store) List(ctx context.Context, userID, collection string) ([]storage.Document, error) {
	if err := storage.ValidateKey(userID, collection, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]storage.Document, 0, len(s.docs[key{userID, collection}]))
	for _, d := range s.docs[key{userID, collection}] {
		d.Data = slices.Clone(d.Data)
		docs = append(docs, d)
	}
	storage.SortDocuments(docs)
	return docs, nil
}

func (s *Store) Get(ctx context.Context, userID, collection, id string) (storage.Document, error) {
	if err := storage.ValidateKey(userID, collection, id); err != nil {
		return storage.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[key{userID, collection}][id]
	if !ok {
		return storage.Document{}, storage.ErrNotFound
	}
	d.Data = slices.Clone(d.Data)
	return d, nil
}

func (s *Store) Put(ctx context.Context, userID, collection string, doc storage.Document) error {
	if err := storage.ValidateKey(userID, collection, doc.ID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{userID, collection}
	if s.docs[k] == nil {
		s.docs[k] = make(map[string]storage.Document)
	}
	doc.Data = slices.Clone(doc.Data)
	s.docs[k][doc.ID] = doc
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, collection, id string) error {
	if err := storage.ValidateKey(userID, collection, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs[key{userID, collection}], id)
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

var _ storage.Store = (*Store)(nil)
