// Package file provides a [storage.Store] backed by JSON files, one per
// user and collection.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/matzehuels/gardengrid/pkg/cache"
	"github.com/matzehuels/gardengrid/pkg/storage"
)

// Store writes each collection to <dir>/<hash(user)>/<collection>.json.
// Writes go through a temp file and rename, so a crash never leaves a
// truncated collection behind.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// NewStore creates the directory if needed and returns a store rooted there.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the root directory.
func (s *Store) Path() string { return s.dir }

func (s *Store) path(userID, collection string) string {
	return filepath.Join(s.dir, cache.Hash([]byte(userID))[:16], collection+".json")
}

func (s *Store) read(userID, collection string) ([]storage.Document, error) {
	data, err := os.ReadFile(s.path(userID, collection))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	var docs []storage.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", collection, err)
	}
	return docs, nil
}

func (s *Store) write(userID, collection string, docs []storage.Document) error {
	path := s.path(userID, collection)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	storage.SortDocuments(docs)
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), collection+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Store) List(ctx context.Context, userID, collection string) ([]storage.Document, error) {
	if err := storage.ValidateKey(userID, collection, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.read(userID, collection)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []storage.Document{}
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

	docs, err := s.read(userID, collection)
	if err != nil {
		return storage.Document{}, err
	}
	i := slices.IndexFunc(docs, func(d storage.Document) bool { return d.ID == id })
	if i < 0 {
		return storage.Document{}, storage.ErrNotFound
	}
	return docs[i], nil
}

func (s *Store) Put(ctx context.Context, userID, collection string, doc storage.Document) error {
	if err := storage.ValidateKey(userID, collection, doc.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.read(userID, collection)
	if err != nil {
		return err
	}
	if i := slices.IndexFunc(docs, func(d storage.Document) bool { return d.ID == doc.ID }); i >= 0 {
		docs[i] = doc
	} else {
		docs = append(docs, doc)
	}
	return s.write(userID, collection, docs)
}

func (s *Store) Delete(ctx context.Context, userID, collection, id string) error {
	if err := storage.ValidateKey(userID, collection, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.read(userID, collection)
	if err != nil {
		return err
	}
	n := len(docs)
	docs = slices.DeleteFunc(docs, func(d storage.Document) bool { return d.ID == id })
	if len(docs) == n {
		return nil
	}
	return s.write(userID, collection, docs)
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

func (s *Store) Close() error { return nil }

var _ storage.Store = (*Store)(nil)
