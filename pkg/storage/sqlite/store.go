// Package sqlite provides a [storage.Store] backed by a SQLite database
// file through the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	driver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/matzehuels/gardengrid/pkg/cache"
	"github.com/matzehuels/gardengrid/pkg/storage"
)

//go:embed schema.sql
var schema string

// Store provides SQLite-backed document persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
// The special path ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

func (s *Store) List(ctx context.Context, userID, collection string) ([]storage.Document, error) {
	if err := storage.ValidateKey(userID, collection, ""); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, ord, data FROM documents
		 WHERE user_id = ? AND collection = ?
		 ORDER BY ord, id`,
		userID, collection,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("list %s: %w", collection, err))
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := make([]storage.Document, 0)
	for rows.Next() {
		var (
			d    storage.Document
			data []byte
		)
		if err := rows.Scan(&d.ID, &d.Order, &data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Data = data
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("iterate documents: %w", err))
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, userID, collection, id string) (storage.Document, error) {
	if err := storage.ValidateKey(userID, collection, id); err != nil {
		return storage.Document{}, err
	}

	var (
		d    storage.Document
		data []byte
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, ord, data FROM documents WHERE user_id = ? AND collection = ? AND id = ?`,
		userID, collection, id,
	).Scan(&d.ID, &d.Order, &data)
	d.Data = data
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Document{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Document{}, classify(fmt.Errorf("get %s/%s: %w", collection, id, err))
	}
	return d, nil
}

func (s *Store) Put(ctx context.Context, userID, collection string, doc storage.Document) error {
	if err := storage.ValidateKey(userID, collection, doc.ID); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO documents (user_id, collection, id, ord, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, collection, id) DO UPDATE SET
		    ord = excluded.ord,
		    data = excluded.data,
		    updated_at = excluded.updated_at`,
		userID, collection, doc.ID, doc.Order, []byte(doc.Data), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return classify(fmt.Errorf("put %s/%s: %w", collection, doc.ID, err))
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, collection, id string) error {
	if err := storage.ValidateKey(userID, collection, id); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM documents WHERE user_id = ? AND collection = ? AND id = ?`,
		userID, collection, id,
	); err != nil {
		return classify(fmt.Errorf("delete %s/%s: %w", collection, id, err))
	}
	return nil
}

// classify marks lock contention as retryable.
func classify(err error) error {
	var se *driver.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return cache.Retryable(err)
		}
	}
	return err
}

var _ storage.Store = (*Store)(nil)
