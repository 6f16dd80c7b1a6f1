package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrNotFound is returned by [Store.Get] when a document does not exist.
var ErrNotFound = errors.New("not found")

// SystemUser owns documents that belong to no single user, such as accounts.
const SystemUser = "_system"

// Document is one stored item.
type Document struct {
	ID    string          `json:"id"`
	Order int             `json:"order"`
	Data  json.RawMessage `json:"data"`
}

// Store is the interface for document storage backends.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// List returns the documents of one user's collection sorted by Order.
	// A collection that was never written is empty, not an error.
	List(ctx context.Context, userID, collection string) ([]Document, error)

	// Get returns a single document or ErrNotFound.
	Get(ctx context.Context, userID, collection, id string) (Document, error)

	// Put inserts or replaces the document with doc.ID.
	Put(ctx context.Context, userID, collection string, doc Document) error

	// Delete removes a document. Deleting a missing id is not an error.
	Delete(ctx context.Context, userID, collection, id string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// NewDocument encodes v as the document id at position order.
func NewDocument(id string, order int, v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("encode document %s: %w", id, err)
	}
	return Document{ID: id, Order: order, Data: data}, nil
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// SortDocuments orders docs by Order, breaking ties by ID.
func SortDocuments(docs []Document) {
	slices.SortStableFunc(docs, func(a, b Document) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// ValidateKey checks the user, collection and id used to address a document.
func ValidateKey(userID, collection, id string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(collection) == "" {
		return fmt.Errorf("collection is required")
	}
	if id != "" && strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("invalid document id %q", id)
	}
	return nil
}
