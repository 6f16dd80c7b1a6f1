// Package storage persists per-user garden documents.
//
// A user's garden is two ordered collections, [garden.CollectionPalette] and
// [garden.CollectionPlants]. Each item is stored as a [Document] keyed by
// its stable id, with an Order field carrying display order.
//
// # Backends
//
// [Store] has four implementations:
//   - memory: in-process maps for tests and ephemeral servers
//   - file: one JSON file per user and collection, for the CLI
//   - sqlite: a single-file database (modernc.org/sqlite, no cgo)
//   - mongo: a MongoDB collection for multi-instance deployments
//
// # Reconcile
//
// [Reconcile] makes a stored collection equal to an in-memory list: it
// upserts every current item under its id and then deletes stored ids that
// are no longer present. [SaveSnapshot] and [LoadSnapshot] apply this to a
// whole [garden.Snapshot].
//
//	if err := storage.SaveSnapshot(ctx, store, userID, snap); err != nil {
//	    return err
//	}
//
// Backends wrap transient failures with [cache.Retryable] so callers can
// retry them with [cache.Retry].
package storage
