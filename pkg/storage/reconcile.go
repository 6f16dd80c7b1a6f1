package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/gardengrid/pkg/garden"
)

// maxParallel bounds concurrent backend calls during a reconcile.
const maxParallel = 8

// Reconcile makes the stored collection equal to docs. Each document is
// upserted with Order set to its index; stored ids not in docs are deleted
// afterwards, so a failed reconcile never loses an item that is still
// current.
func Reconcile(ctx context.Context, s Store, userID, collection string, docs []Document) error {
	existing, err := s.List(ctx, userID, collection)
	if err != nil {
		return fmt.Errorf("list %s: %w", collection, err)
	}

	keep := make(map[string]bool, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, doc := range docs {
		doc.Order = i
		keep[doc.ID] = true
		g.Go(func() error {
			if err := s.Put(gctx, userID, collection, doc); err != nil {
				return fmt.Errorf("put %s/%s: %w", collection, doc.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for _, doc := range existing {
		if keep[doc.ID] {
			continue
		}
		g.Go(func() error {
			if err := s.Delete(gctx, userID, collection, doc.ID); err != nil {
				return fmt.Errorf("delete %s/%s: %w", collection, doc.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// SaveSnapshot reconciles both collections of a user's garden.
func SaveSnapshot(ctx context.Context, s Store, userID string, snap garden.Snapshot) error {
	palette := make([]Document, 0, len(snap.Palette))
	for i, t := range snap.Palette {
		doc, err := NewDocument(t.ID, i, t)
		if err != nil {
			return err
		}
		palette = append(palette, doc)
	}
	plants := make([]Document, 0, len(snap.Plants))
	for i, p := range snap.Plants {
		doc, err := NewDocument(p.ID, i, p)
		if err != nil {
			return err
		}
		plants = append(plants, doc)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return Reconcile(gctx, s, userID, garden.CollectionPalette, palette) })
	g.Go(func() error { return Reconcile(gctx, s, userID, garden.CollectionPlants, plants) })
	return g.Wait()
}

// LoadSnapshot reads a user's garden. found is false when neither
// collection holds any document, meaning the user has never saved.
func LoadSnapshot(ctx context.Context, s Store, userID string) (snap garden.Snapshot, found bool, err error) {
	paletteDocs, err := s.List(ctx, userID, garden.CollectionPalette)
	if err != nil {
		return snap, false, fmt.Errorf("list palette: %w", err)
	}
	plantDocs, err := s.List(ctx, userID, garden.CollectionPlants)
	if err != nil {
		return snap, false, fmt.Errorf("list plants: %w", err)
	}

	snap.Palette = make([]garden.Template, 0, len(paletteDocs))
	for _, doc := range paletteDocs {
		var t garden.Template
		if err := doc.Decode(&t); err != nil {
			return snap, false, err
		}
		t.ID = doc.ID
		snap.Palette = append(snap.Palette, t)
	}
	snap.Plants = make([]garden.Plant, 0, len(plantDocs))
	for _, doc := range plantDocs {
		var p garden.Plant
		if err := doc.Decode(&p); err != nil {
			return snap, false, err
		}
		p.ID = doc.ID
		snap.Plants = append(snap.Plants, p)
	}
	return snap, len(paletteDocs)+len(plantDocs) > 0, nil
}
