// Package storagetest provides a conformance suite for [storage.Store]
// implementations.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/storage"
)

// Run exercises a fresh store from newStore against the [storage.Store]
// contract. newStore is called once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("EmptyList", func(t *testing.T) {
		s := newStore(t)
		docs, err := s.List(ctx, "alice", garden.CollectionPlants)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("List = %v, want empty", docs)
		}
	})

	t.Run("PutGetDelete", func(t *testing.T) {
		s := newStore(t)
		doc := mustDoc(t, "p1", 0, garden.Plant{ID: "p1", Name: "Tomato", Spread: 30, X: 100.5, Y: 40})
		if err := s.Put(ctx, "alice", garden.CollectionPlants, doc); err != nil {
			t.Fatalf("Put: %v", err)
		}

		got, err := s.Get(ctx, "alice", garden.CollectionPlants, "p1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		var p garden.Plant
		if err := got.Decode(&p); err != nil {
			t.Fatal(err)
		}
		if p.Name != "Tomato" || p.X != 100.5 || p.Spread != 30 {
			t.Errorf("Get = %+v", p)
		}

		if err := s.Delete(ctx, "alice", garden.CollectionPlants, "p1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, "alice", garden.CollectionPlants, "p1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, "alice", garden.CollectionPlants, "p1"); err != nil {
			t.Errorf("Delete missing: %v", err)
		}
	})

	t.Run("ListOrder", func(t *testing.T) {
		s := newStore(t)
		for i, id := range []string{"c", "a", "b"} {
			if err := s.Put(ctx, "alice", garden.CollectionPalette, mustDoc(t, id, 2-i, map[string]string{"name": id})); err != nil {
				t.Fatal(err)
			}
		}
		docs, err := s.List(ctx, "alice", garden.CollectionPalette)
		if err != nil {
			t.Fatal(err)
		}
		var ids []string
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		if want := []string{"b", "a", "c"}; !equal(ids, want) {
			t.Errorf("order = %v, want %v", ids, want)
		}
	})

	t.Run("Replace", func(t *testing.T) {
		s := newStore(t)
		_ = s.Put(ctx, "alice", garden.CollectionPlants, mustDoc(t, "p1", 0, map[string]float64{"x": 1}))
		_ = s.Put(ctx, "alice", garden.CollectionPlants, mustDoc(t, "p1", 3, map[string]float64{"x": 2}))
		docs, _ := s.List(ctx, "alice", garden.CollectionPlants)
		if len(docs) != 1 || docs[0].Order != 3 {
			t.Fatalf("List = %+v, want single replaced doc", docs)
		}
		var v map[string]float64
		_ = docs[0].Decode(&v)
		if v["x"] != 2 {
			t.Errorf("x = %v, want 2", v["x"])
		}
	})

	t.Run("UserIsolation", func(t *testing.T) {
		s := newStore(t)
		_ = s.Put(ctx, "alice", garden.CollectionPlants, mustDoc(t, "p1", 0, map[string]int{}))
		docs, _ := s.List(ctx, "bob", garden.CollectionPlants)
		if len(docs) != 0 {
			t.Errorf("bob sees %d of alice's documents", len(docs))
		}
		docs, _ = s.List(ctx, "alice", garden.CollectionPalette)
		if len(docs) != 0 {
			t.Errorf("palette sees %d plant documents", len(docs))
		}
	})

	t.Run("Snapshot", func(t *testing.T) {
		s := newStore(t)
		snap := garden.Snapshot{
			Palette: garden.DefaultPalette(),
			Plants: []garden.Plant{
				{ID: "p1", Name: "Tomato", Marker: "🍅", Spread: 30, Depth: 20, X: 100, Y: 100},
				{ID: "p2", Name: "Carrot", Marker: "🥕", Spread: 20, Depth: 15, X: 200, Y: 100},
			},
		}
		if err := storage.SaveSnapshot(ctx, s, "alice", snap); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}

		snap.Plants = snap.Plants[1:]
		if err := storage.SaveSnapshot(ctx, s, "alice", snap); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}

		got, found, err := storage.LoadSnapshot(ctx, s, "alice")
		if err != nil {
			t.Fatalf("LoadSnapshot: %v", err)
		}
		if !found {
			t.Fatal("LoadSnapshot: not found")
		}
		if len(got.Palette) != 3 || got.Palette[0].Name != "Tomato" {
			t.Errorf("palette = %+v", got.Palette)
		}
		if len(got.Plants) != 1 || got.Plants[0] != snap.Plants[0] {
			t.Errorf("plants = %+v, want %+v", got.Plants, snap.Plants)
		}
	})
}

func mustDoc(t *testing.T, id string, order int, v any) storage.Document {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return storage.Document{ID: id, Order: order, Data: data}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
