package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/gardengrid/pkg/cache"
	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/storage"
	"github.com/matzehuels/gardengrid/pkg/storage/memory"
)

// gatedStore blocks the first Put until released and counts saves.
type gatedStore struct {
	storage.Store
	gate     chan struct{}
	once     sync.Once
	started  chan struct{}
	puts     atomic.Int32
	failures atomic.Int32 // remaining retryable failures
}

func newGatedStore() *gatedStore {
	return &gatedStore{Store: memory.NewStore(), gate: make(chan struct{}), started: make(chan struct{})}
}

func (g *gatedStore) Put(ctx context.Context, userID, collection string, doc storage.Document) error {
	g.once.Do(func() {
		close(g.started)
		<-g.gate
	})
	if g.failures.Load() > 0 {
		g.failures.Add(-1)
		return cache.Retryable(errors.New("busy"))
	}
	g.puts.Add(1)
	return g.Store.Put(ctx, userID, collection, doc)
}

func snapshotWith(n int) garden.Snapshot {
	var snap garden.Snapshot
	for i := range n {
		snap.Plants = append(snap.Plants, garden.Plant{ID: string(rune('a' + i)), Name: "Tomato", Spread: 30, X: float64(i * 40)})
	}
	return snap
}

func TestPublishCoalesces(t *testing.T) {
	store := newGatedStore()
	s := New(store, Options{Backoff: cache.Backoff{Attempts: 1}})
	ctx := context.Background()

	s.Publish("u1", snapshotWith(1))
	<-store.started
	for n := 2; n <= 5; n++ {
		s.Publish("u1", snapshotWith(n))
	}
	close(store.gate)
	require.NoError(t, s.Flush(ctx))

	got, found, err := storage.LoadSnapshot(ctx, store, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, got.Plants, 5)
	// First save (1 plant) plus one coalesced save (5 plants).
	assert.Equal(t, int32(6), store.puts.Load())
}

func TestPublishRetriesTransientErrors(t *testing.T) {
	store := newGatedStore()
	close(store.gate)
	store.failures.Store(2)

	var retries atomic.Int32
	s := New(store, Options{Backoff: cache.Backoff{
		Attempts: 3,
		Delay:    time.Millisecond,
		OnRetry:  func(int, error) { retries.Add(1) },
	}})
	s.Publish("u1", snapshotWith(1))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, int32(2), retries.Load())

	got, _, err := storage.LoadSnapshot(context.Background(), store, "u1")
	require.NoError(t, err)
	assert.Len(t, got.Plants, 1)
}

func TestPublishReportsFinalFailure(t *testing.T) {
	store := newGatedStore()
	close(store.gate)
	store.failures.Store(100)

	var failed atomic.Value
	s := New(store, Options{
		Backoff: cache.Backoff{Attempts: 2, Delay: time.Millisecond},
		OnError: func(userID string, err error) { failed.Store(userID) },
	})
	s.Publish("u1", snapshotWith(1))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, "u1", failed.Load())
}

func TestUnchangedSnapshotIsSkipped(t *testing.T) {
	store := newGatedStore()
	close(store.gate)
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	s := New(store, Options{Cache: c})
	ctx := context.Background()
	s.Publish("u1", snapshotWith(2))
	require.NoError(t, s.Flush(ctx))
	s.Publish("u1", snapshotWith(2))
	require.NoError(t, s.Flush(ctx))

	assert.Equal(t, int32(2), store.puts.Load())
}

func TestCloseRejectsNewSnapshots(t *testing.T) {
	store := newGatedStore()
	close(store.gate)
	s := New(store, Options{})
	require.NoError(t, s.Close(context.Background()))

	s.Publish("u1", snapshotWith(1))
	require.NoError(t, s.Flush(context.Background()))
	_, found, err := storage.LoadSnapshot(context.Background(), store, "u1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUsersAreIndependent(t *testing.T) {
	store := newGatedStore()
	close(store.gate)
	s := New(store, Options{})
	ctx := context.Background()

	s.Publish("u1", snapshotWith(1))
	s.Publish("u2", snapshotWith(3))
	require.NoError(t, s.Flush(ctx))

	a, _, _ := storage.LoadSnapshot(ctx, store, "u1")
	b, _, _ := storage.LoadSnapshot(ctx, store, "u2")
	assert.Len(t, a.Plants, 1)
	assert.Len(t, b.Plants, 3)
}
