// Package syncer persists garden snapshots in the background.
//
// Callers hand every committed snapshot to [Syncer.Publish], which never
// blocks. One worker per user drains the latest pending snapshot and
// reconciles it into a [storage.Store]; snapshots published while a save is
// running replace each other, so only the newest one is written (last write
// wins). Transient store errors are retried with backoff.
package syncer

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardengrid/pkg/cache"
	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/observability"
	"github.com/matzehuels/gardengrid/pkg/storage"
)

// Options configures a Syncer. Zero values select the defaults.
type Options struct {
	// Cache remembers the hash of the last saved snapshot per user so an
	// unchanged snapshot is not written again. Defaults to a NullCache.
	Cache cache.Cache
	Keyer cache.Keyer

	// Backoff controls retries of transient store errors.
	Backoff cache.Backoff

	// Timeout bounds a single save including retries.
	Timeout time.Duration

	Logger *log.Logger

	// OnError is called after a save finally fails.
	OnError func(userID string, err error)
}

// Syncer coalesces and persists snapshots per user.
type Syncer struct {
	store storage.Store
	opts  Options

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	idle    *sync.Cond
	pending map[string]garden.Snapshot
	running map[string]bool
	closed  bool
}

// New returns a Syncer writing to store.
func New(store storage.Store, opts Options) *Syncer {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Backoff.Attempts == 0 {
		opts.Backoff = cache.DefaultBackoff
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Syncer{
		store:   store,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]garden.Snapshot),
		running: make(map[string]bool),
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Publish schedules snap to be saved for userID and returns immediately.
// Publishing after Close is a no-op.
func (s *Syncer) Publish(userID string, snap garden.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending[userID] = snap.Clone()
	if !s.running[userID] {
		s.running[userID] = true
		go s.worker(userID)
	}
}

func (s *Syncer) worker(userID string) {
	for {
		s.mu.Lock()
		snap, ok := s.pending[userID]
		if !ok {
			delete(s.running, userID)
			s.idle.Broadcast()
			s.mu.Unlock()
			return
		}
		delete(s.pending, userID)
		s.mu.Unlock()

		if err := s.save(userID, snap); err != nil {
			s.opts.Logger.Error("save garden", "user", userID, "err", err)
			if s.opts.OnError != nil {
				s.opts.OnError(userID, err)
			}
		}
	}
}

func (s *Syncer) save(userID string, snap garden.Snapshot) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.Timeout)
	defer cancel()

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	hash := cache.Hash(data)
	key := s.opts.Keyer.SnapshotKey(userID)
	if prev, hit, _ := s.opts.Cache.Get(ctx, key); hit && string(prev) == hash {
		s.opts.Logger.Debug("snapshot unchanged", "user", userID)
		return nil
	}

	start := time.Now()
	observability.Sync().OnSyncStart(ctx, userID)
	backoff := s.opts.Backoff
	notify := backoff.OnRetry
	backoff.OnRetry = func(attempt int, err error) {
		s.opts.Logger.Debug("retrying save", "user", userID, "attempt", attempt, "err", err)
		if notify != nil {
			notify(attempt, err)
		}
	}
	err = cache.Retry(ctx, backoff, func() error {
		return storage.SaveSnapshot(ctx, s.store, userID, snap)
	})
	observability.Sync().OnSyncComplete(ctx, userID, time.Since(start), err)
	if err != nil {
		return err
	}

	s.opts.Logger.Debug("saved garden", "user", userID,
		"palette", len(snap.Palette), "plants", len(snap.Plants), "duration", time.Since(start))
	if err := s.opts.Cache.Set(ctx, key, []byte(hash), cache.TTLSnapshot); err != nil {
		s.opts.Logger.Warn("remember snapshot hash", "user", userID, "err", err)
	}
	return nil
}

// Flush blocks until every published snapshot has been saved or ctx ends.
func (s *Syncer) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.mu.Lock()
		for len(s.running) > 0 {
			s.idle.Wait()
		}
		s.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting snapshots, waits for pending saves until ctx ends,
// then cancels whatever is still running.
func (s *Syncer) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	err := s.Flush(ctx)
	s.cancel()
	return err
}
