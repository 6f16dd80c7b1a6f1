package planner

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/gardengrid/pkg/storage"
)

// Manager keeps one Workspace per user, loading it from the store on first
// use.
type Manager struct {
	store storage.Store
	opts  Options

	mu     sync.Mutex
	spaces map[string]*Workspace
	opens  singleflight.Group
}

// NewManager creates a manager whose workspaces load from store.
func NewManager(store storage.Store, opts Options) *Manager {
	return &Manager{
		store:  store,
		opts:   opts.withDefaults(),
		spaces: make(map[string]*Workspace),
	}
}

// Get returns the user's workspace, opening it if needed. Concurrent first
// calls for one user share a single Open, so a new garden is seeded once.
func (m *Manager) Get(ctx context.Context, userID string) (*Workspace, error) {
	if ws, ok := m.cached(userID); ok {
		return ws, nil
	}

	v, err, _ := m.opens.Do(userID, func() (any, error) {
		if ws, ok := m.cached(userID); ok {
			return ws, nil
		}
		opened, err := Open(ctx, m.store, userID, m.opts)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.spaces[userID] = opened
		m.mu.Unlock()
		return opened, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Workspace), nil
}

func (m *Manager) cached(userID string) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.spaces[userID]
	return ws, ok
}

// Forget drops the cached workspace of userID, e.g. on logout. Its pending
// snapshot, if any, is still saved by the publisher.
func (m *Manager) Forget(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.spaces, userID)
}

// Len returns the number of open workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spaces)
}
