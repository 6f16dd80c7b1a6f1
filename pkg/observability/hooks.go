// Package observability lets a binary watch the planner without the
// libraries depending on a metrics or tracing backend.
//
// Libraries report events through the accessors:
//
//	observability.Sync().OnSyncStart(ctx, userID)
//	// ... save ...
//	observability.Sync().OnSyncComplete(ctx, userID, time.Since(start), err)
//
// Until main registers something, every accessor returns a no-op:
//
//	observability.Register(observability.NewLogHooks(logger).Hooks())
//	defer observability.Reset()
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PlannerHooks receives events from planner workspaces.
type PlannerHooks interface {
	// OnEvent records an input event applied to a workspace.
	OnEvent(ctx context.Context, userID, kind string)
	// OnCommit records a committed change (placed, moved, deleted, ...).
	OnCommit(ctx context.Context, userID, change string)
	// OnReject records an event rejected with an error code.
	OnReject(ctx context.Context, userID, code string)
}

// SyncHooks receives events from background garden saves.
type SyncHooks interface {
	OnSyncStart(ctx context.Context, userID string)
	OnSyncComplete(ctx context.Context, userID string, duration time.Duration, err error)
}

// CacheHooks receives render and snapshot cache events. keyType is the
// first segment of the cache key.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives one event per served request.
type HTTPHooks interface {
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// Hooks bundles one implementation per event category. Nil fields leave
// the registered hooks for that category unchanged.
type Hooks struct {
	Planner PlannerHooks
	Sync    SyncHooks
	Cache   CacheHooks
	HTTP    HTTPHooks
}

type noop struct{}

func (noop) OnEvent(context.Context, string, string)                        {}
func (noop) OnCommit(context.Context, string, string)                       {}
func (noop) OnReject(context.Context, string, string)                       {}
func (noop) OnSyncStart(context.Context, string)                            {}
func (noop) OnSyncComplete(context.Context, string, time.Duration, error)   {}
func (noop) OnCacheHit(context.Context, string)                             {}
func (noop) OnCacheMiss(context.Context, string)                            {}
func (noop) OnCacheSet(context.Context, string, int)                        {}
func (noop) OnResponse(context.Context, string, string, int, time.Duration) {}

func defaults() *Hooks {
	return &Hooks{Planner: noop{}, Sync: noop{}, Cache: noop{}, HTTP: noop{}}
}

var current atomic.Pointer[Hooks]

func init() { current.Store(defaults()) }

// Register installs the non-nil fields of h. Call it from main before
// serving.
func Register(h Hooks) {
	for {
		old := current.Load()
		next := *old
		if h.Planner != nil {
			next.Planner = h.Planner
		}
		if h.Sync != nil {
			next.Sync = h.Sync
		}
		if h.Cache != nil {
			next.Cache = h.Cache
		}
		if h.HTTP != nil {
			next.HTTP = h.HTTP
		}
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Reset restores the no-op hooks.
func Reset() { current.Store(defaults()) }

func Planner() PlannerHooks { return current.Load().Planner }
func Sync() SyncHooks       { return current.Load().Sync }
func Cache() CacheHooks     { return current.Load().Cache }
func HTTP() HTTPHooks       { return current.Load().HTTP }
