// Package planner binds a user's placement state to persistence, notices
// and observability hooks.
//
// A [Workspace] owns one user's [placement.State] and serializes every event
// applied to it. After each committed change it hands a snapshot to its
// [Publisher] (normally a [syncer.Syncer]) and never waits for the save.
// A [Manager] keeps one workspace per user for the HTTP server.
//
//	ws, err := planner.Open(ctx, store, userID, planner.Options{Publisher: sync})
//	res := ws.Apply(ctx, placement.Event{Kind: placement.Select, TemplateID: id})
//	res = ws.Apply(ctx, placement.Event{Kind: placement.Click, X: 120, Y: 80})
package planner

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/notice"
	"github.com/matzehuels/gardengrid/pkg/observability"
	"github.com/matzehuels/gardengrid/pkg/placement"
	"github.com/matzehuels/gardengrid/pkg/storage"
)

// Publisher receives a snapshot after every committed change.
// Publish must not block.
type Publisher interface {
	Publish(userID string, snap garden.Snapshot)
}

// PublisherFunc adapts a function to a Publisher.
type PublisherFunc func(userID string, snap garden.Snapshot)

// Publish calls f.
func (f PublisherFunc) Publish(userID string, snap garden.Snapshot) { f(userID, snap) }

// Options configures a Workspace.
type Options struct {
	// Plot bounds new workspaces. Zero means garden.DefaultPlot.
	Plot garden.Plot

	// Publisher persists committed snapshots. Nil drops them.
	Publisher Publisher

	// Notices receives overlap and validation notices. Nil discards them.
	Notices notice.Sink

	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Plot == (garden.Plot{}) {
		o.Plot = garden.DefaultPlot
	}
	if o.Publisher == nil {
		o.Publisher = PublisherFunc(func(string, garden.Snapshot) {})
	}
	if o.Notices == nil {
		o.Notices = notice.Discard
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// LoadOrSeed reads the user's garden. A user with nothing stored gets the
// default palette and seeded is true.
func LoadOrSeed(ctx context.Context, store storage.Store, userID string) (snap garden.Snapshot, seeded bool, err error) {
	snap, found, err := storage.LoadSnapshot(ctx, store, userID)
	if err != nil {
		return garden.Snapshot{}, false, fmt.Errorf("load garden: %w", err)
	}
	if found {
		return snap, false, nil
	}
	return garden.Snapshot{Palette: garden.DefaultPalette(), Plants: []garden.Plant{}}, true, nil
}

// Workspace is one user's planning session. It is safe for concurrent use;
// events are applied one at a time in arrival order.
type Workspace struct {
	userID string
	opts   Options

	mu    sync.Mutex
	state placement.State
}

// New creates a workspace over an already loaded snapshot. A layout that
// breaks the no-overlap rule is kept as stored and logged as a warning.
func New(userID string, snap garden.Snapshot, opts Options) *Workspace {
	opts = opts.withDefaults()
	state := placement.NewState(snap, opts.Plot)
	if !state.Layout.Valid() {
		opts.Logger.Warn("stored layout has overlapping or misplaced plants", "user", userID, "plants", state.Layout.Len())
	}
	return &Workspace{
		userID: userID,
		opts:   opts,
		state:  state,
	}
}

// Open loads (or seeds) the user's garden and returns a workspace for it.
// A freshly seeded palette is published right away so it is stored.
func Open(ctx context.Context, store storage.Store, userID string, opts Options) (*Workspace, error) {
	snap, seeded, err := LoadOrSeed(ctx, store, userID)
	if err != nil {
		return nil, err
	}
	ws := New(userID, snap, opts)
	if seeded {
		ws.opts.Logger.Info("seeded default palette", "user", userID, "templates", len(snap.Palette))
		ws.opts.Publisher.Publish(userID, snap)
	}
	return ws, nil
}

// UserID returns the owner of the workspace.
func (w *Workspace) UserID() string { return w.userID }

// State returns the current state. The value is independent of later
// events.
func (w *Workspace) State() placement.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Snapshot returns the persistable part of the current state.
func (w *Workspace) Snapshot() garden.Snapshot {
	return w.State().Snapshot()
}

// Apply runs e through the placement engine. Rejections are reported in the
// result and raise their notice; they never change the garden.
func (w *Workspace) Apply(ctx context.Context, e placement.Event) placement.Result {
	return w.mutate(ctx, string(e.Kind), func(s placement.State) (placement.State, placement.Result) {
		return placement.Step(s, e)
	})
}

// mutate applies fn and publishes a committed snapshot under the workspace
// lock, so the publisher sees snapshots in commit order. Hooks and notices
// run after unlocking.
func (w *Workspace) mutate(ctx context.Context, kind string, fn func(placement.State) (placement.State, placement.Result)) placement.Result {
	observability.Planner().OnEvent(ctx, w.userID, kind)

	w.mu.Lock()
	next, res := fn(w.state)
	w.state = next
	if res.Committed() {
		w.opts.Publisher.Publish(w.userID, next.Snapshot())
	}
	w.mu.Unlock()

	w.report(ctx, res)
	return res
}

func (w *Workspace) report(ctx context.Context, res placement.Result) {
	logger := w.opts.Logger
	if res.Err != nil {
		code := errors.GetCode(res.Err)
		observability.Planner().OnReject(ctx, w.userID, string(code))
		if code.Recoverable() {
			logger.Debug("event rejected", "user", w.userID, "code", code, "error", res.Err)
		} else {
			logger.Warn("event failed", "user", w.userID, "error", res.Err)
		}
	}
	if res.Notice != nil {
		w.opts.Notices.Notify(*res.Notice)
	}
	if !res.Committed() {
		return
	}
	observability.Planner().OnCommit(ctx, w.userID, string(res.Change))
	switch res.Change {
	case placement.PlantPlaced, placement.PlantMoved, placement.PlantDeleted:
		logger.Info("plant "+string(res.Change), "user", w.userID, "plant", res.Plant.ID,
			"name", res.Plant.Name, "x", res.Plant.X, "y", res.Plant.Y)
	default:
		logger.Info(string(res.Change), "user", w.userID, "template", res.Template.ID,
			"name", res.Template.Name)
	}
}
