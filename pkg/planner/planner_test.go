package planner

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/notice"
	"github.com/matzehuels/gardengrid/pkg/observability"
	"github.com/matzehuels/gardengrid/pkg/placement"
	"github.com/matzehuels/gardengrid/pkg/storage"
	"github.com/matzehuels/gardengrid/pkg/storage/memory"
)

type recorder struct {
	mu    sync.Mutex
	snaps []garden.Snapshot
}

func (r *recorder) Publish(userID string, snap garden.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recorder) last() garden.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snaps[len(r.snaps)-1]
}

var tomato = garden.Template{ID: "tomato", Name: "Tomato", Marker: "🍅", Spread: 30, Depth: 20}

func newWorkspace(t *testing.T) (*Workspace, *recorder, *notice.Collector) {
	t.Helper()
	pub := &recorder{}
	notes := &notice.Collector{}
	ws := New("u1", garden.Snapshot{Palette: []garden.Template{tomato}}, Options{
		Publisher: pub,
		Notices:   notes,
	})
	return ws, pub, notes
}

func TestLoadOrSeed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	snap, seeded, err := LoadOrSeed(ctx, store, "new")
	if err != nil {
		t.Fatal(err)
	}
	if !seeded || len(snap.Palette) != 3 || len(snap.Plants) != 0 {
		t.Fatalf("seeded=%v palette=%d plants=%d", seeded, len(snap.Palette), len(snap.Plants))
	}

	stored := garden.Snapshot{Palette: []garden.Template{tomato}}
	if err := storage.SaveSnapshot(ctx, store, "old", stored); err != nil {
		t.Fatal(err)
	}
	snap, seeded, err = LoadOrSeed(ctx, store, "old")
	if err != nil {
		t.Fatal(err)
	}
	if seeded || len(snap.Palette) != 1 || snap.Palette[0].Name != "Tomato" {
		t.Errorf("seeded=%v palette=%+v", seeded, snap.Palette)
	}
}

func TestOpenPublishesSeed(t *testing.T) {
	pub := &recorder{}
	ws, err := Open(context.Background(), memory.NewStore(), "u1", Options{Publisher: pub})
	if err != nil {
		t.Fatal(err)
	}
	if pub.count() != 1 {
		t.Fatalf("publishes = %d, want 1", pub.count())
	}
	if got := ws.State().Palette.Len(); got != 3 {
		t.Errorf("palette = %d, want 3", got)
	}
	if ws.State().Viewport.Plot != garden.DefaultPlot {
		t.Errorf("plot = %+v", ws.State().Viewport.Plot)
	}
}

func TestApplyPublishesCommits(t *testing.T) {
	ctx := context.Background()
	ws, pub, notes := newWorkspace(t)

	ws.Apply(ctx, placement.Event{Kind: placement.Select, TemplateID: "tomato"})
	ws.Apply(ctx, placement.Event{Kind: placement.PointerMove, X: 100, Y: 100})
	if pub.count() != 0 {
		t.Fatalf("selection and pointer moves should not publish")
	}

	res := ws.Apply(ctx, placement.Event{Kind: placement.Click, X: 100, Y: 100})
	if res.Change != placement.PlantPlaced {
		t.Fatalf("change = %q, err = %v", res.Change, res.Err)
	}
	if pub.count() != 1 || len(pub.last().Plants) != 1 {
		t.Fatalf("publishes = %d", pub.count())
	}

	res = ws.Apply(ctx, placement.Event{Kind: placement.Click, X: 115, Y: 100})
	if !errors.Is(res.Err, errors.ErrCodeOverlap) {
		t.Fatalf("err = %v, want overlap", res.Err)
	}
	if pub.count() != 1 {
		t.Error("a rejected click must not publish")
	}
	got := notes.Drain()
	if len(got) != 1 || got[0].Message != notice.OverlapMessage {
		t.Errorf("notices = %+v", got)
	}
	if ws.State().Selection.Mode != placement.Armed {
		t.Error("selection should stay armed")
	}
}

func TestMissingSelectionIsSilent(t *testing.T) {
	ws, pub, notes := newWorkspace(t)
	res := ws.Apply(context.Background(), placement.Event{Kind: placement.Click, X: 10, Y: 10})
	if !errors.Is(res.Err, errors.ErrCodeMissingSelection) {
		t.Fatalf("err = %v", res.Err)
	}
	if pub.count() != 0 || len(notes.Drain()) != 0 {
		t.Error("missing selection should neither publish nor notify")
	}
}

func TestPlaceMoveDelete(t *testing.T) {
	ctx := context.Background()
	ws, pub, _ := newWorkspace(t)

	a, err := ws.Place(ctx, "tomato", 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Place(ctx, "tomato", 115, 100); !errors.Is(err, errors.ErrCodeOverlap) {
		t.Fatalf("err = %v, want overlap", err)
	}
	if _, err := ws.Place(ctx, "nope", 300, 300); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	// Clamped to the plot edge using the tomato's radius.
	b, err := ws.Place(ctx, "tomato", -40, 5)
	if err != nil {
		t.Fatal(err)
	}
	if b.X != 15 || b.Y != 15 {
		t.Errorf("clamped = (%v, %v), want (15, 15)", b.X, b.Y)
	}

	moved, err := ws.Move(ctx, a.ID, 400, 300)
	if err != nil {
		t.Fatal(err)
	}
	if moved.ID != a.ID || moved.X != 400 || moved.Y != 300 {
		t.Errorf("moved = %+v", moved)
	}
	if _, err := ws.Move(ctx, a.ID, 20, 20); !errors.Is(err, errors.ErrCodeOverlap) {
		t.Errorf("move onto b: err = %v", err)
	}

	if _, err := ws.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Delete(ctx, b.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second delete: err = %v", err)
	}

	plants := ws.Snapshot().Plants
	if len(plants) != 1 || plants[0].ID != a.ID {
		t.Errorf("plants = %+v", plants)
	}
	// place, place, move, delete
	if pub.count() != 4 {
		t.Errorf("publishes = %d, want 4", pub.count())
	}
}

func TestMoveEndsEdit(t *testing.T) {
	ctx := context.Background()
	ws, _, _ := newWorkspace(t)
	p, _ := ws.Place(ctx, "tomato", 100, 100)
	ws.Apply(ctx, placement.Event{Kind: placement.Edit, PlantID: p.ID})
	if _, err := ws.Move(ctx, p.ID, 200, 200); err != nil {
		t.Fatal(err)
	}
	if ws.State().Selection != placement.None {
		t.Errorf("selection = %+v", ws.State().Selection)
	}
}

func TestTemplates(t *testing.T) {
	ctx := context.Background()
	ws, _, notes := newWorkspace(t)

	_, err := ws.AddTemplate(ctx, garden.Template{Name: "Bean", Spread: 10, Depth: 5})
	if !errors.Is(err, errors.ErrCodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	got := notes.Drain()
	if len(got) != 1 || got[0].Message != garden.MissingFieldsMessage || got[0].Duration() != notice.ValidationDuration {
		t.Errorf("notices = %+v", got)
	}

	bean, err := ws.AddTemplate(ctx, garden.Template{Name: "Bean", Marker: "🫘", Spread: 10, Depth: 5})
	if err != nil {
		t.Fatal(err)
	}
	if bean.ID == "" {
		t.Error("added template should get an id")
	}

	ws.Apply(ctx, placement.Event{Kind: placement.Select, TemplateID: bean.ID})
	if _, err := ws.RemoveTemplate(ctx, bean.ID); err != nil {
		t.Fatal(err)
	}
	if ws.State().Selection != placement.None {
		t.Error("removing the armed template should clear the selection")
	}
	if ws.State().Palette.Len() != 1 {
		t.Errorf("palette = %d", ws.State().Palette.Len())
	}
}

type countingHooks struct {
	mu      sync.Mutex
	commits []string
	rejects []string
}

func (h *countingHooks) OnEvent(context.Context, string, string) {}

func (h *countingHooks) OnCommit(_ context.Context, _, change string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commits = append(h.commits, change)
}

func (h *countingHooks) OnReject(_ context.Context, _, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rejects = append(h.rejects, code)
}

func TestHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.Register(observability.Hooks{Planner: hooks})
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	ws, _, _ := newWorkspace(t)
	ws.Place(ctx, "tomato", 100, 100)
	ws.Place(ctx, "tomato", 100, 100)

	if len(hooks.commits) != 1 || hooks.commits[0] != "placed" {
		t.Errorf("commits = %v", hooks.commits)
	}
	if len(hooks.rejects) != 1 || hooks.rejects[0] != "OVERLAP" {
		t.Errorf("rejects = %v", hooks.rejects)
	}
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &recorder{}
	m := NewManager(store, Options{Publisher: pub})

	a, err := m.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := m.Get(ctx, "u1")
	if a != b {
		t.Error("Get should return the cached workspace")
	}
	c, _ := m.Get(ctx, "u2")
	if c == a || c.UserID() != "u2" {
		t.Error("users should get separate workspaces")
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d", m.Len())
	}
	m.Forget("u1")
	if m.Len() != 1 {
		t.Errorf("Len after Forget = %d", m.Len())
	}
	// Both users were seeded.
	if pub.count() != 2 {
		t.Errorf("publishes = %d, want 2", pub.count())
	}
}

func TestConcurrentPlacementsKeepInvariant(t *testing.T) {
	ctx := context.Background()
	ws, _, _ := newWorkspace(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				ws.Place(ctx, "tomato", float64(20+j*10), float64(20+i*10))
			}
		}(i)
	}
	wg.Wait()

	if !placement.NewLayout(ws.Snapshot().Plants).Valid() {
		t.Error("concurrent placements produced an overlap")
	}
}

// stallFirstCommit blocks the first OnCommit until release is closed.
type stallFirstCommit struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (h *stallFirstCommit) OnEvent(context.Context, string, string)  {}
func (h *stallFirstCommit) OnReject(context.Context, string, string) {}

func (h *stallFirstCommit) OnCommit(context.Context, string, string) {
	first := false
	h.once.Do(func() { first = true })
	if first {
		close(h.entered)
		<-h.release
	}
}

func TestPublishesInCommitOrder(t *testing.T) {
	hooks := &stallFirstCommit{entered: make(chan struct{}), release: make(chan struct{})}
	observability.Register(observability.Hooks{Planner: hooks})
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	ws, pub, _ := newWorkspace(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ws.Place(ctx, "tomato", 100, 100)
	}()
	<-hooks.entered

	if _, err := ws.Place(ctx, "tomato", 200, 100); err != nil {
		t.Fatal(err)
	}
	close(hooks.release)
	<-done

	want := ws.Snapshot().Plants
	got := pub.last().Plants
	if len(got) != len(want) {
		t.Fatalf("last published %d plants, workspace has %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Errorf("published plant %d = %s, want %s", i, got[i].ID, want[i].ID)
		}
	}
}

// slowStore delays every List so concurrent loads overlap.
type slowStore struct{ storage.Store }

func (s slowStore) List(ctx context.Context, userID, collection string) ([]storage.Document, error) {
	time.Sleep(20 * time.Millisecond)
	return s.Store.List(ctx, userID, collection)
}

func TestManagerSeedsNewUserOnce(t *testing.T) {
	ctx := context.Background()
	pub := &recorder{}
	m := NewManager(slowStore{memory.NewStore()}, Options{Publisher: pub})

	const callers = 8
	spaces := make([]*Workspace, callers)
	var wg sync.WaitGroup
	for i := range spaces {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ws, err := m.Get(ctx, "new")
			if err != nil {
				t.Error(err)
				return
			}
			spaces[i] = ws
		}(i)
	}
	wg.Wait()

	for _, ws := range spaces[1:] {
		if ws != spaces[0] {
			t.Fatal("concurrent Get returned different workspaces")
		}
	}
	if pub.count() != 1 {
		t.Fatalf("seeded snapshot published %d times, want 1", pub.count())
	}
	stored, live := pub.last().Palette, spaces[0].Snapshot().Palette
	if len(stored) != len(live) {
		t.Fatalf("published %d templates, workspace has %d", len(stored), len(live))
	}
	for i := range live {
		if stored[i].ID != live[i].ID {
			t.Errorf("template %d: published id %s, workspace id %s", i, stored[i].ID, live[i].ID)
		}
	}
}

func TestNewWarnsAboutInvalidLayout(t *testing.T) {
	tests := []struct {
		name   string
		plants []garden.Plant
		warn   bool
	}{
		{"apart", []garden.Plant{
			{ID: "a", Spread: 30, X: 100, Y: 100},
			{ID: "b", Spread: 30, X: 130, Y: 100},
		}, false},
		{"overlapping", []garden.Plant{
			{ID: "a", Spread: 30, X: 100, Y: 100},
			{ID: "b", Spread: 30, X: 110, Y: 100},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ws := New("u1", garden.Snapshot{Palette: []garden.Template{tomato}, Plants: tt.plants},
				Options{Logger: log.New(&buf)})

			if got := strings.Contains(buf.String(), "overlapping"); got != tt.warn {
				t.Errorf("warning logged = %v, want %v:\n%s", got, tt.warn, buf.String())
			}
			if ws.State().Layout.Len() != len(tt.plants) {
				t.Error("stored plants should load unchanged")
			}
		})
	}
}
