package placement

import (
	"fmt"

	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/geom"
)

// Mode is the selection engine's current mode.
type Mode int

const (
	// Idle means nothing is selected; clicks on the plot are ignored.
	Idle Mode = iota
	// Armed means a palette template is selected for placing.
	Armed
	// Editing means an existing plant is selected for moving.
	Editing
)

// String returns the mode name used in logs and JSON.
func (m Mode) String() string {
	switch m {
	case Armed:
		return "armed"
	case Editing:
		return "editing"
	default:
		return "idle"
	}
}

// MarshalText encodes the mode as its name.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a mode name. Unknown names decode as Idle.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "armed":
		*m = Armed
	case "editing":
		*m = Editing
	default:
		*m = Idle
	}
	return nil
}

// Selection holds at most one of an armed template or an edited plant.
type Selection struct {
	Mode       Mode   `json:"mode"`
	TemplateID string `json:"template_id,omitempty"`
	PlantID    string `json:"plant_id,omitempty"`
}

// None is the empty selection.
var None = Selection{}

// ArmTemplate selects template id for placing.
func ArmTemplate(id string) Selection { return Selection{Mode: Armed, TemplateID: id} }

// EditPlant selects plant id for moving.
func EditPlant(id string) Selection { return Selection{Mode: Editing, PlantID: id} }

// State is one step of a planning session. It is a value; [Step] returns a
// new State for every event.
type State struct {
	Layout    Layout
	Palette   garden.Palette
	Viewport  Viewport
	Selection Selection

	// Pointer is the last pointer position in screen coordinates.
	Pointer geom.Point
	// Hover is true while the pointer is over the plot.
	Hover bool
}

// NewState builds the initial state for a loaded garden.
func NewState(snap garden.Snapshot, plot garden.Plot) State {
	return State{
		Layout:   NewLayout(snap.Plants),
		Palette:  garden.NewPalette(snap.Palette),
		Viewport: NewViewport(plot),
	}
}

// Snapshot returns the persistable part of s.
func (s State) Snapshot() garden.Snapshot {
	return garden.Snapshot{
		Palette: s.Palette.Items(),
		Plants:  s.Layout.Plants(),
	}
}

// Readout returns the whole-centimeter plot coordinates under the pointer.
func (s State) Readout() geom.Point {
	return s.Viewport.Readout(s.Pointer)
}

// Preview describes the ghost circle drawn while placing or moving.
type Preview struct {
	Center  geom.Point `json:"center"`
	Spread  float64    `json:"spread"`
	Legal   bool       `json:"legal"`
	Name    string     `json:"name"`
	Marker  string     `json:"marker,omitempty"`
	Image   string     `json:"image,omitempty"`
	PlantID string     `json:"plant_id,omitempty"` // set while editing
}

// Preview returns the pending candidate under the pointer. ok is false when
// nothing is armed or edited, the selection no longer resolves, or the
// pointer has left the plot.
func (s State) Preview() (Preview, bool) {
	if !s.Hover {
		return Preview{}, false
	}
	var (
		spread  float64
		exclude string
		pv      Preview
	)
	switch s.Selection.Mode {
	case Armed:
		t, ok := s.Palette.Get(s.Selection.TemplateID)
		if !ok {
			return Preview{}, false
		}
		spread = t.Spread
		pv = Preview{Name: t.Name, Marker: t.Marker, Image: t.Image}
	case Editing:
		p, ok := s.Layout.Get(s.Selection.PlantID)
		if !ok {
			return Preview{}, false
		}
		spread = p.Spread
		exclude = p.ID
		pv = Preview{Name: p.Name, Marker: p.Marker, Image: p.Image, PlantID: p.ID}
	default:
		return Preview{}, false
	}
	center := s.Viewport.Candidate(s.Pointer, spread)
	pv.Center = center
	pv.Spread = spread
	pv.Legal = s.Layout.CanPlace(Candidate{X: center.X, Y: center.Y, Spread: spread}, exclude)
	return pv, true
}

// EditBanner returns "Editing plant #n", n being the 1-based position of
// the edited plant in the plant list. ok is false outside Editing.
func (s State) EditBanner() (string, bool) {
	if s.Selection.Mode != Editing {
		return "", false
	}
	for i, p := range s.Layout.plants {
		if p.ID == s.Selection.PlantID {
			return fmt.Sprintf("Editing plant #%d", i+1), true
		}
	}
	return "", false
}
