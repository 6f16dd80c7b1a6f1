package garden

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/matzehuels/gardengrid/pkg/geom"
)

// Collection names used as document store keys.
const (
	CollectionPalette = "palette"
	CollectionPlants  = "plants"
)

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// Template is a reusable plant definition shown in the palette.
type Template struct {
	ID     string  `json:"id" bson:"id"`
	Name   string  `json:"name" bson:"name"`
	Marker string  `json:"marker,omitempty" bson:"marker,omitempty"` // emoji
	Image  string  `json:"image,omitempty" bson:"image,omitempty"`   // image URL
	Spread float64 `json:"spread" bson:"spread"`                     // footprint diameter, cm
	Depth  float64 `json:"depth" bson:"depth"`                       // root depth, cm
}

// Radius returns half the template's spread.
func (t Template) Radius() float64 { return t.Spread / 2 }

// Plant is a template instance placed on the plot.
type Plant struct {
	ID         string  `json:"id" bson:"id"`
	TemplateID string  `json:"template_id,omitempty" bson:"template_id,omitempty"`
	Name       string  `json:"name" bson:"name"`
	Marker     string  `json:"marker,omitempty" bson:"marker,omitempty"`
	Image      string  `json:"image,omitempty" bson:"image,omitempty"`
	Spread     float64 `json:"spread" bson:"spread"`
	Depth      float64 `json:"depth" bson:"depth"`
	X          float64 `json:"x" bson:"x"`
	Y          float64 `json:"y" bson:"y"`
}

// NewPlant copies t by value into a new plant centered at (x, y).
func NewPlant(t Template, x, y float64) Plant {
	return Plant{
		ID:         NewID(),
		TemplateID: t.ID,
		Name:       t.Name,
		Marker:     t.Marker,
		Image:      t.Image,
		Spread:     t.Spread,
		Depth:      t.Depth,
		X:          x,
		Y:          y,
	}
}

// Center returns the plant's position.
func (p Plant) Center() geom.Point { return geom.Pt(p.X, p.Y) }

// Radius returns half the plant's spread.
func (p Plant) Radius() float64 { return p.Spread / 2 }

// Footprint returns the plant's circle in plot space.
func (p Plant) Footprint() geom.Circle {
	return geom.Circle{Center: p.Center(), Spread: p.Spread}
}

// Label returns the plant list entry "Name at (x, y)" with whole
// centimeter coordinates.
func (p Plant) Label() string {
	return fmt.Sprintf("%s at (%d, %d)", p.Name, int(math.Floor(p.X)), int(math.Floor(p.Y)))
}

// Plot is the logical garden area in centimeters.
// A zero dimension leaves that axis unbounded.
type Plot struct {
	Width  float64 `json:"width" toml:"width" bson:"width"`
	Height float64 `json:"height" toml:"height" bson:"height"`
}

// DefaultPlot is used when no plot size is configured.
var DefaultPlot = Plot{Width: 1000, Height: 600}

// Bounds returns the plot as geometry bounds.
func (p Plot) Bounds() geom.Bounds {
	return geom.Bounds{Width: p.Width, Height: p.Height}
}

// Snapshot is the serializable state of one user's garden.
// It carries plain records only; no selection or preview state.
type Snapshot struct {
	Palette []Template `json:"palette" bson:"palette"`
	Plants  []Plant    `json:"plants" bson:"plants"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Palette: append([]Template(nil), s.Palette...),
		Plants:  append([]Plant(nil), s.Plants...),
	}
}

// UsageCounts returns the number of placed plants per template name.
func UsageCounts(plants []Plant) map[string]int {
	counts := make(map[string]int)
	for _, p := range plants {
		counts[p.Name]++
	}
	return counts
}
