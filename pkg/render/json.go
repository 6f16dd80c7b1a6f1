package render

import (
	"encoding/json"

	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/geom"
	"github.com/matzehuels/gardengrid/pkg/placement"
)

// Frame is the JSON form of one rendered state.
type Frame struct {
	Width     float64             `json:"width"`
	Height    float64             `json:"height"`
	Scale     float64             `json:"scale"`
	Selection placement.Selection `json:"selection"`
	Readout   *geom.Point         `json:"readout,omitempty"`
	Preview   *placement.Preview  `json:"preview,omitempty"`
	Usage     map[string]int      `json:"usage"`
	Commands  []Command           `json:"commands"`
	Plants    []garden.Plant      `json:"plants"`
}

// NewFrame builds the frame for s.
func NewFrame(s placement.State) Frame {
	w, h := Canvas(s)
	plants := s.Layout.Plants()
	f := Frame{
		Width:     w,
		Height:    h,
		Scale:     s.Viewport.Scale,
		Selection: s.Selection,
		Usage:     garden.UsageCounts(plants),
		Commands:  Commands(s),
		Plants:    plants,
	}
	if s.Hover {
		r := s.Readout()
		f.Readout = &r
	}
	if pv, ok := s.Preview(); ok {
		f.Preview = &pv
	}
	return f
}

// RenderJSON encodes the frame for s.
func RenderJSON(s placement.State) ([]byte, error) {
	return json.MarshalIndent(NewFrame(s), "", "  ")
}
