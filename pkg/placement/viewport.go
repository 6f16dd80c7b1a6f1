package placement

import (
	"math"

	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/geom"
)

// Zoom limits. Scale is screen pixels per plot centimeter.
const (
	MinScale     = 0.5
	MaxScale     = 2.0
	ScaleStep    = 0.1
	DefaultScale = 1.0
)

// GridSpacing is the distance between grid lines in plot units.
const GridSpacing = 50.0

// Viewport maps between screen (viewport pixel) and plot coordinates.
type Viewport struct {
	Origin geom.Point  // screen position of the plot's (0,0)
	Scale  float64     // zoom factor
	Plot   garden.Plot // plot bounds
}

// NewViewport returns a viewport at default zoom with the origin at (0,0).
func NewViewport(plot garden.Plot) Viewport {
	return Viewport{Scale: DefaultScale, Plot: plot}
}

// ClampScale limits s to [MinScale, MaxScale] and snaps it to ScaleStep.
func ClampScale(s float64) float64 {
	if s < MinScale || math.IsNaN(s) {
		s = MinScale
	}
	if s > MaxScale {
		s = MaxScale
	}
	const stepsPerUnit = 1 / ScaleStep
	return math.Round(s*stepsPerUnit) / stepsPerUnit
}

// WithScale returns v zoomed to s (clamped).
func (v Viewport) WithScale(s float64) Viewport {
	v.Scale = ClampScale(s)
	return v
}

func (v Viewport) scale() float64 {
	if v.Scale <= 0 {
		return DefaultScale
	}
	return v.Scale
}

// ToPlot converts a screen position to plot space without clamping.
func (v Viewport) ToPlot(screen geom.Point) geom.Point {
	s := v.scale()
	return geom.Pt((screen.X-v.Origin.X)/s, (screen.Y-v.Origin.Y)/s)
}

// ToScreen converts a plot position to screen space.
func (v Viewport) ToScreen(p geom.Point) geom.Point {
	s := v.scale()
	return geom.Pt(p.X*s+v.Origin.X, p.Y*s+v.Origin.Y)
}

// Candidate maps a screen position to the center a footprint of the given
// spread would be committed at: the plot position clamped so the whole
// circle stays inside the plot.
func (v Viewport) Candidate(screen geom.Point, spread float64) geom.Point {
	return v.Plot.Bounds().ClampCircle(v.ToPlot(screen), spread/2)
}

// Readout returns the whole-centimeter plot position under the pointer,
// clamped to the plot.
func (v Viewport) Readout(screen geom.Point) geom.Point {
	return v.Plot.Bounds().ClampPoint(v.ToPlot(screen)).Floor()
}

// Contains reports whether a screen position falls on the plot.
func (v Viewport) Contains(screen geom.Point) bool {
	p := v.ToPlot(screen)
	if p.X < 0 || p.Y < 0 {
		return false
	}
	if v.Plot.Width > 0 && p.X > v.Plot.Width {
		return false
	}
	if v.Plot.Height > 0 && p.Y > v.Plot.Height {
		return false
	}
	return true
}
