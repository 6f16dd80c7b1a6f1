package render

import (
	"math"

	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/geom"
	"github.com/matzehuels/gardengrid/pkg/placement"
)

// Colors used by [Commands].
const (
	SoilColor      = "#d2b48c"
	GridColor      = "#8b5a2b"
	BorderColor    = "#5a3c1a"
	PlantFill      = "rgba(76,175,80,0.15)"
	LegalStroke    = "green"
	IllegalStroke  = "red"
	BorderWidth    = 3.0
	PreviewDash    = "5,3"
	ImageSize      = 32.0
	unboundedExtra = 2 * placement.GridSpacing
)

// Kind is the shape a command draws.
type Kind string

const (
	KindRect   Kind = "rect"
	KindLine   Kind = "line"
	KindCircle Kind = "circle"
	KindText   Kind = "text"
	KindImage  Kind = "image"
)

// Command is one drawing primitive in screen coordinates.
//
// Rect and Image use X, Y, W, H; Line uses X, Y, X2, Y2; Circle uses X, Y
// as center and R; Text is centered on X, Y.
type Command struct {
	Kind        Kind    `json:"kind"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	X2          float64 `json:"x2,omitempty"`
	Y2          float64 `json:"y2,omitempty"`
	W           float64 `json:"w,omitempty"`
	H           float64 `json:"h,omitempty"`
	R           float64 `json:"r,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Dash        string  `json:"dash,omitempty"`
	Text        string  `json:"text,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
	Href        string  `json:"href,omitempty"`
	ID          string  `json:"id,omitempty"` // plant id, for hit testing
}

// Canvas returns the plot extent in screen pixels. An unbounded axis grows
// to fit the placed plants and the preview, plus two grid cells.
func Canvas(s placement.State) (width, height float64) {
	ext := Extent(s)
	scale := s.Viewport.Scale
	if scale <= 0 {
		scale = placement.DefaultScale
	}
	return ext.Width * scale, ext.Height * scale
}

// Extent returns the plot size in plot units, resolving unbounded axes
// against the content.
func Extent(s placement.State) garden.Plot {
	plot := s.Viewport.Plot
	if plot.Width > 0 && plot.Height > 0 {
		return plot
	}
	var maxX, maxY float64
	grow := func(c geom.Point, r float64) {
		maxX = math.Max(maxX, c.X+r)
		maxY = math.Max(maxY, c.Y+r)
	}
	for _, p := range s.Layout.Plants() {
		grow(p.Center(), p.Radius())
	}
	if pv, ok := s.Preview(); ok {
		grow(pv.Center, pv.Spread/2)
	}
	if plot.Width <= 0 {
		plot.Width = roundUp(maxX+unboundedExtra, placement.GridSpacing)
	}
	if plot.Height <= 0 {
		plot.Height = roundUp(maxY+unboundedExtra, placement.GridSpacing)
	}
	return plot
}

func roundUp(v, step float64) float64 {
	return math.Ceil(v/step) * step
}

// Commands returns the draw list for s, back to front.
func Commands(s placement.State) []Command {
	vp := s.Viewport
	scale := vp.Scale
	if scale <= 0 {
		scale = placement.DefaultScale
	}
	w, h := Canvas(s)
	origin := vp.Origin

	cmds := []Command{{Kind: KindRect, X: origin.X, Y: origin.Y, W: w, H: h, Fill: SoilColor}}
	cmds = append(cmds, grid(origin, w, h, placement.GridSpacing*scale)...)

	for _, p := range s.Layout.Plants() {
		c := vp.ToScreen(p.Center())
		r := p.Radius() * scale
		cmds = append(cmds, Command{Kind: KindCircle, X: c.X, Y: c.Y, R: r, Fill: PlantFill, ID: p.ID})
		cmds = append(cmds, marker(c, r, p.Marker, p.Image)...)
	}

	if pv, ok := s.Preview(); ok {
		c := vp.ToScreen(pv.Center)
		stroke := LegalStroke
		if !pv.Legal {
			stroke = IllegalStroke
		}
		cmds = append(cmds, Command{
			Kind: KindCircle, X: c.X, Y: c.Y, R: pv.Spread / 2 * scale,
			Stroke: stroke, StrokeWidth: 1, Dash: PreviewDash, ID: pv.PlantID,
		})
		cmds = append(cmds, marker(c, pv.Spread/2*scale, pv.Marker, pv.Image)...)
	}

	cmds = append(cmds, Command{
		Kind: KindRect, X: origin.X, Y: origin.Y, W: w, H: h,
		Stroke: BorderColor, StrokeWidth: BorderWidth,
	})
	return cmds
}

func grid(origin geom.Point, w, h, spacing float64) []Command {
	if spacing <= 0 {
		return nil
	}
	var cmds []Command
	for x := 0.0; x < w; x += spacing {
		cmds = append(cmds, Command{
			Kind: KindLine, X: origin.X + x, Y: origin.Y, X2: origin.X + x, Y2: origin.Y + h,
			Stroke: GridColor, StrokeWidth: 1,
		})
	}
	for y := 0.0; y < h; y += spacing {
		cmds = append(cmds, Command{
			Kind: KindLine, X: origin.X, Y: origin.Y + y, X2: origin.X + w, Y2: origin.Y + y,
			Stroke: GridColor, StrokeWidth: 1,
		})
	}
	return cmds
}

func marker(c geom.Point, r float64, emoji, image string) []Command {
	if image != "" {
		return []Command{{
			Kind: KindImage, X: c.X - ImageSize/2, Y: c.Y - ImageSize/2,
			W: ImageSize, H: ImageSize, Href: image,
		}}
	}
	if emoji == "" {
		return nil
	}
	return []Command{{Kind: KindText, X: c.X, Y: c.Y, Text: emoji, FontSize: math.Max(10, r)}}
}
