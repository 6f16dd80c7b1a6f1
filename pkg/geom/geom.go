package geom

import "math"

// Point is a position in plot space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Finite reports whether both coordinates are neither NaN nor infinite.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Floor truncates both coordinates toward negative infinity.
func (p Point) Floor() Point {
	return Point{X: math.Floor(p.X), Y: math.Floor(p.Y)}
}

// Circle is a circular footprint. Spread is the diameter.
type Circle struct {
	Center Point
	Spread float64
}

// Radius returns half the spread.
func (c Circle) Radius() float64 { return c.Spread / 2 }

// Overlaps reports whether c and o intersect with positive area.
// Circles that exactly touch do not overlap.
func (c Circle) Overlaps(o Circle) bool {
	return c.Center.Distance(o.Center) < (c.Spread+o.Spread)/2
}

// Bounds is an axis-aligned rectangle anchored at the origin.
// A zero Width or Height leaves that axis unbounded above.
type Bounds struct {
	Width, Height float64
}

// Contains reports whether the whole circle lies inside b.
func (b Bounds) Contains(c Circle) bool {
	r := c.Radius()
	if c.Center.X-r < 0 || c.Center.Y-r < 0 {
		return false
	}
	if b.Width > 0 && c.Center.X+r > b.Width {
		return false
	}
	if b.Height > 0 && c.Center.Y+r > b.Height {
		return false
	}
	return true
}

// ClampCircle moves center so a circle of the given radius fits inside b.
// When the circle is wider than an axis it is centered on that axis.
func (b Bounds) ClampCircle(center Point, radius float64) Point {
	return Point{
		X: clampAxis(center.X, radius, b.Width),
		Y: clampAxis(center.Y, radius, b.Height),
	}
}

// ClampPoint keeps p inside b without regard to any radius.
func (b Bounds) ClampPoint(p Point) Point {
	return b.ClampCircle(p, 0)
}

func clampAxis(v, r, size float64) float64 {
	if size > 0 && 2*r > size {
		return size / 2
	}
	if v < r {
		v = r
	}
	if size > 0 && v > size-r {
		v = size - r
	}
	return v
}
