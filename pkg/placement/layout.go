package placement

import (
	"slices"

	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/geom"
)

// Candidate is a footprint being considered for placement.
type Candidate struct {
	X, Y   float64
	Spread float64
}

// Circle returns the candidate's footprint.
func (c Candidate) Circle() geom.Circle {
	return geom.Circle{Center: geom.Pt(c.X, c.Y), Spread: c.Spread}
}

// AsCandidate returns p's current footprint as a candidate.
func AsCandidate(p garden.Plant) Candidate {
	return Candidate{X: p.X, Y: p.Y, Spread: p.Spread}
}

// Layout is the ordered collection of placed plants.
//
// Layout is a value: every mutating method returns a new Layout and leaves
// the receiver untouched, so a State can be kept as an undo point or shared
// with a renderer while the next event is applied.
type Layout struct {
	plants []garden.Plant
}

// NewLayout returns a layout holding a copy of plants.
// It does not check the no-overlap invariant; stored data is trusted.
func NewLayout(plants []garden.Plant) Layout {
	return Layout{plants: slices.Clone(plants)}
}

// Plants returns a copy of the plants in placement order.
func (l Layout) Plants() []garden.Plant { return slices.Clone(l.plants) }

// Len returns the number of placed plants.
func (l Layout) Len() int { return len(l.plants) }

// Get looks up a plant by id.
func (l Layout) Get(id string) (garden.Plant, bool) {
	if i := l.index(id); i >= 0 {
		return l.plants[i], true
	}
	return garden.Plant{}, false
}

// CanPlace reports whether c may be committed. The plant with id exclude
// (if any) is ignored, so a plant being moved never collides with itself.
func (l Layout) CanPlace(c Candidate, exclude string) bool {
	circle := c.Circle()
	for _, p := range l.plants {
		if exclude != "" && p.ID == exclude {
			continue
		}
		if p.Footprint().Overlaps(circle) {
			return false
		}
	}
	return true
}

// Conflicts returns the ids of the plants c would overlap, in layout order.
func (l Layout) Conflicts(c Candidate, exclude string) []string {
	circle := c.Circle()
	var ids []string
	for _, p := range l.plants {
		if exclude != "" && p.ID == exclude {
			continue
		}
		if p.Footprint().Overlaps(circle) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Place appends a plant made from t at (x, y).
// It fails with an OVERLAP error, leaving l unchanged, when the footprint
// would overlap an existing plant, and with INVALID_INPUT when x or y is
// NaN or infinite.
func (l Layout) Place(t garden.Template, x, y float64) (Layout, garden.Plant, error) {
	if err := checkFinite(x, y); err != nil {
		return l, garden.Plant{}, err
	}
	c := Candidate{X: x, Y: y, Spread: t.Spread}
	if conflicts := l.Conflicts(c, ""); len(conflicts) > 0 {
		return l, garden.Plant{}, errors.Overlap(conflicts)
	}
	p := garden.NewPlant(t, x, y)
	next := make([]garden.Plant, len(l.plants), len(l.plants)+1)
	copy(next, l.plants)
	return Layout{plants: append(next, p)}, p, nil
}

// Move repositions plant id to (x, y), keeping its attributes and its place
// in the order. The plant itself is excluded from the overlap test.
func (l Layout) Move(id string, x, y float64) (Layout, garden.Plant, error) {
	i := l.index(id)
	if i < 0 {
		return l, garden.Plant{}, errors.New(errors.ErrCodeNotFound, "plant %s not found", id)
	}
	if err := checkFinite(x, y); err != nil {
		return l, garden.Plant{}, err
	}
	c := Candidate{X: x, Y: y, Spread: l.plants[i].Spread}
	if conflicts := l.Conflicts(c, id); len(conflicts) > 0 {
		return l, garden.Plant{}, errors.Overlap(conflicts)
	}
	next := slices.Clone(l.plants)
	next[i].X, next[i].Y = x, y
	return Layout{plants: next}, next[i], nil
}

// Delete removes plant id. The remaining plants keep their ids, positions
// and relative order.
func (l Layout) Delete(id string) (Layout, garden.Plant, error) {
	i := l.index(id)
	if i < 0 {
		return l, garden.Plant{}, errors.New(errors.ErrCodeNotFound, "plant %s not found", id)
	}
	removed := l.plants[i]
	next := slices.Delete(slices.Clone(l.plants), i, i+1)
	return Layout{plants: next}, removed, nil
}

// Valid reports whether every plant has a finite center and every pair
// satisfies the no-overlap invariant. It is O(n²).
func (l Layout) Valid() bool {
	for _, p := range l.plants {
		if !geom.Pt(p.X, p.Y).Finite() {
			return false
		}
	}
	for i := range l.plants {
		for j := i + 1; j < len(l.plants); j++ {
			if l.plants[i].Footprint().Overlaps(l.plants[j].Footprint()) {
				return false
			}
		}
	}
	return true
}

func checkFinite(x, y float64) error {
	if !geom.Pt(x, y).Finite() {
		return errors.New(errors.ErrCodeInvalidInput, "position (%g, %g) is not a finite number", x, y)
	}
	return nil
}

func (l Layout) index(id string) int {
	return slices.IndexFunc(l.plants, func(p garden.Plant) bool { return p.ID == id })
}
