package garden

import (
	"slices"
	"strings"

	"github.com/matzehuels/gardengrid/pkg/errors"
)

// DefaultPalette returns the templates a new user starts with.
// Each call returns fresh ids.
func DefaultPalette() []Template {
	return []Template{
		{ID: NewID(), Name: "Tomato", Marker: "🍅", Spread: 30, Depth: 20},
		{ID: NewID(), Name: "Carrot", Marker: "🥕", Spread: 20, Depth: 15},
		{ID: NewID(), Name: "Lettuce", Marker: "🥬", Spread: 25, Depth: 10},
	}
}

// MissingFieldsMessage is the notice raised for an incomplete template.
const MissingFieldsMessage = "⚠️ Please fill all fields including image!"

// ValidateTemplate checks that every required field is present:
// a name, an emoji marker or image URL, and positive spread and depth.
func ValidateTemplate(t Template) error {
	if strings.TrimSpace(t.Name) == "" || t.Spread <= 0 || t.Depth <= 0 ||
		(strings.TrimSpace(t.Marker) == "" && strings.TrimSpace(t.Image) == "") {
		return errors.New(errors.ErrCodeValidation, MissingFieldsMessage)
	}
	if err := errors.ValidateName(t.Name); err != nil {
		return err
	}
	if t.Image != "" {
		if err := errors.ValidateImageURL(t.Image); err != nil {
			return err
		}
	}
	return nil
}

// Palette is an ordered collection of templates.
// The zero value is an empty palette ready to use.
type Palette struct {
	items []Template
}

// NewPalette returns a palette holding a copy of items.
func NewPalette(items []Template) Palette {
	return Palette{items: slices.Clone(items)}
}

// Items returns a copy of the templates in display order.
func (p Palette) Items() []Template {
	return slices.Clone(p.items)
}

// Len returns the number of templates.
func (p Palette) Len() int { return len(p.items) }

// Get looks up a template by id.
func (p Palette) Get(id string) (Template, bool) {
	i := p.index(id)
	if i < 0 {
		return Template{}, false
	}
	return p.items[i], true
}

// Add validates t, assigns an id if it has none, and returns the palette
// with t appended. On a validation error p is returned unchanged.
func (p Palette) Add(t Template) (Palette, Template, error) {
	if err := ValidateTemplate(t); err != nil {
		return p, Template{}, err
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.ID == "" {
		t.ID = NewID()
	}
	next := make([]Template, len(p.items), len(p.items)+1)
	copy(next, p.items)
	return Palette{items: append(next, t)}, t, nil
}

// Remove returns the palette without the template id.
func (p Palette) Remove(id string) (Palette, Template, error) {
	i := p.index(id)
	if i < 0 {
		return p, Template{}, errors.New(errors.ErrCodeNotFound, "template %s not found", id)
	}
	removed := p.items[i]
	next := slices.Delete(slices.Clone(p.items), i, i+1)
	return Palette{items: next}, removed, nil
}

func (p Palette) index(id string) int {
	return slices.IndexFunc(p.items, func(t Template) bool { return t.ID == id })
}
