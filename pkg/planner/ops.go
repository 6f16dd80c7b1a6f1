package planner

import (
	"context"

	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/geom"
	"github.com/matzehuels/gardengrid/pkg/notice"
	"github.com/matzehuels/gardengrid/pkg/placement"
)

// The methods below address plants in plot coordinates and leave the
// pointer and selection alone. They back the REST endpoints and the CLI.

// Place adds a plant made from template templateID centered at (x, y). The
// center is clamped so the footprint stays on the plot.
func (w *Workspace) Place(ctx context.Context, templateID string, x, y float64) (garden.Plant, error) {
	res := w.mutate(ctx, "place", func(s placement.State) (placement.State, placement.Result) {
		t, ok := s.Palette.Get(templateID)
		if !ok {
			return s, rejected(errors.New(errors.ErrCodeNotFound, "template %s not found", templateID))
		}
		at := s.Viewport.Plot.Bounds().ClampCircle(geom.Pt(x, y), t.Radius())
		next, p, err := s.Layout.Place(t, at.X, at.Y)
		if err != nil {
			return s, rejected(err)
		}
		s.Layout = next
		return s, placement.Result{Change: placement.PlantPlaced, Plant: p}
	})
	return res.Plant, res.Err
}

// Move repositions plant id to (x, y), clamped like Place. An edit in
// progress on the same plant ends when the move succeeds.
func (w *Workspace) Move(ctx context.Context, id string, x, y float64) (garden.Plant, error) {
	res := w.mutate(ctx, "move_plant", func(s placement.State) (placement.State, placement.Result) {
		current, ok := s.Layout.Get(id)
		if !ok {
			return s, rejected(errors.New(errors.ErrCodeNotFound, "plant %s not found", id))
		}
		at := s.Viewport.Plot.Bounds().ClampCircle(geom.Pt(x, y), current.Radius())
		next, p, err := s.Layout.Move(id, at.X, at.Y)
		if err != nil {
			return s, rejected(err)
		}
		s.Layout = next
		if s.Selection.Mode == placement.Editing && s.Selection.PlantID == id {
			s.Selection = placement.None
		}
		return s, placement.Result{Change: placement.PlantMoved, Plant: p}
	})
	return res.Plant, res.Err
}

// Delete removes plant id.
func (w *Workspace) Delete(ctx context.Context, id string) (garden.Plant, error) {
	res := w.Apply(ctx, placement.Event{Kind: placement.DeletePlant, PlantID: id})
	return res.Plant, res.Err
}

// AddTemplate validates t and appends it to the palette. A template without
// an id gets a new one.
func (w *Workspace) AddTemplate(ctx context.Context, t garden.Template) (garden.Template, error) {
	res := w.Apply(ctx, placement.Event{Kind: placement.AddTemplate, Template: &t})
	return res.Template, res.Err
}

// RemoveTemplate deletes template id from the palette. Plants already made
// from it stay.
func (w *Workspace) RemoveTemplate(ctx context.Context, id string) (garden.Template, error) {
	res := w.Apply(ctx, placement.Event{Kind: placement.RemoveTemplate, TemplateID: id})
	return res.Template, res.Err
}

func rejected(err error) placement.Result {
	r := placement.Result{Err: err}
	if n, ok := notice.FromError(err); ok {
		r.Notice = &n
	}
	return r
}
