package placement

import (
	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/geom"
	"github.com/matzehuels/gardengrid/pkg/notice"
)

// EventKind identifies a normalized input event.
type EventKind string

// Pointer events carry screen coordinates in X and Y.
const (
	PointerMove  EventKind = "move"
	PointerLeave EventKind = "leave"
	Click        EventKind = "click"
	DragStart    EventKind = "dragstart" // TemplateID
	DragOver     EventKind = "dragover"
	Drop         EventKind = "drop"
)

// Selection and editing events. Select and RemoveTemplate carry TemplateID,
// Edit and DeletePlant carry PlantID, Zoom carries Scale and AddTemplate
// carries Template.
const (
	Select         EventKind = "select"
	Deselect       EventKind = "deselect"
	Edit           EventKind = "edit"
	Cancel         EventKind = "cancel"
	Zoom           EventKind = "zoom"
	DeletePlant    EventKind = "delete"
	AddTemplate    EventKind = "add_template"
	RemoveTemplate EventKind = "remove_template"
)

// Event is one normalized user action.
type Event struct {
	Kind       EventKind        `json:"kind"`
	X          float64          `json:"x,omitempty"`
	Y          float64          `json:"y,omitempty"`
	TemplateID string           `json:"template_id,omitempty"`
	PlantID    string           `json:"plant_id,omitempty"`
	Scale      float64          `json:"scale,omitempty"`
	Template   *garden.Template `json:"template,omitempty"`
}

func (e Event) point() geom.Point { return geom.Pt(e.X, e.Y) }

// Change names the committed mutation an event produced.
type Change string

const (
	NoChange        Change = ""
	PlantPlaced     Change = "placed"
	PlantMoved      Change = "moved"
	PlantDeleted    Change = "deleted"
	TemplateAdded   Change = "template_added"
	TemplateRemoved Change = "template_removed"
)

// Result reports what an event did.
type Result struct {
	Change   Change
	Plant    garden.Plant    // placed, moved or deleted plant
	Template garden.Template // added or removed template
	Err      error           // OVERLAP, VALIDATION, MISSING_SELECTION, NOT_FOUND
	Notice   *notice.Notice  // notice to raise, if any
}

// Committed reports whether the event changed persisted state.
func (r Result) Committed() bool { return r.Change != NoChange }

func failed(err error) Result {
	r := Result{Err: err}
	if n, ok := notice.FromError(err); ok {
		r.Notice = &n
	}
	return r
}

var errMissingSelection = errors.New(errors.ErrCodeMissingSelection, "nothing selected")

// Step applies e to s and returns the next state. It never blocks and never
// panics on unknown ids; failures are reported through Result.Err and leave
// the layout and palette untouched.
func Step(s State, e Event) (State, Result) {
	switch e.Kind {
	case PointerMove, DragOver, Click, Drop:
		if !e.point().Finite() {
			return s, failed(errors.New(errors.ErrCodeInvalidInput, "pointer (%g, %g) is not a finite number", e.X, e.Y))
		}
	}

	switch e.Kind {
	case PointerMove, DragOver:
		s.Pointer, s.Hover = e.point(), true
		return s, Result{}

	case PointerLeave:
		s.Hover = false
		return s, Result{}

	case Click:
		s.Pointer, s.Hover = e.point(), true
		return commit(s)

	case Drop:
		s.Pointer, s.Hover = e.point(), true
		if s.Selection.Mode != Armed {
			return s, failed(errMissingSelection)
		}
		return commit(s)

	case Select, DragStart:
		if _, ok := s.Palette.Get(e.TemplateID); !ok {
			return s, failed(errors.New(errors.ErrCodeNotFound, "template %s not found", e.TemplateID))
		}
		s.Selection = ArmTemplate(e.TemplateID)
		return s, Result{}

	case Deselect, Cancel:
		s.Selection = None
		return s, Result{}

	case Edit:
		if _, ok := s.Layout.Get(e.PlantID); !ok {
			return s, failed(errors.New(errors.ErrCodeNotFound, "plant %s not found", e.PlantID))
		}
		s.Selection = EditPlant(e.PlantID)
		return s, Result{}

	case Zoom:
		s.Viewport = s.Viewport.WithScale(e.Scale)
		return s, Result{}

	case DeletePlant:
		next, removed, err := s.Layout.Delete(e.PlantID)
		if err != nil {
			return s, failed(err)
		}
		s.Layout = next
		if s.Selection.Mode == Editing && s.Selection.PlantID == removed.ID {
			s.Selection = None
		}
		return s, Result{Change: PlantDeleted, Plant: removed}

	case AddTemplate:
		if e.Template == nil {
			return s, failed(errors.New(errors.ErrCodeValidation, garden.MissingFieldsMessage))
		}
		next, added, err := s.Palette.Add(*e.Template)
		if err != nil {
			return s, failed(err)
		}
		s.Palette = next
		return s, Result{Change: TemplateAdded, Template: added}

	case RemoveTemplate:
		next, removed, err := s.Palette.Remove(e.TemplateID)
		if err != nil {
			return s, failed(err)
		}
		s.Palette = next
		if s.Selection.Mode == Armed && s.Selection.TemplateID == removed.ID {
			s.Selection = None
		}
		return s, Result{Change: TemplateRemoved, Template: removed}
	}
	return s, failed(errors.New(errors.ErrCodeInvalidInput, "unknown event %q", e.Kind))
}

// commit places or moves at the current pointer position.
func commit(s State) (State, Result) {
	switch s.Selection.Mode {
	case Armed:
		t, ok := s.Palette.Get(s.Selection.TemplateID)
		if !ok {
			s.Selection = None
			return s, failed(errMissingSelection)
		}
		at := s.Viewport.Candidate(s.Pointer, t.Spread)
		next, p, err := s.Layout.Place(t, at.X, at.Y)
		if err != nil {
			return s, failed(err)
		}
		s.Layout = next
		return s, Result{Change: PlantPlaced, Plant: p}

	case Editing:
		current, ok := s.Layout.Get(s.Selection.PlantID)
		if !ok {
			s.Selection = None
			return s, failed(errMissingSelection)
		}
		at := s.Viewport.Candidate(s.Pointer, current.Spread)
		next, p, err := s.Layout.Move(current.ID, at.X, at.Y)
		if err != nil {
			return s, failed(err)
		}
		s.Layout = next
		s.Selection = None
		return s, Result{Change: PlantMoved, Plant: p}
	}
	return s, failed(errMissingSelection)
}
