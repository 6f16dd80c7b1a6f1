// Package placement implements the spatial placement engine: the overlap
// test, screen-to-plot mapping and the select/place/move protocol with
// preview-before-commit.
//
// # Overlap
//
// Plants are circles whose diameter is their spread. A candidate is legal
// when, for every other plant, the distance between centers is at least the
// sum of the radii. Touching circles are legal; only a strictly smaller
// distance is rejected. See [Layout.CanPlace].
//
// # Boundary policy
//
// Pointer positions are converted to plot space by [Viewport.ToPlot] and then
// clamped so the candidate's whole circle lies inside the plot. Clamping
// happens before the overlap test, so the position that is tested is the
// position that is committed. See [Viewport.Candidate].
//
// # State machine
//
// [State] is an immutable value. [Step] applies one [Event] and returns the
// next state together with a [Result] describing what changed:
//
//	Idle --Select/DragStart--> Armed --Click/Drop ok--> Armed
//	Idle --Edit--> Editing --Click ok--> Idle
//	Armed --Edit--> Editing, Editing --Select--> Armed
//	any --Deselect/Cancel--> Idle
//
// Rejected commits leave the state as it was (apart from the pointer) and
// carry an OVERLAP error plus the notice to show. Rendering reads the state
// through [State.Preview] and never mutates it.
package placement
