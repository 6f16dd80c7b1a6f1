// Package geom provides the small amount of plane geometry the planner needs:
// points, circular footprints, center distances and bounds clamping.
//
// All values are in plot space (centimeters). Nothing here knows about
// zoom, viewports or screens; see [github.com/matzehuels/gardengrid/pkg/placement]
// for the screen-to-plot mapping.
package geom
