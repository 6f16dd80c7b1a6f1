// Package render turns a planning session into pictures.
//
// # Overview
//
// Rendering is split in two. [Commands] is a pure function from a
// [placement.State] to an ordered list of draw [Command] values in screen
// space: soil, grid, plants, the preview ghost and the plot border. Sinks
// then serialize that list:
//
//   - [RenderSVG]: standalone SVG document
//   - [RenderJSON]: the command list plus readout and usage counts, for
//     clients that draw on their own canvas
//   - [ToDOT] + [RenderGraphviz]: a Graphviz graph with pinned node
//     positions laid out by neato, rendered to PNG or SVG in-process
//   - [ToPDF]: SVG to PDF via rsvg-convert
//
// Nothing in this package mutates state. Calling [Commands] twice on the same
// state yields the same commands.
//
//	cmds := render.Commands(state)
//	svg := render.RenderSVG(cmds, render.WithSize(render.Canvas(state)))
//
// # Colors
//
// The palette mirrors a garden bed: tan soil, brown grid lines and a dark
// border. Placed plants are a translucent green disc; the preview is a
// dashed outline, green when the candidate is legal and red otherwise.
package render
