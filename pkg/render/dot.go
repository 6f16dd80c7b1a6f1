package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gardengrid/pkg/placement"
)

// pointsPerInch converts Graphviz sizes (inches) to plot units.
const pointsPerInch = 72.0

// Format is an output format supported by [RenderGraphviz].
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ToDOT converts the placed plants of s to a Graphviz graph for the neato
// engine. Every node is pinned at its plot position (y flipped, since
// Graphviz grows upwards) and sized to its spread, so neato renders the
// layout as is instead of computing one. One plot unit becomes one point.
func ToDOT(s placement.State) string {
	ext := Extent(s)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  notranslate=true;\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", SoilColor)
	fmt.Fprintf(&buf, "  bb=\"0,0,%.2f,%.2f\";\n", ext.Width, ext.Height)
	fmt.Fprintf(&buf, "  node [shape=circle, fixedsize=true, style=filled, fillcolor=%q, color=%q, fontsize=14];\n",
		"#4caf5026", GridColor)
	buf.WriteString("\n")

	// Invisible corners keep the drawing the size of the plot.
	buf.WriteString("  \"corner-min\" [pos=\"0,0!\", style=invis, width=0.01];\n")
	fmt.Fprintf(&buf, "  \"corner-max\" [pos=\"%.2f,%.2f!\", style=invis, width=0.01];\n", ext.Width, ext.Height)

	for _, p := range s.Layout.Plants() {
		label := p.Marker
		if label == "" {
			label = p.Name
		}
		fmt.Fprintf(&buf, "  %q [label=%q, tooltip=%q, pos=\"%.2f,%.2f!\", width=%.4f];\n",
			p.ID, label, p.Name, p.X, ext.Height-p.Y, p.Spread/pointsPerInch)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// RenderGraphviz lays out dot with neato and renders it in format.
func RenderGraphviz(ctx context.Context, dot string, format Format) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, fmt.Errorf("unsupported graphviz format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPNG renders the placed plants of s as a PNG through Graphviz.
func RenderPNG(ctx context.Context, s placement.State) ([]byte, error) {
	return RenderGraphviz(ctx, ToDOT(s), FormatPNG)
}
