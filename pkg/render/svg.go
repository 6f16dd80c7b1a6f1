package render

import (
	"bytes"
	"fmt"
	"html"
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width, height float64
	title         string
}

// WithSize sets the document size in pixels. Without it the size is taken
// from the first command, which [Commands] always emits as the soil rect.
func WithSize(w, h float64) SVGOption {
	return func(r *svgRenderer) { r.width, r.height = w, h }
}

// WithTitle adds a <title> element.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// RenderSVG serializes cmds as a standalone SVG document.
func RenderSVG(cmds []Command, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	if (r.width <= 0 || r.height <= 0) && len(cmds) > 0 {
		r.width, r.height = cmds[0].X+cmds[0].W, cmds[0].Y+cmds[0].H
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		r.width, r.height, r.width, r.height)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(r.title))
	}
	for _, c := range cmds {
		writeSVG(&buf, c)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func writeSVG(buf *bytes.Buffer, c Command) {
	switch c.Kind {
	case KindRect:
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"%s/>`+"\n",
			c.X, c.Y, c.W, c.H, paint(c))
	case KindLine:
		fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"%s/>`+"\n",
			c.X, c.Y, c.X2, c.Y2, paint(c))
	case KindCircle:
		id := ""
		if c.ID != "" {
			id = fmt.Sprintf(` id="plant-%s"`, html.EscapeString(c.ID))
		}
		fmt.Fprintf(buf, `  <circle%s cx="%.1f" cy="%.1f" r="%.1f"%s/>`+"\n",
			id, c.X, c.Y, c.R, paint(c))
	case KindText:
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-size="%.1f" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
			c.X, c.Y, c.FontSize, html.EscapeString(c.Text))
	case KindImage:
		fmt.Fprintf(buf, `  <image x="%.1f" y="%.1f" width="%.1f" height="%.1f" href="%s"/>`+"\n",
			c.X, c.Y, c.W, c.H, html.EscapeString(c.Href))
	}
}

func paint(c Command) string {
	var b bytes.Buffer
	fill := c.Fill
	if fill == "" {
		fill = "none"
	}
	fmt.Fprintf(&b, ` fill="%s"`, fill)
	if c.Stroke != "" {
		fmt.Fprintf(&b, ` stroke="%s" stroke-width="%.1f"`, c.Stroke, c.StrokeWidth)
	}
	if c.Dash != "" {
		fmt.Fprintf(&b, ` stroke-dasharray="%s"`, c.Dash)
	}
	return b.String()
}
