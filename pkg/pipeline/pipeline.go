// Package pipeline renders planner states to artifacts for the CLI and the
// HTTP server.
//
// Rendering is a pure function of the state, so artifacts are cached under
// the hash of the state's JSON frame and reused until the garden, the
// selection or the pointer changes.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	artifacts, err := runner.Render(ctx, ws.State(), pipeline.Options{
//	    Formats: []string{"svg", "png"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := artifacts["svg"]
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/placement"
	"github.com/matzehuels/gardengrid/pkg/render"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// DefaultTitle is the SVG title used when none is given.
const DefaultTitle = "Garden plan"

// Options configures a render.
type Options struct {
	Formats []string `json:"formats,omitempty"`
	Title   string   `json:"title,omitempty"`

	// Refresh bypasses cached artifacts.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults normalizes formats and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	formats := make([]string, 0, len(o.Formats))
	for _, f := range o.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want svg, png, pdf or json)", f)
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	o.Formats = formats
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	return nil
}

// RenderState renders s in every requested format without caching.
// opts must already be validated.
func RenderState(ctx context.Context, s placement.State, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	needSVG := slices.Contains(opts.Formats, FormatSVG) || slices.Contains(opts.Formats, FormatPDF)
	if needSVG {
		w, h := render.Canvas(s)
		svg = render.RenderSVG(render.Commands(s), render.WithSize(w, h), render.WithTitle(opts.Title))
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatSVG:
			artifacts[format] = svg
		case FormatJSON:
			data, err := render.RenderJSON(s)
			if err != nil {
				return nil, fmt.Errorf("render json: %w", err)
			}
			artifacts[format] = data
		case FormatPNG:
			data, err := render.RenderPNG(ctx, s)
			if err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = data
		case FormatPDF:
			data, err := render.ToPDF(ctx, svg)
			if err != nil {
				return nil, fmt.Errorf("render pdf: %w", err)
			}
			artifacts[format] = data
		}
	}
	return artifacts, nil
}
