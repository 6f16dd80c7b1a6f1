package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gardengrid/pkg/pipeline"
	"github.com/matzehuels/gardengrid/pkg/placement"
	"github.com/matzehuels/gardengrid/pkg/planner"
)

// defaultOutputBase names rendered files when -o is not given.
const defaultOutputBase = "garden"

type renderOpts struct {
	user    string
	formats []string
	output  string
	title   string
	scale   float64
	noCache bool
	refresh bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}
	var formats string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the garden to SVG, PNG, PDF or JSON",
		Long: `Render the local garden.

SVG and JSON are always available. PNG is rasterized with Graphviz and PDF
needs rsvg-convert on the PATH. Renders are cached by garden content.`,
		Example: `  gardengrid render
  gardengrid render -f svg,png -o beds/spring
  gardengrid render -f json --user alice -o -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formats)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&formats, "format", "f", "", "output formats: svg, png, pdf, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path; \"-\" writes a single format to stdout")
	cmd.Flags().StringVar(&opts.user, "user", "", "garden owner (default: logged-in user or local)")
	cmd.Flags().StringVar(&opts.title, "title", "", "SVG title")
	cmd.Flags().Float64Var(&opts.scale, "scale", placement.DefaultScale, "zoom factor (0.5-2.0)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !pipeline.ValidFormats[f] {
			return fmt.Errorf("invalid format %q: must be svg, png, pdf or json", f)
		}
	}
	return nil
}

// basePath derives the base output path. A known format extension on
// output is stripped so "-o plan.svg -f svg,png" writes plan.svg and
// plan.png.
func basePath(output string) string {
	if output == "" {
		return defaultOutputBase
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(ctx context.Context, cmd *cobra.Command, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	toStdout := opts.output == "-"
	if toStdout && len(opts.formats) != 1 {
		return fmt.Errorf("stdout output needs exactly one format")
	}
	// Status lines must not mix with an artifact on stdout.
	out := newPrinter(cmd.OutOrStdout())
	if toStdout {
		out = newPrinter(cmd.ErrOrStderr())
	}

	userID, err := c.localUser(ctx, opts.user)
	if err != nil {
		return err
	}
	store, err := c.openLocalStore(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	snap, seeded, err := planner.LoadOrSeed(ctx, store, userID)
	if err != nil {
		return err
	}
	if seeded {
		out.warning("No saved garden for %s; rendering the default palette", userID)
	}
	state := placement.NewState(snap, c.cfg.Plot.Garden())
	state.Viewport = state.Viewport.WithScale(opts.scale)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	var spin *spinner
	if !toStdout {
		spin = startSpinner(ctx, cmd.ErrOrStderr(), "Rendering...")
	}
	artifacts, cached, err := runner.RenderWithCacheInfo(ctx, state, pipeline.Options{
		Formats: opts.formats,
		Title:   opts.title,
		Refresh: opts.refresh,
		Logger:  logger,
	})
	spin.Stop()
	if err != nil {
		return userError(err)
	}

	if toStdout {
		_, err := cmd.OutOrStdout().Write(artifacts[opts.formats[0]])
		return err
	}

	paths, err := writeArtifacts(artifacts, opts.formats, opts.output)
	if err != nil {
		return err
	}
	prog.done("rendered garden", "user", userID, "formats", len(paths), "cached", cached)
	out.success("Rendered garden")
	out.gardenStats(len(snap.Plants), len(snap.Palette), cached)
	for _, p := range paths {
		out.file(p)
	}
	return nil
}

// writeArtifacts writes one file per format and returns the paths in
// format order. A single format honors output exactly when it has an
// extension.
func writeArtifacts(artifacts map[string][]byte, formats []string, output string) ([]string, error) {
	base := basePath(output)
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base + "." + format
		if len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
			path = output
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
