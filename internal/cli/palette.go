package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gardengrid/pkg/garden"
)

// paletteCommand creates the palette command and its subcommands.
func (c *CLI) paletteCommand() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "palette",
		Short: "List, add and remove plant templates",
	}
	cmd.PersistentFlags().StringVar(&user, "user", "", "garden owner (default: logged-in user or local)")

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the palette with usage counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPaletteList(cmd.Context(), newPrinter(cmd.OutOrStdout()), user)
		},
	})
	cmd.AddCommand(c.paletteAddCommand(&user))
	cmd.AddCommand(&cobra.Command{
		Use:               "rm <id|name>",
		Short:             "Remove a template; plants made from it stay",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeTemplates,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPaletteRemove(cmd.Context(), newPrinter(cmd.OutOrStdout()), user, args[0])
		},
	})
	return cmd
}

func (c *CLI) paletteAddCommand(user *string) *cobra.Command {
	var t garden.Template

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a plant template",
		Example: `  gardengrid palette add --name Basil --marker 🌿 --spread 20 --depth 10
  gardengrid palette add --name Kale --image https://example.com/kale.png --spread 40 --depth 25`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPaletteAdd(cmd.Context(), newPrinter(cmd.OutOrStdout()), *user, t)
		},
	}
	cmd.Flags().StringVar(&t.Name, "name", "", "template name")
	cmd.Flags().StringVar(&t.Marker, "marker", "", "emoji marker")
	cmd.Flags().StringVar(&t.Image, "image", "", "image URL (used instead of a marker)")
	cmd.Flags().Float64Var(&t.Spread, "spread", 0, "footprint diameter in cm")
	cmd.Flags().Float64Var(&t.Depth, "depth", 0, "root depth in cm")
	return cmd
}

func (c *CLI) runPaletteList(ctx context.Context, out printer, user string) error {
	g, err := c.openLocalGarden(ctx, user, nil)
	if err != nil {
		return err
	}
	defer g.Close()

	snap := g.Snapshot()
	if len(snap.Palette) == 0 {
		out.info("Palette is empty")
		out.hint("Add a template", "gardengrid palette add --name Basil --marker 🌿 --spread 20 --depth 10")
		return nil
	}
	out.line(paletteTable(snap.Palette, garden.UsageCounts(snap.Plants)))
	if len(snap.Plants) > 0 {
		out.line("")
		out.line(plantTable(snap.Plants))
	}
	return nil
}

func (c *CLI) runPaletteAdd(ctx context.Context, out printer, user string, t garden.Template) error {
	g, err := c.openLocalGarden(ctx, user, nil)
	if err != nil {
		return err
	}
	defer g.Close()

	added, err := g.AddTemplate(ctx, t)
	if err != nil {
		return userError(err)
	}
	out.success("Added %s", added.Name)
	out.detail("id %s", added.ID)
	return nil
}

func (c *CLI) runPaletteRemove(ctx context.Context, out printer, user, ref string) error {
	g, err := c.openLocalGarden(ctx, user, nil)
	if err != nil {
		return err
	}
	defer g.Close()

	t, ok := findTemplate(g.Snapshot().Palette, ref)
	if !ok {
		return fmt.Errorf("no template %q in the palette", ref)
	}
	removed, err := g.RemoveTemplate(ctx, t.ID)
	if err != nil {
		return err
	}
	out.success("Removed %s", removed.Name)
	return nil
}

// findTemplate resolves ref as an id, a case-insensitive name or a 1-based
// position.
func findTemplate(items []garden.Template, ref string) (garden.Template, bool) {
	for _, t := range items {
		if t.ID == ref {
			return t, true
		}
	}
	for _, t := range items {
		if strings.EqualFold(t.Name, ref) {
			return t, true
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(items) {
		return items[n-1], true
	}
	return garden.Template{}, false
}
