package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gardengrid/pkg/notice"
)

// planCommand creates the interactive terminal planner.
func (c *CLI) planCommand() *cobra.Command {
	var (
		user    string
		noMouse bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Place and move plants in the terminal",
		Long: `Open the interactive planner on the local garden.

Move the cursor with the arrow keys (or the mouse), pick a template with
tab and press space to place it. The template stays selected so you can
keep planting. Press e on a plant to move it, d to delete it, +/- to zoom
and esc to cancel. Changes are saved as you go.`,
		Example: `  gardengrid plan
  gardengrid plan --user alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlan(cmd.Context(), newPrinter(cmd.OutOrStdout()), user, !noMouse)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "garden owner (default: logged-in user or local)")
	cmd.Flags().BoolVar(&noMouse, "no-mouse", false, "disable mouse input")
	return cmd
}

func (c *CLI) runPlan(ctx context.Context, out printer, user string, mouse bool) error {
	logger := loggerFromContext(ctx)

	// Log lines would tear the full-screen view.
	ctx = withLogger(ctx, discardLogger())

	inbox := &notice.Collector{}
	g, err := c.openLocalGarden(ctx, user, inbox)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.Close(); err != nil {
			logger.Error("save garden", "err", err)
		}
	}()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	if _, err := tea.NewProgram(newPlanModel(ctx, g.Workspace, inbox), opts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("run planner: %w", err)
	}

	snap := g.Snapshot()
	out.success("Saved %s", plural(len(snap.Plants), "plant"))
	return nil
}
