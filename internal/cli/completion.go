package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gardengrid/internal/config"
	"github.com/matzehuels/gardengrid/pkg/pipeline"
	"github.com/matzehuels/gardengrid/pkg/storage"
)

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for gardengrid.

Completions cover commands, flags, render formats and the template names
in your palette.

  $ source <(gardengrid completion bash)
  $ gardengrid completion zsh > "${fpath[1]}/_gardengrid"
  $ gardengrid completion fish > ~/.config/fish/completions/gardengrid.fish
  PS> gardengrid completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// completeFormats completes the comma-separated value of render -f.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	chosen := make(map[string]bool)
	if prefix != "" {
		for _, f := range parseFormats(prefix) {
			chosen[f] = true
		}
	}

	var out []string
	for _, f := range []string{pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatPDF, pipeline.FormatJSON} {
		if !chosen[f] {
			out = append(out, prefix+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeTemplates completes template names from the palette of the
// garden selected by --user. Completion skips the root pre-run, so the
// config is loaded here.
func (c *CLI) completeTemplates(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	user, _ := cmd.Flags().GetString("user")

	names, err := c.templateNames(ctx, user)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n), strings.ToLower(toComplete)) {
			out = append(out, n)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// templateNames reads the stored palette without seeding a new garden.
func (c *CLI) templateNames(ctx context.Context, userFlag string) ([]string, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg

	userID, err := c.localUser(ctx, userFlag)
	if err != nil {
		return nil, err
	}
	store, err := c.openLocalStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	snap, _, err := storage.LoadSnapshot(ctx, store, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(snap.Palette))
	for _, t := range snap.Palette {
		names = append(names, t.Name)
	}
	return names, nil
}
