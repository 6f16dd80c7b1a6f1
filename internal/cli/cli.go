// Package cli implements the gardengrid command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gardengrid/internal/config"
	"github.com/matzehuels/gardengrid/pkg/buildinfo"
	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/pipeline"
	"github.com/matzehuels/gardengrid/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "gardengrid"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the configuration loaded for the running command.
func (c *CLI) Config() config.Config { return c.cfg }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Gardengrid plans garden beds without overlapping plants",
		Long:         `Gardengrid lays out plants on a garden plot. Each plant occupies a circular footprint sized by its spread, and no two footprints may overlap.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.paletteCommand())
	root.AddCommand(c.userCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Local rendering caches
// on disk unless noCache is set.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	rc, err := c.openCache(ctx, nil, !noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(rc, nil, c.Logger), nil
}

// =============================================================================
// Local User
// =============================================================================

// localUser resolves the user that local commands act for: the --user flag,
// then the saved CLI login, then the shared local user.
func (c *CLI) localUser(ctx context.Context, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	store, err := session.NewCLIStore(c.cfg.Session.Dir)
	if err != nil {
		return "", err
	}
	sess, err := store.GetSession(ctx)
	if err != nil || sess == nil {
		return session.LocalUserID, nil
	}
	loggerFromContext(ctx).Debug("using saved login", "email", sess.Email)
	return sess.UserID, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// userError drops the code prefix from domain errors so commands print the
// message the planner would show.
func userError(err error) error {
	if errors.GetCode(err) == "" {
		return err
	}
	return fmt.Errorf("%s", errors.UserMessage(err))
}
