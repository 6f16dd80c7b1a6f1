package cli

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gardengrid/internal/server"
	"github.com/matzehuels/gardengrid/pkg/cache"
	"github.com/matzehuels/gardengrid/pkg/identity"
	"github.com/matzehuels/gardengrid/pkg/notice"
	"github.com/matzehuels/gardengrid/pkg/observability"
	"github.com/matzehuels/gardengrid/pkg/pipeline"
	"github.com/matzehuels/gardengrid/pkg/planner"
	"github.com/matzehuels/gardengrid/pkg/session"
	"github.com/matzehuels/gardengrid/pkg/syncer"
)

const sessionCleanupInterval = 10 * time.Minute

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the gardengrid HTTP API.

Storage, session and cache backends come from the config file and
GARDENGRID_* environment variables. Set GARDENGRID_AUTH_SECRET in
production; without it tokens stop working when the server restarts.`,
		Example: `  gardengrid serve
  gardengrid serve --addr :9000
  GARDENGRID_STORAGE_BACKEND=sqlite gardengrid serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	logger := loggerFromContext(ctx)
	cfg := c.cfg

	observability.Register(observability.NewLogHooks(logger.WithPrefix("hooks")).Hooks())
	defer observability.Reset()

	store, err := c.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()
	logger.Info("storage ready", "backend", cfg.Storage.Backend)

	var rdb *redis.Client
	if cfg.UsesRedis() {
		if rdb, err = c.dialRedis(ctx); err != nil {
			return err
		}
		defer rdb.Close()
	}

	sessions, err := c.openSessions(rdb)
	if err != nil {
		return fmt.Errorf("open sessions: %w", err)
	}
	defer sessions.Close()

	renderCache, err := c.openCache(ctx, rdb, false)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer renderCache.Close()
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "v1")

	secret, err := authSecret(cfg.Auth.Secret)
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		logger.Warn("no auth secret configured; tokens will not survive a restart")
	}
	ids, err := identity.New(store, identity.Config{
		Secret:   secret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
		Cost:     cfg.Auth.BcryptCost,
	})
	if err != nil {
		return err
	}

	saver := syncer.New(store, syncer.Options{
		Cache:   renderCache,
		Keyer:   keyer,
		Backoff: cache.Backoff{Attempts: cfg.Storage.SaveAttempts, Delay: cfg.Storage.SaveDelay},
		Logger:  logger.WithPrefix("sync"),
	})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := saver.Close(closeCtx); err != nil {
			logger.Error("flush pending saves", "err", err)
		}
	}()

	planners := planner.NewManager(store, planner.Options{
		Plot:      cfg.Plot.Garden(),
		Publisher: saver,
		Notices:   notice.LogSink(logger.WithPrefix("notice")),
		Logger:    logger.WithPrefix("planner"),
	})

	srv, err := server.New(server.Options{
		Identity:        ids,
		Sessions:        sessions,
		Planners:        planners,
		Runner:          pipeline.NewRunner(renderCache, keyer, logger.WithPrefix("render")),
		Store:           store,
		SessionTTL:      cfg.Session.TTL,
		SecureCookies:   cfg.Server.SecureCookies,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	go cleanupSessions(ctx, sessions, logger)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// authSecret returns the configured signing key, or a random one when none
// is set.
func authSecret(configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}
	return b, nil
}

// cleanupSessions removes expired sessions until ctx ends.
func cleanupSessions(ctx context.Context, store session.Store, logger *log.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Cleanup(ctx); err != nil {
				logger.Warn("session cleanup", "err", err)
			}
		}
	}
}
