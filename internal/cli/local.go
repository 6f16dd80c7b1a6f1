package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/gardengrid/pkg/cache"
	"github.com/matzehuels/gardengrid/pkg/notice"
	"github.com/matzehuels/gardengrid/pkg/planner"
	"github.com/matzehuels/gardengrid/pkg/storage"
	"github.com/matzehuels/gardengrid/pkg/syncer"
)

// flushTimeout bounds how long a local command waits for its last save.
const flushTimeout = 30 * time.Second

// localGarden is a workspace over the local store. Changes are saved in the
// background and flushed by Close.
type localGarden struct {
	*planner.Workspace
	store storage.Store
	saver *syncer.Syncer
}

// openLocalGarden loads (or seeds) the garden of the user selected by
// userFlag. Notices go to sink; nil drops them, leaving the returned
// errors to report rejections.
func (c *CLI) openLocalGarden(ctx context.Context, userFlag string, sink notice.Sink) (*localGarden, error) {
	logger := loggerFromContext(ctx)

	userID, err := c.localUser(ctx, userFlag)
	if err != nil {
		return nil, err
	}
	store, err := c.openLocalStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	saver := syncer.New(store, syncer.Options{
		Backoff: cache.Backoff{Attempts: c.cfg.Storage.SaveAttempts, Delay: c.cfg.Storage.SaveDelay},
		Logger:  logger,
	})
	ws, err := planner.Open(ctx, store, userID, planner.Options{
		Plot:      c.cfg.Plot.Garden(),
		Publisher: saver,
		Notices:   sink,
		Logger:    logger,
	})
	if err != nil {
		_ = saver.Close(ctx)
		_ = store.Close()
		return nil, err
	}
	logger.Debug("opened garden", "user", userID)
	return &localGarden{Workspace: ws, store: store, saver: saver}, nil
}

// Close waits for pending saves and closes the store.
func (g *localGarden) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	err := g.saver.Close(ctx)
	if cerr := g.store.Close(); err == nil {
		err = cerr
	}
	return err
}
