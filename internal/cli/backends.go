package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/gardengrid/internal/config"
	"github.com/matzehuels/gardengrid/pkg/cache"
	"github.com/matzehuels/gardengrid/pkg/session"
	"github.com/matzehuels/gardengrid/pkg/storage"
	"github.com/matzehuels/gardengrid/pkg/storage/file"
	"github.com/matzehuels/gardengrid/pkg/storage/memory"
	"github.com/matzehuels/gardengrid/pkg/storage/mongo"
	"github.com/matzehuels/gardengrid/pkg/storage/sqlite"
)

// openStore opens the configured document store.
func (c *CLI) openStore(ctx context.Context) (storage.Store, error) {
	cfg := c.cfg.Storage
	switch cfg.Backend {
	case config.StorageMemory:
		return memory.NewStore(), nil
	case config.StorageFile:
		return file.NewStore(cfg.Dir)
	case config.StorageSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.StorageMongo:
		return mongo.Open(ctx, mongo.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// openLocalStore opens the store used by terminal commands. The in-memory
// backend would forget everything on exit, so it falls back to the file
// store under storage.dir.
func (c *CLI) openLocalStore(ctx context.Context) (storage.Store, error) {
	if c.cfg.Storage.Backend == config.StorageMemory {
		loggerFromContext(ctx).Debug("using file store for local planning", "dir", c.cfg.Storage.Dir)
		return file.NewStore(c.cfg.Storage.Dir)
	}
	return c.openStore(ctx)
}

// dialRedis connects to the configured Redis server.
func (c *CLI) dialRedis(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.cfg.Redis.Addr,
		Password: c.cfg.Redis.Password,
		DB:       c.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", c.cfg.Redis.Addr, err)
	}
	return client, nil
}

// openSessions opens the configured session store. rdb must be set for the
// redis backend.
func (c *CLI) openSessions(rdb *redis.Client) (session.Store, error) {
	cfg := c.cfg.Session
	switch cfg.Backend {
	case config.SessionMemory:
		return session.NewMemoryStore(), nil
	case config.SessionFile:
		return session.NewFileStore(cfg.Dir)
	case config.SessionRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis session backend needs a redis connection")
		}
		return session.NewRedisStore(rdb, cfg.Prefix), nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
}

// openCache opens the configured render cache. With preferDisk set, the
// null backend is replaced by the file cache so repeated local renders are
// cached. A nil rdb makes the redis backend dial its own connection.
func (c *CLI) openCache(ctx context.Context, rdb *redis.Client, preferDisk bool) (cache.Cache, error) {
	cfg := c.cfg.Cache
	switch cfg.Backend {
	case config.CacheRedis:
		if rdb != nil {
			return cache.NewRedisCache(rdb, cfg.Prefix), nil
		}
		return cache.DialRedis(ctx, &redis.Options{
			Addr:     c.cfg.Redis.Addr,
			Password: c.cfg.Redis.Password,
			DB:       c.cfg.Redis.DB,
		}, cfg.Prefix)
	case config.CacheFile:
		return cache.NewFileCache(cfg.Dir)
	case config.CacheNull:
		if !preferDisk {
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(cfg.Dir)
		if err != nil {
			loggerFromContext(ctx).Warn("render cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}
