// Package config loads gardengrid settings.
//
// Settings come from three layers, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file, by default $XDG_CONFIG_HOME/gardengrid/config.toml
//  3. GARDENGRID_* environment variables, e.g. GARDENGRID_SERVER_ADDR or
//     GARDENGRID_AUTH_SECRET
//
// A missing default config file is not an error; a missing file named
// explicitly is.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/matzehuels/gardengrid/pkg/garden"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "GARDENGRID_"

// Config is the full gardengrid configuration.
type Config struct {
	Server  Server  `toml:"server" envPrefix:"SERVER_"`
	Storage Storage `toml:"storage" envPrefix:"STORAGE_"`
	Session Session `toml:"session" envPrefix:"SESSION_"`
	Redis   Redis   `toml:"redis" envPrefix:"REDIS_"`
	Auth    Auth    `toml:"auth" envPrefix:"AUTH_"`
	Plot    Plot    `toml:"plot" envPrefix:"PLOT_"`
	Cache   Cache   `toml:"cache" envPrefix:"CACHE_"`
}

// Server configures the HTTP server.
type Server struct {
	Addr            string        `toml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `toml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `toml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// SecureCookies marks the session cookie Secure (HTTPS only).
	SecureCookies bool `toml:"secure_cookies" env:"SECURE_COOKIES"`
}

// Storage backends.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMongo  = "mongo"
)

// Storage selects and configures the document store.
type Storage struct {
	Backend string `toml:"backend" env:"BACKEND"`
	Dir     string `toml:"dir" env:"DIR"`

	SQLitePath string `toml:"sqlite_path" env:"SQLITE_PATH"`

	MongoURI        string `toml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase   string `toml:"mongo_database" env:"MONGO_DATABASE"`
	MongoCollection string `toml:"mongo_collection" env:"MONGO_COLLECTION"`

	// SaveAttempts and SaveDelay configure the background save retry.
	SaveAttempts int           `toml:"save_attempts" env:"SAVE_ATTEMPTS"`
	SaveDelay    time.Duration `toml:"save_delay" env:"SAVE_DELAY"`
}

// Session backends.
const (
	SessionMemory = "memory"
	SessionFile   = "file"
	SessionRedis  = "redis"
)

// Session configures login sessions.
type Session struct {
	Backend string        `toml:"backend" env:"BACKEND"`
	Dir     string        `toml:"dir" env:"DIR"`
	TTL     time.Duration `toml:"ttl" env:"TTL"`
	Prefix  string        `toml:"prefix" env:"PREFIX"`
}

// Redis is the shared Redis connection used by the redis session and cache
// backends.
type Redis struct {
	Addr     string `toml:"addr" env:"ADDR"`
	Password string `toml:"password" env:"PASSWORD"`
	DB       int    `toml:"db" env:"DB"`
}

// Auth configures token issuing.
type Auth struct {
	Secret   string        `toml:"secret" env:"SECRET"`
	Issuer   string        `toml:"issuer" env:"ISSUER"`
	TokenTTL time.Duration `toml:"token_ttl" env:"TOKEN_TTL"`
	// BcryptCost of zero uses bcrypt.DefaultCost.
	BcryptCost int `toml:"bcrypt_cost" env:"BCRYPT_COST"`
}

// Plot sets the bounds of new workspaces, in centimeters. Zero leaves an
// axis unbounded.
type Plot struct {
	Width  float64 `toml:"width" env:"WIDTH"`
	Height float64 `toml:"height" env:"HEIGHT"`
}

// Garden converts p to a garden.Plot.
func (p Plot) Garden() garden.Plot {
	return garden.Plot{Width: p.Width, Height: p.Height}
}

// Cache backends.
const (
	CacheNull  = "null"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Cache configures the render cache.
type Cache struct {
	Backend string `toml:"backend" env:"BACKEND"`
	Dir     string `toml:"dir" env:"DIR"`
	Prefix  string `toml:"prefix" env:"PREFIX"`
}

// Default returns the built-in configuration: an in-memory server on
// :8080 with the default plot.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: Storage{
			Backend:         StorageMemory,
			Dir:             filepath.Join(DataDir(), "gardens"),
			SQLitePath:      filepath.Join(DataDir(), "gardengrid.db"),
			MongoDatabase:   "gardengrid",
			MongoCollection: "documents",
			SaveAttempts:    3,
			SaveDelay:       500 * time.Millisecond,
		},
		Session: Session{
			Backend: SessionMemory,
			Dir:     filepath.Join(Dir(), "sessions"),
			TTL:     24 * time.Hour,
			Prefix:  "gardengrid:session:",
		},
		Redis: Redis{Addr: "localhost:6379"},
		Auth: Auth{
			Issuer:   "gardengrid",
			TokenTTL: 24 * time.Hour,
		},
		Plot: Plot{Width: garden.DefaultPlot.Width, Height: garden.DefaultPlot.Height},
		Cache: Cache{
			Backend: CacheNull,
			Dir:     filepath.Join(CacheDir(), "render"),
			Prefix:  "gardengrid:",
		},
	}
}

// Dir returns the configuration directory, $XDG_CONFIG_HOME/gardengrid.
func Dir() string {
	return xdgDir("XDG_CONFIG_HOME", os.UserConfigDir, ".config")
}

// DataDir returns the data directory, $XDG_DATA_HOME/gardengrid.
func DataDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "gardengrid")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "gardengrid")
	}
	return filepath.Join(home, ".local", "share", "gardengrid")
}

// CacheDir returns the cache directory, $XDG_CACHE_HOME/gardengrid.
func CacheDir() string {
	return xdgDir("XDG_CACHE_HOME", os.UserCacheDir, ".cache")
}

func xdgDir(envVar string, fallback func() (string, error), homeRel string) string {
	if d := os.Getenv(envVar); d != "" {
		return filepath.Join(d, "gardengrid")
	}
	if d, err := fallback(); err == nil {
		return filepath.Join(d, "gardengrid")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, homeRel, "gardengrid")
	}
	return filepath.Join(os.TempDir(), "gardengrid")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load builds the configuration from defaults, the TOML file at path and
// the environment. An empty path reads DefaultPath if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks backend names and the values they need.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the file backend")
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
		}
	case StorageMongo:
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Session.Backend {
	case SessionMemory, SessionFile, SessionRedis:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	switch c.Cache.Backend {
	case CacheNull, CacheFile, CacheRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if c.Session.TTL <= 0 || c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("session.ttl and auth.token_ttl must be positive")
	}
	if c.Plot.Width < 0 || c.Plot.Height < 0 {
		return fmt.Errorf("plot size must not be negative")
	}
	return nil
}

// UsesRedis reports whether any backend needs the Redis connection.
func (c Config) UsesRedis() bool {
	return c.Session.Backend == SessionRedis || c.Cache.Backend == CacheRedis
}
