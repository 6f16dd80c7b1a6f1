package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Plot.Width != 1000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("an explicit missing file should fail")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = ":9000"
read_timeout = "5s"

[storage]
backend = "sqlite"
sqlite_path = "/tmp/g.db"

[plot]
width = 400
height = 0

[auth]
secret = "from-file"
`)
	t.Setenv("GARDENGRID_AUTH_SECRET", "from-env")
	t.Setenv("GARDENGRID_SESSION_TTL", "2h")
	t.Setenv("GARDENGRID_CACHE_BACKEND", "redis")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"server addr", cfg.Server.Addr, ":9000"},
		{"read timeout", cfg.Server.ReadTimeout, 5 * time.Second},
		{"write timeout default", cfg.Server.WriteTimeout, 30 * time.Second},
		{"storage backend", cfg.Storage.Backend, StorageSQLite},
		{"plot width", cfg.Plot.Width, 400.0},
		{"plot unbounded height", cfg.Plot.Height, 0.0},
		{"env beats file", cfg.Auth.Secret, "from-env"},
		{"session ttl", cfg.Session.TTL, 2 * time.Hour},
		{"cache backend", cfg.Cache.Backend, CacheRedis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
	if !cfg.UsesRedis() {
		t.Error("redis cache should need redis")
	}
	if g := cfg.Plot.Garden(); g.Width != 400 || g.Height != 0 {
		t.Errorf("Garden() = %+v", g)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"unknown storage", func(c *Config) { c.Storage.Backend = "s3" }, "storage backend"},
		{"mongo without uri", func(c *Config) { c.Storage.Backend = StorageMongo }, "mongo_uri"},
		{"unknown session", func(c *Config) { c.Session.Backend = "cookie" }, "session backend"},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }, "cache backend"},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "positive"},
		{"negative plot", func(c *Config) { c.Plot.Width = -1 }, "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.errSub)
			}
		})
	}
}

func TestDirsFollowXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))

	if got, want := DefaultPath(), filepath.Join(base, "config", "gardengrid", "config.toml"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
	if got, want := DataDir(), filepath.Join(base, "data", "gardengrid"); got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
	if got, want := CacheDir(), filepath.Join(base, "cache", "gardengrid"); got != want {
		t.Errorf("CacheDir() = %q, want %q", got, want)
	}
}
