package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/baselineplan/pkg/cache"
	"github.com/matzehuels/baselineplan/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	// Verify the expected structure: $HOME/.cache/baselineplan
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", "baselineplan")
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/xdg", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()

	c, err := newCache(ctx, config.CacheConfig{Backend: config.BackendNone})
	if err != nil {
		t.Fatalf("newCache(none) error: %v", err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("newCache(none) = %T, want cache.NullCache", c)
	}

	dir := t.TempDir()
	c, err = newCache(ctx, config.CacheConfig{Backend: config.BackendFile, Dir: dir})
	if err != nil {
		t.Fatalf("newCache(file) error: %v", err)
	}
	fc, ok := c.(*cache.FileCache)
	if !ok {
		t.Fatalf("newCache(file) = %T, want *cache.FileCache", c)
	}
	if fc.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", fc.Dir(), dir)
	}

	if _, err := newCache(ctx, config.CacheConfig{Backend: config.BackendRedis, RedisURL: "http://nope"}); err == nil {
		t.Error("newCache(redis) should fail for a non-redis URL")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvRedisURL, "")

	f := storeFlags{}
	cfg, err := f.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Cache.Backend != config.BackendFile {
		t.Errorf("Backend = %q, want file", cfg.Cache.Backend)
	}

	t.Setenv(config.EnvRedisURL, "redis://localhost:6379/0")
	cfg, _ = f.loadConfig()
	if cfg.Cache.Backend != config.BackendRedis || cfg.Cache.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("env redis: Cache = %+v", cfg.Cache)
	}

	f.redisURL = "redis://other:6379/1"
	cfg, _ = f.loadConfig()
	if cfg.Cache.RedisURL != "redis://other:6379/1" {
		t.Errorf("flag should win over env, got %q", cfg.Cache.RedisURL)
	}

	f.noCache = true
	cfg, _ = f.loadConfig()
	if cfg.Cache.Backend != config.BackendNone {
		t.Errorf("--no-cache: Backend = %q, want none", cfg.Cache.Backend)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baselineplan.toml")
	if err := os.WriteFile(path, []byte("max_features = 7\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(config.EnvConfig, path)
	t.Setenv(config.EnvRedisURL, "")

	cfg, err := (&storeFlags{}).loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.MaxFeatures != 7 {
		t.Errorf("MaxFeatures = %d, want 7", cfg.MaxFeatures)
	}

	_, err = (&storeFlags{configPath: filepath.Join(t.TempDir(), "missing.toml")}).loadConfig()
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("missing config error = %v", err)
	}
}

func TestNewRunnerKeyPrefix(t *testing.T) {
	c := New(io.Discard, LogInfo)
	ctx := context.Background()

	cfg := config.Default()
	cfg.Cache.Backend = config.BackendNone
	r, err := c.newRunner(ctx, cfg)
	if err != nil {
		t.Fatalf("newRunner error: %v", err)
	}
	if got := r.Keyer.ExtractKey("abc", cache.ExtractKeyOpts{}); !strings.HasPrefix(got, "extract:") {
		t.Errorf("ExtractKey = %s, want extract: prefix", got)
	}

	cfg.Cache.Prefix = "ci:"
	r, err = c.newRunner(ctx, cfg)
	if err != nil {
		t.Fatalf("newRunner error: %v", err)
	}
	if got := r.Keyer.ExtractKey("abc", cache.ExtractKeyOpts{}); !strings.HasPrefix(got, "ci:extract:") {
		t.Errorf("ExtractKey = %s, want ci:extract: prefix", got)
	}
}
