package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/baselineplan/pkg/buildinfo"
	"github.com/matzehuels/baselineplan/pkg/cache"
	"github.com/matzehuels/baselineplan/pkg/classify"
	"github.com/matzehuels/baselineplan/pkg/config"
	"github.com/matzehuels/baselineplan/pkg/errors"
	"github.com/matzehuels/baselineplan/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "baselineplan"

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
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Baselineplan turns browser compat data into a feature adoption plan",
		Long: `Baselineplan reads a browser-compat-data dataset, extracts the features in
priority order and classifies each one by weighted browser support into a
baseline status with a recommended adoption date.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A .env file is optional.
			_ = godotenv.Load()
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.extractCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// storeFlags are the configuration and cache flags shared by commands that
// touch the extraction cache.
type storeFlags struct {
	configPath string
	redisURL   string
	noCache    bool
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "config file (.toml, .yaml); defaults to $"+config.EnvConfig)
	cmd.Flags().StringVar(&f.redisURL, "redis-url", "", "use a Redis cache at this URL; defaults to $"+config.EnvRedisURL)
}

// loadConfig reads the config file named by the flag or environment, or
// returns the built-in defaults. The Redis URL flag overrides the file.
func (f *storeFlags) loadConfig() (*config.Config, error) {
	path := f.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	url := f.redisURL
	if url == "" {
		url = os.Getenv(config.EnvRedisURL)
	}
	if url != "" {
		cfg.Cache.Backend = config.BackendRedis
		cfg.Cache.RedisURL = url
	}
	if f.noCache {
		cfg.Cache.Backend = config.BackendNone
	}
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. A configured key prefix
// scopes all cache keys.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, error) {
	store, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Prefix)
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

// newCache opens the configured cache backend. A file cache without a usable
// directory degrades to no caching.
func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cfg.RedisURL)
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/baselineplan/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseList splits a comma-separated flag value, dropping blanks.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseStatuses parses a comma-separated list of baseline statuses.
func parseStatuses(s string) ([]classify.Status, error) {
	var out []classify.Status
	for _, name := range parseList(s) {
		st := classify.Status(strings.ToLower(name))
		if st.Rank() < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid status: %q (must be one of: widely, newly, limited)", name)
		}
		out = append(out, st)
	}
	return out, nil
}
