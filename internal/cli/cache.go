package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/baselineplan/pkg/cache"
	"github.com/matzehuels/baselineplan/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the extraction cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	flags := storeFlags{}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached extraction results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == config.BackendNone {
				printInfo("Caching is disabled")
				return nil
			}

			store, err := newCache(cmd.Context(), cfg.Cache)
			if err != nil {
				return err
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printInfo("Cache backend %q cannot be cleared", cfg.Cache.Backend)
				return nil
			}
			count, err := clearer.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}

			printSuccess("Cleared %d cached entries", count)
			if fc, ok := store.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	flags := storeFlags{}

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			dir := cfg.Cache.Dir
			if dir == "" {
				if dir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "config file (.toml, .yaml); defaults to $"+config.EnvConfig)
	return cmd
}
