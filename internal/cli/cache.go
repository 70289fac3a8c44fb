package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagestack/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the conversion and output cache",
		Long: `Converted documents and merged outputs are cached in the directory printed
by "pagestack cache path", or in the backend set by [cache] url in the
config file.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			backend, err := cache.Open(cmd.Context(), cfg.CacheSpec())
			if err != nil {
				return err
			}
			defer backend.Close()

			clearer, ok := backend.(cache.Clearer)
			if !ok {
				printInfo("The %s cache has nothing to clear", backendName(backend))
				return nil
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared cache")
			printDetail("Backend: %s", backendName(backend))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			spec := cfg.CacheSpec()
			if spec == "" {
				dir, err := cache.DefaultDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Fprintln(stdout, dir)
				return nil
			}

			backend, err := cache.Open(cmd.Context(), spec)
			if err != nil {
				return err
			}
			defer backend.Close()
			fc, ok := backend.(*cache.FileCache)
			if !ok {
				return fmt.Errorf("the %s cache has no directory", backendName(backend))
			}
			fmt.Fprintln(stdout, fc.Dir())
			return nil
		},
	}
}
