// Package cli implements the pagestack command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pagestack/pkg/buildinfo"
	"github.com/matzehuels/pagestack/pkg/cache"
	"github.com/matzehuels/pagestack/pkg/config"
	"github.com/matzehuels/pagestack/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pagestack"

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

	// configPath is the --config flag; empty selects config.DefaultPath.
	configPath string
	// interactive enables the spinner and the document picker.
	interactive bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:      newLogger(w, level),
		interactive: isTerminal(os.Stdin) && isTerminal(os.Stderr),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Pagestack packs document pages onto N-up sheets",
		Long:          `Pagestack lays the pages of a PDF, image set, text or office document out on a grid of rows and columns, stamps each page with its number and writes the result as a PDF, a PNG preview or a JSON placement plan.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pagestack/config.toml)")

	root.AddCommand(c.mergeCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// loadConfig reads the --config file, or the default one if present.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if c.configPath != "" {
		c.Logger.Debug("loaded config", "path", c.configPath)
	}
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use. spec is passed to
// cache.Open; noCache overrides it.
func (c *CLI) newRunner(ctx context.Context, spec string, noCache bool) (*pipeline.Runner, error) {
	if noCache {
		spec = "none"
	}
	backend, err := cache.Open(ctx, spec)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("cache backend", "type", backendName(backend))
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

func backendName(c cache.Cache) string {
	switch c := c.(type) {
	case *cache.FileCache:
		return "file:" + c.Dir()
	case *cache.MemoryCache:
		return "memory"
	case *cache.RedisCache:
		return "redis"
	default:
		return "none"
	}
}
