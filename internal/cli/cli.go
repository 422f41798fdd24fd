// Package cli implements the handwrite command-line interface.
//
// Commands log through charmbracelet/log. The root command attaches the
// CLI logger to the command context in its persistent pre-run hook, so
// commands use [loggerFromContext] rather than reaching for the CLI.
//
// # Commands
//
//   - render: lay out and draw text, writing SVG, PDF, PNG or JSON pages
//   - override: swap the variant of individual glyphs of a saved page
//   - variants: list the hand-drawn variants of a character
//   - assets: report variant files changed since they were last processed
//   - serve: run the HTTP preview server
//   - cache: manage the export cache
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs pipeline, cache and server events.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/handwrite/pkg/buildinfo"
	"github.com/matzehuels/handwrite/pkg/cache"
	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/config"
	"github.com/matzehuels/handwrite/pkg/errors"
	"github.com/matzehuels/handwrite/pkg/observability"
	"github.com/matzehuels/handwrite/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

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

	configPath string
	cfg        *config.Config
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
		Short: "Handwrite renders text as a page of hand-drawn glyphs",
		Long: `Handwrite lays text out on a grid page and draws every character with one
of its hand-drawn variants, avoiding recently used variants so repeated
letters look different.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/handwrite/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.overrideCommand())
	root.AddCommand(c.variantsCommand())
	root.AddCommand(c.assetsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config file and attaches the logger to the command
// context. Event hooks log at debug level.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	path, required := c.configPath, c.configPath != ""
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			c.cfg = &config.Config{}
		}
	}
	if c.cfg == nil {
		cfg, err := config.Load(path, required)
		if err != nil {
			return err
		}
		c.cfg = cfg
	}

	if c.Logger.GetLevel() <= log.DebugLevel {
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetServerHooks(hooks)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// settings returns the loaded configuration, or an empty one before setup.
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		return &config.Config{}
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner over the asset directory.
func (c *CLI) newRunner(ctx context.Context, assetsDir string, noCache bool) (*pipeline.Runner, error) {
	assets, err := c.openAssets(assetsDir)
	if err != nil {
		return nil, err
	}
	store, keyer, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(assets, store, keyer, c.Logger), nil
}

// newCache returns the export cache: Redis when configured, otherwise
// files under the cache directory.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	if noCache {
		return cache.NewNullCache(), cache.NewDefaultKeyer(), nil
	}
	cfg := c.settings()
	if cfg.Cache.Redis != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.Redis)
		if err != nil {
			return nil, nil, err
		}
		return rc, cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName+":"), nil
	}
	dir, err := c.fileCacheDir()
	if err != nil {
		return cache.NewNullCache(), cache.NewDefaultKeyer(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, err
	}
	return fc, cache.NewDefaultKeyer(), nil
}

// openAssets opens the variant tree at dir, or the configured one.
func (c *CLI) openAssets(dir string) (*catalog.Dir, error) {
	if dir == "" {
		dir = c.settings().Assets
	}
	if dir == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no asset directory: pass --assets or set assets in the config file")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "asset directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "asset path %s is not a directory", dir)
	}
	return catalog.NewDir(dir), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/handwrite/).
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

// dataDir returns the data directory using XDG standard (~/.local/share/handwrite/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
