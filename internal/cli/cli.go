package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cartogram/pkg/buildinfo"
	"github.com/matzehuels/cartogram/pkg/cache"
	"github.com/matzehuels/cartogram/pkg/config"
	"github.com/matzehuels/cartogram/pkg/pipeline"
	"github.com/matzehuels/cartogram/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "cartogram"

	// configFileName is looked up in the user config directory when
	// --config is not given.
	configFileName = "config.toml"
)

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

	// ConfigPath is bound to --config. Empty means the per-user default
	// file, if it exists.
	ConfigPath string

	config *config.Config
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
		Use:          appName,
		Short:        "Cartogram resizes map regions in proportion to a statistic",
		Long:         `Cartogram computes continuous area cartograms with the Dougenik, Chrisman and Niemeyer algorithm. Regions grow or shrink until their areas match their share of a numeric attribute while staying connected to their neighbours.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "path to a TOML config file")

	root.AddCommand(c.transformCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the configuration once per process.
func (c *CLI) loadConfig() error {
	if c.config != nil {
		return nil
	}
	path := c.ConfigPath
	if path == "" {
		path = defaultConfigFile()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if cfg.Cache.Dir == "" {
		if dir, err := cacheDir(); err == nil {
			cfg.Cache.Dir = dir
		}
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	c.config = cfg
	return nil
}

// Config returns the loaded configuration, or the defaults before loading.
func (c *CLI) Config() *config.Config {
	if c.config == nil {
		return config.Default()
	}
	return c.config
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg := c.Config()
	store, err := newCache(ctx, cfg.Cache, noCache, c.Logger)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Prefix)
	}
	runner := pipeline.NewRunner(store, keyer, c.Logger)
	runner.TTL = cfg.Cache.TTL.Duration
	return runner, nil
}

// newCache builds the configured cache backend. An unreachable redis or a
// missing cache directory degrades to a NullCache.
func newCache(ctx context.Context, cfg config.Cache, noCache bool, logger *log.Logger) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if errors.Is(err, cache.ErrUnavailable) {
			logger.Warn("redis unavailable, caching disabled", "addr", cfg.RedisAddr, "error", err)
			return cache.NewNullCache(), nil
		}
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		if cfg.Dir == "" {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(cfg.Dir)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/cartogram/).
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

// configDir returns the config directory using XDG standard (~/.config/cartogram/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// defaultConfigFile returns the per-user config file if it exists.
func defaultConfigFile() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// =============================================================================
// Options Helpers
// =============================================================================

// applyConfig fills every option whose flag was not set explicitly from the
// loaded configuration, so flags win over environment, file and defaults.
func (c *CLI) applyConfig(cmd *cobra.Command, opts *pipeline.Options) {
	cfg := c.Config()
	flags := cmd.Flags()
	if !flags.Changed("max-iterations") {
		opts.MaxIterations = cfg.Cartogram.MaxIterations
	}
	if !flags.Changed("max-error") {
		opts.MaxAverageError = cfg.Cartogram.MaxAverageError
	}
	if !flags.Changed("workers") {
		opts.Workers = cfg.Cartogram.Workers
	}
	if !flags.Changed("width") {
		opts.Width = cfg.Render.Width
	}
	if !flags.Changed("height") {
		opts.Height = cfg.Render.Height
	}
	if !flags.Changed("palette") {
		opts.Palette = cfg.Render.Palette
	}
	if !flags.Changed("stroke") {
		opts.StrokeWidth = cfg.Render.StrokeWidth
	}
	opts.Logger = c.Logger
}

// addRenderFlags registers the frame flags shared by transform and render.
func addRenderFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.Width, "width", opts.Width, "frame width")
	cmd.Flags().Float64Var(&opts.Height, "height", opts.Height, "frame height")
	cmd.Flags().StringVar(&opts.Palette, "palette", opts.Palette, "fill palette: "+strings.Join(render.PaletteNames(), ", "))
	cmd.Flags().Float64Var(&opts.StrokeWidth, "stroke", opts.StrokeWidth, "outline width (0 disables outlines)")
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string, fallback string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{fallback}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
