// Package cli implements the metroflow command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/SonghaiFan/metroflow/pkg/buildinfo"
	"github.com/SonghaiFan/metroflow/pkg/cache"
	"github.com/SonghaiFan/metroflow/pkg/config"
	"github.com/SonghaiFan/metroflow/pkg/editor"
	"github.com/SonghaiFan/metroflow/pkg/pipeline"
	"github.com/SonghaiFan/metroflow/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "metroflow"

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

	// Config is loaded before any subcommand runs.
	Config config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "MetroFlow draws and edits transit maps",
		Long: `MetroFlow is a transit-map editor engine. It keeps tracks, stations and
connections of a metro map in a JSON document, routes every segment as a
straight line or a quadratic curve, and renders the result to SVG, PNG or a
Graphviz topology view.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/metroflow/config.toml)")

	root.AddCommand(c.newCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", c.configPath, "store", cfg.Store.Backend, "theme", cfg.Editor.Theme)
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// openStore opens the snapshot store selected by the config.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg := c.Config.StoreConfig()
	c.Logger.Debug("opening store", "backend", cfg.Backend)
	return store.Open(ctx, cfg)
}

// editorOptions turns the [editor] config section into session options.
// Every session built from them gets its own history.
func (c *CLI) editorOptions() []editor.Option {
	e := c.Config.Editor
	return []editor.Option{
		editor.WithSnap(e.Snap),
		editor.WithSnapThreshold(e.SnapThreshold),
		editor.WithTheme(c.Config.Theme()),
		editor.WithHistoryCapacity(e.History),
		editor.WithLogger(c.Logger),
	}
}

// renderDefaults turns the [render] config section into pipeline options.
func (c *CLI) renderDefaults() pipeline.Options {
	r := c.Config.Render
	return pipeline.Options{
		Width:    r.Width,
		Height:   r.Height,
		Padding:  r.Padding,
		Scale:    r.Scale,
		NoLabels: !r.Labels,
		Theme:    c.Config.Editor.Theme,
		Logger:   c.Logger,
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/metroflow/).
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

// basePath strips the snapshot or artifact extension from p.
func basePath(p string) string {
	for _, ext := range []string{".topology.svg", ".json", ".svg", ".png", ".dot"} {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

// basePathName returns the snapshot name implied by a file path.
func basePathName(p string) string {
	if p == "-" {
		return "map"
	}
	return filepath.Base(basePath(p))
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
