package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/SonghaiFan/metroflow/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	formats string
	output  string
	noCache bool
	labels  bool
	opts    pipeline.Options
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	ro := &renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [map.json|-]",
		Short: "Render a map snapshot to SVG, PNG or DOT",
		Long: `Render a map snapshot.

Formats (comma separated with -f):
  svg       the map as drawn by the editor
  png       the map rasterized at --scale
  dot       the station graph in Graphviz DOT
  topology  the station graph laid out by Graphviz, as SVG

Output files are named <base>.<ext>, where base is --output or the input
path without its extension. Renders are cached by snapshot content and
options; use --no-cache or --refresh to bypass the cache.`,
		Example: `  metroflow render map.json
  metroflow render map.json -f svg,png --scale 2
  cat map.json | metroflow render - -f dot -o out/map`,
		Args: cobra.ExactArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			c.applyRenderDefaults(cmd, ro)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ro.opts.NoLabels = !ro.labels
			return c.runRender(cmd.Context(), args[0], ro)
		},
	}

	cmd.Flags().StringVarP(&ro.formats, "format", "f", pipeline.FormatSVG, "output formats: svg, png, dot, topology")
	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output base path (default: input without extension)")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&ro.opts.Refresh, "refresh", false, "re-render and overwrite cached artifacts")
	cmd.Flags().BoolVar(&ro.labels, "labels", true, "draw station names")
	cmd.Flags().Float64Var(&ro.opts.Padding, "padding", 0, "margin around the map")
	cmd.Flags().Float64Var(&ro.opts.Scale, "scale", 0, "PNG scale factor")
	cmd.Flags().Float64Var(&ro.opts.FontSize, "font-size", 0, "label font size")
	cmd.Flags().Float64Var(&ro.opts.Width, "width", 0, "minimum canvas width")
	cmd.Flags().Float64Var(&ro.opts.Height, "height", 0, "minimum canvas height")
	cmd.Flags().StringVar(&ro.opts.Theme, "theme", "", "color theme: default, dark, light")

	return cmd
}

// applyRenderDefaults fills flags the user did not set from the config file.
func (c *CLI) applyRenderDefaults(cmd *cobra.Command, ro *renderOpts) {
	def := c.renderDefaults()
	flags := cmd.Flags()
	if !flags.Changed("padding") {
		ro.opts.Padding = def.Padding
	}
	if !flags.Changed("scale") {
		ro.opts.Scale = def.Scale
	}
	if !flags.Changed("width") {
		ro.opts.Width = def.Width
	}
	if !flags.Changed("height") {
		ro.opts.Height = def.Height
	}
	if !flags.Changed("theme") {
		ro.opts.Theme = def.Theme
	}
	if !flags.Changed("labels") {
		ro.labels = !def.NoLabels
	}
}

func (c *CLI) runRender(ctx context.Context, input string, ro *renderOpts) error {
	data, err := readInput(input)
	if err != nil {
		return err
	}

	opts := ro.opts
	opts.Formats = parseFormats(ro.formats)
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering map...")
	spinner.Start()
	result, err := runner.ExecuteSnapshot(ctx, data, opts)
	spinner.Stop()
	if spinner.Cancelled() {
		return ctx.Err()
	}
	if err != nil {
		printError("Render failed")
		return err
	}

	base := ro.output
	if base == "" {
		base = "map"
		if input != "-" {
			base = input
		}
	}
	base = basePath(base)

	printSuccess("Rendered %d artifacts", len(opts.Formats))
	for _, format := range opts.Formats {
		path := base + pipeline.Extensions[format]
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.Stats, result.CacheInfo.RenderHit)
	printDetail("prepare %s · render %s", result.Stats.PrepareTime, result.Stats.RenderTime)
	return nil
}

// readInput reads a snapshot from a file, or from stdin for "-".
func readInput(input string) ([]byte, error) {
	if input == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", input, err)
	}
	return data, nil
}
