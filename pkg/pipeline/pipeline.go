// Package pipeline turns maps into rendered artifacts.
//
// Both the CLI and the HTTP API render through a [Runner] so that artifact
// caching and format handling behave the same everywhere.
//
// # Stages
//
//  1. Snapshot: the map is serialized and hashed. The hash keys the cache.
//  2. Prepare: the render scene and, if needed, the topology DOT graph are
//     built once from the map.
//  3. Render: each requested format is produced in parallel from the
//     prepared inputs and written back to the cache.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, m, pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG, pipeline.FormatPNG},
//	    Scale:   2,
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/SonghaiFan/metroflow/pkg/cache"
	"github.com/SonghaiFan/metroflow/pkg/document"
	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/render"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

// DefaultTTL is how long rendered artifacts stay cached. Keys include the
// snapshot hash, so stale entries are never served; the TTL only bounds disk
// use.
const DefaultTTL = 7 * 24 * time.Hour

// MaxScale bounds the PNG scale factor.
const MaxScale = 16.0

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatDOT      = "dot"
	FormatTopology = "topology"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatPNG:      true,
	FormatDOT:      true,
	FormatTopology: true,
}

// Extensions maps formats to file extensions.
var Extensions = map[string]string{
	FormatSVG:      ".svg",
	FormatPNG:      ".png",
	FormatDOT:      ".dot",
	FormatTopology: ".topology.svg",
}

// ContentTypes maps formats to MIME types.
var ContentTypes = map[string]string{
	FormatSVG:      "image/svg+xml",
	FormatPNG:      "image/png",
	FormatDOT:      "text/vnd.graphviz",
	FormatTopology: "image/svg+xml",
}

// Options configures a render run. It supports JSON for API requests.
type Options struct {
	Formats  []string `json:"formats,omitempty"`
	Padding  float64  `json:"padding,omitempty"`   // zero selects render.DefaultPadding
	Scale    float64  `json:"scale,omitempty"`     // PNG only
	FontSize float64  `json:"font_size,omitempty"` // label size
	NoLabels bool     `json:"no_labels,omitempty"`
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
	Theme    string   `json:"theme,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"` // bypass cache reads

	Logger *log.Logger `json:"-"`

	theme     styles.Theme
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// SnapshotHash is the content hash of the rendered map.
	SnapshotHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains map counts and timing.
	Stats Stats

	// CacheInfo tracks which formats came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	document.Stats
	PrepareTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits per format.
type CacheInfo struct {
	Hits      []string // formats served from the cache
	RenderHit bool     // every format came from the cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, dot, topology)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	o.Formats = dedupe(o.Formats)
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	for _, v := range []float64{o.Padding, o.Scale, o.FontSize, o.Width, o.Height} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeInvalidInput, "padding, scale, font size and size must be finite and not negative")
		}
	}
	if o.Scale > MaxScale {
		return errors.New(errors.ErrCodeInvalidInput, "scale %g exceeds the maximum of %g", o.Scale, MaxScale)
	}
	if o.Width > render.MaxPNGSide || o.Height > render.MaxPNGSide {
		return errors.New(errors.ErrCodeInvalidInput, "size %gx%g exceeds the maximum of %d per side", o.Width, o.Height, render.MaxPNGSide)
	}
	if o.Padding == 0 {
		o.Padding = render.DefaultPadding
	}
	if o.Scale == 0 {
		o.Scale = render.DefaultScale
	}
	if o.FontSize == 0 {
		o.FontSize = render.DefaultFontSize
	}
	theme, err := styles.ParseTheme(o.Theme)
	if err != nil {
		return err
	}
	o.theme = theme
	o.Theme = string(theme)
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// RenderOptions converts the options for the render package.
func (o *Options) RenderOptions() []render.Option {
	return []render.Option{
		render.WithPadding(o.Padding),
		render.WithScale(o.Scale),
		render.WithFontSize(o.FontSize),
		render.WithLabels(!o.NoLabels),
		render.WithSize(o.Width, o.Height),
		render.WithTheme(o.theme),
	}
}

// KeyOpts returns the cache key options for one format.
func (o *Options) KeyOpts(format string) cache.RenderKeyOpts {
	k := cache.RenderKeyOpts{
		Format:   format,
		Padding:  o.Padding,
		FontSize: o.FontSize,
		Labels:   !o.NoLabels,
		Width:    o.Width,
		Height:   o.Height,
		Theme:    o.Theme,
	}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

func dedupe(formats []string) []string {
	seen := make(map[string]bool, len(formats))
	out := formats[:0:0]
	for _, f := range formats {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
