package render

import "github.com/SonghaiFan/metroflow/pkg/styles"

// Defaults used when no option overrides them.
const (
	DefaultPadding  = 40.0
	DefaultFontSize = 14.0
	DefaultScale    = 1.0
)

// Option configures scene construction and the sinks.
type Option func(*config)

type config struct {
	padding  float64
	scale    float64
	fontSize float64
	labels   bool
	width    float64
	height   float64
	theme    styles.Theme
}

func newConfig(opts []Option) config {
	c := config{
		padding:  DefaultPadding,
		scale:    DefaultScale,
		fontSize: DefaultFontSize,
		labels:   true,
		theme:    styles.ThemeDefault,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithPadding sets the margin around the drawing.
func WithPadding(p float64) Option {
	return func(c *config) {
		if p >= 0 {
			c.padding = p
		}
	}
}

// WithScale sets the raster scale factor. Only [PNG] uses it.
func WithScale(s float64) Option {
	return func(c *config) {
		if s > 0 {
			c.scale = s
		}
	}
}

// WithFontSize sets the label font size.
func WithFontSize(size float64) Option {
	return func(c *config) {
		if size > 0 {
			c.fontSize = size
		}
	}
}

// WithLabels turns station names on or off.
func WithLabels(on bool) Option {
	return func(c *config) { c.labels = on }
}

// WithSize fixes the output size. Zero keeps the size of the content.
func WithSize(width, height float64) Option {
	return func(c *config) {
		c.width, c.height = max(width, 0), max(height, 0)
	}
}

// WithTheme selects the background and label colors.
func WithTheme(t styles.Theme) Option {
	return func(c *config) { c.theme = t }
}
