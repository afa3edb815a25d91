// Package styles defines the immutable style records attached to segments
// and stations when they are created.
//
// Styles are plain values: copying a record never aliases another entity's
// style, so a track can hand its defaults to every new station without the
// stations later changing together.
package styles

import (
	"fmt"
	"strings"

	"github.com/SonghaiFan/metroflow/pkg/errors"
)

// Base style constants.
const (
	DefaultStrokeWidth    = 8.0
	DefaultSelectionColor = "#006400"
	DefaultFillColor      = "#ffffff"
)

// Segment styles the routed path of a segment.
type Segment struct {
	StrokeColor    string  `json:"strokeColor" bson:"strokeColor" toml:"stroke_color"`
	StrokeWidth    float64 `json:"strokeWidth" bson:"strokeWidth" toml:"stroke_width"`
	SelectionColor string  `json:"selectionColor" bson:"selectionColor" toml:"selection_color"`
	FullySelected  bool    `json:"fullySelected" bson:"fullySelected" toml:"-"`
}

// Station styles a major station, drawn as a circle.
type Station struct {
	StrokeColor    string  `json:"strokeColor" bson:"strokeColor" toml:"stroke_color"`
	StrokeWidth    float64 `json:"strokeWidth" bson:"strokeWidth" toml:"stroke_width"`
	FillColor      string  `json:"fillColor" bson:"fillColor" toml:"fill_color"`
	StationRadius  float64 `json:"stationRadius" bson:"stationRadius" toml:"radius"`
	SelectionColor string  `json:"selectionColor" bson:"selectionColor" toml:"selection_color"`
	FullySelected  bool    `json:"fullySelected" bson:"fullySelected" toml:"-"`
}

// Minor styles a minor station, drawn as a tick perpendicular to its segment.
type Minor struct {
	StrokeColor      string  `json:"strokeColor" bson:"strokeColor"`
	StrokeWidth      float64 `json:"strokeWidth" bson:"strokeWidth"`
	SelectionColor   string  `json:"selectionColor" bson:"selectionColor"`
	MinorStationSize float64 `json:"minorStationSize" bson:"minorStationSize"`
	FullySelected    bool    `json:"fullySelected" bson:"fullySelected"`
}

// DefaultSegment returns the default segment style: a red 8px stroke.
func DefaultSegment() Segment {
	return Segment{
		StrokeColor:    RGBToHex(255, 0, 0),
		StrokeWidth:    DefaultStrokeWidth,
		SelectionColor: DefaultSelectionColor,
	}
}

// DefaultStation returns the station style of the default theme.
func DefaultStation() Station {
	return ThemeDefault.Station()
}

// DefaultMinor returns the minor style derived from [DefaultSegment].
func DefaultMinor() Minor {
	return MinorFor(DefaultSegment())
}

// MinorFor derives the minor-station style from a segment style: same stroke
// color and width, ticks twice as long as the stroke is wide.
func MinorFor(s Segment) Minor {
	return Minor{
		StrokeColor:      s.StrokeColor,
		StrokeWidth:      s.StrokeWidth,
		SelectionColor:   DefaultSelectionColor,
		MinorStationSize: s.StrokeWidth * 2,
	}
}

// WithRadius returns a copy of s with the given station radius.
func (s Station) WithRadius(r float64) Station {
	s.StationRadius = r
	return s
}

// WithStrokeWidth returns a copy of s with the given stroke width.
func (s Station) WithStrokeWidth(w float64) Station {
	s.StrokeWidth = w
	return s
}

// Validate reports whether the segment style can be drawn.
func (s Segment) Validate() error {
	if err := errors.ValidateColor(s.StrokeColor); err != nil {
		return err
	}
	if s.StrokeWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidStyle, "segment stroke width must be positive, got %g", s.StrokeWidth)
	}
	return nil
}

// Validate reports whether the station style can be drawn.
func (s Station) Validate() error {
	if err := errors.ValidateColor(s.StrokeColor); err != nil {
		return err
	}
	if err := errors.ValidateColor(s.FillColor); err != nil {
		return err
	}
	if s.StationRadius <= 0 {
		return errors.New(errors.ErrCodeInvalidStyle, "station radius must be positive, got %g", s.StationRadius)
	}
	if s.StrokeWidth < 0 {
		return errors.New(errors.ErrCodeInvalidStyle, "station stroke width must not be negative, got %g", s.StrokeWidth)
	}
	return nil
}

// RGBToHex formats an RGB triple as a lowercase #rrggbb color.
func RGBToHex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

var keywordHex = map[string]string{
	"black":  "#000000",
	"white":  "#ffffff",
	"red":    "#ff0000",
	"green":  "#008000",
	"blue":   "#0000ff",
	"yellow": "#ffff00",
	"orange": "#ffa500",
	"purple": "#800080",
	"gray":   "#808080",
	"grey":   "#808080",
}

// Hex returns color as #rrggbb. Color keywords are translated and #rgb is
// expanded; anything else is returned unchanged.
func Hex(color string) string {
	if h, ok := keywordHex[strings.ToLower(color)]; ok {
		return h
	}
	if len(color) == 4 && color[0] == '#' {
		return strings.ToLower(string([]byte{'#', color[1], color[1], color[2], color[2], color[3], color[3]}))
	}
	return strings.ToLower(color)
}
