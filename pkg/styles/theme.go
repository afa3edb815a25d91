package styles

import (
	"strings"

	"github.com/SonghaiFan/metroflow/pkg/errors"
)

// Theme selects the colors of newly created station styles.
type Theme string

// Available themes.
const (
	ThemeDefault Theme = "default"
	ThemeDark    Theme = "dark"
	ThemeLight   Theme = "light"
)

// Themes lists every supported theme.
var Themes = []Theme{ThemeDefault, ThemeDark, ThemeLight}

// ParseTheme resolves a theme name. The empty string selects the default.
func ParseTheme(name string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(name))); t {
	case "":
		return ThemeDefault, nil
	case ThemeDefault, ThemeDark, ThemeLight:
		return t, nil
	}
	return "", errors.New(errors.ErrCodeInvalidStyle, "unknown theme %q (want default, dark or light)", name)
}

// Station returns the station style for the theme. Unknown themes fall back
// to the default colors.
func (t Theme) Station() Station {
	s := Station{
		StrokeColor:    RGBToHex(0, 0, 0),
		StrokeWidth:    DefaultStrokeWidth / 2,
		FillColor:      DefaultFillColor,
		StationRadius:  DefaultStrokeWidth,
		SelectionColor: DefaultSelectionColor,
	}
	switch t {
	case ThemeDark:
		s.FillColor = "#2c2c2c"
		s.StrokeColor = "#ffffff"
	case ThemeLight:
		s.FillColor = "#ffffff"
		s.StrokeColor = "#000000"
	}
	return s
}

// Background returns the canvas color that goes with the theme.
func (t Theme) Background() string {
	if t == ThemeDark {
		return "#1e1e1e"
	}
	return "#ffffff"
}

// Ink returns the text color that goes with the theme.
func (t Theme) Ink() string {
	if t == ThemeDark {
		return "#f0f0f0"
	}
	return "#000000"
}
