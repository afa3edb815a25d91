package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateSnapshotName validates the name under which a map snapshot is
// saved. Names become file names, Redis keys and Mongo document ids, so the
// rules are conservative:
//   - No empty names
//   - Maximum length of 128 characters
//   - No control characters
//   - No path separators or traversal sequences
func ValidateSnapshotName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "snapshot name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "snapshot name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "snapshot name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "snapshot name contains invalid characters: %q", pattern)
		}
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "snapshot name cannot start with a dot")
	}

	return nil
}

// namedColors are the CSS color keywords found in saved maps.
var namedColors = map[string]bool{
	"black": true, "white": true, "red": true, "green": true, "blue": true,
	"yellow": true, "orange": true, "purple": true, "gray": true, "grey": true,
}

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor accepts #rgb and #rrggbb hex colors and a small set of
// color keywords.
func ValidateColor(color string) error {
	if color == "" {
		return New(ErrCodeInvalidStyle, "color cannot be empty")
	}
	if namedColors[strings.ToLower(color)] || hexColorRegex.MatchString(color) {
		return nil
	}
	return New(ErrCodeInvalidStyle, "invalid color: %q", color)
}

// ValidateAddr validates a TCP listen address of the form host:port or :port.
func ValidateAddr(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidInput, "address cannot be empty")
	}
	i := strings.LastIndexByte(addr, ':')
	if i < 0 || i == len(addr)-1 {
		return New(ErrCodeInvalidInput, "address %q must include a port", addr)
	}
	for _, r := range addr[i+1:] {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidInput, "address %q has a non-numeric port", addr)
		}
	}
	return nil
}
