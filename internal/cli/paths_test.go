package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", custom)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(custom, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"map.json", "map"},
		{"out/berlin.svg", "out/berlin"},
		{"out/berlin.topology.svg", "out/berlin"},
		{"map.png", "map"},
		{"map.dot", "map"},
		{"map", "map"},
		{"map.v2", "map.v2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := basePath(tt.in); got != tt.want {
				t.Errorf("basePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBasePathName(t *testing.T) {
	if got := basePathName("maps/paris.json"); got != "paris" {
		t.Errorf("basePathName = %q, want paris", got)
	}
	if got := basePathName("-"); got != "map" {
		t.Errorf("basePathName(-) = %q, want map", got)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg,png", []string{"svg", "png"}},
		{" dot , topology ,", []string{"dot", "topology"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseFormats(tt.in)); diff != "" {
				t.Errorf("parseFormats(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}
