package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SonghaiFan/metroflow/pkg/errors"
)

// swapStdout redirects the print helpers to w for the rest of the test.
func swapStdout(t *testing.T, w io.Writer) {
	t.Helper()
	old := stdout
	stdout = w
	t.Cleanup(func() { stdout = old })
}

// testEnv points every XDG directory at a fresh temp dir.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

// run executes the root command with args and returns what the command
// printed through the ui helpers and cmd.OutOrStdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	swapStdout(t, &out)

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestNewCommand(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "empty.json")

	out := mustRun(t, "new", path)
	if !strings.Contains(out, "Created map") || !strings.Contains(out, "1 track") {
		t.Errorf("new output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"tracks"`)) {
		t.Errorf("snapshot = %s", data)
	}

	_, err = run(t, "new", path)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("new on existing file: err = %v, want INVALID_INPUT", err)
	}
	mustRun(t, "new", "--force", "--example", path)
}

func TestRenderCommand(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "example.json")
	mustRun(t, "new", "--example", path)

	base := filepath.Join(dir, "out", "metro")
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "render", path, "-f", "svg,dot", "-o", base+".svg")
	if !strings.Contains(out, "fresh") {
		t.Errorf("first render should be fresh: %q", out)
	}
	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(svg, []byte("<svg")) && !bytes.HasPrefix(svg, []byte("<?xml")) {
		t.Errorf("svg output starts with %q", svg[:min(20, len(svg))])
	}
	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(dot, []byte("graph metro {")) {
		t.Errorf("dot output starts with %q", dot[:min(20, len(dot))])
	}

	out = mustRun(t, "render", path, "-f", "svg,dot", "-o", base)
	if !strings.Contains(out, "cached") {
		t.Errorf("second render should hit the cache: %q", out)
	}

	out = mustRun(t, "render", path, "-f", "svg", "-o", base, "--no-cache")
	if !strings.Contains(out, "fresh") {
		t.Errorf("--no-cache render should be fresh: %q", out)
	}

	if _, err := run(t, "render", path, "-f", "pdf"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("render -f pdf: err = %v, want INVALID_FORMAT", err)
	}
}

func TestRenderDefaultsFromConfig(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "example.json")
	mustRun(t, "new", "--example", path)

	cfg := filepath.Join(dir, "metroflow.toml")
	if err := os.WriteFile(cfg, []byte("[render]\nlabels = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, "--config", cfg, "render", path, "-o", filepath.Join(dir, "plain"))
	mustRun(t, "render", path, "-o", filepath.Join(dir, "labelled"))

	plain, _ := os.ReadFile(filepath.Join(dir, "plain.svg"))
	labelled, _ := os.ReadFile(filepath.Join(dir, "labelled.svg"))
	if len(plain) == 0 || len(labelled) == 0 {
		t.Fatal("render wrote no svg")
	}
	if bytes.Count(plain, []byte("<text")) >= bytes.Count(labelled, []byte("<text")) {
		t.Error("labels = false in the config should drop station labels")
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := testEnv(t)
	cfg := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(cfg, []byte("[render]\nscale = -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--config", cfg, "cache", "path"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
	if _, err := run(t, "--config", filepath.Join(dir, "missing.toml"), "cache", "path"); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestLayoutCommand(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "example.json")
	mustRun(t, "new", "--example", path)

	out := filepath.Join(dir, "routed.json")
	got := mustRun(t, "layout", path, "-o", out)
	if !strings.Contains(got, "Layout") {
		t.Errorf("layout output = %q", got)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "layout", bad); !errors.Is(err, errors.ErrCodeInvalidSnapshot) {
		t.Errorf("layout of broken snapshot: err = %v, want INVALID_SNAPSHOT", err)
	}
}

func TestInspectCommand(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "example.json")
	mustRun(t, "new", "--example", path)

	out := mustRun(t, "inspect", "--stations", path)
	for _, want := range []string{"3794c750-6605-49df-b810-aa5b0ebb42e8", "6fe22ae9", "3fe7243d", "free"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestStoreCommands(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "berlin.json")
	mustRun(t, "new", "--example", path)

	mustRun(t, "store", "push", path)
	mustRun(t, "store", "push", path, "paris")

	out := mustRun(t, "store", "list")
	if !strings.Contains(out, "berlin") || !strings.Contains(out, "paris") {
		t.Errorf("store list = %q", out)
	}

	pulled := filepath.Join(dir, "pulled.json")
	mustRun(t, "store", "pull", "paris", "-o", pulled)
	want, _ := os.ReadFile(path)
	got, _ := os.ReadFile(pulled)
	if !bytes.Equal(got, want) {
		t.Error("pulled snapshot differs from the pushed file")
	}

	out = mustRun(t, "store", "pull", "berlin", "-o", "-")
	if !strings.Contains(out, `"tracks"`) {
		t.Errorf("pull to stdout = %q", out)
	}

	mustRun(t, "store", "rm", "berlin", "paris")
	if _, err := run(t, "store", "pull", "berlin", "-o", pulled); !errors.IsNotFound(err) {
		t.Errorf("pull after rm: err = %v, want not found", err)
	}
	out = mustRun(t, "store", "list")
	if !strings.Contains(out, "No snapshots") {
		t.Errorf("store list after rm = %q", out)
	}
}

func TestCacheCommands(t *testing.T) {
	dir := testEnv(t)

	out := mustRun(t, "cache", "clear")
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("cache clear on empty cache = %q", out)
	}

	path := filepath.Join(dir, "example.json")
	mustRun(t, "new", "--example", path)
	mustRun(t, "render", path, "-f", "svg,dot")

	out = mustRun(t, "cache", "path")
	if want := filepath.Join(dir, "cache", appName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}

	out = mustRun(t, "cache", "clear")
	if !strings.Contains(out, "Cleared 2 cached entries") {
		t.Errorf("cache clear = %q", out)
	}
}

func TestVersionAndCompletion(t *testing.T) {
	testEnv(t)

	out := mustRun(t, "--version")
	if !strings.HasPrefix(out, appName+" ") {
		t.Errorf("--version = %q", out)
	}

	out = mustRun(t, "completion", "bash")
	if !strings.Contains(out, appName) {
		t.Error("bash completion should mention the command name")
	}
	if _, err := run(t, "completion", "tcsh"); err == nil {
		t.Error("unknown shell should fail")
	}
}
