package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	svg := k.RenderKey("abc", RenderKeyOpts{Format: "svg", Padding: 40, Labels: true})
	png := k.RenderKey("abc", RenderKeyOpts{Format: "png", Padding: 40, Labels: true})
	other := k.RenderKey("abd", RenderKeyOpts{Format: "svg", Padding: 40, Labels: true})
	if svg == png || svg == other {
		t.Error("format and snapshot must both change the key")
	}
	if !strings.HasPrefix(svg, "render:") {
		t.Errorf("RenderKey = %q, want render: prefix", svg)
	}
	if svg != k.RenderKey("abc", RenderKeyOpts{Format: "svg", Padding: 40, Labels: true}) {
		t.Error("RenderKey should be deterministic")
	}
	if got := k.SnapshotKey("central"); got != "snapshot:central" {
		t.Errorf("SnapshotKey = %q", got)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "session:123:")
	if got := scoped.SnapshotKey("x"); got != "session:123:snapshot:x" {
		t.Errorf("SnapshotKey = %q", got)
	}
	if got := scoped.RenderKey("h", RenderKeyOpts{}); !strings.HasPrefix(got, "session:123:render:") {
		t.Errorf("RenderKey = %q", got)
	}

	if got := NewScopedKeyer(nil, "p:").SnapshotKey("x"); got != "p:snapshot:x" {
		t.Errorf("nil inner: SnapshotKey = %q", got)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "render:a"); hit {
		t.Error("empty cache reported a hit")
	}
	if err := c.Set(ctx, "render:a", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "render:a")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "render:a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "render:a"); hit {
		t.Error("deleted entry still present")
	}
	if err := c.Delete(ctx, "render:a"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry missing")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !errors.Is(err, os.ErrNotExist) {
		t.Error("expired entry not removed from disk")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	p := c.path("k")
	os.MkdirAll(filepath.Dir(p), 0o755)
	os.WriteFile(p, []byte("{not json"), 0o644)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte(k), 0)
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear() = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestKeyType(t *testing.T) {
	tests := map[string]string{
		"render:abc":           "render",
		"snapshot:x":           "snapshot",
		"plain":                "unknown",
		"session:1:render:abc": "session",
	}
	for key, want := range tests {
		if got := keyType(key); got != want {
			t.Errorf("keyType(%q) = %q, want %q", key, got, want)
		}
	}
}

var errBoom = errors.New("boom")

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(errBoom)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != errBoom.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, errBoom) {
		t.Error("wrapped error should unwrap to the cause")
	}
	if IsRetryable(errBoom) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	const delay = time.Millisecond

	calls := 0
	if err := RetryWithBackoff(ctx, 3, delay, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, 3, delay, func() error { calls++; return errBoom })
	if err != errBoom || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 3, delay, func() error {
		calls++
		if calls < 2 {
			return Retryable(errBoom)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry then success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 3, delay, func() error { calls++; return Retryable(errBoom) })
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, 3, time.Second, func() error {
		return Retryable(errBoom)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
