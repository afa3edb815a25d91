package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/SonghaiFan/metroflow/pkg/cache"
	"github.com/SonghaiFan/metroflow/pkg/document"
	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/observability"
)

// Runner encapsulates rendering with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can share one Runner as long as each renders a map it owns:
// a [metro.Map] itself is not safe for concurrent use.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// Execute renders m in every requested format. Cached artifacts are reused
// unless opts.Refresh is set; the rest are rendered in parallel and cached.
func (r *Runner) Execute(ctx context.Context, m *metro.Map, opts Options) (result *Result, err error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	hooks := observability.Render()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	snapshot, err := document.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	result = &Result{
		SnapshotHash: cache.Hash(snapshot),
		Artifacts:    make(map[string][]byte, len(opts.Formats)),
	}
	result.Stats.Stats = document.FromMap(m).Stats()

	var missing []string
	for _, format := range opts.Formats {
		if !opts.Refresh {
			key := r.Keyer.RenderKey(result.SnapshotHash, opts.KeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				result.Artifacts[format] = data
				result.CacheInfo.Hits = append(result.CacheInfo.Hits, format)
				continue
			}
		}
		missing = append(missing, format)
	}
	result.CacheInfo.RenderHit = len(missing) == 0
	if len(missing) == 0 {
		r.Logger.Debug("all artifacts cached", "hash", result.SnapshotHash[:12], "formats", opts.Formats)
		return result, nil
	}

	prepStart := time.Now()
	p := prepare(m, missing, opts)
	result.Stats.PrepareTime = time.Since(prepStart)

	renderStart := time.Now()
	rendered, err := renderAll(ctx, missing, p)
	if err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)

	for i, format := range missing {
		result.Artifacts[format] = rendered[i]
		key := r.Keyer.RenderKey(result.SnapshotHash, opts.KeyOpts(format))
		if err := r.Cache.Set(ctx, key, rendered[i], r.TTL); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "error", err)
		}
	}

	r.Logger.Info("rendered map",
		"formats", missing,
		"cached", result.CacheInfo.Hits,
		"stations", result.Stats.Stations,
		"duration", result.Stats.PrepareTime+result.Stats.RenderTime)
	return result, nil
}

// ExecuteSnapshot decodes a JSON snapshot and renders it.
func (r *Runner) ExecuteSnapshot(ctx context.Context, data []byte, opts Options) (*Result, error) {
	m, err := document.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return r.Execute(ctx, m, opts)
}

// Render is a convenience wrapper that calls Execute and returns only the
// artifacts.
func (r *Runner) Render(ctx context.Context, m *metro.Map, opts Options) (map[string][]byte, error) {
	result, err := r.Execute(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	return result.Artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func renderAll(ctx context.Context, formats []string, p prepared) ([][]byte, error) {
	out := make([][]byte, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.New(errors.ErrCodeInternal, "render %s: panic: %v", format, r)
				}
			}()
			data, err := renderFormat(gctx, format, p)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			out[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
