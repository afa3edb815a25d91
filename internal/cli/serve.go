package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/SonghaiFan/metroflow/internal/api"
	"github.com/SonghaiFan/metroflow/pkg/cache"
	"github.com/SonghaiFan/metroflow/pkg/store"
)

// serveCommand creates the serve command that runs the HTTP editing API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		noStore    bool
		noCache    bool
		sessionTTL time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP editing API",
		Long: `Run the HTTP editing API.

Each POST /maps starts an editing session; stations, segments and
connections are edited through the session routes and the map is rendered
with GET /maps/{id}/render.svg. Named snapshots live in the store selected
by the [store] config section.

With the redis store backend, rendered artifacts are cached in the same
Redis server so several API processes share them; otherwise they are cached
on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noStore, noCache, sessionTTL)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the snapshot store routes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", api.DefaultSessionTTL, "drop sessions idle for this long")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noStore, noCache bool, sessionTTL time.Duration) error {
	var st store.Store
	if !noStore {
		s, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		st = s
	}

	artifacts, err := c.serverCache(ctx, noCache)
	if err != nil {
		return err
	}
	defer artifacts.Close()

	srv := api.New(api.Config{
		Cache:      artifacts,
		Store:      st,
		Editor:     c.editorOptions(),
		Render:     c.renderDefaults(),
		SessionTTL: sessionTTL,
		Logger:     c.Logger,
	})

	printInfo("Serving on %s", StyleHighlight.Render(addr))
	if st != nil {
		printDetail("store: %s", c.Config.Store.Backend)
	}
	return srv.ListenAndServe(ctx, addr)
}

// serverCache picks the artifact cache for the API: Redis next to a Redis
// store, a file cache otherwise.
func (c *CLI) serverCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cfg := c.Config.Store; cfg.Backend == store.BackendRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			return rc, nil
		}
		printWarning("Redis cache unavailable, caching on disk: %v", err)
	}
	return newCache(false)
}
