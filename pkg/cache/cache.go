// Package cache stores rendered artifacts so unchanged maps are not drawn
// twice.
//
// A [Cache] is a byte store with optional expiry. [FileCache] backs the CLI,
// [RedisCache] lets several API servers share renders, and [NullCache]
// disables caching. Keys come from a [Keyer], which hashes the snapshot
// together with every option that changes the output.
//
//	c, _ := cache.NewFileCache(dir)
//	key := cache.NewDefaultKeyer().RenderKey(cache.Hash(snapshot), cache.RenderKeyOpts{Format: "svg"})
//	if data, ok, _ := c.Get(ctx, key); ok {
//	    return data
//	}
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store for artifacts.
type Cache interface {
	// Get returns the stored bytes and whether the key was present. Expired
	// entries count as absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// RenderKey identifies one rendering of one snapshot.
	RenderKey(snapshotHash string, opts RenderKeyOpts) string

	// SnapshotKey identifies a named snapshot.
	SnapshotKey(name string) string
}

// RenderKeyOpts lists the options that change a rendered artifact.
type RenderKeyOpts struct {
	Format   string  `json:"format"`
	Padding  float64 `json:"padding"`
	Scale    float64 `json:"scale,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
	Labels   bool    `json:"labels"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Theme    string  `json:"theme,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RenderKey returns "render:" followed by a hash of the snapshot hash and
// the options.
func (DefaultKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return hashKey("render", snapshotHash, opts)
}

// SnapshotKey returns "snapshot:" followed by the name.
func (DefaultKeyer) SnapshotKey(name string) string {
	return "snapshot:" + name
}
