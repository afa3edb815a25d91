package cache

// ScopedKeyer wraps a Keyer with a prefix so that independent users of one
// cache cannot see each other's entries. The HTTP API scopes keys per
// editing session:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "session:"+id+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(snapshotHash, opts)
}

// SnapshotKey generates a prefixed snapshot key.
func (k *ScopedKeyer) SnapshotKey(name string) string {
	return k.prefix + k.inner.SnapshotKey(name)
}
