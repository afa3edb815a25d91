// Package revision implements snapshot-based undo and redo for metro maps.
//
// A [History] is an ordered list of serialized maps and a current index.
// Recording a snapshot discards any redo branch; undo and redo rebuild a
// brand-new map from the stored snapshot instead of mutating the current
// one. A History is bounded: once full, the oldest snapshot is evicted.
//
// The history does not synchronize access. Callers that share one between
// goroutines must serialize calls themselves.
package revision

import (
	"github.com/charmbracelet/log"

	"github.com/SonghaiFan/metroflow/pkg/document"
	"github.com/SonghaiFan/metroflow/pkg/metro"
)

// DefaultCapacity is the number of snapshots kept when none is configured.
const DefaultCapacity = 100

// History is a bounded undo/redo stack of map snapshots.
type History struct {
	snapshots [][]byte
	current   int
	capacity  int
	logger    *log.Logger
}

// Option configures a History.
type Option func(*History)

// WithCapacity bounds the number of stored snapshots. Values below one are
// ignored.
func WithCapacity(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.capacity = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(h *History) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates an empty history.
func New(opts ...Option) *History {
	h := &History{current: -1, capacity: DefaultCapacity, logger: log.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Record serializes m and stores it after the current snapshot, discarding
// any snapshots that could have been redone.
func (h *History) Record(m *metro.Map) error {
	data, err := document.Marshal(m)
	if err != nil {
		return err
	}
	h.current++
	h.snapshots = append(h.snapshots[:h.current], data)
	for len(h.snapshots) > h.capacity {
		h.snapshots[0] = nil
		h.snapshots = h.snapshots[1:]
		h.current--
	}
	h.logger.Debug("recorded revision", "index", h.current, "size", len(data))
	return nil
}

// Undo steps back one snapshot and returns the map rebuilt from it. Without
// an earlier snapshot m is returned unchanged. If the snapshot cannot be
// loaded the index is left where it was and the error is returned.
func (h *History) Undo(m *metro.Map) (*metro.Map, error) {
	if !h.HasUndo() {
		return m, nil
	}
	return h.load(m, h.current-1)
}

// Redo steps forward one snapshot and returns the map rebuilt from it.
// Without a later snapshot m is returned unchanged.
func (h *History) Redo(m *metro.Map) (*metro.Map, error) {
	if !h.HasRedo() {
		return m, nil
	}
	return h.load(m, h.current+1)
}

func (h *History) load(m *metro.Map, index int) (*metro.Map, error) {
	loaded, err := document.Unmarshal(h.snapshots[index])
	if err != nil {
		return m, err
	}
	h.logger.Debug("restored revision", "from", h.current, "to", index)
	h.current = index
	return loaded, nil
}

// HasUndo reports whether an earlier snapshot exists.
func (h *History) HasUndo() bool { return h.current > 0 }

// HasRedo reports whether a later snapshot exists.
func (h *History) HasRedo() bool { return h.current+1 < len(h.snapshots) }

// Clear drops every snapshot.
func (h *History) Clear() {
	h.snapshots = nil
	h.current = -1
}

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.snapshots) }

// Index returns the position of the current snapshot, or -1 when empty.
func (h *History) Index() int { return h.current }

// Capacity returns the maximum number of stored snapshots.
func (h *History) Capacity() int { return h.capacity }

// Current returns a copy of the current snapshot, or nil when empty.
func (h *History) Current() []byte {
	if h.current < 0 {
		return nil
	}
	return append([]byte(nil), h.snapshots[h.current]...)
}
