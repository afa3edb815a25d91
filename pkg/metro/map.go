package metro

import (
	"math"
	"slices"

	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

// HitTolerance is the default distance, in canvas units, within which a
// point hits a segment or station.
const HitTolerance = 5.0

// Map is a complete transit map. It owns the station arena shared by its
// tracks and connections.
type Map struct {
	tracks      []*Track
	connections []*Connection
	arena       *arena
	theme       styles.Theme
}

// New returns an empty map using the default theme.
func New() *Map {
	return &Map{arena: newArena(), theme: styles.ThemeDefault}
}

// Theme returns the theme applied to newly created tracks.
func (m *Map) Theme() styles.Theme { return m.theme }

// SetTheme changes the station colors of tracks created afterwards.
func (m *Map) SetTheme(t styles.Theme) { m.theme = t }

// CreateTrack appends a new track. It returns nil if the requested id is
// already in use.
func (m *Map) CreateTrack(opts ...Option) *Track {
	o := applyOptions(opts)
	id := idOr(o.id, newID)
	if m.FindTrack(id) != nil {
		return nil
	}
	t := newTrack(id, m)
	m.tracks = append(m.tracks, t)
	return t
}

// Tracks returns the tracks in creation order.
func (m *Map) Tracks() []*Track { return slices.Clone(m.tracks) }

// FindTrack returns the track with the given id, or nil.
func (m *Map) FindTrack(id string) *Track {
	for _, t := range m.tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Stations returns every station in creation order.
func (m *Map) Stations() []*Station { return m.arena.all() }

// Segments returns the segments of all tracks, track by track.
func (m *Map) Segments() []*Segment {
	var out []*Segment
	for _, t := range m.tracks {
		out = append(out, t.segments...)
	}
	return out
}

// FindStation returns the station with the given id, or nil.
func (m *Map) FindStation(id string) *Station { return m.arena.get(id) }

// FindSegment returns the segment with the given id and its track.
func (m *Map) FindSegment(id string) (*Segment, *Track) {
	for _, t := range m.tracks {
		if s := t.FindSegment(id); s != nil {
			return s, t
		}
	}
	return nil, nil
}

// TrackOf returns the first track listing the station, or nil.
func (m *Map) TrackOf(id string) *Track {
	for _, t := range m.tracks {
		if t.HasStation(id) {
			return t
		}
	}
	return nil
}

// MoveStation sets a station's position. Minor stations cannot be dragged;
// MoveStation reports false for them and for unknown ids.
func (m *Map) MoveStation(id string, pos geom.Vec) bool {
	st := m.arena.get(id)
	if st == nil || st.Kind() == KindMinor {
		return false
	}
	st.SetPosition(pos)
	return true
}

// RemoveStation removes a station and everything that cannot exist without
// it: connections referencing it, and segments using it as an endpoint
// together with those segments' interior stations. It reports false when
// the station does not exist.
func (m *Map) RemoveStation(id string) bool {
	if m.arena.get(id) == nil {
		return false
	}

	removed := make(map[string]bool)
	queue := []string{id}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		if removed[x] {
			continue
		}
		removed[x] = true
		for _, t := range m.tracks {
			for _, s := range t.segments {
				if s.IsEndpoint(x) {
					queue = append(queue, s.interior()...)
				}
			}
		}
	}

	for _, t := range m.tracks {
		t.segments = slices.DeleteFunc(t.segments, func(s *Segment) bool {
			return removed[s.a] || removed[s.b]
		})
		for x := range removed {
			t.removeStation(x)
		}
	}
	m.connections = slices.DeleteFunc(m.connections, func(c *Connection) bool {
		return removed[c.a] || removed[c.b]
	})
	for x := range removed {
		m.arena.remove(x)
	}
	return true
}

// DeselectAll clears every selection flag on the map.
func (m *Map) DeselectAll() {
	for _, t := range m.tracks {
		t.DeselectAll()
	}
}

// LayoutOption configures [Map.Layout].
type LayoutOption func(*layoutConfig)

type layoutConfig struct {
	notify bool
}

// Quiet skips observer notifications, for fast redraws during a drag.
func Quiet() LayoutOption {
	return func(c *layoutConfig) { c.notify = false }
}

// Layout routes every segment and re-projects all dependent stations.
//
// Segments are visited track by track in creation order. A segment whose
// endpoint is glued to another segment is laid out after that segment. The
// exit tangent of the preceding segment (the first one on the same track
// ending where this one starts) is used only if that segment was already
// routed during this call, which keeps Layout a pure function of the map.
func (m *Map) Layout(opts ...LayoutOption) {
	cfg := layoutConfig{notify: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	trackOf := make(map[*Segment]*Track)
	for _, t := range m.tracks {
		for _, s := range t.segments {
			trackOf[s] = t
		}
	}

	done := make(map[*Segment]bool)
	visiting := make(map[*Segment]bool)
	var visit func(s *Segment)
	visit = func(s *Segment) {
		if done[s] || visiting[s] {
			return
		}
		visiting[s] = true
		for _, id := range []string{s.a, s.b} {
			if st := m.arena.get(id); st != nil {
				if owner := st.Segment(); owner != nil && owner != s && trackOf[owner] != nil {
					visit(owner)
				}
			}
		}
		var tangent geom.Vec
		if prev := trackOf[s].segmentEndingAt(s.a); prev != nil && prev != s && done[prev] && prev.path != nil {
			tangent = prev.path.EndTangent()
		}
		s.layout(tangent, cfg.notify)
		done[s] = true
	}
	for _, t := range m.tracks {
		for _, s := range t.segments {
			visit(s)
		}
	}
}

// SegmentNear returns the segment whose path passes closest to pos, within
// tolerance plus half the stroke width, and its track.
func (m *Map) SegmentNear(pos geom.Vec, tolerance float64) (*Segment, *Track) {
	var (
		best      *Segment
		bestTrack *Track
		bestDist  = math.Inf(1)
	)
	for _, t := range m.tracks {
		for _, s := range t.segments {
			if s.path == nil {
				continue
			}
			d := s.path.Distance(pos)
			if d <= tolerance+s.Style.StrokeWidth/2 && d < bestDist {
				best, bestTrack, bestDist = s, t, d
			}
		}
	}
	return best, bestTrack
}

// StationNear returns the station drawn closest to pos within tolerance, or
// nil. Major stations are hit inside their circle, minor stations along
// their tick.
func (m *Map) StationNear(pos geom.Vec, tolerance float64) *Station {
	var best *Station
	bestDist := math.Inf(1)
	for _, st := range m.arena.all() {
		var d, reach float64
		if st.Kind() == KindMinor {
			tip := st.pos.Add(st.Normal().Mul(st.MinorStyle.MinorStationSize))
			d = distanceToSegment(pos, st.pos, tip)
			reach = st.MinorStyle.StrokeWidth/2 + tolerance
		} else {
			d = pos.Distance(st.pos)
			reach = st.Style.StationRadius + st.Style.StrokeWidth/2 + tolerance
		}
		if d <= reach && d < bestDist {
			best, bestDist = st, d
		}
	}
	return best
}

func distanceToSegment(p, a, b geom.Vec) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Distance(a)
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return p.Distance(a.Add(ab.Mul(t)))
}
