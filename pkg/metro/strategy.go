package metro

import "github.com/SonghaiFan/metroflow/pkg/geom"

// Kind identifies a station's position-derivation mode.
type Kind int

const (
	// KindFree stations own their position.
	KindFree Kind = iota
	// KindOnSegment stations sit at a stored fraction of a segment's path.
	KindOnSegment
	// KindMinor stations are spread evenly between their bracket stations.
	KindMinor
)

func (k Kind) String() string {
	switch k {
	case KindFree:
		return "free"
	case KindOnSegment:
		return "on-segment"
	case KindMinor:
		return "minor"
	}
	return "unknown"
}

// PositionStrategy derives a station's position. The implementations are
// internal; inspect them with [Station.Kind].
type PositionStrategy interface {
	Kind() Kind

	// derive recomputes the position from seg's current path. It reports
	// false when the station keeps its current position.
	derive(st *Station, seg *Segment) (geom.Vec, bool)

	// drop converts a requested position into the position actually stored.
	drop(pos geom.Vec) geom.Vec
}

type free struct{}

func (free) Kind() Kind                                 { return KindFree }
func (free) derive(*Station, *Segment) (geom.Vec, bool) { return geom.Vec{}, false }
func (free) drop(pos geom.Vec) geom.Vec                 { return pos }

// onSegment keeps a station glued to a fraction of its segment's arc length.
type onSegment struct {
	seg    *Segment
	factor float64
}

func (*onSegment) Kind() Kind { return KindOnSegment }

func (o *onSegment) derive(_ *Station, seg *Segment) (geom.Vec, bool) {
	p := seg.Path()
	if p == nil {
		return geom.Vec{}, false
	}
	return p.PointAt(o.factor * p.Length()), true
}

// drop projects pos onto the path, stores the new factor and returns the
// projected point.
func (o *onSegment) drop(pos geom.Vec) geom.Vec {
	p := o.seg.Path()
	if p == nil {
		return pos
	}
	o.factor = factorOf(p.OffsetOf(pos), p.Length())
	return p.PointAt(o.factor * p.Length())
}

// minor is placed by its segment's even subdivision of bracket intervals.
type minor struct {
	seg    *Segment
	factor float64
	normal geom.Vec
}

func (*minor) Kind() Kind { return KindMinor }

func (m *minor) derive(st *Station, seg *Segment) (geom.Vec, bool) {
	pl, ok := seg.autoPlacement(st.ID)
	if !ok {
		return geom.Vec{}, false
	}
	m.factor, m.normal = pl.factor, pl.normal
	return pl.pos, true
}

func (m *minor) drop(pos geom.Vec) geom.Vec {
	if p := m.seg.Path(); p != nil {
		return p.NearestPoint(pos)
	}
	return pos
}

func factorOf(offset, length float64) float64 {
	if length <= 0 {
		return 0
	}
	f := offset / length
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
