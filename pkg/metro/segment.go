package metro

import (
	"math"
	"slices"

	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/path"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

// Segment is the routed connection between two endpoint stations of a track.
type Segment struct {
	ID    string
	Style styles.Segment

	a, b     string
	user     []string // a, b, then on-segment stations in insertion order
	auto     []string // minor stations in creation order
	selected bool
	path     *path.Path

	arena     *arena
	observers observers[*Segment]
}

// A returns the id of the first endpoint.
func (s *Segment) A() string { return s.a }

// B returns the id of the second endpoint.
func (s *Segment) B() string { return s.b }

// StationA returns the first endpoint.
func (s *Segment) StationA() *Station { return s.arena.get(s.a) }

// StationB returns the second endpoint.
func (s *Segment) StationB() *Station { return s.arena.get(s.b) }

// Path returns the path computed by the last layout, or nil if the segment
// was never routed. The path is derived state and is rebuilt every layout.
func (s *Segment) Path() *path.Path { return s.path }

// Length returns the arc length of the current path.
func (s *Segment) Length() float64 {
	if s.path == nil {
		return 0
	}
	return s.path.Length()
}

// OffsetOf returns the arc-length offset of the path point nearest to pos.
func (s *Segment) OffsetOf(pos geom.Vec) float64 {
	if s.path == nil {
		return 0
	}
	return s.path.OffsetOf(pos)
}

// UserStationIDs returns the user-placed station ids: both endpoints
// followed by on-segment stations.
func (s *Segment) UserStationIDs() []string { return slices.Clone(s.user) }

// AutoStationIDs returns the minor station ids in creation order.
func (s *Segment) AutoStationIDs() []string { return slices.Clone(s.auto) }

// UserStations resolves [Segment.UserStationIDs].
func (s *Segment) UserStations() []*Station { return s.arena.resolve(s.user) }

// AutoStations resolves [Segment.AutoStationIDs].
func (s *Segment) AutoStations() []*Station { return s.arena.resolve(s.auto) }

// InteriorStations returns every station bound to the segment that is not
// an endpoint: on-segment stations first, then minor stations.
func (s *Segment) InteriorStations() []*Station {
	return s.arena.resolve(s.interior())
}

func (s *Segment) interior() []string {
	ids := make([]string, 0, len(s.user)+len(s.auto))
	for _, id := range s.user {
		if id != s.a && id != s.b {
			ids = append(ids, id)
		}
	}
	return append(ids, s.auto...)
}

// Contains reports whether the station is an endpoint or interior station.
func (s *Segment) Contains(id string) bool {
	return slices.Contains(s.user, id) || slices.Contains(s.auto, id)
}

// IsEndpoint reports whether the station is A or B.
func (s *Segment) IsEndpoint(id string) bool { return id == s.a || id == s.b }

// Selected reports whether the segment is selected.
func (s *Segment) Selected() bool { return s.selected }

// Select marks the segment as selected.
func (s *Segment) Select() { s.selected = true }

// Deselect clears the selection flag.
func (s *Segment) Deselect() { s.selected = false }

// ToggleSelect flips the selection flag.
func (s *Segment) ToggleSelect() { s.selected = !s.selected }

// Subscribe registers fn to be called when stations are attached to the
// segment and after each layout. The returned function unregisters it.
func (s *Segment) Subscribe(fn func(*Segment)) (unsubscribe func()) {
	return s.observers.subscribe(fn)
}

func (s *Segment) addUser(id string) {
	s.user = append(s.user, id)
	s.observers.notify(s)
}

func (s *Segment) addAuto(id string) {
	s.auto = append(s.auto, id)
	s.observers.notify(s)
}

func (s *Segment) removeStation(id string) {
	s.user = slices.DeleteFunc(s.user, func(x string) bool { return x == id })
	s.auto = slices.DeleteFunc(s.auto, func(x string) bool { return x == id })
}

// route rebuilds the path from the endpoints' current positions.
func (s *Segment) route(prevTangent geom.Vec) {
	a, b := s.StationA(), s.StationB()
	if a == nil || b == nil {
		s.path = nil
		return
	}
	s.path = Route(a.pos, b.pos, prevTangent)
}

// ensurePath routes the segment without a predecessor if it has no path yet.
func (s *Segment) ensurePath() {
	if s.path == nil {
		s.route(geom.Vec{})
	}
}

// layout re-announces free endpoints, routes the segment, then places its
// on-segment and minor stations on the new path.
func (s *Segment) layout(prevTangent geom.Vec, notify bool) {
	for _, id := range []string{s.a, s.b} {
		if st := s.arena.get(id); st != nil && st.Kind() == KindFree && notify {
			st.observers.notify(st)
		}
	}
	s.route(prevTangent)
	if s.path == nil {
		return
	}
	for _, st := range s.arena.resolve(s.user) {
		if st.Kind() == KindOnSegment && st.Segment() == s {
			st.update(s, notify)
		}
	}
	s.placeAuto(notify)
	if notify {
		s.observers.notify(s)
	}
}

// Bracket returns the user-placed stations nearest to pos strictly before
// and strictly after it along the path, with their arc-length offsets. When
// nothing lies before (after) pos, the station is nil and the offset is 0
// (the path length).
func (s *Segment) Bracket(pos geom.Vec) (prev, next *Station, prevOffset, nextOffset float64) {
	if s.path == nil {
		return nil, nil, 0, 0
	}
	marks := s.userMarks()
	lo, hi := bracket(marks, s.path.OffsetOf(pos))
	prevOffset, nextOffset = 0, s.path.Length()
	if lo >= 0 {
		prev, prevOffset = s.arena.get(marks[lo].id), marks[lo].offset
	}
	if hi >= 0 {
		next, nextOffset = s.arena.get(marks[hi].id), marks[hi].offset
	}
	return prev, next, prevOffset, nextOffset
}

type mark struct {
	id     string
	offset float64
}

// userMarks returns the arc-length offsets of the user-placed stations.
// Endpoints sit at 0 and the path length; on-segment stations at their
// stored factor.
func (s *Segment) userMarks() []mark {
	length := s.path.Length()
	marks := make([]mark, 0, len(s.user))
	for _, id := range s.user {
		st := s.arena.get(id)
		if st == nil {
			continue
		}
		var off float64
		switch {
		case id == s.a:
			off = 0
		case id == s.b:
			off = length
		default:
			if f, ok := st.OffsetFactor(); ok && st.Segment() == s {
				off = f * length
			} else {
				off = s.path.OffsetOf(st.pos)
			}
		}
		marks = append(marks, mark{id: id, offset: off})
	}
	return marks
}

// bracket returns the indices of the marks nearest to offset strictly
// before and strictly after it, or -1. Ties go to the earlier mark.
func bracket(marks []mark, offset float64) (lo, hi int) {
	lo, hi = -1, -1
	bestLo, bestHi := math.Inf(1), math.Inf(1)
	for i, m := range marks {
		if d := offset - m.offset; d > 0 && d < bestLo {
			lo, bestLo = i, d
		}
		if d := m.offset - offset; d > 0 && d < bestHi {
			hi, bestHi = i, d
		}
	}
	return lo, hi
}

type placement struct {
	pos    geom.Vec
	normal geom.Vec
	offset float64
	factor float64
}

// autoPlacements spreads the minor stations evenly over the intervals
// between their bracket stations. Siblings in one interval keep their
// creation order.
func (s *Segment) autoPlacements() map[string]placement {
	if s.path == nil || len(s.auto) == 0 {
		return nil
	}
	length := s.path.Length()
	marks := s.userMarks()

	type interval struct{ lo, hi int }
	var order []interval
	groups := make(map[interval][]string)
	for _, id := range s.auto {
		st := s.arena.get(id)
		if st == nil {
			continue
		}
		lo, hi := bracket(marks, s.path.OffsetOf(st.pos))
		key := interval{lo, hi}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], id)
	}

	out := make(map[string]placement, len(s.auto))
	for _, key := range order {
		offA, offB := 0.0, length
		if key.lo >= 0 {
			offA = marks[key.lo].offset
		}
		if key.hi >= 0 {
			offB = marks[key.hi].offset
		}
		ids := groups[key]
		n := float64(len(ids) + 1)
		for i, id := range ids {
			off := offA + float64(i+1)*(offB-offA)/n
			out[id] = placement{
				pos:    s.path.PointAt(off),
				normal: s.path.NormalAt(off),
				offset: off,
				factor: factorOf(off, length),
			}
		}
	}
	return out
}

func (s *Segment) autoPlacement(id string) (placement, bool) {
	pl, ok := s.autoPlacements()[id]
	return pl, ok
}

func (s *Segment) placeAuto(notify bool) {
	placements := s.autoPlacements()
	for _, st := range s.arena.resolve(s.auto) {
		pl, ok := placements[st.ID]
		if !ok {
			continue
		}
		if m, ok := st.strategy.(*minor); ok {
			m.factor, m.normal = pl.factor, pl.normal
		}
		st.pos = pl.pos
		if notify {
			st.observers.notify(st)
		}
	}
}
