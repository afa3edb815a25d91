package metro

import (
	"slices"

	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

// Track is a line of the map: an ordered list of segments plus the stations
// on it, partitioned into major (free and on-segment) and minor stations.
type Track struct {
	ID string

	segments []*Segment
	major    []string
	minor    []string

	segmentStyle styles.Segment
	stationStyle styles.Station
	minorStyle   styles.Minor

	arena *arena
	owner *Map
}

func newTrack(id string, m *Map) *Track {
	seg := styles.DefaultSegment()
	return &Track{
		ID:           id,
		segmentStyle: seg,
		stationStyle: m.theme.Station(),
		minorStyle:   styles.MinorFor(seg),
		arena:        m.arena,
		owner:        m,
	}
}

// SegmentStyle returns the style applied to the track's segments.
func (t *Track) SegmentStyle() styles.Segment { return t.segmentStyle }

// StationStyle returns the style applied to the track's major stations.
func (t *Track) StationStyle() styles.Station { return t.stationStyle }

// MinorStyle returns the style applied to the track's minor stations.
func (t *Track) MinorStyle() styles.Minor { return t.minorStyle }

// SetSegmentStyle restyles every segment of the track and derives the minor
// station style from it.
func (t *Track) SetSegmentStyle(s styles.Segment) {
	t.segmentStyle = s
	t.minorStyle = styles.MinorFor(s)
	for _, seg := range t.segments {
		seg.Style = s
	}
	for _, st := range t.arena.resolve(t.minor) {
		st.MinorStyle = t.minorStyle
	}
}

// SetStationStyle restyles every major station of the track.
func (t *Track) SetStationStyle(s styles.Station) {
	t.stationStyle = s
	for _, st := range t.arena.resolve(t.major) {
		st.Style = s
	}
}

// SetStationRadius changes the radius of the track's major stations.
func (t *Track) SetStationRadius(r float64) {
	t.SetStationStyle(t.stationStyle.WithRadius(r))
}

// SetStationStrokeWidth changes the stroke width of the track's major stations.
func (t *Track) SetStationStrokeWidth(w float64) {
	t.SetStationStyle(t.stationStyle.WithStrokeWidth(w))
}

// Segments returns the track's segments in creation order.
func (t *Track) Segments() []*Segment { return slices.Clone(t.segments) }

// Stations returns all stations of the track: major stations first.
func (t *Track) Stations() []*Station {
	return append(t.arena.resolve(t.major), t.arena.resolve(t.minor)...)
}

// MajorStations returns the free and on-segment stations in creation order.
func (t *Track) MajorStations() []*Station { return t.arena.resolve(t.major) }

// MinorStations returns the minor stations in creation order.
func (t *Track) MinorStations() []*Station { return t.arena.resolve(t.minor) }

// LastAddedStation returns the most recently added major station, or nil.
func (t *Track) LastAddedStation() *Station {
	for i := len(t.major) - 1; i >= 0; i-- {
		if st := t.arena.get(t.major[i]); st != nil {
			return st
		}
	}
	return nil
}

// HasStation reports whether the track lists the station.
func (t *Track) HasStation(id string) bool {
	return slices.Contains(t.major, id) || slices.Contains(t.minor, id)
}

// CreateStationFree creates a free station at pos. When previous is not nil
// a segment from previous to the new station is created as well.
func (t *Track) CreateStationFree(pos geom.Vec, previous *Station, opts ...Option) *Station {
	o := applyOptions(opts)
	st := newStation(idOr(o.id, t.newStationID), pos, free{})
	st.Name = nameOr(o.name, DefaultStationName)
	st.Snap = true
	st.Style = t.stationStyle
	if !t.arena.add(st) {
		return nil
	}
	if previous != nil {
		if seg := t.CreateSegment(previous, st); seg != nil {
			seg.ensurePath()
		}
	}
	t.addMajor(st.ID)
	return st
}

// CreateStationOnSegment creates a station glued to seg at the given
// fraction of its arc length (clamped to [0,1]). It returns nil when seg
// does not belong to the track.
func (t *Track) CreateStationOnSegment(seg *Segment, offsetFactor float64, opts ...Option) *Station {
	if !t.owns(seg) {
		return nil
	}
	seg.ensurePath()
	o := applyOptions(opts)
	f := factorOf(offsetFactor, 1)
	st := newStation(idOr(o.id, t.newStationID), seg.path.PointAt(f*seg.path.Length()), &onSegment{seg: seg, factor: f})
	st.Name = nameOr(o.name, DefaultStationName)
	st.Style = t.stationStyle
	if !t.arena.add(st) {
		return nil
	}
	t.addMajor(st.ID)
	seg.addUser(st.ID)
	return st
}

// CreateStationMinor creates a minor station on seg near pos and places it
// between its bracket stations. It returns nil when seg does not belong to
// the track.
func (t *Track) CreateStationMinor(pos geom.Vec, seg *Segment, opts ...Option) *Station {
	if !t.owns(seg) {
		return nil
	}
	seg.ensurePath()
	o := applyOptions(opts)
	st := newStation(idOr(o.id, t.newStationID), seg.path.NearestPoint(pos), &minor{seg: seg})
	st.Name = nameOr(o.name, DefaultMinorName)
	st.MinorStyle = t.minorStyle
	if !t.arena.add(st) {
		return nil
	}
	t.minor = append(t.minor, st.ID)
	seg.addAuto(st.ID)
	st.update(seg, true)
	return st
}

// CreateStationMinorOnSegmentID is [Track.CreateStationMinor] by segment id.
func (t *Track) CreateStationMinorOnSegmentID(pos geom.Vec, segmentID string, opts ...Option) *Station {
	seg := t.FindSegment(segmentID)
	if seg == nil {
		return nil
	}
	return t.CreateStationMinor(pos, seg, opts...)
}

// CreateSegment joins a and b with a new segment. It returns nil for
// missing stations, for a == b and for minor endpoints. Endpoints from other
// tracks are adopted into this track's station list.
func (t *Track) CreateSegment(a, b *Station, opts ...Option) *Segment {
	if a == nil || b == nil || a.ID == b.ID {
		return nil
	}
	if a.Kind() == KindMinor || b.Kind() == KindMinor {
		return nil
	}
	if t.arena.get(a.ID) != a || t.arena.get(b.ID) != b {
		return nil
	}
	o := applyOptions(opts)
	id := idOr(o.id, newID)
	if seg, _ := t.owner.FindSegment(id); seg != nil {
		return nil
	}
	seg := &Segment{
		ID:    id,
		Style: t.segmentStyle,
		a:     a.ID,
		b:     b.ID,
		user:  []string{a.ID, b.ID},
		arena: t.arena,
	}
	for _, id := range []string{a.ID, b.ID} {
		if !t.HasStation(id) && t.arena.get(id) != nil {
			t.addMajor(id)
		}
	}
	t.segments = append(t.segments, seg)
	return seg
}

// FindSegment returns the segment with the given id, or nil.
func (t *Track) FindSegment(id string) *Segment {
	for _, s := range t.segments {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// FindStation returns the track's station with the given id, or nil.
func (t *Track) FindStation(id string) *Station {
	if !t.HasStation(id) {
		return nil
	}
	return t.arena.get(id)
}

// SegmentToStation returns the first segment ending (B) at st, or nil.
func (t *Track) SegmentToStation(st *Station) *Segment {
	if st == nil {
		return nil
	}
	return t.segmentEndingAt(st.ID)
}

func (t *Track) segmentEndingAt(id string) *Segment {
	for _, s := range t.segments {
		if s.b == id {
			return s
		}
	}
	return nil
}

// SegmentFromStation returns the first segment starting (A) at st, or nil.
func (t *Track) SegmentFromStation(st *Station) *Segment {
	if st == nil {
		return nil
	}
	for _, s := range t.segments {
		if s.a == st.ID {
			return s
		}
	}
	return nil
}

// ConnectedStations returns the stations that share a segment with st as
// the opposite endpoint.
func (t *Track) ConnectedStations(st *Station) []*Station {
	if st == nil {
		return nil
	}
	var ids []string
	for _, s := range t.segments {
		switch st.ID {
		case s.a:
			ids = append(ids, s.b)
		case s.b:
			ids = append(ids, s.a)
		}
	}
	return t.arena.resolve(ids)
}

// FindSegmentForStation returns the first segment containing st.
func (t *Track) FindSegmentForStation(st *Station) *Segment {
	if segs := t.FindSegmentsForStation(st); len(segs) > 0 {
		return segs[0]
	}
	return nil
}

// FindSegmentsForStation returns every segment containing st as endpoint or
// interior station.
func (t *Track) FindSegmentsForStation(st *Station) []*Segment {
	if st == nil {
		return nil
	}
	var out []*Segment
	for _, s := range t.segments {
		if s.Contains(st.ID) {
			out = append(out, s)
		}
	}
	return out
}

// DeselectAll clears the selection of every station and segment.
func (t *Track) DeselectAll() {
	for _, st := range t.Stations() {
		st.Deselect()
	}
	for _, s := range t.segments {
		s.Deselect()
	}
}

// SortSegments reorders the segments to follow ids. Segments missing from
// ids keep their relative order at the end.
func (t *Track) SortSegments(ids []string) {
	rank := make(map[string]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}
	pos := func(s *Segment) int {
		if r, ok := rank[s.ID]; ok {
			return r
		}
		return len(ids)
	}
	slices.SortStableFunc(t.segments, func(a, b *Segment) int { return pos(a) - pos(b) })
}

func (t *Track) owns(seg *Segment) bool {
	return seg != nil && slices.Contains(t.segments, seg)
}

func (t *Track) addMajor(id string) {
	if !slices.Contains(t.major, id) {
		t.major = append(t.major, id)
	}
}

// removeStation drops id from the station lists and from the interior lists
// of every segment.
func (t *Track) removeStation(id string) {
	t.major = slices.DeleteFunc(t.major, func(x string) bool { return x == id })
	t.minor = slices.DeleteFunc(t.minor, func(x string) bool { return x == id })
	for _, s := range t.segments {
		s.removeStation(id)
	}
}

func (t *Track) newStationID() string {
	return t.arena.freshID(stationIDs)
}

func idOr(id string, gen func() string) string {
	if id != "" {
		return id
	}
	return gen()
}

func nameOr(name, def string) string {
	if name != "" {
		return name
	}
	return def
}
