package editor

import (
	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/metro"
)

// =============================================================================
// Station creation
// =============================================================================

// AddStation handles a click with the station tool. A click on a segment of
// the current track adds a station glued to that segment; anywhere else it
// adds a free station, aligned with its neighbours when snapping is on. The
// new station is linked from the last added station, becomes selected and
// becomes the last station.
func (s *Session) AddStation(pos geom.Vec) (*metro.Station, error) {
	t, err := s.currentTrack()
	if err != nil {
		return nil, s.done("add_station", err)
	}

	var st *metro.Station
	if seg, owner := s.m.SegmentNear(pos, metro.HitTolerance); seg != nil && owner == t && seg.Length() > 0 {
		st = t.CreateStationOnSegment(seg, seg.OffsetOf(pos)/seg.Length())
	}
	if st == nil {
		if st, err = s.addFree(t, pos); err != nil {
			return nil, err
		}
	}
	return s.link(t, st)
}

// AddFreeStation adds a free station at pos without hit-testing segments.
// It is otherwise the same as [Session.AddStation].
func (s *Session) AddFreeStation(pos geom.Vec) (*metro.Station, error) {
	t, err := s.currentTrack()
	if err != nil {
		return nil, s.done("add_station", err)
	}
	st, err := s.addFree(t, pos)
	if err != nil {
		return nil, err
	}
	return s.link(t, st)
}

func (s *Session) addFree(t *metro.Track, pos geom.Vec) (*metro.Station, error) {
	st := t.CreateStationFree(pos, nil)
	if st == nil {
		err := errors.New(errors.ErrCodeInvalidTopology, "cannot add a station to track %s", t.ID)
		return nil, s.done("add_station", err)
	}
	st.Snap = s.snap
	st.SetPosition(s.position(st, pos))
	return st, nil
}

// AddStationOnSegment glues a new station to a segment at the given
// fraction of its length.
func (s *Session) AddStationOnSegment(segmentID string, offsetFactor float64) (*metro.Station, error) {
	seg, t := s.m.FindSegment(segmentID)
	if seg == nil {
		err := errors.New(errors.ErrCodeSegmentNotFound, "segment %s not found", segmentID)
		return nil, s.done("add_station", err)
	}
	st := t.CreateStationOnSegment(seg, offsetFactor)
	if st == nil {
		err := errors.New(errors.ErrCodeInvalidTopology, "cannot add a station to segment %s", segmentID)
		return nil, s.done("add_station", err)
	}
	s.track = t
	return s.link(t, st)
}

func (s *Session) link(t *metro.Track, st *metro.Station) (*metro.Station, error) {
	if s.alive(s.last) && s.last != st {
		t.CreateSegment(s.last, st)
	}
	s.last = st
	s.m.DeselectAll()
	st.Select()
	s.selected = st
	s.Layout()
	if err := s.done("add_station", nil); err != nil {
		return nil, err
	}
	return st, nil
}

// AddMinorStation adds a minor station to the segment nearest pos. Minor
// stations are spread evenly between the stations around them.
func (s *Session) AddMinorStation(pos geom.Vec) (*metro.Station, error) {
	seg, t := s.m.SegmentNear(pos, metro.HitTolerance)
	if seg == nil {
		err := errors.New(errors.ErrCodeSegmentNotFound, "no segment at (%g, %g)", pos.X, pos.Y)
		return nil, s.done("add_minor_station", err)
	}
	return s.addMinor(t, seg, pos)
}

// AddMinorStationOnSegment adds a minor station to the given segment near
// pos.
func (s *Session) AddMinorStationOnSegment(segmentID string, pos geom.Vec) (*metro.Station, error) {
	seg, t := s.m.FindSegment(segmentID)
	if seg == nil {
		err := errors.New(errors.ErrCodeSegmentNotFound, "segment %s not found", segmentID)
		return nil, s.done("add_minor_station", err)
	}
	return s.addMinor(t, seg, pos)
}

func (s *Session) addMinor(t *metro.Track, seg *metro.Segment, pos geom.Vec) (*metro.Station, error) {
	st := t.CreateStationMinor(pos, seg)
	if st == nil {
		err := errors.New(errors.ErrCodeInvalidTopology, "cannot add a minor station to segment %s", seg.ID)
		return nil, s.done("add_minor_station", err)
	}
	s.Layout()
	if err := s.done("add_minor_station", nil); err != nil {
		return nil, err
	}
	return st, nil
}

// =============================================================================
// Segments and connections
// =============================================================================

// CreateSegment joins two stations with a segment on the current track.
func (s *Session) CreateSegment(a, b string) (*metro.Segment, error) {
	t, err := s.currentTrack()
	if err != nil {
		return nil, s.done("create_segment", err)
	}
	sa, err := s.station(a)
	if err != nil {
		return nil, s.done("create_segment", err)
	}
	sb, err := s.station(b)
	if err != nil {
		return nil, s.done("create_segment", err)
	}
	seg := t.CreateSegment(sa, sb)
	if seg == nil {
		err := errors.New(errors.ErrCodeInvalidTopology, "cannot join %s and %s", a, b)
		return nil, s.done("create_segment", err)
	}
	s.Layout()
	if err := s.done("create_segment", nil); err != nil {
		return nil, err
	}
	return seg, nil
}

// Connect draws an interchange connection between two stations.
func (s *Session) Connect(a, b string) (*metro.Connection, error) {
	sa, err := s.station(a)
	if err != nil {
		return nil, s.done("connect", err)
	}
	sb, err := s.station(b)
	if err != nil {
		return nil, s.done("connect", err)
	}
	c := s.m.CreateConnection(sa, sb)
	if c == nil {
		err := errors.New(errors.ErrCodeInvalidTopology, "cannot connect %s and %s", a, b)
		return nil, s.done("connect", err)
	}
	if err := s.done("connect", nil); err != nil {
		return nil, err
	}
	return c, nil
}

// Disconnect removes a connection.
func (s *Session) Disconnect(id string) error {
	if !s.m.RemoveConnection(id) {
		err := errors.New(errors.ErrCodeConnectionNotFound, "connection %s not found", id)
		return s.done("disconnect", err)
	}
	return s.done("disconnect", nil)
}

// =============================================================================
// Station editing
// =============================================================================

// DragStation moves a station during a drag. The position is aligned with
// the station's neighbours when snapping applies, the map is laid out
// quietly, and no history entry is written until [Session.EndDrag]. It
// returns the position actually applied.
func (s *Session) DragStation(id string, pos geom.Vec) (geom.Vec, error) {
	st, err := s.station(id)
	if err != nil {
		return geom.Vec{}, err
	}
	if st.Kind() == metro.KindMinor {
		return st.Position(), errors.New(errors.ErrCodeInvalidTopology, "minor station %s cannot be moved", id)
	}
	pos = s.position(st, pos)
	s.m.MoveStation(id, pos)
	s.m.Layout(metro.Quiet())
	s.dragging = true
	return st.Position(), nil
}

// EndDrag finishes a drag with a full layout and a history entry. It
// reports whether a drag was in progress.
func (s *Session) EndDrag() (bool, error) {
	if !s.dragging {
		return false, nil
	}
	s.dragging = false
	s.Layout()
	return true, s.done("move_station", nil)
}

// Dragging reports whether a drag is in progress.
func (s *Session) Dragging() bool { return s.dragging }

// MoveStation is a complete drag to pos.
func (s *Session) MoveStation(id string, pos geom.Vec) (geom.Vec, error) {
	got, err := s.DragStation(id, pos)
	if err != nil {
		return got, s.done("move_station", err)
	}
	if _, err := s.EndDrag(); err != nil {
		return geom.Vec{}, err
	}
	return got, nil
}

// RenameStation sets a station's display name.
func (s *Session) RenameStation(id, name string) error {
	st, err := s.station(id)
	if err != nil {
		return s.done("rename_station", err)
	}
	if st.Name == name {
		return nil
	}
	st.Name = name
	return s.done("rename_station", nil)
}

// SetLabelOffset overrides where a station's label is drawn, relative to
// the station.
func (s *Session) SetLabelOffset(id string, offset geom.Vec) error {
	st, err := s.station(id)
	if err != nil {
		return s.done("set_label_offset", err)
	}
	st.SetLabelOffset(offset)
	return s.done("set_label_offset", nil)
}

// StationUpdate lists the changes [Session.UpdateStation] applies. Nil
// fields are left alone.
type StationUpdate struct {
	Position    *geom.Vec
	Name        *string
	LabelOffset *geom.Vec
}

// UpdateStation applies several station changes as one action with a single
// history entry. Nothing is applied when any change is rejected.
func (s *Session) UpdateStation(id string, u StationUpdate) (*metro.Station, error) {
	st, err := s.station(id)
	if err != nil {
		return nil, s.done("update_station", err)
	}
	if u.Position != nil && st.Kind() == metro.KindMinor {
		err := errors.New(errors.ErrCodeInvalidTopology, "minor station %s cannot be moved", id)
		return nil, s.done("update_station", err)
	}

	changed := false
	if u.Position != nil {
		s.m.MoveStation(id, s.position(st, *u.Position))
		s.Layout()
		changed = true
	}
	if u.Name != nil && *u.Name != st.Name {
		st.Name = *u.Name
		changed = true
	}
	if u.LabelOffset != nil {
		st.SetLabelOffset(*u.LabelOffset)
		changed = true
	}
	if !changed {
		return st, nil
	}
	if err := s.done("update_station", nil); err != nil {
		return nil, err
	}
	return s.m.FindStation(id), nil
}

// RemoveStation deletes a station together with the segments ending at it
// and everything placed on them.
func (s *Session) RemoveStation(id string) error {
	if !s.m.RemoveStation(id) {
		err := errors.New(errors.ErrCodeStationNotFound, "station %s not found", id)
		return s.done("remove_station", err)
	}
	if !s.alive(s.selected) {
		s.selected = nil
	}
	if !s.alive(s.last) {
		s.last = nil
	}
	s.Layout()
	return s.done("remove_station", nil)
}

// =============================================================================
// Selection
// =============================================================================

// SelectAt handles a click with the select tool: a station under pos is
// toggled and becomes the selected station, a click on empty space clears
// the selection.
func (s *Session) SelectAt(pos geom.Vec) *metro.Station {
	st := s.m.StationNear(pos, metro.HitTolerance)
	if st == nil {
		s.DeselectAll()
		return nil
	}
	s.selected = st
	st.ToggleSelect()
	return st
}

// SelectStation selects a station by id and makes it the station the next
// free station links from.
func (s *Session) SelectStation(id string) error {
	st, err := s.station(id)
	if err != nil {
		return err
	}
	s.m.DeselectAll()
	st.Select()
	s.selected = st
	if st.IsMajor() {
		s.last = st
	}
	return nil
}

// DeselectAll clears the selection.
func (s *Session) DeselectAll() {
	s.m.DeselectAll()
	s.selected = nil
}
