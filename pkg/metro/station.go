package metro

import (
	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

// Default station names.
const (
	DefaultStationName = "station"
	DefaultMinorName   = "minor station"
)

// Station is a point on the map. How its position is derived is decided at
// creation by its [PositionStrategy] and never changes afterwards.
type Station struct {
	ID   string
	Name string

	// Snap reports whether drags of this station go through the snap
	// manager. Only free stations snap by default.
	Snap bool

	// Style is used by major stations, MinorStyle by minor ones.
	Style      styles.Station
	MinorStyle styles.Minor

	pos         geom.Vec
	selected    bool
	labelOffset *geom.Vec
	strategy    PositionStrategy
	observers   observers[*Station]
}

func newStation(id string, pos geom.Vec, strategy PositionStrategy) *Station {
	return &Station{ID: id, pos: pos, strategy: strategy}
}

// Position returns the current position.
func (s *Station) Position() geom.Vec { return s.pos }

// Kind returns how the station derives its position.
func (s *Station) Kind() Kind { return s.strategy.Kind() }

// Strategy returns the station's position strategy.
func (s *Station) Strategy() PositionStrategy { return s.strategy }

// IsMajor reports whether the station is a free or on-segment station.
func (s *Station) IsMajor() bool { return s.Kind() != KindMinor }

// OffsetFactor returns the fraction of the owning segment's arc length at
// which the station sits. Free stations have no factor.
func (s *Station) OffsetFactor() (float64, bool) {
	switch st := s.strategy.(type) {
	case *onSegment:
		return st.factor, true
	case *minor:
		return st.factor, true
	}
	return 0, false
}

// Normal returns the unit normal of the owning path at a minor station,
// used to orient its tick mark. It is zero for major stations.
func (s *Station) Normal() geom.Vec {
	if m, ok := s.strategy.(*minor); ok {
		return m.normal
	}
	return geom.Vec{}
}

// Segment returns the segment an on-segment or minor station is bound to.
func (s *Station) Segment() *Segment {
	switch st := s.strategy.(type) {
	case *onSegment:
		return st.seg
	case *minor:
		return st.seg
	}
	return nil
}

// SetPosition moves the station. Free stations take pos verbatim; stations
// bound to a segment are projected onto its path. The label offset override
// is cleared and observers are notified.
func (s *Station) SetPosition(pos geom.Vec) {
	s.pos = s.strategy.drop(pos)
	s.labelOffset = nil
	s.observers.notify(s)
}

// UpdateFromSegment re-derives the position of a bound station from seg
// (nil means the station's own segment). Free stations keep their position
// and only re-announce it.
func (s *Station) UpdateFromSegment(seg *Segment) {
	s.update(seg, true)
}

func (s *Station) update(seg *Segment, notify bool) {
	if seg == nil {
		seg = s.Segment()
	}
	if seg != nil {
		if pos, ok := s.strategy.derive(s, seg); ok {
			s.pos = pos
		}
	}
	if notify {
		s.observers.notify(s)
	}
}

// Subscribe registers fn to be called after every position change. The
// returned function unregisters it.
func (s *Station) Subscribe(fn func(*Station)) (unsubscribe func()) {
	return s.observers.subscribe(fn)
}

// Selected reports whether the station is selected.
func (s *Station) Selected() bool { return s.selected }

// Select marks the station as selected.
func (s *Station) Select() { s.selected = true }

// Deselect clears the selection flag.
func (s *Station) Deselect() { s.selected = false }

// ToggleSelect flips the selection flag.
func (s *Station) ToggleSelect() { s.selected = !s.selected }

// LabelOffset returns the user-chosen label position relative to the
// station, if any.
func (s *Station) LabelOffset() (geom.Vec, bool) {
	if s.labelOffset == nil {
		return geom.Vec{}, false
	}
	return *s.labelOffset, true
}

// SetLabelOffset overrides where the station's label is drawn, relative to
// the station position.
func (s *Station) SetLabelOffset(off geom.Vec) {
	s.labelOffset = &off
}

// ClearLabelOffset removes the label override.
func (s *Station) ClearLabelOffset() {
	s.labelOffset = nil
}
