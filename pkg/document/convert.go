package document

import (
	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

// FromMap captures the current state of m. The map should be laid out
// first; FromMap records positions as they are.
func FromMap(m *metro.Map) Document {
	d := Document{
		Tracks:      make([]Track, 0, len(m.Tracks())),
		Connections: make([]Connection, 0, len(m.Connections())),
	}

	joined := make(map[string]bool)
	for _, seg := range m.Segments() {
		for _, id := range seg.UserStationIDs() {
			joined[id] = true
		}
		for _, id := range seg.AutoStationIDs() {
			joined[id] = true
		}
	}
	listed := make(map[string]bool)

	for _, t := range m.Tracks() {
		td := Track{
			ID:           t.ID,
			SegmentStyle: t.SegmentStyle(),
			StationStyle: t.StationStyle(),
			Segments:     make([]Segment, 0, len(t.Segments())),
		}
		for _, seg := range t.Segments() {
			td.Segments = append(td.Segments, fromSegment(seg))
		}
		for _, st := range t.MajorStations() {
			if !joined[st.ID] && !listed[st.ID] {
				listed[st.ID] = true
				td.Stations = append(td.Stations, fromStation(st))
			}
		}
		d.Tracks = append(d.Tracks, td)
	}

	for _, c := range m.Connections() {
		d.Connections = append(d.Connections, Connection{ID: c.ID, StationA: c.A(), StationB: c.B()})
	}
	return d
}

func fromSegment(seg *metro.Segment) Segment {
	sd := Segment{
		ID:           seg.ID,
		StationA:     fromStation(seg.StationA()),
		StationB:     fromStation(seg.StationB()),
		StationsUser: []Station{},
		StationsAuto: []Station{},
	}
	for _, st := range seg.UserStations() {
		sd.StationsUser = append(sd.StationsUser, fromStation(st))
	}
	for _, st := range seg.AutoStations() {
		sd.StationsAuto = append(sd.StationsAuto, fromStation(st))
	}
	return sd
}

func fromStation(st *metro.Station) Station {
	out := Station{ID: st.ID, Name: st.Name, Position: st.Position()}
	if f, ok := st.OffsetFactor(); ok {
		out.OffsetFactor = &f
	}
	if off, ok := st.LabelOffset(); ok {
		out.LabelOffset = &off
	}
	return out
}

// ToMap rebuilds a map from d and lays it out.
//
// Stations are reconstructed by id. Endpoints that do not exist yet are
// synthesized as free stations from their embedded position; an endpoint
// glued onto another segment is created after that segment. On-segment
// stations are restored from their offset factor, minor stations by
// projecting their stored position onto the laid-out path.
func ToMap(d Document) (*metro.Map, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	m := metro.New()
	tracks := make([]*metro.Track, len(d.Tracks))
	for i, td := range d.Tracks {
		t := m.CreateTrack(metro.WithID(td.ID))
		if t == nil {
			return nil, invalid("duplicate track id %q", td.ID)
		}
		if err := applyStyles(t, td); err != nil {
			return nil, err
		}
		for _, sd := range td.Stations {
			if m.FindStation(sd.ID) != nil {
				continue
			}
			st := t.CreateStationFree(sd.Position, nil, metro.WithID(sd.ID), metro.WithName(sd.Name))
			if st == nil {
				return nil, invalid("cannot create station %q", sd.ID)
			}
			restoreLabel(st, sd)
		}
		tracks[i] = t
	}

	// Stations glued onto a segment (not endpoints) and their owner.
	interior := make(map[string]string)
	for _, td := range d.Tracks {
		for _, sd := range td.Segments {
			for _, st := range sd.StationsUser {
				if st.ID != sd.StationA.ID && st.ID != sd.StationB.ID {
					interior[st.ID] = sd.ID
				}
			}
		}
	}

	type ref struct{ track, seg int }
	var pending []ref
	for i, td := range d.Tracks {
		for j := range td.Segments {
			pending = append(pending, ref{i, j})
		}
	}
	created := make(map[string]*metro.Segment)
	for len(pending) > 0 {
		var next []ref
		for _, r := range pending {
			sd := d.Tracks[r.track].Segments[r.seg]
			if !endpointsReady(sd, interior, created) {
				next = append(next, r)
				continue
			}
			seg, err := buildSegment(m, tracks[r.track], sd)
			if err != nil {
				return nil, err
			}
			created[sd.ID] = seg
		}
		if len(next) == len(pending) {
			return nil, invalid("segment %q has endpoints that depend on each other", d.Tracks[next[0].track].Segments[next[0].seg].ID)
		}
		pending = next
	}

	for i, td := range d.Tracks {
		ids := make([]string, len(td.Segments))
		for j, sd := range td.Segments {
			ids[j] = sd.ID
		}
		tracks[i].SortSegments(ids)
	}

	// Minor stations are projected onto the final paths.
	m.Layout(metro.Quiet())
	for i, td := range d.Tracks {
		for _, sd := range td.Segments {
			seg := created[sd.ID]
			for _, ad := range sd.StationsAuto {
				st := tracks[i].CreateStationMinor(ad.Position, seg, metro.WithID(ad.ID), metro.WithName(ad.Name))
				if st == nil {
					return nil, invalid("cannot create minor station %q", ad.ID)
				}
				restoreLabel(st, ad)
			}
		}
	}

	for _, cd := range d.Connections {
		a, b := m.FindStation(cd.StationA), m.FindStation(cd.StationB)
		if a == nil || b == nil {
			return nil, invalid("connection %q references unknown station", cd.ID)
		}
		if m.CreateConnection(a, b, metro.WithID(cd.ID)) == nil {
			return nil, invalid("invalid connection %q", cd.ID)
		}
	}

	m.Layout(metro.Quiet())
	return m, nil
}

func endpointsReady(sd Segment, interior map[string]string, created map[string]*metro.Segment) bool {
	for _, id := range []string{sd.StationA.ID, sd.StationB.ID} {
		if owner, ok := interior[id]; ok && created[owner] == nil {
			return false
		}
	}
	return true
}

func buildSegment(m *metro.Map, t *metro.Track, sd Segment) (*metro.Segment, error) {
	ends := make([]*metro.Station, 2)
	for i, ed := range []Station{sd.StationA, sd.StationB} {
		st := m.FindStation(ed.ID)
		if st == nil {
			st = t.CreateStationFree(ed.Position, nil, metro.WithID(ed.ID), metro.WithName(ed.Name))
			if st == nil {
				return nil, invalid("cannot create station %q", ed.ID)
			}
			restoreLabel(st, ed)
		}
		ends[i] = st
	}

	seg := t.CreateSegment(ends[0], ends[1], metro.WithID(sd.ID))
	if seg == nil {
		return nil, invalid("invalid segment %q", sd.ID)
	}

	for _, ud := range sd.StationsUser {
		if ud.ID == sd.StationA.ID || ud.ID == sd.StationB.ID {
			continue
		}
		var f float64
		if ud.OffsetFactor != nil {
			f = *ud.OffsetFactor
		}
		st := t.CreateStationOnSegment(seg, f, metro.WithID(ud.ID), metro.WithName(ud.Name))
		if st == nil {
			return nil, invalid("cannot create station %q", ud.ID)
		}
		restoreLabel(st, ud)
	}
	return seg, nil
}

func applyStyles(t *metro.Track, td Track) error {
	if td.SegmentStyle != (styles.Segment{}) {
		if err := td.SegmentStyle.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "track %q", td.ID)
		}
		t.SetSegmentStyle(td.SegmentStyle)
	}
	if td.StationStyle != (styles.Station{}) {
		if err := td.StationStyle.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "track %q", td.ID)
		}
		t.SetStationStyle(td.StationStyle)
	}
	return nil
}

func restoreLabel(st *metro.Station, sd Station) {
	if sd.LabelOffset != nil {
		st.SetLabelOffset(*sd.LabelOffset)
	}
}

// validate checks ids before anything is built.
func validate(d Document) error {
	segIDs := make(map[string]bool)
	placed := make(map[string]string) // interior station id -> segment id
	for _, td := range d.Tracks {
		if td.ID == "" {
			return invalid("track without id")
		}
		for _, sd := range td.Segments {
			if sd.ID == "" {
				return invalid("segment without id in track %q", td.ID)
			}
			if segIDs[sd.ID] {
				return invalid("duplicate segment id %q", sd.ID)
			}
			segIDs[sd.ID] = true
			if sd.StationA.ID == "" || sd.StationB.ID == "" {
				return invalid("segment %q has an endpoint without id", sd.ID)
			}
			if sd.StationA.ID == sd.StationB.ID {
				return invalid("segment %q starts and ends at station %q", sd.ID, sd.StationA.ID)
			}
			interior := append([]Station(nil), sd.StationsAuto...)
			for _, st := range sd.StationsUser {
				if st.ID != sd.StationA.ID && st.ID != sd.StationB.ID {
					interior = append(interior, st)
				}
			}
			for _, st := range interior {
				if st.ID == "" {
					return invalid("station without id on segment %q", sd.ID)
				}
				if other, ok := placed[st.ID]; ok {
					return invalid("station %q placed on segments %q and %q", st.ID, other, sd.ID)
				}
				placed[st.ID] = sd.ID
			}
		}
		for _, st := range td.Stations {
			if st.ID == "" {
				return invalid("station without id in track %q", td.ID)
			}
		}
	}
	for _, cd := range d.Connections {
		if cd.StationA == "" || cd.StationB == "" {
			return invalid("connection %q without station", cd.ID)
		}
		if cd.StationA == cd.StationB {
			return invalid("connection %q links station %q to itself", cd.ID, cd.StationA)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidSnapshot, format, args...)
}
