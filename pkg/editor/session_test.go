package editor

import (
	"bytes"
	"math"
	"sync"
	"testing"

	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/observability"
)

func mustAdd(t *testing.T, s *Session, pos geom.Vec) *metro.Station {
	t.Helper()
	st, err := s.AddStation(pos)
	if err != nil {
		t.Fatalf("AddStation(%v): %v", pos, err)
	}
	return st
}

func TestNewSession(t *testing.T) {
	s := New()
	if s.CurrentTrack() == nil {
		t.Fatal("new session has no current track")
	}
	if got := len(s.Map().Tracks()); got != 1 {
		t.Errorf("len(Tracks()) = %d, want 1", got)
	}
	if s.History().Len() != 1 || s.History().HasUndo() {
		t.Error("new session should start with exactly one snapshot")
	}
	if !s.SnapEnabled() {
		t.Error("snap should default to on")
	}
}

func TestHistoryCapacity(t *testing.T) {
	opts := []Option{WithSnap(false), WithHistoryCapacity(3)}
	a, b := New(opts...), New(opts...)
	if a.History() == b.History() {
		t.Fatal("sessions built from the same options share a history")
	}
	for i := range 5 {
		mustAdd(t, a, geom.V(float64(100*i), 0))
	}
	if got := a.History().Len(); got != 3 {
		t.Errorf("History().Len() = %d, want capacity 3", got)
	}
	if got := b.History().Len(); got != 1 {
		t.Errorf("other session History().Len() = %d, want 1", got)
	}
}

func TestAddStationLinksFromLast(t *testing.T) {
	s := New(WithSnap(false))
	a := mustAdd(t, s, geom.V(0, 0))
	b := mustAdd(t, s, geom.V(200, 10))

	segs := s.CurrentTrack().Segments()
	if len(segs) != 1 || segs[0].A() != a.ID || segs[0].B() != b.ID {
		t.Fatalf("segments = %v, want one segment a->b", segs)
	}
	if s.Selected() != b || !b.Selected() || a.Selected() {
		t.Error("the new station should be the only selected one")
	}
	if s.LastStation() != b {
		t.Error("LastStation() should be the new station")
	}
	if b.Position() != geom.V(200, 10) {
		t.Errorf("unsnapped position = %v", b.Position())
	}
	if got := s.History().Len(); got != 3 {
		t.Errorf("History().Len() = %d, want 3", got)
	}
}

func TestAddStationSnaps(t *testing.T) {
	s := New()
	mustAdd(t, s, geom.V(0, 0))
	b := mustAdd(t, s, geom.V(200, 10))
	if want := geom.V(200, 0); b.Position() != want {
		t.Errorf("Position() = %v, want %v", b.Position(), want)
	}

	s.SetSnap(false)
	c := mustAdd(t, s, geom.V(400, 10))
	if want := geom.V(400, 10); c.Position() != want {
		t.Errorf("Position() with snap off = %v, want %v", c.Position(), want)
	}
	if s.ToggleSnap() != true {
		t.Error("ToggleSnap() should turn snapping back on")
	}
}

func TestAddStationOnSegmentClick(t *testing.T) {
	s := New(WithSnap(false))
	mustAdd(t, s, geom.V(0, 0))
	mustAdd(t, s, geom.V(200, 0))
	s.BreakLine()

	st := mustAdd(t, s, geom.V(100, 3))
	if st.Kind() != metro.KindOnSegment {
		t.Fatalf("Kind() = %v, want on-segment", st.Kind())
	}
	if !st.Position().ApproxEqual(geom.V(100, 0), 1e-9) {
		t.Errorf("Position() = %v, want (100,0)", st.Position())
	}
	if f, _ := st.OffsetFactor(); f < 0.5-1e-9 || f > 0.5+1e-9 {
		t.Errorf("OffsetFactor() = %v, want 0.5", f)
	}
	if st.Snap {
		t.Error("on-segment stations must not snap")
	}
	if got := len(s.CurrentTrack().Segments()); got != 1 {
		t.Errorf("len(Segments()) = %d, want 1", got)
	}
}

func TestAddStationOnSegmentByID(t *testing.T) {
	s := New(WithSnap(false))
	mustAdd(t, s, geom.V(0, 0))
	mustAdd(t, s, geom.V(200, 0))
	seg := s.CurrentTrack().Segments()[0]
	s.BreakLine()

	st, err := s.AddStationOnSegment(seg.ID, 0.25)
	if err != nil {
		t.Fatalf("AddStationOnSegment: %v", err)
	}
	if !st.Position().ApproxEqual(geom.V(50, 0), 1e-9) {
		t.Errorf("Position() = %v, want (50,0)", st.Position())
	}
	if _, err := s.AddStationOnSegment("nope", 0.5); !errors.Is(err, errors.ErrCodeSegmentNotFound) {
		t.Errorf("unknown segment: err = %v", err)
	}
}

func TestAddMinorStation(t *testing.T) {
	s := New(WithSnap(false))
	mustAdd(t, s, geom.V(0, 0))
	mustAdd(t, s, geom.V(90, 0))

	m1, err := s.AddMinorStation(geom.V(10, 3))
	if err != nil {
		t.Fatalf("AddMinorStation: %v", err)
	}
	if m1.Kind() != metro.KindMinor || m1.Name != metro.DefaultMinorName {
		t.Errorf("minor station = %v %q", m1.Kind(), m1.Name)
	}
	if !m1.Position().ApproxEqual(geom.V(45, 0), 1e-9) {
		t.Errorf("single minor at %v, want (45,0)", m1.Position())
	}

	if _, err := s.AddMinorStation(geom.V(500, 500)); !errors.Is(err, errors.ErrCodeSegmentNotFound) {
		t.Errorf("miss: err = %v, want SEGMENT_NOT_FOUND", err)
	}
}

func TestDragAndEndDrag(t *testing.T) {
	s := New()
	mustAdd(t, s, geom.V(0, 0))
	b := mustAdd(t, s, geom.V(200, 0))
	before := s.History().Len()

	got, err := s.DragStation(b.ID, geom.V(300, 20))
	if err != nil {
		t.Fatalf("DragStation: %v", err)
	}
	if want := geom.V(300, 0); got != want || b.Position() != want {
		t.Errorf("dragged to %v, want %v", got, want)
	}
	if !s.Dragging() || s.History().Len() != before {
		t.Error("a drag in progress must not write history")
	}
	if ok, err := s.EndDrag(); !ok || err != nil {
		t.Errorf("EndDrag() = %v, %v during a drag", ok, err)
	}
	if s.History().Len() != before+1 {
		t.Errorf("History().Len() = %d, want %d", s.History().Len(), before+1)
	}
	if ok, _ := s.EndDrag(); ok {
		t.Error("EndDrag() = true without a drag")
	}

	seg := s.CurrentTrack().Segments()[0]
	if end := seg.Path().End(); end != geom.V(300, 0) {
		t.Errorf("path end = %v after drag", end)
	}
}

func TestMinorStationCannotBeDragged(t *testing.T) {
	s := New(WithSnap(false))
	mustAdd(t, s, geom.V(0, 0))
	mustAdd(t, s, geom.V(90, 0))
	m1, _ := s.AddMinorStation(geom.V(30, 0))

	if _, err := s.MoveStation(m1.ID, geom.V(10, 50)); !errors.Is(err, errors.ErrCodeInvalidTopology) {
		t.Errorf("err = %v, want INVALID_TOPOLOGY", err)
	}
	if _, err := s.DragStation("missing", geom.V(0, 0)); !errors.Is(err, errors.ErrCodeStationNotFound) {
		t.Errorf("err = %v, want STATION_NOT_FOUND", err)
	}
}

func TestUndoRedo(t *testing.T) {
	s := New(WithSnap(false))
	trackID := s.CurrentTrack().ID
	mustAdd(t, s, geom.V(0, 0))
	mustAdd(t, s, geom.V(200, 0))
	before, _ := s.Snapshot()

	old := s.Map()
	changed, err := s.Undo()
	if err != nil || !changed {
		t.Fatalf("Undo() = %v, %v", changed, err)
	}
	if s.Map() == old {
		t.Error("Undo should install a new map")
	}
	if got := len(s.Map().Stations()); got != 1 {
		t.Errorf("stations after undo = %d, want 1", got)
	}
	if s.CurrentTrack() == nil || s.CurrentTrack().ID != trackID {
		t.Error("current track not kept across undo")
	}
	if s.Selected() != nil || s.LastStation() != nil {
		t.Error("selection should be cleared after undo")
	}

	if changed, _ := s.Redo(); !changed {
		t.Fatal("Redo() reported no change")
	}
	after, _ := s.Snapshot()
	if !bytes.Equal(before, after) {
		t.Errorf("redo snapshot differs:\nwant %s\ngot  %s", before, after)
	}
	if changed, _ := s.Redo(); changed {
		t.Error("Redo() at the newest snapshot changed the map")
	}
}

func TestLoad(t *testing.T) {
	s := New()
	mustAdd(t, s, geom.V(0, 0))
	old := s.Map()

	if err := s.Load([]byte(`{"tracks": [`)); !errors.Is(err, errors.ErrCodeInvalidSnapshot) {
		t.Fatalf("Load(garbage) err = %v", err)
	}
	if s.Map() != old {
		t.Error("failed load replaced the map")
	}

	data := []byte(`{"tracks":[{"id":"t1","segments":[{"id":"s1",
		"stationA":{"id":"a","name":"A","position":{"x":0,"y":0}},
		"stationB":{"id":"b","name":"B","position":{"x":100,"y":0}},
		"stationsUser":[],"stationsAuto":[]}]}],"connections":[]}`)
	if err := s.Load(data); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.CurrentTrack() == nil || s.CurrentTrack().ID != "t1" {
		t.Error("current track should be the first loaded track")
	}
	if s.History().Len() != 1 || s.History().HasUndo() {
		t.Error("Load should restart the history")
	}

	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"name": "B"`)) {
		t.Errorf("saved document misses station B:\n%s", buf.String())
	}
}

func TestReset(t *testing.T) {
	s := New()
	mustAdd(t, s, geom.V(0, 0))
	mustAdd(t, s, geom.V(100, 0))
	s.Reset()
	if len(s.Map().Stations()) != 0 || len(s.Map().Tracks()) != 1 {
		t.Error("Reset should leave an empty map with one track")
	}
	if s.History().Len() != 1 {
		t.Errorf("History().Len() = %d after reset, want 1", s.History().Len())
	}
}

func TestRemoveStation(t *testing.T) {
	s := New(WithSnap(false))
	a := mustAdd(t, s, geom.V(0, 0))
	b := mustAdd(t, s, geom.V(100, 0))
	if err := s.RemoveStation(b.ID); err != nil {
		t.Fatalf("RemoveStation: %v", err)
	}
	if s.Selected() != nil || s.LastStation() != nil {
		t.Error("removed station still referenced by the session")
	}
	if got := len(s.CurrentTrack().Segments()); got != 0 {
		t.Errorf("len(Segments()) = %d, want 0", got)
	}
	if s.Map().FindStation(a.ID) == nil {
		t.Error("the other endpoint should survive")
	}
	if err := s.RemoveStation(b.ID); !errors.Is(err, errors.ErrCodeStationNotFound) {
		t.Errorf("second removal err = %v", err)
	}
}

func TestConnections(t *testing.T) {
	s := New(WithSnap(false))
	a := mustAdd(t, s, geom.V(0, 0))
	s.NewTrack()
	b := mustAdd(t, s, geom.V(0, 20))

	c, err := s.Connect(a.ID, b.ID)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := s.Connect(a.ID, a.ID); !errors.Is(err, errors.ErrCodeInvalidTopology) {
		t.Errorf("self connection err = %v", err)
	}
	if _, err := s.Connect(a.ID, "zz"); !errors.Is(err, errors.ErrCodeStationNotFound) {
		t.Errorf("unknown station err = %v", err)
	}
	if err := s.Disconnect(c.ID); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if err := s.Disconnect(c.ID); !errors.Is(err, errors.ErrCodeConnectionNotFound) {
		t.Errorf("second Disconnect err = %v", err)
	}
}

func TestCreateSegment(t *testing.T) {
	s := New(WithSnap(false))
	a := mustAdd(t, s, geom.V(0, 0))
	s.BreakLine()
	b := mustAdd(t, s, geom.V(100, 100))

	seg, err := s.CreateSegment(a.ID, b.ID)
	if err != nil {
		t.Fatalf("CreateSegment: %v", err)
	}
	if seg.Path() == nil || seg.Path().End() != b.Position() {
		t.Error("new segment was not laid out")
	}
	if _, err := s.CreateSegment(a.ID, a.ID); !errors.Is(err, errors.ErrCodeInvalidTopology) {
		t.Errorf("self segment err = %v", err)
	}
}

func TestRenameAndLabel(t *testing.T) {
	s := New()
	a := mustAdd(t, s, geom.V(0, 0))
	n := s.History().Len()

	if err := s.RenameStation(a.ID, "Central"); err != nil {
		t.Fatal(err)
	}
	if a.Name != "Central" || s.History().Len() != n+1 {
		t.Error("rename not applied or not recorded")
	}
	if err := s.RenameStation(a.ID, "Central"); err != nil || s.History().Len() != n+1 {
		t.Error("renaming to the same name should be a no-op")
	}
	if err := s.SetLabelOffset(a.ID, geom.V(5, -10)); err != nil {
		t.Fatal(err)
	}
	if off, ok := a.LabelOffset(); !ok || off != geom.V(5, -10) {
		t.Errorf("LabelOffset() = %v, %v", off, ok)
	}
}

func TestUpdateStationIsOneAction(t *testing.T) {
	s := New(WithSnap(false))
	a := mustAdd(t, s, geom.V(0, 0))
	mustAdd(t, s, geom.V(200, 0))
	n := s.History().Len()

	pos, name, off := geom.V(0, 50), "Central", geom.V(4, -8)
	st, err := s.UpdateStation(a.ID, StationUpdate{Position: &pos, Name: &name, LabelOffset: &off})
	if err != nil {
		t.Fatal(err)
	}
	if st.Position() != pos || st.Name != name {
		t.Errorf("station = %v %q, want %v %q", st.Position(), st.Name, pos, name)
	}
	if got, ok := st.LabelOffset(); !ok || got != off {
		t.Errorf("LabelOffset() = %v, %v", got, ok)
	}
	if got := s.History().Len(); got != n+1 {
		t.Errorf("History().Len() = %d, want %d", got, n+1)
	}

	if ok, err := s.Undo(); !ok || err != nil {
		t.Fatalf("Undo() = %v, %v", ok, err)
	}
	back := s.Map().FindStation(a.ID)
	if back.Position() != geom.V(0, 0) || back.Name == name {
		t.Errorf("one undo should revert every change, got %v %q", back.Position(), back.Name)
	}
	if _, ok := back.LabelOffset(); ok {
		t.Error("one undo should revert the label offset")
	}
}

func TestUpdateStationRejected(t *testing.T) {
	s := New(WithSnap(false))
	mustAdd(t, s, geom.V(0, 0))
	mustAdd(t, s, geom.V(90, 0))
	minor, err := s.AddMinorStation(geom.V(10, 3))
	if err != nil {
		t.Fatal(err)
	}
	n := s.History().Len()

	pos, name := geom.V(30, 30), "Moved"
	if _, err := s.UpdateStation(minor.ID, StationUpdate{Position: &pos, Name: &name}); !errors.Is(err, errors.ErrCodeInvalidTopology) {
		t.Errorf("err = %v, want INVALID_TOPOLOGY", err)
	}
	if minor.Name == name || s.History().Len() != n {
		t.Error("a rejected update must not apply any change")
	}
	if _, err := s.UpdateStation("missing", StationUpdate{Name: &name}); !errors.Is(err, errors.ErrCodeStationNotFound) {
		t.Errorf("err = %v, want STATION_NOT_FOUND", err)
	}
}

func TestUnrecordableEditRollsBack(t *testing.T) {
	s := New(WithSnap(false))
	a := mustAdd(t, s, geom.V(0, 0))
	n := s.History().Len()

	err := s.SetLabelOffset(a.ID, geom.V(math.NaN(), 0))
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Fatalf("err = %v, want INTERNAL", err)
	}
	if s.History().Len() != n {
		t.Errorf("History().Len() = %d, want %d", s.History().Len(), n)
	}
	st := s.Map().FindStation(a.ID)
	if st == nil {
		t.Fatal("station lost in rollback")
	}
	if _, ok := st.LabelOffset(); ok {
		t.Error("failed edit should be rolled back")
	}
	if _, err := s.Snapshot(); err != nil {
		t.Errorf("Snapshot() after rollback: %v", err)
	}
}

func TestSelection(t *testing.T) {
	s := New(WithSnap(false))
	a := mustAdd(t, s, geom.V(0, 0))
	b := mustAdd(t, s, geom.V(200, 0))

	if got := s.SelectAt(geom.V(1, 1)); got != a || !a.Selected() {
		t.Error("SelectAt on a station should select it")
	}
	if got := s.SelectAt(geom.V(100, 300)); got != nil || a.Selected() || b.Selected() {
		t.Error("SelectAt on empty space should clear the selection")
	}
	if err := s.SelectStation(a.ID); err != nil {
		t.Fatal(err)
	}
	if s.LastStation() != a {
		t.Error("SelectStation should make the station the link source")
	}
	if err := s.SelectTrack("missing"); !errors.Is(err, errors.ErrCodeTrackNotFound) {
		t.Errorf("SelectTrack err = %v", err)
	}
}

type recordingHooks struct {
	observability.NoopEditorHooks
	mu      sync.Mutex
	actions []string
}

func (h *recordingHooks) OnEdit(action string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		h.actions = append(h.actions, action)
	}
}

func TestEditorHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetEditorHooks(hooks)
	t.Cleanup(observability.Reset)

	s := New()
	mustAdd(t, s, geom.V(0, 0))
	s.NewTrack()

	want := []string{"add_station", "new_track"}
	if len(hooks.actions) != len(want) {
		t.Fatalf("actions = %v, want %v", hooks.actions, want)
	}
	for i := range want {
		if hooks.actions[i] != want[i] {
			t.Errorf("actions[%d] = %q, want %q", i, hooks.actions[i], want[i])
		}
	}
}
