package revision

import (
	"bytes"
	"testing"

	"github.com/SonghaiFan/metroflow/pkg/document"
	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/metro"
)

func snapshot(t *testing.T, m *metro.Map) []byte {
	t.Helper()
	data, err := document.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return data
}

// addStation appends a free station linked to the track's last station.
func addStation(m *metro.Map, pos geom.Vec) {
	tr := m.Tracks()[0]
	tr.CreateStationFree(pos, tr.LastAddedStation())
	m.Layout()
}

func TestStates(t *testing.T) {
	h := New()
	if h.HasUndo() || h.HasRedo() || h.Len() != 0 || h.Index() != -1 {
		t.Fatal("new history is not empty")
	}

	m := metro.NewExample()
	h.Record(m)
	if h.HasUndo() || h.HasRedo() {
		t.Error("single snapshot should allow neither undo nor redo")
	}

	addStation(m, geom.V(900, 600))
	h.Record(m)
	if !h.HasUndo() || h.HasRedo() {
		t.Error("want has-undo state")
	}

	m, _ = h.Undo(m)
	if h.HasUndo() || !h.HasRedo() {
		t.Error("want has-redo state")
	}

	addStation(m, geom.V(1000, 700))
	h.Record(m)
	addStation(m, geom.V(1100, 900))
	h.Record(m)
	m, _ = h.Undo(m)
	if !h.HasUndo() || !h.HasRedo() {
		t.Error("want has-both state")
	}

	h.Clear()
	if h.HasUndo() || h.HasRedo() || h.Len() != 0 || h.Current() != nil {
		t.Error("Clear left snapshots behind")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	h := New()
	m := metro.NewExample()
	h.Record(m)
	s0 := snapshot(t, m)

	tr := m.Tracks()[0]
	seg := tr.Segments()[0]
	tr.CreateStationOnSegment(seg, 0.5)
	tr.CreateStationMinor(seg.Path().PointAt(seg.Length()*0.75), seg)
	m.Layout()
	h.Record(m)
	s1 := snapshot(t, m)

	undone, err := h.Undo(m)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if undone == m {
		t.Fatal("Undo returned the same map instance")
	}
	if got := snapshot(t, undone); !bytes.Equal(got, s0) {
		t.Errorf("undo does not reproduce M0:\nwant %s\ngot  %s", s0, got)
	}

	redone, err := h.Redo(undone)
	if err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if got := snapshot(t, redone); !bytes.Equal(got, s1) {
		t.Errorf("redo does not reproduce S1:\nwant %s\ngot  %s", s1, got)
	}
}

func TestNoOpAtEnds(t *testing.T) {
	h := New()
	m := metro.NewExample()
	if got, err := h.Undo(m); got != m || err != nil {
		t.Error("Undo on empty history should return the map unchanged")
	}
	h.Record(m)
	if got, _ := h.Undo(m); got != m {
		t.Error("Undo at the first snapshot should return the map unchanged")
	}
	if got, _ := h.Redo(m); got != m {
		t.Error("Redo at the last snapshot should return the map unchanged")
	}
}

func TestNewActionTruncatesRedo(t *testing.T) {
	h := New()
	m := metro.NewExample()
	h.Record(m)
	addStation(m, geom.V(900, 600))
	h.Record(m)

	m, _ = h.Undo(m)
	if !h.HasRedo() {
		t.Fatal("expected a redo entry")
	}
	addStation(m, geom.V(100, 900))
	h.Record(m)
	if h.HasRedo() {
		t.Error("redo entry survived a new action")
	}
	if h.Len() != 2 || h.Index() != 1 {
		t.Errorf("Len() = %d, Index() = %d, want 2, 1", h.Len(), h.Index())
	}
	if got, _ := h.Redo(m); got != m {
		t.Error("Redo after truncation changed the map")
	}
}

func TestCapacityEviction(t *testing.T) {
	h := New(WithCapacity(3))
	m := metro.NewExample()
	var snaps [][]byte
	for i := 0; i < 5; i++ {
		addStation(m, geom.V(float64(800+i*100), float64(600+i*50)))
		h.Record(m)
		snaps = append(snaps, snapshot(t, m))
	}
	if h.Len() != 3 || h.Index() != 2 {
		t.Fatalf("Len() = %d, Index() = %d, want 3, 2", h.Len(), h.Index())
	}
	if !bytes.Equal(h.Current(), snaps[4]) {
		t.Error("current snapshot is not the latest")
	}

	m, _ = h.Undo(m)
	m, _ = h.Undo(m)
	if h.HasUndo() {
		t.Error("evicted snapshots are still reachable")
	}
	if got := snapshot(t, m); !bytes.Equal(got, snaps[2]) {
		t.Error("oldest kept snapshot is not the third recorded one")
	}
}

func TestDefaultCapacity(t *testing.T) {
	if got := New().Capacity(); got != DefaultCapacity {
		t.Errorf("Capacity() = %d, want %d", got, DefaultCapacity)
	}
	if got := New(WithCapacity(0)).Capacity(); got != DefaultCapacity {
		t.Errorf("WithCapacity(0) changed capacity to %d", got)
	}
}

func TestUndoCorruptSnapshotKeepsMap(t *testing.T) {
	h := New()
	m := metro.NewExample()
	h.Record(m)
	h.Record(m)
	h.snapshots[0] = []byte(`{broken`)

	got, err := h.Undo(m)
	if err == nil {
		t.Fatal("Undo of a corrupt snapshot succeeded")
	}
	if got != m || h.Index() != 1 {
		t.Error("failed undo changed the map or the index")
	}
}
