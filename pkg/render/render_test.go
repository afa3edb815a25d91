package render

import (
	"bytes"
	"context"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/metro"
)

// line builds a(0,0) -> b(200,0) with one minor station.
func line(t *testing.T) (*metro.Map, *metro.Track, *metro.Station, *metro.Station) {
	t.Helper()
	m := metro.New()
	tr := m.CreateTrack()
	a := tr.CreateStationFree(geom.V(0, 0), nil, metro.WithName("A & B"))
	b := tr.CreateStationFree(geom.V(200, 0), a, metro.WithName("End"))
	m.Layout()
	tr.CreateStationMinor(geom.V(50, 0), tr.Segments()[0])
	m.Layout()
	return m, tr, a, b
}

func kinds(s Scene) []ItemKind {
	var out []ItemKind
	for _, it := range s.Items {
		out = append(out, it.Kind)
	}
	return out
}

func TestBuildOrder(t *testing.T) {
	m := metro.NewExample()
	tracks := m.Tracks()
	m.CreateConnection(tracks[0].MajorStations()[0], tracks[1].MajorStations()[0])

	s := Build(m)
	want := []ItemKind{
		ItemSegment, ItemStation, ItemStation,
		ItemSegment, ItemStation, ItemStation,
		ItemConnection,
	}
	if diff := cmp.Diff(want, kinds(s)); diff != "" {
		t.Errorf("item order mismatch (-want +got):\n%s", diff)
	}
	if len(s.Labels) != 4 {
		t.Errorf("len(Labels) = %d, want 4", len(s.Labels))
	}
	if s.Items[3].Stroke != "#0000ff" {
		t.Errorf("blue segment stroke = %q", s.Items[3].Stroke)
	}
}

func TestBuildDrawsInterchangeOnce(t *testing.T) {
	m := metro.New()
	red := m.CreateTrack()
	a := red.CreateStationFree(geom.V(0, 0), nil)
	red.CreateStationFree(geom.V(100, 0), a)
	blue := m.CreateTrack()
	c := blue.CreateStationFree(geom.V(0, 100), nil)
	blue.CreateSegment(c, a)
	m.Layout()

	var stations int
	for _, it := range Build(m).Items {
		if it.Kind == ItemStation {
			stations++
		}
	}
	if stations != 3 {
		t.Errorf("drawn stations = %d, want 3", stations)
	}
}

func TestBuildSelectionColors(t *testing.T) {
	m, tr, a, _ := line(t)
	a.Select()
	tr.Segments()[0].Select()

	for _, it := range Build(m).Items {
		switch {
		case it.Kind == ItemSegment && it.Stroke != "#006400":
			t.Errorf("selected segment stroke = %q", it.Stroke)
		case it.Kind == ItemStation && it.ID == a.ID && it.Stroke != "#006400":
			t.Errorf("selected station stroke = %q", it.Stroke)
		}
	}
}

func TestFrame(t *testing.T) {
	m := metro.New()
	tr := m.CreateTrack()
	a := tr.CreateStationFree(geom.V(0, 0), nil)
	tr.CreateStationFree(geom.V(100, 0), a)
	m.Layout()

	approx := cmpopts.EquateApprox(0, 1e-9)
	tests := []struct {
		name     string
		opts     []Option
		min, siz geom.Vec
	}{
		{"Content", []Option{WithLabels(false), WithPadding(10)}, geom.V(-20, -20), geom.V(140, 40)},
		{"FixedSize", []Option{WithLabels(false), WithPadding(10), WithSize(200, 100)}, geom.V(-50, -50), geom.V(200, 100)},
		{"NoPadding", []Option{WithLabels(false), WithPadding(0)}, geom.V(-10, -10), geom.V(120, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Build(m, tt.opts...)
			if diff := cmp.Diff(tt.min, s.Min, approx); diff != "" {
				t.Errorf("Min mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.siz, s.Size, approx); diff != "" {
				t.Errorf("Size mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFrameEmptyMap(t *testing.T) {
	s := Build(metro.New(), WithPadding(5))
	if s.Min != geom.V(-5, -5) || s.Size != geom.V(10, 10) {
		t.Errorf("empty frame = %v %v", s.Min, s.Size)
	}
}

func TestLabelPlacement(t *testing.T) {
	m := metro.New()
	tr := m.CreateTrack()
	a := tr.CreateStationFree(geom.V(0, 0), nil)
	b := tr.CreateStationFree(geom.V(200, 0), a)
	m.Layout()

	labels := Build(m).Labels
	if len(labels) != 2 {
		t.Fatalf("len(Labels) = %d, want 2", len(labels))
	}
	w, _ := textSize("station", DefaultFontSize)
	approx := cmpopts.EquateApprox(0, 1e-9)

	// The right-hand spot of a is on the segment, so the label goes below.
	if diff := cmp.Diff(geom.V(-w/2, 18+ascent*DefaultFontSize), labels[0].Pos, approx); diff != "" {
		t.Errorf("label of a (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(b.Position().Add(geom.V(18, -7+ascent*DefaultFontSize)), labels[1].Pos, approx); diff != "" {
		t.Errorf("label of b (-want +got):\n%s", diff)
	}

	a.SetLabelOffset(geom.V(5, -10))
	if got := Build(m).Labels[0].Pos; got != geom.V(5, -10) {
		t.Errorf("overridden label at %v, want (5,-10)", got)
	}
}

func TestSVG(t *testing.T) {
	m, _, a, b := line(t)
	m.CreateConnection(a, b)
	svg := string(SVG(m))

	checks := []struct {
		substr string
		count  int
	}{
		{`<svg xmlns="http://www.w3.org/2000/svg"`, 1},
		{`class="segment"`, 1},
		{`<circle id="station-`, 2},
		{`class="station minor"`, 1},
		{`<polygon`, 1},
		{`<text `, 2},
		{`A &amp; B`, 1},
	}
	for _, c := range checks {
		if got := strings.Count(svg, c.substr); got != c.count {
			t.Errorf("count(%q) = %d, want %d", c.substr, got, c.count)
		}
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("document not closed")
	}
}

func TestSVGWithoutLabels(t *testing.T) {
	m, _, _, _ := line(t)
	if svg := SVG(m, WithLabels(false)); bytes.Contains(svg, []byte("<text")) {
		t.Error("labels drawn although disabled")
	}
}

func TestPathData(t *testing.T) {
	p := metro.Route(geom.V(0, 0), geom.V(200, 100), geom.Vec{})
	d := pathData(p)
	if !strings.HasPrefix(d, "M0.00 0.00") {
		t.Errorf("path data starts with %q", d)
	}
	if got := strings.Count(d, "Q"); got != 2 {
		t.Errorf("curves = %d, want 2 in %q", got, d)
	}
	if !strings.HasSuffix(d, "L200.00 100.00") {
		t.Errorf("path data ends with %q", d)
	}
}

func TestPNG(t *testing.T) {
	m, _, _, _ := line(t)
	data, err := PNG(m, WithScale(2))
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s := Build(m)
	want := int(math.Ceil(s.Size.X * 2))
	if got := img.Bounds().Dx(); got != want {
		t.Errorf("width = %d, want %d", got, want)
	}
}

func TestPNGSizeLimit(t *testing.T) {
	spread := metro.New()
	tr := spread.CreateTrack()
	a := tr.CreateStationFree(geom.V(0, 0), nil)
	tr.CreateStationFree(geom.V(1e6, 1e6), a)
	spread.Layout()

	m, _, _, _ := line(t)
	tests := []struct {
		name string
		m    *metro.Map
		opts []Option
	}{
		{"SpreadOutMap", spread, nil},
		{"LargeScale", m, []Option{WithScale(1000)}},
		{"WideCanvas", m, []Option{WithSize(MaxPNGSide+1, 10)}},
		{"TooManyPixels", m, []Option{WithSize(MaxPNGSide, MaxPNGSide)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PNG(tt.m, tt.opts...); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("PNG error = %v, want INVALID_INPUT", err)
			}
		})
	}

	if svg := SceneSVG(Build(spread)); len(svg) == 0 {
		t.Error("svg of a spread out map should still render")
	}
}

func TestTopologyDOT(t *testing.T) {
	m, tr, a, b := line(t)
	seg := tr.Segments()[0]
	x := tr.CreateStationOnSegment(seg, 0.75)
	m.Layout()
	m.CreateConnection(a, b)

	dot := TopologyDOT(m)
	for _, want := range []string{"layout=neato", `"` + a.ID + `"`, "shape=point", "style=dashed", `xlabel="A & B"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT misses %q", want)
		}
	}
	// a -- minor -- x -- b plus the connection.
	if got := strings.Count(dot, " -- "); got != 4 {
		t.Errorf("edges = %d, want 4", got)
	}
	if !strings.Contains(dot, `"`+x.ID+`" -- "`+b.ID+`"`) {
		t.Error("on-segment station not chained before b")
	}
}

func TestTopologySVG(t *testing.T) {
	svg, err := TopologySVG(context.Background(), metro.NewExample())
	if err != nil {
		t.Fatalf("TopologySVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
}
