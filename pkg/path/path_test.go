package path

import (
	"math"
	"testing"

	"github.com/SonghaiFan/metroflow/pkg/geom"
)

const tol = 1e-6

func near(a, b float64) bool { return math.Abs(a-b) < tol }

func TestLength(t *testing.T) {
	tests := []struct {
		name string
		path *Path
		want float64
	}{
		{"Empty", New(geom.V(3, 4)), 0},
		{"Line", Line(geom.V(0, 0), geom.V(3, 4)), 5},
		{"Polyline", New(geom.V(0, 0)).LineTo(geom.V(10, 0)).LineTo(geom.V(10, 10)), 20},
		{"StraightQuad", New(geom.V(0, 0)).QuadTo(geom.V(5, 0), geom.V(10, 0)), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.Length(); !near(got, tt.want) {
				t.Errorf("Length() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuadLengthBetweenChordAndHull(t *testing.T) {
	p := New(geom.V(0, 0)).QuadTo(geom.V(10, 0), geom.V(10, 10))
	chord := math.Sqrt(200)
	if l := p.Length(); l <= chord || l >= 20 {
		t.Fatalf("Length() = %v, want in (%v, 20)", l, chord)
	}
	// Closed form for this curve: 10 + 5*sqrt(2)*asinh(1).
	want := 10 + 5*math.Sqrt2*math.Asinh(1)
	if l := p.Length(); math.Abs(l-want) > 1e-4 {
		t.Errorf("Length() = %v, want %v", l, want)
	}
}

func TestPointAt(t *testing.T) {
	p := New(geom.V(0, 0)).LineTo(geom.V(10, 0)).LineTo(geom.V(10, 10))
	tests := []struct {
		offset float64
		want   geom.Vec
	}{
		{-5, geom.V(0, 0)},
		{0, geom.V(0, 0)},
		{5, geom.V(5, 0)},
		{10, geom.V(10, 0)},
		{15, geom.V(10, 5)},
		{20, geom.V(10, 10)},
		{99, geom.V(10, 10)},
	}
	for _, tt := range tests {
		if got := p.PointAt(tt.offset); !got.ApproxEqual(tt.want, tol) {
			t.Errorf("PointAt(%v) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestPointAtQuadMidpointOfArc(t *testing.T) {
	// Symmetric curve: the arc-length midpoint is the parametric midpoint.
	p := New(geom.V(0, 0)).QuadTo(geom.V(10, 10), geom.V(20, 0))
	got := p.PointAt(p.Length() / 2)
	if !got.ApproxEqual(geom.V(10, 5), 1e-6) {
		t.Errorf("midpoint = %v, want (10,5)", got)
	}
}

func TestTangentAndNormal(t *testing.T) {
	p := New(geom.V(0, 0)).LineTo(geom.V(10, 0)).LineTo(geom.V(10, 10))

	if got := p.TangentAt(5); !got.ApproxEqual(geom.V(1, 0), tol) {
		t.Errorf("TangentAt(5) = %v, want (1,0)", got)
	}
	if got := p.TangentAt(15); !got.ApproxEqual(geom.V(0, 1), tol) {
		t.Errorf("TangentAt(15) = %v, want (0,1)", got)
	}
	if got := p.EndTangent(); !got.ApproxEqual(geom.V(0, 1), tol) {
		t.Errorf("EndTangent() = %v, want (0,1)", got)
	}
	if got := p.NormalAt(5); !got.ApproxEqual(geom.V(0, 1), tol) {
		t.Errorf("NormalAt(5) = %v, want (0,1)", got)
	}
	if got := New(geom.V(1, 1)).TangentAt(0); !got.IsZero() {
		t.Errorf("TangentAt on empty path = %v, want zero", got)
	}
}

func TestTangentSkipsZeroLengthPieces(t *testing.T) {
	p := New(geom.V(0, 0)).LineTo(geom.V(0, 10)).LineTo(geom.V(0, 10))
	if got := p.EndTangent(); !got.ApproxEqual(geom.V(0, 1), tol) {
		t.Errorf("EndTangent() = %v, want (0,1)", got)
	}
}

func TestNearestPointAndOffset(t *testing.T) {
	p := New(geom.V(0, 0)).LineTo(geom.V(10, 0)).LineTo(geom.V(10, 10))
	tests := []struct {
		name       string
		q          geom.Vec
		wantPoint  geom.Vec
		wantOffset float64
	}{
		{"OnPath", geom.V(4, 0), geom.V(4, 0), 4},
		{"AboveFirst", geom.V(3, -7), geom.V(3, 0), 3},
		{"RightOfSecond", geom.V(14, 6), geom.V(10, 6), 16},
		{"BeforeStart", geom.V(-5, 0), geom.V(0, 0), 0},
		{"PastEnd", geom.V(10, 30), geom.V(10, 10), 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.NearestPoint(tt.q); !got.ApproxEqual(tt.wantPoint, tol) {
				t.Errorf("NearestPoint(%v) = %v, want %v", tt.q, got, tt.wantPoint)
			}
			if got := p.OffsetOf(tt.q); !near(got, tt.wantOffset) {
				t.Errorf("OffsetOf(%v) = %v, want %v", tt.q, got, tt.wantOffset)
			}
		})
	}
}

func TestOffsetOfRoundTripsOnCurve(t *testing.T) {
	p := New(geom.V(0, 0)).LineTo(geom.V(0, 20)).
		QuadTo(geom.V(0, 28), geom.V(8, 28)).
		LineTo(geom.V(40, 28))
	for _, f := range []float64{0, 0.1, 0.3, 0.45, 0.5, 0.7, 1} {
		off := f * p.Length()
		pt := p.PointAt(off)
		if got := p.OffsetOf(pt); math.Abs(got-off) > 1e-4 {
			t.Errorf("OffsetOf(PointAt(%v)) = %v", off, got)
		}
	}
}

func TestPointsAndBounds(t *testing.T) {
	p := New(geom.V(0, 0)).LineTo(geom.V(0, 20)).QuadTo(geom.V(0, 28), geom.V(8, 28))
	pts := p.Points()
	if len(pts) != 3 {
		t.Fatalf("len(Points()) = %d, want 3", len(pts))
	}
	if pts[0] != p.Start() || pts[2] != p.End() {
		t.Errorf("Points() = %v, want start/end anchors", pts)
	}
	lo, hi := p.Bounds()
	if lo != geom.V(0, 0) || hi != geom.V(8, 28) {
		t.Errorf("Bounds() = %v %v", lo, hi)
	}
	if d := p.Distance(geom.V(-3, 10)); !near(d, 3) {
		t.Errorf("Distance() = %v, want 3", d)
	}
}
