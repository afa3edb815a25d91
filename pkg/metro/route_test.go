package metro

import (
	"testing"

	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestRouteStraightFallback(t *testing.T) {
	tests := []struct {
		name string
		a, b geom.Vec
	}{
		{"Diagonal", geom.V(0, 0), geom.V(100, 100)},
		{"NearDiagonal", geom.V(0, 0), geom.V(100, 101)},
		{"Horizontal", geom.V(0, 0), geom.V(300, 0)},
		{"Vertical", geom.V(10, 10), geom.V(10, -200)},
		{"Short", geom.V(0, 0), geom.V(40, 200)},
		{"Degenerate", geom.V(5, 5), geom.V(5, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Route(tt.a, tt.b, geom.Vec{})
			pts := p.Points()
			if len(pts) != 2 {
				t.Fatalf("len(Points()) = %d, want 2", len(pts))
			}
			if pts[0] != tt.a || pts[1] != tt.b {
				t.Errorf("Points() = %v, want [%v %v]", pts, tt.a, tt.b)
			}
		})
	}
}

func TestRouteBend(t *testing.T) {
	a, b := geom.V(0, 0), geom.V(200, 100)
	p := Route(a, b, geom.Vec{})

	want := []geom.Vec{
		a,
		geom.V(0, 24),
		geom.V(5.656854, 37.656854),
		geom.V(62.343146, 94.343146),
		geom.V(76, 100),
		b,
	}
	approx := cmpopts.EquateApprox(0, 1e-5)
	if diff := cmp.Diff(want, p.Points(), approx); diff != "" {
		t.Errorf("Points() mismatch (-want +got):\n%s", diff)
	}
	if got := p.EndTangent(); got != geom.V(1, 0) {
		t.Errorf("EndTangent() = %v, want (1,0)", got)
	}
}

func TestRouteContinuity(t *testing.T) {
	points := []geom.Vec{
		geom.V(0, 0), geom.V(200, 100), geom.V(-150, 80), geom.V(30, -400),
		geom.V(500, 510), geom.V(-60, -300), geom.V(49, 49.5),
	}
	tangents := []geom.Vec{{}, geom.V(1, 0), geom.V(0, 1), geom.V(-1, 0), geom.V(0, -1), geom.V(0.6, 0.8)}
	for _, a := range points {
		for _, b := range points {
			for _, tan := range tangents {
				p := Route(a, b, tan)
				if p.Start() != a || p.End() != b {
					t.Fatalf("Route(%v, %v, %v) spans %v..%v", a, b, tan, p.Start(), p.End())
				}
			}
		}
	}
}

func TestRouteDeterministic(t *testing.T) {
	a, b, tan := geom.V(13, 7), geom.V(-250, 390), geom.V(0, 1)
	first := Route(a, b, tan).Pieces()
	second := Route(a, b, tan).Pieces()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Route not deterministic (-first +second):\n%s", diff)
	}
}

func TestRouteSwapsAfterHorizontalExit(t *testing.T) {
	a, b := geom.V(200, 100), geom.V(300, 300)

	plain := Route(a, b, geom.Vec{}).Points()
	if plain[1].X != a.X {
		t.Errorf("default route leaves vertically, got first point %v", plain[1])
	}

	swapped := Route(a, b, geom.V(1, 0)).Points()
	if swapped[1].Y != a.Y {
		t.Errorf("after a horizontal exit the route should leave horizontally, got %v", swapped[1])
	}
	if got := Route(a, b, geom.V(-1, 0)).Points(); got[1].X != a.X {
		t.Errorf("opposite horizontal exit should not swap, got %v", got[1])
	}
	if got := Route(a, b, geom.V(0, -1)).Points(); got[1].Y != a.Y {
		t.Errorf("vertical exit against the route should swap, got %v", got[1])
	}
	if got := Route(a, b, geom.V(0, 1)).Points(); got[1].X != a.X {
		t.Errorf("vertical exit along the route should not swap, got %v", got[1])
	}
}
