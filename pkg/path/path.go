package path

import (
	"math"

	"github.com/SonghaiFan/metroflow/pkg/geom"
)

// Path is an open sequence of pieces starting at a single point.
// The zero value is not usable; create paths with [New].
type Path struct {
	start   geom.Vec
	pieces  []Piece
	lengths []float64 // arc length of each piece
	starts  []float64 // arc-length offset at which each piece begins
	total   float64
}

// New starts a path at p.
func New(p geom.Vec) *Path {
	return &Path{start: p}
}

// Line returns the two-point straight path a→b.
func Line(a, b geom.Vec) *Path {
	return New(a).LineTo(b)
}

// LineTo appends a straight piece from the current end to p.
func (p *Path) LineTo(to geom.Vec) *Path {
	p.add(Piece{From: p.End(), To: to})
	return p
}

// QuadTo appends a quadratic Bézier piece from the current end to p,
// bending towards ctrl.
func (p *Path) QuadTo(ctrl, to geom.Vec) *Path {
	p.add(Piece{From: p.End(), Ctrl: ctrl, To: to, Curved: true})
	return p
}

func (p *Path) add(pc Piece) {
	l := pc.Length()
	p.starts = append(p.starts, p.total)
	p.lengths = append(p.lengths, l)
	p.pieces = append(p.pieces, pc)
	p.total += l
}

// Start returns the first point.
func (p *Path) Start() geom.Vec { return p.start }

// End returns the last point.
func (p *Path) End() geom.Vec {
	if len(p.pieces) == 0 {
		return p.start
	}
	return p.pieces[len(p.pieces)-1].To
}

// Pieces returns a copy of the drawing commands.
func (p *Path) Pieces() []Piece {
	return append([]Piece(nil), p.pieces...)
}

// Points returns the anchor points of the path: its start followed by the end
// point of every piece. Control points are not included.
func (p *Path) Points() []geom.Vec {
	pts := make([]geom.Vec, 0, len(p.pieces)+1)
	pts = append(pts, p.start)
	for _, pc := range p.pieces {
		pts = append(pts, pc.To)
	}
	return pts
}

// Length returns the total arc length.
func (p *Path) Length() float64 { return p.total }

// locate maps an arc-length offset to a piece index and curve parameter.
// It returns -1 for paths without pieces.
func (p *Path) locate(offset float64) (int, float64) {
	if len(p.pieces) == 0 {
		return -1, 0
	}
	offset = clamp(offset, 0, p.total)
	i := 0
	for i < len(p.pieces)-1 && offset > p.starts[i]+p.lengths[i] {
		i++
	}
	return i, p.pieces[i].paramAt(offset-p.starts[i], p.lengths[i])
}

// PointAt returns the point at the given arc-length offset.
func (p *Path) PointAt(offset float64) geom.Vec {
	i, t := p.locate(offset)
	if i < 0 {
		return p.start
	}
	switch {
	case t == 0:
		return p.pieces[i].From
	case t == 1:
		return p.pieces[i].To
	}
	return p.pieces[i].Eval(t)
}

// TangentAt returns the unit tangent at the given offset. Zero-length pieces
// borrow the direction of the nearest preceding piece that has one.
func (p *Path) TangentAt(offset float64) geom.Vec {
	i, t := p.locate(offset)
	if i < 0 {
		return geom.Vec{}
	}
	for j := i; j >= 0; j-- {
		if p.lengths[j] > 0 {
			if j != i {
				t = 1
			}
			return p.pieces[j].Tangent(t)
		}
	}
	return geom.Vec{}
}

// NormalAt returns the unit normal at the given offset: the tangent rotated
// by 90 degrees.
func (p *Path) NormalAt(offset float64) geom.Vec {
	return p.TangentAt(offset).Rotate(90)
}

// EndTangent returns the unit tangent at the end of the path.
func (p *Path) EndTangent() geom.Vec {
	return p.TangentAt(p.total)
}

// project returns the nearest point on the path to q and its arc-length offset.
func (p *Path) project(q geom.Vec) (geom.Vec, float64) {
	if len(p.pieces) == 0 {
		return p.start, 0
	}
	best, bestOffset, bestDist := p.start, 0.0, math.Inf(1)
	for i, pc := range p.pieces {
		t := pc.nearest(q)
		pt := pc.Eval(t)
		if d := pt.Distance(q); d < bestDist {
			best, bestDist = pt, d
			bestOffset = p.starts[i] + pc.lengthTo(t)
		}
	}
	return best, math.Min(bestOffset, p.total)
}

// NearestPoint returns the point on the path closest to q.
func (p *Path) NearestPoint(q geom.Vec) geom.Vec {
	pt, _ := p.project(q)
	return pt
}

// OffsetOf returns the arc-length offset of the point on the path closest to q.
func (p *Path) OffsetOf(q geom.Vec) float64 {
	_, off := p.project(q)
	return off
}

// Distance returns the distance between q and the path.
func (p *Path) Distance(q geom.Vec) float64 {
	return p.NearestPoint(q).Distance(q)
}

// Bounds returns the axis-aligned bounding box of all anchor and control
// points. Quadratic curves lie inside the hull of their control points, so
// the box contains the whole path.
func (p *Path) Bounds() (lo, hi geom.Vec) {
	lo, hi = p.start, p.start
	grow := func(v geom.Vec) {
		lo.X, lo.Y = math.Min(lo.X, v.X), math.Min(lo.Y, v.Y)
		hi.X, hi.Y = math.Max(hi.X, v.X), math.Max(hi.Y, v.Y)
	}
	for _, pc := range p.pieces {
		if pc.Curved {
			grow(pc.Ctrl)
		}
		grow(pc.To)
	}
	return lo, hi
}
