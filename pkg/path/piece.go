package path

import (
	"math"

	"github.com/SonghaiFan/metroflow/pkg/geom"
)

// Piece is one drawing command of a path: a straight line From→To, or a
// quadratic Bézier curve From→To with control point Ctrl.
type Piece struct {
	From   geom.Vec
	Ctrl   geom.Vec
	To     geom.Vec
	Curved bool
}

// Eval returns the point at curve parameter t ∈ [0,1].
func (p Piece) Eval(t float64) geom.Vec {
	if !p.Curved {
		return p.From.Lerp(p.To, t)
	}
	mt := 1 - t
	return geom.Vec{
		X: mt*mt*p.From.X + 2*mt*t*p.Ctrl.X + t*t*p.To.X,
		Y: mt*mt*p.From.Y + 2*mt*t*p.Ctrl.Y + t*t*p.To.Y,
	}
}

// Deriv returns the first derivative at curve parameter t.
func (p Piece) Deriv(t float64) geom.Vec {
	if !p.Curved {
		return p.To.Sub(p.From)
	}
	a := p.Ctrl.Sub(p.From).Mul(2 * (1 - t))
	b := p.To.Sub(p.Ctrl).Mul(2 * t)
	return a.Add(b)
}

// Tangent returns the unit tangent at curve parameter t. Degenerate curves
// fall back to the chord direction.
func (p Piece) Tangent(t float64) geom.Vec {
	if d := p.Deriv(t); !d.IsZero() {
		return d.Normalize()
	}
	return p.To.Sub(p.From).Normalize()
}

// Length returns the arc length of the whole piece.
func (p Piece) Length() float64 {
	if !p.Curved {
		return p.From.Distance(p.To)
	}
	return p.lengthTo(1)
}

// lengthTo integrates the speed |B'(u)| over [0, t] with a composite
// 8-point Gauss-Legendre rule on four sub-intervals.
func (p Piece) lengthTo(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if !p.Curved {
		return p.From.Distance(p.To) * t
	}
	const parts = 4
	h := t / parts
	var sum float64
	for k := 0; k < parts; k++ {
		a := float64(k) * h
		mid := a + h/2
		for i, x := range glNodes {
			sum += glWeights[i] * p.Deriv(mid+x*h/2).Length()
		}
	}
	return sum * h / 2
}

// paramAt returns the curve parameter at which the arc length from the
// start of the piece equals s.
func (p Piece) paramAt(s, total float64) float64 {
	if total <= 0 || s <= 0 {
		return 0
	}
	if s >= total {
		return 1
	}
	if !p.Curved {
		return s / total
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < 48; i++ {
		mid := (lo + hi) / 2
		if p.lengthTo(mid) < s {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// nearest returns the curve parameter of the point on the piece closest to q.
func (p Piece) nearest(q geom.Vec) float64 {
	if !p.Curved {
		d := p.To.Sub(p.From)
		l2 := d.Dot(d)
		if l2 == 0 {
			return 0
		}
		return clamp(q.Sub(p.From).Dot(d)/l2, 0, 1)
	}

	const samples = 16
	best, bestDist := 0.0, math.Inf(1)
	for i := 0; i <= samples; i++ {
		t := float64(i) / samples
		if d := p.Eval(t).Sub(q).Length(); d < bestDist {
			best, bestDist = t, d
		}
	}

	lo := math.Max(0, best-1.0/samples)
	hi := math.Min(1, best+1.0/samples)
	for i := 0; i < 60; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		if p.Eval(m1).Distance(q) < p.Eval(m2).Distance(q) {
			hi = m2
		} else {
			lo = m1
		}
	}
	t := (lo + hi) / 2
	if p.Eval(t).Distance(q) > bestDist {
		return best
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// 8-point Gauss-Legendre nodes and weights on [-1, 1].
var (
	glNodes = [8]float64{
		-0.9602898564975363, -0.7966664774136267,
		-0.5255324099163290, -0.1834346424956498,
		0.1834346424956498, 0.5255324099163290,
		0.7966664774136267, 0.9602898564975363,
	}
	glWeights = [8]float64{
		0.1012285362903763, 0.2223810344533745,
		0.3137066458778873, 0.3626837833783620,
		0.3626837833783620, 0.3137066458778873,
		0.2223810344533745, 0.1012285362903763,
	}
)
