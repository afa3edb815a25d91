package metro

import (
	"math"

	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/path"
)

// Router constants.
const (
	// ArcRadius is the corner radius of a routed bend.
	ArcRadius = 8.0
	// MinStraight is the shortest straight run before or after a bend.
	MinStraight = 4 * ArcRadius
	// MinBendSpan is the axis displacement a segment needs before it bends.
	MinBendSpan = MinStraight + 2*ArcRadius

	// diagonalTolerance is how far the normalized axis components may differ
	// for a displacement to still count as a 45 degree diagonal.
	diagonalTolerance = 0.02
)

// Route computes the path from a to b. prevTangent is the exit tangent of
// the preceding segment on the same track, or the zero vector.
//
// The result is either a straight line or an orthogonal route with one
// smoothed bend: a vertical lead-out from a, a rounded corner, a diagonal
// run, a second rounded corner and a horizontal lead-in to b. A preceding
// segment that already leaves horizontally in this direction (or vertically
// against it) flips the order so consecutive segments do not bend the same
// way twice. Route is pure: identical inputs give identical paths.
func Route(a, b, prevTangent geom.Vec) *path.Path {
	d := b.Sub(a)
	abs := d.Abs()
	sign := d.Sign()

	maxDistance := math.Min(abs.X, abs.Y) - MinStraight
	straightY := math.Max(abs.Y-maxDistance, MinStraight)
	straightX := math.Max(abs.X-maxDistance, MinStraight)

	beginRel := geom.V(0, straightY).Mul(sign.Y)
	endRel := geom.V(straightX, 0).Mul(sign.X)

	if !prevTangent.IsZero() {
		sameX := prevTangent.X != 0 && sign.X == prevTangent.X
		againstY := prevTangent.Y != 0 && sign.Y != prevTangent.Y
		if sameX || againstY {
			beginRel = geom.V(straightX, 0).Mul(sign.X)
			endRel = geom.V(0, straightY).Mul(sign.Y)
		}
	}

	if !needsBend(d) {
		return path.Line(a, b)
	}

	arcBegin := a.Add(beginRel)
	arcEnd := b.Sub(endRel)
	chord := arcEnd.Sub(arcBegin).Normalize()

	p1 := arcBegin.Sub(beginRel.Normalize().Mul(ArcRadius))
	p2 := arcBegin.Add(chord.Mul(ArcRadius))
	p3 := arcEnd.Sub(chord.Mul(ArcRadius))
	p4 := arcEnd.Add(endRel.Normalize().Mul(ArcRadius))

	return path.New(a).
		LineTo(p1).
		QuadTo(arcBegin, p2).
		LineTo(p3).
		QuadTo(arcEnd, p4).
		LineTo(b)
}

// needsBend reports whether displacement d gets a smoothed corner. Near
// diagonals and short hops are drawn straight.
func needsBend(d geom.Vec) bool {
	n := d.Normalize()
	if math.Abs(math.Abs(n.X)-math.Abs(n.Y)) <= diagonalTolerance {
		return false
	}
	return math.Abs(d.X) > MinBendSpan && math.Abs(d.Y) > MinBendSpan
}
