// Package path implements the rendered geometry of a segment: an open
// polyline whose pieces are straight lines or quadratic Bézier curves.
//
// Besides construction ([New], [Path.LineTo], [Path.QuadTo]) a Path answers
// the arc-length queries the layout engine is built on:
//
//   - [Path.Length]: total arc length
//   - [Path.PointAt], [Path.TangentAt], [Path.NormalAt]: geometry at an offset
//   - [Path.NearestPoint], [Path.OffsetOf]: projection of an arbitrary point
//
// An arc-length offset is the distance travelled along the path from its
// first point. All queries clamp offsets to [0, Length()].
//
// Quadratic arc lengths are integrated numerically with Gauss-Legendre
// quadrature and inverted by bisection, so every query is a pure function of
// the path's control points: identical paths answer identically.
package path
