package geom

import "math"

// Epsilon is the tolerance used by [Vec.ApproxEqual] and by callers that
// compare derived geometry.
const Epsilon = 1e-9

// Vec represents a 2D point or vector.
type Vec struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// V is a convenience function to create a Vec.
func V(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

// Add returns the vector sum v + w.
func (v Vec) Add(w Vec) Vec {
	return Vec{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the vector difference v - w.
func (v Vec) Sub(w Vec) Vec {
	return Vec{X: v.X - w.X, Y: v.Y - w.Y}
}

// Mul returns v scaled by s.
func (v Vec) Mul(s float64) Vec {
	return Vec{X: v.X * s, Y: v.Y * s}
}

// Div returns v divided by s.
func (v Vec) Div(s float64) Vec {
	return Vec{X: v.X / s, Y: v.Y / s}
}

// Neg returns -v.
func (v Vec) Neg() Vec {
	return Vec{X: -v.X, Y: -v.Y}
}

// Dot returns the dot product of v and w.
func (v Vec) Dot(w Vec) float64 {
	return v.X*w.X + v.Y*w.Y
}

// Cross returns the z component of the 3D cross product of v and w.
func (v Vec) Cross(w Vec) float64 {
	return v.X*w.Y - v.Y*w.X
}

// Length returns the Euclidean length of v.
func (v Vec) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Distance returns the distance between the points v and w.
func (v Vec) Distance(w Vec) float64 {
	return v.Sub(w).Length()
}

// Normalize returns the unit vector pointing in the direction of v.
// The zero vector normalizes to itself.
func (v Vec) Normalize() Vec {
	l := v.Length()
	if l == 0 {
		return Vec{}
	}
	return Vec{X: v.X / l, Y: v.Y / l}
}

// Rotate returns v rotated by deg degrees around the origin.
func (v Vec) Rotate(deg float64) Vec {
	switch math.Mod(deg, 360) {
	case 0:
		return v
	case 90, -270:
		return Vec{X: -v.Y, Y: v.X}
	case 180, -180:
		return Vec{X: -v.X, Y: -v.Y}
	case 270, -90:
		return Vec{X: v.Y, Y: -v.X}
	}
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Angle returns the direction of v in degrees, in the range (-180, 180].
func (v Vec) Angle() float64 {
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}

// Lerp interpolates linearly between v (t=0) and w (t=1).
func (v Vec) Lerp(w Vec, t float64) Vec {
	return Vec{
		X: v.X + (w.X-v.X)*t,
		Y: v.Y + (w.Y-v.Y)*t,
	}
}

// Sign returns the component-wise sign of v (-1, 0 or 1 per axis).
func (v Vec) Sign() Vec {
	return Vec{X: sign(v.X), Y: sign(v.Y)}
}

// Abs returns the component-wise absolute value of v.
func (v Vec) Abs() Vec {
	return Vec{X: math.Abs(v.X), Y: math.Abs(v.Y)}
}

// IsZero reports whether both components are exactly zero.
func (v Vec) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// ApproxEqual reports whether v and w differ by at most eps on each axis.
func (v Vec) ApproxEqual(w Vec, eps float64) bool {
	return math.Abs(v.X-w.X) <= eps && math.Abs(v.Y-w.Y) <= eps
}

func sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	}
	return 0
}
