// Package geom provides the 2D vector type shared by the path router, the
// station model and the renderers.
//
// Vectors are plain values; every operation returns a new [Vec] and never
// mutates its receiver. Angles are expressed in degrees, with the y axis
// pointing down as on a screen, so rotating (1, 0) by 90 degrees yields
// (0, 1).
package geom
