// Package geom provides the 2D primitives the canvas engine is built on:
// points, sizes, rectangles and box sides. Everything is a float64 value
// type; methods return new values and never mutate the receiver.
package geom

import "math"

// Point is a 2D point or vector in canvas space.
type Point struct {
	X, Y float64
}

// Pt is a convenience constructor for a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns p scaled by s.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Length returns the vector length of p.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the distance between p and q.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Length()
}

// Lerp interpolates between p and q; t=0 returns p, t=1 returns q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// Mid returns the midpoint of p and q.
func (p Point) Mid(q Point) Point {
	return p.Lerp(q, 0.5)
}

// Size is a width/height pair. A size is degenerate unless both
// dimensions are positive.
type Size struct {
	W, H float64
}

// Sz is a convenience constructor for a Size.
func Sz(w, h float64) Size {
	return Size{W: w, H: h}
}

// Positive reports whether both dimensions are strictly positive.
func (s Size) Positive() bool {
	return s.W > 0 && s.H > 0
}

// Max returns s with each dimension raised to at least the matching
// dimension of min.
func (s Size) Max(min Size) Size {
	if s.W < min.W {
		s.W = min.W
	}
	if s.H < min.H {
		s.H = min.H
	}
	return s
}

// Clamp limits v to the closed interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
