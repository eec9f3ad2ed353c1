package geom

import "math"

// Rect is an axis-aligned rectangle described by its top-left corner
// and size. Y grows downward, matching screen coordinates.
type Rect struct {
	X, Y, W, H float64
}

// RectOf builds a Rect from a top-left corner and a size.
func RectOf(pos Point, size Size) Rect {
	return Rect{X: pos.X, Y: pos.Y, W: size.W, H: size.H}
}

// Pos returns the top-left corner.
func (r Rect) Pos() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the rectangle's size.
func (r Rect) Size() Size {
	return Size{W: r.W, H: r.H}
}

// MaxX returns the right edge coordinate.
func (r Rect) MaxX() float64 {
	return r.X + r.W
}

// MaxY returns the bottom edge coordinate.
func (r Rect) MaxY() float64 {
	return r.Y + r.H
}

// Center returns the rectangle's center point.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Pad returns r grown by d on every edge. Negative d shrinks.
func (r Rect) Pad(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// Intersects reports whether r and q overlap.
func (r Rect) Intersects(q Rect) bool {
	return r.X < q.MaxX() && q.X < r.MaxX() && r.Y < q.MaxY() && q.Y < r.MaxY()
}

// Union returns the smallest rectangle containing both r and q.
func (r Rect) Union(q Rect) Rect {
	x0 := math.Min(r.X, q.X)
	y0 := math.Min(r.Y, q.Y)
	x1 := math.Max(r.MaxX(), q.MaxX())
	y1 := math.Max(r.MaxY(), q.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// IntersectsSegment reports whether the segment p1-p2 passes through r.
func (r Rect) IntersectsSegment(p1, p2 Point) bool {
	left, top, right, bottom := r.X, r.Y, r.MaxX(), r.MaxY()

	// Quick bounding-box rejection.
	if math.Max(p1.X, p2.X) < left || math.Min(p1.X, p2.X) > right ||
		math.Max(p1.Y, p2.Y) < top || math.Min(p1.Y, p2.Y) > bottom {
		return false
	}

	// Orthogonal segments are settled by the bounding-box check.
	if math.Abs(p1.X-p2.X) < 0.5 || math.Abs(p1.Y-p2.Y) < 0.5 {
		return true
	}

	// Liang-Barsky clipping for the general case.
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	tMin, tMax := 0.0, 1.0

	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > tMax {
				return false
			}
			if t > tMin {
				tMin = t
			}
		} else {
			if t < tMin {
				return false
			}
			if t < tMax {
				tMax = t
			}
		}
		return true
	}

	return clip(-dx, p1.X-left) &&
		clip(dx, right-p1.X) &&
		clip(-dy, p1.Y-top) &&
		clip(dy, bottom-p1.Y) &&
		tMin <= tMax
}
