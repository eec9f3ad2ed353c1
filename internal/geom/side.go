package geom

// Side names one of the four edges of a node box. The string values are
// part of the serialized board format.
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// Valid reports whether s is one of the four known sides.
func (s Side) Valid() bool {
	switch s {
	case SideLeft, SideRight, SideTop, SideBottom:
		return true
	}
	return false
}

// Opposite returns the side facing s.
func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	case SideTop:
		return SideBottom
	default:
		return SideTop
	}
}

// Horizontal reports whether the side runs horizontally (top or bottom).
// Anchor parameters on horizontal sides travel along X, on vertical
// sides along Y.
func (s Side) Horizontal() bool {
	return s == SideTop || s == SideBottom
}

// Outward returns the unit normal pointing away from the box.
func (s Side) Outward() Point {
	switch s {
	case SideLeft:
		return Point{X: -1}
	case SideRight:
		return Point{X: 1}
	case SideTop:
		return Point{Y: -1}
	default:
		return Point{Y: 1}
	}
}

// SideSpan returns the scalar start coordinate and length of side s:
// the X range for horizontal sides, the Y range for vertical ones.
func (r Rect) SideSpan(s Side) (start, length float64) {
	if s.Horizontal() {
		return r.X, r.W
	}
	return r.Y, r.H
}

// SidePoint returns the point at parameter t along side s. t runs
// left-to-right on horizontal sides and top-to-bottom on vertical ones;
// it is clamped to [0, 1].
func (r Rect) SidePoint(s Side, t float64) Point {
	t = Clamp(t, 0, 1)
	switch s {
	case SideLeft:
		return Point{X: r.X, Y: r.Y + r.H*t}
	case SideRight:
		return Point{X: r.MaxX(), Y: r.Y + r.H*t}
	case SideTop:
		return Point{X: r.X + r.W*t, Y: r.Y}
	default:
		return Point{X: r.X + r.W*t, Y: r.MaxY()}
	}
}
