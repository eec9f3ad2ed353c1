package canvas

import "weave/internal/geom"

// PathKind selects the routing strategy for an edge.
type PathKind string

const (
	// PathStraight is a single line segment.
	PathStraight PathKind = "straight"
	// PathBezier is a cubic curve bowing outward from both sides.
	PathBezier PathKind = "bezier"
	// PathOrtho is an axis-aligned route with rounded corners and a
	// fixed stub leaving each side.
	PathOrtho PathKind = "orthogonal"
	// PathSCurve is a symmetric cubic for horizontal flows, both
	// control points at the horizontal midpoint.
	PathSCurve PathKind = "scurve"
	// PathSmart is the obstacle-aware orthogonal router.
	PathSmart PathKind = "smart"
)

// PathElement is one drawing command of a routed path.
type PathElement interface {
	isPathElement()
}

// MoveTo starts the path at a point.
type MoveTo struct {
	P geom.Point
}

func (MoveTo) isPathElement() {}

// LineTo draws a line segment.
type LineTo struct {
	P geom.Point
}

func (LineTo) isPathElement() {}

// QuadTo draws a quadratic curve; rounded corners use it.
type QuadTo struct {
	C geom.Point
	P geom.Point
}

func (QuadTo) isPathElement() {}

// CubicTo draws a cubic curve.
type CubicTo struct {
	C1 geom.Point
	C2 geom.Point
	P  geom.Point
}

func (CubicTo) isPathElement() {}

// Path is a routed edge: drawing commands plus the anchor point for a
// label. For orthogonal kinds Waypoints carries the polyline before
// corner rounding; curved kinds leave it nil.
type Path struct {
	Kind      PathKind
	Elements  []PathElement
	Waypoints []geom.Point
	Label     geom.Point
}

// Start returns the first point of the path.
func (p Path) Start() geom.Point {
	if len(p.Elements) == 0 {
		return geom.Point{}
	}
	if m, ok := p.Elements[0].(MoveTo); ok {
		return m.P
	}
	return geom.Point{}
}

// End returns the final point of the path.
func (p Path) End() geom.Point {
	for i := len(p.Elements) - 1; i >= 0; i-- {
		switch el := p.Elements[i].(type) {
		case MoveTo:
			return el.P
		case LineTo:
			return el.P
		case QuadTo:
			return el.P
		case CubicTo:
			return el.P
		}
	}
	return geom.Point{}
}

// lineElements converts a polyline into path commands.
func lineElements(pts []geom.Point) []PathElement {
	if len(pts) == 0 {
		return nil
	}
	els := make([]PathElement, 0, len(pts))
	els = append(els, MoveTo{P: pts[0]})
	for _, p := range pts[1:] {
		els = append(els, LineTo{P: p})
	}
	return els
}

// roundedElements converts an orthogonal polyline into commands with
// rounded corners. Each bend radius shrinks to fit its two adjoining
// segments, never exceeding half of either.
func roundedElements(pts []geom.Point, radius float64) []PathElement {
	if len(pts) < 3 || radius <= 0 {
		return lineElements(pts)
	}
	els := []PathElement{MoveTo{P: pts[0]}}
	for i := 1; i < len(pts)-1; i++ {
		prev, cur, next := pts[i-1], pts[i], pts[i+1]
		inLen := cur.Distance(prev)
		outLen := cur.Distance(next)
		if inLen == 0 || outLen == 0 {
			els = append(els, LineTo{P: cur})
			continue
		}
		r := radius
		if half := inLen / 2; r > half {
			r = half
		}
		if half := outLen / 2; r > half {
			r = half
		}
		if r <= 0 {
			els = append(els, LineTo{P: cur})
			continue
		}
		entry := cur.Lerp(prev, r/inLen)
		exit := cur.Lerp(next, r/outLen)
		els = append(els, LineTo{P: entry}, QuadTo{C: cur, P: exit})
	}
	els = append(els, LineTo{P: pts[len(pts)-1]})
	return els
}

// polylineMid returns the point halfway along a polyline by arc
// length.
func polylineMid(pts []geom.Point) geom.Point {
	if len(pts) == 0 {
		return geom.Point{}
	}
	if len(pts) == 1 {
		return pts[0]
	}
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += pts[i].Distance(pts[i-1])
	}
	if total == 0 {
		return pts[0]
	}
	half := total / 2
	for i := 1; i < len(pts); i++ {
		seg := pts[i].Distance(pts[i-1])
		if half <= seg {
			return pts[i-1].Lerp(pts[i], half/seg)
		}
		half -= seg
	}
	return pts[len(pts)-1]
}

// cubicAt evaluates a cubic Bezier at parameter t.
func cubicAt(p0, c1, c2, p1 geom.Point, t float64) geom.Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return geom.Point{
		X: a*p0.X + b*c1.X + c*c2.X + d*p1.X,
		Y: a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y,
	}
}
