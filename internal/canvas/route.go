package canvas

import (
	"math"
	"sort"

	"weave/internal/geom"
)

// RouteRequest describes one edge to route. Obstacles holds the raw
// boxes of every node except the two endpoints; the router applies its
// own padding. Lane and Lanes spread parallel edges sharing a target
// across distinct vertical runs.
type RouteRequest struct {
	Kind     PathKind
	From, To geom.Point
	FromSide geom.Side
	ToSide   geom.Side

	Obstacles []geom.Rect
	Lane      int
	Lanes     int
}

// maxDetourPasses bounds obstacle avoidance. One rebuilt detour is
// validated against every obstacle, so later passes only run when a
// layout defeats the row search entirely.
const maxDetourPasses = 4

// ComputePath routes an edge between two anchor points.
func ComputePath(cfg Config, req RouteRequest) Path {
	switch req.Kind {
	case PathStraight:
		pts := []geom.Point{req.From, req.To}
		return Path{
			Kind:      PathStraight,
			Elements:  lineElements(pts),
			Waypoints: pts,
			Label:     req.From.Mid(req.To),
		}
	case PathBezier:
		d := req.From.Distance(req.To)
		c1 := req.From.Add(req.FromSide.Outward().Mul(d * cfg.Curvature))
		c2 := req.To.Add(req.ToSide.Outward().Mul(d * cfg.Curvature))
		return Path{
			Kind: PathBezier,
			Elements: []PathElement{
				MoveTo{P: req.From},
				CubicTo{C1: c1, C2: c2, P: req.To},
			},
			Label: cubicAt(req.From, c1, c2, req.To, 0.5),
		}
	case PathSCurve:
		midX := (req.From.X + req.To.X) / 2
		c1 := geom.Pt(midX, req.From.Y)
		c2 := geom.Pt(midX, req.To.Y)
		return Path{
			Kind: PathSCurve,
			Elements: []PathElement{
				MoveTo{P: req.From},
				CubicTo{C1: c1, C2: c2, P: req.To},
			},
			Label: cubicAt(req.From, c1, c2, req.To, 0.5),
		}
	case PathOrtho:
		pts := dedupePoints(routeOrtho(cfg, req))
		return Path{
			Kind:      PathOrtho,
			Elements:  roundedElements(pts, cfg.CornerRadius),
			Waypoints: pts,
			Label:     polylineMid(pts),
		}
	default:
		pts := simplifyCollinear(routeSmart(cfg, req))
		return Path{
			Kind:      PathSmart,
			Elements:  roundedElements(pts, cfg.CornerRadius),
			Waypoints: pts,
			Label:     req.From.Mid(req.To),
		}
	}
}

// routeOrtho builds the fixed-offset orthogonal route: a stub leaving
// each side, joined by one or two elbows.
func routeOrtho(cfg Config, req RouteRequest) []geom.Point {
	p1 := req.From.Add(req.FromSide.Outward().Mul(cfg.StubOffset))
	p2 := req.To.Add(req.ToSide.Outward().Mul(cfg.StubOffset))

	pts := []geom.Point{req.From, p1}
	fromH := !req.FromSide.Horizontal() // stub travels horizontally off left/right sides
	toH := !req.ToSide.Horizontal()
	switch {
	case fromH && toH:
		midX := (p1.X + p2.X) / 2
		pts = append(pts, geom.Pt(midX, p1.Y), geom.Pt(midX, p2.Y))
	case !fromH && !toH:
		midY := (p1.Y + p2.Y) / 2
		pts = append(pts, geom.Pt(p1.X, midY), geom.Pt(p2.X, midY))
	case fromH:
		pts = append(pts, geom.Pt(p2.X, p1.Y))
	default:
		pts = append(pts, geom.Pt(p1.X, p2.Y))
	}
	return append(pts, p2, req.To)
}

// routeSmart is the obstacle-aware orthogonal router. It prefers a
// straight run for near-level endpoints, otherwise a three-segment
// route through a vertical lane, diverting around whatever padded box
// blocks the way.
func routeSmart(cfg Config, req RouteRequest) []geom.Point {
	from, to := req.From, req.To
	obs := make([]geom.Rect, len(req.Obstacles))
	for i, r := range req.Obstacles {
		obs[i] = r.Pad(cfg.ObstaclePad)
	}

	if math.Abs(from.Y-to.Y) <= cfg.NearLevelTol && math.Abs(from.X-to.X) > 2*cfg.NearLevelTol {
		if !segmentBlocked(obs, from, to) {
			return []geom.Point{from, to}
		}
	}

	ideal := (from.X + to.X) / 2
	off := (float64(req.Lane) - float64(req.Lanes-1)/2) * cfg.LaneSpacing
	if to.X < from.X {
		off = -off
	}
	laneX := clearLaneX(cfg, obs, ideal+off, ideal, from.Y, to.Y)

	pts := dedupePoints([]geom.Point{from, geom.Pt(laneX, from.Y), geom.Pt(laneX, to.Y), to})
	for pass := 0; pass < maxDetourPasses; pass++ {
		ob, hit := firstBlocked(obs, pts)
		if !hit {
			break
		}
		next, ok := detourAround(cfg, obs, ob, from, to)
		if !ok {
			break
		}
		pts = next
	}
	return pts
}

// segmentBlocked reports whether p-q crosses any padded box.
func segmentBlocked(obs []geom.Rect, p, q geom.Point) bool {
	for _, ob := range obs {
		if ob.IntersectsSegment(p, q) {
			return true
		}
	}
	return false
}

// firstBlocked finds the first path segment, in drawing order, that
// crosses a padded box, returning the offending box.
func firstBlocked(obs []geom.Rect, pts []geom.Point) (geom.Rect, bool) {
	for i := 0; i+1 < len(pts); i++ {
		for _, ob := range obs {
			if ob.IntersectsSegment(pts[i], pts[i+1]) {
				return ob, true
			}
		}
	}
	return geom.Rect{}, false
}

// clearLaneX keeps the vertical run out of boxes that overlap the
// edge's Y span. Forbidden X intervals are merged and the nearest free
// X to the requested lane wins; a fully blocked axis falls back to the
// plain midpoint.
func clearLaneX(cfg Config, obs []geom.Rect, laneX, ideal, y0, y1 float64) float64 {
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	type span struct{ lo, hi float64 }
	var forbidden []span
	for _, ob := range obs {
		if ob.Y < y1 && ob.MaxY() > y0 {
			forbidden = append(forbidden, span{ob.X, ob.MaxX()})
		}
	}
	inside := func(x float64) bool {
		for _, s := range forbidden {
			if x > s.lo && x < s.hi {
				return true
			}
		}
		return false
	}
	if !inside(laneX) {
		return laneX
	}

	sort.Slice(forbidden, func(i, j int) bool { return forbidden[i].lo < forbidden[j].lo })
	var merged []span
	for _, s := range forbidden {
		if n := len(merged); n > 0 && s.lo <= merged[n-1].hi {
			if s.hi > merged[n-1].hi {
				merged[n-1].hi = s.hi
			}
			continue
		}
		merged = append(merged, s)
	}

	// Candidate lanes sit just outside each merged interval and in the
	// gaps between them.
	m := cfg.DetourMargin
	var candidates []float64
	candidates = append(candidates, merged[0].lo-m)
	for i := 0; i+1 < len(merged); i++ {
		gapLo, gapHi := merged[i].hi, merged[i+1].lo
		if gapHi-gapLo < 2*m {
			continue
		}
		candidates = append(candidates, geom.Clamp(laneX, gapLo+m, gapHi-m))
	}
	candidates = append(candidates, merged[len(merged)-1].hi+m)

	best := ideal
	bestDist := math.Inf(1)
	found := false
	for _, c := range candidates {
		if inside(c) {
			continue
		}
		if d := math.Abs(c - laneX); d < bestDist {
			best, bestDist = c, d
			found = true
		}
	}
	if !found {
		return ideal
	}
	return best
}

// detourAround rebuilds the whole route as an up-to-six-point path
// through a horizontal row clearing the blocking box. Rows are tried
// closest-first to the straight path's average Y; the first row whose
// complete path clears every box wins.
func detourAround(cfg Config, obs []geom.Rect, ob geom.Rect, from, to geom.Point) ([]geom.Point, bool) {
	m := cfg.DetourMargin
	avgY := (from.Y + to.Y) / 2

	rows := []float64{ob.Y - m, ob.MaxY() + m}
	for _, other := range obs {
		rows = append(rows, other.Y-m, other.MaxY()+m)
	}
	sort.Slice(rows, func(i, j int) bool {
		return math.Abs(rows[i]-avgY) < math.Abs(rows[j]-avgY)
	})

	// Column pairs to divert through: tight around the blocking box
	// first, then around the bounds of everything as a last resort.
	all := ob
	for _, other := range obs {
		all = all.Union(other)
	}
	cols := [][2]float64{
		{ob.X - m, ob.MaxX() + m},
		{all.X - m, all.MaxX() + m},
	}

	for _, col := range cols {
		x1, x2 := col[0], col[1]
		if to.X < from.X {
			x1, x2 = x2, x1
		}
		for _, row := range rows {
			pts := dedupePoints([]geom.Point{
				from,
				geom.Pt(x1, from.Y),
				geom.Pt(x1, row),
				geom.Pt(x2, row),
				geom.Pt(x2, to.Y),
				to,
			})
			if _, hit := firstBlocked(obs, pts); !hit {
				return pts, true
			}
		}
	}
	return nil, false
}

const pointTol = 0.01

// dedupePoints drops consecutive near-duplicate points.
func dedupePoints(pts []geom.Point) []geom.Point {
	out := pts[:0:0]
	for _, p := range pts {
		if n := len(out); n > 0 {
			prev := out[n-1]
			if math.Abs(prev.X-p.X) < pointTol && math.Abs(prev.Y-p.Y) < pointTol {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// simplifyCollinear removes middle points lying on a straight axis
// run. Applied to finished smart routes only; orthogonal routes keep
// their stub points.
func simplifyCollinear(pts []geom.Point) []geom.Point {
	out := append(pts[:0:0], pts...)
	for i := 1; i+1 < len(out); {
		a, b, c := out[i-1], out[i], out[i+1]
		sameX := math.Abs(a.X-b.X) < pointTol && math.Abs(b.X-c.X) < pointTol
		sameY := math.Abs(a.Y-b.Y) < pointTol && math.Abs(b.Y-c.Y) < pointTol
		if sameX || sameY {
			out = append(out[:i], out[i+1:]...)
			continue
		}
		i++
	}
	return out
}
