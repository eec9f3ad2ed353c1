package canvas

import (
	"sort"

	"weave/internal/geom"
)

// AnchorPlan is the per-edge output of PlanAnchors: recomputed anchor
// parameters plus the routing lane among edges sharing a target.
type AnchorPlan struct {
	FromT float64
	ToT   float64
	Lane  int
	Lanes int
}

// Anchor spread window bounds come from Config: fan-out anchors stay
// inside [SpreadMin, SpreadMax] so several edges leaving one side stay
// visually grouped around its midpoint.

// PlanAnchors recomputes anchor parameters for every edge against the
// effective node rectangles (committed geometry with any live gesture
// override already applied). Edges whose endpoints are missing from
// rects keep their stored parameters.
func PlanAnchors(cfg Config, edges []Edge, rects map[string]geom.Rect) map[string]AnchorPlan {
	plans := make(map[string]AnchorPlan, len(edges))
	for _, e := range edges {
		plans[e.ID] = AnchorPlan{FromT: e.FromT, ToT: e.ToT, Lanes: 1}
	}

	resolved := edges[:0:0]
	for _, e := range edges {
		if _, ok := rects[e.From]; !ok {
			continue
		}
		if _, ok := rects[e.To]; !ok {
			continue
		}
		resolved = append(resolved, e)
	}

	spreadSourceAnchors(cfg, resolved, rects, plans)
	alignTargetAnchors(cfg, resolved, rects, plans)
	assignLanes(resolved, rects, plans)
	return plans
}

// spreadSourceAnchors distributes the edges leaving each (node, side)
// group across the spread window, ordered by where the other endpoint
// sits so edges never cross right at the source.
func spreadSourceAnchors(cfg Config, edges []Edge, rects map[string]geom.Rect, plans map[string]AnchorPlan) {
	type groupKey struct {
		node string
		side geom.Side
	}
	groups := make(map[groupKey][]Edge)
	for _, e := range edges {
		k := groupKey{node: e.From, side: e.FromSide}
		groups[k] = append(groups[k], e)
	}

	for k, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			a := rects[group[i].To].Center()
			b := rects[group[j].To].Center()
			ca, cb := a.Y, b.Y
			if k.side.Horizontal() {
				ca, cb = a.X, b.X
			}
			if ca != cb {
				return ca < cb
			}
			return group[i].ID < group[j].ID
		})
		n := len(group)
		for i, e := range group {
			p := plans[e.ID]
			if n == 1 {
				p.FromT = 0.5
			} else {
				p.FromT = cfg.SpreadMin + (cfg.SpreadMax-cfg.SpreadMin)*float64(i)/float64(n-1)
			}
			plans[e.ID] = p
		}
	}
}

// alignTargetAnchors slides each target anchor toward the source's
// center. Short sides snap to their midpoint instead of sliding.
func alignTargetAnchors(cfg Config, edges []Edge, rects map[string]geom.Rect, plans map[string]AnchorPlan) {
	for _, e := range edges {
		p := plans[e.ID]
		target := rects[e.To]
		start, length := target.SideSpan(e.ToSide)
		if length < cfg.FreeSlideMin {
			p.ToT = 0.5
			plans[e.ID] = p
			continue
		}
		src := rects[e.From].Center()
		center := src.Y
		if e.ToSide.Horizontal() {
			center = src.X
		}
		ideal := (center - start) / length
		p.ToT = geom.Clamp(ideal, cfg.TargetMargin, 1-cfg.TargetMargin)
		plans[e.ID] = p
	}
}

// assignLanes ranks the edges arriving at each target node by their
// source's vertical position, giving parallel edges distinct vertical
// runs in the smart router.
func assignLanes(edges []Edge, rects map[string]geom.Rect, plans map[string]AnchorPlan) {
	byTarget := make(map[string][]Edge)
	for _, e := range edges {
		byTarget[e.To] = append(byTarget[e.To], e)
	}
	for _, group := range byTarget {
		sort.Slice(group, func(i, j int) bool {
			a := rects[group[i].From].Center().Y
			b := rects[group[j].From].Center().Y
			if a != b {
				return a < b
			}
			return group[i].ID < group[j].ID
		})
		for i, e := range group {
			p := plans[e.ID]
			p.Lane = i
			p.Lanes = len(group)
			plans[e.ID] = p
		}
	}
}
