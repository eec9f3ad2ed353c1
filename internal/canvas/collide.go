package canvas

import (
	"math"

	"weave/internal/geom"
)

// Box is a node's rectangle as seen by the collision resolver.
type Box struct {
	ID   string
	Rect geom.Rect
}

// ResolveOptions tunes a collision pass. Zero values fall back to the
// documented defaults.
type ResolveOptions struct {
	// Exclude lists unordered id pairs allowed to keep overlapping.
	Exclude [][2]string
	// Iterations caps relaxation rounds (default 50).
	Iterations int
	// Margin is the minimum gap kept between boxes (default 20).
	Margin float64
	// OverlapThreshold is the smallest penetration worth fixing
	// (default 0.5).
	OverlapThreshold float64
}

func (o ResolveOptions) normalized() ResolveOptions {
	if o.Iterations <= 0 {
		o.Iterations = 50
	}
	if o.Margin <= 0 {
		o.Margin = 20
	}
	if o.OverlapThreshold <= 0 {
		o.OverlapThreshold = 0.5
	}
	return o
}

// ResolveCollisions pushes overlapping boxes apart with pairwise
// relaxation. Each round visits every pair; boxes overlapping beyond
// the threshold (after margin padding) move apart along the axis of
// least penetration, half the depth each. Rounds repeat until a clean
// pass or the iteration cap. Returns the new positions of boxes that
// moved.
func ResolveCollisions(boxes []Box, opts ResolveOptions) (map[string]geom.Point, bool) {
	opts = opts.normalized()

	work := make([]Box, len(boxes))
	copy(work, boxes)

	excluded := make(map[[2]string]bool, len(opts.Exclude))
	for _, p := range opts.Exclude {
		excluded[pairKey(p[0], p[1])] = true
	}

	pad := opts.Margin / 2
	for iter := 0; iter < opts.Iterations; iter++ {
		moved := false
		for i := 0; i < len(work); i++ {
			for j := i + 1; j < len(work); j++ {
				if excluded[pairKey(work[i].ID, work[j].ID)] {
					continue
				}
				a := work[i].Rect.Pad(pad)
				b := work[j].Rect.Pad(pad)
				overlapX := math.Min(a.MaxX(), b.MaxX()) - math.Max(a.X, b.X)
				overlapY := math.Min(a.MaxY(), b.MaxY()) - math.Max(a.Y, b.Y)
				if overlapX <= opts.OverlapThreshold || overlapY <= opts.OverlapThreshold {
					continue
				}
				if overlapX < overlapY {
					shift := overlapX / 2
					if a.Center().X > b.Center().X {
						shift = -shift
					}
					work[i].Rect.X -= shift
					work[j].Rect.X += shift
				} else {
					shift := overlapY / 2
					if a.Center().Y > b.Center().Y {
						shift = -shift
					}
					work[i].Rect.Y -= shift
					work[j].Rect.Y += shift
				}
				moved = true
			}
		}
		if !moved {
			break
		}
	}

	changed := false
	out := make(map[string]geom.Point)
	for i, b := range boxes {
		if work[i].Rect.Pos() != b.Rect.Pos() {
			out[b.ID] = work[i].Rect.Pos()
			changed = true
		}
	}
	return out, changed
}

// pairKey builds an order-independent map key for an id pair.
func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
