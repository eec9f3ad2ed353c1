package canvas

import (
	"math"

	"weave/internal/geom"
)

// ProximityCandidate is the one pending auto-connection: the dragged
// node, the nearest compatible neighbor and their screen-space gap.
type ProximityCandidate struct {
	Source   string
	Target   string
	Distance float64
}

// Candidate returns a copy of the pending auto-connection, or nil.
func (e *Engine) Candidate() *ProximityCandidate {
	if e.candidate == nil {
		return nil
	}
	c := *e.candidate
	return &c
}

// checkProximity re-evaluates the auto-connect candidate for the
// dragged node against its live geometry. At most one candidate exists
// board-wide; moving out of range clears it.
func (e *Engine) checkProximity(draggedID string) {
	if len(e.cfg.Compatibility) == 0 {
		e.setCandidate(nil)
		return
	}
	dragged, ok := e.state.Node(draggedID)
	if !ok {
		e.setCandidate(nil)
		return
	}

	// A node that already has a proximity-eligible edge never acquires
	// a second one. The check is directional: it guards the dragged
	// side only.
	for _, ed := range e.state.EdgesAt(draggedID) {
		otherID := ed.From
		if otherID == draggedID {
			otherID = ed.To
		}
		if other, ok := e.state.Node(otherID); ok && e.cfg.pairAllowed(dragged.Kind, other.Kind) {
			e.setCandidate(nil)
			return
		}
	}

	rects := e.effectiveRects()
	draggedRect, ok := rects[draggedID]
	if !ok {
		e.setCandidate(nil)
		return
	}

	zoom := e.state.View.Zoom
	var best *ProximityCandidate
	for _, n := range e.state.Nodes {
		if n.ID == draggedID || n.Kind == dragged.Kind {
			continue
		}
		if !e.cfg.pairAllowed(dragged.Kind, n.Kind) {
			continue
		}
		if e.state.Connected(draggedID, n.ID) {
			continue
		}
		r, ok := rects[n.ID]
		if !ok {
			continue
		}
		dist := rectGap(draggedRect, r) * zoom
		if dist >= e.cfg.ProximityThreshold {
			continue
		}
		if best == nil || dist < best.Distance {
			best = &ProximityCandidate{Source: draggedID, Target: n.ID, Distance: dist}
		}
	}
	e.setCandidate(best)
}

// CommitProximityConnection materializes the pending candidate as one
// new edge in a single commit, then clears it. With no candidate (or a
// stale one) it does nothing, so calling it twice is safe.
func (e *Engine) CommitProximityConnection() {
	c := e.candidate
	if c == nil {
		return
	}
	e.setCandidate(nil)

	src, ok := e.state.Node(c.Source)
	if !ok {
		return
	}
	dst, ok := e.state.Node(c.Target)
	if !ok {
		return
	}
	if e.state.Connected(c.Source, c.Target) {
		return
	}

	fromSide, toSide := relativeSides(src.Rect(), dst.Rect())
	next := e.state.Clone()
	next.Edges = append(next.Edges, Edge{
		ID:       NewID(),
		From:     c.Source,
		To:       c.Target,
		FromSide: fromSide,
		ToSide:   toSide,
		FromT:    0.5,
		ToT:      0.5,
	})
	e.Commit(next)
}

// setCandidate swaps the candidate and emits EventProximityChanged
// when it actually changed.
func (e *Engine) setCandidate(c *ProximityCandidate) {
	if c == nil && e.candidate == nil {
		return
	}
	if c != nil && e.candidate != nil &&
		c.Source == e.candidate.Source && c.Target == e.candidate.Target {
		// Same pair; refresh the distance without an event.
		e.candidate = c
		return
	}
	e.candidate = c
	e.disp.emit(Event{Kind: EventProximityChanged, Candidate: e.Candidate()})
}

// rectGap is the shortest canvas-space distance between two boxes,
// zero when they touch or overlap.
func rectGap(a, b geom.Rect) float64 {
	dx := math.Max(0, math.Max(a.X-b.MaxX(), b.X-a.MaxX()))
	dy := math.Max(0, math.Max(a.Y-b.MaxY(), b.Y-a.MaxY()))
	return math.Hypot(dx, dy)
}
