package canvas

import "weave/internal/geom"

// Handle identifies a corner resize handle by its direction signs:
// +1 grows the box when the pointer moves right/down, -1 when it moves
// left/up.
type Handle struct {
	DX, DY int
}

// The four corner handles.
var (
	HandleNW = Handle{DX: -1, DY: -1}
	HandleNE = Handle{DX: 1, DY: -1}
	HandleSW = Handle{DX: -1, DY: 1}
	HandleSE = Handle{DX: 1, DY: 1}
)

func (h Handle) valid() bool {
	return (h.DX == 1 || h.DX == -1) && (h.DY == 1 || h.DY == -1)
}

// handleHitPx is the screen-space half-size of a corner grab zone.
const handleHitPx = 8

type gestureKind int

const (
	gestureNone gestureKind = iota
	gestureDrag
	gestureResize
)

// gesture tracks the one active pointer interaction. Start geometry is
// captured at begin time; every move recomputes from it rather than
// accumulating deltas.
type gesture struct {
	kind         gestureKind
	node         string
	handle       Handle
	startPointer geom.Point
	startPos     geom.Point
	startSize    geom.Size
}

// GestureActive reports whether a drag or resize is in progress. The
// host suppresses panning while true.
func (e *Engine) GestureActive() bool {
	return e.gesture.kind != gestureNone
}

// HitTest resolves what sits under a screen point: the topmost node,
// and if the point falls on one of its corner grab zones, the matching
// handle. ok is false over empty canvas.
func (e *Engine) HitTest(screen geom.Point) (id string, h Handle, ok bool) {
	grab := handleHitPx / e.state.View.Zoom
	p := e.state.View.ToCanvas(screen)
	for i := len(e.state.Nodes) - 1; i >= 0; i-- {
		n := e.effectiveNode(e.state.Nodes[i])
		r := n.Rect()
		if !r.Pad(grab).Contains(p) {
			continue
		}
		corners := []struct {
			pt geom.Point
			h  Handle
		}{
			{geom.Pt(r.X, r.Y), HandleNW},
			{geom.Pt(r.MaxX(), r.Y), HandleNE},
			{geom.Pt(r.X, r.MaxY()), HandleSW},
			{geom.Pt(r.MaxX(), r.MaxY()), HandleSE},
		}
		for _, c := range corners {
			if p.Distance(c.pt) <= grab {
				return n.ID, c.h, true
			}
		}
		if r.Contains(p) {
			return n.ID, Handle{}, true
		}
	}
	return "", Handle{}, false
}

// BeginDrag starts dragging a node. It fails when another gesture is
// active or the node does not exist.
func (e *Engine) BeginDrag(nodeID string, pointer geom.Point) bool {
	if e.gesture.kind != gestureNone {
		return false
	}
	n, ok := e.state.Node(nodeID)
	if !ok {
		e.log.Warn("drag on unknown node", "node", nodeID)
		return false
	}
	e.gesture = gesture{
		kind:         gestureDrag,
		node:         nodeID,
		startPointer: pointer,
		startPos:     n.Pos,
		startSize:    n.Size,
	}
	return true
}

// BeginResize starts resizing a node from one of its corner handles.
func (e *Engine) BeginResize(nodeID string, h Handle, pointer geom.Point) bool {
	if e.gesture.kind != gestureNone || !h.valid() {
		return false
	}
	n, ok := e.state.Node(nodeID)
	if !ok {
		e.log.Warn("resize on unknown node", "node", nodeID)
		return false
	}
	e.gesture = gesture{
		kind:         gestureResize,
		node:         nodeID,
		handle:       h,
		startPointer: pointer,
		startPos:     n.Pos,
		startSize:    n.Size,
	}
	return true
}

// PointerMove advances the active gesture to a new screen position.
// Geometry changes land in the live override only; nothing is
// committed until release.
func (e *Engine) PointerMove(pointer geom.Point) {
	g := e.gesture
	if g.kind == gestureNone {
		return
	}
	delta := pointer.Sub(g.startPointer).Mul(1 / e.state.View.Zoom)

	switch g.kind {
	case gestureDrag:
		pos := g.startPos.Add(delta)
		e.overrides[g.node] = Override{Pos: &pos}
		e.checkProximity(g.node)
	case gestureResize:
		pos, size := e.resizeGeometry(g, delta)
		e.overrides[g.node] = Override{Pos: &pos, Size: &size}
	}
	e.requestFrame()
}

// resizeGeometry applies the handle's direction signs to the pointer
// delta. Image nodes keep their aspect ratio, blending the two axes;
// minimum sizes win over the aspect lock at the extremes.
func (e *Engine) resizeGeometry(g gesture, delta geom.Point) (geom.Point, geom.Size) {
	n, ok := e.state.Node(g.node)
	if !ok {
		return g.startPos, g.startSize
	}
	dx := delta.X * float64(g.handle.DX)
	dy := delta.Y * float64(g.handle.DY)

	var w, h float64
	if n.Kind == KindImage && g.startSize.H > 0 {
		ar := g.startSize.W / g.startSize.H
		w = g.startSize.W + (dx+dy*ar)/(1+ar)
		h = w / ar
	} else {
		w = g.startSize.W + dx
		h = g.startSize.H + dy
	}

	min := e.cfg.minSize(n.Kind)
	if w < min.W {
		w = min.W
	}
	if h < min.H {
		h = min.H
	}

	pos := g.startPos
	if g.handle.DX < 0 {
		pos.X = g.startPos.X + (g.startSize.W - w)
	}
	if g.handle.DY < 0 {
		pos.Y = g.startPos.Y + (g.startSize.H - h)
	}
	return pos, geom.Size{W: w, H: h}
}

// EndGesture releases the active gesture: commit the final geometry,
// resolve collisions across the board, commit any corrections, then
// attempt the pending proximity connection. There is no cancel path;
// release always commits the last live geometry.
func (e *Engine) EndGesture() {
	g := e.gesture
	if g.kind == gestureNone {
		return
	}
	final := e.effectiveNode(mustNode(e.state, g.node))
	e.gesture = gesture{}
	delete(e.overrides, g.node)

	idx := e.state.NodeIndex(g.node)
	if idx < 0 {
		e.setCandidate(nil)
		return
	}
	next := e.state.Clone()
	next.Nodes[idx].Pos = final.Pos
	next.Nodes[idx].Size = final.Size
	e.Commit(next)

	e.resolveBoardCollisions()
	e.CommitProximityConnection()
}

// resolveBoardCollisions runs one collision pass over every node and
// commits the corrections. The pending proximity pair keeps its
// overlap so an imminent auto-connect is not pushed apart.
func (e *Engine) resolveBoardCollisions() {
	boxes := make([]Box, len(e.state.Nodes))
	for i, n := range e.state.Nodes {
		boxes[i] = Box{ID: n.ID, Rect: n.Rect()}
	}
	var exclude [][2]string
	if c := e.candidate; c != nil {
		exclude = append(exclude, [2]string{c.Source, c.Target})
	}
	moved, changed := ResolveCollisions(boxes, ResolveOptions{
		Exclude:          exclude,
		Iterations:       e.cfg.CollideIterations,
		Margin:           e.cfg.CollideMargin,
		OverlapThreshold: e.cfg.OverlapThreshold,
	})
	if !changed {
		return
	}
	next := e.state.Clone()
	for i, n := range next.Nodes {
		if pos, ok := moved[n.ID]; ok {
			next.Nodes[i].Pos = pos
		}
	}
	e.Commit(next)
}

func mustNode(s State, id string) Node {
	n, _ := s.Node(id)
	return n
}
