package canvas

import (
	"fmt"
	"log/slog"

	"weave/internal/geom"
)

// Override shadows a node's committed geometry during a gesture. Only
// the set fields apply.
type Override struct {
	Pos  *geom.Point
	Size *geom.Size
}

// Engine is the board engine. It is not safe for concurrent use: all
// calls must come from the host's event loop, matching the
// single-threaded model the interaction layer assumes.
type Engine struct {
	cfg Config
	log *slog.Logger

	state State

	target  RenderTarget
	content ContentProvider
	disp    dispatcher

	clientW float64
	clientH float64

	gesture   gesture
	overrides map[string]Override
	candidate *ProximityCandidate

	framePending bool
	targetKey    string
	mounted      map[mountKey]bool
}

// New creates an engine with an empty board.
func New(cfg Config) *Engine {
	cfg = cfg.normalized()
	return &Engine{
		cfg:       cfg,
		log:       cfg.Logger,
		state:     State{View: Viewport{Zoom: 1}},
		overrides: make(map[string]Override),
		mounted:   make(map[mountKey]bool),
	}
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// AttachTarget connects the render target. The next frame performs a
// full rebuild.
func (e *Engine) AttachTarget(t RenderTarget) {
	e.target = t
	e.targetKey = ""
	e.requestFrame()
}

// AttachContent connects the content collaborator.
func (e *Engine) AttachContent(p ContentProvider) {
	e.content = p
	e.requestFrame()
}

// SetClientSize tells the engine how large the on-screen viewport is,
// in screen units. Visibility culling works against this rect.
func (e *Engine) SetClientSize(w, h float64) {
	if w == e.clientW && h == e.clientH {
		return
	}
	e.clientW, e.clientH = w, h
	e.requestFrame()
}

// State returns a copy of the committed state.
func (e *Engine) State() State {
	return e.state.Clone()
}

// Viewport returns the current transform.
func (e *Engine) Viewport() Viewport {
	return e.state.View
}

// Load replaces the board without notifying state observers; the state
// came from persistence, so echoing it back would loop. The render
// target rebuilds on the next frame.
func (e *Engine) Load(s State) {
	e.state = e.sanitize(s)
	e.targetKey = ""
	e.overrides = make(map[string]Override)
	e.gesture = gesture{}
	e.setCandidate(nil)
	e.requestFrame()
}

// Commit validates and installs the next state, notifies observers and
// schedules an edge re-render. This is the only mutation path for
// document data; viewport-only changes go through the viewport
// methods.
func (e *Engine) Commit(next State) {
	e.state = e.sanitize(next)
	e.disp.emit(Event{Kind: EventStateCommitted, State: e.state.Clone()})
	e.requestFrame()
}

// sanitize enforces the structural invariants: known kinds, positive
// sizes, resolvable edge endpoints, valid sides, anchors in range and
// a clamped zoom. Broken pieces are repaired or dropped with a
// warning, never kept.
func (e *Engine) sanitize(s State) State {
	out := State{View: s.View}
	if out.View.Zoom == 0 {
		out.View.Zoom = 1
	}
	out.View.Zoom = geom.Clamp(out.View.Zoom, e.cfg.MinZoom, e.cfg.MaxZoom)

	seen := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if !KnownKind(n.Kind) {
			e.log.Warn("skipping node of unknown kind", "node", n.ID, "kind", n.Kind)
			continue
		}
		if seen[n.ID] {
			e.log.Warn("skipping duplicate node id", "node", n.ID)
			continue
		}
		if !n.Size.Positive() {
			min := e.cfg.minSize(n.Kind)
			e.log.Warn("clamping degenerate node size", "node", n.ID, "w", n.Size.W, "h", n.Size.H)
			n.Size = min
		}
		seen[n.ID] = true
		out.Nodes = append(out.Nodes, n)
	}

	for _, ed := range s.Edges {
		if !seen[ed.From] || !seen[ed.To] {
			e.log.Warn("dropping dangling edge", "edge", ed.ID, "from", ed.From, "to", ed.To)
			continue
		}
		if !ed.FromSide.Valid() {
			ed.FromSide = geom.SideRight
		}
		if !ed.ToSide.Valid() {
			ed.ToSide = geom.SideLeft
		}
		ed.FromT = geom.Clamp(ed.FromT, 0, 1)
		ed.ToT = geom.Clamp(ed.ToT, 0, 1)
		out.Edges = append(out.Edges, ed)
	}
	return out
}

// AddNode inserts a node, filling in the id and enforcing the size
// floor, and commits.
func (e *Engine) AddNode(n Node) (Node, error) {
	if !KnownKind(n.Kind) {
		return Node{}, fmt.Errorf("add node: unknown kind %q", n.Kind)
	}
	if n.ID == "" {
		n.ID = NewID()
	}
	if e.state.NodeIndex(n.ID) >= 0 {
		return Node{}, fmt.Errorf("add node: id %q already on board", n.ID)
	}
	n.Size = n.Size.Max(e.cfg.minSize(n.Kind))
	next := e.state.Clone()
	next.Nodes = append(next.Nodes, n)
	e.Commit(next)
	return n, nil
}

// RemoveNode deletes a node and every edge touching it.
func (e *Engine) RemoveNode(id string) bool {
	idx := e.state.NodeIndex(id)
	if idx < 0 {
		return false
	}
	next := e.state.Clone()
	next.Nodes = append(next.Nodes[:idx], next.Nodes[idx+1:]...)
	kept := next.Edges[:0]
	for _, ed := range next.Edges {
		if ed.From == id || ed.To == id {
			continue
		}
		kept = append(kept, ed)
	}
	next.Edges = kept
	if e.candidate != nil && (e.candidate.Source == id || e.candidate.Target == id) {
		e.setCandidate(nil)
	}
	e.Commit(next)
	return true
}

// MoveNode commits a new position for a node.
func (e *Engine) MoveNode(id string, pos geom.Point) bool {
	idx := e.state.NodeIndex(id)
	if idx < 0 {
		return false
	}
	next := e.state.Clone()
	next.Nodes[idx].Pos = pos
	e.Commit(next)
	return true
}

// ResizeNode commits a new size for a node, subject to its kind's
// minimum.
func (e *Engine) ResizeNode(id string, size geom.Size) bool {
	idx := e.state.NodeIndex(id)
	if idx < 0 {
		return false
	}
	next := e.state.Clone()
	next.Nodes[idx].Size = size.Max(e.cfg.minSize(next.Nodes[idx].Kind))
	e.Commit(next)
	return true
}

// AddEdge inserts an edge between two existing nodes and commits.
// Missing sides are derived from the nodes' relative positions;
// missing anchors default to the side midpoint.
func (e *Engine) AddEdge(ed Edge) (Edge, error) {
	from, ok := e.state.Node(ed.From)
	if !ok {
		return Edge{}, fmt.Errorf("add edge: unknown source node %q", ed.From)
	}
	to, ok := e.state.Node(ed.To)
	if !ok {
		return Edge{}, fmt.Errorf("add edge: unknown target node %q", ed.To)
	}
	if ed.ID == "" {
		ed.ID = NewID()
	}
	if !ed.FromSide.Valid() || !ed.ToSide.Valid() {
		ed.FromSide, ed.ToSide = relativeSides(from.Rect(), to.Rect())
	}
	if ed.FromT == 0 {
		ed.FromT = 0.5
	}
	if ed.ToT == 0 {
		ed.ToT = 0.5
	}
	next := e.state.Clone()
	next.Edges = append(next.Edges, ed)
	e.Commit(next)
	return ed, nil
}

// RemoveEdge deletes an edge by id.
func (e *Engine) RemoveEdge(id string) bool {
	next := e.state.Clone()
	kept := next.Edges[:0]
	removed := false
	for _, ed := range next.Edges {
		if ed.ID == id {
			removed = true
			continue
		}
		kept = append(kept, ed)
	}
	if !removed {
		return false
	}
	next.Edges = kept
	e.Commit(next)
	return true
}

// relativeSides picks facing sides from the dominant axis between two
// boxes: horizontal separation connects right to left, vertical
// connects bottom to top.
func relativeSides(a, b geom.Rect) (geom.Side, geom.Side) {
	ac, bc := a.Center(), b.Center()
	dx := bc.X - ac.X
	dy := bc.Y - ac.Y
	if abs(dx) >= abs(dy) {
		if dx >= 0 {
			return geom.SideRight, geom.SideLeft
		}
		return geom.SideLeft, geom.SideRight
	}
	if dy >= 0 {
		return geom.SideBottom, geom.SideTop
	}
	return geom.SideTop, geom.SideBottom
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// requestFrame marks the frame dirty, emitting EventFrameRequested at
// most once until the frame is flushed.
func (e *Engine) requestFrame() {
	if e.framePending {
		return
	}
	e.framePending = true
	e.disp.emit(Event{Kind: EventFrameRequested})
}

// FramePending reports whether a render flush is due.
func (e *Engine) FramePending() bool {
	return e.framePending
}

// effectiveNode returns a node with any live override applied.
func (e *Engine) effectiveNode(n Node) Node {
	if ov, ok := e.overrides[n.ID]; ok {
		if ov.Pos != nil {
			n.Pos = *ov.Pos
		}
		if ov.Size != nil {
			n.Size = *ov.Size
		}
	}
	return n
}

// effectiveRects resolves every node's rect with live overrides
// applied. This is the geometry the render pass, anchor planner and
// proximity checks all share within one frame.
func (e *Engine) effectiveRects() map[string]geom.Rect {
	rects := make(map[string]geom.Rect, len(e.state.Nodes))
	for _, n := range e.state.Nodes {
		rects[n.ID] = e.effectiveNode(n).Rect()
	}
	return rects
}

// RenderFrame flushes the pending frame: recompute effective geometry,
// visibility and edge routes, reconcile mounted content, push
// everything to the render target and paint. Hosts call it once per
// frame tick; it reports whether any work was done.
func (e *Engine) RenderFrame() bool {
	if !e.framePending {
		return false
	}
	e.framePending = false

	rects := e.effectiveRects()
	visible := e.visibleSet(rects)
	e.reconcileContent(visible)

	if e.target == nil {
		return true
	}

	key := e.state.StructureKey()
	if key != e.targetKey {
		e.target.Destroy()
		for _, n := range e.state.Nodes {
			e.target.AddNode(e.effectiveNode(n))
		}
		e.targetKey = key
	} else {
		for _, n := range e.state.Nodes {
			e.target.UpdateNode(e.effectiveNode(n))
		}
	}

	e.target.ClearEdges()
	plans := PlanAnchors(e.cfg, e.state.Edges, rects)
	for _, ed := range e.state.Edges {
		plan := plans[ed.ID]
		fromRect, ok := rects[ed.From]
		if !ok {
			continue
		}
		toRect, ok := rects[ed.To]
		if !ok {
			continue
		}
		req := RouteRequest{
			Kind:     e.cfg.PathKind,
			From:     fromRect.SidePoint(ed.FromSide, plan.FromT),
			To:       toRect.SidePoint(ed.ToSide, plan.ToT),
			FromSide: ed.FromSide,
			ToSide:   ed.ToSide,
			Lane:     plan.Lane,
			Lanes:    plan.Lanes,
		}
		for id, r := range rects {
			if id == ed.From || id == ed.To {
				continue
			}
			req.Obstacles = append(req.Obstacles, r)
		}
		e.target.AddEdge(ed, ComputePath(e.cfg, req))
	}

	e.target.Render(Frame{View: e.state.View, Visible: visible})
	return true
}

// reconcileContent diffs the desired mounted set (nodes with content
// refs that are on screen) against what is mounted, unmounting first.
func (e *Engine) reconcileContent(visible map[string]bool) {
	if e.content == nil {
		return
	}
	desired := make(map[mountKey]bool)
	for _, n := range e.state.Nodes {
		if n.Ref == "" || !visible[n.ID] {
			continue
		}
		desired[mountKey{kind: n.Kind, ref: n.Ref}] = true
	}
	for k := range e.mounted {
		if !desired[k] {
			e.content.Unmount(k.kind, k.ref)
			delete(e.mounted, k)
		}
	}
	for k := range desired {
		if !e.mounted[k] {
			e.content.Mount(k.kind, k.ref)
			e.mounted[k] = true
		}
	}
}
