// Package canvas implements the board engine: a committed node/edge
// state store, a pan/zoom viewport, anchor placement, obstacle-aware
// edge routing, collision resolution, drag/resize gestures and
// proximity auto-connect. The engine owns geometry and interaction
// only; node content, rendering primitives and persistence belong to
// collaborators attached through the interfaces in render.go.
package canvas

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"weave/internal/geom"
)

// NodeKind classifies a node. The set is closed; states containing an
// unknown kind have that node skipped at load time.
type NodeKind string

const (
	KindNote   NodeKind = "note"
	KindImage  NodeKind = "image"
	KindThread NodeKind = "thread"
)

// KnownKind reports whether k is one of the supported node kinds.
func KnownKind(k NodeKind) bool {
	switch k {
	case KindNote, KindImage, KindThread:
		return true
	}
	return false
}

// Node is a positioned box on the board. Ref identifies the content
// a collaborator mounts into it; the engine never looks inside.
type Node struct {
	ID   string     `json:"id"`
	Kind NodeKind   `json:"kind"`
	Ref  string     `json:"ref,omitempty"`
	Pos  geom.Point `json:"pos"`
	Size geom.Size  `json:"size"`
}

// Rect returns the node's box in canvas coordinates.
func (n Node) Rect() geom.Rect {
	return geom.RectOf(n.Pos, n.Size)
}

// Edge joins two nodes. Anchor parameters FromT and ToT place the
// endpoints along their sides in [0, 1]. FromSubAnchor optionally pins
// the source to a sub-element of the node's content; the engine stores
// it opaquely for the content collaborator.
type Edge struct {
	ID            string    `json:"id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	FromSide      geom.Side `json:"fromSide"`
	ToSide        geom.Side `json:"toSide"`
	FromT         float64   `json:"fromT"`
	ToT           float64   `json:"toT"`
	FromSubAnchor string    `json:"fromSubAnchor,omitempty"`
}

// Viewport is the pan/zoom transform from canvas to screen space:
// screen = canvas*Zoom + offset.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// ToScreen maps a canvas point to screen coordinates.
func (v Viewport) ToScreen(p geom.Point) geom.Point {
	return geom.Point{X: p.X*v.Zoom + v.X, Y: p.Y*v.Zoom + v.Y}
}

// ToCanvas maps a screen point back to canvas coordinates.
func (v Viewport) ToCanvas(p geom.Point) geom.Point {
	return geom.Point{X: (p.X - v.X) / v.Zoom, Y: (p.Y - v.Y) / v.Zoom}
}

// RectToScreen maps a canvas rectangle to screen coordinates.
func (v Viewport) RectToScreen(r geom.Rect) geom.Rect {
	return geom.Rect{X: r.X*v.Zoom + v.X, Y: r.Y*v.Zoom + v.Y, W: r.W * v.Zoom, H: r.H * v.Zoom}
}

// State is the complete board document: the unit of commit,
// serialization and persistence.
type State struct {
	Nodes []Node   `json:"nodes"`
	Edges []Edge   `json:"edges"`
	View  Viewport `json:"viewport"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{View: s.View}
	if len(s.Nodes) > 0 {
		out.Nodes = make([]Node, len(s.Nodes))
		copy(out.Nodes, s.Nodes)
	}
	if len(s.Edges) > 0 {
		out.Edges = make([]Edge, len(s.Edges))
		copy(out.Edges, s.Edges)
	}
	return out
}

// Node looks a node up by id.
func (s State) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeIndex returns the index of a node in Nodes, or -1.
func (s State) NodeIndex(id string) int {
	for i, n := range s.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Edge looks an edge up by id.
func (s State) Edge(id string) (Edge, bool) {
	for _, e := range s.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// Connected reports whether any edge joins nodes a and b, in either
// direction.
func (s State) Connected(a, b string) bool {
	for _, e := range s.Edges {
		if (e.From == a && e.To == b) || (e.From == b && e.To == a) {
			return true
		}
	}
	return false
}

// EdgesAt returns every edge touching the given node.
func (s State) EdgesAt(id string) []Edge {
	var out []Edge
	for _, e := range s.Edges {
		if e.From == id || e.To == id {
			out = append(out, e)
		}
	}
	return out
}

// StructureKey fingerprints the board's structure as sorted id:kind
// pairs. Two states with equal keys hold the same node set, so a
// commit between them can update visuals in place; differing keys
// force a render-target rebuild and a content mount/unmount cycle.
func (s State) StructureKey() string {
	parts := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		parts[i] = n.ID + ":" + string(n.Kind)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// Bounds returns the union of all node boxes. ok is false for an
// empty board.
func (s State) Bounds() (r geom.Rect, ok bool) {
	for i, n := range s.Nodes {
		if i == 0 {
			r = n.Rect()
			continue
		}
		r = r.Union(n.Rect())
	}
	return r, len(s.Nodes) > 0
}

// NewID returns a fresh identifier for nodes and edges.
func NewID() string {
	return uuid.New().String()
}
