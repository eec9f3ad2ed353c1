package canvas

import "weave/internal/geom"

// RenderTarget is the minimal surface the engine draws onto. The
// terminal editor and the PNG exporter both implement it; tests use a
// recording fake.
//
// The engine drives the target with two update shapes, chosen by
// comparing structure keys: a full rebuild (Destroy, then AddNode for
// every node) when the node set changed, or in-place UpdateNode calls
// when only geometry moved. Edge visuals are cleared and re-added as a
// whole on every frame, since anchors and routes depend on global
// geometry.
type RenderTarget interface {
	AddNode(n Node)
	UpdateNode(n Node)
	AddEdge(e Edge, p Path)
	ClearEdges()
	Render(f Frame)
	Destroy()
}

// Frame is the per-paint snapshot handed to RenderTarget.Render.
// Visible holds the ids of nodes whose screen box intersects the
// client rect; targets use it to keep off-screen content unmounted
// without recomputing culling themselves.
type Frame struct {
	View    Viewport
	Visible map[string]bool
}

// ContentProvider owns what lives inside nodes. The engine calls Mount
// when a node's content should come alive (node present and on screen)
// and Unmount when it leaves the board or scrolls out of view. Content
// is keyed by (kind, ref) and never inspected by the engine.
type ContentProvider interface {
	Mount(kind NodeKind, ref string)
	Unmount(kind NodeKind, ref string)
}

// mountKey identifies mounted content.
type mountKey struct {
	kind NodeKind
	ref  string
}

// clientRect returns the screen-space client rectangle.
func clientRect(w, h float64) geom.Rect {
	return geom.Rect{W: w, H: h}
}
