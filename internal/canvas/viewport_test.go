package canvas

import (
	"math"
	"testing"

	"weave/internal/geom"
)

func TestViewportRoundTrip(t *testing.T) {
	v := Viewport{X: 120, Y: -40, Zoom: 1.5}
	pts := []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 250}, {X: -30, Y: 7}}
	for _, p := range pts {
		back := v.ToCanvas(v.ToScreen(p))
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("round trip %v -> %v", p, back)
		}
	}
	if got := v.ToScreen(geom.Pt(100, 200)); got != geom.Pt(270, 260) {
		t.Errorf("ToScreen = %v", got)
	}
}

func TestZoomAtKeepsAnchorFixed(t *testing.T) {
	e := New(DefaultConfig())
	anchor := geom.Pt(300, 200)
	before := e.Viewport().ToCanvas(anchor)

	e.ZoomAt(anchor, 2)
	after := e.Viewport()
	if after.Zoom != 2 {
		t.Fatalf("zoom = %v, want 2", after.Zoom)
	}
	if got := after.ToScreen(before); math.Abs(got.X-anchor.X) > 1e-9 || math.Abs(got.Y-anchor.Y) > 1e-9 {
		t.Errorf("anchor drifted: canvas %v now at screen %v", before, got)
	}
}

func TestZoomClampedToRange(t *testing.T) {
	e := New(DefaultConfig())
	e.ZoomAt(geom.Pt(0, 0), 1000)
	if got := e.Viewport().Zoom; got != e.Config().MaxZoom {
		t.Errorf("zoom = %v, want max %v", got, e.Config().MaxZoom)
	}
	e.ZoomAt(geom.Pt(0, 0), 1e-6)
	if got := e.Viewport().Zoom; got != e.Config().MinZoom {
		t.Errorf("zoom = %v, want min %v", got, e.Config().MinZoom)
	}
}

func TestPanEmitsViewportEvent(t *testing.T) {
	e := New(DefaultConfig())
	var views []Viewport
	e.Subscribe(EventViewportChanged, func(ev Event) { views = append(views, ev.View) })

	e.Pan(15, -5)
	if len(views) != 1 {
		t.Fatalf("viewport events = %d, want 1", len(views))
	}
	if views[0].X != 15 || views[0].Y != -5 {
		t.Errorf("panned view = %+v", views[0])
	}
	e.Pan(0, 0)
	if len(views) != 1 {
		t.Error("zero pan emitted an event")
	}
}

func TestZoomToFitFramesContent(t *testing.T) {
	e := New(DefaultConfig())
	e.SetClientSize(800, 600)
	mustAdd(t, e, Node{ID: "a", Kind: KindNote, Pos: geom.Pt(0, 0), Size: geom.Sz(200, 100)})
	mustAdd(t, e, Node{ID: "b", Kind: KindNote, Pos: geom.Pt(200, 200), Size: geom.Sz(200, 100)})

	e.ZoomToFit(0)
	v := e.Viewport()
	// Bounds are 400x300, client 800x600: zoom doubles and content
	// centers.
	if v.Zoom != 2 {
		t.Fatalf("zoom = %v, want 2", v.Zoom)
	}
	center := v.ToScreen(geom.Pt(200, 150))
	if math.Abs(center.X-400) > 1e-9 || math.Abs(center.Y-300) > 1e-9 {
		t.Errorf("content center at %v, want client center", center)
	}
}

func TestZoomToFitEmptyBoardNoop(t *testing.T) {
	e := New(DefaultConfig())
	e.SetClientSize(800, 600)
	before := e.Viewport()
	e.ZoomToFit(40)
	if e.Viewport() != before {
		t.Error("empty board fit changed the viewport")
	}
}

func TestVisibilityCulling(t *testing.T) {
	e := New(DefaultConfig())
	ft := newFakeTarget()
	e.AttachTarget(ft)
	e.SetClientSize(800, 600)

	mustAdd(t, e, Node{ID: "in", Kind: KindNote, Pos: geom.Pt(100, 100), Size: geom.Sz(200, 100)})
	mustAdd(t, e, Node{ID: "out", Kind: KindNote, Pos: geom.Pt(2000, 2000), Size: geom.Sz(200, 100)})
	e.RenderFrame()

	if !ft.frame.Visible["in"] {
		t.Error("on-screen node culled")
	}
	if ft.frame.Visible["out"] {
		t.Error("off-screen node reported visible")
	}

	// Panning the far node into view flips its visibility.
	e.Pan(-1900, -1900)
	e.RenderFrame()
	if !ft.frame.Visible["out"] {
		t.Error("node not visible after pan")
	}
}
