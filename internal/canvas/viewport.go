package canvas

import (
	"math"

	"weave/internal/geom"
)

// Viewport methods. All transform changes stay out of the commit
// protocol: they emit EventViewportChanged and schedule a frame, and
// persistence collaborators that care subscribe to that event
// (typically debounced) instead of receiving a full state commit per
// wheel tick.

// SetViewport installs a transform, clamping zoom to the configured
// range.
func (e *Engine) SetViewport(v Viewport) {
	if v.Zoom == 0 {
		v.Zoom = 1
	}
	v.Zoom = geom.Clamp(v.Zoom, e.cfg.MinZoom, e.cfg.MaxZoom)
	if v == e.state.View {
		return
	}
	e.state.View = v
	e.viewportChanged()
}

// Pan shifts the viewport by a screen-space delta.
func (e *Engine) Pan(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	e.state.View.X += dx
	e.state.View.Y += dy
	e.viewportChanged()
}

// ZoomAt scales the zoom by factor, keeping the canvas point under the
// given screen position fixed.
func (e *Engine) ZoomAt(screen geom.Point, factor float64) {
	v := e.state.View
	zoom := geom.Clamp(v.Zoom*factor, e.cfg.MinZoom, e.cfg.MaxZoom)
	if zoom == v.Zoom {
		return
	}
	anchor := v.ToCanvas(screen)
	e.state.View = Viewport{
		X:    screen.X - anchor.X*zoom,
		Y:    screen.Y - anchor.Y*zoom,
		Zoom: zoom,
	}
	e.viewportChanged()
}

// ZoomToFit frames the whole board inside the client rect with the
// given canvas-space padding. Empty boards are left alone.
func (e *Engine) ZoomToFit(pad float64) {
	bounds, ok := e.state.Bounds()
	if !ok || e.clientW <= 0 || e.clientH <= 0 {
		return
	}
	bounds = bounds.Pad(pad)
	zoom := math.Min(e.clientW/bounds.W, e.clientH/bounds.H)
	zoom = geom.Clamp(zoom, e.cfg.MinZoom, e.cfg.MaxZoom)
	e.state.View = Viewport{
		X:    (e.clientW - bounds.W*zoom) / 2 - bounds.X*zoom,
		Y:    (e.clientH - bounds.H*zoom) / 2 - bounds.Y*zoom,
		Zoom: zoom,
	}
	e.viewportChanged()
}

func (e *Engine) viewportChanged() {
	e.disp.emit(Event{Kind: EventViewportChanged, View: e.state.View})
	e.requestFrame()
}

// visibleSet culls nodes against the client rect in screen space.
// With no client size set, everything counts as visible so headless
// targets still mount content.
func (e *Engine) visibleSet(rects map[string]geom.Rect) map[string]bool {
	visible := make(map[string]bool, len(rects))
	if e.clientW <= 0 || e.clientH <= 0 {
		for id := range rects {
			visible[id] = true
		}
		return visible
	}
	client := clientRect(e.clientW, e.clientH)
	for id, r := range rects {
		if e.state.View.RectToScreen(r).Intersects(client) {
			visible[id] = true
		}
	}
	return visible
}

// Visible reports whether a node currently intersects the client rect.
func (e *Engine) Visible(id string) bool {
	r, ok := e.effectiveRects()[id]
	if !ok {
		return false
	}
	if e.clientW <= 0 || e.clientH <= 0 {
		return true
	}
	return e.state.View.RectToScreen(r).Intersects(clientRect(e.clientW, e.clientH))
}
