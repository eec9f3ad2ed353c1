// Package export renders a board to a PNG image. It drives a throwaway
// engine so exported edges take exactly the routes the editor shows.
package export

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"weave/internal/canvas"
	"weave/internal/geom"
)

// BodyFunc looks up the content behind a node ref. Nil or a false
// return leaves the node body blank.
type BodyFunc func(kind canvas.NodeKind, ref string) (string, bool)

// Options control PNG rendering.
type Options struct {
	Scale   float64 // pixels per canvas unit, 1 when zero
	Padding float64 // canvas units of whitespace around the board
	Bodies  BodyFunc
}

// PNG renders the state to path. The board is laid out by a fresh
// engine, so anchor spreading, lanes and obstacle avoidance all apply.
func PNG(path string, st canvas.State, cfg canvas.Config, opts Options) error {
	if len(st.Nodes) == 0 {
		return fmt.Errorf("nothing to export")
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}

	rec := &recorder{}
	eng := canvas.New(cfg)
	eng.AttachTarget(rec)
	eng.Load(st)
	eng.RenderFrame()

	minX, minY, maxX, maxY := bounds(rec)
	minX -= opts.Padding
	minY -= opts.Padding
	maxX += opts.Padding
	maxY += opts.Padding

	width := int(math.Ceil((maxX - minX) * opts.Scale))
	height := int(math.Ceil((maxY - minY) * opts.Scale))
	if width < 1 || height < 1 {
		return fmt.Errorf("degenerate bounds %dx%d", width, height)
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	face, err := monoFace(12 * opts.Scale)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)

	d := drawer{dc: dc, minX: minX, minY: minY, scale: opts.Scale}

	// Edges first so node boxes sit on top of them.
	for _, p := range rec.paths {
		d.drawEdge(p)
	}
	for _, n := range rec.nodes {
		d.drawNode(n, opts.Bodies)
	}

	return dc.SavePNG(path)
}

func monoFace(size float64) (font.Face, error) {
	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %v", err)
	}
	return truetype.NewFace(ttfFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// bounds unions node rects with every path point, control points
// included; a curve never leaves the hull of its controls.
func bounds(rec *recorder) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)

	grow := func(p geom.Point) {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	for _, n := range rec.nodes {
		r := n.Rect()
		grow(r.Pos())
		grow(geom.Pt(r.MaxX(), r.MaxY()))
	}
	for _, p := range rec.paths {
		for _, el := range p.Elements {
			switch el := el.(type) {
			case canvas.MoveTo:
				grow(el.P)
			case canvas.LineTo:
				grow(el.P)
			case canvas.QuadTo:
				grow(el.C)
				grow(el.P)
			case canvas.CubicTo:
				grow(el.C1)
				grow(el.C2)
				grow(el.P)
			}
		}
	}
	return minX, minY, maxX, maxY
}

type drawer struct {
	dc         *gg.Context
	minX, minY float64
	scale      float64
}

func (d drawer) px(p geom.Point) (float64, float64) {
	return (p.X - d.minX) * d.scale, (p.Y - d.minY) * d.scale
}

func (d drawer) drawEdge(p canvas.Path) {
	if len(p.Elements) == 0 {
		return
	}
	d.dc.SetLineWidth(1.5 * d.scale)
	d.dc.SetColor(color.Black)

	var prev geom.Point
	for _, el := range p.Elements {
		switch el := el.(type) {
		case canvas.MoveTo:
			x, y := d.px(el.P)
			d.dc.MoveTo(x, y)
			prev = el.P
		case canvas.LineTo:
			x, y := d.px(el.P)
			d.dc.LineTo(x, y)
			prev = el.P
		case canvas.QuadTo:
			cx, cy := d.px(el.C)
			x, y := d.px(el.P)
			d.dc.QuadraticTo(cx, cy, x, y)
			prev = el.P
		case canvas.CubicTo:
			c1x, c1y := d.px(el.C1)
			c2x, c2y := d.px(el.C2)
			x, y := d.px(el.P)
			d.dc.CubicTo(c1x, c1y, c2x, c2y, x, y)
			prev = el.P
		}
	}
	d.dc.Stroke()

	d.drawArrow(arrowTail(p), prev)
}

// arrowTail picks the point the arrowhead should face away from: the
// last control point for curves, the previous vertex otherwise.
func arrowTail(p canvas.Path) geom.Point {
	if len(p.Elements) == 0 {
		return geom.Point{}
	}
	switch el := p.Elements[len(p.Elements)-1].(type) {
	case canvas.QuadTo:
		return el.C
	case canvas.CubicTo:
		return el.C2
	}
	if n := len(p.Waypoints); n >= 2 {
		return p.Waypoints[n-2]
	}
	return p.Start()
}

func (d drawer) drawArrow(from, to geom.Point) {
	fx, fy := d.px(from)
	tx, ty := d.px(to)

	dx := tx - fx
	dy := ty - fy
	length := math.Sqrt(dx*dx + dy*dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	arrowSize := 6.0 * d.scale
	arrowAngle := 0.5 // radians

	baseX1 := tx - arrowSize*dx + arrowSize*dy*arrowAngle
	baseY1 := ty - arrowSize*dy - arrowSize*dx*arrowAngle
	baseX2 := tx - arrowSize*dx - arrowSize*dy*arrowAngle
	baseY2 := ty - arrowSize*dy + arrowSize*dx*arrowAngle

	d.dc.SetColor(color.Black)
	d.dc.MoveTo(tx, ty)
	d.dc.LineTo(baseX1, baseY1)
	d.dc.LineTo(baseX2, baseY2)
	d.dc.ClosePath()
	d.dc.Fill()
}

func (d drawer) drawNode(n canvas.Node, bodies BodyFunc) {
	r := n.Rect()
	x, y := d.px(r.Pos())
	w := r.W * d.scale
	h := r.H * d.scale
	radius := 6 * d.scale

	d.dc.SetColor(color.White)
	d.dc.DrawRoundedRectangle(x, y, w, h, radius)
	d.dc.Fill()
	d.dc.SetLineWidth(1.5 * d.scale)
	d.dc.SetColor(color.Black)
	d.dc.DrawRoundedRectangle(x, y, w, h, radius)
	d.dc.Stroke()

	lineH := 16.0 * d.scale
	inset := 8.0 * d.scale

	title := string(n.Kind)
	if n.Ref != "" {
		title = n.Ref
	}
	d.dc.DrawString(title, x+inset, y+lineH)

	if bodies == nil || n.Ref == "" {
		return
	}
	body, ok := bodies(n.Kind, n.Ref)
	if !ok || body == "" {
		return
	}
	maxLines := int(h/lineH) - 2
	for i, line := range strings.Split(body, "\n") {
		if i >= maxLines {
			break
		}
		d.dc.DrawString(line, x+inset, y+lineH*float64(i+2))
	}
}
