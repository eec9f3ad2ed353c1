package editor

import (
	"math"
	"strings"

	"weave/internal/canvas"
	"weave/internal/geom"
)

// One terminal cell covers this much screen space. The engine thinks in
// screen pixels; the grid quantizes them to character cells, so a
// default 120x80 note lands around 12x4 cells at zoom 1.
const (
	cellW = 10.0
	cellH = 20.0
)

const curveSteps = 12

// BodyFunc resolves the text shown inside a node, keyed the way the
// content library keys mounts.
type BodyFunc func(kind canvas.NodeKind, ref string) (string, bool)

type edgePath struct {
	id   string
	path canvas.Path
}

// Grid is the terminal render target. It records what the engine pushes
// between frames and rasterizes the lot into rune rows on demand: edges
// first, boxes over them, so box borders stay clean where lines meet
// them.
type Grid struct {
	bodies BodyFunc

	nodes []canvas.Node
	paths []edgePath
	frame canvas.Frame

	edgeAt map[[2]int]string
}

func NewGrid(bodies BodyFunc) *Grid {
	return &Grid{
		bodies: bodies,
		frame:  canvas.Frame{View: canvas.Viewport{Zoom: 1}},
	}
}

func (g *Grid) AddNode(n canvas.Node) {
	g.nodes = append(g.nodes, n)
}

func (g *Grid) UpdateNode(n canvas.Node) {
	for i := range g.nodes {
		if g.nodes[i].ID == n.ID {
			g.nodes[i] = n
			return
		}
	}
	g.nodes = append(g.nodes, n)
}

func (g *Grid) AddEdge(e canvas.Edge, p canvas.Path) {
	g.paths = append(g.paths, edgePath{id: e.ID, path: p})
}

func (g *Grid) ClearEdges() {
	g.paths = g.paths[:0]
}

func (g *Grid) Render(f canvas.Frame) {
	g.frame = f
}

func (g *Grid) Destroy() {
	g.nodes = nil
	g.paths = nil
}

// EdgeAt reports which edge last painted the given cell, if any. Cells
// later overdrawn by a box still answer with the edge; callers resolve
// boxes first.
func (g *Grid) EdgeAt(col, row int) (string, bool) {
	id, ok := g.edgeAt[[2]int{col, row}]
	return id, ok
}

// Lines rasterizes the recorded scene into height rows of width runes.
// Nodes in highlight get their borders drawn with '#'.
func (g *Grid) Lines(width, height int, highlight map[string]bool) []string {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	cv := newCellCanvas(width, height)
	g.edgeAt = make(map[[2]int]string)

	for _, ep := range g.paths {
		g.drawPath(cv, ep)
	}
	for _, n := range g.nodes {
		g.drawBox(cv, n, highlight[n.ID])
	}
	return cv.lines()
}

type cellCanvas struct {
	w, h  int
	cells [][]rune
}

func newCellCanvas(w, h int) *cellCanvas {
	cells := make([][]rune, h)
	for i := range cells {
		row := make([]rune, w)
		for j := range row {
			row[j] = ' '
		}
		cells[i] = row
	}
	return &cellCanvas{w: w, h: h, cells: cells}
}

func (c *cellCanvas) set(col, row int, ch rune) {
	if col < 0 || col >= c.w || row < 0 || row >= c.h {
		return
	}
	c.cells[row][col] = ch
}

func (c *cellCanvas) lines() []string {
	out := make([]string, len(c.cells))
	for i, row := range c.cells {
		out[i] = string(row)
	}
	return out
}

func cellOf(p geom.Point) (col, row int) {
	return int(math.Floor(p.X / cellW)), int(math.Floor(p.Y / cellH))
}

// cellCenter is the screen point at the middle of a cell; the editor
// uses it as the pointer position for keyboard-driven gestures.
func cellCenter(col, row int) geom.Point {
	return geom.Pt((float64(col)+0.5)*cellW, (float64(row)+0.5)*cellH)
}

// mark writes an edge cell and records its owner for hit testing.
func (g *Grid) mark(cv *cellCanvas, id string, col, row int, ch rune) {
	cv.set(col, row, ch)
	if col >= 0 && row >= 0 && col < cv.w && row < cv.h {
		g.edgeAt[[2]int{col, row}] = id
	}
}

func (g *Grid) drawPath(cv *cellCanvas, ep edgePath) {
	pts := g.flatten(ep.path)
	if len(pts) < 2 {
		return
	}
	for i := 1; i < len(pts); i++ {
		g.drawSegment(cv, ep.id, pts[i-1], pts[i])
	}
	// Stamp bend corners over the line glyphs.
	if wps := ep.path.Waypoints; len(wps) >= 3 {
		for _, wp := range wps[1 : len(wps)-1] {
			col, row := cellOf(g.frame.View.ToScreen(wp))
			g.mark(cv, ep.id, col, row, '┌')
		}
	}
	g.drawArrow(cv, ep.id, pts)
}

// flatten turns a routed path into screen-space points. Orthogonal
// kinds carry their waypoint polyline; curved kinds are sampled from
// their elements.
func (g *Grid) flatten(p canvas.Path) []geom.Point {
	v := g.frame.View
	if len(p.Waypoints) >= 2 {
		out := make([]geom.Point, len(p.Waypoints))
		for i, wp := range p.Waypoints {
			out[i] = v.ToScreen(wp)
		}
		return out
	}

	var out []geom.Point
	var cur geom.Point
	for _, el := range p.Elements {
		switch el := el.(type) {
		case canvas.MoveTo:
			cur = v.ToScreen(el.P)
			out = append(out, cur)
		case canvas.LineTo:
			cur = v.ToScreen(el.P)
			out = append(out, cur)
		case canvas.QuadTo:
			c, end := v.ToScreen(el.C), v.ToScreen(el.P)
			for i := 1; i <= curveSteps; i++ {
				out = append(out, quadPoint(cur, c, end, float64(i)/curveSteps))
			}
			cur = end
		case canvas.CubicTo:
			c1, c2, end := v.ToScreen(el.C1), v.ToScreen(el.C2), v.ToScreen(el.P)
			for i := 1; i <= curveSteps; i++ {
				out = append(out, cubicPoint(cur, c1, c2, end, float64(i)/curveSteps))
			}
			cur = end
		}
	}
	return out
}

// drawSegment paints the cells between two screen points. Axis-aligned
// runs use line glyphs; anything slanted is dotted.
func (g *Grid) drawSegment(cv *cellCanvas, id string, a, b geom.Point) {
	ac, ar := cellOf(a)
	bc, br := cellOf(b)
	dx, dy := bc-ac, br-ar

	switch {
	case dx == 0 && dy == 0:
		// Sub-cell movement; the neighboring segments cover this cell.
	case dy == 0:
		step := 1
		if dx < 0 {
			step = -1
		}
		for col := ac; col != bc+step; col += step {
			g.mark(cv, id, col, ar, '─')
		}
	case dx == 0:
		step := 1
		if dy < 0 {
			step = -1
		}
		for row := ar; row != br+step; row += step {
			g.mark(cv, id, ac, row, '│')
		}
	default:
		steps := dx
		if steps < 0 {
			steps = -steps
		}
		if dy > steps {
			steps = dy
		} else if -dy > steps {
			steps = -dy
		}
		for i := 0; i <= steps; i++ {
			t := float64(i) / float64(steps)
			col := ac + int(math.Round(float64(dx)*t))
			row := ar + int(math.Round(float64(dy)*t))
			g.mark(cv, id, col, row, '·')
		}
	}
}

func (g *Grid) drawArrow(cv *cellCanvas, id string, pts []geom.Point) {
	last := pts[len(pts)-1]
	i := len(pts) - 2
	for i > 0 && pts[i].Distance(last) < 1 {
		i--
	}
	prev := pts[i]

	dx := last.X - prev.X
	dy := last.Y - prev.Y
	col, row := cellOf(last)

	// The endpoint cell belongs to the target box border, which paints
	// after edges; sit the arrow one cell back so it stays visible.
	arrowChar := '▶'
	if math.Abs(dx) >= math.Abs(dy) {
		if dx < 0 {
			arrowChar = '◀'
			col++
		} else {
			col--
		}
	} else {
		if dy > 0 {
			arrowChar = '▼'
			row--
		} else {
			arrowChar = '▲'
			row++
		}
	}
	g.mark(cv, id, col, row, arrowChar)
}

func (g *Grid) drawBox(cv *cellCanvas, n canvas.Node, selected bool) {
	r := g.frame.View.RectToScreen(n.Rect())
	col0, row0 := cellOf(geom.Pt(r.X, r.Y))
	col1, row1 := cellOf(geom.Pt(r.MaxX(), r.MaxY()))
	if col1 <= col0 {
		col1 = col0 + 1
	}
	if row1 <= row0 {
		row1 = row0 + 1
	}
	if col1 < 0 || row1 < 0 || col0 >= cv.w || row0 >= cv.h {
		return
	}

	hch, vch, cch := '-', '|', '+'
	if selected {
		hch, vch, cch = '#', '#', '#'
	}

	// Blank the interior so lines never run through a box.
	for row := row0 + 1; row < row1; row++ {
		for col := col0 + 1; col < col1; col++ {
			cv.set(col, row, ' ')
		}
	}

	for col := col0; col <= col1; col++ {
		cv.set(col, row0, hch)
		cv.set(col, row1, hch)
	}
	for row := row0; row <= row1; row++ {
		cv.set(col0, row, vch)
		cv.set(col1, row, vch)
	}
	cv.set(col0, row0, cch)
	cv.set(col1, row0, cch)
	cv.set(col0, row1, cch)
	cv.set(col1, row1, cch)

	innerW := col1 - col0 - 1
	if innerW < 1 {
		return
	}
	title := n.Ref
	if title == "" {
		title = string(n.Kind)
	}
	writeText(cv, col0+1, row0+1, innerW, title)

	if g.bodies == nil || n.Ref == "" || !g.frame.Visible[n.ID] {
		return
	}
	body, ok := g.bodies(n.Kind, n.Ref)
	if !ok || body == "" {
		return
	}
	row := row0 + 2
	for _, line := range strings.Split(body, "\n") {
		if row >= row1 {
			break
		}
		writeText(cv, col0+1, row, innerW, line)
		row++
	}
}

func writeText(cv *cellCanvas, col, row, maxW int, s string) {
	for i, ch := range []rune(s) {
		if i >= maxW {
			break
		}
		cv.set(col+i, row, ch)
	}
}

func quadPoint(p0, c, p1 geom.Point, t float64) geom.Point {
	u := 1 - t
	return geom.Point{
		X: u*u*p0.X + 2*u*t*c.X + t*t*p1.X,
		Y: u*u*p0.Y + 2*u*t*c.Y + t*t*p1.Y,
	}
}

func cubicPoint(p0, c1, c2, p1 geom.Point, t float64) geom.Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return geom.Point{
		X: a*p0.X + b*c1.X + c*c2.X + d*p1.X,
		Y: a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y,
	}
}
