package editor

import (
	"strings"
	"testing"

	"weave/internal/canvas"
	"weave/internal/geom"
)

// gridScene wires a Grid into a fresh engine and returns both.
func gridScene(t *testing.T, bodies BodyFunc) (*canvas.Engine, *Grid) {
	t.Helper()
	eng := canvas.New(canvas.DefaultConfig())
	g := NewGrid(bodies)
	eng.AttachTarget(g)
	return eng, g
}

func runeAt(t *testing.T, lines []string, col, row int) rune {
	t.Helper()
	if row < 0 || row >= len(lines) {
		t.Fatalf("row %d out of range (%d lines)", row, len(lines))
	}
	rs := []rune(lines[row])
	if col < 0 || col >= len(rs) {
		t.Fatalf("col %d out of range (%d runes in row %d)", col, len(rs), row)
	}
	return rs[col]
}

func TestGridStraightEdgeGlyphs(t *testing.T) {
	eng, g := gridScene(t, nil)

	a, err := eng.AddNode(canvas.Node{ID: "a", Kind: canvas.KindNote, Pos: geom.Pt(0, 0), Size: geom.Size{W: 120, H: 90}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := eng.AddNode(canvas.Node{ID: "b", Kind: canvas.KindThread, Pos: geom.Pt(400, 0), Size: geom.Size{W: 160, H: 90}})
	if err != nil {
		t.Fatal(err)
	}
	ed, err := eng.AddEdge(canvas.Edge{From: a.ID, To: b.ID})
	if err != nil {
		t.Fatal(err)
	}
	eng.RenderFrame()

	lines := g.Lines(80, 10, nil)

	// Box corners and borders.
	if ch := runeAt(t, lines, 0, 0); ch != '+' {
		t.Errorf("corner = %q, want '+'", ch)
	}
	if ch := runeAt(t, lines, 5, 0); ch != '-' {
		t.Errorf("top border = %q, want '-'", ch)
	}
	if ch := runeAt(t, lines, 0, 2); ch != '|' {
		t.Errorf("left border = %q, want '|'", ch)
	}

	// Centers are level, so the route runs straight along row 2.
	if ch := runeAt(t, lines, 20, 2); ch != '─' {
		t.Errorf("edge run = %q, want '─'", ch)
	}
	// Arrow sits one cell short of the target border so the box
	// cannot paint over it.
	if ch := runeAt(t, lines, 39, 2); ch != '▶' {
		t.Errorf("arrowhead = %q, want '▶'", ch)
	}
	if ch := runeAt(t, lines, 40, 2); ch != '|' {
		t.Errorf("target border = %q, want '|'", ch)
	}

	if !strings.Contains(lines[1], "note") {
		t.Errorf("title row %q missing kind label", lines[1])
	}

	if id, ok := g.EdgeAt(20, 2); !ok || id != ed.ID {
		t.Errorf("EdgeAt(20,2) = %q,%v, want %q,true", id, ok, ed.ID)
	}
	if _, ok := g.EdgeAt(5, 8); ok {
		t.Error("EdgeAt on empty cell reported an edge")
	}
}

func TestGridCornerRoute(t *testing.T) {
	eng, g := gridScene(t, nil)

	a, _ := eng.AddNode(canvas.Node{ID: "a", Kind: canvas.KindNote, Pos: geom.Pt(0, 0), Size: geom.Size{W: 120, H: 90}})
	b, _ := eng.AddNode(canvas.Node{ID: "b", Kind: canvas.KindThread, Pos: geom.Pt(400, 200), Size: geom.Size{W: 160, H: 90}})
	if _, err := eng.AddEdge(canvas.Edge{From: a.ID, To: b.ID}); err != nil {
		t.Fatal(err)
	}
	eng.RenderFrame()

	lines := g.Lines(80, 15, nil)

	// Route bends at the midpoint column: across, down, across.
	if ch := runeAt(t, lines, 26, 2); ch != '┌' {
		t.Errorf("first bend = %q, want '┌'", ch)
	}
	if ch := runeAt(t, lines, 26, 12); ch != '┌' {
		t.Errorf("second bend = %q, want '┌'", ch)
	}
	if ch := runeAt(t, lines, 26, 7); ch != '│' {
		t.Errorf("vertical run = %q, want '│'", ch)
	}
	if ch := runeAt(t, lines, 30, 12); ch != '─' {
		t.Errorf("final run = %q, want '─'", ch)
	}
	if ch := runeAt(t, lines, 39, 12); ch != '▶' {
		t.Errorf("arrowhead = %q, want '▶'", ch)
	}
	if !strings.Contains(lines[11], "thread") {
		t.Errorf("target title row %q missing kind label", lines[11])
	}
}

func TestGridHighlight(t *testing.T) {
	eng, g := gridScene(t, nil)

	a, _ := eng.AddNode(canvas.Node{ID: "a", Kind: canvas.KindNote, Pos: geom.Pt(0, 0), Size: geom.Size{W: 120, H: 90}})
	eng.AddNode(canvas.Node{ID: "b", Kind: canvas.KindNote, Pos: geom.Pt(400, 0), Size: geom.Size{W: 120, H: 60}})
	eng.RenderFrame()

	lines := g.Lines(80, 10, map[string]bool{a.ID: true})
	if ch := runeAt(t, lines, 0, 0); ch != '#' {
		t.Errorf("highlighted corner = %q, want '#'", ch)
	}
	if ch := runeAt(t, lines, 5, 0); ch != '#' {
		t.Errorf("highlighted border = %q, want '#'", ch)
	}
	if ch := runeAt(t, lines, 40, 0); ch != '+' {
		t.Errorf("plain corner = %q, want '+'", ch)
	}
}

func TestGridBodyLines(t *testing.T) {
	bodies := func(kind canvas.NodeKind, ref string) (string, bool) {
		if ref != "notes.md" {
			t.Errorf("bodies called with ref %q", ref)
		}
		return "hello world", true
	}
	eng, g := gridScene(t, bodies)

	eng.AddNode(canvas.Node{ID: "a", Kind: canvas.KindNote, Ref: "notes.md", Pos: geom.Pt(0, 0), Size: geom.Size{W: 120, H: 90}})
	eng.RenderFrame()

	lines := g.Lines(80, 10, nil)
	if ch := runeAt(t, lines, 1, 1); ch != 'n' {
		t.Errorf("title cell = %q, want ref text", ch)
	}
	if !strings.Contains(lines[2], "hello world") {
		t.Errorf("body row %q missing content", lines[2])
	}
}

func TestGridInPlaceMove(t *testing.T) {
	eng, g := gridScene(t, nil)

	a, _ := eng.AddNode(canvas.Node{ID: "a", Kind: canvas.KindNote, Pos: geom.Pt(0, 0), Size: geom.Size{W: 120, H: 60}})
	eng.RenderFrame()

	if !eng.MoveNode(a.ID, geom.Pt(200, 100)) {
		t.Fatal("MoveNode failed")
	}
	eng.RenderFrame()

	lines := g.Lines(80, 12, nil)
	if ch := runeAt(t, lines, 20, 5); ch != '+' {
		t.Errorf("moved corner = %q, want '+'", ch)
	}
	if ch := runeAt(t, lines, 0, 0); ch != ' ' {
		t.Errorf("old corner cell = %q, want blank", ch)
	}
}
