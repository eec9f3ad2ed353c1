package editor

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"weave/internal/canvas"
	"weave/internal/config"
	"weave/internal/geom"
	"weave/internal/store"
)

// newTestModel builds an editor over a temp-dir store with one board
// named "test" already open and an 100x30 terminal attached.
func newTestModel(t *testing.T) (Model, *store.BoardStore, store.Board) {
	t.Helper()
	cfg := config.Default()
	cfg.Board.DataDirectory = t.TempDir()
	cfg.Board.AutosaveMS = 50

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	boards := store.NewBoardStore(db)
	b, err := boards.CreateBoard("test")
	if err != nil {
		t.Fatal(err)
	}

	m, err := New(cfg, boards, &b)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Close() })

	m = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, boards, b
}

func update(m Model, msg tea.Msg) Model {
	nm, _ := m.Update(msg)
	return nm.(Model)
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m = update(m, msg)
	}
	return m
}

func typeString(m Model, s string) Model {
	for _, r := range s {
		m = press(m, string(r))
	}
	return m
}

func pressN(m Model, key string, n int) Model {
	for i := 0; i < n; i++ {
		m = press(m, key)
	}
	return m
}

func mouse(m Model, x, y int, t tea.MouseEventType) Model {
	return update(m, tea.MouseMsg{X: x, Y: y, Type: t})
}

func TestStartupCreateBoard(t *testing.T) {
	cfg := config.Default()
	cfg.Board.DataDirectory = t.TempDir()

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	boards := store.NewBoardStore(db)

	m, err := New(cfg, boards, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Close() })
	m = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	if m.mode != ModeStartup {
		t.Fatalf("mode = %v, want startup", m.mode)
	}
	if !strings.Contains(m.View(), "weave") {
		t.Error("startup view missing program name")
	}

	m = press(m, "n")
	m = typeString(m, "demo")
	m = press(m, "enter")

	if m.mode != ModeNormal {
		t.Fatalf("mode after create = %v, want normal", m.mode)
	}
	if m.board.Name != "demo" {
		t.Errorf("board name = %q, want demo", m.board.Name)
	}
	list, err := boards.ListBoards()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "demo" {
		t.Errorf("stored boards = %+v", list)
	}
}

func TestAddNoteAtCursor(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(m, "b")

	nodes := m.eng.State().Nodes
	if len(nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(nodes))
	}
	n := nodes[0]
	if n.Kind != canvas.KindNote {
		t.Errorf("kind = %q, want note", n.Kind)
	}
	if n.Pos != geom.Pt(5, 10) {
		t.Errorf("pos = %v, want (5,10)", n.Pos)
	}
	if n.Size != (geom.Size{W: 120, H: 60}) {
		t.Errorf("size = %v, want minimum note size", n.Size)
	}
	if !strings.Contains(m.View(), "note") {
		t.Error("view missing node title")
	}
}

func TestMoveGesture(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(m, "b", "m")

	if m.mode != ModeDrag {
		t.Fatalf("mode = %v, want drag", m.mode)
	}
	m = pressN(m, "l", 3)
	m = press(m, "enter")

	if m.mode != ModeNormal {
		t.Errorf("mode after finish = %v, want normal", m.mode)
	}
	n := m.eng.State().Nodes[0]
	if n.Pos != geom.Pt(35, 10) {
		t.Errorf("pos = %v, want (35,10)", n.Pos)
	}
	if len(m.undoStack) != 2 {
		t.Errorf("undo depth = %d, want 2", len(m.undoStack))
	}
}

func TestCancelRestoresGeometry(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(m, "b", "m")
	m = pressN(m, "l", 2)
	m = press(m, "esc")

	if m.mode != ModeNormal {
		t.Errorf("mode = %v, want normal", m.mode)
	}
	n := m.eng.State().Nodes[0]
	if n.Pos != geom.Pt(5, 10) {
		t.Errorf("pos after cancel = %v, want (5,10)", n.Pos)
	}
	if len(m.undoStack) != 1 {
		t.Errorf("undo depth = %d, want 1", len(m.undoStack))
	}
	if len(m.redoStack) != 0 {
		t.Errorf("redo depth = %d, want 0", len(m.redoStack))
	}
}

func TestResizeGesture(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(m, "b")
	// Step off the corner grab zone before starting the resize.
	m = pressN(m, "l", 2)
	m = press(m, "r")

	if m.mode != ModeResize {
		t.Fatalf("mode = %v, want resize", m.mode)
	}
	m = press(m, "l", "enter")

	n := m.eng.State().Nodes[0]
	if n.Size.W != 130 || n.Size.H != 60 {
		t.Errorf("size = %v, want 130x60", n.Size)
	}
}

func TestConnectKeys(t *testing.T) {
	m, _, _ := newTestModel(t)
	a, _ := m.eng.AddNode(canvas.Node{ID: "a", Kind: canvas.KindNote, Pos: geom.Pt(0, 0), Size: geom.Size{W: 120, H: 90}})
	b, _ := m.eng.AddNode(canvas.Node{ID: "b", Kind: canvas.KindThread, Pos: geom.Pt(400, 0), Size: geom.Size{W: 160, H: 90}})

	m = press(m, "a")
	if m.connectFrom != a.ID {
		t.Fatalf("connectFrom = %q, want %q", m.connectFrom, a.ID)
	}
	m = pressN(m, "l", 40)
	m = press(m, "a")

	if m.connectFrom != "" {
		t.Errorf("connectFrom not cleared: %q", m.connectFrom)
	}
	if !m.eng.State().Connected(a.ID, b.ID) {
		t.Error("nodes not connected")
	}
}

func TestConnectSelfRejected(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(m, "b", "a", "a")

	if m.errorMessage != "Cannot connect a box to itself" {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
	if len(m.eng.State().Edges) != 0 {
		t.Error("self edge created")
	}
}

func TestDeleteNodeConfirm(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(m, "b", "d")

	if m.mode != ModeConfirm || m.confirmAction != ConfirmDeleteNode {
		t.Fatalf("mode = %v action = %v", m.mode, m.confirmAction)
	}
	m = press(m, "n")
	if len(m.eng.State().Nodes) != 1 {
		t.Fatal("decline still deleted the node")
	}

	m = press(m, "d", "y")
	if len(m.eng.State().Nodes) != 0 {
		t.Error("node not deleted")
	}
}

func TestDeleteEdgeConfirm(t *testing.T) {
	m, _, _ := newTestModel(t)
	a, _ := m.eng.AddNode(canvas.Node{ID: "a", Kind: canvas.KindNote, Pos: geom.Pt(0, 0), Size: geom.Size{W: 120, H: 90}})
	b, _ := m.eng.AddNode(canvas.Node{ID: "b", Kind: canvas.KindThread, Pos: geom.Pt(400, 0), Size: geom.Size{W: 160, H: 90}})
	if _, err := m.eng.AddEdge(canvas.Edge{From: a.ID, To: b.ID}); err != nil {
		t.Fatal(err)
	}
	m.eng.RenderFrame()
	m.View() // rasterize so edge cells are known

	m = pressN(m, "l", 20)
	m = pressN(m, "j", 2)
	m = press(m, "d")

	if m.mode != ModeConfirm || m.confirmAction != ConfirmDeleteEdge {
		t.Fatalf("mode = %v action = %v", m.mode, m.confirmAction)
	}
	m = press(m, "y")
	if len(m.eng.State().Edges) != 0 {
		t.Error("edge not deleted")
	}
	if len(m.eng.State().Nodes) != 2 {
		t.Error("nodes should survive edge deletion")
	}
}

func TestUndoRedo(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(m, "b")
	if len(m.eng.State().Nodes) != 1 {
		t.Fatal("node not added")
	}

	m = press(m, "u")
	if len(m.eng.State().Nodes) != 0 {
		t.Error("undo did not remove the node")
	}
	m = press(m, "U")
	if len(m.eng.State().Nodes) != 1 {
		t.Error("redo did not restore the node")
	}
}

func TestZoomKeys(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(m, "+")
	if z := m.eng.Viewport().Zoom; z != 1.25 {
		t.Errorf("zoom = %v, want 1.25", z)
	}
	m = press(m, "-")
	if z := m.eng.Viewport().Zoom; math.Abs(z-1) > 1e-9 {
		t.Errorf("zoom = %v, want 1", z)
	}
}

func TestPanMode(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(m, "z", "h")
	if v := m.eng.Viewport(); v.X != 10 {
		t.Errorf("view X = %v, want 10", v.X)
	}
	if m.cursorX != 0 {
		t.Errorf("cursor moved while panning: %d", m.cursorX)
	}

	m = press(m, "z", "h")
	if m.cursorX != 0 {
		// Cursor at the left edge stays clamped.
		t.Errorf("cursorX = %d, want 0", m.cursorX)
	}
}

func TestMouseDragMovesNode(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(m, "b")

	m = mouse(m, 1, 0, tea.MouseLeft)
	if m.mode != ModeDrag {
		t.Fatalf("mode = %v, want drag", m.mode)
	}
	m = mouse(m, 4, 0, tea.MouseLeft)
	m = mouse(m, 4, 0, tea.MouseRelease)

	if m.mode != ModeNormal {
		t.Errorf("mode after release = %v, want normal", m.mode)
	}
	n := m.eng.State().Nodes[0]
	if n.Pos != geom.Pt(35, 10) {
		t.Errorf("pos = %v, want (35,10)", n.Pos)
	}
}

func TestMouseDragPansEmptyCanvas(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = mouse(m, 60, 20, tea.MouseLeft)
	m = mouse(m, 58, 20, tea.MouseLeft)
	m = mouse(m, 58, 20, tea.MouseRelease)

	if v := m.eng.Viewport(); v.X != -20 {
		t.Errorf("view X = %v, want -20", v.X)
	}
}

func TestMouseWheelZoom(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = mouse(m, 10, 5, tea.MouseWheelUp)
	if z := m.eng.Viewport().Zoom; math.Abs(z-1.1) > 1e-9 {
		t.Errorf("zoom = %v, want 1.1", z)
	}
}

func TestProximityConnectOnRelease(t *testing.T) {
	m, _, _ := newTestModel(t)
	b, _ := m.eng.AddNode(canvas.Node{ID: "b", Kind: canvas.KindThread, Pos: geom.Pt(300, 10), Size: geom.Size{W: 160, H: 90}})

	m = press(m, "b", "m")
	m = pressN(m, "l", 12)
	if m.eng.Candidate() != nil {
		t.Fatal("candidate too early; boxes still apart")
	}
	m = press(m, "l")

	c := m.eng.Candidate()
	if c == nil || c.Target != b.ID {
		t.Fatalf("candidate = %+v, want target %q", c, b.ID)
	}
	if !strings.Contains(m.statusLine(), "Near") {
		t.Errorf("status %q missing proximity hint", m.statusLine())
	}

	m = press(m, "enter")
	var a canvas.Node
	for _, n := range m.eng.State().Nodes {
		if n.ID != b.ID {
			a = n
		}
	}
	if !m.eng.State().Connected(a.ID, b.ID) {
		t.Error("release did not connect the pair")
	}
	if m.eng.Candidate() != nil {
		t.Error("candidate still set after commit")
	}
}

func TestRefEditShowsBody(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(m, "b")

	if err := os.WriteFile(filepath.Join(m.contentDir, "x.md"), []byte("hello body"), 0o644); err != nil {
		t.Fatal(err)
	}

	m = press(m, "e")
	if m.mode != ModeNameInput {
		t.Fatalf("mode = %v, want name input", m.mode)
	}
	m = typeString(m, "x.md")
	m = press(m, "enter")

	if got := m.eng.State().Nodes[0].Ref; got != "x.md" {
		t.Fatalf("ref = %q, want x.md", got)
	}
	if !strings.Contains(m.View(), "hello body") {
		t.Error("view missing mounted body text")
	}
}

func TestExportWritesFile(t *testing.T) {
	m, boards, b := newTestModel(t)
	m = press(m, "b", "S")

	if !strings.Contains(m.successMessage, "Exported to") {
		t.Fatalf("successMessage = %q (error %q)", m.successMessage, m.errorMessage)
	}
	path := filepath.Join(m.cfg.BoardDir(), "exports", "test.png")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file: %v", err)
	}
	last, err := boards.LastExport(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if last != path {
		t.Errorf("recorded export = %q, want %q", last, path)
	}
}

func TestBoardSwitchKeepsStates(t *testing.T) {
	m, _, b := newTestModel(t)
	m = press(m, "b")

	// New board starts empty; the old board's note is flushed on switch.
	m = press(m, "N")
	m = typeString(m, "two")
	m = press(m, "enter")
	if m.board.Name != "two" {
		t.Fatalf("board = %q, want two", m.board.Name)
	}
	if len(m.eng.State().Nodes) != 0 {
		t.Fatal("fresh board not empty")
	}

	m = press(m, "o")
	if m.mode != ModeBoards {
		t.Fatalf("mode = %v, want boards", m.mode)
	}
	found := -1
	for i, bd := range m.boardList {
		if bd.ID == b.ID {
			found = i
		}
	}
	if found < 0 {
		t.Fatalf("board %q missing from list", b.Name)
	}
	m.selectedBoardIndex = found
	m = press(m, "enter")

	if m.board.ID != b.ID {
		t.Fatalf("reopened board = %q, want %q", m.board.ID, b.ID)
	}
	if len(m.eng.State().Nodes) != 1 {
		t.Errorf("nodes after reopen = %d, want 1", len(m.eng.State().Nodes))
	}
}

func TestSaveFlushesToStore(t *testing.T) {
	m, boards, b := newTestModel(t)
	m = press(m, "b", "s")

	if m.successMessage != "Saved" {
		t.Fatalf("successMessage = %q", m.successMessage)
	}
	st, err := boards.LoadState(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Nodes) != 1 {
		t.Errorf("persisted nodes = %d, want 1", len(st.Nodes))
	}
}

func TestStatusLine(t *testing.T) {
	m, _, _ := newTestModel(t)

	if s := m.statusLine(); !strings.Contains(s, "Mode: NORMAL") {
		t.Errorf("status = %q", s)
	}
	m = press(m, "z")
	if s := m.statusLine(); !strings.Contains(s, "PAN") {
		t.Errorf("status = %q, want pan marker", s)
	}
	m = press(m, "z", "b", "m")
	if s := m.statusLine(); !strings.Contains(s, "Mode: MOVE") {
		t.Errorf("status = %q", s)
	}
}

func TestQuitConfirm(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(m, "q")
	if m.mode != ModeConfirm || m.confirmAction != ConfirmQuit {
		t.Fatalf("mode = %v action = %v", m.mode, m.confirmAction)
	}
	m = press(m, "n")
	if m.mode != ModeNormal {
		t.Errorf("mode after decline = %v", m.mode)
	}

	m = press(m, "q")
	nm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	m = nm.(Model)
	if cmd == nil {
		t.Error("confirm quit returned no command")
	}
}

func TestCopyPaste(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(m, "b", "c")

	if m.copied == nil {
		t.Fatal("copy did not record the node")
	}
	m = pressN(m, "l", 20)
	m = press(m, "p")

	nodes := m.eng.State().Nodes
	if len(nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(nodes))
	}
	if nodes[0].ID == nodes[1].ID {
		t.Error("paste reused the source id")
	}
	if nodes[1].Pos != geom.Pt(205, 10) {
		t.Errorf("pasted pos = %v, want (205,10)", nodes[1].Pos)
	}
}

func TestCleanClipboardText(t *testing.T) {
	in := "line one\r\nline\ttwo\x00\x1b[31m"
	got := cleanClipboardText(in)
	if strings.Contains(got, "\r") {
		t.Error("CR survived cleanup")
	}
	if !strings.Contains(got, "line one\nline\ttwo") {
		t.Errorf("got %q", got)
	}
	if strings.ContainsRune(got, 0) || strings.ContainsRune(got, 0x1b) {
		t.Error("control characters survived cleanup")
	}
}

func TestExportFileName(t *testing.T) {
	cases := map[string]string{
		"My Board":    "my-board.png",
		"a/b_c":       "a-b-c.png",
		"  Weird!!  ": "weird.png",
		"":            "board.png",
	}
	for in, want := range cases {
		if got := exportFileName(in); got != want {
			t.Errorf("exportFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
