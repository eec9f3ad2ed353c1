// Package editor is the interactive terminal frontend: a bubbletea
// program that drives the board engine with keyboard and mouse input,
// rasterizes frames through Grid and persists every change through the
// store's autosaver.
package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"weave/internal/canvas"
	"weave/internal/config"
	"weave/internal/content"
	"weave/internal/export"
	"weave/internal/geom"
	"weave/internal/store"
)

type Mode int

const (
	ModeStartup Mode = iota
	ModeNormal
	ModeDrag
	ModeResize
	ModeBoards
	ModeNameInput
	ModeConfirm
)

// NameOperation says what the name input commits to when confirmed.
type NameOperation int

const (
	NameNewBoard NameOperation = iota
	NameRenameBoard
	NameNodeRef
	NameImageRef
)

type ConfirmAction int

const (
	ConfirmDeleteNode ConfirmAction = iota
	ConfirmDeleteEdge
	ConfirmQuit
)

// contentChangedMsg wakes the program when a mounted content file was
// edited on disk.
type contentChangedMsg struct{}

type Model struct {
	cfg    *config.Config
	boards *store.BoardStore
	eng    *canvas.Engine
	grid   *Grid

	library    *content.Library
	saver      *store.Autosaver
	contentDir string
	contentCh  chan struct{}

	board store.Board

	width   int
	height  int
	cursorX int
	cursorY int
	zPan    bool

	mode       Mode
	help       bool
	helpScroll int

	selectedNode string
	connectFrom  string
	copied       *canvas.Node

	undoStack []canvas.State
	redoStack []canvas.State

	boardList          []store.Board
	selectedBoardIndex int

	nameInput     string
	nameOp        NameOperation
	confirmAction ConfirmAction
	confirmTarget string

	errorMessage   string
	successMessage string

	mouseDown  bool
	lastMouseX int
	lastMouseY int
}

// New builds the editor around a board store. With a nil board it opens
// on the startup screen; otherwise it loads the board immediately.
func New(cfg *config.Config, boards *store.BoardStore, board *store.Board) (Model, error) {
	contentDir := filepath.Join(cfg.BoardDir(), "content")
	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return Model{}, fmt.Errorf("create content dir: %w", err)
	}

	contentCh := make(chan struct{}, 8)
	library, err := content.NewLibrary(contentDir, func(canvas.NodeKind, string, string) {
		select {
		case contentCh <- struct{}{}:
		default:
		}
	}, nil)
	if err != nil {
		return Model{}, err
	}

	eng := canvas.New(cfg.Engine())
	grid := NewGrid(library.Body)
	eng.AttachTarget(grid)
	eng.AttachContent(library)

	saver := store.NewAutosaver(boards, "", time.Duration(cfg.Board.AutosaveMS)*time.Millisecond)
	eng.OnStateChange(func(s canvas.State) {
		saver.Note(s)
	})
	eng.Subscribe(canvas.EventViewportChanged, func(canvas.Event) {
		saver.Note(eng.State())
	})

	m := Model{
		cfg:        cfg,
		boards:     boards,
		eng:        eng,
		grid:       grid,
		library:    library,
		saver:      saver,
		contentDir: contentDir,
		contentCh:  contentCh,
		mode:       ModeStartup,
	}
	if board != nil {
		if err := m.open(*board); err != nil {
			return Model{}, err
		}
	}
	m.eng.RenderFrame()
	return m, nil
}

// Run starts the program in the alternate screen with mouse tracking
// and flushes any pending save on the way out.
func (m Model) Run() error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	if cerr := m.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close flushes pending saves and stops the content watcher.
func (m Model) Close() error {
	err := m.saver.Close()
	if cerr := m.library.Close(); err == nil {
		err = cerr
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return m.watchContent()
}

func (m Model) watchContent() tea.Cmd {
	return func() tea.Msg {
		<-m.contentCh
		return contentChangedMsg{}
	}
}

// open switches the editor to a board: flush what is pending for the
// old one, retarget the autosaver, load the new state.
func (m *Model) open(b store.Board) error {
	if err := m.saver.Flush(); err != nil {
		return err
	}
	st, err := m.boards.LoadState(b.ID)
	if err != nil {
		return err
	}
	if err := m.saver.SetBoard(b.ID); err != nil {
		return err
	}
	m.eng.Load(st)
	m.board = b
	m.undoStack = nil
	m.redoStack = nil
	m.selectedNode = ""
	m.connectFrom = ""
	m.mode = ModeNormal
	m.errorMessage = ""
	m.successMessage = ""
	return nil
}

func (m Model) canvasHeight() int {
	h := m.height - 1
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) ensureCursorInBounds() {
	if m.cursorX < 0 {
		m.cursorX = 0
	}
	if m.cursorY < 0 {
		m.cursorY = 0
	}
	if m.width > 0 && m.cursorX >= m.width {
		m.cursorX = m.width - 1
	}
	// Leave room for the status line
	maxY := m.height - 2
	if maxY < 0 {
		maxY = 0
	}
	if m.cursorY > maxY {
		m.cursorY = maxY
	}
}

// cursorPoint is the cursor cell center in screen coordinates, the
// pointer position for keyboard-driven gestures and hit tests.
func (m Model) cursorPoint() geom.Point {
	return cellCenter(m.cursorX, m.cursorY)
}

func (m Model) cursorCanvas() geom.Point {
	return m.eng.Viewport().ToCanvas(m.cursorPoint())
}

func (m Model) nodeUnderCursor() (canvas.Node, bool) {
	id, _, ok := m.eng.HitTest(m.cursorPoint())
	if !ok {
		return canvas.Node{}, false
	}
	return m.eng.State().Node(id)
}

func (m Model) nodeLabel(id string) string {
	n, ok := m.eng.State().Node(id)
	if !ok {
		return id
	}
	if n.Ref != "" {
		return n.Ref
	}
	return string(n.Kind)
}

func (m *Model) pushUndo() {
	m.undoStack = append(m.undoStack, m.eng.State())
	m.redoStack = m.redoStack[:0]
}

func (m *Model) undo() {
	if len(m.undoStack) == 0 {
		return
	}
	snap := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	cur := m.eng.State()
	m.redoStack = append(m.redoStack, cur)
	// Undo restores the document, not the camera.
	snap.View = cur.View
	m.eng.Commit(snap)
}

func (m *Model) redo() {
	if len(m.redoStack) == 0 {
		return
	}
	snap := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	cur := m.eng.State()
	m.undoStack = append(m.undoStack, cur)
	snap.View = cur.View
	m.eng.Commit(snap)
}

// cancelGesture releases the gesture, then rolls the board back to the
// snapshot taken when it began. Release always commits in the engine,
// so cancel is implemented as commit-then-restore.
func (m *Model) cancelGesture() {
	m.eng.EndGesture()
	if len(m.undoStack) == 0 {
		return
	}
	snap := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	snap.View = m.eng.Viewport()
	m.eng.Commit(snap)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.eng.SetClientSize(float64(m.width)*cellW, float64(m.canvasHeight())*cellH)
		m.ensureCursorInBounds()
	case contentChangedMsg:
		// Repaint with the fresh body; nothing else to do.
		m.eng.RenderFrame()
		return m, m.watchContent()
	case tea.MouseMsg:
		m = m.handleMouse(msg)
	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)
	}
	m.eng.RenderFrame()
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.help && m.mode != ModeStartup {
		switch msg.String() {
		case "j", "down":
			m.helpScroll++
		case "k", "up":
			if m.helpScroll > 0 {
				m.helpScroll--
			}
		default:
			m.help = false
			m.helpScroll = 0
		}
		return m, nil
	}

	switch m.mode {
	case ModeStartup:
		return m.keyStartup(msg)
	case ModeNormal:
		return m.keyNormal(msg)
	case ModeDrag, ModeResize:
		return m.keyGesture(msg)
	case ModeBoards:
		return m.keyBoards(msg)
	case ModeNameInput:
		return m.keyNameInput(msg)
	case ModeConfirm:
		return m.keyConfirm(msg)
	}
	return m, nil
}

func (m Model) keyStartup(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "n":
		m.mode = ModeNameInput
		m.nameOp = NameNewBoard
		m.nameInput = ""
		m.errorMessage = ""
	case "o":
		m.enterBoards()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) keyNormal(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.Type == tea.KeyEscape {
		m.zPan = false
		m.connectFrom = ""
		m.selectedNode = ""
		m.errorMessage = ""
		m.successMessage = ""
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.mode = ModeConfirm
		m.confirmAction = ConfirmQuit
	case "?":
		m.help = !m.help
	case "h", "left":
		m.moveOrPan(-1, 0)
	case "H", "shift+h", "shift+left":
		m.moveOrPan(-2, 0)
	case "l", "right":
		m.moveOrPan(1, 0)
	case "L", "shift+l", "shift+right":
		m.moveOrPan(2, 0)
	case "k", "up":
		m.moveOrPan(0, -1)
	case "K", "shift+k", "shift+up":
		m.moveOrPan(0, -2)
	case "j", "down":
		m.moveOrPan(0, 1)
	case "J", "shift+j", "shift+down":
		m.moveOrPan(0, 2)
	case "z":
		m.zPan = !m.zPan
	case "+", "=":
		m.eng.ZoomAt(m.cursorPoint(), 1.25)
	case "-", "_":
		m.eng.ZoomAt(m.cursorPoint(), 0.8)
	case "f":
		m.eng.ZoomToFit(m.cfg.Canvas.Margin)
	case "b":
		m.zPan = false
		m.addNodeAtCursor(canvas.KindNote, "")
	case "t":
		m.zPan = false
		m.addNodeAtCursor(canvas.KindThread, "")
	case "i":
		m.zPan = false
		m.mode = ModeNameInput
		m.nameOp = NameImageRef
		m.nameInput = ""
	case "e":
		m.zPan = false
		n, ok := m.nodeUnderCursor()
		if !ok {
			m.errorMessage = "No box under cursor"
			return m, nil
		}
		m.selectedNode = n.ID
		m.mode = ModeNameInput
		m.nameOp = NameNodeRef
		m.nameInput = n.Ref
	case "m":
		m.zPan = false
		n, ok := m.nodeUnderCursor()
		if !ok {
			m.errorMessage = "No box under cursor"
			return m, nil
		}
		m.pushUndo()
		m.eng.BeginDrag(n.ID, m.cursorPoint())
		m.selectedNode = n.ID
		m.mode = ModeDrag
	case "r":
		m.zPan = false
		id, h, ok := m.eng.HitTest(m.cursorPoint())
		if !ok {
			m.errorMessage = "No box under cursor"
			return m, nil
		}
		if h == (canvas.Handle{}) {
			h = canvas.HandleSE
		}
		m.pushUndo()
		m.eng.BeginResize(id, h, m.cursorPoint())
		m.selectedNode = id
		m.mode = ModeResize
	case "a":
		m.zPan = false
		m.connectAtCursor()
	case "d":
		m.zPan = false
		m.deleteAtCursor()
	case "c":
		n, ok := m.nodeUnderCursor()
		if !ok {
			m.errorMessage = "No box under cursor"
			return m, nil
		}
		copied := n
		m.copied = &copied
		m.successMessage = fmt.Sprintf("Copied %s", m.nodeLabel(n.ID))
	case "p":
		if m.copied == nil {
			m.errorMessage = "Nothing copied"
			return m, nil
		}
		n := *m.copied
		n.ID = ""
		n.Pos = m.cursorCanvas()
		m.pushUndo()
		if _, err := m.eng.AddNode(n); err != nil {
			m.errorMessage = err.Error()
		}
	case "P":
		m.pasteClipboardText()
	case "u":
		m.undo()
	case "U":
		m.redo()
	case "s":
		if err := m.saver.Flush(); err != nil {
			m.errorMessage = err.Error()
		} else {
			m.successMessage = "Saved"
		}
	case "S":
		m.exportPNG()
	case "o":
		m.enterBoards()
	case "N":
		m.mode = ModeNameInput
		m.nameOp = NameNewBoard
		m.nameInput = ""
	case "R":
		m.mode = ModeNameInput
		m.nameOp = NameRenameBoard
		m.nameInput = m.board.Name
	}
	return m, nil
}

func (m Model) keyGesture(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.Type == tea.KeyEscape {
		m.cancelGesture()
		m.selectedNode = ""
		m.mode = ModeNormal
		return m, nil
	}

	switch msg.String() {
	case "enter":
		m.eng.EndGesture()
		m.selectedNode = ""
		m.mode = ModeNormal
	case "h", "left":
		m.moveGesture(-1, 0)
	case "H", "shift+h", "shift+left":
		m.moveGesture(-2, 0)
	case "l", "right":
		m.moveGesture(1, 0)
	case "L", "shift+l", "shift+right":
		m.moveGesture(2, 0)
	case "k", "up":
		m.moveGesture(0, -1)
	case "K", "shift+k", "shift+up":
		m.moveGesture(0, -2)
	case "j", "down":
		m.moveGesture(0, 1)
	case "J", "shift+j", "shift+down":
		m.moveGesture(0, 2)
	}
	return m, nil
}

func (m Model) keyBoards(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.Type == tea.KeyEscape {
		m.leaveBoards()
		return m, nil
	}

	switch msg.String() {
	case "q":
		m.leaveBoards()
	case "j", "down":
		if m.selectedBoardIndex < len(m.boardList)-1 {
			m.selectedBoardIndex++
		}
	case "k", "up":
		if m.selectedBoardIndex > 0 {
			m.selectedBoardIndex--
		}
	case "n":
		m.mode = ModeNameInput
		m.nameOp = NameNewBoard
		m.nameInput = ""
	case "enter":
		if m.selectedBoardIndex < 0 || m.selectedBoardIndex >= len(m.boardList) {
			return m, nil
		}
		if err := m.open(m.boardList[m.selectedBoardIndex]); err != nil {
			m.errorMessage = err.Error()
		}
	}
	return m, nil
}

func (m Model) keyNameInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.Type == tea.KeyEscape {
		m.nameInput = ""
		if m.board.ID == "" {
			m.mode = ModeStartup
		} else {
			m.mode = ModeNormal
		}
		return m, nil
	}

	switch msg.String() {
	case "enter":
		m.commitNameInput()
	case "backspace":
		if len(m.nameInput) > 0 {
			runes := []rune(m.nameInput)
			m.nameInput = string(runes[:len(runes)-1])
		}
	default:
		if s := msg.String(); len(s) == 1 {
			m.nameInput += s
		}
	}
	return m, nil
}

func (m Model) keyConfirm(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m.applyConfirm()
	case "n", "N", "esc":
		m.mode = ModeNormal
	}
	return m, nil
}

func (m *Model) applyConfirmAction() {
	switch m.confirmAction {
	case ConfirmDeleteNode:
		m.pushUndo()
		m.eng.RemoveNode(m.confirmTarget)
	case ConfirmDeleteEdge:
		m.pushUndo()
		m.eng.RemoveEdge(m.confirmTarget)
	}
	m.mode = ModeNormal
	m.confirmTarget = ""
}

func (m Model) applyConfirm() (Model, tea.Cmd) {
	if m.confirmAction == ConfirmQuit {
		return m, tea.Quit
	}
	m.applyConfirmAction()
	return m, nil
}

// moveOrPan moves the cursor, or pans the viewport when pan mode is on.
// Panning left shifts content right, revealing what sits to the left.
func (m *Model) moveOrPan(dc, dr int) {
	if m.zPan {
		m.eng.Pan(float64(-dc)*cellW, float64(-dr)*cellH)
		return
	}
	m.cursorX += dc
	m.cursorY += dr
	m.ensureCursorInBounds()
}

func (m *Model) moveGesture(dc, dr int) {
	m.cursorX += dc
	m.cursorY += dr
	m.ensureCursorInBounds()
	m.eng.PointerMove(m.cursorPoint())
}

func (m *Model) addNodeAtCursor(kind canvas.NodeKind, ref string) {
	m.pushUndo()
	_, err := m.eng.AddNode(canvas.Node{Kind: kind, Ref: ref, Pos: m.cursorCanvas()})
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.successMessage = ""
	m.errorMessage = ""
}

func (m *Model) connectAtCursor() {
	n, ok := m.nodeUnderCursor()
	if !ok {
		m.errorMessage = "No box under cursor"
		return
	}
	if m.connectFrom == "" {
		m.connectFrom = n.ID
		m.errorMessage = ""
		return
	}
	if m.connectFrom == n.ID {
		m.errorMessage = "Cannot connect a box to itself"
		return
	}
	m.pushUndo()
	if _, err := m.eng.AddEdge(canvas.Edge{From: m.connectFrom, To: n.ID}); err != nil {
		m.errorMessage = err.Error()
	}
	m.connectFrom = ""
}

func (m *Model) deleteAtCursor() {
	if n, ok := m.nodeUnderCursor(); ok {
		m.mode = ModeConfirm
		m.confirmAction = ConfirmDeleteNode
		m.confirmTarget = n.ID
		return
	}
	if id, ok := m.grid.EdgeAt(m.cursorX, m.cursorY); ok {
		m.mode = ModeConfirm
		m.confirmAction = ConfirmDeleteEdge
		m.confirmTarget = id
	}
}

func (m *Model) commitNameInput() {
	name := strings.TrimSpace(m.nameInput)
	switch m.nameOp {
	case NameNewBoard:
		if name == "" {
			m.errorMessage = "Board name required"
			return
		}
		b, err := m.boards.CreateBoard(name)
		if err != nil {
			m.errorMessage = err.Error()
			return
		}
		if err := m.open(b); err != nil {
			m.errorMessage = err.Error()
			return
		}
	case NameRenameBoard:
		if name == "" {
			m.errorMessage = "Board name required"
			return
		}
		if err := m.boards.RenameBoard(m.board.ID, name); err != nil {
			m.errorMessage = err.Error()
			return
		}
		m.board.Name = name
		m.mode = ModeNormal
	case NameNodeRef:
		idx := m.eng.State().NodeIndex(m.selectedNode)
		if idx < 0 {
			m.mode = ModeNormal
			return
		}
		m.pushUndo()
		next := m.eng.State()
		next.Nodes[idx].Ref = name
		m.eng.Commit(next)
		m.selectedNode = ""
		m.mode = ModeNormal
	case NameImageRef:
		if name == "" {
			m.errorMessage = "Image ref required"
			return
		}
		m.mode = ModeNormal
		m.addNodeAtCursor(canvas.KindImage, name)
	}
	m.nameInput = ""
}

func (m *Model) enterBoards() {
	list, err := m.boards.ListBoards()
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.boardList = list
	m.selectedBoardIndex = 0
	m.mode = ModeBoards
}

func (m *Model) leaveBoards() {
	if m.board.ID == "" {
		m.mode = ModeStartup
	} else {
		m.mode = ModeNormal
	}
}

// pasteClipboardText turns whatever text sits on the system clipboard
// into a content file plus a note pointing at it.
func (m *Model) pasteClipboardText() {
	text, err := readClipboardText()
	if err != nil {
		m.errorMessage = "Clipboard unavailable"
		return
	}
	text = cleanClipboardText(text)
	if strings.TrimSpace(text) == "" {
		m.errorMessage = "Clipboard is empty"
		return
	}
	ref := fmt.Sprintf("pasted-%d.txt", time.Now().UnixMilli())
	if err := os.WriteFile(filepath.Join(m.contentDir, ref), []byte(text), 0o644); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.addNodeAtCursor(canvas.KindNote, ref)
	m.successMessage = fmt.Sprintf("Pasted into %s", ref)
}

func (m *Model) exportPNG() {
	if m.board.ID == "" {
		m.errorMessage = "No board open"
		return
	}
	dir := filepath.Join(m.cfg.BoardDir(), "exports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.errorMessage = err.Error()
		return
	}
	path := filepath.Join(dir, exportFileName(m.board.Name))
	err := export.PNG(path, m.eng.State(), m.eng.Config(), export.Options{
		Scale:   m.cfg.Export.Scale,
		Padding: m.cfg.Export.Padding,
		Bodies:  m.library.Body,
	})
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	if err := m.boards.RecordExport(m.board.ID, path); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.successMessage = fmt.Sprintf("Exported to %s", path)
}

func exportFileName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '/':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "board.png"
	}
	return b.String() + ".png"
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	if m.mode != ModeNormal && m.mode != ModeDrag && m.mode != ModeResize {
		return m
	}
	pt := cellCenter(msg.X, msg.Y)

	switch msg.Type {
	case tea.MouseWheelUp:
		m.eng.ZoomAt(pt, 1.1)
	case tea.MouseWheelDown:
		m.eng.ZoomAt(pt, 1/1.1)
	case tea.MouseLeft:
		m.cursorX, m.cursorY = msg.X, msg.Y
		m.ensureCursorInBounds()
		if !m.mouseDown {
			m.mouseDown = true
			m.lastMouseX, m.lastMouseY = msg.X, msg.Y
			if id, h, ok := m.eng.HitTest(pt); ok {
				m.pushUndo()
				m.selectedNode = id
				if h != (canvas.Handle{}) {
					m.eng.BeginResize(id, h, pt)
					m.mode = ModeResize
				} else {
					m.eng.BeginDrag(id, pt)
					m.mode = ModeDrag
				}
			}
			return m
		}
		// Held button: continue the gesture, or pan over empty canvas.
		if m.eng.GestureActive() {
			m.eng.PointerMove(pt)
		} else {
			m.eng.Pan(float64(msg.X-m.lastMouseX)*cellW, float64(msg.Y-m.lastMouseY)*cellH)
		}
		m.lastMouseX, m.lastMouseY = msg.X, msg.Y
	case tea.MouseRelease:
		if m.eng.GestureActive() {
			m.eng.EndGesture()
		}
		if m.mode == ModeDrag || m.mode == ModeResize {
			m.mode = ModeNormal
		}
		m.selectedNode = ""
		m.mouseDown = false
	case tea.MouseMotion:
		m.cursorX, m.cursorY = msg.X, msg.Y
		m.ensureCursorInBounds()
	}
	return m
}
