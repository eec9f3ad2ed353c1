package editor

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusStyle   = lipgloss.NewStyle().Reverse(true)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
)

func (m Model) View() string {
	if m.help && m.mode != ModeStartup {
		return m.helpView()
	}
	switch {
	case m.mode == ModeStartup,
		m.mode == ModeNameInput && m.board.ID == "":
		return m.startupView()
	case m.mode == ModeBoards:
		return m.boardsView()
	}
	return m.canvasView()
}

func (m Model) canvasView() string {
	width := m.width
	if width < 1 {
		width = 1
	}

	highlight := make(map[string]bool)
	if m.selectedNode != "" {
		highlight[m.selectedNode] = true
	}
	if m.connectFrom != "" {
		highlight[m.connectFrom] = true
	}
	if c := m.eng.Candidate(); c != nil {
		highlight[c.Source] = true
		highlight[c.Target] = true
	}

	lines := m.grid.Lines(width, m.canvasHeight(), highlight)

	// Overlay the cursor block.
	cursorX, cursorY := m.cursorX, m.cursorY
	if cursorY >= 0 && cursorY < len(lines) {
		row := []rune(lines[cursorY])
		if cursorX >= 0 && cursorX < len(row) {
			row[cursorX] = '█'
			lines[cursorY] = string(row)
		}
	}

	var result strings.Builder
	result.WriteString(strings.Join(lines, "\n"))
	result.WriteString("\n")
	result.WriteString(statusStyle.Render(m.statusLine()))
	return result.String()
}

func (m Model) startupView() string {
	lines := []string{
		"",
		"  " + titleStyle.Render("weave"),
		"",
		"  'n' New board",
		"  'o' Open existing board",
		"  'q' Quit",
		"",
	}
	if recent, err := m.boards.ListBoards(); err == nil && len(recent) > 0 {
		lines = append(lines, "  Recent boards:")
		max := 5
		if len(recent) < max {
			max = len(recent)
		}
		for _, b := range recent[:max] {
			lines = append(lines, "    "+b.Name+"  "+faintStyle.Render(b.UpdatedAt.Format("2006-01-02 15:04")))
		}
	}

	var result strings.Builder
	result.WriteString(strings.Join(lines, "\n"))
	result.WriteString("\n\n")
	if m.mode == ModeNameInput {
		result.WriteString(statusStyle.Render(m.statusLine()))
	} else {
		result.WriteString(statusStyle.Render("Press 'n' for new board, 'o' to open existing, or 'q' to quit"))
	}
	return result.String()
}

func (m Model) boardsView() string {
	width := m.width
	if width < 1 {
		width = 1
	}

	var result strings.Builder
	result.WriteString("Select a board:\n")
	result.WriteString(strings.Repeat("─", width))
	result.WriteString("\n")

	if len(m.boardList) == 0 {
		result.WriteString("(No boards yet; press 'n' to create one)\n")
	} else {
		maxRows := m.height - 4
		if maxRows < 1 {
			maxRows = 1
		}
		startIdx := 0
		if m.selectedBoardIndex >= maxRows {
			startIdx = m.selectedBoardIndex - maxRows + 1
		}
		endIdx := startIdx + maxRows
		if endIdx > len(m.boardList) {
			endIdx = len(m.boardList)
		}
		for i := startIdx; i < endIdx; i++ {
			b := m.boardList[i]
			label := fmt.Sprintf("%s  %s", b.Name, faintStyle.Render(b.UpdatedAt.Format("2006-01-02 15:04")))
			if i == m.selectedBoardIndex {
				result.WriteString(selectedStyle.Render("> " + label + " <"))
			} else {
				result.WriteString("  " + label)
			}
			result.WriteString("\n")
		}
	}

	result.WriteString(strings.Repeat("─", width))
	result.WriteString("\n")
	result.WriteString(statusStyle.Render(m.statusLine()))
	return result.String()
}

func (m Model) statusLine() string {
	switch m.mode {
	case ModeDrag:
		status := fmt.Sprintf("Mode: MOVE | %s | hjkl/arrows=move, Enter=finish, Esc=cancel", m.nodeLabel(m.selectedNode))
		if c := m.eng.Candidate(); c != nil {
			status += fmt.Sprintf(" | Near %s (release to connect)", m.nodeLabel(c.Target))
		}
		return status
	case ModeResize:
		return fmt.Sprintf("Mode: RESIZE | %s | hjkl/arrows=resize, Enter=finish, Esc=cancel", m.nodeLabel(m.selectedNode))
	case ModeBoards:
		status := "Mode: BOARDS | ↑/↓=navigate, Enter=open, n=new board, Esc=back"
		if m.errorMessage != "" {
			status += " | ERROR: " + m.errorMessage
		}
		return status
	case ModeNameInput:
		var prompt string
		switch m.nameOp {
		case NameNewBoard:
			prompt = "New board name"
		case NameRenameBoard:
			prompt = "Rename board"
		case NameNodeRef:
			prompt = "Content ref"
		case NameImageRef:
			prompt = "Image ref"
		}
		status := fmt.Sprintf("Mode: NAME | %s: %s█ | Enter=confirm, Esc=cancel", prompt, m.nameInput)
		if m.errorMessage != "" {
			status += " | ERROR: " + m.errorMessage
		}
		return status
	case ModeConfirm:
		var message string
		switch m.confirmAction {
		case ConfirmDeleteNode:
			message = "Delete this box? (y/n)"
		case ConfirmDeleteEdge:
			message = "Delete this connection? (y/n)"
		case ConfirmQuit:
			message = "Quit weave? (y/n)"
		}
		return fmt.Sprintf("Mode: CONFIRM | %s", message)
	default:
		modeStr := m.modeString()
		if m.zPan {
			modeStr = "PAN"
		}
		status := fmt.Sprintf("Mode: %s | %s | Cursor: (%d,%d) | Zoom: %d%%",
			modeStr, m.board.Name, m.cursorX, m.cursorY,
			int(math.Round(m.eng.Viewport().Zoom*100)))
		if m.connectFrom != "" {
			status += fmt.Sprintf(" | Connect from %s (select target)", m.nodeLabel(m.connectFrom))
		}
		if c := m.eng.Candidate(); c != nil {
			status += fmt.Sprintf(" | Near %s (release to connect)", m.nodeLabel(c.Target))
		}
		if m.successMessage != "" {
			status += fmt.Sprintf(" | %s", m.successMessage)
		}
		if m.errorMessage != "" {
			status += fmt.Sprintf(" | ERROR: %s", m.errorMessage)
		} else if m.successMessage == "" {
			status += " | ? for help | q to quit"
		}
		return status
	}
}

func (m Model) modeString() string {
	switch m.mode {
	case ModeStartup:
		return "STARTUP"
	case ModeNormal:
		return "NORMAL"
	case ModeDrag:
		return "MOVE"
	case ModeResize:
		return "RESIZE"
	case ModeBoards:
		return "BOARDS"
	case ModeNameInput:
		return "NAME"
	case ModeConfirm:
		return "CONFIRM"
	default:
		return "UNKNOWN"
	}
}

func (m Model) helpView() string {
	helpLines := []string{
		"Weave Help",
		"==========",
		"",
		"Navigation:",
		"-----------",
		"  h/←/j/↓/k/↑/l/→  Move cursor around the screen",
		"  Shift+h/j/k/l    Move cursor 2x faster",
		"  z                Toggle pan mode (direction keys pan the board)",
		"  +/-              Zoom in/out around the cursor",
		"  f                Zoom to fit the whole board",
		"",
		"Box Operations:",
		"---------------",
		"  b                Create note at cursor position",
		"  t                Create thread at cursor position",
		"  i                Create image at cursor position (prompts for ref)",
		"  e                Edit content ref of box under cursor",
		"  m                Move box under cursor (Enter=finish, Esc=cancel)",
		"  r                Resize box under cursor (Enter=finish, Esc=cancel)",
		"  d                Delete box or connection under cursor",
		"  c                Copy box under cursor",
		"  p                Paste copied box at cursor position",
		"  P                Paste clipboard text as a new note",
		"",
		"Note: Dragging a note near a compatible box auto-connects them on release.",
		"Note: Selected boxes are highlighted with # borders",
		"",
		"Connection Operations:",
		"---------------------",
		"  a                Start/finish a connection",
		"                   - Press 'a' on a box to start",
		"                   - Press 'a' on another box to finish",
		"",
		"Board Operations:",
		"-----------------",
		"  s                Save now (changes autosave in the background)",
		"  S                Export board as PNG",
		"  o                Open another board",
		"  N                Create a new board",
		"  R                Rename current board",
		"",
		"General:",
		"  u                Undo last action",
		"  U                Redo last undone action",
		"  Esc              Clear selection/cancel current operation",
		"  ?                Toggle this help screen",
		"  q/Ctrl+C         Quit",
	}

	visibleHeight := m.height - 1
	if visibleHeight < 1 {
		visibleHeight = 1
	}

	startLine := m.helpScroll
	if startLine >= len(helpLines) {
		startLine = len(helpLines) - visibleHeight
		if startLine < 0 {
			startLine = 0
		}
	}
	endLine := startLine + visibleHeight
	if endLine > len(helpLines) {
		endLine = len(helpLines)
	}

	var visibleLines []string
	if startLine < len(helpLines) {
		visibleLines = helpLines[startLine:endLine]
	}

	result := strings.Join(visibleLines, "\n")
	statusLine := fmt.Sprintf("Help (%d-%d of %d lines) | j/k to scroll, Esc to close",
		startLine+1, endLine, len(helpLines))
	return result + "\n" + statusStyle.Render(statusLine)
}
