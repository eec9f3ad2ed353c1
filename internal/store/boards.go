package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"weave/internal/canvas"
)

// Board is a saved canvas with its metadata.
type Board struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// historyCap bounds each board's autosave history; the oldest rows are
// pruned as new snapshots land.
const historyCap = 20

// Snapshot is one entry in a board's autosave history.
type Snapshot struct {
	ID      int64
	SavedAt time.Time
}

// BoardStore provides board CRUD and state persistence on top of DB.
type BoardStore struct {
	db *DB
}

func NewBoardStore(db *DB) *BoardStore {
	return &BoardStore{db: db}
}

func (s *BoardStore) CreateBoard(name string) (Board, error) {
	now := time.Now()
	b := Board{ID: uuid.New().String(), Name: name, CreatedAt: now, UpdatedAt: now}
	_, err := s.db.conn.Exec(
		`INSERT INTO boards (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.Name, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return Board{}, fmt.Errorf("create board: %w", err)
	}
	return b, nil
}

func (s *BoardStore) GetBoard(id string) (Board, error) {
	var b Board
	err := s.db.conn.QueryRow(
		`SELECT id, name, created_at, updated_at FROM boards WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Board{}, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

// FindBoard looks a board up by id, then by exact name.
func (s *BoardStore) FindBoard(ref string) (Board, error) {
	if b, err := s.GetBoard(ref); err == nil {
		return b, nil
	}
	var b Board
	err := s.db.conn.QueryRow(
		`SELECT id, name, created_at, updated_at FROM boards WHERE name = ? ORDER BY updated_at DESC LIMIT 1`, ref,
	).Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Board{}, fmt.Errorf("find board %q: %w", ref, err)
	}
	return b, nil
}

func (s *BoardStore) ListBoards() ([]Board, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, name, created_at, updated_at FROM boards ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		var b Board
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (s *BoardStore) RenameBoard(id, name string) error {
	_, err := s.db.conn.Exec(
		`UPDATE boards SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now(), id,
	)
	return err
}

func (s *BoardStore) DeleteBoard(id string) error {
	if _, err := s.db.conn.Exec(`DELETE FROM board_states WHERE board_id = ?`, id); err != nil {
		return err
	}
	if _, err := s.db.conn.Exec(`DELETE FROM board_history WHERE board_id = ?`, id); err != nil {
		return err
	}
	if _, err := s.db.conn.Exec(`DELETE FROM exports WHERE board_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.conn.Exec(`DELETE FROM boards WHERE id = ?`, id)
	return err
}

// SaveState writes the full canvas state of a board, replacing any
// previous snapshot, appending to the board's autosave history, and
// bumping the board's updated_at.
func (s *BoardStore) SaveState(boardID string, st canvas.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	now := time.Now()
	_, err = s.db.conn.Exec(
		`INSERT INTO board_states (board_id, state_json, structure_key, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(board_id) DO UPDATE SET state_json = excluded.state_json,
			structure_key = excluded.structure_key, updated_at = excluded.updated_at`,
		boardID, string(raw), st.StructureKey(), now,
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := s.appendHistory(boardID, string(raw), now); err != nil {
		return err
	}
	_, err = s.db.conn.Exec(`UPDATE boards SET updated_at = ? WHERE id = ?`, now, boardID)
	return err
}

// appendHistory records one history row, skipping exact duplicates of
// the newest entry and pruning past historyCap.
func (s *BoardStore) appendHistory(boardID, stateJSON string, now time.Time) error {
	var last string
	err := s.db.conn.QueryRow(
		`SELECT state_json FROM board_history WHERE board_id = ? ORDER BY id DESC LIMIT 1`, boardID,
	).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read history: %w", err)
	}
	if last == stateJSON {
		return nil
	}
	if _, err := s.db.conn.Exec(
		`INSERT INTO board_history (board_id, state_json, saved_at) VALUES (?, ?, ?)`,
		boardID, stateJSON, now,
	); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	_, err = s.db.conn.Exec(
		`DELETE FROM board_history WHERE board_id = ? AND id NOT IN (
			SELECT id FROM board_history WHERE board_id = ? ORDER BY id DESC LIMIT ?)`,
		boardID, boardID, historyCap,
	)
	return err
}

// History lists a board's autosave snapshots, newest first.
func (s *BoardStore) History(boardID string) ([]Snapshot, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, saved_at FROM board_history WHERE board_id = ? ORDER BY id DESC`, boardID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var sn Snapshot
		if err := rows.Scan(&sn.ID, &sn.SavedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

// LoadSnapshot reads one history entry back as a full canvas state.
func (s *BoardStore) LoadSnapshot(id int64) (canvas.State, error) {
	var raw string
	err := s.db.conn.QueryRow(
		`SELECT state_json FROM board_history WHERE id = ?`, id,
	).Scan(&raw)
	if err != nil {
		return canvas.State{}, fmt.Errorf("load snapshot %d: %w", id, err)
	}

	var st canvas.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return canvas.State{}, fmt.Errorf("decode snapshot %d: %w", id, err)
	}
	if st.View.Zoom == 0 {
		st.View.Zoom = 1
	}
	return st, nil
}

// LoadState reads a board's canvas state. A board that was never saved
// yields an empty state at default zoom.
func (s *BoardStore) LoadState(boardID string) (canvas.State, error) {
	var raw string
	err := s.db.conn.QueryRow(
		`SELECT state_json FROM board_states WHERE board_id = ?`, boardID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return canvas.State{View: canvas.Viewport{Zoom: 1}}, nil
	}
	if err != nil {
		return canvas.State{}, fmt.Errorf("load state: %w", err)
	}

	var st canvas.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return canvas.State{}, fmt.Errorf("decode state: %w", err)
	}
	if st.View.Zoom == 0 {
		st.View.Zoom = 1
	}
	return st, nil
}

// RecordExport remembers where a board was last exported.
func (s *BoardStore) RecordExport(boardID, path string) error {
	_, err := s.db.conn.Exec(
		`INSERT INTO exports (id, board_id, path, exported_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), boardID, path, time.Now(),
	)
	return err
}

// LastExport returns the most recent export path for a board, or ""
// when the board was never exported.
func (s *BoardStore) LastExport(boardID string) (string, error) {
	var path string
	err := s.db.conn.QueryRow(
		`SELECT path FROM exports WHERE board_id = ? ORDER BY exported_at DESC LIMIT 1`, boardID,
	).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return path, err
}
