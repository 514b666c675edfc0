package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Decision is one logged decision plus its extracted reasoning.
// DecisionText is the user's original input and never changes after
// creation; the remaining reasoning fields come from the extractor.
type Decision struct {
	ID           string   `json:"id"`
	DecisionText string   `json:"decisionText"`
	Category     string   `json:"category"`
	Pinned       bool     `json:"pinned"`
	Summary      string   `json:"summary"`
	Goal         string   `json:"goal"`
	Reasoning    string   `json:"reasoning"`
	Constraints  []string `json:"constraints"`
	Tags         []string `json:"tags"`
	CreatedAt    int64    `json:"createdAt"`
	UpdatedAt    int64    `json:"updatedAt"`
}

const decisionColumns = `id, decision_text, category, pinned, summary, goal, reasoning, constraints, tags, created_at, updated_at`

// DefaultCategory is applied when a decision is created without one.
const DefaultCategory = "general"

// CreateDecision persists a fully assembled decision record. Assigns a
// fresh id and timestamps, and defaults the category to "general" when
// empty. The record is written in a single INSERT so readers never see
// a partially extracted decision.
func (db *DB) CreateDecision(d *Decision) error {
	now := time.Now().UnixMilli()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	d.Pinned = false
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := db.insertDecision(d); err != nil {
		return fmt.Errorf("create decision: %w", err)
	}
	return nil
}

// ReinsertDecision puts a previously deleted snapshot back into the
// store verbatim: same id, same timestamps, same pin state.
func (db *DB) ReinsertDecision(d *Decision) error {
	if err := db.insertDecision(d); err != nil {
		return fmt.Errorf("reinsert decision: %w", err)
	}
	return nil
}

func (db *DB) insertDecision(d *Decision) error {
	constraints, err := marshalStrings(d.Constraints)
	if err != nil {
		return err
	}
	tags, err := marshalStrings(d.Tags)
	if err != nil {
		return err
	}

	pinned := 0
	if d.Pinned {
		pinned = 1
	}

	_, err = db.Exec(`
		INSERT INTO decisions (`+decisionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.DecisionText, d.Category, pinned,
		d.Summary, d.Goal, d.Reasoning, constraints, tags,
		d.CreatedAt, d.UpdatedAt)
	return err
}

// GetDecision returns a decision by id, or nil if not found.
func (db *DB) GetDecision(id string) (*Decision, error) {
	row := db.QueryRow(`SELECT `+decisionColumns+` FROM decisions WHERE id = ?`, id)
	d, err := scanDecision(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get decision: %w", err)
	}
	return d, nil
}

// ListDecisions returns all decisions, pinned first, then newest first.
// Ties on created_at fall back to insertion order, newest insert first.
func (db *DB) ListDecisions() ([]Decision, error) {
	rows, err := db.Query(`
		SELECT ` + decisionColumns + ` FROM decisions
		ORDER BY pinned DESC, created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// TogglePin flips the pinned flag and bumps updated_at.
// Returns nil if the decision does not exist.
func (db *DB) TogglePin(id string) (*Decision, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE decisions SET pinned = 1 - pinned, updated_at = ?
		WHERE id = ?
	`, now, id)
	if err != nil {
		return nil, fmt.Errorf("toggle pin: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return db.GetDecision(id)
}

// SetCategory stores the category verbatim and bumps updated_at. No
// membership check against the UI's display set: any string is
// accepted here, the write path is permissive on purpose.
// Returns nil if the decision does not exist.
func (db *DB) SetCategory(id, category string) (*Decision, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE decisions SET category = ?, updated_at = ?
		WHERE id = ?
	`, category, now, id)
	if err != nil {
		return nil, fmt.Errorf("set category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return db.GetDecision(id)
}

// DeleteDecision removes a decision. Returns false if it did not exist.
func (db *DB) DeleteDecision(id string) (bool, error) {
	result, err := db.Exec("DELETE FROM decisions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete decision: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// ClearDecisions removes every decision and returns how many there
// were. Bulk clear never feeds the undo cache.
func (db *DB) ClearDecisions() (int, error) {
	result, err := db.Exec("DELETE FROM decisions")
	if err != nil {
		return 0, fmt.Errorf("clear decisions: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// CountDecisions returns the number of stored decisions.
func (db *DB) CountDecisions() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM decisions").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (*Decision, error) {
	var d Decision
	var pinned int
	var constraints, tags string
	err := row.Scan(&d.ID, &d.DecisionText, &d.Category, &pinned,
		&d.Summary, &d.Goal, &d.Reasoning, &constraints, &tags,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Pinned = pinned != 0
	if d.Constraints, err = unmarshalStrings(constraints); err != nil {
		return nil, fmt.Errorf("decode constraints for %s: %w", d.ID, err)
	}
	if d.Tags, err = unmarshalStrings(tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", d.ID, err)
	}
	return &d, nil
}

func scanDecisions(rows *sql.Rows) ([]Decision, error) {
	var decisions []Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, *d)
	}
	return decisions, rows.Err()
}

func marshalStrings(s []string) (string, error) {
	if s == nil {
		s = []string{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(b), nil
}

func unmarshalStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var s []string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	if s == nil {
		s = []string{}
	}
	return s, nil
}
