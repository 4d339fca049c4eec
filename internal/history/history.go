// Package history keeps a journal of dispatched alarm firings in a
// local sqlite database. It records events only; the active alarm set
// itself is never persisted and is rebuilt fresh on every daemon start.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/machtimer/machtimer/common"
)

// DefaultKeep is the number of journal rows retained after pruning.
const DefaultKeep = 1000

const schema = `
CREATE TABLE IF NOT EXISTS firings (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	alarm_id TEXT NOT NULL,
	label    TEXT NOT NULL DEFAULT '',
	deadline INTEGER NOT NULL,
	fired_at INTEGER NOT NULL,
	periodic INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS firings_fired_at ON firings(fired_at);
`

// Journal is an append-only log of alarm firings.
type Journal struct {
	db   *sql.DB
	keep int
}

// Open creates or opens the journal at path. A keep of 0 selects
// DefaultKeep.
func Open(path string, keep int) (*Journal, error) {
	if keep <= 0 {
		keep = DefaultKeep
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Journal{db: db, keep: keep}, nil
}

// Append records one firing and prunes rows beyond the retention cap.
func (j *Journal) Append(e *common.HistoryEntry) error {
	_, err := j.db.Exec(
		`INSERT INTO firings (alarm_id, label, deadline, fired_at, periodic) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Label, int64(e.Deadline), e.FiredAt.UnixNano(), e.Periodic,
	)
	if err != nil {
		return fmt.Errorf("append firing: %w", err)
	}
	_, err = j.db.Exec(
		`DELETE FROM firings WHERE seq <= (SELECT MAX(seq) FROM firings) - ?`, j.keep,
	)
	if err != nil {
		return fmt.Errorf("prune journal: %w", err)
	}
	return nil
}

// Recent returns up to limit firings, newest first.
func (j *Journal) Recent(limit int) ([]*common.HistoryEntry, error) {
	if limit <= 0 || limit > j.keep {
		limit = j.keep
	}
	rows, err := j.db.Query(
		`SELECT alarm_id, label, deadline, fired_at, periodic FROM firings ORDER BY seq DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []*common.HistoryEntry
	for rows.Next() {
		var e common.HistoryEntry
		var deadline, firedAt int64
		if err := rows.Scan(&e.ID, &e.Label, &deadline, &firedAt, &e.Periodic); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.Deadline = uint64(deadline)
		e.FiredAt = time.Unix(0, firedAt)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}
