// Package store provides a SQLite-backed journal of observed quota snapshots.
// The journal is write-mostly: it feeds reports and charts but never seeds a
// session's live quota state.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/ghlc/internal/ratelimit"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Entry is one journaled snapshot.
type Entry struct {
	ID         int64              `json:"id" yaml:"id"`
	SessionID  string             `json:"session_id" yaml:"session_id"`
	RecordedAt time.Time          `json:"recorded_at" yaml:"recorded_at"`
	Snapshot   ratelimit.Snapshot `json:"snapshot" yaml:"snapshot"`
}

// History is the quota journal.
type History struct {
	db *sql.DB
}

// Open opens or creates the journal database at the given path.
func Open(dbPath string) (*History, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the journal database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record appends one snapshot. RecordedAt is the snapshot's LastUpdated,
// or now when unset.
func (h *History) Record(ctx context.Context, sessionID string, s ratelimit.Snapshot) error {
	at := s.LastUpdated
	if at.IsZero() {
		at = time.Now()
	}
	var reset sql.NullString
	if !s.ResetAt.IsZero() {
		reset = sql.NullString{String: s.ResetAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := h.db.ExecContext(ctx, `INSERT INTO quota_history
		(session_id, recorded_at, remaining, quota_limit, used, daily_remaining, daily_limit, reset_at, level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, at.UnixNano(),
		s.Remaining, s.Limit, s.Used, s.DailyRemaining, s.DailyLimit,
		reset, s.Level().String(),
	)
	if err != nil {
		return fmt.Errorf("recording snapshot: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (h *History) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 50
	}
	return h.query(ctx, `SELECT id, session_id, recorded_at, remaining, quota_limit, used,
		daily_remaining, daily_limit, reset_at
		FROM quota_history ORDER BY id DESC LIMIT ?`, n)
}

// Since returns entries recorded at or after t, oldest first.
func (h *History) Since(ctx context.Context, t time.Time) ([]Entry, error) {
	return h.query(ctx, `SELECT id, session_id, recorded_at, remaining, quota_limit, used,
		daily_remaining, daily_limit, reset_at
		FROM quota_history WHERE recorded_at >= ? ORDER BY id ASC`, t.UnixNano())
}

func (h *History) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := h.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recorded int64
		var reset sql.NullString
		err := rows.Scan(&e.ID, &e.SessionID, &recorded,
			&e.Snapshot.Remaining, &e.Snapshot.Limit, &e.Snapshot.Used,
			&e.Snapshot.DailyRemaining, &e.Snapshot.DailyLimit, &reset)
		if err != nil {
			return nil, err
		}
		e.RecordedAt = time.Unix(0, recorded).UTC()
		e.Snapshot.LastUpdated = e.RecordedAt
		if reset.Valid && reset.String != "" {
			e.Snapshot.ResetAt, _ = time.Parse(time.RFC3339, reset.String)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of journaled snapshots.
func (h *History) Count(ctx context.Context) (int, error) {
	var count int
	err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quota_history").Scan(&count)
	return count, err
}

// Prune deletes entries recorded before t and reports how many went.
func (h *History) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx, "DELETE FROM quota_history WHERE recorded_at < ?",
		before.UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Follow records every snapshot received on updates until ctx is done or
// the channel closes. Write failures are logged and skipped.
func (h *History) Follow(ctx context.Context, sessionID string, updates <-chan ratelimit.Snapshot, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := h.Record(ctx, sessionID, snap); err != nil {
				logger.Warn("history write failed", zap.Error(err))
			}
		}
	}
}
