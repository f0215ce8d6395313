package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"employerexport/internal/domain"
)

// HistoryStore persists export run logs. It implements domain.RunLogStore.
type HistoryStore struct {
	db *DB
}

var _ domain.RunLogStore = (*HistoryStore)(nil)

// NewHistoryStore creates a HistoryStore on db.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// ── Run Logs ───────────────────────────────────────────────

// CreateRunLog assigns l a new ID and inserts it.
func (s *HistoryStore) CreateRunLog(l *domain.RunLog) error {
	l.ID = uuid.New().String()
	duration := l.FinishedAt.Sub(l.StartedAt).Milliseconds()
	_, err := s.db.conn.Exec(
		`INSERT INTO export_runs (id, started_at, finished_at, status, regions, industries, date_posted, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.StartedAt.UTC(), l.FinishedAt.UTC(), string(l.Status),
		l.Regions, l.Industries, l.DatePosted, l.Error, duration,
	)
	if err != nil {
		return fmt.Errorf("insert run log: %w", err)
	}
	return nil
}

// ListRunLogs returns up to limit runs, most recent first. limit <= 0
// returns every run.
func (s *HistoryStore) ListRunLogs(limit int) ([]domain.RunLog, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.conn.Query(
		`SELECT id, started_at, finished_at, status, regions, industries, date_posted, error
		 FROM export_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list run logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.RunLog
	for rows.Next() {
		var l domain.RunLog
		var status string
		if err := rows.Scan(&l.ID, &l.StartedAt, &l.FinishedAt, &status,
			&l.Regions, &l.Industries, &l.DatePosted, &l.Error); err != nil {
			return nil, err
		}
		l.Status = domain.RunStatus(status)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// LastSuccess returns the finish time of the most recent successful run,
// or the zero time when there is none.
func (s *HistoryStore) LastSuccess() (time.Time, error) {
	var t time.Time
	err := s.db.conn.QueryRow(
		`SELECT finished_at FROM export_runs WHERE status = ? ORDER BY started_at DESC LIMIT 1`,
		string(domain.RunStatusSuccess),
	).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last success: %w", err)
	}
	return t, nil
}
