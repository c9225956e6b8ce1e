// Package repository implements domain repository interfaces using SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"mailmetrics/internal/domain"
)

var _ domain.JobHistoryRepository = (*JobHistoryRepo)(nil)

// JobHistoryRepo records remote query attempts in SQLite. Entries carry
// job metadata only — result rows are never persisted.
type JobHistoryRepo struct {
	db *sql.DB
}

// NewJobHistoryRepo creates a new JobHistoryRepo.
func NewJobHistoryRepo(db *sql.DB) *JobHistoryRepo {
	return &JobHistoryRepo{db: db}
}

// Record inserts one attempt entry.
func (r *JobHistoryRepo) Record(ctx context.Context, entry *domain.JobHistoryEntry) (*domain.JobHistoryEntry, error) {
	if entry == nil {
		return nil, domain.ErrValidation("history entry is required")
	}
	if entry.JobID == "" {
		return nil, domain.ErrValidation("history entry requires a job id")
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO job_history (job_id, signature, state, reason, row_count, submitted_at, completed_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.JobID, entry.Signature, string(entry.State), entry.Reason, entry.RowCount,
		entry.SubmittedAt, entry.CompletedAt, entry.DurationMs)
	if err != nil {
		return nil, mapDBError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.getOne(ctx, `SELECT `+historyColumns+` FROM job_history WHERE id = ?`, id)
}

// List returns the most recent entries, newest first.
func (r *JobHistoryRepo) List(ctx context.Context, limit int) ([]domain.JobHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+historyColumns+`
		FROM job_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.JobHistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

// GetByJobID returns the entry for one remote job.
func (r *JobHistoryRepo) GetByJobID(ctx context.Context, jobID string) (*domain.JobHistoryEntry, error) {
	return r.getOne(ctx, `SELECT `+historyColumns+` FROM job_history WHERE job_id = ?`, jobID)
}

const historyColumns = `id, job_id, signature, state, reason, row_count, submitted_at, completed_at, duration_ms, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *JobHistoryRepo) getOne(ctx context.Context, query string, args ...interface{}) (*domain.JobHistoryEntry, error) {
	entry, err := scanHistory(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapDBError(err)
	}
	return entry, nil
}

func scanHistory(row rowScanner) (*domain.JobHistoryEntry, error) {
	var entry domain.JobHistoryEntry
	var state string
	if err := row.Scan(
		&entry.ID, &entry.JobID, &entry.Signature, &state, &entry.Reason,
		&entry.RowCount, &entry.SubmittedAt, &entry.CompletedAt, &entry.DurationMs,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	entry.State = domain.JobState(state)
	return &entry, nil
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrValidation("history entry already exists")
	}
	return err
}
