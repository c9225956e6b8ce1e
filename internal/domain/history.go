package domain

import "time"

// JobHistoryEntry is one recorded remote query attempt: provenance and
// timings only, no result rows.
type JobHistoryEntry struct {
	ID          int64
	JobID       string
	Signature   string
	State       JobState
	Reason      *string
	RowCount    *int64
	SubmittedAt time.Time
	CompletedAt *time.Time
	DurationMs  *int64
	CreatedAt   time.Time
}
