package report

import (
	"context"
	"log/slog"
	"time"

	"mailmetrics/internal/domain"
)

// Loader runs one full submit → await → materialize cycle and records
// the attempt in the job history. It never retries: a failed cycle is
// surfaced to the caller, who decides what to do.
type Loader struct {
	submitter *Submitter
	poller    *Poller
	mat       *Materializer
	history   domain.JobHistoryRepository
	signature string
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewLoader wires a Loader. history may be nil when attempt recording is
// disabled; now may be nil for the wall clock.
func NewLoader(
	submitter *Submitter,
	poller *Poller,
	mat *Materializer,
	history domain.JobHistoryRepository,
	signature string,
	timeout time.Duration,
	logger *slog.Logger,
	now func() time.Time,
) *Loader {
	if now == nil {
		now = time.Now
	}
	return &Loader{
		submitter: submitter,
		poller:    poller,
		mat:       mat,
		history:   history,
		signature: signature,
		timeout:   timeout,
		logger:    logger,
		now:       now,
	}
}

// Load executes one remote query cycle. Ordering is strict: submit, then
// sequential polls, then materialization. The configured timeout bounds
// the whole cycle.
func (l *Loader) Load(ctx context.Context) (*domain.ResultSet, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	submittedAt := l.now().UTC()
	job, err := l.submitter.Submit(ctx)
	if err != nil {
		l.logger.Error("submission rejected", "error", err)
		return nil, err
	}

	status, err := l.poller.Await(ctx, job.ID)
	if err != nil {
		l.record(job.ID, domain.JobStateCancelled, err.Error(), nil, submittedAt)
		return nil, err
	}
	job.State = status.State
	job.FailureReason = status.FailureReason

	if job.State != domain.JobStateSucceeded {
		failure := &domain.JobFailureError{JobID: job.ID, State: job.State, Reason: job.FailureReason}
		l.logger.Warn("job terminated unsuccessfully", "job_id", job.ID, "state", job.State, "reason", job.FailureReason)
		l.record(job.ID, job.State, job.FailureReason, nil, submittedAt)
		return nil, failure
	}

	rs, err := l.mat.Materialize(ctx, job)
	if err != nil {
		l.logger.Error("materialization failed", "job_id", job.ID, "error", err)
		l.record(job.ID, domain.JobStateFailed, err.Error(), nil, submittedAt)
		return nil, err
	}

	rowCount := int64(len(rs.Rows))
	l.record(job.ID, domain.JobStateSucceeded, "", &rowCount, submittedAt)
	l.logger.Info("result set materialized", "job_id", job.ID, "rows", rowCount)
	return rs, nil
}

// record writes a history entry. History is advisory: failures are
// logged, never propagated into the load outcome.
func (l *Loader) record(jobID string, state domain.JobState, reason string, rowCount *int64, submittedAt time.Time) {
	if l.history == nil {
		return
	}
	completedAt := l.now().UTC()
	durationMs := completedAt.Sub(submittedAt).Milliseconds()
	entry := &domain.JobHistoryEntry{
		JobID:       jobID,
		Signature:   l.signature,
		State:       state,
		RowCount:    rowCount,
		SubmittedAt: submittedAt,
		CompletedAt: &completedAt,
		DurationMs:  &durationMs,
	}
	if reason != "" {
		entry.Reason = &reason
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := l.history.Record(ctx, entry); err != nil {
		l.logger.Warn("record job history", "job_id", jobID, "error", err)
	}
}
