package report

import (
	"context"
	"log/slog"

	"mailmetrics/internal/domain"
)

// Submitter builds and submits the report query to the remote engine.
// Submission triggers remote computation only; no local work happens.
type Submitter struct {
	engine domain.QueryEngine
	query  *Query
	logger *slog.Logger
}

// NewSubmitter creates a Submitter for the given query.
func NewSubmitter(engine domain.QueryEngine, query *Query, logger *slog.Logger) *Submitter {
	return &Submitter{engine: engine, query: query, logger: logger}
}

// Submit starts one remote execution and returns its job handle. A
// rejected or unreachable engine surfaces as domain.SubmissionError and
// is not retried.
func (s *Submitter) Submit(ctx context.Context) (*domain.QueryJob, error) {
	sqlText := s.query.Definition.SQL()
	jobID, err := s.engine.StartQuery(ctx, domain.StartQueryInput{
		QueryText:      sqlText,
		Database:       s.query.Database,
		OutputLocation: s.query.OutputLocation,
		Workgroup:      s.query.Workgroup,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("query submitted",
		"job_id", jobID,
		"database", s.query.Database,
		"signature", s.query.Signature(),
	)

	return &domain.QueryJob{
		ID:             jobID,
		QueryText:      sqlText,
		Database:       s.query.Database,
		OutputLocation: s.query.OutputLocation,
		State:          domain.JobStateSubmitted,
	}, nil
}
