package athena

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"

	"mailmetrics/internal/domain"
)

var _ domain.QueryEngine = (*Engine)(nil)

// StartQueryAPI is the subset of the Athena client the engine uses.
type StartQueryAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	StopQueryExecution(ctx context.Context, params *athena.StopQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StopQueryExecutionOutput, error)
}

// Engine implements domain.QueryEngine on the Athena API.
type Engine struct {
	client StartQueryAPI
}

// NewEngine creates an Engine from an Athena client.
func NewEngine(client StartQueryAPI) *Engine {
	return &Engine{client: client}
}

// StartQuery submits the query and returns Athena's execution ID.
func (e *Engine) StartQuery(ctx context.Context, in domain.StartQueryInput) (string, error) {
	out, err := e.client.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(in.QueryText),
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: aws.String(in.Database),
		},
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(in.OutputLocation),
		},
		WorkGroup: aws.String(in.Workgroup),
	})
	if err != nil {
		return "", domain.ErrSubmission(err, "start query execution: %v", err)
	}
	if out.QueryExecutionId == nil {
		return "", domain.ErrSubmission(nil, "engine returned no query execution id")
	}
	return *out.QueryExecutionId, nil
}

// QueryStatus fetches the current execution status of a job.
func (e *Engine) QueryStatus(ctx context.Context, jobID string) (*domain.JobStatus, error) {
	out, err := e.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(jobID),
	})
	if err != nil {
		return nil, fmt.Errorf("get query execution %s: %w", jobID, err)
	}
	if out.QueryExecution == nil || out.QueryExecution.Status == nil {
		return nil, fmt.Errorf("get query execution %s: empty status", jobID)
	}
	status := out.QueryExecution.Status
	js := &domain.JobStatus{State: mapState(status.State)}
	if status.StateChangeReason != nil {
		js.FailureReason = *status.StateChangeReason
	}
	return js, nil
}

// StopQuery requests cancellation of a running execution.
func (e *Engine) StopQuery(ctx context.Context, jobID string) error {
	if _, err := e.client.StopQueryExecution(ctx, &athena.StopQueryExecutionInput{
		QueryExecutionId: aws.String(jobID),
	}); err != nil {
		return fmt.Errorf("stop query execution %s: %w", jobID, err)
	}
	return nil
}

// mapState converts an Athena execution state to the domain job state.
// Athena's QUEUED maps to SUBMITTED.
func mapState(s types.QueryExecutionState) domain.JobState {
	switch s {
	case types.QueryExecutionStateQueued:
		return domain.JobStateSubmitted
	case types.QueryExecutionStateRunning:
		return domain.JobStateRunning
	case types.QueryExecutionStateSucceeded:
		return domain.JobStateSucceeded
	case types.QueryExecutionStateFailed:
		return domain.JobStateFailed
	case types.QueryExecutionStateCancelled:
		return domain.JobStateCancelled
	default:
		return domain.JobStateSubmitted
	}
}
