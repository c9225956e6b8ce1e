package domain

// JobState represents the lifecycle state of a remote query job.
type JobState string

// Query job lifecycle states, as reported by the remote engine.
const (
	JobStateSubmitted JobState = "SUBMITTED"
	JobStateRunning   JobState = "RUNNING"
	JobStateSucceeded JobState = "SUCCEEDED"
	JobStateFailed    JobState = "FAILED"
	JobStateCancelled JobState = "CANCELLED"
)

// Terminal reports whether the state is one the engine never leaves.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateSucceeded, JobStateFailed, JobStateCancelled:
		return true
	}
	return false
}

// QueryJob is one submitted remote query execution. It is created by the
// submitter, advanced by the poller, and discarded once its result is
// materialized or it terminates unsuccessfully. Jobs are never reused.
type QueryJob struct {
	ID             string
	QueryText      string
	Database       string
	OutputLocation string
	State          JobState
	FailureReason  string
}

// JobStatus is a point-in-time status report for a job.
type JobStatus struct {
	State         JobState
	FailureReason string
}

// StartQueryInput carries everything the remote engine needs to start a job.
type StartQueryInput struct {
	QueryText      string
	Database       string
	OutputLocation string
	Workgroup      string
}
