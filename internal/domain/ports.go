package domain

import (
	"context"
	"io"
)

// QueryEngine is the remote asynchronous analytical query service. It
// accepts SQL text, writes results to remote storage, and reports job
// status on demand. Implemented by athena.Engine.
type QueryEngine interface {
	// StartQuery submits a query and returns the engine's job handle.
	StartQuery(ctx context.Context, in StartQueryInput) (string, error)
	// QueryStatus fetches the current status of a job.
	QueryStatus(ctx context.Context, jobID string) (*JobStatus, error)
	// StopQuery requests cancellation of a running job. Best effort.
	StopQuery(ctx context.Context, jobID string) error
}

// ObjectStore fetches job output objects from remote storage.
// Implemented by athena.S3Store.
type ObjectStore interface {
	// GetObject streams the object body. A missing object is reported as
	// a MaterializationError with NotFound set.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Credentials is the resolved access material for the remote engine and
// object store. Key fields are empty when the ambient SDK chain applies.
type Credentials struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Source          string
}

// Ambient reports whether the SDK's own credential chain should be used.
func (c *Credentials) Ambient() bool { return c.AccessKeyID == "" }

// CredentialProvider resolves remote-access credentials from some
// environment-specific source. The core never depends on which variant
// (static, file-backed, ambient) is active.
type CredentialProvider interface {
	Resolve(ctx context.Context) (*Credentials, error)
}

// JobHistoryRepository records the outcome of each remote query attempt.
// History carries job metadata only, never result rows.
type JobHistoryRepository interface {
	Record(ctx context.Context, entry *JobHistoryEntry) (*JobHistoryEntry, error)
	List(ctx context.Context, limit int) ([]JobHistoryEntry, error)
	GetByJobID(ctx context.Context, jobID string) (*JobHistoryEntry, error)
}
