package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mailmetrics/internal/domain"
)

// Poller waits for a remote job to reach a terminal state. Status checks
// are strictly sequential; the only suspension point is the inter-poll
// wait, which also honors context cancellation.
type Poller struct {
	engine   domain.QueryEngine
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller creates a Poller. interval <= 0 falls back to 500ms, the
// reference poll interval.
func NewPoller(engine domain.QueryEngine, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Poller{engine: engine, interval: interval, logger: logger}
}

// Await polls the job until it is terminal or ctx expires. FAILED and
// CANCELLED are normal outcomes returned in the status, not errors. On
// ctx expiry the poller requests remote cancellation (best effort) and
// returns the ctx error.
func (p *Poller) Await(ctx context.Context, jobID string) (*domain.JobStatus, error) {
	timer := time.NewTimer(0) // first check is immediate
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.stopRemote(jobID)
			return nil, fmt.Errorf("await job %s: %w", jobID, ctx.Err())
		case <-timer.C:
		}

		status, err := p.engine.QueryStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if status.State.Terminal() {
			p.logger.Debug("job terminal", "job_id", jobID, "state", status.State)
			return status, nil
		}

		timer.Reset(p.interval)
	}
}

// stopRemote asks the engine to cancel a job the caller gave up on. The
// caller's ctx is already dead, so a short background deadline applies.
func (p *Poller) stopRemote(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.engine.StopQuery(ctx, jobID); err != nil {
		p.logger.Warn("remote cancellation failed", "job_id", jobID, "error", err)
	}
}
