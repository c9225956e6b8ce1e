package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailmetrics/internal/domain"
)

func TestService_CurrentServesFromCache(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{states: []domain.JobState{domain.JobStateSucceeded}}
	store := newFakeStore()
	store.put("athena-results", "dashboard-temp/job-1.csv", sampleCSV)
	clock := newFakeClock()
	svc, _ := newTestPipeline(engine, store, &memHistory{}, clock.Now)

	first, err := svc.Current(context.Background())
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	second, err := svc.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, engine.startCount(), "a fresh cache must not touch the remote engine")
	assert.Same(t, first, second)
}

func TestService_ExpiredCacheRunsNewCycle(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{states: []domain.JobState{domain.JobStateSucceeded}}
	store := newFakeStore()
	store.put("athena-results", "dashboard-temp/job-1.csv", sampleCSV)
	clock := newFakeClock()
	svc, _ := newTestPipeline(engine, store, &memHistory{}, clock.Now)

	_, err := svc.Current(context.Background())
	require.NoError(t, err)

	clock.Advance(601 * time.Second)
	_, err = svc.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, engine.startCount())
}

func TestService_RefreshBypassesFreshCache(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{states: []domain.JobState{domain.JobStateSucceeded}}
	store := newFakeStore()
	store.put("athena-results", "dashboard-temp/job-1.csv", sampleCSV)
	clock := newFakeClock()
	svc, _ := newTestPipeline(engine, store, &memHistory{}, clock.Now)

	_, err := svc.Current(context.Background())
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, engine.startCount(), "refresh must run a full remote cycle even while fresh")
}

func TestService_FailedCycleLeavesCacheEmpty(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		states:        []domain.JobState{domain.JobStateFailed},
		failureReason: "Query exceeded limit",
	}
	clock := newFakeClock()
	history := &memHistory{}
	svc, _ := newTestPipeline(engine, newFakeStore(), history, clock.Now)

	_, err := svc.Current(context.Background())
	var failure *domain.JobFailureError
	require.ErrorAs(t, err, &failure)

	// The next call must go back to the engine, not serve a cached error.
	_, err = svc.Current(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, engine.startCount())
}
