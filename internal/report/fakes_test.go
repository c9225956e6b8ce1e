package report

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mailmetrics/internal/domain"
)

// fakeEngine scripts a remote engine: each submission walks the state
// sequence one status check at a time and sticks at the last state.
type fakeEngine struct {
	mu            sync.Mutex
	jobID         string
	states        []domain.JobState
	failureReason string
	startErr      error
	statusErr     error

	starts  int
	polls   int
	stopped []string
	idx     int
}

func (e *fakeEngine) StartQuery(_ context.Context, _ domain.StartQueryInput) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.startErr != nil {
		return "", e.startErr
	}
	e.starts++
	e.idx = 0
	if e.jobID == "" {
		e.jobID = "job-1"
	}
	return e.jobID, nil
}

func (e *fakeEngine) QueryStatus(_ context.Context, _ string) (*domain.JobStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.statusErr != nil {
		return nil, e.statusErr
	}
	e.polls++
	state := e.states[e.idx]
	if e.idx < len(e.states)-1 {
		e.idx++
	}
	status := &domain.JobStatus{State: state}
	if state == domain.JobStateFailed || state == domain.JobStateCancelled {
		status.FailureReason = e.failureReason
	}
	return status, nil
}

func (e *fakeEngine) StopQuery(_ context.Context, jobID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = append(e.stopped, jobID)
	return nil
}

func (e *fakeEngine) startCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

// fakeStore serves objects from a map keyed by "bucket/key".
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]string)}
}

func (s *fakeStore) put(bucket, key, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = body
}

func (s *fakeStore) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, domain.ErrObjectNotExist
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

// memHistory records entries in memory.
type memHistory struct {
	mu      sync.Mutex
	entries []domain.JobHistoryEntry
}

func (h *memHistory) Record(_ context.Context, entry *domain.JobHistoryEntry) (*domain.JobHistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	copyEntry := *entry
	copyEntry.ID = int64(len(h.entries) + 1)
	h.entries = append(h.entries, copyEntry)
	return &copyEntry, nil
}

func (h *memHistory) List(_ context.Context, limit int) ([]domain.JobHistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.JobHistoryEntry, len(h.entries))
	copy(out, h.entries)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (h *memHistory) GetByJobID(_ context.Context, jobID string) (*domain.JobHistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.entries {
		if h.entries[i].JobID == jobID {
			copyEntry := h.entries[i]
			return &copyEntry, nil
		}
	}
	return nil, domain.ErrNotFound("job %q not found", jobID)
}

func (h *memHistory) last() *domain.JobHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return nil
	}
	copyEntry := h.entries[len(h.entries)-1]
	return &copyEntry
}

// fakeClock is a manually-advanced clock for deterministic TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testQuery() *Query {
	return &Query{
		Definition:     DefaultDefinition(),
		Database:       "default",
		OutputLocation: "s3://athena-results/dashboard-temp/",
		Workgroup:      "primary",
	}
}

const sampleCSV = `Jour,Campagne,eventType,Total
"2024-01-01 00:00:00.000",X,Send,100
"2024-01-01 00:00:00.000",X,Open,40
"2024-01-02 00:00:00.000",Y,Send,50
"2024-01-02 00:00:00.000",,Bounce,3
`

// newTestPipeline wires a full loader over the fakes with a fast poll
// interval.
func newTestPipeline(engine *fakeEngine, store *fakeStore, history domain.JobHistoryRepository, clock func() time.Time) (*Service, *Cache) {
	query := testQuery()
	submitter := NewSubmitter(engine, query, testLogger())
	poller := NewPoller(engine, time.Millisecond, testLogger())
	mat := NewMaterializer(store, "", clock)
	loader := NewLoader(submitter, poller, mat, history, query.Signature(), time.Second, testLogger(), clock)
	cache := NewCache(600*time.Second, clock)
	return NewService(query, cache, loader.Load, testLogger()), cache
}
