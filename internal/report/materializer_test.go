package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailmetrics/internal/domain"
)

func succeededJob(id string) *domain.QueryJob {
	return &domain.QueryJob{
		ID:             id,
		Database:       "default",
		OutputLocation: "s3://athena-results/dashboard-temp/",
		State:          domain.JobStateSucceeded,
	}
}

func TestMaterializer_ParsesOutputObject(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.put("athena-results", "dashboard-temp/job-1.csv", sampleCSV)
	clock := newFakeClock()
	mat := NewMaterializer(store, "", clock.Now)

	rs, err := mat.Materialize(context.Background(), succeededJob("job-1"))
	require.NoError(t, err)

	assert.Equal(t, "job-1", rs.SourceJobID)
	assert.Equal(t, clock.Now(), rs.FetchedAt)
	require.Len(t, rs.Rows, 4)

	first := rs.Rows[0]
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), first.Day)
	assert.Equal(t, "X", first.CampaignID)
	assert.Equal(t, domain.EventSend, first.EventType)
	assert.Equal(t, int64(100), first.Count)

	// Rows with no campaign tag get the untagged placeholder.
	assert.Equal(t, DefaultUntaggedLabel, rs.Rows[3].CampaignID)
}

func TestMaterializer_RowUniqueness(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.put("athena-results", "dashboard-temp/job-1.csv",
		"Jour,Campagne,eventType,Total\n2024-01-01,X,Send,100\n2024-01-01,X,Send,5\n")
	mat := NewMaterializer(store, "", nil)

	_, err := mat.Materialize(context.Background(), succeededJob("job-1"))
	var matErr *domain.MaterializationError
	require.ErrorAs(t, err, &matErr)
	assert.False(t, matErr.NotFound)
	assert.Contains(t, err.Error(), "duplicate row")
}

func TestMaterializer_ObjectMissingDespiteSuccess(t *testing.T) {
	t.Parallel()

	mat := NewMaterializer(newFakeStore(), "", nil)

	_, err := mat.Materialize(context.Background(), succeededJob("job-1"))
	var matErr *domain.MaterializationError
	require.ErrorAs(t, err, &matErr)
	assert.True(t, matErr.NotFound)
	assert.True(t, errors.Is(err, domain.ErrObjectNotExist))
}

func TestMaterializer_MalformedRowsRejectWholeObject(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"wrong header", "Day,Campaign,Type,Count\n2024-01-01,X,Send,100\n"},
		{"unknown event type", "Jour,Campagne,eventType,Total\n2024-01-01,X,Render,100\n"},
		{"unparsable count", "Jour,Campagne,eventType,Total\n2024-01-01,X,Send,many\n"},
		{"negative count", "Jour,Campagne,eventType,Total\n2024-01-01,X,Send,-3\n"},
		{"bad day", "Jour,Campagne,eventType,Total\nyesterday,X,Send,100\n"},
		{"missing column", "Jour,Campagne,eventType,Total\n2024-01-01,X,Send\n"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			store.put("athena-results", "dashboard-temp/job-1.csv", tc.body)
			mat := NewMaterializer(store, "", nil)

			_, err := mat.Materialize(context.Background(), succeededJob("job-1"))
			var matErr *domain.MaterializationError
			require.ErrorAs(t, err, &matErr)
			assert.False(t, matErr.NotFound)
		})
	}
}

func TestMaterializer_RejectsNonSucceededJob(t *testing.T) {
	t.Parallel()

	mat := NewMaterializer(newFakeStore(), "", nil)
	job := succeededJob("job-1")
	job.State = domain.JobStateRunning

	_, err := mat.Materialize(context.Background(), job)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestMaterializer_CustomUntaggedLabel(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.put("athena-results", "dashboard-temp/job-1.csv",
		"Jour,Campagne,eventType,Total\n2024-01-01,,Send,7\n")
	mat := NewMaterializer(store, "no-campaign", nil)

	rs, err := mat.Materialize(context.Background(), succeededJob("job-1"))
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "no-campaign", rs.Rows[0].CampaignID)
}

func TestParseDay_AcceptedLayouts(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, input := range []string{
		"2024-03-15 00:00:00.000",
		"2024-03-15 08:30:00",
		"2024-03-15",
		"2024-03-15T08:30:00Z",
		"2024-03-15 00:00:00.000 UTC",
	} {
		day, err := parseDay(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, day, "input %q", input)
	}

	_, err := parseDay("15/03/2024")
	require.Error(t, err)
}

func TestParseOutputLocation(t *testing.T) {
	t.Parallel()

	bucket, prefix, err := parseOutputLocation("s3://athena-results/dashboard-temp/")
	require.NoError(t, err)
	assert.Equal(t, "athena-results", bucket)
	assert.Equal(t, "dashboard-temp/", prefix)

	bucket, prefix, err = parseOutputLocation("s3://bucket-only")
	require.NoError(t, err)
	assert.Equal(t, "bucket-only", bucket)
	assert.Equal(t, "", prefix)

	_, _, err = parseOutputLocation("https://athena-results/dashboard-temp/")
	require.Error(t, err)
}
