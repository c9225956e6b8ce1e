package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mailmetrics/internal/domain"
)

// Column order and delimiter are a contract with the remote engine's CSV
// output convention.
var expectedHeader = []string{"Jour", "Campagne", "eventType", "Total"}

// Athena renders the day-truncated timestamp in one of these layouts
// depending on the column type.
var dayLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// Materializer fetches a succeeded job's output object and parses it
// into a ResultSet. Called exactly once per successful job.
type Materializer struct {
	store         domain.ObjectStore
	untaggedLabel string
	now           func() time.Time
}

// NewMaterializer creates a Materializer. untaggedLabel is substituted
// for rows with no campaign tag; now is the provenance clock.
func NewMaterializer(store domain.ObjectStore, untaggedLabel string, now func() time.Time) *Materializer {
	if untaggedLabel == "" {
		untaggedLabel = DefaultUntaggedLabel
	}
	if now == nil {
		now = time.Now
	}
	return &Materializer{store: store, untaggedLabel: untaggedLabel, now: now}
}

// Materialize downloads and parses the output object of a SUCCEEDED job.
// Malformed rows fail the whole materialization; rows are never silently
// dropped or corrected.
func (m *Materializer) Materialize(ctx context.Context, job *domain.QueryJob) (*domain.ResultSet, error) {
	if job.State != domain.JobStateSucceeded {
		return nil, domain.ErrValidation("cannot materialize job %s in state %s", job.ID, job.State)
	}

	bucket, prefix, err := parseOutputLocation(job.OutputLocation)
	if err != nil {
		return nil, domain.ErrMaterialization(err, "invalid output location %q", job.OutputLocation)
	}
	key := prefix + job.ID + ".csv"

	body, err := m.store.GetObject(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotExist) {
			return nil, domain.ErrObjectMissing(err, "output object for job %s is absent despite SUCCEEDED status", job.ID)
		}
		return nil, domain.ErrMaterialization(err, "fetch output object for job %s: %v", job.ID, err)
	}
	defer body.Close() //nolint:errcheck

	rows, err := m.parse(body)
	if err != nil {
		return nil, domain.ErrMaterialization(err, "parse output object for job %s: %v", job.ID, err)
	}

	return &domain.ResultSet{
		Rows:        rows,
		SourceJobID: job.ID,
		FetchedAt:   m.now().UTC(),
	}, nil
}

// parse reads the CSV contract: header Jour,Campagne,eventType,Total,
// one row per (day, campaign, eventType) with a non-negative count.
func (m *Materializer) parse(r io.Reader) ([]domain.EventRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(expectedHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, want := range expectedHeader {
		if header[i] != want {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, header[i], want)
		}
	}

	var records []domain.EventRecord
	type key struct {
		day       time.Time
		campaign  string
		eventType domain.EventType
	}
	seen := make(map[key]bool)

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		day, err := parseDay(row[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		campaign := strings.TrimSpace(row[1])
		if campaign == "" {
			campaign = m.untaggedLabel
		}

		eventType, err := domain.ParseEventType(row[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		count, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse count %q: %w", line, row[3], err)
		}
		if count < 0 {
			return nil, fmt.Errorf("line %d: negative count %d", line, count)
		}

		k := key{day: day, campaign: campaign, eventType: eventType}
		if seen[k] {
			return nil, fmt.Errorf("line %d: duplicate row for (%s, %s, %s)", line, day.Format("2006-01-02"), campaign, eventType)
		}
		seen[k] = true

		records = append(records, domain.EventRecord{
			Day:        day,
			CampaignID: campaign,
			EventType:  eventType,
			Count:      count,
		})
	}

	return records, nil
}

// parseDay accepts the engine's timestamp renderings and truncates to a
// UTC calendar date.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), " UTC")
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse day %q: unrecognized format", s)
}

// parseOutputLocation extracts bucket and key prefix from an
// "s3://bucket/prefix/" URI. The returned prefix always ends with "/"
// unless empty.
func parseOutputLocation(loc string) (bucket, prefix string, err error) {
	u, err := url.Parse(loc)
	if err != nil {
		return "", "", fmt.Errorf("parse output location %q: %w", loc, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, loc)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("empty bucket in output location %q", loc)
	}
	prefix = strings.TrimPrefix(u.Path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return u.Host, prefix, nil
}
