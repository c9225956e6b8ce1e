package report

import (
	"math"
	"sort"
	"time"

	"mailmetrics/internal/domain"
)

// Summary is the KPI block for one campaign selection: per-event-type
// totals and the derived open/click rates. Rollups only sum rows the
// remote query already grouped.
type Summary struct {
	Campaign  string                     `json:"campaign,omitempty"`
	Totals    map[domain.EventType]int64 `json:"totals"`
	OpenRate  float64                    `json:"openRate"`
	ClickRate float64                    `json:"clickRate"`
	Campaigns []string                   `json:"campaigns"`
}

// DailyPoint is one point of the time-series chart: the total for one
// event type on one day.
type DailyPoint struct {
	Day       time.Time        `json:"day"`
	EventType domain.EventType `json:"eventType"`
	Total     int64            `json:"total"`
}

// FilterRows returns the rows matching the campaign selection.
// AllCampaigns returns every row.
func FilterRows(rs *domain.ResultSet, campaign string) []domain.EventRecord {
	if campaign == AllCampaigns {
		return rs.Rows
	}
	var out []domain.EventRecord
	for _, r := range rs.Rows {
		if r.CampaignID == campaign {
			out = append(out, r)
		}
	}
	return out
}

// Summarize computes the KPI block for a campaign selection. Open rate
// is Open/Send*100 and click rate Click/Open*100, both rounded to two
// decimals; a zero denominator yields 0, never a division fault.
func Summarize(rs *domain.ResultSet, campaign string) *Summary {
	totals := make(map[domain.EventType]int64, len(domain.EventTypes))
	for _, t := range domain.EventTypes {
		totals[t] = 0
	}
	for _, r := range FilterRows(rs, campaign) {
		totals[r.EventType] += r.Count
	}

	return &Summary{
		Campaign:  campaign,
		Totals:    totals,
		OpenRate:  ratio(totals[domain.EventOpen], totals[domain.EventSend]),
		ClickRate: ratio(totals[domain.EventClick], totals[domain.EventOpen]),
		Campaigns: rs.Campaigns(),
	}
}

// Daily computes the per-day, per-event-type series for the time-series
// chart, sorted by day ascending then event type.
func Daily(rs *domain.ResultSet, campaign string) []DailyPoint {
	type key struct {
		day       time.Time
		eventType domain.EventType
	}
	sums := make(map[key]int64)
	for _, r := range FilterRows(rs, campaign) {
		sums[key{day: r.Day, eventType: r.EventType}] += r.Count
	}

	points := make([]DailyPoint, 0, len(sums))
	for k, total := range sums {
		points = append(points, DailyPoint{Day: k.day, EventType: k.eventType, Total: total})
	}
	sort.Slice(points, func(i, j int) bool {
		if !points[i].Day.Equal(points[j].Day) {
			return points[i].Day.Before(points[j].Day)
		}
		return points[i].EventType < points[j].EventType
	})
	return points
}

// ratio returns num/den*100 rounded to two decimals, or 0 when den is 0.
func ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(den)*100*100) / 100
}
