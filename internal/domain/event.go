package domain

import "time"

// EventType is one of the six email event categories tracked in the log.
type EventType string

// Email event categories, matching the remote engine's eventType column.
const (
	EventSend      EventType = "Send"
	EventDelivery  EventType = "Delivery"
	EventOpen      EventType = "Open"
	EventClick     EventType = "Click"
	EventBounce    EventType = "Bounce"
	EventComplaint EventType = "Complaint"
)

// EventTypes lists all tracked event categories in display order.
var EventTypes = []EventType{
	EventSend, EventDelivery, EventOpen, EventClick, EventBounce, EventComplaint,
}

// ParseEventType validates a raw eventType column value.
func ParseEventType(s string) (EventType, error) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrValidation("unknown event type %q", s)
}

// EventRecord is one pre-aggregated row: the number of events of one type
// for one campaign on one day. Immutable once materialized.
type EventRecord struct {
	Day        time.Time `json:"day"`
	CampaignID string    `json:"campaignId"`
	EventType  EventType `json:"eventType"`
	Count      int64     `json:"count"`
}

// ResultSet is the materialized output of one succeeded query job, with
// provenance. Rows are unique per (Day, CampaignID, EventType) — the
// remote aggregation already groups by those keys.
type ResultSet struct {
	Rows        []EventRecord `json:"rows"`
	SourceJobID string        `json:"sourceJobId"`
	FetchedAt   time.Time     `json:"fetchedAt"`
}

// Campaigns returns the distinct campaign IDs present in the result set,
// in first-seen order.
func (rs *ResultSet) Campaigns() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rs.Rows {
		if !seen[r.CampaignID] {
			seen[r.CampaignID] = true
			out = append(out, r.CampaignID)
		}
	}
	return out
}
