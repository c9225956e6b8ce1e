// Package report implements the asynchronous remote-query pipeline:
// submit a fixed aggregation query, poll the job to a terminal state,
// materialize the CSV output object, and cache the parsed result set.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mailmetrics/internal/domain"
)

// DefaultUntaggedLabel is the campaign ID assigned to rows whose tag
// array was empty in the event log.
const DefaultUntaggedLabel = "(untagged)"

// Definition describes the event-log aggregation the dashboard reports
// on. Zero values fall back to the reference defaults.
type Definition struct {
	// Table is the event-log table name.
	Table string `yaml:"table"`
	// CampaignTag is the tag key whose first element identifies the
	// campaign. Rows carry a tag array; only the first element is used.
	CampaignTag string `yaml:"campaign_tag"`
	// EventTypes restricts the aggregation to these event categories.
	EventTypes []domain.EventType `yaml:"event_types"`
	// UntaggedLabel is the campaign ID substituted for rows with no
	// campaign tag. Empty means DefaultUntaggedLabel.
	UntaggedLabel string `yaml:"untagged_label"`
}

// DefaultDefinition returns the reference report definition.
func DefaultDefinition() Definition {
	return Definition{
		Table:         "ses_logs",
		CampaignTag:   "CampaignID",
		EventTypes:    domain.EventTypes,
		UntaggedLabel: DefaultUntaggedLabel,
	}
}

// LoadDefinition reads a YAML report definition, filling unset fields
// with the reference defaults.
func LoadDefinition(path string) (Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return Definition{}, fmt.Errorf("read report definition %s: %w", path, err)
	}
	def := Definition{}
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parse report definition %s: %w", path, err)
	}
	def.applyDefaults()
	for _, t := range def.EventTypes {
		if _, err := domain.ParseEventType(string(t)); err != nil {
			return Definition{}, fmt.Errorf("report definition %s: %w", path, err)
		}
	}
	return def, nil
}

func (d *Definition) applyDefaults() {
	ref := DefaultDefinition()
	if d.Table == "" {
		d.Table = ref.Table
	}
	if d.CampaignTag == "" {
		d.CampaignTag = ref.CampaignTag
	}
	if len(d.EventTypes) == 0 {
		d.EventTypes = ref.EventTypes
	}
	if d.UntaggedLabel == "" {
		d.UntaggedLabel = ref.UntaggedLabel
	}
}

// SQL renders the fixed, parameterless aggregation statement: counts
// grouped by day-truncated timestamp, first campaign tag, and event type.
func (d *Definition) SQL() string {
	quoted := make([]string, len(d.EventTypes))
	for i, t := range d.EventTypes {
		quoted[i] = "'" + string(t) + "'"
	}
	return fmt.Sprintf(`SELECT
    date_trunc('day', from_iso8601_timestamp(mail.timestamp)) AS Jour,
    element_at(mail.tags.%s, 1) AS Campagne,
    eventType,
    count(*) AS Total
FROM %s
WHERE eventType IN (%s)
GROUP BY 1, 2, 3
ORDER BY 1 DESC`, d.CampaignTag, d.Table, strings.Join(quoted, ", "))
}

// Query binds a Definition to a target database and output location,
// forming the unit the cache keys on.
type Query struct {
	Definition     Definition
	Database       string
	OutputLocation string
	Workgroup      string
}

// Signature returns a stable identifier for the query definition, used
// as the cache key. Any change to the statement, target database, or
// output location yields a new signature.
func (q *Query) Signature() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s", q.Definition.SQL(), q.Database, q.OutputLocation, q.Workgroup)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
