package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailmetrics/internal/domain"
)

func TestDefinition_SQL(t *testing.T) {
	t.Parallel()

	def := DefaultDefinition()
	sql := def.SQL()
	assert.Contains(t, sql, "date_trunc('day', from_iso8601_timestamp(mail.timestamp)) AS Jour")
	assert.Contains(t, sql, "element_at(mail.tags.CampaignID, 1) AS Campagne")
	assert.Contains(t, sql, "FROM ses_logs")
	assert.Contains(t, sql, "'Send', 'Delivery', 'Open', 'Click', 'Bounce', 'Complaint'")
	assert.Contains(t, sql, "GROUP BY 1, 2, 3")
	assert.Contains(t, sql, "ORDER BY 1 DESC")
}

func TestQuery_SignatureIsStable(t *testing.T) {
	t.Parallel()

	a := testQuery()
	b := testQuery()
	assert.Equal(t, a.Signature(), b.Signature())
}

func TestQuery_SignatureChangesWithDefinition(t *testing.T) {
	t.Parallel()

	base := testQuery()

	otherTable := testQuery()
	otherTable.Definition.Table = "ses_logs_v2"
	assert.NotEqual(t, base.Signature(), otherTable.Signature())

	otherDB := testQuery()
	otherDB.Database = "analytics"
	assert.NotEqual(t, base.Signature(), otherDB.Signature())

	otherOutput := testQuery()
	otherOutput.OutputLocation = "s3://other-bucket/tmp/"
	assert.NotEqual(t, base.Signature(), otherOutput.Signature())
}

func TestLoadDefinition_AppliesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, os.WriteFile(path, []byte("table: mail_events\n"), 0o600))

	def, err := LoadDefinition(path)
	require.NoError(t, err)
	assert.Equal(t, "mail_events", def.Table)
	assert.Equal(t, "CampaignID", def.CampaignTag)
	assert.Equal(t, domain.EventTypes, def.EventTypes)
	assert.Equal(t, DefaultUntaggedLabel, def.UntaggedLabel)
}

func TestLoadDefinition_FullOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.yaml")
	content := `table: mail_events
campaign_tag: Campaign
untagged_label: none
event_types:
  - Send
  - Open
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	def, err := LoadDefinition(path)
	require.NoError(t, err)
	assert.Equal(t, "Campaign", def.CampaignTag)
	assert.Equal(t, "none", def.UntaggedLabel)
	assert.Equal(t, []domain.EventType{domain.EventSend, domain.EventOpen}, def.EventTypes)
	assert.Contains(t, def.SQL(), "('Send', 'Open')")
}

func TestLoadDefinition_RejectsUnknownEventType(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, os.WriteFile(path, []byte("event_types: [Send, Render]\n"), 0o600))

	_, err := LoadDefinition(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}
