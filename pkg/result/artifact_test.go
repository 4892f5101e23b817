package result

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.yaml")

	set := setOf("esxi01",
		ComplianceResult{RuleID: "1000", Status: StatusFail, Evidence: "bad banner", Timestamp: ts(1), Mode: ModeCheck},
		ComplianceResult{RuleID: "2000", Status: StatusPass, Timestamp: ts(2), Mode: ModeCheck},
	)

	require.NoError(t, SaveArtifact(path, set))

	loaded, err := LoadArtifact(path)
	require.NoError(t, err)
	require.Contains(t, loaded, "esxi01")

	got := loaded["esxi01"]
	require.Equal(t, 2, got.Len())
	r, _ := got.Get("1000")
	assert.Equal(t, StatusFail, r.Status)
	assert.Equal(t, "bad banner", r.Evidence)
	assert.Equal(t, "esxi01", r.Host)
	assert.Equal(t, ModeCheck, r.Mode)
	assert.True(t, r.Timestamp.Equal(ts(1)))
}

func TestLoadArtifactToleratesMalformedTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.yaml")
	raw := `esxi01:
  mode: check
  results:
    - rule_id: "1000"
      status: fail
      timestamp: yesterdayish
    - rule_id: "2000"
      status: pass
      timestamp: 2026-08-20T12:00:02Z
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	loaded, err := LoadArtifact(path)
	require.NoError(t, err)

	// One bad timestamp loses only the timestamp, never the results.
	set := loaded["esxi01"]
	require.Equal(t, 2, set.Len())
	r, _ := set.Get("1000")
	assert.Equal(t, StatusFail, r.Status)
	assert.True(t, r.Timestamp.IsZero())
	r, _ = set.Get("2000")
	assert.Equal(t, StatusPass, r.Status)
	assert.False(t, r.Timestamp.IsZero())
}

func TestLoadArtifactCanonicalizesRawStatuses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.yaml")
	raw := `esxi01:
  mode: check
  results:
    - rule_id: "1000"
      status: open
      timestamp: 2026-08-20T12:00:01Z
    - rule_id: "2000"
      status: something-strange
      timestamp: 2026-08-20T12:00:02Z
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	loaded, err := LoadArtifact(path)
	require.NoError(t, err)

	set := loaded["esxi01"]
	r, _ := set.Get("1000")
	assert.Equal(t, StatusFail, r.Status)
	// Unknown vocabulary is forced to error, never dropped.
	r, _ = set.Get("2000")
	assert.Equal(t, StatusError, r.Status)
}

func TestLoadArtifactMissingFileNamesPath(t *testing.T) {
	_, err := LoadArtifact("/nonexistent/raw_stig.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/raw_stig.yaml")
}

func TestParseTimestampMalformedIsZero(t *testing.T) {
	assert.True(t, ParseTimestamp("yesterdayish").IsZero())
	assert.False(t, ParseTimestamp("2026-08-20T12:00:01Z").IsZero())
}
