package result

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(sec int) time.Time {
	return time.Date(2026, 8, 20, 12, 0, sec, 0, time.UTC)
}

func setOf(host string, results ...ComplianceResult) *HostResultSet {
	s := NewHostResultSet(host)
	for _, r := range results {
		if err := s.Add(r); err != nil {
			panic(err)
		}
	}
	return s
}

func TestHostResultSetRejectsForeignHost(t *testing.T) {
	s := NewHostResultSet("a")
	err := s.Add(ComplianceResult{RuleID: "1000", Host: "b", Status: StatusPass})
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestHostResultSetLastWriteWinsKeepsOrder(t *testing.T) {
	s := setOf("a",
		ComplianceResult{RuleID: "1000", Status: StatusFail, Timestamp: ts(1)},
		ComplianceResult{RuleID: "2000", Status: StatusPass, Timestamp: ts(2)},
		ComplianceResult{RuleID: "1000", Status: StatusPass, Timestamp: ts(3)},
	)

	require.Equal(t, 2, s.Len())
	results := s.Results()
	assert.Equal(t, "1000", results[0].RuleID)
	assert.Equal(t, StatusPass, results[0].Status)
	assert.Equal(t, "2000", results[1].RuleID)
}

func TestNormalizeCanonicalizesAndFlags(t *testing.T) {
	s := setOf("a",
		ComplianceResult{RuleID: "1000", Status: Status("open"), Timestamp: ts(1)},
		ComplianceResult{RuleID: "2000", Status: Status("wedged"), Timestamp: ts(2)},
		ComplianceResult{RuleID: "3000", Status: StatusPass, Timestamp: ts(3)},
	)

	flagged := Normalize(s)
	assert.Equal(t, 1, flagged)

	r, _ := s.Get("1000")
	assert.Equal(t, StatusFail, r.Status)
	r, _ = s.Get("2000")
	assert.Equal(t, StatusError, r.Status)
	r, _ = s.Get("3000")
	assert.Equal(t, StatusPass, r.Status)
}

func TestNormalizeIdempotent(t *testing.T) {
	s := setOf("a",
		ComplianceResult{RuleID: "1000", Status: Status("failed"), Timestamp: ts(1)},
	)
	Normalize(s)
	first := s.Results()

	flagged := Normalize(s)
	assert.Equal(t, 0, flagged)
	assert.Equal(t, first, s.Results())
}

func TestMergeLaterTimestampWinsPerRule(t *testing.T) {
	a := setOf("h",
		ComplianceResult{RuleID: "5", Status: StatusFail, Timestamp: ts(1)},
		ComplianceResult{RuleID: "6", Status: StatusPass, Timestamp: ts(5)},
	)
	b := setOf("h",
		ComplianceResult{RuleID: "5", Status: StatusPass, Timestamp: ts(2)},
	)

	merged, err := Merge(a, b)
	require.NoError(t, err)
	require.Equal(t, 2, merged.Len())

	r, _ := merged.Get("5")
	assert.Equal(t, StatusPass, r.Status)
	// Rule 6 was only in a; partial freshness must not revert it.
	r, _ = merged.Get("6")
	assert.Equal(t, StatusPass, r.Status)
	assert.Equal(t, ts(5), r.Timestamp)
}

func TestMergeCommutativePerRule(t *testing.T) {
	a := setOf("h",
		ComplianceResult{RuleID: "5", Status: StatusFail, Timestamp: ts(1)},
		ComplianceResult{RuleID: "7", Status: StatusError, Timestamp: ts(9)},
	)
	b := setOf("h",
		ComplianceResult{RuleID: "5", Status: StatusPass, Timestamp: ts(2)},
		ComplianceResult{RuleID: "7", Status: StatusPass, Timestamp: ts(3)},
	)

	ab, err := Merge(a, b)
	require.NoError(t, err)
	ba, err := Merge(b, a)
	require.NoError(t, err)

	for _, id := range []string{"5", "7"} {
		x, _ := ab.Get(id)
		y, _ := ba.Get(id)
		assert.Equal(t, x.Status, y.Status, "rule %s", id)
		assert.Equal(t, x.Timestamp, y.Timestamp, "rule %s", id)
	}
}

func TestMergeRejectsDifferentHosts(t *testing.T) {
	a := NewHostResultSet("h1")
	b := NewHostResultSet("h2")
	_, err := Merge(a, b)
	assert.Error(t, err)
}
