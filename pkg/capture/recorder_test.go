package capture

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/stigctl/pkg/result"
)

func ts(sec int) time.Time {
	return time.Date(2026, 8, 20, 12, 0, sec, 0, time.UTC)
}

func TestRecorderCheckModeMapping(t *testing.T) {
	rec := NewRecorder("esxi01", result.ModeCheck)

	rec.Observe(Event{Name: "stigrule_100001 banner", Host: "esxi01", Changed: true, Timestamp: ts(1)})
	rec.Observe(Event{Name: "stigrule_100002 ntp", Host: "esxi01", Timestamp: ts(2)})
	rec.Observe(Event{Name: "stigrule_100003 syslog", Host: "esxi01", Failed: true, Timestamp: ts(3)})
	rec.Observe(Event{Name: "stigrule_100004 lockdown", Host: "esxi01", Skipped: true, Timestamp: ts(4)})

	set := rec.Results()
	require.Equal(t, 4, set.Len())

	r, _ := set.Get("100001")
	// In check mode, changed means the host differs from the desired state.
	assert.Equal(t, result.StatusFail, r.Status)
	r, _ = set.Get("100002")
	assert.Equal(t, result.StatusPass, r.Status)
	r, _ = set.Get("100003")
	assert.Equal(t, result.StatusError, r.Status)
	r, _ = set.Get("100004")
	assert.Equal(t, result.StatusNotApplicable, r.Status)

	for _, r := range set.Results() {
		assert.Equal(t, result.ModeCheck, r.Mode)
	}
}

func TestRecorderApplyModeChangedMeansFixed(t *testing.T) {
	rec := NewRecorder("esxi01", result.ModeApply)
	rec.Observe(Event{Name: "stigrule_100001 banner", Host: "esxi01", Changed: true, Timestamp: ts(1)})

	r, ok := rec.Results().Get("100001")
	require.True(t, ok)
	assert.Equal(t, result.StatusPass, r.Status)
	assert.Equal(t, result.ModeApply, r.Mode)
}

func TestRecorderLastWriteWins(t *testing.T) {
	// A rule exercised twice in one run keeps only the later outcome.
	rec := NewRecorder("esxi01", result.ModeCheck)
	rec.Observe(Event{Name: "stigrule_100001", Host: "esxi01", Changed: true, Timestamp: ts(1)})
	rec.Observe(Event{Name: "stigrule_100001", Host: "esxi01", Timestamp: ts(2)})

	set := rec.Results()
	require.Equal(t, 1, set.Len())
	r, _ := set.Get("100001")
	assert.Equal(t, result.StatusPass, r.Status)
	assert.Equal(t, ts(2), r.Timestamp)
}

func TestRecorderIgnoresUnrecognizedEvents(t *testing.T) {
	rec := NewRecorder("esxi01", result.ModeCheck)
	rec.Observe(Event{Name: "Gathering facts", Host: "esxi01", Timestamp: ts(1)})
	rec.Observe(Event{Name: "Progress: 42% complete", Host: "esxi01", Timestamp: ts(2)})

	assert.Equal(t, 0, rec.Results().Len())
	assert.Equal(t, 2, rec.Dropped())
}

func TestRecorderTargetHostOverride(t *testing.T) {
	// Checks running on a controller node attribute to the remote target.
	rec := NewRecorder("esxi01", result.ModeCheck)
	rec.Observe(Event{Name: "stigrule_100001", Host: "controller", TargetHost: "esxi01", Changed: true, Timestamp: ts(1)})

	r, ok := rec.Results().Get("100001")
	require.True(t, ok)
	assert.Equal(t, "esxi01", r.Host)
}

func TestRecorderRejectsForeignHostEvents(t *testing.T) {
	rec := NewRecorder("esxi01", result.ModeCheck)
	rec.Observe(Event{Name: "stigrule_100001", Host: "esxi02", Timestamp: ts(1)})

	assert.Equal(t, 0, rec.Results().Len())
	assert.Equal(t, 1, rec.Dropped())
}

func TestGroupByHost(t *testing.T) {
	events := []Event{
		{Name: "stigrule_100001", Host: "a"},
		{Name: "stigrule_100002", Host: "b"},
		{Name: "stigrule_100003", Host: "controller", TargetHost: "a"},
		{Name: "stigrule_100004"},
	}

	streams, dropped := GroupByHost(events)
	assert.Equal(t, 1, dropped)
	assert.Len(t, streams["a"], 2)
	assert.Len(t, streams["b"], 1)
}

func TestRunStreamsIsolatesHosts(t *testing.T) {
	streams := map[string][]Event{
		"a": {
			{Name: "stigrule_100001", Host: "a", Changed: true, Timestamp: ts(1)},
			{Name: "stigrule_100002", Host: "a", Timestamp: ts(2)},
		},
		"b": {
			{Name: "stigrule_100001", Host: "b", Timestamp: ts(1)},
		},
		"c": {
			{Name: "not a rule", Host: "c", Timestamp: ts(1)},
		},
	}

	sets, dropped := RunStreams(result.ModeCheck, streams)
	require.Len(t, sets, 3)
	assert.Equal(t, 1, dropped)

	// Sorted by host, each set carrying only its own host's results.
	assert.Equal(t, "a", sets[0].Host())
	assert.Equal(t, 2, sets[0].Len())
	assert.Equal(t, "b", sets[1].Host())
	r, _ := sets[1].Get("100001")
	assert.Equal(t, result.StatusPass, r.Status)
	assert.Equal(t, "c", sets[2].Host())
	assert.Equal(t, 0, sets[2].Len())
}

func TestReadEvents(t *testing.T) {
	input := strings.Join([]string{
		`{"name":"stigrule_100001","host":"a","changed":true}`,
		`not json at all`,
		``,
		`{"name":"stigrule_100002","host":"a"}`,
	}, "\n")

	events, malformed, err := ReadEvents(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, malformed)
	require.Len(t, events, 2)
	assert.Equal(t, "stigrule_100001", events[0].Name)
	assert.True(t, events[0].Changed)
}

func TestReadEventsToleratesMalformedTimestamp(t *testing.T) {
	input := strings.Join([]string{
		`{"name":"stigrule_100001","host":"a","timestamp":"yesterdayish"}`,
		`{"name":"stigrule_100002","host":"a","timestamp":"2026-08-20T12:00:02Z"}`,
	}, "\n")

	events, malformed, err := ReadEvents(strings.NewReader(input))
	require.NoError(t, err)
	// The event survives; only its timestamp is lost.
	assert.Equal(t, 0, malformed)
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp.IsZero())
	assert.True(t, events[1].Timestamp.Equal(ts(2)))
}
