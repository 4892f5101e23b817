package capture

import (
	"sort"
	"sync"
	"time"

	"github.com/user/stigctl/pkg/result"
)

// Recorder turns one host's event stream into a HostResultSet. It owns the
// set exclusively; events must be fed in arrival order because a later
// event for the same rule id overwrites the earlier result.
//
// The mode is explicit: in check mode a "changed" outcome means the host
// differs from the compliant state (fail), in apply mode it means a fix was
// applied (pass). The mode is never inferred from the events themselves.
type Recorder struct {
	mode    result.Mode
	set     *result.HostResultSet
	dropped int
}

// NewRecorder creates a recorder for one host operating in the given mode.
func NewRecorder(host string, mode result.Mode) *Recorder {
	return &Recorder{
		mode: mode,
		set:  result.NewHostResultSet(host),
	}
}

// Observe processes one event. Events that match no rule pattern, or that
// are attributed to a different host, are dropped and counted.
func (r *Recorder) Observe(ev Event) {
	ruleID, ok := ExtractRuleID(ev.Name)
	if !ok {
		r.dropped++
		return
	}
	if ev.AttributedHost() != r.set.Host() {
		r.dropped++
		return
	}

	var status result.Status
	switch {
	case ev.Failed:
		status = result.StatusError
	case ev.Skipped:
		status = result.StatusNotApplicable
	case ev.Changed:
		if r.mode == result.ModeApply {
			// Fix applied successfully.
			status = result.StatusPass
		} else {
			// Actual state differs from the desired compliant state.
			status = result.StatusFail
		}
	default:
		status = result.StatusPass
	}

	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	r.set.Add(result.ComplianceResult{
		RuleID:    ruleID,
		Host:      r.set.Host(),
		Status:    status,
		Evidence:  ev.Detail,
		Timestamp: ts,
		Mode:      r.mode,
	})
}

// Results returns the captured result set.
func (r *Recorder) Results() *result.HostResultSet {
	return r.set
}

// Dropped returns how many events were ignored as non-compliance-relevant
// or unattributable.
func (r *Recorder) Dropped() int {
	return r.dropped
}

// GroupByHost partitions events by attributed host, preserving per-host
// arrival order. Events with no attributable host are dropped; the count of
// dropped events is returned alongside the streams.
func GroupByHost(events []Event) (map[string][]Event, int) {
	streams := make(map[string][]Event)
	dropped := 0
	for _, ev := range events {
		host := ev.AttributedHost()
		if host == "" {
			dropped++
			continue
		}
		streams[host] = append(streams[host], ev)
	}
	return streams, dropped
}

// RunStreams processes each host's stream on its own goroutine. Every
// recorder owns its host's result set, so there is no shared mutable state
// across hosts and no locking beyond collecting the finished sets. Sets are
// returned sorted by host name; the second value is the total number of
// dropped events across all hosts.
func RunStreams(mode result.Mode, streams map[string][]Event) ([]*result.HostResultSet, int) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		sets    []*result.HostResultSet
		dropped int
	)

	for host, events := range streams {
		wg.Add(1)
		go func(host string, events []Event) {
			defer wg.Done()
			rec := NewRecorder(host, mode)
			for _, ev := range events {
				rec.Observe(ev)
			}
			mu.Lock()
			sets = append(sets, rec.Results())
			dropped += rec.Dropped()
			mu.Unlock()
		}(host, events)
	}
	wg.Wait()

	sort.Slice(sets, func(i, j int) bool { return sets[i].Host() < sets[j].Host() })
	return sets, dropped
}
