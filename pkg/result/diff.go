package result

import (
	"fmt"
)

// Diff classifies one host's failing rules against a baseline run.
type Diff struct {
	// New are rules failing now that were not failing in the baseline.
	New []ComplianceResult

	// Fixed are rules that failed in the baseline and no longer fail.
	Fixed []ComplianceResult

	// Unchanged are rules failing in both runs.
	Unchanged []ComplianceResult
}

// Compare classifies current against baseline. Only fail statuses count as
// findings; errored and not-reviewed rules are indeterminate and appear in
// no bucket. Both sets must describe the same host.
func Compare(current, baseline *HostResultSet) (*Diff, error) {
	if current.Host() != baseline.Host() {
		return nil, fmt.Errorf("cannot diff results for different hosts %q and %q",
			current.Host(), baseline.Host())
	}

	diff := &Diff{}
	for _, r := range current.Results() {
		if r.Status != StatusFail {
			continue
		}
		if prev, ok := baseline.Get(r.RuleID); ok && prev.Status == StatusFail {
			diff.Unchanged = append(diff.Unchanged, r)
		} else {
			diff.New = append(diff.New, r)
		}
	}
	for _, prev := range baseline.Results() {
		if prev.Status != StatusFail {
			continue
		}
		cur, ok := current.Get(prev.RuleID)
		if ok && (cur.Status == StatusFail || cur.Status == StatusError) {
			// Still failing, or the recheck errored; either way the
			// baseline finding cannot be called fixed.
			continue
		}
		diff.Fixed = append(diff.Fixed, prev)
	}
	return diff, nil
}
