package result

import "fmt"

// Normalize canonicalizes every status in the set in place. It returns the
// number of results whose raw status was unknown and therefore forced to
// StatusError. Normalizing an already-canonical set is a no-op, so the
// function is safe to run twice over the same data.
func Normalize(s *HostResultSet) int {
	flagged := 0
	for _, id := range s.order {
		r := s.results[id]
		if r.Status.Valid() {
			continue
		}
		status, known := Canonicalize(string(r.Status))
		if !known {
			flagged++
		}
		r.Status = status
		s.results[id] = r
	}
	return flagged
}

// Merge combines two result sets for the same host. Per rule id, the result
// with the later timestamp wins; rules present in only one set are kept
// as-is. The merge is commutative per rule id, so a targeted re-check of a
// few rules never reverts the rest to stale data.
func Merge(a, b *HostResultSet) (*HostResultSet, error) {
	if a.host != b.host {
		return nil, fmt.Errorf("cannot merge result sets for different hosts: %q vs %q", a.host, b.host)
	}

	merged := NewHostResultSet(a.host)
	for _, r := range a.Results() {
		merged.Add(r)
	}
	for _, r := range b.Results() {
		existing, ok := merged.Get(r.RuleID)
		if !ok || r.Timestamp.After(existing.Timestamp) {
			merged.Add(r)
		}
	}
	return merged, nil
}
