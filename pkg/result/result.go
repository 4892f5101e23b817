package result

import (
	"fmt"
	"time"
)

// ComplianceResult is one rule's outcome for one host at one point in time.
type ComplianceResult struct {
	RuleID    string    `yaml:"rule_id" json:"rule_id"`
	Host      string    `yaml:"-" json:"-"`
	Status    Status    `yaml:"status" json:"status"`
	Evidence  string    `yaml:"evidence,omitempty" json:"evidence,omitempty"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Mode      Mode      `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// HostResultSet maps rule ids to results for exactly one host. Insert order
// of rule ids is preserved; re-adding a rule id overwrites the stored result
// but keeps its original position (last write wins, no history).
type HostResultSet struct {
	host    string
	results map[string]ComplianceResult
	order   []string
}

// NewHostResultSet creates an empty result set owned by the given host.
func NewHostResultSet(host string) *HostResultSet {
	return &HostResultSet{
		host:    host,
		results: make(map[string]ComplianceResult),
	}
}

// Host returns the owning host name.
func (s *HostResultSet) Host() string {
	return s.host
}

// Add stores a result. Results attributed to a different host are rejected;
// a set never mixes hosts.
func (s *HostResultSet) Add(r ComplianceResult) error {
	if r.Host != "" && r.Host != s.host {
		return fmt.Errorf("result for host %q cannot be added to result set for host %q", r.Host, s.host)
	}
	r.Host = s.host
	if _, seen := s.results[r.RuleID]; !seen {
		s.order = append(s.order, r.RuleID)
	}
	s.results[r.RuleID] = r
	return nil
}

// Get returns the stored result for a rule id.
func (s *HostResultSet) Get(ruleID string) (ComplianceResult, bool) {
	r, ok := s.results[ruleID]
	return r, ok
}

// Results returns all results in insert order.
func (s *HostResultSet) Results() []ComplianceResult {
	out := make([]ComplianceResult, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.results[id])
	}
	return out
}

// Len returns the number of distinct rule ids in the set.
func (s *HostResultSet) Len() int {
	return len(s.order)
}
