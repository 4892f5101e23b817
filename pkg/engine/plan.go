package engine

import (
	"github.com/user/stigctl/pkg/catalog"
	"github.com/user/stigctl/pkg/result"
)

// PlanEntry is one failing rule queued for supervised remediation.
type PlanEntry struct {
	// RuleID is the identifier stored in the result set.
	RuleID string

	// RuleVersion is the catalog rule version driving the execution
	// engine; empty when the id could not be resolved against the
	// catalog, in which case the entry can only be skipped.
	RuleVersion string

	// Definition is the catalog metadata, nil for unresolved entries.
	Definition *catalog.RuleDefinition

	// Result is the audit outcome that put this rule on the plan.
	Result result.ComplianceResult
}

// Plan is the immutable, ordered list of failing rules for one host, built
// once per session from a prior result set.
type Plan struct {
	Host    string
	Entries []PlanEntry
}

// BuildPlan filters a host's result set down to rules with status fail, in
// the result set's original order, and resolves each entry against the
// catalog. The catalog may be nil; entries then stay unresolved.
func BuildPlan(set *result.HostResultSet, cat *catalog.Catalog) *Plan {
	plan := &Plan{Host: set.Host()}
	for _, r := range set.Results() {
		if r.Status != result.StatusFail {
			continue
		}
		entry := PlanEntry{RuleID: r.RuleID, Result: r}
		if cat != nil {
			if def, ok := cat.Resolve(r.RuleID); ok {
				entry.RuleVersion = def.RuleVersion
				entry.Definition = def
			}
		}
		plan.Entries = append(plan.Entries, entry)
	}
	return plan
}
