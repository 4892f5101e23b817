package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/user/stigctl/pkg/catalog"
	"github.com/user/stigctl/pkg/result"
)

// ResultRecord is one rule's outcome in the flat results document: audit-log
// oriented, intended for machine ingestion and fleet-wide aggregation.
type ResultRecord struct {
	RuleID    string        `json:"rule_id"`
	Status    result.Status `json:"status"`
	Severity  string        `json:"severity,omitempty"`
	Title     string        `json:"title,omitempty"`
	Evidence  string        `json:"evidence,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Mode      result.Mode   `json:"mode,omitempty"`
}

// ResultsDocument is the per-host machine-readable results artifact.
type ResultsDocument struct {
	Host        string         `json:"host"`
	GeneratedAt time.Time      `json:"generated_at"`
	Results     []ResultRecord `json:"results"`
}

// GenerateResults builds the flat results document for one host. The
// catalog is optional: with it, records gain titles and severities; without
// it the document degrades to results without metadata. Records keep the
// result set's order.
func GenerateResults(set *result.HostResultSet, cat *catalog.Catalog, generatedAt time.Time) *ResultsDocument {
	doc := &ResultsDocument{
		Host:        set.Host(),
		GeneratedAt: generatedAt,
	}
	for _, r := range set.Results() {
		rec := ResultRecord{
			RuleID:    r.RuleID,
			Status:    r.Status,
			Evidence:  r.Evidence,
			Timestamp: r.Timestamp,
			Mode:      r.Mode,
		}
		if cat != nil {
			if def, ok := cat.Resolve(r.RuleID); ok {
				rec.Title = def.RuleTitle
				rec.Severity = def.Severity
			}
		}
		doc.Results = append(doc.Results, rec)
	}
	return doc
}

// WriteResults serializes a results document to path as indented JSON.
func WriteResults(path string, doc *ResultsDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results document: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing results document %s: %w", path, err)
	}
	return nil
}
