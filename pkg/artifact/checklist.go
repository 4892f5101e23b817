package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/user/stigctl/pkg/catalog"
	"github.com/user/stigctl/pkg/result"
)

// CKLB status vocabulary. These strings are a compatibility contract with
// third-party checklist viewers, not a design choice.
const (
	cklbOpen          = "open"
	cklbNotAFinding   = "not_a_finding"
	cklbNotApplicable = "not_applicable"
	cklbNotReviewed   = "not_reviewed"
)

// TargetData identifies the audited host inside a checklist.
type TargetData struct {
	TargetType string `json:"target_type"`
	HostName   string `json:"host_name"`
	FQDN       string `json:"fqdn"`
	IPAddress  string `json:"ip_address"`
	Comments   string `json:"comments"`
}

// ChecklistRule is one catalog rule bound to its observed status.
type ChecklistRule struct {
	catalog.RuleDefinition
	Status         string `json:"status"`
	FindingDetails string `json:"finding_details"`
	Comments       string `json:"comments"`
}

// ChecklistBenchmark mirrors one skeleton benchmark with statused rules.
type ChecklistBenchmark struct {
	StigName    string          `json:"stig_name"`
	DisplayName string          `json:"display_name"`
	StigID      string          `json:"stig_id"`
	ReleaseInfo string          `json:"release_info"`
	Version     string          `json:"version"`
	UUID        string          `json:"uuid"`
	Size        int             `json:"size"`
	Rules       []ChecklistRule `json:"rules"`
}

// Checklist is a per-host CKLB document: catalog metadata merged with the
// host's observed statuses.
type Checklist struct {
	Title       string               `json:"title"`
	ID          string               `json:"id"`
	UUID        string               `json:"uuid"`
	CklbVersion string               `json:"cklb_version"`
	GeneratedAt time.Time            `json:"generated_at"`
	TargetData  TargetData           `json:"target_data"`
	Stigs       []ChecklistBenchmark `json:"stigs"`
}

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// stripHTML removes markup from evidence before it lands in a checklist
// field; viewers render finding details as plain text.
func stripHTML(s string) string {
	return htmlTag.ReplaceAllString(s, "")
}

func cklbStatus(s result.Status) string {
	switch s {
	case result.StatusFail:
		return cklbOpen
	case result.StatusPass:
		return cklbNotAFinding
	case result.StatusNotApplicable:
		return cklbNotApplicable
	default:
		// Errors and never-reviewed rules both surface as not_reviewed;
		// absence of evidence is not evidence of compliance.
		return cklbNotReviewed
	}
}

// checklistNamespace seeds deterministic per-host checklist UUIDs so that
// regenerating from the same inputs reproduces the artifact byte for byte.
var checklistNamespace = uuid.MustParse("8d3f41e6-52c4-4d6a-9b0e-6a9e3e6f7c21")

// GenerateChecklist binds a rule catalog to one host's result set. The
// catalog is mandatory: a checklist cannot be built without one. Catalog
// rules with no matching result default to not_reviewed with empty
// details; results for rules absent from the catalog are appended with an
// unknown-rule marker rather than dropped. generatedAt is the only
// clock-dependent field.
func GenerateChecklist(set *result.HostResultSet, cat *catalog.Catalog, generatedAt time.Time) (*Checklist, error) {
	if cat == nil {
		return nil, fmt.Errorf("checklist generation requires a rule catalog")
	}

	host := set.Host()
	cl := &Checklist{
		Title:       cat.Title,
		ID:          cat.ID,
		UUID:        uuid.NewSHA1(checklistNamespace, []byte(host+"/"+cat.ID)).String(),
		CklbVersion: cat.CklbVersion,
		GeneratedAt: generatedAt,
		TargetData: TargetData{
			TargetType: "Computing",
			HostName:   host,
			FQDN:       host,
		},
	}

	matched := make(map[string]bool)
	for _, bench := range cat.Stigs {
		out := ChecklistBenchmark{
			StigName:    bench.StigName,
			DisplayName: bench.DisplayName,
			StigID:      bench.StigID,
			ReleaseInfo: bench.ReleaseInfo,
			Version:     bench.Version,
			UUID:        bench.UUID,
			Size:        bench.Size,
		}
		for _, def := range bench.Rules {
			row := ChecklistRule{
				RuleDefinition: def,
				Status:         cklbNotReviewed,
			}
			if r, ok := matchResult(set, def); ok {
				matched[r.RuleID] = true
				row.Status = cklbStatus(r.Status)
				row.FindingDetails = stripHTML(r.Evidence)
				row.Comments = fmt.Sprintf("Recorded by automated audit in %s mode.", r.Mode)
				if r.Status == result.StatusError {
					row.FindingDetails = "Check errored: " + row.FindingDetails
				}
			}
			out.Rules = append(out.Rules, row)
		}
		cl.Stigs = append(cl.Stigs, out)
	}

	// Preserve results the catalog does not know about.
	if len(cl.Stigs) > 0 {
		for _, r := range set.Results() {
			if matched[r.RuleID] {
				continue
			}
			cl.Stigs[0].Rules = append(cl.Stigs[0].Rules, ChecklistRule{
				RuleDefinition: catalog.RuleDefinition{
					RuleID:      r.RuleID,
					RuleVersion: r.RuleID,
					Severity:    "medium",
					GroupTitle:  "Unknown Rule",
					RuleTitle:   fmt.Sprintf("Unknown rule %s (not in catalog)", r.RuleID),
				},
				Status:         cklbStatus(r.Status),
				FindingDetails: stripHTML(r.Evidence),
				Comments:       fmt.Sprintf("Recorded by automated audit in %s mode.", r.Mode),
			})
		}
	}

	return cl, nil
}

// matchResult finds the result for a catalog rule by exact id equality on
// any of the rule's identifiers, including the bare numeric form the event
// capture layer stores.
func matchResult(set *result.HostResultSet, def catalog.RuleDefinition) (result.ComplianceResult, bool) {
	for _, key := range []string{def.RuleVersion, def.GroupID, def.RuleID} {
		if key == "" {
			continue
		}
		if r, ok := set.Get(key); ok {
			return r, true
		}
	}
	if m := digits.FindStringSubmatch(def.GroupID); m != nil {
		if r, ok := set.Get(m[1]); ok {
			return r, true
		}
	}
	return result.ComplianceResult{}, false
}

var digits = regexp.MustCompile(`(\d{4,})`)

// WriteChecklist serializes a checklist to path as indented JSON.
func WriteChecklist(path string, cl *Checklist) error {
	data, err := json.MarshalIndent(cl, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checklist: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing checklist %s: %w", path, err)
	}
	return nil
}
