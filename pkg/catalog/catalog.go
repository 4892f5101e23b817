package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// RuleDefinition is one immutable catalog entry: the static metadata for a
// numbered compliance rule. Field names follow the CKLB skeleton format so
// checklist artifacts stay importable by standard viewers.
type RuleDefinition struct {
	RuleID       string   `json:"rule_id"`
	RuleVersion  string   `json:"rule_version"`
	GroupID      string   `json:"group_id,omitempty"`
	Severity     string   `json:"severity"`
	GroupTitle   string   `json:"group_title"`
	RuleTitle    string   `json:"rule_title"`
	FixText      string   `json:"fix_text"`
	CheckContent string   `json:"check_content"`
	Discussion   string   `json:"discussion"`
	CCIs         []string `json:"ccis"`
}

// Benchmark is one STIG profile inside a skeleton.
type Benchmark struct {
	StigName    string           `json:"stig_name"`
	DisplayName string           `json:"display_name"`
	StigID      string           `json:"stig_id"`
	ReleaseInfo string           `json:"release_info"`
	Version     string           `json:"version"`
	UUID        string           `json:"uuid"`
	Size        int              `json:"size"`
	Rules       []RuleDefinition `json:"rules"`
}

// Catalog is a platform-specific rule catalog loaded from a CKLB skeleton
// JSON document.
type Catalog struct {
	Title       string      `json:"title"`
	ID          string      `json:"id"`
	CklbVersion string      `json:"cklb_version"`
	Stigs       []Benchmark `json:"stigs"`

	byVersion map[string]*RuleDefinition
	byGroup   map[string]*RuleDefinition
	byRuleID  map[string]*RuleDefinition
	byNumber  map[string]*RuleDefinition
}

var digits = regexp.MustCompile(`(\d{4,})`)

// Load reads a CKLB skeleton from path. A missing or unparsable skeleton is
// fatal for callers that need a catalog; the error names the file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a CKLB skeleton from raw JSON.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing rule catalog: %w", err)
	}
	if len(c.Stigs) == 0 {
		return nil, fmt.Errorf("rule catalog contains no stigs")
	}
	c.index()
	return &c, nil
}

func (c *Catalog) index() {
	c.byVersion = make(map[string]*RuleDefinition)
	c.byGroup = make(map[string]*RuleDefinition)
	c.byRuleID = make(map[string]*RuleDefinition)
	c.byNumber = make(map[string]*RuleDefinition)

	for si := range c.Stigs {
		for ri := range c.Stigs[si].Rules {
			r := &c.Stigs[si].Rules[ri]
			if r.RuleVersion != "" {
				c.byVersion[strings.ToUpper(r.RuleVersion)] = r
			}
			if r.GroupID != "" {
				c.byGroup[strings.ToUpper(r.GroupID)] = r
				if m := digits.FindStringSubmatch(r.GroupID); m != nil {
					c.byNumber[m[1]] = r
				}
			}
			if r.RuleID != "" {
				c.byRuleID[strings.ToUpper(r.RuleID)] = r
			}
		}
	}
}

// Rules returns every rule across all benchmarks, in catalog order.
func (c *Catalog) Rules() []RuleDefinition {
	var out []RuleDefinition
	for _, s := range c.Stigs {
		out = append(out, s.Rules...)
	}
	return out
}

// Resolve finds the catalog entry for an identifier. It accepts a rule
// version (ESXI-70-000001), a group id (V-260469), a full rule id
// (SV-260469r...), or the bare numeric id the event capture layer stores.
func (c *Catalog) Resolve(id string) (*RuleDefinition, bool) {
	key := strings.ToUpper(strings.TrimSpace(id))
	if key == "" {
		return nil, false
	}
	if r, ok := c.byVersion[key]; ok {
		return r, true
	}
	if r, ok := c.byGroup[key]; ok {
		return r, true
	}
	if r, ok := c.byRuleID[key]; ok {
		return r, true
	}
	if r, ok := c.byGroup["V-"+key]; ok {
		return r, true
	}
	if m := digits.FindStringSubmatch(key); m != nil {
		if r, ok := c.byNumber[m[1]]; ok {
			return r, true
		}
	}
	return nil, false
}

// ManageVar converts a rule version into the per-rule enable variable the
// execution engine understands, e.g. ESXI-70-000001 -> esxi_70_000001_Manage.
func ManageVar(ruleVersion string) string {
	return strings.ToLower(strings.ReplaceAll(ruleVersion, "-", "_")) + "_Manage"
}

// AllDisabledVars returns every rule's manage variable set to false. Passing
// this set to the execution engine and re-enabling exactly one variable
// scopes an invocation to a single rule, regardless of how coarse the
// engine's own scoping is.
func (c *Catalog) AllDisabledVars() map[string]bool {
	vars := make(map[string]bool)
	for _, r := range c.Rules() {
		if r.RuleVersion != "" {
			vars[ManageVar(r.RuleVersion)] = false
		}
	}
	return vars
}
