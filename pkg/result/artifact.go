package result

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// rawHostDoc is the on-disk shape of one host's entry in a raw results
// artifact: a mode plus a list of rule outcome records.
type rawHostDoc struct {
	Mode    Mode        `yaml:"mode,omitempty"`
	Results []rawResult `yaml:"results"`
}

// rawResult is the on-disk shape of one rule outcome. The timestamp is
// carried as a string so that one malformed value degrades to the zero
// time instead of failing the whole load.
type rawResult struct {
	RuleID    string `yaml:"rule_id"`
	Status    Status `yaml:"status"`
	Evidence  string `yaml:"evidence,omitempty"`
	Timestamp string `yaml:"timestamp,omitempty"`
	Mode      Mode   `yaml:"mode,omitempty"`
}

// LoadArtifact reads a raw per-host results artifact: a YAML document keyed
// by host name, each entry holding a list of rule outcome records. Statuses
// are canonicalized on the way in, so every returned result carries one of
// the five canonical values. A malformed timestamp is an ignorable
// condition: the result keeps the zero time and everything else survives.
func LoadArtifact(path string) (map[string]*HostResultSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results artifact %s: %w", path, err)
	}

	var doc map[string]rawHostDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing results artifact %s: %w", path, err)
	}

	sets := make(map[string]*HostResultSet, len(doc))
	for host, entry := range doc {
		set := NewHostResultSet(host)
		for _, raw := range entry.Results {
			r := ComplianceResult{
				RuleID:    raw.RuleID,
				Host:      host,
				Status:    raw.Status,
				Evidence:  raw.Evidence,
				Timestamp: ParseTimestamp(raw.Timestamp),
				Mode:      raw.Mode,
			}
			if r.Mode == "" {
				r.Mode = entry.Mode
			}
			set.Add(r)
		}
		Normalize(set)
		sets[host] = set
	}
	return sets, nil
}

// SaveArtifact writes one or more host result sets to a raw results
// artifact at path. Hosts are emitted in sorted order so repeated saves of
// the same data produce identical files.
func SaveArtifact(path string, sets ...*HostResultSet) error {
	doc := make(map[string]rawHostDoc, len(sets))
	for _, set := range sets {
		var entry rawHostDoc
		for _, r := range set.Results() {
			out := rawResult{
				RuleID:   r.RuleID,
				Status:   r.Status,
				Evidence: r.Evidence,
				Mode:     r.Mode,
			}
			if !r.Timestamp.IsZero() {
				out.Timestamp = r.Timestamp.UTC().Format(time.RFC3339Nano)
			}
			entry.Results = append(entry.Results, out)
		}
		if len(entry.Results) > 0 {
			entry.Mode = entry.Results[0].Mode
		}
		doc[set.Host()] = entry
	}

	// yaml.v3 already sorts map keys; keep an explicit sanity ordering of
	// results inside each host via insert order (Results does that).
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding results artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing results artifact %s: %w", path, err)
	}
	return nil
}

// SortedHosts returns the host names of a loaded artifact in stable order.
func SortedHosts(sets map[string]*HostResultSet) []string {
	hosts := make([]string, 0, len(sets))
	for h := range sets {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// ParseTimestamp parses an RFC3339 evidence timestamp, returning the zero
// time when the value is missing or malformed. Bad timestamps are an
// ignorable condition, never an error.
func ParseTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
