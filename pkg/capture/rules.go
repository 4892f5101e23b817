package capture

import "regexp"

// pattern recognizes one rule-id naming convention in an event name.
// Patterns are tried in order; the first match wins.
type pattern struct {
	name string
	re   *regexp.Regexp
}

// Registered naming patterns: a fixed prefix followed by a numeric id.
// Event names matching none of these are not compliance-relevant.
var patterns = []pattern{
	{"stigrule", regexp.MustCompile(`(?i)stigrule_(\d{4,})`)},
	{"sv", regexp.MustCompile(`(?i)SV-(\d{4,})`)},
	{"vuln", regexp.MustCompile(`(?i)V-(\d{4,})`)},
	{"rule", regexp.MustCompile(`(?i)R-(\d{4,})`)},
}

// ExtractRuleID pulls the numeric rule id out of an event name. The second
// return value is false when the name matches no registered pattern, which
// simply means the event is not a compliance check.
func ExtractRuleID(name string) (string, bool) {
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(name); m != nil {
			return m[1], true
		}
	}
	return "", false
}
