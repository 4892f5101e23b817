package result

import "strings"

// Status is a canonical compliance outcome for one rule on one host.
type Status string

const (
	StatusPass          Status = "pass"
	StatusFail          Status = "fail"
	StatusError         Status = "error"
	StatusNotApplicable Status = "not_applicable"
	StatusNotReviewed   Status = "not_reviewed"
)

// Mode indicates whether a result was produced by an evaluation-only run
// or by a run that applied fixes.
type Mode string

const (
	ModeCheck Mode = "check"
	ModeApply Mode = "apply"
)

// Valid reports whether s is one of the five canonical values.
func (s Status) Valid() bool {
	switch s {
	case StatusPass, StatusFail, StatusError, StatusNotApplicable, StatusNotReviewed:
		return true
	}
	return false
}

// canonical maps every known raw status string to exactly one canonical value.
// Vocabulary collected from the collector callback, checklist viewers, and
// prior on-disk artifacts.
var canonical = map[string]Status{
	"pass":           StatusPass,
	"passed":         StatusPass,
	"compliant":      StatusPass,
	"success":        StatusPass,
	"closed":         StatusPass,
	"notafinding":    StatusPass,
	"not_a_finding":  StatusPass,
	"fixed":          StatusPass,
	"remediated":     StatusPass,
	"fail":           StatusFail,
	"failed":         StatusFail,
	"open":           StatusFail,
	"finding":        StatusFail,
	"non-compliant":  StatusFail,
	"non_compliant":  StatusFail,
	"error":          StatusError,
	"errored":        StatusError,
	"unreachable":    StatusError,
	"na":             StatusNotApplicable,
	"n/a":            StatusNotApplicable,
	"not_applicable": StatusNotApplicable,
	"not applicable": StatusNotApplicable,
	"notapplicable":  StatusNotApplicable,
	"skipped":        StatusNotApplicable,
	"not_reviewed":   StatusNotReviewed,
	"notreviewed":    StatusNotReviewed,
	"notchecked":     StatusNotReviewed,
}

// Canonicalize maps a raw status string to its canonical value. Unknown
// values map to StatusError so they stay visible downstream; the second
// return value is false for those.
func Canonicalize(raw string) (Status, bool) {
	s, ok := canonical[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return StatusError, false
	}
	return s, true
}
