package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/user/stigctl/pkg/catalog"
)

// State is one phase of the remediation session state machine.
type State int

const (
	StateLoaded State = iota
	StateSnapshotPending
	StateSnapshotDone
	StateRulePending
	StateRuleExecuting
	StateAborted
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "LOADED"
	case StateSnapshotPending:
		return "SNAPSHOT_PENDING"
	case StateSnapshotDone:
		return "SNAPSHOT_DONE"
	case StateRulePending:
		return "RULE_PENDING"
	case StateRuleExecuting:
		return "RULE_EXECUTING"
	case StateAborted:
		return "ABORTED"
	case StateComplete:
		return "COMPLETE"
	}
	return "UNKNOWN"
}

// transitions is the legal state-transition table. Anything not listed is a
// programming error.
var transitions = map[State][]State{
	StateLoaded:          {StateSnapshotPending, StateSnapshotDone, StateComplete},
	StateSnapshotPending: {StateSnapshotDone, StateAborted},
	StateSnapshotDone:    {StateRulePending, StateComplete},
	StateRulePending:     {StateRuleExecuting, StateRulePending, StateAborted, StateComplete},
	StateRuleExecuting:   {StateRulePending, StateComplete},
}

// Decision is an operator's choice for one plan entry.
type Decision int

const (
	DecisionApply Decision = iota
	DecisionSkip
	DecisionAbort
)

// Prompter supplies operator decisions. Decide blocks until the operator
// answers; an implementation may present the rule however it likes, but it
// must show the rule's metadata and the audit evidence before asking.
type Prompter interface {
	Decide(entry PlanEntry, index, total int) (Decision, error)
	Confirm(message string) (bool, error)
}

// Target scopes one execution-engine invocation to exactly one rule on
// exactly one host.
type Target struct {
	Host        string
	RuleID      string
	RuleVersion string
	ManageVar   string
}

// Runner is the external execution engine. Apply must touch only the rule
// named by the target; Describe returns the exact invocation Apply would
// make, for dry runs.
type Runner interface {
	Snapshot(ctx context.Context, host string) error
	Apply(ctx context.Context, target Target) error
	Describe(target Target) string
}

// Session log outcomes.
const (
	OutcomeApplied      = "applied"
	OutcomeApplyFailed  = "apply_failed"
	OutcomeSkipped      = "skipped"
	OutcomeAborted      = "abort_requested"
	OutcomeNotAttempted = "not_attempted"
	OutcomeDryRun       = "dry_run"
)

// LogEntry records one plan entry's fate in the session log.
type LogEntry struct {
	RuleID      string
	RuleVersion string
	Outcome     string
	Detail      string
}

// Options tune a remediation session.
type Options struct {
	// SkipSnapshot bypasses the safety-snapshot phase entirely.
	SkipSnapshot bool

	// DryRun prints each entry's exact invocation instead of executing,
	// contacting no host.
	DryRun bool

	// IdleTimeout bounds the wait for an operator decision. Zero means
	// wait forever; on expiry the session aborts.
	IdleTimeout time.Duration

	// Out receives session progress output. Defaults to os.Stdout.
	Out io.Writer
}

// Session drives the interactive, one-rule-at-a-time remediation loop. It
// is strictly single-threaded: fixes are never parallelized because two
// concurrent fixes on one host could interact.
type Session struct {
	plan     *Plan
	runner   Runner
	prompter Prompter
	opts     Options

	state State
	log   []LogEntry
}

// NewSession creates a session over an already-built plan.
func NewSession(plan *Plan, runner Runner, prompter Prompter, opts Options) *Session {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Session{
		plan:     plan,
		runner:   runner,
		prompter: prompter,
		opts:     opts,
		state:    StateLoaded,
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state
}

// Log returns the decision log accumulated so far. After an abort it is
// still complete: every remaining entry is marked not attempted.
func (s *Session) Log() []LogEntry {
	return s.log
}

func (s *Session) to(next State) error {
	for _, allowed := range transitions[s.state] {
		if allowed == next {
			s.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal session transition %s -> %s", s.state, next)
}

func (s *Session) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.opts.Out, format+"\n", args...)
}

// Run executes the session to a terminal state and returns the decision
// log. A per-rule apply failure is recorded and the loop continues; only a
// broken prompter or an illegal transition returns an error.
func (s *Session) Run(ctx context.Context) ([]LogEntry, error) {
	if len(s.plan.Entries) == 0 {
		// Nothing to remediate is a valid terminal state, not an error.
		if err := s.to(StateComplete); err != nil {
			return s.log, err
		}
		s.printf("No failing rules found. Nothing to remediate.")
		return s.log, nil
	}

	if err := s.snapshotPhase(ctx); err != nil {
		return s.log, err
	}
	if s.state == StateAborted {
		return s.log, nil
	}

	total := len(s.plan.Entries)
	for i, entry := range s.plan.Entries {
		if err := s.to(StateRulePending); err != nil {
			return s.log, err
		}

		if s.opts.DryRun {
			target := s.target(entry)
			s.printf("[DRY-RUN] %d/%d would run: %s", i+1, total, s.runner.Describe(target))
			s.record(entry, OutcomeDryRun, "")
			continue
		}

		if entry.RuleVersion == "" {
			s.printf("[%d/%d] Could not resolve rule %s against the catalog; skipping.", i+1, total, entry.RuleID)
			s.record(entry, OutcomeSkipped, "unresolvable rule id")
			continue
		}

		decision, err := s.decide(entry, i+1, total)
		if err != nil {
			return s.log, fmt.Errorf("reading operator decision: %w", err)
		}

		switch decision {
		case DecisionAbort:
			s.record(entry, OutcomeAborted, "")
			s.markRemaining(i + 1)
			if err := s.to(StateAborted); err != nil {
				return s.log, err
			}
			s.printf("Aborted by operator. %d rule(s) not attempted.", total-i-1)
			return s.log, nil

		case DecisionSkip:
			s.record(entry, OutcomeSkipped, "")
			s.printf("Skipped %s.", entry.RuleVersion)

		case DecisionApply:
			if err := s.to(StateRuleExecuting); err != nil {
				return s.log, err
			}
			target := s.target(entry)
			if applyErr := s.runner.Apply(ctx, target); applyErr != nil {
				// Per-rule recoverable: record, surface now, move on.
				s.record(entry, OutcomeApplyFailed, applyErr.Error())
				s.printf("Applying %s FAILED: %v", entry.RuleVersion, applyErr)
			} else {
				s.record(entry, OutcomeApplied, "")
				s.printf("Applied %s.", entry.RuleVersion)
			}
		}
	}

	// The loop can finish from RULE_PENDING (last entry skipped/dry-run)
	// or RULE_EXECUTING (last entry applied).
	if err := s.to(StateComplete); err != nil {
		return s.log, err
	}
	return s.log, nil
}

// snapshotPhase runs the optional safety snapshot once, before any rule is
// touched. Failure is surfaced but does not abort on its own; the operator
// decides whether to continue without a safety net.
func (s *Session) snapshotPhase(ctx context.Context) error {
	if s.opts.SkipSnapshot || s.opts.DryRun {
		return s.to(StateSnapshotDone)
	}

	if err := s.to(StateSnapshotPending); err != nil {
		return err
	}

	s.printf("Taking safety snapshot of %s before remediation...", s.plan.Host)
	if snapErr := s.runner.Snapshot(ctx, s.plan.Host); snapErr != nil {
		s.printf("Snapshot FAILED: %v", snapErr)
		cont, err := s.prompter.Confirm("Continue without a safety snapshot?")
		if err != nil {
			return fmt.Errorf("reading operator decision: %w", err)
		}
		if !cont {
			s.markRemaining(0)
			return s.to(StateAborted)
		}
	}
	return s.to(StateSnapshotDone)
}

// decide asks the prompter for a decision, bounded by the idle timeout when
// one is configured. Expiry defaults to abort.
func (s *Session) decide(entry PlanEntry, index, total int) (Decision, error) {
	if s.opts.IdleTimeout <= 0 {
		return s.prompter.Decide(entry, index, total)
	}

	type answer struct {
		d   Decision
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		d, err := s.prompter.Decide(entry, index, total)
		ch <- answer{d, err}
	}()

	select {
	case a := <-ch:
		return a.d, a.err
	case <-time.After(s.opts.IdleTimeout):
		s.printf("No decision within %s; aborting.", s.opts.IdleTimeout)
		return DecisionAbort, nil
	}
}

func (s *Session) target(entry PlanEntry) Target {
	return Target{
		Host:        s.plan.Host,
		RuleID:      entry.RuleID,
		RuleVersion: entry.RuleVersion,
		ManageVar:   manageVarFor(entry),
	}
}

func manageVarFor(entry PlanEntry) string {
	if entry.RuleVersion == "" {
		return ""
	}
	return catalog.ManageVar(entry.RuleVersion)
}

func (s *Session) record(entry PlanEntry, outcome, detail string) {
	s.log = append(s.log, LogEntry{
		RuleID:      entry.RuleID,
		RuleVersion: entry.RuleVersion,
		Outcome:     outcome,
		Detail:      detail,
	})
}

// markRemaining logs every entry from index onward as not attempted, so the
// session log stays consistent and inspectable after an abort.
func (s *Session) markRemaining(from int) {
	for _, entry := range s.plan.Entries[from:] {
		s.record(entry, OutcomeNotAttempted, "")
	}
}

// Summary returns a short outcome count line for the end of a session.
func Summary(log []LogEntry) string {
	counts := map[string]int{}
	for _, e := range log {
		counts[e.Outcome]++
	}
	return fmt.Sprintf("%d applied, %d failed, %d skipped, %d not attempted",
		counts[OutcomeApplied], counts[OutcomeApplyFailed],
		counts[OutcomeSkipped], counts[OutcomeNotAttempted])
}
