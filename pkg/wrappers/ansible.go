package wrappers

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/stigctl/pkg/engine"
)

// PlaybookRunner drives ansible-playbook as the external execution engine,
// one rule per invocation. Scoping relies on a vars file that disables
// every rule's manage variable plus a single re-enable override, so even a
// coarse playbook touches exactly one rule.
type PlaybookRunner struct {
	Playbook  string
	Inventory string

	// Limit is the inventory limit pattern (-l) for the target host.
	Limit string

	// DisabledVarsFile is the path to the all-disabled manage vars file,
	// written once per session via WriteDisabledVarsFile.
	DisabledVarsFile string

	// SkipTags are play tags excluded from every per-rule run (snapshot
	// and post-audit plays by default).
	SkipTags []string

	// ExtraVars are raw key=value pass-throughs appended to every run.
	ExtraVars []string

	// SnapshotTag selects the safety-snapshot play for Snapshot runs.
	SnapshotTag string

	Out    io.Writer
	ErrOut io.Writer
}

// WriteDisabledVarsFile writes the manage-var map to a temporary YAML file
// and returns its path. Callers remove the file when the session ends.
func WriteDisabledVarsFile(vars map[string]bool) (string, error) {
	data, err := yaml.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("encoding disabled vars: %w", err)
	}
	tmp, err := os.CreateTemp("", "stigctl_disabled_*.yaml")
	if err != nil {
		return "", fmt.Errorf("creating disabled vars file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing disabled vars file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// Command builds the full argv for one per-rule invocation. The same
// builder feeds both live runs and dry-run output, so the printed
// invocation always matches what would execute.
func (r *PlaybookRunner) Command(t engine.Target) []string {
	args := []string{
		"ansible-playbook",
		r.Playbook,
		"-i", r.Inventory,
		"-l", r.Limit,
		"-e@" + r.DisabledVarsFile,
		"-e" + t.ManageVar + "=true",
		"-estig_enable_hardening=true",
		fmt.Sprintf("-estig_target_hosts=['%s']", t.Host),
	}
	if len(r.SkipTags) > 0 {
		args = append(args, "--skip-tags", strings.Join(r.SkipTags, ","))
	}
	for _, ev := range r.ExtraVars {
		args = append(args, "-e", ev)
	}
	return args
}

// Describe returns the exact invocation Apply would make for the target.
func (r *PlaybookRunner) Describe(t engine.Target) string {
	return strings.Join(r.Command(t), " ")
}

// Apply runs the execution engine for exactly one rule on one host,
// streaming output to the terminal. A non-zero exit is returned as an
// error; the orchestrator records it and moves on.
func (r *PlaybookRunner) Apply(ctx context.Context, t engine.Target) error {
	args := r.Command(t)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = r.out()
	cmd.Stderr = r.errOut()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("applying %s on %s: %w", t.RuleVersion, t.Host, err)
	}
	return nil
}

// Snapshot invokes the playbook's snapshot play once for the host.
func (r *PlaybookRunner) Snapshot(ctx context.Context, host string) error {
	tag := r.SnapshotTag
	if tag == "" {
		tag = "snapshot"
	}
	args := []string{
		"ansible-playbook",
		r.Playbook,
		"-i", r.Inventory,
		"-l", r.Limit,
		"--tags", tag,
		fmt.Sprintf("-estig_target_hosts=['%s']", host),
	}
	for _, ev := range r.ExtraVars {
		args = append(args, "-e", ev)
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = r.out()
	cmd.Stderr = r.errOut()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("snapshot of %s: %w", host, err)
	}
	return nil
}

func (r *PlaybookRunner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}

func (r *PlaybookRunner) errOut() io.Writer {
	if r.ErrOut != nil {
		return r.ErrOut
	}
	return os.Stderr
}
