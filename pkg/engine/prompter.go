package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	sepStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#3F3F46"))
	titleStyle    = lipgloss.NewStyle().Bold(true)
	ruleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D97706"))
	highSevStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	medSevStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	lowSevStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B949E"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	separatorLine = sepStyle.Render(strings.Repeat("─", 65))
)

func severityStyle(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high", "cat_i":
		return highSevStyle
	case "low", "cat_iii":
		return lowSevStyle
	default:
		return medSevStyle
	}
}

// TerminalPrompter presents each plan entry on the terminal and reads the
// operator's apply/skip/abort decision from an input stream.
type TerminalPrompter struct {
	Out     io.Writer
	scanner *bufio.Scanner
}

// NewTerminalPrompter creates a prompter over stdin/stdout.
func NewTerminalPrompter() *TerminalPrompter {
	return NewTerminalPrompterIO(os.Stdin, os.Stdout)
}

// NewTerminalPrompterIO creates a prompter over explicit streams.
func NewTerminalPrompterIO(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{Out: out, scanner: bufio.NewScanner(in)}
}

// Banner renders the rule header shown before each decision: rule version,
// severity, title, the finding evidence from the audit, and a truncated
// fix text.
func Banner(entry PlanEntry, index, total int) string {
	severity := "medium"
	title := fmt.Sprintf("Rule %s", entry.RuleID)
	fix := ""
	if entry.Definition != nil {
		severity = entry.Definition.Severity
		title = entry.Definition.RuleTitle
		fix = entry.Definition.FixText
	}
	if len(fix) > 120 {
		fix = fix[:120] + "..."
	}

	id := entry.RuleVersion
	if id == "" {
		id = entry.RuleID
	}

	lines := []string{
		separatorLine,
		fmt.Sprintf("Rule %d/%d: %s  %s", index, total,
			ruleStyle.Render(id), severityStyle(severity).Render(strings.ToUpper(severity))),
		labelStyle.Render("Title:   ") + titleStyle.Render(title),
	}
	if entry.Result.Evidence != "" {
		finding := entry.Result.Evidence
		if len(finding) > 200 {
			finding = finding[:200]
		}
		lines = append(lines, labelStyle.Render("Finding: ")+finding)
	}
	if fix != "" {
		lines = append(lines, labelStyle.Render("Fix:     ")+fix)
	}
	lines = append(lines, separatorLine)
	return strings.Join(lines, "\n")
}

// Decide shows the rule banner and prompts until the operator answers
// apply, skip, or abort.
func (p *TerminalPrompter) Decide(entry PlanEntry, index, total int) (Decision, error) {
	fmt.Fprintln(p.Out)
	fmt.Fprintln(p.Out, Banner(entry, index, total))

	for {
		fmt.Fprint(p.Out, "Apply this rule? [y/n/abort]: ")
		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return DecisionAbort, err
			}
			// EOF on the decision stream ends the session safely.
			return DecisionAbort, nil
		}
		switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
		case "y", "yes", "apply":
			return DecisionApply, nil
		case "n", "no", "s", "skip":
			return DecisionSkip, nil
		case "a", "abort", "q", "quit":
			return DecisionAbort, nil
		}
		fmt.Fprintln(p.Out, "  Enter y, n, or abort.")
	}
}

// Confirm asks a yes/no question.
func (p *TerminalPrompter) Confirm(message string) (bool, error) {
	for {
		fmt.Fprintf(p.Out, "%s [y/n]: ", message)
		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return false, err
			}
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.Out, "  Enter y or n.")
	}
}
