package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/stigctl/pkg/catalog"
	"github.com/user/stigctl/pkg/config"
	"github.com/user/stigctl/pkg/engine"
	"github.com/user/stigctl/pkg/logging"
	"github.com/user/stigctl/pkg/result"
	"github.com/user/stigctl/pkg/wrappers"
)

var (
	applyArtifact     string
	applySkeleton     string
	applyPlatform     string
	applyLimit        string
	applySkipSnapshot bool
	applyDryRun       bool
	applyPostAudit    bool
	applyExtraVars    []string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Break-glass remediation: apply failing rules one at a time, with confirmation",
	Long: `Reads a prior raw results artifact, filters it to failing rules, and walks
them one at a time. Each rule needs an explicit apply/skip/abort decision;
the execution engine is invoked once per approved rule, scoped so nothing
else is touched. Use --dry-run to print the exact invocations instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.InitLogger(DebugMode)
		defer log.Sync()

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		sets, err := result.LoadArtifact(applyArtifact)
		if err != nil {
			return err
		}

		set, err := selectHost(sets, applyLimit)
		if err != nil {
			return err
		}

		skeleton, err := resolveSkeleton(applySkeleton, applyPlatform)
		if err != nil {
			return err
		}
		cat, err := catalog.Load(skeleton)
		if err != nil {
			return err
		}

		plan := engine.BuildPlan(set, cat)
		fmt.Printf("Found %d failing rule(s) for %s.\n", len(plan.Entries), set.Host())

		disabledFile, err := wrappers.WriteDisabledVarsFile(cat.AllDisabledVars())
		if err != nil {
			return err
		}
		defer os.Remove(disabledFile)

		skipTags := []string{"snapshot"}
		if !applyPostAudit {
			skipTags = append(skipTags, "audit")
		}
		runner := &wrappers.PlaybookRunner{
			Playbook:         cfg.Playbook,
			Inventory:        cfg.Inventory,
			Limit:            set.Host(),
			DisabledVarsFile: disabledFile,
			SkipTags:         skipTags,
			ExtraVars:        applyExtraVars,
		}

		session := engine.NewSession(plan, runner, engine.NewTerminalPrompter(), engine.Options{
			SkipSnapshot: applySkipSnapshot,
			DryRun:       applyDryRun,
			IdleTimeout:  time.Duration(cfg.IdleTimeoutSeconds) * time.Second,
		})

		sessionLog, err := session.Run(context.Background())
		if err != nil {
			return err
		}

		// Operator abort and an empty plan both exit zero; only load
		// failures above are non-zero.
		fmt.Println("\n" + "=================================================================")
		fmt.Printf("Summary: %s\n", engine.Summary(sessionLog))
		for _, entry := range sessionLog {
			id := entry.RuleVersion
			if id == "" {
				id = entry.RuleID
			}
			line := fmt.Sprintf("  %-20s %s", id, entry.Outcome)
			if entry.Detail != "" {
				line += " (" + entry.Detail + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

// selectHost picks one host's result set from a loaded artifact. A limit is
// required when the artifact covers more than one host.
func selectHost(sets map[string]*result.HostResultSet, limit string) (*result.HostResultSet, error) {
	if limit != "" {
		set, ok := sets[limit]
		if !ok {
			return nil, fmt.Errorf("host %q not found in artifact (hosts: %v)", limit, result.SortedHosts(sets))
		}
		return set, nil
	}
	if len(sets) == 1 {
		for _, set := range sets {
			return set, nil
		}
	}
	return nil, fmt.Errorf("artifact contains %d hosts; select one with --limit", len(sets))
}

func init() {
	applyCmd.Flags().StringVar(&applyArtifact, "artifact", "", "Prior raw results artifact (required)")
	applyCmd.Flags().StringVar(&applySkeleton, "skeleton", "", "Rule catalog (CKLB skeleton) file")
	applyCmd.Flags().StringVarP(&applyPlatform, "platform", "p", "", "Platform family with a registered skeleton")
	applyCmd.Flags().StringVarP(&applyLimit, "limit", "l", "", "Host to remediate (required when the artifact has several)")
	applyCmd.Flags().BoolVar(&applySkipSnapshot, "skip-snapshot", false, "Skip the pre-remediation safety snapshot")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Print per-rule invocations without contacting any host")
	applyCmd.Flags().BoolVar(&applyPostAudit, "post-audit", false, "Run the post-remediation audit play after each rule")
	applyCmd.Flags().StringArrayVarP(&applyExtraVars, "extra-var", "e", nil, "Extra key=value passed through to the execution engine")
	applyCmd.MarkFlagRequired("artifact")
	rootCmd.AddCommand(applyCmd)
}
