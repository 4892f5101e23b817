package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/stigctl/pkg/catalog"
	"github.com/user/stigctl/pkg/logging"
	"github.com/user/stigctl/pkg/result"
)

var diffSkeleton string

var diffCmd = &cobra.Command{
	Use:   "diff <current> <baseline>",
	Short: "Compare a raw results artifact against a baseline run",
	Long: `Classifies each host's failing rules against an earlier audit: NEW
findings that appeared since the baseline, FIXED findings that no longer
fail, and UNCHANGED findings present in both runs.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.InitLogger(DebugMode)
		defer log.Sync()

		current, err := result.LoadArtifact(args[0])
		if err != nil {
			return err
		}
		baseline, err := result.LoadArtifact(args[1])
		if err != nil {
			return err
		}

		var cat *catalog.Catalog
		if diffSkeleton != "" {
			cat, err = catalog.Load(diffSkeleton)
			if err != nil {
				log.Warnf("continuing without catalog: %v", err)
				cat = nil
			}
		}

		for _, host := range result.SortedHosts(current) {
			base, ok := baseline[host]
			if !ok {
				fmt.Printf("Host %s: not in baseline, skipping\n", host)
				continue
			}
			diff, err := result.Compare(current[host], base)
			if err != nil {
				return err
			}

			fmt.Printf("Host %s (vs %s):\n", host, args[1])
			fmt.Println("--------------------------------------------------")
			fmt.Printf("NEW FINDINGS: %d\n", len(diff.New))
			for _, r := range diff.New {
				fmt.Printf("  [+] %s\n", describeRule(cat, r))
			}
			fmt.Printf("FIXED FINDINGS: %d\n", len(diff.Fixed))
			for _, r := range diff.Fixed {
				fmt.Printf("  [-] %s\n", describeRule(cat, r))
			}
			fmt.Printf("UNCHANGED FINDINGS: %d\n", len(diff.Unchanged))
			for _, r := range diff.Unchanged {
				fmt.Printf("  [=] %s\n", describeRule(cat, r))
			}
			fmt.Println()
		}
		return nil
	},
}

func describeRule(cat *catalog.Catalog, r result.ComplianceResult) string {
	if cat != nil {
		if def, ok := cat.Resolve(r.RuleID); ok {
			return fmt.Sprintf("[%s] %s - %s", def.Severity, def.RuleVersion, def.RuleTitle)
		}
	}
	if r.Evidence != "" {
		return fmt.Sprintf("%s - %s", r.RuleID, r.Evidence)
	}
	return r.RuleID
}

func init() {
	diffCmd.Flags().StringVar(&diffSkeleton, "skeleton", "", "Optional rule catalog for titles and severities")
	rootCmd.AddCommand(diffCmd)
}
