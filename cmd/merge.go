package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/stigctl/pkg/logging"
	"github.com/user/stigctl/pkg/result"
)

var mergeOut string

var mergeCmd = &cobra.Command{
	Use:   "merge <artifact> <artifact> [artifact...]",
	Short: "Merge raw result artifacts, newest result per rule id winning",
	Long: `Combines two or more raw results artifacts. For each host, rules are
merged individually: the result with the later timestamp wins per rule id,
so a targeted re-check of a few rules never reverts the rest to stale data.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.InitLogger(DebugMode)
		defer log.Sync()

		merged := make(map[string]*result.HostResultSet)
		for _, path := range args {
			sets, err := result.LoadArtifact(path)
			if err != nil {
				return err
			}
			for host, set := range sets {
				prev, ok := merged[host]
				if !ok {
					merged[host] = set
					continue
				}
				combined, err := result.Merge(prev, set)
				if err != nil {
					return err
				}
				merged[host] = combined
			}
		}

		all := make([]*result.HostResultSet, 0, len(merged))
		for _, host := range result.SortedHosts(merged) {
			all = append(all, merged[host])
		}
		if err := result.SaveArtifact(mergeOut, all...); err != nil {
			return err
		}
		fmt.Printf("Merged %d artifact(s) covering %d host(s) into %s\n", len(args), len(all), mergeOut)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeOut, "out", "merged.yaml", "Output artifact path")
	rootCmd.AddCommand(mergeCmd)
}
