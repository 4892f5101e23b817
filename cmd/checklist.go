package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/stigctl/pkg/artifact"
	"github.com/user/stigctl/pkg/catalog"
	"github.com/user/stigctl/pkg/config"
	"github.com/user/stigctl/pkg/logging"
	"github.com/user/stigctl/pkg/result"
)

var (
	checklistArtifact string
	checklistSkeleton string
	checklistPlatform string
	checklistOutDir   string
)

// resolveSkeleton picks the rule catalog file: an explicit path wins, else
// the path registered for the platform family in the config.
func resolveSkeleton(path, platform string) (string, error) {
	if path != "" {
		return path, nil
	}
	if platform == "" {
		return "", fmt.Errorf("either --skeleton or --platform is required")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	registered := cfg.GetSkeleton(platform)
	if registered == "" {
		return "", fmt.Errorf("no skeleton registered for platform %q; run: stigctl config set-skeleton -p %s --path <file>", platform, platform)
	}
	return registered, nil
}

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Generate viewer-importable checklist artifacts from raw results",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.InitLogger(DebugMode)
		defer log.Sync()

		sets, err := result.LoadArtifact(checklistArtifact)
		if err != nil {
			return err
		}

		// The checklist cannot be built without a catalog; this load is
		// fatal here, unlike for the results document.
		skeleton, err := resolveSkeleton(checklistSkeleton, checklistPlatform)
		if err != nil {
			return err
		}
		cat, err := catalog.Load(skeleton)
		if err != nil {
			return err
		}

		outDir := effectiveOutDir(cmd.Flags().Changed("out-dir"), checklistOutDir)
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("creating output dir %s: %w", outDir, err)
		}

		now := time.Now().UTC()
		failures := 0
		for _, host := range result.SortedHosts(sets) {
			cl, err := artifact.GenerateChecklist(sets[host], cat, now)
			if err != nil {
				log.Errorf("host %s: %v", host, err)
				failures++
				continue
			}
			path := filepath.Join(outDir, host+".cklb")
			if err := artifact.WriteChecklist(path, cl); err != nil {
				log.Errorf("host %s: %v", host, err)
				failures++
				continue
			}
			fmt.Printf("Wrote checklist for %s to %s\n", host, path)
		}
		if failures == len(sets) && len(sets) > 0 {
			return fmt.Errorf("checklist generation failed for all %d host(s)", failures)
		}
		return nil
	},
}

func init() {
	checklistCmd.Flags().StringVar(&checklistArtifact, "artifact", "", "Raw per-host results artifact (required)")
	checklistCmd.Flags().StringVar(&checklistSkeleton, "skeleton", "", "Rule catalog (CKLB skeleton) file")
	checklistCmd.Flags().StringVarP(&checklistPlatform, "platform", "p", "", "Platform family with a registered skeleton")
	checklistCmd.Flags().StringVar(&checklistOutDir, "out-dir", ".artifacts", "Directory for generated checklists")
	checklistCmd.MarkFlagRequired("artifact")
	rootCmd.AddCommand(checklistCmd)
}
