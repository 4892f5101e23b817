package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/stigctl/pkg/artifact"
	"github.com/user/stigctl/pkg/catalog"
	"github.com/user/stigctl/pkg/logging"
	"github.com/user/stigctl/pkg/result"
)

var (
	resultsArtifact string
	resultsSkeleton string
	resultsOutDir   string
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Generate flat machine-readable results documents from raw results",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.InitLogger(DebugMode)
		defer log.Sync()

		sets, err := result.LoadArtifact(resultsArtifact)
		if err != nil {
			return err
		}

		// Catalog is optional for the results document: without it the
		// output degrades to results without titles or fix text.
		var cat *catalog.Catalog
		if resultsSkeleton != "" {
			cat, err = catalog.Load(resultsSkeleton)
			if err != nil {
				log.Warnf("continuing without catalog: %v", err)
				cat = nil
			}
		}

		outDir := effectiveOutDir(cmd.Flags().Changed("out-dir"), resultsOutDir)
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("creating output dir %s: %w", outDir, err)
		}

		now := time.Now().UTC()
		failures := 0
		for _, host := range result.SortedHosts(sets) {
			doc := artifact.GenerateResults(sets[host], cat, now)
			path := filepath.Join(outDir, fmt.Sprintf("results_%s.json", host))
			if err := artifact.WriteResults(path, doc); err != nil {
				log.Errorf("host %s: %v", host, err)
				failures++
				continue
			}
			fmt.Printf("Wrote results document for %s to %s\n", host, path)
		}
		if failures == len(sets) && len(sets) > 0 {
			return fmt.Errorf("results generation failed for all %d host(s)", failures)
		}
		return nil
	},
}

func init() {
	resultsCmd.Flags().StringVar(&resultsArtifact, "artifact", "", "Raw per-host results artifact (required)")
	resultsCmd.Flags().StringVar(&resultsSkeleton, "skeleton", "", "Optional rule catalog for titles and severities")
	resultsCmd.Flags().StringVar(&resultsOutDir, "out-dir", ".artifacts", "Directory for generated results documents")
	resultsCmd.MarkFlagRequired("artifact")
	rootCmd.AddCommand(resultsCmd)
}
