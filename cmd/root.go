package cmd

import (
	"github.com/spf13/cobra"

	"github.com/user/stigctl/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "stigctl",
	Short: "STIG compliance capture, checklist generation, and break-glass remediation",
	Long: `stigctl turns structured audit events into per-host compliance results,
renders them as viewer-importable checklists and machine-readable results
documents, and drives a supervised one-rule-at-a-time remediation loop.`,
}

var DebugMode bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
}

// effectiveOutDir resolves a command's output directory: an explicit
// --out-dir wins, then the configured artifact dir, then the flag default.
func effectiveOutDir(flagChanged bool, flagValue string) string {
	if flagChanged {
		return flagValue
	}
	cfg, err := config.LoadConfig()
	if err != nil || cfg.ArtifactDir == "" {
		return flagValue
	}
	return cfg.ArtifactDir
}
