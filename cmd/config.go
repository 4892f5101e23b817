package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/stigctl/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration (skeletons, playbook, inventory)",
}

var setSkeletonCmd = &cobra.Command{
	Use:   "set-skeleton",
	Short: "Register the rule catalog file for a platform family",
	Run: func(cmd *cobra.Command, args []string) {
		platform, _ := cmd.Flags().GetString("platform")
		path, _ := cmd.Flags().GetString("path")

		if platform == "" || path == "" {
			fmt.Println("Error: --platform and --path are required")
			return
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}

		cfg.SetSkeleton(platform, path)
		if err := config.SaveConfig(cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}
		fmt.Printf("Skeleton registered for platform: %s\n", platform)
	},
}

var setEngineCmd = &cobra.Command{
	Use:   "set-engine",
	Short: "Set the execution engine playbook and inventory",
	Run: func(cmd *cobra.Command, args []string) {
		playbook, _ := cmd.Flags().GetString("playbook")
		inventory, _ := cmd.Flags().GetString("inventory")

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}

		if playbook != "" {
			cfg.Playbook = playbook
		}
		if inventory != "" {
			cfg.Inventory = inventory
		}

		if err := config.SaveConfig(cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}
		fmt.Printf("Execution engine updated: Playbook=%s, Inventory=%s\n", cfg.Playbook, cfg.Inventory)
	},
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Println("Error loading config:", err)
			return
		}

		fmt.Printf("Artifact dir: %s\n", cfg.ArtifactDir)
		fmt.Printf("Playbook:     %s\n", cfg.Playbook)
		fmt.Printf("Inventory:    %s\n", cfg.Inventory)
		if cfg.IdleTimeoutSeconds > 0 {
			fmt.Printf("Idle timeout: %ds\n", cfg.IdleTimeoutSeconds)
		}
		if len(cfg.Skeletons) == 0 {
			fmt.Println("Skeletons:    (none registered)")
			return
		}
		fmt.Println("Skeletons:")
		for platform, path := range cfg.Skeletons {
			fmt.Printf("  %-10s %s\n", platform, path)
		}
	},
}

func init() {
	setSkeletonCmd.Flags().StringP("platform", "p", "", "Platform family (esxi, vm, ubuntu, windows)")
	setSkeletonCmd.Flags().String("path", "", "Path to the CKLB skeleton JSON")

	setEngineCmd.Flags().String("playbook", "", "Playbook path")
	setEngineCmd.Flags().String("inventory", "", "Inventory path")

	configCmd.AddCommand(setSkeletonCmd)
	configCmd.AddCommand(setEngineCmd)
	configCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(configCmd)
}
