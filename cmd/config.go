package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/mimic/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect mimic configuration",
	Long: `Inspect the configuration mimic resolves from flags, environment
variables, the configuration file and defaults.

Examples:
  mimic config show                  # Show the resolved configuration
  mimic config show -f json          # Show it as JSON
  mimic config validate              # Check the configuration only`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load and validate the configuration without touching any file.

Reports the first setting that prevents a run, such as a missing
input_folder or an output_folder equal to the workspace.`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long: `Display the configuration after loading the configuration file,
applying environment variables and flags, and setting defaults.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	mode := "copy"
	if !cfg.CopyMode() {
		mode = "in-place"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%s mode, targets under %s)\n", mode, cfg.TargetRoot())
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFlags.OutputFormat == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	}

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return err
	}
	return encoder.Close()
}
