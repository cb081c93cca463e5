package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/mimic/internal/config"
	"github.com/conneroisu/mimic/internal/logging"
	"github.com/conneroisu/mimic/internal/propagate"
	"github.com/conneroisu/mimic/internal/vcs"
)

var runCmd = &cobra.Command{
	Use:     "run",
	Aliases: []string{"r"},
	Short:   "Propagate templates into target files",
	Long: `Propagate every template of the input folder into the tagged regions of
the target files.

In copy mode (the default) the workspace's target files are first
mirrored into the output folder and only the copies are updated. With
--in-place the workspace files themselves are updated.

Examples:
  mimic run --input templates --output dist
  mimic run --input templates --in-place --ext md,txt
  mimic run --input templates --in-place --dry-run -f json
  mimic run --input templates --in-place --commit`,
	RunE: runPropagate,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPropagate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	report, err := propagate.NewRunner(cfg, logger).Run(ctx)
	if err != nil {
		return err
	}

	if err := publish(ctx, cfg, logger, report); err != nil {
		return err
	}

	if outputFlags.Quiet {
		return nil
	}
	return writeReport(cmd.OutOrStdout(), report, outputFlags.OutputFormat)
}

// publish commits and pushes the modified files when git integration is
// enabled.
func publish(ctx context.Context, cfg *config.Config, logger logging.Logger, report *propagate.Report) error {
	if !cfg.Git.Enabled || cfg.DryRun || report.FilesModified == 0 {
		return nil
	}
	git := vcs.New(cfg.WorkspacePath(), cfg.Git.Username, cfg.Git.Email, cfg.Git.BranchName, logger)
	return git.Publish(ctx, report.Modified, report.CommitMessage)
}

func writeReport(w io.Writer, report *propagate.Report, format string) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	case "", "table":
		return writeReportTable(w, report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeReportTable(w io.Writer, report *propagate.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEMPLATE\tMODIFIED\tUNCHANGED\tNOT FOUND\tMALFORMED\tFAILED")
	for _, t := range report.Templates {
		if t.Skipped != "" {
			fmt.Fprintf(tw, "%s\tskipped (%s)\t\t\t\t\n", t.Name, t.Skipped)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n",
			t.Name, len(t.Modified), t.Unchanged, t.NotFound, t.Malformed, t.Failed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	verb := "modified"
	if report.DryRun {
		verb = "would be modified"
	}
	_, err := fmt.Fprintf(w, "\n%d template(s) processed, %d file(s) %s\n",
		report.TemplatesProcessed, report.FilesModified, verb)
	return err
}
