package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/mimic/internal/config"
	"github.com/conneroisu/mimic/internal/logging"
	"github.com/conneroisu/mimic/internal/propagate"
	"github.com/conneroisu/mimic/internal/region"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List templates and the files that carry their tags",
	Long: `List every template of the input folder with its tag pair and the
workspace files that contain a region for it. Nothing is written.

Examples:
  mimic list --input templates
  mimic list --input templates -f yaml`,
	RunE: runList,
}

var listTargets bool

// templateListing is one row of the list output.
type templateListing struct {
	Name    string   `json:"name" yaml:"name"`
	Path    string   `json:"path" yaml:"path"`
	Start   string   `json:"start" yaml:"start"`
	End     string   `json:"end" yaml:"end"`
	Targets []string `json:"targets" yaml:"targets"`
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVarP(&listTargets, "targets", "t", true, "Scan the workspace for files carrying each template's tags")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	listings, err := collectListings(cmd, cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(listings) == 0 {
		fmt.Fprintln(out, "No templates found.")
		return nil
	}

	switch strings.ToLower(outputFlags.OutputFormat) {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(listings)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(listings); err != nil {
			return err
		}
		return encoder.Close()
	case "", "table":
		return outputListTable(out, cfg, listings)
	default:
		return fmt.Errorf("unsupported format: %s", outputFlags.OutputFormat)
	}
}

func collectListings(cmd *cobra.Command, cfg *config.Config, logger logging.Logger) ([]templateListing, error) {
	ctx := commandContext(cmd)
	runner := propagate.NewRunner(cfg, logger)

	templates, err := runner.LoadTemplates(ctx)
	if err != nil {
		return nil, err
	}

	var targets []string
	if listTargets {
		// Targets are listed from the workspace, the mirror's source.
		targets, err = runner.TargetSelector().Select(cfg.WorkspacePath())
		if err != nil {
			return nil, err
		}
	}

	store := propagate.FileStore{}
	engine := region.Engine{CaseInsensitive: cfg.CaseInsensitive}
	contents := make(map[string]string, len(targets))
	for _, target := range targets {
		content, err := store.ReadFile(target)
		if err != nil {
			logger.Warn(ctx, err, "Skipping unreadable target", "path", target)
			continue
		}
		contents[target] = content
	}

	listings := make([]templateListing, 0, len(templates))
	for _, tmpl := range templates {
		listing := templateListing{
			Name:    tmpl.Name,
			Path:    tmpl.Path,
			Start:   tmpl.Pair.Start,
			End:     tmpl.Pair.End,
			Targets: []string{},
		}
		for _, target := range targets {
			content, ok := contents[target]
			if ok && engine.Contains(content, tmpl.Pair) {
				listing.Targets = append(listing.Targets, target)
			}
		}
		listings = append(listings, listing)
	}

	return listings, nil
}

func outputListTable(w io.Writer, cfg *config.Config, listings []templateListing) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEMPLATE\tSTART TAG\tTARGETS")
	for _, l := range listings {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", l.Name, l.Start, len(l.Targets))
		for _, target := range l.Targets {
			fmt.Fprintf(tw, "\t\t%s\n", relativeTo(cfg.WorkspacePath(), target))
		}
	}
	return tw.Flush()
}

func relativeTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
