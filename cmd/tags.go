package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mimic/internal/config"
	"github.com/conneroisu/mimic/internal/tags"
)

var tagsCmd = &cobra.Command{
	Use:   "tags NAME...",
	Short: "Print the tag pair of template names",
	Long: `Print the start and end tags that a template with the given name owns.
Names are template identifiers (HEADER) or template file names
(HEADER.mimic).

Examples:
  mimic tags HEADER
  mimic tags templates/grey-fox.mimic`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	deriver, err := tags.NewDeriver(config.LoadTagFormat())
	if err != nil {
		return err
	}
	templateExt := config.LoadTemplateExt()

	out := cmd.OutOrStdout()
	for i, arg := range args {
		name := arg
		if strings.HasSuffix(arg, templateExt) {
			name = tags.Identifier(arg, templateExt)
		}
		pair, err := deriver.Derive(name)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, pair.Start)
		fmt.Fprintln(out, pair.End)
	}
	return nil
}
