package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/mimic/internal/config"
)

// Output formats accepted by --format.
var outputFormats = []string{"table", "json", "yaml"}

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Propagation flags
	Input           string   `flag:"input,i" desc:"Template folder"`
	Output          string   `flag:"output,o" desc:"Output folder (copy mode)"`
	InPlace         bool     `flag:"in-place" desc:"Overwrite targets in place"`
	Extensions      []string `flag:"ext,e" desc:"Target file extensions"`
	Workspace       string   `flag:"workspace,w" desc:"Workspace root"`
	CaseInsensitive bool     `flag:"case-insensitive" desc:"Match tags case-insensitively"`
	DryRun          bool     `flag:"dry-run" desc:"Report changes without writing"`
	Commit          bool     `flag:"commit" desc:"Commit and push modified files"`

	// Output flags
	OutputFormat string `flag:"format,f" desc:"Output format (table|json|yaml)" default:"table"`
	Quiet        bool   `flag:"quiet,q" desc:"Suppress the report" default:"false"`
}

// flagBindings maps flag names to configuration keys.
var flagBindings = map[string]string{
	"input":            config.KeyInputFolder,
	"output":           config.KeyOutputFolder,
	"in-place":         config.KeyOverwriteOriginal,
	"ext":              config.KeyFileExts,
	"workspace":        config.KeyWorkspace,
	"case-insensitive": config.KeyCaseInsensitive,
	"dry-run":          config.KeyDryRun,
	"commit":           config.KeyGitEnabled,
	"log-level":        config.KeyLogLevel,
	"log-format":       config.KeyLogFormat,
}

// AddStandardFlags adds the named flag groups to flags.
func AddStandardFlags(flags *pflag.FlagSet, flagTypes ...string) *StandardFlags {
	sf := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "propagation":
			addPropagationFlags(flags, sf)
		case "output":
			addOutputFlags(flags, sf)
		}
	}

	return sf
}

func addPropagationFlags(flags *pflag.FlagSet, sf *StandardFlags) {
	flags.StringVarP(&sf.Input, "input", "i", "", "Template folder (input_folder)")
	flags.StringVarP(&sf.Output, "output", "o", "", "Output folder for copy mode (output_folder)")
	flags.BoolVar(&sf.InPlace, "in-place", false, "Overwrite targets in place (overwrite_original)")
	flags.StringSliceVarP(&sf.Extensions, "ext", "e", nil, "Target file extensions (file_exts)")
	flags.StringVarP(&sf.Workspace, "workspace", "w", "", "Workspace root (workspace)")
	flags.BoolVar(&sf.CaseInsensitive, "case-insensitive", false, "Match tags case-insensitively")
	flags.BoolVar(&sf.DryRun, "dry-run", false, "Report changes without writing")
	flags.BoolVar(&sf.Commit, "commit", false, "Commit and push modified files")
}

func addOutputFlags(flags *pflag.FlagSet, sf *StandardFlags) {
	flags.StringVarP(&sf.OutputFormat, "format", "f", "table", "Output format (table|json|yaml)")
	flags.BoolVarP(&sf.Quiet, "quiet", "q", false, "Suppress the report")
}

// ValidateFlags validates flag combinations and values
func (f *StandardFlags) ValidateFlags() error {
	if f.OutputFormat != "" {
		if err := ValidateChoice("format", f.OutputFormat, outputFormats); err != nil {
			return err
		}
	}

	if f.InPlace && f.Output != "" {
		return fmt.Errorf("cannot specify both --in-place and --output")
	}

	return nil
}

// SetViperBindings binds every flag in flags that has a configuration key
// to viper.
func SetViperBindings(flags *pflag.FlagSet, bindings map[string]string) error {
	for flagName, configKey := range bindings {
		flag := flags.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(configKey, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", flagName, err)
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(flags *pflag.FlagSet, flagName string, validator func(string) error) {
	flag := flags.Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateChoice rejects values outside choices.
func ValidateChoice(name, value string, choices []string) error {
	if slices.Contains(choices, strings.ToLower(value)) {
		return nil
	}
	return fmt.Errorf("invalid %s %q, must be one of: %s", name, value, strings.Join(choices, ", "))
}

// ValidateExtension rejects extensions that cannot match a file name.
func ValidateExtension(value string) error {
	for _, ext := range strings.Split(value, ",") {
		ext = strings.TrimSpace(ext)
		if strings.ContainsAny(ext, `/\`) || strings.Count(ext, ".") > 1 {
			return fmt.Errorf("invalid extension %q", ext)
		}
	}
	return nil
}
