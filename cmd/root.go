// Package cmd provides the command-line interface for mimic with
// configuration drawn from several sources.
//
// Configuration System:
//
//	Settings are resolved with this precedence:
//	1. Command-line flags (--input, --output, ...) - highest priority
//	2. MIMIC_<OPTION> environment variables
//	3. INPUT_<OPTION> environment variables (GitHub Actions inputs)
//	4. Configuration file (.mimic.yml, --config or MIMIC_CONFIG_FILE)
//	5. Defaults - lowest priority
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/mimic/internal/config"
	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/logging"
)

var (
	cfgFile     string
	runFlags    *StandardFlags
	outputFlags *StandardFlags
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mimic",
	Short: "Propagate template content into tagged regions of files",
	Long: `Mimic keeps repeated blocks of text in sync across a repository.

Each template file (HEADER.mimic) owns a pair of tags. Every target file
containing

  <!--MIMIC_HEADER_START-->
  ...
  <!--MIMIC_HEADER_END-->

has the text between the tags replaced by the template's content. Files
without the tags are never touched, and files already up to date are not
rewritten.

Running mimic without a subcommand is the same as "mimic run".

Quick Start:
  mimic --input templates --in-place     Update files in the workspace
  mimic --input templates --output dist  Write updated copies to dist/
  mimic list                             Show templates and their targets
  mimic tags HEADER                      Print the tags of a template
  mimic watch                            Re-run when templates change`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPropagate,
}

// Execute adds all child commands to the root command and runs it. A
// fatal error is printed as a single line.
func Execute() error {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprint(os.Stderr, failureMessage(err))
		return err
	}
	return nil
}

// failureMessage formats a fatal error for stderr. Configuration errors
// point at the command that checks the effective settings.
func failureMessage(err error) string {
	msg := fmt.Sprintf("mimic: %v\n", err)
	if errors.HasErrorType(err, errors.ErrorTypeConfig) {
		msg += "run 'mimic config validate' to check the effective configuration\n"
	}
	return msg
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .mimic.yml, can also use MIMIC_CONFIG_FILE env var)")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")

	runFlags = AddStandardFlags(flags, "propagation")
	outputFlags = AddStandardFlags(flags, "output")

	AddFlagValidation(flags, "ext", ValidateExtension)
	AddFlagValidation(flags, "format", func(format string) error {
		return ValidateChoice("format", format, outputFormats)
	})

	if err := SetViperBindings(flags, flagBindings); err != nil {
		panic(err)
	}
}

// initConfig selects the configuration file.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. MIMIC_CONFIG_FILE environment variable
//  3. .mimic.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("MIMIC_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mimic")
	}

	viper.SetEnvPrefix("MIMIC")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// A missing file is fine; defaults and the environment still apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadRuntime loads and validates the configuration and builds the
// logger it selects.
func loadRuntime() (*config.Config, logging.Logger, error) {
	if err := runFlags.ValidateFlags(); err != nil {
		return nil, nil, fmt.Errorf("invalid flags: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	return cfg, newLogger(cfg.Log), nil
}

func newLogger(cfg config.LogConfig) logging.Logger {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Format,
		Output:    os.Stderr,
		AddSource: level == logging.LevelDebug,
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
