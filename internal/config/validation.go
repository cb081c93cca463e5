package config

import (
	"path/filepath"

	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/logging"
	"github.com/conneroisu/mimic/internal/selector"
)

// validateConfig checks the settings a run cannot start without. It runs
// before any file I/O.
func validateConfig(config *Config) error {
	if config.InputFolder == "" {
		return errors.ConfigurationError(KeyInputFolder, "is required", config.InputFolder)
	}

	if config.CopyMode() {
		if err := validateOutputFolder(config); err != nil {
			return err
		}
	}

	if len(config.FileExts) == 0 {
		return errors.ConfigurationError(KeyFileExts, "at least one extension is required", config.FileExts)
	}

	if config.TemplateExt == "" {
		return errors.ConfigurationError(KeyTemplateExt, "is required", config.TemplateExt)
	}

	if err := config.Tags.Validate(); err != nil {
		return err
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return errors.ConfigurationError(KeyLogLevel, err.Error(), config.Log.Level)
	}

	switch config.Log.Format {
	case "", "text", "json":
	default:
		return errors.ConfigurationError(KeyLogFormat, "must be text or json", config.Log.Format)
	}

	return nil
}

// validateOutputFolder rejects copy-mode output trees that would overlay
// the workspace itself.
func validateOutputFolder(config *Config) error {
	if config.OutputFolder == "" {
		return errors.ConfigurationError(KeyOutputFolder, "is required unless overwrite_original is set", config.OutputFolder)
	}

	output, err := filepath.Abs(config.OutputPath())
	if err != nil {
		return errors.ConfigurationError(KeyOutputFolder, err.Error(), config.OutputFolder)
	}
	workspace, err := filepath.Abs(config.WorkspacePath())
	if err != nil {
		return errors.ConfigurationError(KeyWorkspace, err.Error(), config.Workspace)
	}
	if output == workspace {
		return errors.ConfigurationError(KeyOutputFolder, "must differ from the workspace; set overwrite_original to write in place", config.OutputFolder)
	}
	if selector.Within(workspace, output) {
		return errors.ConfigurationError(KeyOutputFolder, "must not contain the workspace", config.OutputFolder)
	}

	return nil
}
