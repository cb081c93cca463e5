// Package config provides configuration management for mimic using Viper
// for loading from files, environment variables and command-line flags.
//
// Every option can be set in `.mimic.yml`, through a MIMIC_<OPTION>
// environment variable, or through the GitHub Actions form
// INPUT_<OPTION>. Flags bound by the cmd package take precedence over all
// of them.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/mimic/internal/selector"
	"github.com/conneroisu/mimic/internal/tags"
)

// Configuration keys.
const (
	KeyWorkspace           = "workspace"
	KeyInputFolder         = "input_folder"
	KeyOutputFolder        = "output_folder"
	KeyOverwriteOriginal   = "overwrite_original"
	KeyFileExts            = "file_exts"
	KeyTemplateExt         = "template_ext"
	KeyExcludeDirs         = "exclude_dirs"
	KeyCaseInsensitive     = "case_insensitive"
	KeyTrimTemplateNewline = "trim_template_newline"
	KeyDryRun              = "dry_run"
	KeyTagStart            = "tag_start"
	KeyTagEnd              = "tag_end"
	KeyGitEnabled          = "git_enabled"
	KeyBranchName          = "branch_name"
	KeyCommitMessage       = "commit_message"
	KeySkipCI              = "skip_ci"
	KeyGitUsername         = "git_username"
	KeyGitEmail            = "git_email"
	KeyLogLevel            = "log_level"
	KeyLogFormat           = "log_format"
)

// Defaults.
const (
	DefaultFileExt       = "md"
	DefaultTemplateExt   = ".mimic"
	DefaultCommitMessage = "🤖 - Updated via Markdown Mimic"
	DefaultSkipCI        = "yes"
	DefaultGitUsername   = "github-actions[bot]"
	DefaultGitEmail      = "github-actions[bot]@users.noreply.github.com"
)

// Config is the resolved configuration of one propagation run.
type Config struct {
	Workspace         string   `yaml:"workspace" json:"workspace"`
	InputFolder       string   `yaml:"input_folder" json:"input_folder"`
	OutputFolder      string   `yaml:"output_folder" json:"output_folder"`
	OverwriteOriginal bool     `yaml:"overwrite_original" json:"overwrite_original"`
	FileExts          []string `yaml:"file_exts" json:"file_exts"`
	TemplateExt       string   `yaml:"template_ext" json:"template_ext"`
	ExcludeDirs       []string `yaml:"exclude_dirs" json:"exclude_dirs"`
	CaseInsensitive   bool     `yaml:"case_insensitive" json:"case_insensitive"`
	// TrimTemplateNewline drops one trailing newline from template content
	// so a template saved by an editor does not add a blank line before
	// the end tag.
	TrimTemplateNewline bool        `yaml:"trim_template_newline" json:"trim_template_newline"`
	DryRun              bool        `yaml:"dry_run" json:"dry_run"`
	Tags                tags.Format `yaml:"tags" json:"tags"`
	Git                 GitConfig   `yaml:"git" json:"git"`
	Log                 LogConfig   `yaml:"log" json:"log"`
}

// GitConfig is consumed only by the VCS collaborator.
type GitConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	BranchName    string `yaml:"branch_name" json:"branch_name"`
	CommitMessage string `yaml:"commit_message" json:"commit_message"`
	SkipCI        bool   `yaml:"skip_ci" json:"skip_ci"`
	Username      string `yaml:"username" json:"username"`
	Email         string `yaml:"email" json:"email"`
}

// LogConfig selects the logger level and handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// envAliases lists extra environment variables per key beyond the
// MIMIC_ and INPUT_ forms.
var envAliases = map[string][]string{
	KeyFileExts: {"INPUT_FILE_EXT"},
}

// SetDefaults registers default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault(KeyWorkspace, ".")
	viper.SetDefault(KeyOverwriteOriginal, false)
	viper.SetDefault(KeyFileExts, []string{DefaultFileExt})
	viper.SetDefault(KeyTemplateExt, DefaultTemplateExt)
	viper.SetDefault(KeyExcludeDirs, []string{".git"})
	viper.SetDefault(KeyCaseInsensitive, false)
	viper.SetDefault(KeyTrimTemplateNewline, true)
	viper.SetDefault(KeyDryRun, false)
	viper.SetDefault(KeyTagStart, tags.DefaultStartFormat)
	viper.SetDefault(KeyTagEnd, tags.DefaultEndFormat)
	viper.SetDefault(KeyGitEnabled, false)
	viper.SetDefault(KeyCommitMessage, DefaultCommitMessage)
	viper.SetDefault(KeySkipCI, DefaultSkipCI)
	viper.SetDefault(KeyGitUsername, DefaultGitUsername)
	viper.SetDefault(KeyGitEmail, DefaultGitEmail)
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyLogFormat, "text")
}

// BindEnv binds every key to MIMIC_<KEY> and INPUT_<KEY>.
func BindEnv() {
	for _, key := range allKeys() {
		upper := strings.ToUpper(key)
		names := append([]string{key, "MIMIC_" + upper, "INPUT_" + upper}, envAliases[key]...)
		_ = viper.BindEnv(names...)
	}
}

func allKeys() []string {
	return []string{
		KeyWorkspace, KeyInputFolder, KeyOutputFolder, KeyOverwriteOriginal,
		KeyFileExts, KeyTemplateExt, KeyExcludeDirs, KeyCaseInsensitive,
		KeyTrimTemplateNewline, KeyDryRun, KeyTagStart, KeyTagEnd,
		KeyGitEnabled, KeyBranchName, KeyCommitMessage, KeySkipCI,
		KeyGitUsername, KeyGitEmail, KeyLogLevel, KeyLogFormat,
	}
}

// Load reads the configuration from viper, applies defaults, normalizes
// and validates it. A validation failure is a ConfigurationError.
func Load() (*Config, error) {
	SetDefaults()
	BindEnv()

	cfg := &Config{
		Workspace:           cleanFolder(viper.GetString(KeyWorkspace)),
		InputFolder:         cleanFolder(viper.GetString(KeyInputFolder)),
		OutputFolder:        cleanFolder(viper.GetString(KeyOutputFolder)),
		OverwriteOriginal:   ParseBool(viper.GetString(KeyOverwriteOriginal)),
		FileExts:            normalizeExtensions(viper.GetStringSlice(KeyFileExts)),
		TemplateExt:         selector.NormalizeExtension(viper.GetString(KeyTemplateExt)),
		ExcludeDirs:         splitList(viper.GetStringSlice(KeyExcludeDirs)),
		CaseInsensitive:     ParseBool(viper.GetString(KeyCaseInsensitive)),
		TrimTemplateNewline: ParseBool(viper.GetString(KeyTrimTemplateNewline)),
		DryRun:              ParseBool(viper.GetString(KeyDryRun)),
		Tags: tags.Format{
			Start: viper.GetString(KeyTagStart),
			End:   viper.GetString(KeyTagEnd),
		},
		Git: GitConfig{
			Enabled:       ParseBool(viper.GetString(KeyGitEnabled)),
			BranchName:    strings.TrimSpace(viper.GetString(KeyBranchName)),
			CommitMessage: viper.GetString(KeyCommitMessage),
			SkipCI:        ParseBool(viper.GetString(KeySkipCI)),
			Username:      viper.GetString(KeyGitUsername),
			Email:         viper.GetString(KeyGitEmail),
		},
		Log: LogConfig{
			Level:  viper.GetString(KeyLogLevel),
			Format: viper.GetString(KeyLogFormat),
		},
	}

	if cfg.Workspace == "" {
		cfg.Workspace = "."
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadTagFormat returns the configured tag format without requiring the
// rest of the configuration to be valid.
func LoadTagFormat() tags.Format {
	SetDefaults()
	BindEnv()
	return tags.Format{
		Start: viper.GetString(KeyTagStart),
		End:   viper.GetString(KeyTagEnd),
	}
}

// LoadTemplateExt returns the configured, normalized template extension.
func LoadTemplateExt() string {
	SetDefaults()
	BindEnv()
	return selector.NormalizeExtension(viper.GetString(KeyTemplateExt))
}

// ParseBool accepts the spellings used by action inputs: yes/no, true/false,
// on/off, 1/0. Anything else is false.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "true", "t", "on", "1":
		return true
	default:
		return false
	}
}

// WorkspacePath returns the workspace root.
func (c *Config) WorkspacePath() string {
	return filepath.Clean(c.Workspace)
}

// InputPath returns the template folder resolved against the workspace.
func (c *Config) InputPath() string {
	return c.resolve(c.InputFolder)
}

// OutputPath returns the output folder resolved against the workspace.
// It is empty in in-place mode without an output folder.
func (c *Config) OutputPath() string {
	if c.OutputFolder == "" {
		return ""
	}
	return c.resolve(c.OutputFolder)
}

// CopyMode reports whether targets are mirrored into a separate tree.
func (c *Config) CopyMode() bool {
	return !c.OverwriteOriginal
}

// TargetRoot returns the tree that is scanned for targets: the output
// tree in copy mode, the workspace otherwise.
func (c *Config) TargetRoot() string {
	if c.CopyMode() {
		return c.OutputPath()
	}
	return c.WorkspacePath()
}

// ExcludePaths returns the excluded directories resolved against the
// workspace. In copy mode the output tree is always excluded so mirrored
// files are never mirrored again.
func (c *Config) ExcludePaths() []string {
	paths := make([]string, 0, len(c.ExcludeDirs)+1)
	for _, dir := range c.ExcludeDirs {
		paths = append(paths, c.resolve(dir))
	}
	if c.CopyMode() && c.OutputFolder != "" {
		paths = append(paths, c.OutputPath())
	}
	return paths
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.WorkspacePath(), path)
}

// cleanFolder trims whitespace and trailing separators, keeping a bare
// root intact.
func cleanFolder(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	trimmed := strings.TrimRight(path, "/"+string(os.PathSeparator))
	if trimmed == "" {
		return string(os.PathSeparator)
	}
	return trimmed
}

// splitList flattens entries that carry comma-separated values, as
// environment variables and action inputs do.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func normalizeExtensions(values []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(values))
	for _, value := range splitList(values) {
		ext := selector.NormalizeExtension(value)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
