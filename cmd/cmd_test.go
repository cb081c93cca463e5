package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mimic/internal/config"
	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/propagate"
)

// resetState clears viper and restores the shared output flags after the
// test.
func resetState(t *testing.T) {
	t.Helper()
	viper.Reset()
	saved := *outputFlags
	t.Cleanup(func() {
		viper.Reset()
		*outputFlags = saved
	})
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	return cmd, buf
}

func setupWorkspace(t *testing.T) string {
	t.Helper()
	ws := t.TempDir()
	files := map[string]string{
		"templates/HEADER.mimic": "Copyright 2024\n",
		"a.md":                   "<!--MIMIC_HEADER_START-->\nold\n<!--MIMIC_HEADER_END-->",
		"b.md":                   "no tags",
	}
	for name, content := range files {
		path := filepath.Join(ws, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	viper.Set(config.KeyWorkspace, ws)
	viper.Set(config.KeyInputFolder, "templates")
	viper.Set(config.KeyOverwriteOriginal, true)
	viper.Set(config.KeyLogLevel, "error")
	return ws
}

func TestCommandTree(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, expected := range []string{"run", "list", "tags", "watch", "version", "config"} {
		assert.True(t, names[expected], "missing command %s", expected)
	}
	assert.NotNil(t, rootCmd.RunE)
}

func TestRunPropagateInPlace(t *testing.T) {
	resetState(t)
	ws := setupWorkspace(t)
	outputFlags.OutputFormat = "json"

	cmd, buf := newTestCommand()
	require.NoError(t, runPropagate(cmd, nil))

	var report propagate.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, 1, report.TemplatesProcessed)
	assert.Equal(t, 1, report.FilesModified)
	assert.Equal(t, []string{filepath.Join(ws, "a.md")}, report.Modified)
	assert.Equal(t, config.DefaultCommitMessage+" [no ci]", report.CommitMessage)

	data, err := os.ReadFile(filepath.Join(ws, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "<!--MIMIC_HEADER_START-->\nCopyright 2024\n<!--MIMIC_HEADER_END-->", string(data))
}

func TestRunPropagateTableReport(t *testing.T) {
	resetState(t)
	setupWorkspace(t)
	viper.Set(config.KeyDryRun, true)

	cmd, buf := newTestCommand()
	require.NoError(t, runPropagate(cmd, nil))

	assert.Contains(t, buf.String(), "TEMPLATE")
	assert.Contains(t, buf.String(), "HEADER")
	assert.Contains(t, buf.String(), "1 template(s) processed, 1 file(s) would be modified")
}

func TestRunPropagateQuiet(t *testing.T) {
	resetState(t)
	setupWorkspace(t)
	outputFlags.Quiet = true

	cmd, buf := newTestCommand()
	require.NoError(t, runPropagate(cmd, nil))
	assert.Empty(t, buf.String())
}

func TestRunPropagateConfigurationError(t *testing.T) {
	resetState(t)

	cmd, _ := newTestCommand()
	err := runPropagate(cmd, nil)
	require.Error(t, err)
	assert.True(t, errors.HasErrorType(err, errors.ErrorTypeConfig))
	assert.Contains(t, failureMessage(err), "mimic config validate")
}

func TestFailureMessage(t *testing.T) {
	plain := errors.InputNotFound("templates", os.ErrNotExist)
	assert.True(t, strings.HasPrefix(failureMessage(plain), "mimic: "))
	assert.NotContains(t, failureMessage(plain), "config validate")

	cfgErr := errors.ConfigurationError(config.KeyInputFolder, "is required", "")
	assert.Contains(t, failureMessage(cfgErr), "run 'mimic config validate'")
}

func TestRunPropagateMissingInput(t *testing.T) {
	resetState(t)
	viper.Set(config.KeyWorkspace, t.TempDir())
	viper.Set(config.KeyInputFolder, "missing")
	viper.Set(config.KeyOverwriteOriginal, true)
	viper.Set(config.KeyLogLevel, "error")

	cmd, _ := newTestCommand()
	err := runPropagate(cmd, nil)
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeInputNotFound))
}

func TestRunList(t *testing.T) {
	resetState(t)
	ws := setupWorkspace(t)
	outputFlags.OutputFormat = "json"

	cmd, buf := newTestCommand()
	require.NoError(t, runList(cmd, nil))

	var listings []templateListing
	require.NoError(t, json.Unmarshal(buf.Bytes(), &listings))
	require.Len(t, listings, 1)
	assert.Equal(t, "HEADER", listings[0].Name)
	assert.Equal(t, "<!--MIMIC_HEADER_START-->", listings[0].Start)
	assert.Equal(t, []string{filepath.Join(ws, "a.md")}, listings[0].Targets)

	// Listing never writes.
	data, err := os.ReadFile(filepath.Join(ws, "a.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "old")
}

func TestRunTags(t *testing.T) {
	resetState(t)

	cmd, buf := newTestCommand()
	require.NoError(t, runTags(cmd, []string{"header", "templates/grey-fox.mimic"}))
	assert.Equal(t,
		"<!--MIMIC_HEADER_START-->\n<!--MIMIC_HEADER_END-->\n\n<!--MIMIC_GREY-FOX_START-->\n<!--MIMIC_GREY-FOX_END-->\n",
		buf.String())
}

func TestRunTagsCustomFormat(t *testing.T) {
	resetState(t)
	viper.Set(config.KeyTagStart, "# BEGIN %s")
	viper.Set(config.KeyTagEnd, "# END %s")

	cmd, buf := newTestCommand()
	require.NoError(t, runTags(cmd, []string{"license"}))
	assert.Equal(t, "# BEGIN LICENSE\n# END LICENSE\n", buf.String())
}

func TestRunTagsRejectsBlankName(t *testing.T) {
	resetState(t)

	cmd, _ := newTestCommand()
	err := runTags(cmd, []string{"  "})
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeInvalidTemplateName))
}

func TestConfigCommands(t *testing.T) {
	resetState(t)
	ws := setupWorkspace(t)

	cmd, buf := newTestCommand()
	require.NoError(t, runConfigValidate(cmd, nil))
	assert.Equal(t, "Configuration is valid (in-place mode, targets under "+ws+")\n", buf.String())

	cmd, buf = newTestCommand()
	require.NoError(t, runConfigShow(cmd, nil))
	assert.Contains(t, buf.String(), "input_folder: templates")
	assert.Contains(t, buf.String(), "overwrite_original: true")
}

func TestWriteReport(t *testing.T) {
	report := &propagate.Report{
		TemplatesProcessed: 1,
		FilesModified:      1,
		Modified:           []string{"a.md"},
		Templates: []propagate.TemplateReport{
			{Name: "HEADER", Modified: []string{"a.md"}, NotFound: 2},
			{Name: "header", Skipped: errors.ErrCodeTagCollision},
		},
	}

	var table bytes.Buffer
	require.NoError(t, writeReport(&table, report, "table"))
	assert.Contains(t, table.String(), "skipped (ERR_TAG_COLLISION)")
	assert.Contains(t, table.String(), "1 template(s) processed, 1 file(s) modified")

	var yamlOut bytes.Buffer
	require.NoError(t, writeReport(&yamlOut, report, "yaml"))
	assert.Contains(t, yamlOut.String(), "files_modified: 1")
	assert.Contains(t, yamlOut.String(), "- a.md")

	assert.Error(t, writeReport(&bytes.Buffer{}, report, "xml"))
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   StandardFlags
		wantErr bool
	}{
		{"defaults", StandardFlags{OutputFormat: "table"}, false},
		{"yaml", StandardFlags{OutputFormat: "yaml"}, false},
		{"unknown format", StandardFlags{OutputFormat: "csv"}, true},
		{"in-place with output", StandardFlags{InPlace: true, Output: "dist"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.flags.ValidateFlags()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFlagValidation(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	sf := AddStandardFlags(flags, "propagation", "output")
	AddFlagValidation(flags, "ext", ValidateExtension)
	AddFlagValidation(flags, "format", func(format string) error {
		return ValidateChoice("format", format, outputFormats)
	})

	require.NoError(t, flags.Parse([]string{"--ext", "md,.txt", "-f", "json"}))
	assert.Equal(t, []string{"md", ".txt"}, sf.Extensions)
	assert.Equal(t, "json", sf.OutputFormat)

	assert.Error(t, flags.Set("format", "xml"))
	assert.Error(t, flags.Set("ext", "docs/md"))
}
