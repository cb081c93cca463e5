//go:build property
// +build property

package config

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/mimic/internal/tags"
)

// TestConfigurationProperties tests configuration normalization and
// validation properties
func TestConfigurationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: normalized extensions always carry a single leading dot
	properties.Property("extension normalization", prop.ForAll(
		func(exts []string) bool {
			for _, ext := range normalizeExtensions(exts) {
				if !strings.HasPrefix(ext, ".") || strings.HasPrefix(ext, "..") || strings.Contains(ext, ",") {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.RegexMatch(`^\.?[a-z]{0,5}(,[a-z]{1,3})?$`)),
	))

	// Property: normalization is idempotent
	properties.Property("extension normalization idempotency", prop.ForAll(
		func(exts []string) bool {
			once := normalizeExtensions(exts)
			twice := normalizeExtensions(once)
			if len(once) != len(twice) {
				return false
			}
			for i := range once {
				if once[i] != twice[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.RegexMatch(`^[a-z.]{0,6}$`)),
	))

	// Property: a config with input, output and extensions always validates
	properties.Property("valid config", prop.ForAll(
		func(input, output string) bool {
			cfg := &Config{
				Workspace:    ".",
				InputFolder:  input,
				OutputFolder: output,
				FileExts:     []string{".md"},
				TemplateExt:  ".mimic",
				Tags:         tags.DefaultFormat(),
				Log:          LogConfig{Level: "info", Format: "text"},
			}
			return validateConfig(cfg) == nil
		},
		gen.RegexMatch(`^[a-z]{1,8}$`),
		gen.RegexMatch(`^[a-z]{1,8}$`),
	))

	properties.TestingRun(t)
}
