// Package mirror copies a selection of files from a source tree into an
// output tree, preserving their relative layout, permissions and
// modification times.
package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/logging"
	"github.com/conneroisu/mimic/internal/selector"
)

// Result summarizes a mirror pass.
type Result struct {
	Copied  int
	Skipped int
	Failed  []string
}

// Mirror materializes output trees.
type Mirror struct {
	logger logging.Logger
	errors *errors.ErrorCollector
}

// New creates a mirror. Per-file failures are reported to collector when
// it is non-nil.
func New(logger logging.Logger, collector *errors.ErrorCollector) *Mirror {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Mirror{
		logger: logger.WithComponent("mirror"),
		errors: collector,
	}
}

// Mirror copies every source file to the same relative location under
// outputRoot. Existing files are always overwritten. Files that already
// live under outputRoot are skipped. Individual failures are logged and
// skipped; only failing to create outputRoot is returned as an error.
func (m *Mirror) Mirror(ctx context.Context, sourceFiles []string, sourceRoot, outputRoot string) (Result, error) {
	var result Result

	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return result, errors.TargetIOError("create output root", outputRoot, err)
	}

	for _, src := range sourceFiles {
		if selector.Within(src, outputRoot) {
			result.Skipped++
			continue
		}

		rel, err := filepath.Rel(sourceRoot, src)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			if err == nil {
				err = fmt.Errorf("%s is outside %s", src, sourceRoot)
			}
			m.fail(ctx, &result, "resolve", src, err)
			continue
		}

		dst := filepath.Join(outputRoot, rel)
		if err := copyFile(src, dst); err != nil {
			m.fail(ctx, &result, "copy", src, err)
			continue
		}
		result.Copied++
		m.logger.Debug(ctx, "Mirrored file", "source", src, "destination", dst)
	}

	m.logger.Info(ctx, "Output tree mirrored",
		"output", outputRoot,
		"copied", result.Copied,
		"skipped", result.Skipped,
		"failed", len(result.Failed))

	return result, nil
}

func (m *Mirror) fail(ctx context.Context, result *Result, operation, path string, cause error) {
	err := errors.TargetIOError(operation, path, cause)
	result.Failed = append(result.Failed, path)
	if m.errors != nil {
		m.errors.AddError(err)
	}
	m.logger.Warn(ctx, err, "Skipping file", "path", path, "outcome", "error")
}

// copyFile copies src to dst, creating parent directories, and carries
// over the permission bits and modification time.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
