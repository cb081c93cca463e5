package propagate

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/conneroisu/mimic/internal/config"
	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/logging"
	"github.com/conneroisu/mimic/internal/mirror"
	"github.com/conneroisu/mimic/internal/region"
	"github.com/conneroisu/mimic/internal/selector"
	"github.com/conneroisu/mimic/internal/tags"
	"github.com/conneroisu/mimic/internal/vcs"
)

// Runner executes the full pipeline of one run: load templates, mirror
// the workspace in copy mode, then propagate.
type Runner struct {
	config *config.Config
	logger logging.Logger
	store  Store
	errors *errors.ErrorCollector
}

// NewRunner creates a runner for a validated configuration.
func NewRunner(cfg *config.Config, logger logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Runner{
		config: cfg,
		logger: logger,
		store:  FileStore{},
		errors: errors.NewErrorCollector(),
	}
}

// WithStore replaces the file store.
func (r *Runner) WithStore(store Store) *Runner {
	r.store = store
	return r
}

// Errors returns the recoverable errors of the last run.
func (r *Runner) Errors() *errors.ErrorCollector {
	return r.errors
}

// TargetSelector returns the selector used for targets and for the
// mirror's source files.
func (r *Runner) TargetSelector() *selector.Selector {
	return selector.New(r.config.FileExts, r.config.ExcludePaths(), r.logger)
}

// Run executes one propagation run. Only fatal errors are returned; all
// per-template and per-target failures are in the report and in Errors.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	cfg := r.config
	op := logging.StartOperation(r.logger, "propagate")
	r.errors.Clear()

	templates, err := r.LoadTemplates(ctx)
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}

	targetRoot := cfg.TargetRoot()
	if cfg.CopyMode() {
		if cfg.DryRun {
			// Nothing is mirrored in a dry run; the sources stand in for
			// their mirrored copies.
			targetRoot = cfg.WorkspacePath()
		} else if err := r.mirror(ctx); err != nil {
			op.EndWithError(ctx, err)
			return nil, err
		}
	}

	targets := r.TargetSelector()
	r.logger.Debug(ctx, "Propagating", "root", targetRoot, "extensions", targets.Extensions(), "templates", len(templates))

	propagator := NewPropagator(Options{
		Engine:   region.Engine{CaseInsensitive: cfg.CaseInsensitive},
		Selector: targets,
		Store:    r.store,
		Logger:   r.logger,
		Errors:   r.errors,
		DryRun:   cfg.DryRun,
	})
	report := propagator.Propagate(ctx, templates, targetRoot)
	report.CommitMessage = vcs.CommitMessage(cfg.Git.CommitMessage, cfg.Git.SkipCI)

	if cfg.CopyMode() && !cfg.DryRun {
		r.logTree(ctx, targetRoot)
	}

	r.logFailures(ctx)

	op.End(ctx,
		"templates", report.TemplatesProcessed,
		"files_modified", report.FilesModified,
		"errors", r.errors.Count())

	return report, nil
}

// LoadTemplates selects and reads the templates of the input folder. A
// missing input folder or an invalid tag format is fatal; a template that
// cannot be named or read is skipped.
func (r *Runner) LoadTemplates(ctx context.Context) ([]Template, error) {
	cfg := r.config

	deriver, err := tags.NewDeriver(cfg.Tags)
	if err != nil {
		return nil, err
	}
	format := deriver.Format()
	r.logger.Debug(ctx, "Loading templates", "input", cfg.InputPath(), "start_format", format.Start, "end_format", format.End)

	paths, err := selector.New([]string{cfg.TemplateExt}, nil, r.logger).Select(cfg.InputPath())
	if err != nil {
		return nil, err
	}

	templates := make([]Template, 0, len(paths))
	for _, path := range paths {
		name := tags.Identifier(path, cfg.TemplateExt)
		pair, err := deriver.Derive(name)
		if err != nil {
			r.errors.AddError(err)
			r.logger.Warn(ctx, err, "Skipping template", "path", path)
			continue
		}

		content, err := r.store.ReadFile(path)
		if err != nil {
			readErr := errors.TemplateReadError(name, path, err)
			r.errors.AddError(readErr)
			r.logger.Warn(ctx, readErr, "Skipping template", "template", name, "path", path, "outcome", outcomeError)
			continue
		}
		if cfg.TrimTemplateNewline {
			content = trimNewline(content)
		}

		templates = append(templates, Template{Name: name, Path: path, Content: content, Pair: pair})
	}

	if len(templates) == 0 {
		r.logger.Info(ctx, "No templates found", "input", cfg.InputPath(), "extension", cfg.TemplateExt)
	}

	return templates, nil
}

// mirror copies the workspace's target files into the output tree. It
// completes before any template is applied.
func (r *Runner) mirror(ctx context.Context) error {
	cfg := r.config
	sources, err := r.TargetSelector().Select(cfg.WorkspacePath())
	if err != nil {
		return err
	}
	_, err = mirror.New(r.logger, r.errors).Mirror(ctx, sources, cfg.WorkspacePath(), cfg.OutputPath())
	return err
}

// logFailures reports each failed file once with the root cause of its
// first error, then a summary of the run's errors.
func (r *Runner) logFailures(ctx context.Context) {
	if !r.errors.HasErrors() {
		return
	}

	recoverable := 0
	seen := make(map[string]bool)
	for _, err := range r.errors.GetErrors() {
		if errors.IsRecoverable(err) {
			recoverable++
		}
		me, ok := err.(*errors.MimicError)
		if !ok || me.FilePath == "" || seen[me.FilePath] {
			continue
		}
		seen[me.FilePath] = true
		fileErrors := r.errors.GetErrorsByFile(me.FilePath)
		r.logger.Debug(ctx, "File failed",
			"path", me.FilePath,
			"errors", len(fileErrors),
			"cause", errors.GetRootCause(fileErrors[0]).Error())
	}

	r.logger.Warn(ctx, nil, "Run finished with errors",
		"errors", r.errors.Count(),
		"recoverable", recoverable,
		"files", len(seen))
}

// logTree lists the files of root at debug level.
func (r *Runner) logTree(ctx context.Context, root string) {
	logger := r.logger.WithComponent("output")
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		logger.Debug(ctx, "Output file", "path", path, "size", info.Size())
		return nil
	})
}

// trimNewline drops one trailing line break.
func trimNewline(content string) string {
	if !strings.HasSuffix(content, "\n") {
		return content
	}
	return strings.TrimSuffix(strings.TrimSuffix(content, "\n"), "\r")
}
