// Package propagate applies templates to the target files of a tree.
//
// Templates are processed one at a time. For each template the target tree
// is walked again, so a template observes every write made by the
// templates before it. A target is written only when its region content
// actually changes; running twice over unchanged inputs writes nothing.
//
// Failures are isolated: a target that cannot be read or written is
// logged and skipped, and the run continues with the next target.
package propagate

import (
	"context"
	"slices"

	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/logging"
	"github.com/conneroisu/mimic/internal/region"
	"github.com/conneroisu/mimic/internal/selector"
	"github.com/conneroisu/mimic/internal/tags"
)

// outcomeError is logged for targets that failed with an I/O error.
const outcomeError = "error"

// Template is a loaded template ready for propagation.
type Template struct {
	// Name is the template identifier (filename stem).
	Name    string
	Path    string
	Content string
	Pair    tags.Pair
}

// TemplateReport holds the per-target outcomes of one template.
type TemplateReport struct {
	Name      string   `json:"name" yaml:"name"`
	Path      string   `json:"path" yaml:"path"`
	Modified  []string `json:"modified" yaml:"modified"`
	Unchanged int      `json:"unchanged" yaml:"unchanged"`
	NotFound  int      `json:"not_found" yaml:"not_found"`
	Malformed int      `json:"malformed" yaml:"malformed"`
	Failed    int      `json:"failed" yaml:"failed"`
	// Skipped is set when the template was not propagated at all.
	Skipped string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Report summarizes a propagation run.
type Report struct {
	TemplatesProcessed int `json:"templates_processed" yaml:"templates_processed"`
	// FilesModified counts distinct target files written (or, in a dry
	// run, that would be written).
	FilesModified int              `json:"files_modified" yaml:"files_modified"`
	Modified      []string         `json:"modified" yaml:"modified"`
	Templates     []TemplateReport `json:"templates" yaml:"templates"`
	CommitMessage string           `json:"commit_message,omitempty" yaml:"commit_message,omitempty"`
	DryRun        bool             `json:"dry_run" yaml:"dry_run"`
}

// Options configures a Propagator.
type Options struct {
	Engine   region.Engine
	Selector *selector.Selector
	Store    Store
	Logger   logging.Logger
	Errors   *errors.ErrorCollector
	// DryRun computes outcomes without writing.
	DryRun bool
}

// Propagator runs templates over a target tree.
type Propagator struct {
	engine   region.Engine
	selector *selector.Selector
	store    Store
	logger   logging.Logger
	errors   *errors.ErrorCollector
	dryRun   bool
}

// NewPropagator creates a propagator. Store defaults to FileStore.
func NewPropagator(opts Options) *Propagator {
	if opts.Store == nil {
		opts.Store = FileStore{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &Propagator{
		engine:   opts.Engine,
		selector: opts.Selector,
		store:    opts.Store,
		logger:   opts.Logger.WithComponent("propagate"),
		errors:   opts.Errors,
		dryRun:   opts.DryRun,
	}
}

// Propagate applies each template, in order, to every target under
// targetRoot. Two templates that derive the same tag pair collide; the
// later one is skipped.
func (p *Propagator) Propagate(ctx context.Context, templates []Template, targetRoot string) *Report {
	report := &Report{DryRun: p.dryRun}
	owners := make(map[string]string, len(templates))
	modified := make(map[string]struct{})

	for _, tmpl := range templates {
		if owner, ok := owners[tmpl.Pair.Start]; ok {
			err := errors.TagCollision(tmpl.Name, owner, tmpl.Path)
			p.collect(err)
			p.logger.Warn(ctx, err, "Skipping template", "template", tmpl.Name, "pair", tmpl.Pair.String())
			report.Templates = append(report.Templates, TemplateReport{
				Name:    tmpl.Name,
				Path:    tmpl.Path,
				Skipped: errors.ErrCodeTagCollision,
			})
			continue
		}
		owners[tmpl.Pair.Start] = tmpl.Name

		tr := p.apply(ctx, tmpl, targetRoot)
		for _, path := range tr.Modified {
			modified[path] = struct{}{}
		}
		report.Templates = append(report.Templates, tr)
		report.TemplatesProcessed++

		p.logger.Info(ctx, "Template propagated",
			"template", tmpl.Name,
			"modified", len(tr.Modified),
			"unchanged", tr.Unchanged,
			"tags_not_found", tr.NotFound,
			"malformed", tr.Malformed,
			"failed", tr.Failed)
	}

	report.Modified = make([]string, 0, len(modified))
	for path := range modified {
		report.Modified = append(report.Modified, path)
	}
	slices.Sort(report.Modified)
	report.FilesModified = len(report.Modified)

	return report
}

func (p *Propagator) apply(ctx context.Context, tmpl Template, targetRoot string) TemplateReport {
	tr := TemplateReport{Name: tmpl.Name, Path: tmpl.Path, Modified: []string{}}
	logger := p.logger.With("template", tmpl.Name)

	for target := range p.selector.Seq(targetRoot) {
		content, err := p.store.ReadFile(target)
		if err != nil {
			p.targetFailed(ctx, logger, &tr, "read", target, err)
			continue
		}

		result := p.engine.Substitute(tmpl.Content, content, tmpl.Pair)
		switch result.Status {
		case region.StatusNotFound:
			tr.NotFound++
			logger.Debug(ctx, "Target skipped", "path", target, "outcome", result.Status.String())
			continue
		case region.StatusMalformed:
			tr.Malformed++
			logger.Warn(ctx, nil, "Malformed region, target left unchanged",
				"path", target, "outcome", result.Status.String(), "pair", tmpl.Pair.String())
			continue
		}

		if result.Extra > 0 {
			logger.Warn(ctx, nil, "Only the first region was replaced",
				"path", target, "ignored_regions", result.Extra)
		}

		if !result.Changed {
			tr.Unchanged++
			logger.Debug(ctx, "Target up to date", "path", target, "outcome", result.Status.String())
			continue
		}

		if !p.dryRun {
			if err := p.store.WriteFile(target, result.Content); err != nil {
				p.targetFailed(ctx, logger, &tr, "write", target, err)
				continue
			}
		}
		tr.Modified = append(tr.Modified, target)
		logger.Info(ctx, "Target updated", "path", target, "outcome", result.Status.String(), "dry_run", p.dryRun)
	}

	return tr
}

func (p *Propagator) targetFailed(ctx context.Context, logger logging.Logger, tr *TemplateReport, operation, path string, cause error) {
	tr.Failed++
	err := errors.TargetIOError(operation, path, cause)
	p.collect(err.WithTemplate(tr.Name))
	logger.Warn(ctx, err, "Skipping target", "path", path, "outcome", outcomeError)
}

func (p *Propagator) collect(err error) {
	if p.errors != nil {
		p.errors.AddError(err)
	}
}
