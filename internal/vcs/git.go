// Package vcs commits and pushes the files a run modified.
//
// It shells out to the git binary. Nothing here is needed for
// propagation itself; the cmd package calls it after a run that modified
// at least one file when git integration is enabled.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/logging"
)

// SkipCIMarker is appended to commit messages when CI should be skipped.
const SkipCIMarker = " [no ci]"

// CommandRunner runs a command in dir and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}

// Git drives a working tree.
type Git struct {
	Dir      string
	Username string
	Email    string
	// Branch is pushed to. When empty the current branch is used.
	Branch string
	// Token and Repository build an authenticated push URL. When either
	// is empty the push goes to origin.
	Token      string
	Repository string
	Runner     CommandRunner

	configured bool
	logger     logging.Logger
}

// New creates a Git for dir using the GITHUB_TOKEN and GITHUB_REPOSITORY
// environment variables for pushes.
func New(dir, username, email, branch string, logger logging.Logger) *Git {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Git{
		Dir:        dir,
		Username:   username,
		Email:      email,
		Branch:     branch,
		Token:      os.Getenv("GITHUB_TOKEN"),
		Repository: os.Getenv("GITHUB_REPOSITORY"),
		Runner:     ExecRunner{},
		logger:     logger.WithComponent("vcs"),
	}
}

// CommitMessage returns base with the CI skip marker appended when skipCI
// is set.
func CommitMessage(base string, skipCI bool) string {
	if skipCI && !strings.HasSuffix(base, SkipCIMarker) {
		return base + SkipCIMarker
	}
	return base
}

// Configure marks the tree as safe and sets the commit identity. The
// safe.directory entry is only added when git does not already list it.
func (g *Git) Configure(ctx context.Context) error {
	if g.configured {
		return nil
	}
	dir := absolute(g.Dir)
	if !g.isSafeDirectory(ctx, dir) {
		if _, err := g.git(ctx, "config", "--global", "--add", "safe.directory", dir); err != nil {
			return err
		}
	}
	if _, err := g.git(ctx, "config", "user.name", g.Username); err != nil {
		return err
	}
	if _, err := g.git(ctx, "config", "user.email", g.Email); err != nil {
		return err
	}
	g.configured = true
	return nil
}

// isSafeDirectory reports whether dir is already trusted. git exits 1 when
// no safe.directory is set, which counts as not trusted.
func (g *Git) isSafeDirectory(ctx context.Context, dir string) bool {
	out, err := g.Runner.Run(ctx, g.Dir, "git", "config", "--global", "--get-all", "safe.directory")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		entry := strings.TrimSpace(line)
		if entry == "*" || entry == dir {
			return true
		}
	}
	return false
}

// Stage adds paths to the index.
func (g *Git) Stage(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := []string{"add", "--"}
	for _, path := range paths {
		args = append(args, g.relative(path))
	}
	_, err := g.git(ctx, args...)
	return err
}

// Commit records the index. It reports false without error when there
// was nothing to commit.
func (g *Git) Commit(ctx context.Context, message string) (bool, error) {
	out, err := g.git(ctx, "commit", "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") || strings.Contains(out, "nothing added to commit") {
			g.logger.Info(ctx, "Nothing to commit")
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CurrentBranch returns the checked out branch.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Remote returns the push destination.
func (g *Git) Remote() string {
	if g.Token == "" || g.Repository == "" {
		return "origin"
	}
	return fmt.Sprintf("https://x-access-token:%s@github.com/%s.git", g.Token, g.Repository)
}

// Push pushes HEAD to the configured branch, or to the current branch
// when none is configured.
func (g *Git) Push(ctx context.Context) error {
	branch := g.Branch
	if branch == "" {
		current, err := g.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		branch = current
	}
	_, err := g.git(ctx, "push", g.Remote(), "HEAD:"+branch)
	return err
}

// Publish configures the tree, then stages, commits and pushes paths.
func (g *Git) Publish(ctx context.Context, paths []string, message string) error {
	if err := g.Configure(ctx); err != nil {
		return err
	}
	if err := g.Stage(ctx, paths); err != nil {
		return err
	}
	committed, err := g.Commit(ctx, message)
	if err != nil || !committed {
		return err
	}
	if err := g.Push(ctx); err != nil {
		return err
	}
	g.logger.Info(ctx, "Changes pushed", "files", len(paths), "message", message)
	return nil
}

func (g *Git) git(ctx context.Context, args ...string) (string, error) {
	out, err := g.Runner.Run(ctx, g.Dir, "git", args...)
	if err != nil {
		operation := args[0]
		return out, errors.VCSError(operation, g.redact(strings.TrimSpace(out)), err)
	}
	g.logger.Debug(ctx, "git", "args", g.redact(strings.Join(args, " ")))
	return out, nil
}

// redact hides the push token.
func (g *Git) redact(s string) string {
	if g.Token == "" {
		return s
	}
	return strings.ReplaceAll(s, g.Token, "***")
}

// relative rewrites path against Dir, since git runs inside Dir while
// callers pass paths relative to the process working directory. Paths
// that cannot be expressed under Dir are passed through unchanged.
func (g *Git) relative(path string) string {
	rel, err := filepath.Rel(absolute(g.Dir), absolute(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
