package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mimic/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestMirrorPreservesLayout(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	files := []string{
		filepath.Join(src, "a.md"),
		filepath.Join(src, "docs", "b.md"),
		filepath.Join(src, "docs", "deep", "c.md"),
	}
	for _, f := range files {
		writeFile(t, f, "content of "+filepath.Base(f))
	}

	result, err := New(nil, nil).Mirror(context.Background(), files, src, out)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Copied)
	assert.Empty(t, result.Failed)
	for _, rel := range []string{"a.md", "docs/b.md", "docs/deep/c.md"} {
		data, err := os.ReadFile(filepath.Join(out, rel))
		require.NoError(t, err)
		assert.Equal(t, "content of "+filepath.Base(rel), string(data))
	}
}

func TestMirrorCopiesMetadata(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	file := filepath.Join(src, "script.md")
	writeFile(t, file, "x")
	require.NoError(t, os.Chmod(file, 0600))
	modTime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(file, modTime, modTime))

	_, err := New(nil, nil).Mirror(context.Background(), []string{file}, src, out)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(out, "script.md"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(modTime))
}

func TestMirrorOverwritesExisting(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	file := filepath.Join(src, "a.md")
	writeFile(t, file, "fresh")
	writeFile(t, filepath.Join(out, "a.md"), "stale and longer")

	_, err := New(nil, nil).Mirror(context.Background(), []string{file}, src, out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestMirrorSkipsFilesUnderOutputRoot(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(src, "out")
	inside := filepath.Join(out, "already.md")
	outside := filepath.Join(src, "a.md")
	writeFile(t, inside, "mirrored")
	writeFile(t, outside, "source")

	result, err := New(nil, nil).Mirror(context.Background(), []string{inside, outside}, src, out)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Copied)
	assert.Equal(t, 1, result.Skipped)
	assert.NoFileExists(t, filepath.Join(out, "out", "already.md"))
}

func TestMirrorContinuesAfterFailure(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	missing := filepath.Join(src, "missing.md")
	present := filepath.Join(src, "present.md")
	writeFile(t, present, "ok")
	collector := errors.NewErrorCollector()

	result, err := New(nil, collector).Mirror(context.Background(), []string{missing, present}, src, out)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Copied)
	assert.Equal(t, []string{missing}, result.Failed)
	assert.FileExists(t, filepath.Join(out, "present.md"))
	require.Equal(t, 1, collector.Count())
	assert.True(t, errors.HasErrorCode(collector.GetErrors()[0], errors.ErrCodeTargetIO))
}

func TestMirrorRejectsFilesOutsideSourceRoot(t *testing.T) {
	src := t.TempDir()
	other := t.TempDir()
	out := t.TempDir()
	stray := filepath.Join(other, "stray.md")
	writeFile(t, stray, "x")

	result, err := New(nil, nil).Mirror(context.Background(), []string{stray}, src, out)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Copied)
	assert.Equal(t, []string{stray}, result.Failed)
}

func TestMirrorOutputRootNotCreatable(t *testing.T) {
	src := t.TempDir()
	blocker := filepath.Join(src, "file")
	writeFile(t, blocker, "x")

	_, err := New(nil, nil).Mirror(context.Background(), nil, src, filepath.Join(blocker, "out"))

	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeTargetIO))
}
