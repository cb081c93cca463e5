package propagate

import (
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// Store reads and writes whole target files.
type Store interface {
	ReadFile(path string) (string, error)
	WriteFile(path, content string) error
}

// FileStore is the filesystem Store. Writes go to a temporary file in the
// target's directory which then replaces the target, so a target is never
// left half written. The target's permission bits are kept.
type FileStore struct{}

// ReadFile returns the full content of path.
func (FileStore) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile replaces path with content.
func (FileStore) WriteFile(path, content string) error {
	return atomic.WriteFile(path, strings.NewReader(content))
}
