package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// ErrExists is returned by WriteNew when the destination is already present.
var ErrExists = errors.New("destination already exists")

// WriteAtomic replaces path with the contents of r. The parent directory is
// created when missing. Readers of path see either the old or the new file.
func WriteAtomic(path string, r io.Reader) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if err := atomic.WriteFile(path, r); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteNew writes data to path unless a file is already there and overwrite
// is false.
func WriteNew(path string, data []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return WriteAtomic(path, bytes.NewReader(data))
}
