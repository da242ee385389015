package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// File is a candidate discovered by Walk.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// WalkOptions selects which files Walk reports.
type WalkOptions struct {
	Extensions     []string
	FollowSymlinks bool
	SkipHidden     bool
}

func (o WalkOptions) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext != "" && slices.Contains(o.Extensions, ext)
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}

// Walk returns the matching regular files below roots, sorted by path with
// duplicates removed. A root may also be a single file. Unreadable
// subdirectories are skipped; a missing or unreadable root is an error.
func Walk(ctx context.Context, roots []string, opts WalkOptions) ([]File, error) {
	w := &walker{opts: opts, seen: map[string]struct{}{}, visited: map[string]struct{}{}}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %q: %w", root, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat root %q: %w", root, err)
		}
		if !info.IsDir() {
			w.add(abs, info)
			continue
		}
		if err := w.walkDir(ctx, abs); err != nil {
			return nil, err
		}
	}
	slices.SortFunc(w.files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	return w.files, nil
}

type walker struct {
	opts    WalkOptions
	files   []File
	seen    map[string]struct{}
	visited map[string]struct{}
}

func (w *walker) add(path string, info fs.FileInfo) {
	if !info.Mode().IsRegular() || !w.opts.matches(path) {
		return
	}
	if _, dup := w.seen[path]; dup {
		return
	}
	w.seen[path] = struct{}{}
	w.files = append(w.files, File{Path: path, Size: info.Size(), ModTime: info.ModTime().UTC()})
}

// walkDir walks the resolved location of dir. Each real directory is
// visited once, which also stops symlink cycles.
func (w *walker) walkDir(ctx context.Context, dir string) error {
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", dir, err)
	}
	if _, done := w.visited[root]; done {
		return nil
	}
	w.visited[root] = struct{}{}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if w.opts.SkipHidden && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			if !w.opts.FollowSymlinks {
				return nil
			}
			target, statErr := os.Stat(path)
			if statErr != nil {
				return nil
			}
			if !target.IsDir() {
				w.add(path, target)
				return nil
			}
			if err := w.walkDir(ctx, path); err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return err
			}
		case d.IsDir():
			if _, done := w.visited[path]; done {
				return fs.SkipDir
			}
			w.visited[path] = struct{}{}
		default:
			info, infoErr := d.Info()
			if infoErr != nil {
				return nil
			}
			w.add(path, info)
		}
		return nil
	})
}
