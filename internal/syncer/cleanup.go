package syncer

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// WrittenPaths is the set of paths produced by one download pass. Paths are
// stored cleaned and absolute.
type WrittenPaths struct {
	paths map[string]struct{}
}

func NewWrittenPaths() *WrittenPaths {
	return &WrittenPaths{paths: make(map[string]struct{})}
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (w *WrittenPaths) Add(path string) {
	w.paths[normalize(path)] = struct{}{}
}

func (w *WrittenPaths) Has(path string) bool {
	_, ok := w.paths[normalize(path)]
	return ok
}

func (w *WrittenPaths) Len() int { return len(w.paths) }

// Cleanup deletes everything below root that is not in written, deepest
// paths first. Directories are removed only once empty. Delete failures are
// skipped; the count covers successful deletions only. Dot-prefixed entries
// (.git, .obsidian, ...) are never touched: tree.ReadCollection ignores them
// too, so they are outside the synced tree and a download never writes them.
func Cleanup(root string, written *WrittenPaths) int {
	root = normalize(root)
	var paths []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		return nil
	})

	slices.SortStableFunc(paths, func(a, b string) int {
		return depth(b) - depth(a)
	})

	deleted := 0
	for _, p := range paths {
		if written.Has(p) {
			continue
		}
		info, err := os.Lstat(p)
		if err != nil {
			continue
		}
		if info.IsDir() {
			entries, err := os.ReadDir(p)
			if err != nil || len(entries) > 0 {
				continue
			}
		}
		if err := os.Remove(p); err == nil {
			deleted++
		}
	}
	return deleted
}

func depth(path string) int {
	return strings.Count(filepath.ToSlash(path), "/")
}
