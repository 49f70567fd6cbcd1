// Package tree reads a collection's output directory back into an ordered,
// flattened list of documents with parent linkage.
//
// A directory that holds documents is itself a document: its index.md. Every
// other file and subdirectory in it is a child of that index.md.
package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rogersnm/docsync/internal/markdown"
	"github.com/rogersnm/docsync/internal/model"
)

// IndexFile is the file name that represents a directory's own document.
const IndexFile = "index.md"

// StructureError reports a directory with documents but no index.md.
type StructureError struct {
	Path string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("missing %s: expected %s", IndexFile, e.Path)
}

type reader struct {
	root         string
	collectionID string
}

// ReadCollection walks root and returns every document in it. Within a
// directory, documents are sorted by sidebar order (unordered last, in file
// name order) and numbered densely; descendants follow all of a directory's
// immediate documents, so parents always precede their children.
func ReadCollection(root, collectionID string) ([]model.ParsedDocument, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	r := &reader{root: abs, collectionID: collectionID}

	// A root-level index.md parents the rest of the root directory.
	parent := ""
	var docs []model.ParsedDocument
	rootIndex := filepath.Join(abs, IndexFile)
	if _, err := os.Stat(rootIndex); err == nil {
		d, err := r.readDocument(rootIndex, "")
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
		parent = d.Identity()
	}

	rest, err := r.readDir(abs, parent)
	if err != nil {
		return nil, err
	}
	return append(docs, rest...), nil
}

type subdir struct {
	path   string
	parent string
}

func (r *reader) readDir(dir, parent string) ([]model.ParsedDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	// Immediate documents: plain files plus each subdirectory's index.md,
	// in enumeration order.
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		switch {
		case e.IsDir():
			index, err := requireIndex(path)
			if err != nil {
				return nil, err
			}
			if index != "" {
				paths = append(paths, index)
			}
		case name == IndexFile:
			// Consumed by the caller as this directory's parent.
		case isDocument(name):
			paths = append(paths, path)
		}
	}

	level := make([]model.ParsedDocument, len(paths))
	var g errgroup.Group
	for i, p := range paths {
		g.Go(func() error {
			d, err := r.readDocument(p, parent)
			if err != nil {
				return err
			}
			level[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortLevel(level, paths)

	var pending []subdir
	for i := range level {
		level[i].RelativeIndex = i
		if filepath.Base(level[i].FilePath) == IndexFile {
			pending = append(pending, subdir{path: filepath.Dir(level[i].FilePath), parent: level[i].Identity()})
		}
	}

	docs := level
	for _, sd := range pending {
		children, err := r.readDir(sd.path, sd.parent)
		if err != nil {
			return nil, err
		}
		docs = append(docs, children...)
	}
	return docs, nil
}

func (r *reader) readDocument(path, parent string) (model.ParsedDocument, error) {
	meta, body, err := markdown.ReadFile(path)
	if err != nil {
		return model.ParsedDocument{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return model.ParsedDocument{}, fmt.Errorf("stat %s: %w", path, err)
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return model.ParsedDocument{}, fmt.Errorf("relativizing %s: %w", path, err)
	}
	return model.ParsedDocument{
		Metadata:         meta,
		Content:          body,
		FilePath:         path,
		RelativePath:     filepath.ToSlash(rel),
		CollectionID:     r.collectionID,
		ParentDocumentID: parent,
		LastModifiedAt:   info.ModTime(),
	}, nil
}

// sortLevel orders documents by sidebar order; documents without one go last
// and keep their enumeration order.
func sortLevel(level []model.ParsedDocument, paths []string) {
	pos := make(map[string]int, len(paths))
	for i, p := range paths {
		pos[p] = i
	}
	slices.SortStableFunc(level, func(a, b model.ParsedDocument) int {
		ao, aok := a.Metadata.Order()
		bo, bok := b.Metadata.Order()
		switch {
		case aok && bok && ao != bo:
			return ao - bo
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		}
		return pos[a.FilePath] - pos[b.FilePath]
	})
}

// requireIndex returns the index.md of a subdirectory that holds documents,
// or "" when it holds none.
func requireIndex(dir string) (string, error) {
	has, err := containsDocuments(dir)
	if err != nil || !has {
		return "", err
	}
	index := filepath.Join(dir, IndexFile)
	if _, err := os.Stat(index); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &StructureError{Path: index}
		}
		return "", fmt.Errorf("checking %s: %w", index, err)
	}
	return index, nil
}

func isDocument(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}

// containsDocuments reports whether dir holds a document at any depth.
func containsDocuments(dir string) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && isDocument(d.Name()) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return found, nil
}
