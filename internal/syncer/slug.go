package syncer

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/rogersnm/docsync/internal/tree"
)

// Slugify turns a document title into a file system safe name.
func Slugify(title string) string {
	s := slug.Make(title)
	if s == "" {
		return "untitled"
	}
	return s
}

// siblingNames hands out unique slugs within one directory. Colliding titles
// get -2, -3, ... suffixes in the order they are requested.
type siblingNames map[string]bool

func newSiblingNames() siblingNames {
	// A leaf document named index.md would be read back as the directory's parent.
	return siblingNames{strings.TrimSuffix(tree.IndexFile, ".md"): true}
}

func (s siblingNames) next(title string) string {
	base := Slugify(title)
	name := base
	for n := 2; s[name]; n++ {
		name = fmt.Sprintf("%s-%d", base, n)
	}
	s[name] = true
	return name
}
