package model

import (
	"fmt"
	"time"
)

// Sidebar holds display hints for the document's position among its siblings.
type Sidebar struct {
	Order *int `yaml:"order,omitempty"`
}

// Frontmatter is the metadata block at the top of every synced markdown file.
// A missing RemoteID means the document has not been created remotely yet.
type Frontmatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Sidebar     *Sidebar `yaml:"sidebar,omitempty"`
	RemoteID    string   `yaml:"remoteId,omitempty"`
	URLID       string   `yaml:"urlId,omitempty"`
}

func (f *Frontmatter) Validate() error {
	if f.Title == "" {
		return fmt.Errorf("title is required")
	}
	if f.Sidebar != nil && f.Sidebar.Order != nil && *f.Sidebar.Order < 0 {
		return fmt.Errorf("sidebar.order must not be negative")
	}
	return nil
}

// Order returns the sidebar order and whether one is set.
func (f *Frontmatter) Order() (int, bool) {
	if f.Sidebar == nil || f.Sidebar.Order == nil {
		return 0, false
	}
	return *f.Sidebar.Order, true
}

func (f *Frontmatter) SetOrder(n int) {
	f.Sidebar = &Sidebar{Order: &n}
}

// ParsedDocument is one markdown file read from a collection's output
// directory. ParentDocumentID is either a remote ID or, when the parent has
// not been created remotely yet, the absolute path of the parent's index.md.
type ParsedDocument struct {
	Metadata         Frontmatter
	Content          string
	FilePath         string
	RelativePath     string
	CollectionID     string
	ParentDocumentID string
	RelativeIndex    int
	LastModifiedAt   time.Time
}

// Identity is the reference children of this document carry as their parent.
func (d *ParsedDocument) Identity() string {
	if d.Metadata.RemoteID != "" {
		return d.Metadata.RemoteID
	}
	return d.FilePath
}
