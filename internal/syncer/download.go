package syncer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rogersnm/docsync/internal/attachment"
	"github.com/rogersnm/docsync/internal/id"
	"github.com/rogersnm/docsync/internal/markdown"
	"github.com/rogersnm/docsync/internal/model"
	"github.com/rogersnm/docsync/internal/outline"
	"github.com/rogersnm/docsync/internal/tree"
)

type DownloadOptions struct {
	IncludeImages   bool
	EmitFrontmatter bool
	// Cleanup deletes local paths the pass did not write.
	Cleanup bool
	Logger  *slog.Logger
}

type DownloadResult struct {
	CollectionID string
	Documents    int
	Deleted      int
}

// Downloader writes a collection's remote hierarchy to disk.
type Downloader struct {
	remote  Remote
	limiter *Limiter
	opts    DownloadOptions
	log     *slog.Logger
}

func NewDownloader(remote Remote, limiter *Limiter, opts DownloadOptions) *Downloader {
	log := opts.Logger
	if log == nil {
		log = discardLogger()
	}
	return &Downloader{remote: remote, limiter: limiter, opts: opts, log: log}
}

// downloadPass is the state of one DownloadCollection call.
type downloadPass struct {
	*Downloader
	docs         map[string]*outline.Document
	descriptions map[string]string
	written      *WrittenPaths
	order        int
	count        int
}

// DownloadCollection mirrors the collection into dir. Any fetch, transfer or
// write failure aborts the pass; files already written stay in place.
func (d *Downloader) DownloadCollection(ctx context.Context, collectionID, dir string) (*DownloadResult, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	var nodes []outline.NavigationNode
	err = d.limiter.Do(ctx, func() error {
		var err error
		nodes, err = d.remote.FetchCollectionHierarchy(ctx, collectionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching hierarchy of %s: %w", collectionID, err)
	}

	docs, err := d.fetchDocuments(ctx, nodes)
	if err != nil {
		return nil, err
	}

	p := &downloadPass{
		Downloader:   d,
		docs:         docs,
		descriptions: d.preservedDescriptions(root, collectionID),
		written:      NewWrittenPaths(),
	}
	p.written.Add(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", root, err)
	}
	if err := p.writeNodes(ctx, nodes, root); err != nil {
		return nil, err
	}

	res := &DownloadResult{CollectionID: collectionID, Documents: p.count}
	if d.opts.Cleanup {
		res.Deleted = Cleanup(root, p.written)
	}
	d.log.Info("downloaded collection", "collection", collectionID, "documents", res.Documents, "deleted", res.Deleted)
	return res, nil
}

// fetchDocuments loads every document in the hierarchy, bounded by the limiter.
func (d *Downloader) fetchDocuments(ctx context.Context, nodes []outline.NavigationNode) (map[string]*outline.Document, error) {
	var ids []string
	var collect func([]outline.NavigationNode)
	collect = func(ns []outline.NavigationNode) {
		for _, n := range ns {
			ids = append(ids, n.ID)
			collect(n.Children)
		}
	}
	collect(nodes)

	docs := make(map[string]*outline.Document, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, docID := range ids {
		g.Go(func() error {
			return d.limiter.Do(gctx, func() error {
				doc, err := d.remote.FetchDocument(gctx, docID)
				if err != nil {
					return fmt.Errorf("fetching document %s: %w", docID, err)
				}
				mu.Lock()
				docs[docID] = doc
				mu.Unlock()
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// preservedDescriptions indexes descriptions recorded in the existing local
// tree by remote ID. The remote store may not carry them.
func (d *Downloader) preservedDescriptions(root, collectionID string) map[string]string {
	if _, err := os.Stat(root); err != nil {
		return nil
	}
	existing, err := tree.ReadCollection(root, collectionID)
	if err != nil {
		d.log.Warn("existing tree unreadable, scanning files individually", "dir", root, "error", err)
		return scanDescriptions(root, d.log)
	}
	out := make(map[string]string)
	for _, doc := range existing {
		if doc.Metadata.RemoteID != "" && doc.Metadata.Description != "" {
			out[doc.Metadata.RemoteID] = doc.Metadata.Description
		}
	}
	return out
}

// scanDescriptions reads the front matter of every markdown file under root,
// skipping files that do not parse.
func scanDescriptions(root string, log *slog.Logger) map[string]string {
	out := make(map[string]string)
	filepath.WalkDir(root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != root && strings.HasPrefix(e.Name(), ".") {
			if e.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		meta, _, err := markdown.ReadFile(path)
		if err != nil {
			log.Debug("skipping unreadable document", "path", path, "error", err)
			return nil
		}
		if meta.RemoteID != "" && meta.Description != "" {
			out[meta.RemoteID] = meta.Description
		}
		return nil
	})
	return out
}

func (p *downloadPass) writeNodes(ctx context.Context, nodes []outline.NavigationNode, parentDir string) error {
	names := newSiblingNames()
	for _, n := range nodes {
		doc, ok := p.docs[n.ID]
		if !ok {
			return fmt.Errorf("document %s missing from fetch results", n.ID)
		}

		name := names.next(doc.Title)
		hasChildren := len(n.Children) > 0
		var dir, path string
		if hasChildren {
			dir = filepath.Join(parentDir, name)
			path = filepath.Join(dir, tree.IndexFile)
		} else {
			path = filepath.Join(parentDir, name+".md")
		}

		p.order++
		meta := &model.Frontmatter{
			Title:       doc.Title,
			Description: doc.Description,
			RemoteID:    doc.ID,
			URLID:       doc.URLID,
		}
		if meta.Description == "" {
			meta.Description = p.descriptions[doc.ID]
		}
		meta.SetOrder(p.order)

		body := doc.Text
		if p.opts.IncludeImages {
			var err error
			if body, err = p.materializeImages(ctx, body, path, hasChildren); err != nil {
				return err
			}
		}

		if !p.opts.EmitFrontmatter {
			meta = nil
		}
		if err := markdown.WriteFile(path, body, meta); err != nil {
			return err
		}
		p.written.Add(path)
		if hasChildren {
			p.written.Add(dir)
		}
		p.count++
		p.log.Debug("wrote document", "path", path, "id", doc.ID)

		if hasChildren {
			if err := p.writeNodes(ctx, n.Children, dir); err != nil {
				return err
			}
		}
	}
	return nil
}

// materializeImages makes sure every attachment in body exists on disk and
// points the body at the local copies. A leaf document keeps its images in a
// directory named after it; an index.md keeps them beside itself.
func (p *downloadPass) materializeImages(ctx context.Context, body, docPath string, isIndex bool) (string, error) {
	atts := attachment.ParseAttachments(body)
	if len(atts) == 0 {
		return body, nil
	}

	docDir := filepath.Dir(docPath)
	imageDir := docDir
	if !isIndex {
		imageDir = strings.TrimSuffix(docPath, filepath.Ext(docPath))
	}
	existing, _ := os.ReadDir(imageDir)

	local := make(map[string]string)
	for i := range atts {
		a := &atts[i]
		path, ok := local[a.ID]
		if !ok {
			path = findAttachment(existing, imageDir, a.ID)
		}
		if path == "" {
			err := p.limiter.Do(ctx, func() error {
				var err error
				path, err = p.remote.DownloadAttachmentToDirectory(ctx, a.ID, imageDir)
				return err
			})
			if err != nil {
				return "", &TransferError{AttachmentID: a.ID, Path: docPath, Err: err}
			}
			p.log.Debug("downloaded attachment", "id", a.ID, "path", path)
		}
		local[a.ID] = path
		p.written.Add(path)

		rel, err := filepath.Rel(docDir, path)
		if err != nil {
			return "", fmt.Errorf("relativizing %s: %w", path, err)
		}
		a.LocalPath = "./" + filepath.ToSlash(rel)
	}
	p.written.Add(imageDir)
	return attachment.ToLocalPaths(body, atts), nil
}

func findAttachment(entries []os.DirEntry, dir, attachmentID string) string {
	for _, e := range entries {
		if !e.IsDir() && id.HasPrefix(e.Name(), attachmentID) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}
