package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
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

type UploadOptions struct {
	// UpdateOnly skips documents that do not exist remotely yet.
	UpdateOnly bool
	Logger     *slog.Logger
}

type UploadResult struct {
	CollectionID string
	Created      int
	Updated      int
	Skipped      int
	Errors       []error
}

func (r *UploadResult) Failed() int { return len(r.Errors) }

// Uploader pushes a collection's local tree to the remote store.
type Uploader struct {
	remote  Remote
	limiter *Limiter
	opts    UploadOptions
	log     *slog.Logger
}

func NewUploader(remote Remote, limiter *Limiter, opts UploadOptions) *Uploader {
	log := opts.Logger
	if log == nil {
		log = discardLogger()
	}
	return &Uploader{remote: remote, limiter: limiter, opts: opts, log: log}
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeUpdated
)

// pathIDs maps local file paths to the remote IDs resolved for them during
// one pass. Each path is written once.
type pathIDs struct {
	mu  sync.RWMutex
	ids map[string]string
}

func (m *pathIDs) get(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.ids[path]
	return v, ok
}

func (m *pathIDs) set(path, remoteID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[path] = remoteID
}

type uploadPass struct {
	*Uploader
	paths   *pathIDs
	mu      sync.Mutex
	result  *UploadResult
	skipped map[string]bool
}

// UploadCollection reads dir and uploads every document in it.
func (u *Uploader) UploadCollection(ctx context.Context, collectionID, dir string) (*UploadResult, error) {
	docs, err := tree.ReadCollection(dir, collectionID)
	if err != nil {
		return nil, err
	}
	return u.UploadDocuments(ctx, collectionID, docs)
}

// UploadDocuments uploads docs, which must be ordered parents first. Documents
// run concurrently in waves: a document whose parent is still pending waits
// for the wave that creates it. One document's failure does not stop the
// others; the returned error summarizes all failures.
func (u *Uploader) UploadDocuments(ctx context.Context, collectionID string, docs []model.ParsedDocument) (*UploadResult, error) {
	p := &uploadPass{
		Uploader: u,
		paths:    &pathIDs{ids: make(map[string]string)},
		result:   &UploadResult{CollectionID: collectionID},
		skipped:  make(map[string]bool),
	}

	pending := docs
	for len(pending) > 0 {
		waiting := make(map[string]bool, len(pending))
		for i := range pending {
			waiting[pending[i].FilePath] = true
		}

		var wave, next []model.ParsedDocument
		for _, d := range pending {
			if p.blocked(d, waiting) {
				next = append(next, d)
			} else {
				wave = append(wave, d)
			}
		}
		if len(wave) == 0 {
			// Unreachable with parents-first input; let resolution report it.
			wave, next = next, nil
		}
		if err := p.runWave(ctx, wave); err != nil {
			return p.result, err
		}
		pending = next
	}

	res := p.result
	u.log.Info("uploaded collection", "collection", collectionID,
		"created", res.Created, "updated", res.Updated, "skipped", res.Skipped, "errors", res.Failed())
	if n := res.Failed(); n > 0 {
		return res, fmt.Errorf("%d of %d documents failed: %w", n, len(docs), res.Errors[0])
	}
	return res, nil
}

// blocked reports whether d's parent is a local path still waiting in this pass.
func (p *uploadPass) blocked(d model.ParsedDocument, waiting map[string]bool) bool {
	parent := d.ParentDocumentID
	if parent == "" || parent == d.FilePath || id.IsRemote(parent) {
		return false
	}
	if _, ok := p.paths.get(parent); ok {
		return false
	}
	return waiting[parent]
}

func (p *uploadPass) runWave(ctx context.Context, wave []model.ParsedDocument) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range wave {
		g.Go(func() error {
			return p.limiter.Do(gctx, func() error {
				o, err := p.uploadDocument(gctx, d)
				p.record(d, o, err)
				return nil
			})
		})
	}
	return g.Wait()
}

func (p *uploadPass) record(d model.ParsedDocument, o outcome, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.result.Errors = append(p.result.Errors, err)
		p.log.Error("upload failed", "path", d.RelativePath, "error", err)
		return
	}
	switch o {
	case outcomeCreated:
		p.result.Created++
	case outcomeUpdated:
		p.result.Updated++
	default:
		p.result.Skipped++
	}
}

func (p *uploadPass) markSkipped(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skipped[path] = true
}

func (p *uploadPass) wasSkipped(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.skipped[path]
}

// resolveParent maps d's parent reference to a remote ID. known is false when
// the parent was skipped in update-only mode, so the document's placement
// cannot be checked.
func (p *uploadPass) resolveParent(d model.ParsedDocument) (parentID string, known bool, err error) {
	parent := d.ParentDocumentID
	if parent == "" || id.IsRemote(parent) {
		return parent, true, nil
	}
	if remoteID, ok := p.paths.get(parent); ok {
		return remoteID, true, nil
	}
	if p.opts.UpdateOnly && p.wasSkipped(parent) {
		return "", false, nil
	}
	return "", false, &ParentResolutionError{Path: d.FilePath, Parent: parent}
}

func (p *uploadPass) uploadDocument(ctx context.Context, d model.ParsedDocument) (outcome, error) {
	parentID, known, err := p.resolveParent(d)
	if err != nil {
		return outcomeSkipped, err
	}

	if d.Metadata.RemoteID == "" {
		if p.opts.UpdateOnly || !known {
			p.markSkipped(d.FilePath)
			p.log.Debug("skipping new document", "path", d.RelativePath)
			return outcomeSkipped, nil
		}
		return p.create(ctx, d, parentID)
	}

	p.paths.set(d.FilePath, d.Metadata.RemoteID)
	return p.updateOrMove(ctx, d, parentID, known)
}

func (p *uploadPass) create(ctx context.Context, d model.ParsedDocument, parentID string) (outcome, error) {
	images := attachment.ParseRelativeImages(d.Content)
	text := attachment.ToRemoteReferences(d.Content, images)

	created, err := p.remote.CreateDocument(ctx, outline.CreateParams{
		Title:            d.Metadata.Title,
		Text:             text,
		CollectionID:     d.CollectionID,
		ParentDocumentID: parentID,
	})
	if err != nil {
		return outcomeSkipped, fmt.Errorf("creating %s: %w", d.RelativePath, err)
	}
	p.paths.set(d.FilePath, created.ID)
	p.log.Debug("created document", "path", d.RelativePath, "id", created.ID)

	meta := d.Metadata
	meta.RemoteID = created.ID
	if created.URLID != "" {
		meta.URLID = created.URLID
	}

	body := d.Content
	if hasNewImages(images) {
		if canonical, err := p.pushImages(ctx, d, created.ID, text, images); err != nil {
			p.log.Warn("image upload failed, keeping original body", "path", d.RelativePath, "error", err)
		} else {
			body = canonical
		}
	}

	if err := markdown.WriteFile(d.FilePath, body, &meta); err != nil {
		return outcomeCreated, fmt.Errorf("recording remote id in %s: %w", d.RelativePath, err)
	}
	return outcomeCreated, nil
}

// pushImages uploads the not-yet-uploaded images of a freshly created
// document and updates it to reference them. It returns the local body for
// the server's canonical text.
func (p *uploadPass) pushImages(ctx context.Context, d model.ParsedDocument, remoteID, text string, images []attachment.Image) (string, error) {
	ups, err := p.uploadImages(ctx, d, remoteID, images)
	if err != nil {
		return "", err
	}
	remoteText := withUploadedURLs(text, ups)
	updated, err := p.remote.UpdateDocument(ctx, remoteID, outline.UpdateParams{Text: &remoteText})
	if err != nil {
		return "", fmt.Errorf("updating %s with uploaded images: %w", d.RelativePath, err)
	}
	return p.localBody(d, updated.Text, images, ups), nil
}

func (p *uploadPass) updateOrMove(ctx context.Context, d model.ParsedDocument, parentID string, parentKnown bool) (outcome, error) {
	remoteID := d.Metadata.RemoteID
	current, err := p.remote.FetchDocument(ctx, remoteID)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("fetching %s: %w", d.RelativePath, err)
	}

	moved := false
	if parentKnown && (current.CollectionID != d.CollectionID || current.ParentDocumentID != parentID) {
		if err := p.remote.MoveDocument(ctx, remoteID, d.CollectionID, parentID, d.RelativeIndex); err != nil {
			return outcomeSkipped, fmt.Errorf("moving %s: %w", d.RelativePath, err)
		}
		moved = true
		p.log.Debug("moved document", "path", d.RelativePath, "parent", parentID)
	}

	images := attachment.WithRemoteURLs(attachment.ParseRelativeImages(d.Content), attachment.ParseAttachments(current.Text))
	text := attachment.ToRemoteReferences(d.Content, images)
	var ups []uploadedImage
	if hasNewImages(images) {
		ups, err = p.uploadImages(ctx, d, remoteID, images)
		if err != nil {
			p.log.Warn("image upload failed, leaving remote content as is", "path", d.RelativePath, "error", err)
			if moved {
				return outcomeUpdated, nil
			}
			return outcomeSkipped, nil
		}
		text = withUploadedURLs(text, ups)
	}

	titleChanged := current.Title != d.Metadata.Title
	if !titleChanged && strings.TrimSpace(text) == strings.TrimSpace(current.Text) {
		if moved {
			return outcomeUpdated, nil
		}
		return outcomeSkipped, nil
	}

	params := outline.UpdateParams{Text: &text}
	if titleChanged {
		title := d.Metadata.Title
		params.Title = &title
	}
	updated, err := p.remote.UpdateDocument(ctx, remoteID, params)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("updating %s: %w", d.RelativePath, err)
	}

	meta := d.Metadata
	if updated.URLID != "" {
		meta.URLID = updated.URLID
	}
	if err := markdown.WriteFile(d.FilePath, p.localBody(d, updated.Text, images, ups), &meta); err != nil {
		return outcomeUpdated, fmt.Errorf("rewriting %s: %w", d.RelativePath, err)
	}
	p.log.Debug("updated document", "path", d.RelativePath, "id", remoteID)
	return outcomeUpdated, nil
}

type uploadedImage struct {
	image        attachment.Image
	url          string
	attachmentID string
}

func hasNewImages(images []attachment.Image) bool {
	for _, img := range images {
		if !img.IsExistingAttachment {
			return true
		}
	}
	return false
}

// uploadImages uploads each distinct new image file once.
func (p *uploadPass) uploadImages(ctx context.Context, d model.ParsedDocument, remoteID string, images []attachment.Image) ([]uploadedImage, error) {
	docDir := filepath.Dir(d.FilePath)
	urls := make(map[string]string)
	var out []uploadedImage
	for _, img := range images {
		if img.IsExistingAttachment {
			continue
		}
		url, ok := urls[img.RelativePath]
		if !ok {
			src := filepath.Join(docDir, filepath.FromSlash(img.RelativePath))
			var err error
			url, err = p.remote.UploadAttachment(ctx, remoteID, src)
			if err != nil {
				return nil, &TransferError{Path: src, Err: err}
			}
			urls[img.RelativePath] = url
			p.log.Debug("uploaded image", "path", src, "url", url)
		}
		out = append(out, uploadedImage{image: img, url: url, attachmentID: attachment.IDFromURL(url)})
	}
	return out, nil
}

func withUploadedURLs(text string, ups []uploadedImage) string {
	for _, u := range ups {
		text = attachment.Replace(text, u.image, u.url)
	}
	return text
}

// localBody converts the server's text back to local image paths. Uploaded
// images are renamed to <attachment-id><ext> so later passes recognize them
// as existing attachments.
func (p *uploadPass) localBody(d model.ParsedDocument, serverText string, images []attachment.Image, ups []uploadedImage) string {
	local := make(map[string]string)
	for _, img := range images {
		if img.IsExistingAttachment {
			local[img.AttachmentID] = img.RelativePath
		}
	}

	docDir := filepath.Dir(d.FilePath)
	for _, u := range ups {
		if u.attachmentID == "" {
			continue
		}
		if _, done := local[u.attachmentID]; done {
			continue
		}
		rel := "./" + path.Join(path.Dir(u.image.RelativePath), u.attachmentID+path.Ext(u.image.RelativePath))
		src := filepath.Join(docDir, filepath.FromSlash(u.image.RelativePath))
		dst := filepath.Join(docDir, filepath.FromSlash(rel))
		if err := os.Rename(src, dst); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.log.Warn("could not rename uploaded image", "path", src, "error", err)
			continue
		}
		local[u.attachmentID] = rel
	}

	atts := attachment.ParseAttachments(serverText)
	for i := range atts {
		atts[i].LocalPath = local[atts[i].ID]
	}
	return attachment.ToLocalPaths(serverText, atts)
}
