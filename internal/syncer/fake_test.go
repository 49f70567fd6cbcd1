package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/rogersnm/docsync/internal/attachment"
	"github.com/rogersnm/docsync/internal/outline"
)

// fakeRemote is an in-memory document store.
type fakeRemote struct {
	mu          sync.Mutex
	hierarchy   map[string][]outline.NavigationNode
	docs        map[string]*outline.Document
	attachments map[string][]byte

	created   []outline.CreateParams
	updates   map[string]int
	moves     []string
	uploads   []string
	downloads int

	failFetch   map[string]bool
	failCreate  map[string]bool
	failUpload  bool
	failAttachs bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		hierarchy:   make(map[string][]outline.NavigationNode),
		docs:        make(map[string]*outline.Document),
		attachments: make(map[string][]byte),
		updates:     make(map[string]int),
		failFetch:   make(map[string]bool),
		failCreate:  make(map[string]bool),
	}
}

// addDoc registers a document and returns its id.
func (f *fakeRemote) addDoc(collectionID, parentID, title, text string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	docID := uuid.NewString()
	f.docs[docID] = &outline.Document{
		ID:               docID,
		URLID:            docID[:10],
		Title:            title,
		Text:             text,
		CollectionID:     collectionID,
		ParentDocumentID: parentID,
	}
	return docID
}

func (f *fakeRemote) doc(docID string) outline.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.docs[docID]
}

func (f *fakeRemote) byTitle(title string) (outline.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.Title == title {
			return *d, true
		}
	}
	return outline.Document{}, false
}

func (f *fakeRemote) FetchCollectionHierarchy(_ context.Context, collectionID string) ([]outline.NavigationNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	nodes, ok := f.hierarchy[collectionID]
	if !ok {
		return nil, &outline.RemoteError{Op: "collections.documents", Status: 404, Message: "collection not found"}
	}
	return nodes, nil
}

func (f *fakeRemote) FetchDocument(_ context.Context, docID string) (*outline.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch[docID] {
		return nil, &outline.RemoteError{Op: "documents.info", Status: 500, Message: "boom"}
	}
	d, ok := f.docs[docID]
	if !ok {
		return nil, &outline.RemoteError{Op: "documents.info", Status: 404, Message: "not found"}
	}
	cp := *d
	return &cp, nil
}

func (f *fakeRemote) CreateDocument(_ context.Context, p outline.CreateParams) (*outline.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate[p.Title] {
		return nil, &outline.RemoteError{Op: "documents.create", Status: 400, Message: "rejected"}
	}
	if p.ParentDocumentID != "" {
		if _, ok := f.docs[p.ParentDocumentID]; !ok {
			return nil, fmt.Errorf("parent %s does not exist", p.ParentDocumentID)
		}
	}
	docID := uuid.NewString()
	d := &outline.Document{
		ID:               docID,
		URLID:            docID[:10],
		Title:            p.Title,
		Text:             p.Text,
		CollectionID:     p.CollectionID,
		ParentDocumentID: p.ParentDocumentID,
	}
	f.docs[docID] = d
	f.created = append(f.created, p)
	cp := *d
	return &cp, nil
}

func (f *fakeRemote) UpdateDocument(_ context.Context, docID string, p outline.UpdateParams) (*outline.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docID]
	if !ok {
		return nil, &outline.RemoteError{Op: "documents.update", Status: 404}
	}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Text != nil {
		d.Text = *p.Text
	}
	f.updates[docID]++
	cp := *d
	return &cp, nil
}

func (f *fakeRemote) MoveDocument(_ context.Context, docID, collectionID, parentID string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docID]
	if !ok {
		return &outline.RemoteError{Op: "documents.move", Status: 404}
	}
	d.CollectionID = collectionID
	d.ParentDocumentID = parentID
	f.moves = append(f.moves, docID)
	return nil
}

func (f *fakeRemote) UploadAttachment(_ context.Context, _ string, filePath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload {
		return "", errors.New("upload refused")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	attID := uuid.NewString()
	f.attachments[attID] = data
	f.uploads = append(f.uploads, filePath)
	return attachment.RedirectPath + attID, nil
}

func (f *fakeRemote) DownloadAttachmentToDirectory(_ context.Context, attachmentID, dir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAttachs {
		return "", errors.New("download refused")
	}
	data, ok := f.attachments[attachmentID]
	if !ok {
		return "", &outline.RemoteError{Op: "attachments.redirect", Status: 404}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, attachmentID+".png")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	f.downloads++
	return path, nil
}
