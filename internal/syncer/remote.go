// Package syncer reconciles a collection's remote document hierarchy with its
// local directory tree in both directions.
package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/rogersnm/docsync/internal/outline"
)

// Remote is the document store the reconcilers talk to. *outline.Client
// implements it.
type Remote interface {
	FetchCollectionHierarchy(ctx context.Context, collectionID string) ([]outline.NavigationNode, error)
	FetchDocument(ctx context.Context, id string) (*outline.Document, error)
	CreateDocument(ctx context.Context, p outline.CreateParams) (*outline.Document, error)
	UpdateDocument(ctx context.Context, id string, p outline.UpdateParams) (*outline.Document, error)
	MoveDocument(ctx context.Context, id, collectionID, parentID string, index int) error
	UploadAttachment(ctx context.Context, documentID, filePath string) (string, error)
	DownloadAttachmentToDirectory(ctx context.Context, attachmentID, dir string) (string, error)
}

// compile-time check
var _ Remote = (*outline.Client)(nil)

// Limiter bounds the number of in-flight remote operations. One Limiter is
// shared by every pass of a run.
type Limiter struct {
	sem  *semaphore.Weighted
	size int
}

func NewLimiter(size int) *Limiter {
	if size < 1 {
		size = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(size)), size: size}
}

func (l *Limiter) Size() int { return l.size }

// Do runs fn while holding one slot.
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return fn()
}

// ParentResolutionError reports a document whose parent is a local path with
// no remote ID recorded in this pass.
type ParentResolutionError struct {
	Path   string
	Parent string
}

func (e *ParentResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve parent of %s: %s has no remote id", e.Path, e.Parent)
}

// TransferError is a failed attachment upload or download.
type TransferError struct {
	AttachmentID string
	Path         string
	Err          error
}

func (e *TransferError) Error() string {
	if e.AttachmentID != "" {
		return fmt.Sprintf("transferring attachment %s for %s: %v", e.AttachmentID, e.Path, e.Err)
	}
	return fmt.Sprintf("transferring %s: %v", e.Path, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
