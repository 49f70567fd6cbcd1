package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rogersnm/docsync/internal/config"
)

// Service runs download and upload passes over configured collections. All
// passes share one Limiter.
type Service struct {
	remote  Remote
	cfg     *config.Config
	limiter *Limiter
	log     *slog.Logger
}

func NewService(remote Remote, cfg *config.Config, log *slog.Logger) *Service {
	if log == nil {
		log = discardLogger()
	}
	return &Service{
		remote:  remote,
		cfg:     cfg,
		limiter: NewLimiter(cfg.Concurrency),
		log:     log,
	}
}

func (s *Service) Config() *config.Config { return s.cfg }

// CollectionReport pairs a collection with the outcome of its pass. Err is
// set when the pass failed; the result may still be partially filled.
type CollectionReport struct {
	Collection config.Collection
	Dir        string
	Download   *DownloadResult
	Upload     *UploadResult
	Err        error
}

// DownloadAll downloads each collection in turn. A failing collection does not
// stop the others; the joined error covers every failure.
func (s *Service) DownloadAll(ctx context.Context, root string, cols []config.Collection, cleanup bool) ([]CollectionReport, error) {
	d := NewDownloader(s.remote, s.limiter, DownloadOptions{
		IncludeImages:   s.cfg.IncludeImages,
		EmitFrontmatter: s.cfg.EmitFrontmatter,
		Cleanup:         cleanup,
		Logger:          s.log,
	})

	var reports []CollectionReport
	var errs []error
	for _, col := range cols {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		dir := col.Dir(root)
		s.log.Info("downloading collection", "collection", col.Label(), "dir", dir)
		res, err := d.DownloadCollection(ctx, col.ID, dir)
		if err != nil {
			err = fmt.Errorf("collection %s: %w", col.Label(), err)
			errs = append(errs, err)
		}
		reports = append(reports, CollectionReport{Collection: col, Dir: dir, Download: res, Err: err})
	}
	return reports, errors.Join(errs...)
}

// UploadAll uploads each writable collection in turn. Read-only collections
// are skipped.
func (s *Service) UploadAll(ctx context.Context, root string, cols []config.Collection, updateOnly bool) ([]CollectionReport, error) {
	u := NewUploader(s.remote, s.limiter, UploadOptions{UpdateOnly: updateOnly, Logger: s.log})

	var reports []CollectionReport
	var errs []error
	for _, col := range cols {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if col.Sync.ReadOnly {
			s.log.Info("skipping read-only collection", "collection", col.Label())
			continue
		}
		dir := col.Dir(root)
		s.log.Info("uploading collection", "collection", col.Label(), "dir", dir)
		res, err := u.UploadCollection(ctx, col.ID, dir)
		if err != nil {
			err = fmt.Errorf("collection %s: %w", col.Label(), err)
			errs = append(errs, err)
		}
		reports = append(reports, CollectionReport{Collection: col, Dir: dir, Upload: res, Err: err})
	}
	return reports, errors.Join(errs...)
}
