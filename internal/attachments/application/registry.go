// Package application contains the attachment registry: per-task attachment
// listing, upload, deletion, and signed download URLs. The registry's
// lifecycle is independent of the task store; it is invoked on demand when a
// task's detail view opens.
package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/attachments/domain"
	"github.com/felixgeelhaar/taskdeck/internal/identity"
	"github.com/felixgeelhaar/taskdeck/internal/shared/infrastructure/notify"
	"github.com/google/uuid"
)

// DefaultURLTTL is the lifetime of a signed download URL.
const DefaultURLTTL = time.Hour

// Registry coordinates attachment metadata and binaries for the current
// owner. Binary and metadata writes are two separate operations; a partial
// failure is surfaced as an error and the orphaned side is left in place.
type Registry struct {
	repo     domain.Repository
	blobs    domain.BlobStore
	session  identity.Session
	notifier notify.Notifier
	logger   *slog.Logger
	urlTTL   time.Duration
}

// NewRegistry constructs a registry. A non-positive urlTTL falls back to
// DefaultURLTTL.
func NewRegistry(repo domain.Repository, blobs domain.BlobStore, session identity.Session, notifier notify.Notifier, logger *slog.Logger, urlTTL time.Duration) *Registry {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if urlTTL <= 0 {
		urlTTL = DefaultURLTTL
	}
	return &Registry{
		repo:     repo,
		blobs:    blobs,
		session:  session,
		notifier: notifier,
		logger:   logger,
		urlTTL:   urlTTL,
	}
}

// List fetches the task's attachments, newest-first. Failure is reported to
// the caller but is never fatal to the task flow.
func (r *Registry) List(ctx context.Context, taskID uuid.UUID) ([]domain.Attachment, error) {
	attachments, err := r.repo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing: %v", domain.ErrAttachment, err)
	}
	return attachments, nil
}

// Upload validates the file locally, stores the binary under a path
// namespaced by owner and task, then records the metadata. If the metadata
// insert fails after the binary was stored, the orphaned binary stays; the
// error tells the caller which half failed.
func (r *Registry) Upload(ctx context.Context, taskID uuid.UUID, fileName, mimeType string, size int64, file io.Reader) (domain.Attachment, error) {
	owner, ok := r.session.OwnerID()
	if !ok {
		return domain.Attachment{}, nil
	}

	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return domain.Attachment{}, domain.ErrEmptyFileName
	}
	if size > domain.MaxUploadBytes {
		r.notifier.Error("File too large", domain.ErrTooLarge)
		return domain.Attachment{}, domain.ErrTooLarge
	}

	storagePath := path.Join(
		owner.String(),
		taskID.String(),
		fmt.Sprintf("%d_%s", time.Now().UnixMilli(), path.Base(fileName)),
	)

	if err := r.blobs.Store(ctx, storagePath, file, size); err != nil {
		err = fmt.Errorf("%w: storing binary: %v", domain.ErrAttachment, err)
		r.notifier.Error("Error uploading file", err)
		return domain.Attachment{}, err
	}

	att := domain.Attachment{
		ID:          uuid.New(),
		TaskID:      taskID,
		FileName:    fileName,
		StoragePath: storagePath,
		SizeBytes:   size,
		MimeType:    mimeType,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.repo.Insert(ctx, att); err != nil {
		// The stored binary is now orphaned; accepted, see package comment.
		err = fmt.Errorf("%w: saving metadata: %v", domain.ErrAttachment, err)
		r.notifier.Error("Error saving attachment", err)
		return domain.Attachment{}, err
	}

	r.notifier.Info("File uploaded")
	return att, nil
}

// Delete removes the binary and then the metadata. A failing binary removal
// is logged and the metadata delete proceeds anyway; the record must not
// keep pointing at a file the user asked to remove.
func (r *Registry) Delete(ctx context.Context, att domain.Attachment) error {
	if err := r.blobs.Delete(ctx, att.StoragePath); err != nil {
		r.logger.WarnContext(ctx, "deleting attachment binary failed",
			"storage_path", att.StoragePath,
			"error", err,
		)
	}

	if err := r.repo.Delete(ctx, att.ID); err != nil {
		err = fmt.Errorf("%w: deleting metadata: %v", domain.ErrAttachment, err)
		r.notifier.Error("Error deleting attachment", err)
		return err
	}

	r.notifier.Info("Attachment deleted")
	return nil
}

// DownloadURL obtains a short-lived access URL for the stored binary. URLs
// are never cached; every call signs afresh.
func (r *Registry) DownloadURL(ctx context.Context, storagePath string) (string, error) {
	url, err := r.blobs.SignedURL(ctx, storagePath, r.urlTTL)
	if err != nil {
		return "", fmt.Errorf("%w: signing url: %v", domain.ErrAttachment, err)
	}
	return url, nil
}
