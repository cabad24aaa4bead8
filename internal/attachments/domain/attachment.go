// Package domain holds the attachment model and the contracts the registry
// expects from the metadata store and the binary store.
package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// MaxUploadBytes is the upload size ceiling. Files above it are rejected
// locally, before any byte reaches the network.
const MaxUploadBytes = 10 << 20 // 10 MiB

var (
	// ErrTooLarge marks an upload above MaxUploadBytes.
	ErrTooLarge = errors.New("file exceeds the 10 MiB upload limit")
	// ErrEmptyFileName marks an upload without a usable file name.
	ErrEmptyFileName = errors.New("file name cannot be empty")
	// ErrAttachment classifies storage and metadata failures. Attachment
	// trouble never fails the surrounding task flow.
	ErrAttachment = errors.New("attachment operation failed")
)

// Attachment is the metadata record of one uploaded file. The binary itself
// lives in the blob store under StoragePath.
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	TaskID      uuid.UUID `json:"task_id"`
	FileName    string    `json:"file_name"`
	StoragePath string    `json:"storage_path"`
	SizeBytes   int64     `json:"size_bytes"`
	MimeType    string    `json:"mime_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository stores attachment metadata.
type Repository interface {
	// ListByTask returns a task's attachments, newest-first.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]Attachment, error)
	Insert(ctx context.Context, a Attachment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BlobStore holds the attachment binaries.
type BlobStore interface {
	Store(ctx context.Context, path string, r io.Reader, size int64) error
	Delete(ctx context.Context, path string) error
	// SignedURL returns a short-lived access URL for the binary at path.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
