package model

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Storage persists raw image bytes under opaque keys.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// UploadedImage describes a committed image upload.
type UploadedImage struct {
	ID           uuid.UUID
	OriginalName string
	Filename     string
	MIMEType     string
	SizeBytes    int64
	Key          string
	Bucket       string
	URL          string
	UploadedBy   *uuid.UUID
	UploadedAt   time.Time
}
