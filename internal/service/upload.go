package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldcart/backoffice/internal/logger"
	"github.com/fieldcart/backoffice/internal/model"
)

// acceptedImageTypes are the content types the upload endpoints accept.
var acceptedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload validates incoming image files and commits them to object storage.
type Upload struct {
	storage       model.Storage
	bucket        string
	publicBaseURL string
	maxSizeBytes  int64
	logger        *logger.Logger
}

func NewUpload(storage model.Storage, bucket, publicBaseURL string, maxSizeBytes int64, logger *logger.Logger) *Upload {
	return &Upload{
		storage:       storage,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		maxSizeBytes:  maxSizeBytes,
		logger:        logger,
	}
}

// IncomingFile is one file extracted from a multipart request.
type IncomingFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Store validates and persists a single image, returning its descriptor.
func (u *Upload) Store(ctx context.Context, userID *uuid.UUID, file IncomingFile) (model.UploadedImage, error) {
	if int64(len(file.Data)) > u.maxSizeBytes {
		return model.UploadedImage{}, model.ErrFileTooLarge
	}
	ext, ok := acceptedImageTypes[file.ContentType]
	if !ok {
		return model.UploadedImage{}, model.ErrUnsupportedType
	}

	id := uuid.New()
	key := id.String() + ext

	err := u.storage.Upload(ctx, key, bytes.NewReader(file.Data), int64(len(file.Data)), file.ContentType)
	if err != nil {
		return model.UploadedImage{}, fmt.Errorf("failed to store image: %w", err)
	}

	img := model.UploadedImage{
		ID:           id,
		OriginalName: file.Name,
		Filename:     key,
		MIMEType:     file.ContentType,
		SizeBytes:    int64(len(file.Data)),
		Key:          key,
		Bucket:       u.bucket,
		URL:          u.publicBaseURL + "/" + key,
		UploadedBy:   userID,
		UploadedAt:   time.Now(),
	}

	u.logger.Info().Str("key", key).Int64("size", img.SizeBytes).Msg("image stored")

	return img, nil
}

// StoreBatch persists a batch of images with per-file failure isolation:
// a rejected or failed file never aborts the rest.
func (u *Upload) StoreBatch(ctx context.Context, userID *uuid.UUID, files []IncomingFile) (successful []model.UploadedImage, failed []BatchFailure) {
	for _, f := range files {
		img, err := u.Store(ctx, userID, f)
		if err != nil {
			failed = append(failed, BatchFailure{Name: f.Name, Reason: err.Error()})
			continue
		}
		successful = append(successful, img)
	}
	return successful, failed
}

// BatchFailure names one file that could not be stored.
type BatchFailure struct {
	Name   string `json:"originalName"`
	Reason string `json:"reason"`
}

// ExtFor returns the canonical extension for an accepted content type.
func ExtFor(contentType string) (string, bool) {
	ext, ok := acceptedImageTypes[contentType]
	return ext, ok
}

// CleanName strips any path components from a client-supplied filename.
func CleanName(name string) string {
	return path.Base(strings.ReplaceAll(name, "\\", "/"))
}
