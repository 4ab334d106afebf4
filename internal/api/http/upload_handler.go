package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/fieldcart/backoffice/internal/logger"
	"github.com/fieldcart/backoffice/internal/service"
)

// UploadHandler serves the image upload endpoints.
type UploadHandler struct {
	uploads  *service.Upload
	maxFiles int
	logger   *logger.Logger
}

func NewUploadHandler(uploads *service.Upload, maxFiles int, logger *logger.Logger) *UploadHandler {
	return &UploadHandler{
		uploads:  uploads,
		maxFiles: maxFiles,
		logger:   logger,
	}
}

// Single accepts one image under the multipart field "file".
func (h *UploadHandler) Single(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `multipart field "file" is required`)
		return
	}
	defer file.Close()

	incoming, err := readPart(file, header)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	img, err := h.uploads.Store(r.Context(), uploaderID(r), incoming)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("name", incoming.Name).Msg("single upload failed")
		}
		writeError(w, status, messageFor(err, status))
		return
	}

	writeJSON(w, http.StatusOK, singleUploadResponse{
		Success: true,
		Message: "file uploaded successfully",
		Data:    toImagePayload(img),
	})
}

// Multiple accepts up to maxFiles images under the multipart field "files".
// Failures are isolated per file and reported alongside the successes.
func (h *UploadHandler) Multiple(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "malformed multipart request")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, `multipart field "files" is required`)
		return
	}
	if len(headers) > h.maxFiles {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d files per request", h.maxFiles))
		return
	}

	files := make([]service.IncomingFile, 0, len(headers))
	for _, header := range headers {
		part, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		incoming, err := readPart(part, header)
		part.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		files = append(files, incoming)
	}

	successful, failed := h.uploads.StoreBatch(r.Context(), uploaderID(r), files)

	data := multiUploadData{
		Successful:   make([]imagePayload, 0, len(successful)),
		Failed:       make([]batchFailurePayload, 0, len(failed)),
		TotalFiles:   len(files),
		SuccessCount: len(successful),
		FailureCount: len(failed),
	}
	for _, img := range successful {
		data.Successful = append(data.Successful, toImagePayload(img))
	}
	for _, f := range failed {
		data.Failed = append(data.Failed, batchFailurePayload{Name: f.Name, Reason: f.Reason})
	}

	writeJSON(w, http.StatusOK, multiUploadResponse{
		Success: true,
		Message: fmt.Sprintf("%d of %d files uploaded", data.SuccessCount, data.TotalFiles),
		Data:    data,
	})
}

func readPart(file multipart.File, header *multipart.FileHeader) (service.IncomingFile, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return service.IncomingFile{}, err
	}
	return service.IncomingFile{
		Name:        service.CleanName(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func uploaderID(r *http.Request) *uuid.UUID {
	if id, ok := UserID(r.Context()); ok {
		return &id
	}
	return nil
}
