// Package upload implements the optimistic preview/commit protocol for
// image uploads: validate locally, show a data-URI preview immediately,
// commit to the server, then swap the preview for the remote URL or
// retract it on failure.
package upload

import (
	"context"
	"encoding/base64"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/fieldcart/backoffice/internal/client/api"
	"github.com/fieldcart/backoffice/internal/logger"
)

// Limits are the caller-supplied validation bounds for one operation.
type Limits struct {
	MaxSizeBytes  int64
	AcceptedTypes []string
	// MaxImages caps the total visible list for batch uploads.
	MaxImages int
}

// File is one image handed to the coordinator.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Handler replaces the default single-file endpoint, for callers that
// commit uploads somewhere else.
type Handler func(ctx context.Context, file File) (string, error)

// Rejection names one file that was not uploaded and why.
type Rejection struct {
	Name string
	Err  error
}

// Result reports the outcome of a batch operation.
type Result struct {
	URLs     []string
	Rejected []Rejection
}

// Coordinator owns the visible image list for one form: a mix of
// committed remote URLs and in-flight previews.
type Coordinator struct {
	api    *api.Client
	logger *logger.Logger

	mu     sync.Mutex
	images []string

	handler          Handler
	onChange         func(images []string)
	onProgress       func(percent int)
	progressInterval time.Duration
}

type Option func(*Coordinator)

// WithHandler installs a custom single-file commit handler.
func WithHandler(h Handler) Option {
	return func(c *Coordinator) { c.handler = h }
}

// WithInitialImages seeds the list with already-committed URLs.
func WithInitialImages(urls []string) Option {
	return func(c *Coordinator) { c.images = slices.Clone(urls) }
}

// WithChangeCallback observes every change to the visible list.
func WithChangeCallback(fn func(images []string)) Option {
	return func(c *Coordinator) { c.onChange = fn }
}

// WithProgressCallback observes the simulated progress percentage. The
// value is cosmetic: it is capped below 100 until the commit resolves
// and must never be used to infer completion.
func WithProgressCallback(fn func(percent int)) Option {
	return func(c *Coordinator) { c.onProgress = fn }
}

// WithProgressInterval shortens the simulated progress tick, for tests.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.progressInterval = d }
}

func NewCoordinator(client *api.Client, l *logger.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:              client,
		logger:           l,
		progressInterval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Images returns a snapshot of the visible list: previews for in-flight
// files, remote URLs for committed ones.
func (c *Coordinator) Images() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.images)
}

// Remove deletes one entry by position.
func (c *Coordinator) Remove(index int) {
	c.mu.Lock()
	if index < 0 || index >= len(c.images) {
		c.mu.Unlock()
		return
	}
	c.images = slices.Delete(c.images, index, index+1)
	c.mu.Unlock()
	c.notify()
}

func validate(file File, limits Limits) error {
	if int64(len(file.Data)) > limits.MaxSizeBytes {
		return &SizeExceededError{Name: file.Name, Size: int64(len(file.Data)), Max: limits.MaxSizeBytes}
	}
	if file.MIMEType == "" || !slices.Contains(limits.AcceptedTypes, file.MIMEType) {
		return &UnsupportedTypeError{Name: file.Name, MIMEType: file.MIMEType}
	}
	return nil
}

// PreviewDataURI encodes a file as a data URI for immediate display.
func PreviewDataURI(file File) string {
	return "data:" + file.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(file.Data)
}

type singleUploadResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Upload validates, previews and commits one image, returning its remote
// URL. The preview is visible before the network call is issued and is
// retracted entirely when the commit fails.
func (c *Coordinator) Upload(ctx context.Context, file File, limits Limits) (string, error) {
	if err := validate(file, limits); err != nil {
		return "", err
	}

	index := c.append(PreviewDataURI(file))
	c.notify()

	done := c.simulateProgress()

	url, err := c.commitSingle(ctx, file)
	if err != nil {
		done(false)
		c.retract(index, 1)
		c.notify()
		return "", &CommitError{Err: err}
	}
	done(true)

	c.replace(index, []string{url})
	c.notify()
	return url, nil
}

func (c *Coordinator) commitSingle(ctx context.Context, file File) (string, error) {
	if c.handler != nil {
		return c.handler(ctx, file)
	}

	var resp singleUploadResponse
	err := c.api.DoMultipart(ctx, "/upload/single", "file", []api.MultipartFile{{
		Name:        file.Name,
		ContentType: file.MIMEType,
		Data:        file.Data,
	}}, &resp, nil)
	if err != nil {
		return "", err
	}
	return resp.Data.URL, nil
}

type multiUploadResponse struct {
	Data struct {
		Successful []struct {
			URL string `json:"url"`
		} `json:"successful"`
		Failed []struct {
			Name   string `json:"name"`
			Reason string `json:"reason"`
		} `json:"failed"`
	} `json:"data"`
}

// UploadMany commits a batch. Oversized and wrong-type files are
// rejected by name without blocking the valid subset; a failed network
// commit retracts every preview the call added.
func (c *Coordinator) UploadMany(ctx context.Context, files []File, limits Limits) (Result, error) {
	if limits.MaxImages > 0 {
		current := len(c.Images())
		if current+len(files) > limits.MaxImages {
			return Result{}, &TooManyImagesError{Current: current, Adding: len(files), Max: limits.MaxImages}
		}
	}

	var valid []File
	var rejected []Rejection
	for _, f := range files {
		if err := validate(f, limits); err != nil {
			rejected = append(rejected, Rejection{Name: f.Name, Err: err})
			continue
		}
		valid = append(valid, f)
	}

	if len(valid) == 0 {
		return Result{Rejected: rejected}, nil
	}

	// All previews are rendered before the commit is issued.
	previews := make([]string, len(valid))
	for i, f := range valid {
		previews[i] = PreviewDataURI(f)
	}
	start := c.appendAll(previews)
	c.notify()

	done := c.simulateProgress()

	parts := make([]api.MultipartFile, len(valid))
	for i, f := range valid {
		parts[i] = api.MultipartFile{Name: f.Name, ContentType: f.MIMEType, Data: f.Data}
	}

	var resp multiUploadResponse
	err := c.api.DoMultipart(ctx, "/upload/multiple", "files", parts, &resp, nil)
	if err != nil {
		// All-or-nothing at the network level: the whole batch retracts.
		done(false)
		c.retract(start, len(valid))
		c.notify()
		return Result{Rejected: rejected}, &CommitError{Err: err}
	}
	done(true)

	urls := make([]string, 0, len(resp.Data.Successful))
	for _, s := range resp.Data.Successful {
		urls = append(urls, s.URL)
	}
	for _, f := range resp.Data.Failed {
		rejected = append(rejected, Rejection{Name: f.Name, Err: &CommitError{Err: &api.StatusError{Status: http.StatusUnprocessableEntity, Body: []byte(f.Reason)}}})
	}

	// Replace the just-added previews positionally; previews whose file
	// the server rejected are retracted.
	c.replace(start, urls)
	c.retract(start+len(urls), len(valid)-len(urls))
	c.notify()

	return Result{URLs: urls, Rejected: rejected}, nil
}

func (c *Coordinator) append(entry string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, entry)
	return len(c.images) - 1
}

func (c *Coordinator) appendAll(entries []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := len(c.images)
	c.images = append(c.images, entries...)
	return start
}

func (c *Coordinator) replace(start int, entries []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, entry := range entries {
		if start+i < len(c.images) {
			c.images[start+i] = entry
		}
	}
}

func (c *Coordinator) retract(start, count int) {
	if count <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	end := start + count
	if start > len(c.images) {
		return
	}
	if end > len(c.images) {
		end = len(c.images)
	}
	c.images = slices.Delete(c.images, start, end)
}

func (c *Coordinator) notify() {
	if c.onChange != nil {
		c.onChange(c.Images())
	}
}

// simulateProgress emits a cosmetic percentage that climbs while the
// commit is in flight, capped at 95 until the response arrives. The
// returned func stops the simulation, snapping to 100 on success.
func (c *Coordinator) simulateProgress() func(success bool) {
	if c.onProgress == nil {
		return func(bool) {}
	}

	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(c.progressInterval)
		defer ticker.Stop()
		percent := 0
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if percent < 95 {
					percent += 5
					c.onProgress(percent)
				}
			}
		}
	}()

	var once sync.Once
	return func(success bool) {
		once.Do(func() {
			close(stop)
			<-finished
			if success {
				c.onProgress(100)
			}
		})
	}
}
