package upload

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcart/backoffice/internal/client/api"
	"github.com/fieldcart/backoffice/internal/logger"
)

var testLimits = Limits{
	MaxSizeBytes:  100,
	AcceptedTypes: []string{"image/png", "image/jpeg"},
	MaxImages:     10,
}

func pngFile(name string, size int) File {
	return File{Name: name, MIMEType: "image/png", Data: make([]byte, size)}
}

func newAPIClient(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.New(srv.URL, time.Second, logger.Noop())
}

// echoBatchServer commits every received file as https://cdn.test/<name>.
func echoBatchServer(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		var successful []map[string]string
		for _, h := range r.MultipartForm.File["files"] {
			successful = append(successful, map[string]string{"url": "https://cdn.test/" + h.Filename})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"successful": successful},
		})
	}
}

func TestUpload_PreviewBeforeCommitThenSwap(t *testing.T) {
	var previewAtCommit string
	var c *Coordinator
	handler := func(_ context.Context, _ File) (string, error) {
		images := c.Images()
		require.Len(t, images, 1)
		previewAtCommit = images[0]
		return "https://cdn.test/photo.png", nil
	}

	c = NewCoordinator(nil, logger.Noop(), WithHandler(handler))

	url, err := c.Upload(context.Background(), pngFile("photo.png", 10), testLimits)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(previewAtCommit, "data:image/png;base64,"),
		"the preview must be visible before the commit resolves")
	assert.Equal(t, "https://cdn.test/photo.png", url)
	assert.Equal(t, []string{"https://cdn.test/photo.png"}, c.Images())
}

func TestUpload_ValidationBeforeAnyNetwork(t *testing.T) {
	called := false
	c := NewCoordinator(nil, logger.Noop(), WithHandler(func(context.Context, File) (string, error) {
		called = true
		return "", nil
	}))

	t.Run("oversized", func(t *testing.T) {
		_, err := c.Upload(context.Background(), pngFile("big.png", 500), testLimits)
		var sizeErr *SizeExceededError
		require.ErrorAs(t, err, &sizeErr)
		assert.Equal(t, "big.png", sizeErr.Name)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := c.Upload(context.Background(), File{Name: "doc.pdf", MIMEType: "application/pdf", Data: []byte("x")}, testLimits)
		var typeErr *UnsupportedTypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, "doc.pdf", typeErr.Name)
	})

	assert.False(t, called)
	assert.Empty(t, c.Images())
}

func TestUpload_FailureRetractsPreview(t *testing.T) {
	var changes [][]string
	c := NewCoordinator(nil, logger.Noop(),
		WithHandler(func(context.Context, File) (string, error) {
			return "", errors.New("commit failed")
		}),
		WithChangeCallback(func(images []string) {
			changes = append(changes, images)
		}),
	)

	_, err := c.Upload(context.Background(), pngFile("photo.png", 10), testLimits)

	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Empty(t, c.Images(), "a failed commit leaves no partial state")

	// The preview appeared, then was retracted.
	require.Len(t, changes, 2)
	assert.Len(t, changes[0], 1)
	assert.Empty(t, changes[1])
}

func TestUpload_DefaultEndpoint(t *testing.T) {
	client := newAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload/single", r.URL.Path)
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]string{"url": "https://cdn.test/a.png"},
		})
	})

	c := NewCoordinator(client, logger.Noop())
	url, err := c.Upload(context.Background(), pngFile("a.png", 10), testLimits)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/a.png", url)
}

func TestUploadMany_PartialFailureIsolation(t *testing.T) {
	c := NewCoordinator(newAPIClient(t, echoBatchServer(t)), logger.Noop())

	files := []File{
		pngFile("1.png", 10),
		pngFile("2.png", 10),
		pngFile("3.png", 500),
		pngFile("4.png", 10),
		pngFile("5.png", 10),
	}

	result, err := c.UploadMany(context.Background(), files, testLimits)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://cdn.test/1.png",
		"https://cdn.test/2.png",
		"https://cdn.test/4.png",
		"https://cdn.test/5.png",
	}, result.URLs)

	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "3.png", result.Rejected[0].Name)
	var sizeErr *SizeExceededError
	assert.ErrorAs(t, result.Rejected[0].Err, &sizeErr)

	for _, url := range result.URLs {
		assert.NotContains(t, url, "3.png")
	}
	assert.Equal(t, result.URLs, c.Images())
}

func TestUploadMany_NetworkFailureRetractsWholeBatch(t *testing.T) {
	client := newAPIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	committed := []string{"https://cdn.test/existing.png"}
	c := NewCoordinator(client, logger.Noop(), WithInitialImages(committed))

	files := []File{pngFile("a.png", 10), pngFile("b.png", 10), pngFile("c.png", 10)}

	_, err := c.UploadMany(context.Background(), files, testLimits)

	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, committed, c.Images(), "every preview added by the failed batch is retracted")
}

func TestUploadMany_CapacityCheckPrecedesValidation(t *testing.T) {
	c := NewCoordinator(nil, logger.Noop(),
		WithInitialImages([]string{"a", "b", "c"}),
		WithHandler(func(context.Context, File) (string, error) {
			t.Fatal("no network call expected")
			return "", nil
		}),
	)

	limits := testLimits
	limits.MaxImages = 4

	// Even an invalid file counts against capacity before validation runs.
	_, err := c.UploadMany(context.Background(), []File{pngFile("x.png", 10), pngFile("huge.png", 500)}, limits)

	var capErr *TooManyImagesError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 3, capErr.Current)
	assert.Equal(t, 2, capErr.Adding)
	assert.Equal(t, []string{"a", "b", "c"}, c.Images())
}

func TestUploadMany_AllFilesInvalidSkipsNetwork(t *testing.T) {
	c := NewCoordinator(nil, logger.Noop())

	result, err := c.UploadMany(context.Background(), []File{
		pngFile("big.png", 500),
		{Name: "doc.pdf", MIMEType: "application/pdf", Data: []byte("x")},
	}, testLimits)

	require.NoError(t, err)
	assert.Empty(t, result.URLs)
	assert.Len(t, result.Rejected, 2)
	assert.Empty(t, c.Images())
}

func TestUploadMany_PreservesPreviouslyCommittedImages(t *testing.T) {
	c := NewCoordinator(newAPIClient(t, echoBatchServer(t)), logger.Noop(),
		WithInitialImages([]string{"https://cdn.test/existing.png"}))

	result, err := c.UploadMany(context.Background(), []File{pngFile("new.png", 10)}, testLimits)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://cdn.test/existing.png",
		"https://cdn.test/new.png",
	}, c.Images())
	assert.Equal(t, []string{"https://cdn.test/new.png"}, result.URLs)
}

func TestSimulatedProgress(t *testing.T) {
	var progress []int
	block := make(chan struct{})

	c := NewCoordinator(nil, logger.Noop(),
		WithHandler(func(context.Context, File) (string, error) {
			<-block
			return "https://cdn.test/p.png", nil
		}),
		WithProgressCallback(func(percent int) {
			progress = append(progress, percent)
		}),
		WithProgressInterval(time.Millisecond),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Upload(context.Background(), pngFile("p.png", 10), testLimits)
		assert.NoError(t, err)
	}()

	// Let the simulation run long enough to hit its cap.
	time.Sleep(50 * time.Millisecond)
	close(block)
	<-done

	require.NotEmpty(t, progress)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1], "progress is monotonic")
	}
	for _, p := range progress[:len(progress)-1] {
		assert.LessOrEqual(t, p, 95, "progress stays capped until the commit resolves")
	}
	assert.Equal(t, 100, progress[len(progress)-1], "completion snaps to 100")
}

func TestRemove(t *testing.T) {
	c := NewCoordinator(nil, logger.Noop(), WithInitialImages([]string{"a", "b", "c"}))

	c.Remove(1)
	assert.Equal(t, []string{"a", "c"}, c.Images())

	c.Remove(10)
	c.Remove(-1)
	assert.Equal(t, []string{"a", "c"}, c.Images())
}
