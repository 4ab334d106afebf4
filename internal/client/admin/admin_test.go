package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcart/backoffice/internal/client/api"
	"github.com/fieldcart/backoffice/internal/logger"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(api.New(srv.URL, time.Second, logger.Noop()))
}

func TestListUsers_WithServerPagination(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "u-1", "email": "a@example.com"},
				{"id": "u-2", "email": "b@example.com"},
			},
			"pagination": map[string]int{"total": 12, "page": 2, "totalPages": 3},
		})
	})

	page, err := c.ListUsers(context.Background(), ListOptions{Page: 2, Limit: 5})
	require.NoError(t, err)

	assert.Len(t, page.Items, 2)
	assert.Equal(t, "u-1", page.Items[0].ID)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
}

func TestListUsers_MissingPaginationComputedFromRowCount(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "u-1"}, {"id": "u-2"}, {"id": "u-3"},
			},
		})
	})

	page, err := c.ListUsers(context.Background(), ListOptions{Page: 1, Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.Page)
}

func TestListCategories_EmptyListing(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categories", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	page, err := c.ListCategories(context.Background(), ListOptions{})
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
	assert.Equal(t, 1, page.TotalPages, "an empty listing still has one page")
	assert.Equal(t, 1, page.Page)
}

func TestList_DefaultsAppliedToOptions(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	_, err := c.ListUsers(context.Background(), ListOptions{Page: -3, Limit: 0})
	require.NoError(t, err)
}

func TestList_ServerError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.ListCategories(context.Background(), ListOptions{})
	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
}
