// Package admin wraps the back-office listing endpoints for users and
// categories, normalizing the server's optional pagination envelope.
package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fieldcart/backoffice/internal/client/api"
)

// Client reads the administrative listings.
type Client struct {
	api *api.Client
}

func NewClient(client *api.Client) *Client {
	return &Client{api: client}
}

// ListOptions select one page of a listing.
type ListOptions struct {
	Page  int
	Limit int
}

func (o ListOptions) normalized() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 10
	}
	return o
}

// Page is one page of a listing with normalized pagination: when the
// server omits the pagination object, totals are computed from the
// returned row count.
type Page[T any] struct {
	Items      []T
	Total      int
	Page       int
	TotalPages int
}

// User is one row of the user listing.
type User struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	PhoneNumber      string   `json:"phoneNumber"`
	ManagementAccess bool     `json:"managementAccess"`
	Modules          []string `json:"modules"`
}

// Category is one row of the category listing.
type Category struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ParentID string   `json:"parentId"`
	Images   []string `json:"images"`
	Active   bool     `json:"active"`
}

type pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

type listResponse[T any] struct {
	Data       []T         `json:"data"`
	Pagination *pagination `json:"pagination"`
}

// ListUsers fetches one page of users. Subject to the client's 401
// refresh-and-retry.
func (c *Client) ListUsers(ctx context.Context, opts ListOptions) (Page[User], error) {
	return list[User](ctx, c.api, "/users", opts)
}

// ListCategories fetches one page of categories.
func (c *Client) ListCategories(ctx context.Context, opts ListOptions) (Page[Category], error) {
	return list[Category](ctx, c.api, "/categories", opts)
}

func list[T any](ctx context.Context, client *api.Client, path string, opts ListOptions) (Page[T], error) {
	opts = opts.normalized()

	query := url.Values{}
	query.Set("page", fmt.Sprint(opts.Page))
	query.Set("limit", fmt.Sprint(opts.Limit))

	var resp listResponse[T]
	err := client.Do(ctx, http.MethodGet, path+"?"+query.Encode(), nil, &resp, nil)
	if err != nil {
		return Page[T]{}, err
	}

	return normalize(resp, opts), nil
}

// normalize fills in pagination when the server omitted it: totals are
// computed from the returned row count, one consistent rule for every
// listing.
func normalize[T any](resp listResponse[T], opts ListOptions) Page[T] {
	page := Page[T]{
		Items: resp.Data,
		Page:  opts.Page,
	}

	if resp.Pagination != nil {
		page.Total = resp.Pagination.Total
		page.TotalPages = resp.Pagination.TotalPages
		if resp.Pagination.Page > 0 {
			page.Page = resp.Pagination.Page
		}
		return page
	}

	page.Total = len(resp.Data)
	page.TotalPages = (len(resp.Data) + opts.Limit - 1) / opts.Limit
	if page.TotalPages < 1 {
		page.TotalPages = 1
	}
	return page
}
