package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"imtr/backend/internal/dto"
)

// ErrSuperseded returned by a fetch whose result was dropped because a newer
// fetch of the same list started after it
var ErrSuperseded = errors.New("list fetch superseded by a newer request")

// Pagination page metadata as returned by every list endpoint
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
}

// Summary "Showing 1 to 20 of 45 results"
func (p Pagination) Summary() string {
	if p.Total == 0 || p.PerPage <= 0 || p.CurrentPage <= 0 {
		return "No results"
	}
	from := int64(p.CurrentPage-1)*int64(p.PerPage) + 1
	to := int64(p.CurrentPage) * int64(p.PerPage)
	if to > p.Total {
		to = p.Total
	}
	return fmt.Sprintf("Showing %d to %d of %d results", from, to, p.Total)
}

// HasPrev false on the first page
func (p Pagination) HasPrev() bool {
	return p.CurrentPage > 1
}

// HasNext false on the last page
func (p Pagination) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}

// ListFetcher keeps the state of one paginated, filterable list: filters,
// current page, last items and pagination. Only the newest fetch may update
// that state; starting a fetch cancels the one in flight.
type ListFetcher[T any] struct {
	client *Client
	path   string
	key    string

	mu         sync.Mutex
	filters    url.Values
	page       int
	items      []T
	pagination Pagination
	generation uint64
	cancel     context.CancelFunc
	loading    bool
}

// NewListFetcher list at path whose entities sit under data.<key>
func NewListFetcher[T any](c *Client, path, key string) *ListFetcher[T] {
	return &ListFetcher[T]{
		client:  c,
		path:    path,
		key:     key,
		filters: url.Values{},
		page:    1,
	}
}

// Students enrolled students
func (c *Client) Students() *ListFetcher[dto.StudentResponse] {
	return NewListFetcher[dto.StudentResponse](c, "/students", "students")
}

// PendingRegistrations registrations awaiting review
func (c *Client) PendingRegistrations() *ListFetcher[dto.PendingRegistrationResponse] {
	return NewListFetcher[dto.PendingRegistrationResponse](c, "/student-approvals/pending", "students")
}

// Invoices finance invoice list
func (c *Client) Invoices() *ListFetcher[dto.InvoiceResponse] {
	return NewListFetcher[dto.InvoiceResponse](c, "/finance/invoices", "invoices")
}

// Fetch loads page with the current filters
func (f *ListFetcher[T]) Fetch(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.generation++
	gen := f.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.loading = true

	query := url.Values{}
	for k, v := range f.filters {
		query[k] = append([]string(nil), v...)
	}
	query.Set("page", strconv.Itoa(page))
	f.mu.Unlock()
	defer cancel()

	var data map[string]json.RawMessage
	err := f.client.do(fetchCtx, http.MethodGet, f.path, query, nil, &data)

	var items []T
	var pagination Pagination
	if err == nil {
		if raw, ok := data[f.key]; ok {
			if err = json.Unmarshal(raw, &items); err != nil {
				err = fmt.Errorf("decode %s: %w", f.key, err)
			}
		}
		if raw, ok := data["pagination"]; ok && err == nil {
			if err = json.Unmarshal(raw, &pagination); err != nil {
				err = fmt.Errorf("decode pagination: %w", err)
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		return ErrSuperseded
	}
	f.loading = false
	f.cancel = nil
	if err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	f.items = items
	f.pagination = pagination
	f.page = page
	return nil
}

// SetFilter merges one filter (an empty value removes it) and reloads page 1
func (f *ListFetcher[T]) SetFilter(ctx context.Context, key, value string) error {
	f.mu.Lock()
	if value == "" {
		f.filters.Del(key)
	} else {
		f.filters.Set(key, value)
	}
	f.mu.Unlock()
	return f.Fetch(ctx, 1)
}

// SetSort changes the ordering and reloads page 1
func (f *ListFetcher[T]) SetSort(ctx context.Context, sortBy, sortOrder string) error {
	f.mu.Lock()
	f.filters.Set("sortBy", sortBy)
	if sortOrder == "" {
		f.filters.Del("sortOrder")
	} else {
		f.filters.Set("sortOrder", sortOrder)
	}
	f.mu.Unlock()
	return f.Fetch(ctx, 1)
}

// Refresh reloads the current page with the current filters
func (f *ListFetcher[T]) Refresh(ctx context.Context) error {
	f.mu.Lock()
	page := f.page
	f.mu.Unlock()
	return f.Fetch(ctx, page)
}

// Items rows of the last successful fetch
func (f *ListFetcher[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]T(nil), f.items...)
}

// Pagination metadata of the last successful fetch
func (f *ListFetcher[T]) Pagination() Pagination {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pagination
}

// Page last successfully loaded page
func (f *ListFetcher[T]) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

// Filter current value of a filter
func (f *ListFetcher[T]) Filter(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters.Get(key)
}

// Loading true while a fetch is in flight
func (f *ListFetcher[T]) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}
