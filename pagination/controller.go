package pagination

import (
	"context"
	"errors"
)

// ErrPageOutOfRange is returned when a page outside the known range is
// requested; no fetch is issued.
var ErrPageOutOfRange = errors.New("page out of range")

// Query is the state a list screen fetches with.
type Query struct {
	Page   int
	Size   int
	Filter string
}

// FetchFunc loads one page for q.
type FetchFunc[T any] func(ctx context.Context, q Query) (PageResult[T], error)

// Controller keeps the page, size and filter of one list screen.
type Controller[T any] struct {
	query   Query
	fetch   FetchFunc[T]
	current PageResult[T]
	loaded  bool
}

func NewController[T any](size int, fetch FetchFunc[T]) *Controller[T] {
	if size <= 0 {
		size = 10
	}
	return &Controller[T]{query: Query{Size: size}, fetch: fetch}
}

func (c *Controller[T]) Query() Query { return c.query }

// Current is the last successfully loaded page.
func (c *Controller[T]) Current() PageResult[T] { return c.current }

// Strip is the button strip for the current page.
func (c *Controller[T]) Strip() []Button {
	if !c.loaded {
		return nil
	}
	return Strip(c.current.TotalPages, c.current.Number)
}

// Reload fetches the current query again. A response that does not say
// which page it is counts as the page that was requested.
func (c *Controller[T]) Reload(ctx context.Context) (PageResult[T], error) {
	res, err := c.fetch(ctx, c.query)
	if err != nil {
		return c.current, err
	}
	res = res.at(c.query.Page)
	c.current, c.loaded = res, true
	return res, nil
}

// ChangePage moves to page n and fetches it. Pages outside [0, totalPages)
// of the last loaded result are refused. On failure the previous page is kept.
func (c *Controller[T]) ChangePage(ctx context.Context, n int) (PageResult[T], error) {
	if n < 0 || (c.loaded && n >= c.current.TotalPages && !(n == 0 && c.current.TotalPages == 0)) {
		return c.current, ErrPageOutOfRange
	}
	prev := c.query.Page
	c.query.Page = n
	res, err := c.Reload(ctx)
	if err != nil {
		c.query.Page = prev
	}
	return res, err
}

// SetFilter applies a new filter or search term. A changed filter starts again
// from the first page. On failure the previous filter and page are kept.
func (c *Controller[T]) SetFilter(ctx context.Context, filter string) (PageResult[T], error) {
	prev := c.query
	if filter != c.query.Filter {
		c.query.Filter = filter
		c.query.Page = 0
	}
	res, err := c.Reload(ctx)
	if err != nil {
		c.query = prev
	}
	return res, err
}
