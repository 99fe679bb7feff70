package api

import (
	"net/http"
	"net/url"
	"strconv"
)

type requestOptions struct {
	header http.Header
	query  url.Values
}

// Option adjusts a single request.
type Option func(*requestOptions)

// WithHeader sets a header. It overrides any default the client would send.
func WithHeader(key, value string) Option {
	return func(o *requestOptions) { o.header.Set(key, value) }
}

// WithQuery adds a query parameter.
func WithQuery(key, value string) Option {
	return func(o *requestOptions) { o.query.Add(key, value) }
}

// WithPage adds the 0-based page and size parameters of list endpoints.
func WithPage(page, size int) Option {
	return func(o *requestOptions) {
		o.query.Set("page", strconv.Itoa(page))
		o.query.Set("size", strconv.Itoa(size))
	}
}

// WithUserID sends X-User-Id when id is known. A zero id sends nothing.
func WithUserID(id int64) Option {
	return func(o *requestOptions) {
		if id > 0 {
			o.header.Set(HeaderUserID, strconv.FormatInt(id, 10))
		}
	}
}

func collect(opts []Option) requestOptions {
	o := requestOptions{header: http.Header{}, query: url.Values{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
