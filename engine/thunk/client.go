package thunk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// HTTPClient is the transport the thunks talk to. Implementations return the
// raw response body and an error for network failures and non-2xx statuses.
type HTTPClient interface {
	Get(ctx context.Context, path string, opts ...RequestOption) ([]byte, error)
	Put(ctx context.Context, path string, body any) ([]byte, error)
	Post(ctx context.Context, path string, body any) ([]byte, error)
	Delete(ctx context.Context, path string) ([]byte, error)
}

// Request carries the optional parts of a GET.
type Request struct {
	Query  url.Values
	Header http.Header
}

type RequestOption func(*Request)

// NewRequest applies opts to an empty request.
func NewRequest(opts ...RequestOption) *Request {
	r := &Request{Query: url.Values{}, Header: http.Header{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithQuery(key, value string) RequestOption {
	return func(r *Request) {
		r.Query.Set(key, value)
	}
}

// WithPage requests a 1-indexed page of size (0 keeps the API default).
func WithPage(page, size int) RequestOption {
	return func(r *Request) {
		r.Query.Set("page", strconv.Itoa(page))
		if size > 0 {
			r.Query.Set("page_size", strconv.Itoa(size))
		}
	}
}

// WithHeader merges h into the request headers.
func WithHeader(h http.Header) RequestOption {
	return func(r *Request) {
		for k, vs := range h {
			for _, v := range vs {
				r.Header.Add(k, v)
			}
		}
	}
}

// FilterHeader is the API header carrying a JSON filter expression.
const FilterHeader = "X-Filter"

// WithFilter sets the X-Filter header.
func WithFilter(expr string) RequestOption {
	return func(r *Request) {
		if expr != "" {
			r.Header.Set(FilterHeader, expr)
		}
	}
}

type statusCoder interface {
	StatusCode() int
}

// IsNotFound reports whether err carries a 404 status anywhere in its chain.
func IsNotFound(err error) bool {
	var sc statusCoder
	return errors.As(err, &sc) && sc.StatusCode() == http.StatusNotFound
}
