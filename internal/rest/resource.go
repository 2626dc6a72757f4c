package rest

import (
	"context"
	"net/http"
	"net/url"

	"portafoglio/internal/core"
	"portafoglio/internal/resources"
)

// Resource implements resources.Operations over one API collection.
type Resource[T resources.Entity] struct {
	client    *Client
	path      string
	singleton bool
	empty     func() T
}

// ResourceOption customizes a Resource.
type ResourceOption[T resources.Entity] func(*Resource[T])

// WithEmpty sets the blank entity returned by Empty.
func WithEmpty[T resources.Entity](fn func() T) ResourceOption[T] {
	return func(r *Resource[T]) { r.empty = fn }
}

// NewResource maps a collection at path: GET path, GET path/id, POST path,
// PATCH path/id, DELETE path/id and GET path/id/exist.
func NewResource[T resources.Entity](c *Client, path string, opts ...ResourceOption[T]) *Resource[T] {
	r := &Resource[T]{client: c, path: path}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewSingleton maps a resource with exactly one instance per user, such
// as the budget. Every id argument is ignored and List yields one item.
func NewSingleton[T resources.Entity](c *Client, path string, opts ...ResourceOption[T]) *Resource[T] {
	r := NewResource(c, path, opts...)
	r.singleton = true
	return r
}

// Path returns the collection path.
func (r *Resource[T]) Path() string { return r.path }

func (r *Resource[T]) item(id string) string {
	if r.singleton {
		return r.path
	}
	return r.path + "/" + url.PathEscape(id)
}

func (r *Resource[T]) List(ctx context.Context, query url.Values) resources.Response[[]T] {
	if !r.singleton {
		return Do[[]T](ctx, r.client, http.MethodGet, r.path, query, nil)
	}
	one := Do[T](ctx, r.client, http.MethodGet, r.path, query, nil)
	out := resources.Response[[]T]{
		Status:       one.Status,
		Code:         one.Code,
		ErrorTitle:   one.ErrorTitle,
		ErrorMessage: one.ErrorMessage,
		Body:         resources.Body[[]T]{OK: one.Body.OK, Reason: one.Body.Reason},
	}
	if one.Succeeded() {
		out.Body.Data = []T{one.Body.Data}
	}
	return out
}

func (r *Resource[T]) Read(ctx context.Context, id string) resources.Response[T] {
	return Do[T](ctx, r.client, http.MethodGet, r.item(id), nil, nil)
}

func (r *Resource[T]) Create(ctx context.Context, payload resources.Payload) resources.Response[T] {
	method := http.MethodPost
	if r.singleton {
		method = http.MethodPut
	}
	return Do[T](ctx, r.client, method, r.path, nil, payload)
}

func (r *Resource[T]) Update(ctx context.Context, id string, payload resources.Payload) resources.Response[T] {
	return Do[T](ctx, r.client, http.MethodPatch, r.item(id), nil, payload)
}

func (r *Resource[T]) Remove(ctx context.Context, id string) resources.Response[T] {
	return Do[T](ctx, r.client, http.MethodDelete, r.item(id), nil, nil)
}

func (r *Resource[T]) Exist(ctx context.Context, id string) resources.Response[bool] {
	return Do[bool](ctx, r.client, http.MethodGet, r.item(id)+"/exist", nil, nil)
}

func (r *Resource[T]) Empty() T {
	if r.empty != nil {
		return r.empty()
	}
	var zero T
	return zero
}

var _ resources.Operations[core.Category] = (*Resource[core.Category])(nil)
