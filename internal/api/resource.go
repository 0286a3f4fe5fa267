// Package api holds typed clients for every backend resource.
package api

import (
	"context"
	"net/http"

	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/httpclient"
	"github.com/and161185/ecotour/internal/validate"
)

// Resource is the CRUD quartet shared by the catalog endpoints.
// Reads are public; mutations need a signed-in session.
type Resource[T any] struct {
	c    *httpclient.Client
	name string
	path string
}

// NewResource binds a resource name to its collection path, e.g. "/produit".
func NewResource[T any](c *httpclient.Client, name, path string) *Resource[T] {
	return &Resource[T]{c: c, name: name, path: path}
}

func (r *Resource[T]) Name() string { return r.name }
func (r *Resource[T]) Path() string { return r.path }

func (r *Resource[T]) item(id string) (string, error) {
	if id == "" {
		return "", errs.NewValidation("id", "required")
	}
	return r.path + "/" + httpclient.PathSegment(id), nil
}

// List returns the whole collection.
func (r *Resource[T]) List(ctx context.Context, opts ...httpclient.Option) ([]T, error) {
	var out []T
	if err := r.c.Get(ctx, r.path, &out, opts...); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Get returns one record by id or URI.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	p, err := r.item(id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := r.c.Get(ctx, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create validates in and posts it.
func (r *Resource[T]) Create(ctx context.Context, in *T) (*T, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var out T
	if err := r.c.Post(ctx, r.path, in, &out, httpclient.RequireAuth()); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update validates in and replaces the record at id.
func (r *Resource[T]) Update(ctx context.Context, id string, in *T) (*T, error) {
	p, err := r.item(id)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var out T
	if err := r.c.Put(ctx, p, in, &out, httpclient.RequireAuth()); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the record at id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	p, err := r.item(id)
	if err != nil {
		return err
	}
	return r.c.Do(ctx, http.MethodDelete, p, nil, nil, httpclient.RequireAuth())
}

// Browsable is the untyped view of a Resource used for generic listing.
type Browsable interface {
	Name() string
	ListAll(ctx context.Context) (any, error)
	GetOne(ctx context.Context, id string) (any, error)
	Remove(ctx context.Context, id string) error
}

var _ Browsable = (*Resource[struct{}])(nil)

func (r *Resource[T]) ListAll(ctx context.Context) (any, error)          { return r.List(ctx) }
func (r *Resource[T]) GetOne(ctx context.Context, id string) (any, error) { return r.Get(ctx, id) }
func (r *Resource[T]) Remove(ctx context.Context, id string) error        { return r.Delete(ctx, id) }
