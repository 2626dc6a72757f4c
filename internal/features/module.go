// Package features binds each API entity to its resource cache and its
// edit form, and implements the submit flow shared by all of them.
package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portafoglio/internal/cache"
	"portafoglio/internal/forms"
	"portafoglio/internal/log"
	"portafoglio/internal/resources"
)

// ErrInvalidForm is returned by Submit when a field fails validation.
// The form has been marked dirty so every failure is visible.
var ErrInvalidForm = errors.New("form has invalid fields")

// SubmitError carries the API's refusal reason.
type SubmitError struct {
	Code   int
	Reason string
}

func (e *SubmitError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("submit rejected (%d): %s", e.Code, e.Reason)
	}
	return "submit rejected: " + e.Reason
}

// Binding converts between an entity, form values and request payloads.
type Binding[T resources.Entity] struct {
	// Values seeds a form from an entity.
	Values func(T) forms.Values
	// Payload builds the request body from form values.
	Payload func(forms.Values) resources.Payload
}

// Options are shared by every module.
type Options struct {
	Window time.Duration
	Logger *log.Logger
	// Observer is told about successful mutations, e.g. the change feed.
	Observer resources.Observer
	// ExistTTL and ExistSize bound the memo behind "already taken" checks.
	ExistTTL  time.Duration
	ExistSize int
}

func (o Options) storeOptions() []resources.Option {
	opts := []resources.Option{resources.WithLogger(o.Logger)}
	if o.Window != 0 {
		window := o.Window
		if window < 0 {
			window = 0
		}
		opts = append(opts, resources.WithWindow(window))
	}
	if o.Observer != nil {
		opts = append(opts, resources.WithObserver(o.Observer))
	}
	return opts
}

// Module is one entity's cache plus the recipe for its form.
type Module[T resources.Entity] struct {
	Store    *resources.Store[T]
	binding  Binding[T]
	schema   func(*Module[T]) forms.Schema
	messages map[string]map[string]string
	window   time.Duration
	logger   *log.Logger
	exist    *cache.Memo[resources.Response[bool]]
}

func newModule[T resources.Entity](name string, ops resources.Operations[T], o Options,
	binding Binding[T], schema func(*Module[T]) forms.Schema, messages map[string]map[string]string,
) *Module[T] {
	if o.Logger == nil {
		o.Logger = log.Discard()
	}
	ttl, size := o.ExistTTL, o.ExistSize
	if ttl <= 0 {
		ttl = time.Minute
	}
	if size <= 0 {
		size = 256
	}
	return &Module[T]{
		Store:    resources.New(name, ops, o.storeOptions()...),
		binding:  binding,
		schema:   schema,
		messages: messages,
		window:   o.Window,
		logger:   o.Logger,
		exist: cache.NewMemo(size, ttl, func(r resources.Response[bool]) bool {
			return r.Succeeded()
		}),
	}
}

// Name returns the resource name.
func (m *Module[T]) Name() string { return m.Store.Name() }

// ExistMemo exposes the exist memo so a cache.Manager can clean it.
func (m *Module[T]) ExistMemo() *cache.Memo[resources.Response[bool]] { return m.exist }

// NewForm builds a form for item, or for a blank entity when item is nil.
func (m *Module[T]) NewForm(ctx context.Context, item *T) (*forms.Form, error) {
	seed := m.Store.Empty()
	if item != nil {
		seed = *item
	}
	return forms.New(ctx, forms.Config{
		Values:   m.binding.Values(seed),
		Schema:   m.schema(m),
		Messages: m.messages,
		Window:   m.window,
		Logger:   m.logger,
	})
}

// Exists asks the API whether id is in use. Successful answers are
// memoized and concurrent checks for the same id share one call.
func (m *Module[T]) Exists(ctx context.Context, id string) (bool, error) {
	resp := m.exist.GetOrLoad(ctx, id, func(ctx context.Context) resources.Response[bool] {
		return m.Store.Operations().Exist(ctx, id)
	})
	if !resp.Succeeded() {
		return false, fmt.Errorf("exist check %s/%s: %s", m.Name(), id, reasonOf(resp))
	}
	return resp.Body.Data, nil
}

// Submit sends the form. A blank id creates from all values; otherwise
// only the changed fields are patched onto id. On success the server's
// entity becomes the form's new baseline.
func (m *Module[T]) Submit(ctx context.Context, f *forms.Form, id string) (T, error) {
	var zero T

	f.Wait()
	if f.View().AnyInvalid {
		f.Validate()
		f.Wait()
		return zero, ErrInvalidForm
	}

	var resp resources.Response[T]
	if id == "" {
		resp = m.Store.Create(ctx, m.binding.Payload(f.Values()))
	} else {
		resp = m.Store.Update(ctx, id, m.binding.Payload(f.Changed()))
	}
	if !resp.Succeeded() {
		return zero, &SubmitError{Code: resp.Code, Reason: reasonOf(resp)}
	}

	item := resp.Body.Data
	m.exist.Forget(item.ResourceID())
	f.Set(m.binding.Values(item))
	return item, nil
}

// Remove deletes id and forgets any memoized exist answer for it.
func (m *Module[T]) Remove(ctx context.Context, id string) error {
	resp := m.Store.Remove(ctx, id)
	m.exist.Forget(id)
	if !resp.Succeeded() {
		return &SubmitError{Code: resp.Code, Reason: reasonOf(resp)}
	}
	return nil
}

// Close stops the cache's notifications.
func (m *Module[T]) Close() { m.Store.Close() }

func reasonOf[D any](r resources.Response[D]) string {
	if r.Body.Reason != "" {
		return r.Body.Reason
	}
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	return r.ErrorTitle
}

func str(v forms.Values, key string) string {
	s, _ := v[key].(string)
	return s
}

// partial copies the keys present in v through conv.
func partial(v forms.Values, conv map[string]func(any) any) resources.Payload {
	out := make(resources.Payload, len(v))
	for k, val := range v {
		if fn, ok := conv[k]; ok {
			out[k] = fn(val)
			continue
		}
		out[k] = val
	}
	return out
}
