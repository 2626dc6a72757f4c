package resources

import (
	"context"
	"net/url"
)

// Entity is anything cached by a Store. IDs are stable strings.
type Entity interface {
	ResourceID() string
}

// Payload is the JSON body sent on create and update.
type Payload map[string]any

// Operations is the REST operation set a feature module supplies.
type Operations[T Entity] interface {
	List(ctx context.Context, query url.Values) Response[[]T]
	Read(ctx context.Context, id string) Response[T]
	Create(ctx context.Context, payload Payload) Response[T]
	Update(ctx context.Context, id string, payload Payload) Response[T]
	Remove(ctx context.Context, id string) Response[T]
	Exist(ctx context.Context, id string) Response[bool]
	// Empty returns a blank entity used to seed create forms.
	Empty() T
}

// Op names a cache mutation reported to an Observer.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Observer is told about successful mutations.
type Observer interface {
	ResourceChanged(ctx context.Context, resource string, op Op, id string) error
}
