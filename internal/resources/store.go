package resources

import (
	"context"
	"net/url"
	"time"

	"portafoglio/internal/log"
	"portafoglio/internal/store"
)

// Option configures a Store.
type Option func(*config)

type config struct {
	window   time.Duration
	logger   *log.Logger
	observer Observer
}

// WithWindow sets the notification coalescing window.
func WithWindow(d time.Duration) Option {
	return func(c *config) { c.window = d }
}

// WithLogger attaches a logger.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithObserver reports successful create, update and remove calls to o.
func WithObserver(o Observer) Option {
	return func(c *config) { c.observer = o }
}

// Store caches one REST collection as an ordered list.
//
// Only List drives the ready-state. Read, Create, Update and Remove touch
// Items on success and leave everything unchanged on failure. Every method
// returns the operation's response untouched.
type Store[T Entity] struct {
	name     string
	ops      Operations[T]
	state    *store.Store[State[T], action]
	logger   *log.Logger
	observer Observer
}

// New creates an empty cache named name over ops.
func New[T Entity](name string, ops Operations[T], opts ...Option) *Store[T] {
	if ops == nil {
		panic("resources: nil operations for " + name)
	}
	c := config{window: store.DefaultWindow}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = log.Discard()
	}
	return &Store[T]{
		name: name,
		ops:  ops,
		state: store.New(newState[T](Initial, nil), reduce[T],
			store.WithWindow(c.window),
			store.WithLogger(c.logger),
			store.WithName(name)),
		logger:   c.logger.WithComponent(log.ComponentResources),
		observer: c.observer,
	}
}

// Name returns the resource name.
func (s *Store[T]) Name() string { return s.name }

// Empty returns a blank entity from the operation set.
func (s *Store[T]) Empty() T { return s.ops.Empty() }

// Operations exposes the underlying operation set, e.g. for Exist checks.
func (s *Store[T]) Operations() Operations[T] { return s.ops }

// State returns a snapshot of the cache.
func (s *Store[T]) State() State[T] {
	return *s.state.State()
}

// Subscribe registers l for change notifications.
func (s *Store[T]) Subscribe(l func(State[T])) (unsubscribe func()) {
	return s.state.Subscribe(func(st *State[T]) { l(*st) })
}

// List fetches the collection and replaces Items on success. The store
// becomes Ready afterwards whatever the outcome.
func (s *Store[T]) List(ctx context.Context, query url.Values) Response[[]T] {
	s.state.Dispatch(fetchStarted[T]{})
	resp := s.ops.List(ctx, query)
	ok := resp.Succeeded()
	s.state.Dispatch(fetchSettled[T]{items: resp.Body.Data, ok: ok})
	s.logResult(ctx, log.OpList, "", resp.Status, resp.Body.OK, resp.Body.Reason)
	return resp
}

// Read fetches one item and upserts it.
func (s *Store[T]) Read(ctx context.Context, id string) Response[T] {
	resp := s.ops.Read(ctx, id)
	if resp.Succeeded() {
		s.state.Dispatch(itemUpserted[T]{item: resp.Body.Data})
	}
	s.logResult(ctx, log.OpRead, id, resp.Status, resp.Body.OK, resp.Body.Reason)
	return resp
}

// Create posts payload and appends the returned entity.
func (s *Store[T]) Create(ctx context.Context, payload Payload) Response[T] {
	resp := s.ops.Create(ctx, payload)
	if resp.Succeeded() {
		s.state.Dispatch(itemAppended[T]{item: resp.Body.Data})
		s.notify(ctx, OpCreate, resp.Body.Data.ResourceID())
	}
	s.logResult(ctx, log.OpCreate, "", resp.Status, resp.Body.OK, resp.Body.Reason)
	return resp
}

// Update patches item id and replaces it with the returned entity.
func (s *Store[T]) Update(ctx context.Context, id string, payload Payload) Response[T] {
	resp := s.ops.Update(ctx, id, payload)
	if resp.Succeeded() {
		s.state.Dispatch(itemReplaced[T]{id: id, item: resp.Body.Data})
		s.notify(ctx, OpUpdate, id)
	}
	s.logResult(ctx, log.OpUpdate, id, resp.Status, resp.Body.OK, resp.Body.Reason)
	return resp
}

// Remove deletes item id and drops it from Items.
func (s *Store[T]) Remove(ctx context.Context, id string) Response[T] {
	resp := s.ops.Remove(ctx, id)
	if resp.Succeeded() {
		s.state.Dispatch(itemRemoved[T]{id: id})
		s.notify(ctx, OpRemove, id)
	}
	s.logResult(ctx, log.OpDelete, id, resp.Status, resp.Body.OK, resp.Body.Reason)
	return resp
}

// Close drops pending notifications.
func (s *Store[T]) Close() {
	s.state.Close()
}

func (s *Store[T]) notify(ctx context.Context, op Op, id string) {
	if s.observer == nil {
		return
	}
	if err := s.observer.ResourceChanged(ctx, s.name, op, id); err != nil {
		s.logger.WarnContext(ctx, "change observer failed",
			log.FieldResource, s.name, log.FieldOperation, string(op), log.FieldError, err)
	}
}

func (s *Store[T]) logResult(ctx context.Context, op, id string, status Status, ok bool, reason string) {
	fields := log.NewFields().WithResource(s.name, id).WithOperation(op)
	fields[log.FieldSuccess] = status == StatusSuccess && ok
	if reason != "" {
		fields[log.FieldReason] = reason
	}
	fields[log.FieldReadyState] = s.state.State().ReadyState.String()
	s.logger.DebugContext(ctx, "resource operation finished", fields.ToSlice()...)
}
