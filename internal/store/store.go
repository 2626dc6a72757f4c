package store

import (
	"sync"
	"time"

	"portafoglio/internal/log"
)

// Reducer computes the next state from the current state and an action.
// It returns state itself when the action changes nothing.
type Reducer[S, A any] func(state *S, action A) *S

// Listener receives the latest state on every fan-out.
type Listener[S any] func(state *S)

// Option configures a Store.
type Option func(*options)

type options struct {
	window time.Duration
	logger *log.Logger
	name   string
}

// WithWindow sets the notification coalescing window. Zero disables coalescing.
func WithWindow(d time.Duration) Option {
	return func(o *options) { o.window = d }
}

// WithLogger attaches a logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithName labels the store in log output.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// Store is a reducer-driven observable container.
type Store[S, A any] struct {
	name   string
	logger *log.Logger

	mu     sync.Mutex
	state  *S
	reduce Reducer[S, A]

	subsMu  sync.RWMutex
	subs    map[uint64]Listener[S]
	nextKey uint64

	// notifying is set while listeners run; again records a fan-out
	// requested meanwhile, which the running loop then performs.
	fanoutMu  sync.Mutex
	notifying bool
	again     bool
	notifier  *Coalescer
}

// New creates a store holding initial and reduced by reduce.
// It panics when reduce is nil.
func New[S, A any](initial *S, reduce Reducer[S, A], opts ...Option) *Store[S, A] {
	if reduce == nil {
		panic("store: nil reducer")
	}
	o := options{window: DefaultWindow, name: "store"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Discard()
	}

	s := &Store[S, A]{
		name:   o.name,
		logger: o.logger.WithComponent(log.ComponentStore),
		state:  initial,
		reduce: reduce,
		subs:   make(map[uint64]Listener[S]),
	}
	s.notifier = NewCoalescer(o.window, s.fanout)
	return s
}

// State returns the current state. Callers must treat it as read-only.
func (s *Store[S, A]) State() *S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action through the reducer. Listeners are notified
// only when the reducer returns a new state pointer.
func (s *Store[S, A]) Dispatch(action A) {
	s.mu.Lock()
	prev := s.state
	next := s.reduce(prev, action)
	s.state = next
	s.mu.Unlock()

	if prev == next {
		return
	}
	s.notifier.Trigger()
}

// Subscribe registers l and returns a function that removes it.
// The returned function may be called more than once.
func (s *Store[S, A]) Subscribe(l Listener[S]) (unsubscribe func()) {
	s.subsMu.Lock()
	s.nextKey++
	key := s.nextKey
	s.subs[key] = l
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, key)
		s.subsMu.Unlock()
	}
}

// Subscribers reports how many listeners are attached.
func (s *Store[S, A]) Subscribers() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.subs)
}

// Close drops any pending trailing notification.
func (s *Store[S, A]) Close() {
	s.notifier.Stop()
}

// fanout runs listeners without holding a lock, so a listener may
// dispatch. Nested or concurrent requests are folded into another pass
// of the running loop, which always hands out the latest state.
func (s *Store[S, A]) fanout() {
	s.fanoutMu.Lock()
	if s.notifying {
		s.again = true
		s.fanoutMu.Unlock()
		return
	}
	s.notifying = true
	s.fanoutMu.Unlock()

	defer func() {
		s.fanoutMu.Lock()
		s.notifying, s.again = false, false
		s.fanoutMu.Unlock()
	}()

	for {
		s.notifyOnce()

		s.fanoutMu.Lock()
		if !s.again {
			s.fanoutMu.Unlock()
			return
		}
		s.again = false
		s.fanoutMu.Unlock()
	}
}

func (s *Store[S, A]) notifyOnce() {
	s.subsMu.RLock()
	listeners := make([]Listener[S], 0, len(s.subs))
	for _, l := range s.subs {
		listeners = append(listeners, l)
	}
	s.subsMu.RUnlock()

	state := s.State()
	s.logger.Debug("notifying subscribers", log.FieldStore, s.name, log.FieldSubscribers, len(listeners))
	for _, l := range listeners {
		l(state)
	}
}
