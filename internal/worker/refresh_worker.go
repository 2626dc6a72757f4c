// Package worker keeps resource caches fresh while the app is running.
package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"portafoglio/internal/amqp"
	"portafoglio/internal/log"
	"portafoglio/internal/resources"
)

// Refresher refetches one collection.
type Refresher func(ctx context.Context) error

// StoreRefresher lists s again. A failed list is reported as an error so
// the triggering message is requeued.
func StoreRefresher[T resources.Entity](s *resources.Store[T]) Refresher {
	return func(ctx context.Context) error {
		resp := s.List(ctx, nil)
		if resp.Succeeded() {
			return nil
		}
		reason := resp.Body.Reason
		if reason == "" {
			reason = resp.ErrorMessage
		}
		return fmt.Errorf("refresh %s: %s", s.Name(), reason)
	}
}

// Config tunes the polling fallback.
type Config struct {
	// PollInterval refetches every registered store when no change message
	// arrived in time. Zero disables polling.
	PollInterval time.Duration
}

// RefreshWorker routes change messages to the matching store and polls
// as a backup in case messages are lost.
type RefreshWorker struct {
	config Config
	logger *log.Logger

	mu         sync.Mutex
	refreshers map[string]Refresher
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// NewRefreshWorker creates a worker with no registered stores.
func NewRefreshWorker(cfg Config, logger *log.Logger) *RefreshWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &RefreshWorker{
		config:     cfg,
		logger:     logger.WithComponent(log.ComponentWorker),
		refreshers: make(map[string]Refresher),
	}
}

// Register binds resource name to r, replacing any earlier binding.
func (w *RefreshWorker) Register(name string, r Refresher) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.refreshers[name] = r
}

// Resources lists the registered names in order.
func (w *RefreshWorker) Resources() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.refreshers))
	for name := range w.refreshers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandleChange refreshes the store named by msg. Messages for unknown
// resources are acknowledged and skipped.
func (w *RefreshWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.mu.Lock()
	r, ok := w.refreshers[msg.Resource]
	w.mu.Unlock()
	if !ok {
		w.logger.DebugContext(ctx, "no store for change message", log.FieldResource, msg.Resource)
		return nil
	}

	start := time.Now()
	if err := r(ctx); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "store refreshed",
		log.FieldResource, msg.Resource,
		log.FieldOperation, string(msg.Op),
		log.FieldResourceID, msg.ID,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// RefreshAll refetches every registered store and returns how many failed.
func (w *RefreshWorker) RefreshAll(ctx context.Context) int {
	failed := 0
	for _, name := range w.Resources() {
		w.mu.Lock()
		r := w.refreshers[name]
		w.mu.Unlock()
		if err := r(ctx); err != nil {
			w.logger.ErrorContext(ctx, "refresh failed", log.FieldResource, name, log.FieldError, err)
			failed++
		}
	}
	return failed
}

// Start begins the polling loop. It fails if the worker already runs.
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("refresh worker is already running")
	}
	w.running = true
	stop, done := make(chan struct{}), make(chan struct{})
	w.stopCh, w.doneCh = stop, done
	w.mu.Unlock()

	go w.runLoop(ctx, stop, done)

	w.logger.InfoContext(ctx, "refresh worker started", "poll_interval", w.config.PollInterval)
	return nil
}

// Stop ends the loop and waits for it, or for ctx.
func (w *RefreshWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	stop, done := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stop)
	select {
	case <-done:
		w.logger.InfoContext(ctx, "refresh worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *RefreshWorker) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if w.config.PollInterval <= 0 {
		select {
		case <-stop:
		case <-ctx.Done():
		}
		return
	}

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RefreshAll(ctx)
		}
	}
}
