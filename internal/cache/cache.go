// Package cache memoizes lookups that back async validators, such as the
// "id already taken" check on the category form.
package cache

import (
	"context"
	"time"

	"portafoglio/internal/log"
)

// Cache is the key/value surface shared by the caches in this package.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans registered caches until its context ends.
type Manager struct {
	caches []Cleaner
	logger *log.Logger
	done   chan struct{}
}

// NewManager creates a manager that logs through logger.
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{logger: logger.WithComponent(log.ComponentCache)}
}

// Register adds c to the cleanup set. Call before Start.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Start cleans every interval on a goroutine until ctx is done.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	m.done = make(chan struct{})
	go m.run(ctx, interval)
}

// Wait blocks until the cleanup goroutine has exited.
func (m *Manager) Wait() {
	if m.done != nil {
		<-m.done
	}
}

func (m *Manager) run(ctx context.Context, interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				m.logger.Debug("expired cache entries removed", log.FieldItems, n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// CleanNow cleans every registered cache once and returns the total removed.
func (m *Manager) CleanNow() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}
