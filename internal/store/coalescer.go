package store

import (
	"sync"
	"time"
)

// DefaultWindow matches one frame at 60fps.
const DefaultWindow = 16 * time.Millisecond

// Coalescer rate-limits calls to fn with leading and trailing semantics.
//
// The first Trigger runs fn immediately and opens a window. Triggers that
// arrive while the window is open are folded into a single trailing run
// when the window closes; that trailing run opens a new window of its own.
// A zero window disables coalescing and every Trigger runs fn.
type Coalescer struct {
	window time.Duration
	fn     func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
}

// NewCoalescer returns a Coalescer that invokes fn at most once per window.
func NewCoalescer(window time.Duration, fn func()) *Coalescer {
	if window < 0 {
		window = 0
	}
	return &Coalescer{window: window, fn: fn}
}

// Window returns the configured window size.
func (c *Coalescer) Window() time.Duration {
	return c.window
}

// Trigger requests a run of fn.
func (c *Coalescer) Trigger() {
	if c.window == 0 {
		c.fn()
		return
	}

	c.mu.Lock()
	if c.timer != nil {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.timer = time.AfterFunc(c.window, c.flush)
	c.mu.Unlock()

	c.fn()
}

func (c *Coalescer) flush() {
	c.mu.Lock()
	if !c.pending {
		c.timer = nil
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.timer = time.AfterFunc(c.window, c.flush)
	c.mu.Unlock()

	c.fn()
}

// Stop cancels any scheduled trailing run.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = false
}
