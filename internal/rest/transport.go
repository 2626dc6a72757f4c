package rest

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"portafoglio/internal/log"
)

// ErrRateLimited is returned when the client-side request budget for the
// current minute is spent.
var ErrRateLimited = errors.New("client rate limit exceeded")

// Metrics counts calls made through a Client.
type Metrics struct {
	TotalRequests int64
	Throttled     int64
	// AverageLatency is a running mean in microseconds.
	AverageLatency int64
}

// transport wraps a RoundTripper with a fixed one-minute request window
// and latency accounting.
type transport struct {
	next   http.RoundTripper
	logger *log.Logger
	now    func() time.Time

	mu          sync.Mutex
	perMinute   int
	windowStart time.Time
	inWindow    int

	total     atomic.Int64
	throttled atomic.Int64
	avgMicros atomic.Int64
}

func newTransport(next http.RoundTripper, perMinute int, logger *log.Logger) *transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{next: next, perMinute: perMinute, logger: logger, now: time.Now}
}

// allow reports whether another request fits in the current window.
// A non-positive perMinute disables the limit.
func (t *transport) allow() bool {
	if t.perMinute <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.windowStart) >= time.Minute {
		t.windowStart = now
		t.inWindow = 0
	}
	if t.inWindow >= t.perMinute {
		return false
	}
	t.inWindow++
	return true
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.allow() {
		t.throttled.Add(1)
		t.logger.WarnContext(req.Context(), "request throttled",
			log.FieldRequestID, req.Header.Get(HeaderRequestID),
			log.FieldMethod, req.Method,
			log.FieldPath, req.URL.Path)
		return nil, ErrRateLimited
	}

	start := t.now()
	res, err := t.next.RoundTrip(req)
	elapsed := t.now().Sub(start).Microseconds()

	n := t.total.Add(1)
	for {
		old := t.avgMicros.Load()
		if t.avgMicros.CompareAndSwap(old, old+(elapsed-old)/n) {
			break
		}
	}
	return res, err
}

func (t *transport) metrics() Metrics {
	return Metrics{
		TotalRequests:  t.total.Load(),
		Throttled:      t.throttled.Load(),
		AverageLatency: t.avgMicros.Load(),
	}
}
