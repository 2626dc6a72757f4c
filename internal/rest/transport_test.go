package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portafoglio/internal/log"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestTransport_FixedWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ok := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	tr := newTransport(ok, 2, log.Discard())
	tr.now = func() time.Time { return now }

	req := httptest.NewRequest(http.MethodGet, "http://api/x", nil)
	for i := 0; i < 2; i++ {
		if _, err := tr.RoundTrip(req); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if _, err := tr.RoundTrip(req); err != ErrRateLimited {
		t.Fatalf("third request err = %v, want ErrRateLimited", err)
	}

	now = now.Add(time.Minute)
	if _, err := tr.RoundTrip(req); err != nil {
		t.Fatalf("after window: %v", err)
	}

	m := tr.metrics()
	if m.TotalRequests != 3 || m.Throttled != 1 {
		t.Fatalf("metrics = %+v, want 3 total and 1 throttled", m)
	}
}

func TestTransport_Unlimited(t *testing.T) {
	tr := newTransport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}), 0, log.Discard())
	for i := 0; i < 100; i++ {
		if !tr.allow() {
			t.Fatalf("request %d throttled with no limit", i)
		}
	}
}

func TestDo_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"data":true}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, RequestsPerMinute: 1})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()
	if resp := Do[bool](ctx, c, http.MethodGet, "ping", nil, nil); !resp.Succeeded() {
		t.Fatalf("first call = %+v, want success", resp)
	}
	resp := Do[bool](ctx, c, http.MethodGet, "ping", nil, nil)
	if resp.Code != http.StatusTooManyRequests || resp.Succeeded() {
		t.Fatalf("second call = %+v, want 429 failure", resp)
	}
	if got := c.Metrics(); got.TotalRequests != 1 || got.Throttled != 1 {
		t.Fatalf("Metrics = %+v", got)
	}
}
