package worker

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"portafoglio/internal/amqp"
	"portafoglio/internal/core"
	"portafoglio/internal/resources"
)

type listOps struct {
	calls atomic.Int32
	resp  resources.Response[[]core.Category]
}

func (o *listOps) List(context.Context, url.Values) resources.Response[[]core.Category] {
	o.calls.Add(1)
	return o.resp
}
func (o *listOps) Read(context.Context, string) resources.Response[core.Category] {
	return resources.Rejected[core.Category]("unused")
}
func (o *listOps) Create(context.Context, resources.Payload) resources.Response[core.Category] {
	return resources.Rejected[core.Category]("unused")
}
func (o *listOps) Update(context.Context, string, resources.Payload) resources.Response[core.Category] {
	return resources.Rejected[core.Category]("unused")
}
func (o *listOps) Remove(context.Context, string) resources.Response[core.Category] {
	return resources.Rejected[core.Category]("unused")
}
func (o *listOps) Exist(context.Context, string) resources.Response[bool] {
	return resources.Success(false)
}
func (o *listOps) Empty() core.Category { return core.Category{} }

func TestHandleChange_RoutesToStore(t *testing.T) {
	ops := &listOps{resp: resources.Success([]core.Category{{ID: "food", Title: "Food", Kind: core.Expense}})}
	store := resources.New[core.Category]("categories", ops, resources.WithWindow(0))

	w := NewRefreshWorker(Config{}, nil)
	w.Register("categories", StoreRefresher(store))

	msg := amqp.NewChangeMessage("categories", resources.OpCreate, "food")
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if ops.calls.Load() != 1 {
		t.Fatalf("List called %d times, want 1", ops.calls.Load())
	}
	if st := store.State(); !st.Ready || len(st.Items) != 1 {
		t.Fatalf("store state = %+v", st)
	}
}

func TestHandleChange_UnknownResourceIsSkipped(t *testing.T) {
	w := NewRefreshWorker(Config{}, nil)
	msg := amqp.NewChangeMessage("unknown", resources.OpRemove, "x")
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
}

func TestHandleChange_FailedListReturnsError(t *testing.T) {
	ops := &listOps{resp: resources.Failed[[]core.Category](503, "Service Unavailable", "maintenance")}
	store := resources.New[core.Category]("categories", ops, resources.WithWindow(0))

	w := NewRefreshWorker(Config{}, nil)
	w.Register("categories", StoreRefresher(store))

	err := w.HandleChange(context.Background(), amqp.NewChangeMessage("categories", resources.OpUpdate, "food"))
	if err == nil {
		t.Fatal("want error so the message is requeued")
	}
}

func TestRefreshAll_CountsFailures(t *testing.T) {
	w := NewRefreshWorker(Config{}, nil)
	w.Register("ok", func(context.Context) error { return nil })
	w.Register("bad", func(context.Context) error { return errors.New("down") })

	if got := w.RefreshAll(context.Background()); got != 1 {
		t.Fatalf("RefreshAll = %d failures, want 1", got)
	}
	if names := w.Resources(); len(names) != 2 || names[0] != "bad" {
		t.Fatalf("Resources = %v", names)
	}
}

func TestWorker_PollsUntilStopped(t *testing.T) {
	var calls atomic.Int32
	w := NewRefreshWorker(Config{PollInterval: 5 * time.Millisecond}, nil)
	w.Register("categories", func(context.Context) error { calls.Add(1); return nil })

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("poll ran %d times, want at least 2", calls.Load())
	}
}

func TestWorker_RestartAfterAbandonedStop(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	w := NewRefreshWorker(Config{PollInterval: time.Millisecond}, nil)
	w.Register("categories", func(context.Context) error {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return nil
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := w.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Stop with blocked refresh = %v, want deadline exceeded", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	close(release)

	// The abandoned loop exits on its own channels; the new one stops cleanly.
	time.Sleep(10 * time.Millisecond)
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
