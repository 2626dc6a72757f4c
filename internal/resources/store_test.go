package resources

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type item struct {
	ID    string
	Title string
}

func (i item) ResourceID() string { return i.ID }

type fakeOps struct {
	mu       sync.Mutex
	list     Response[[]item]
	read     Response[item]
	create   Response[item]
	update   Response[item]
	remove   Response[item]
	duringFn func()
	calls    []string
}

func (f *fakeOps) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if f.duringFn != nil {
		f.duringFn()
	}
}

func (f *fakeOps) List(_ context.Context, _ url.Values) Response[[]item] {
	f.record("list")
	return f.list
}
func (f *fakeOps) Read(_ context.Context, _ string) Response[item] {
	f.record("read")
	return f.read
}
func (f *fakeOps) Create(_ context.Context, _ Payload) Response[item] {
	f.record("create")
	return f.create
}
func (f *fakeOps) Update(_ context.Context, _ string, _ Payload) Response[item] {
	f.record("update")
	return f.update
}
func (f *fakeOps) Remove(_ context.Context, _ string) Response[item] {
	f.record("remove")
	return f.remove
}
func (f *fakeOps) Exist(_ context.Context, _ string) Response[bool] { return Success(false) }
func (f *fakeOps) Empty() item                                      { return item{} }

var (
	itemA = item{ID: "a", Title: "Rent"}
	itemB = item{ID: "b", Title: "Food"}
	itemC = item{ID: "c", Title: "Fuel"}
)

func seeded(t *testing.T, ops *fakeOps, items ...item) *Store[item] {
	t.Helper()
	ops.list = Success(items)
	s := New[item]("items", ops, WithWindow(0))
	s.List(context.Background(), nil)
	return s
}

func TestStore_InitialState(t *testing.T) {
	s := New[item]("items", &fakeOps{}, WithWindow(0))
	st := s.State()
	if st.ReadyState != Initial || !st.Initial || !st.Pending || st.Ready {
		t.Fatalf("initial state = %+v", st)
	}
}

func TestStore_ListLifecycle(t *testing.T) {
	ops := &fakeOps{list: Success([]item{itemA})}
	s := New[item]("items", ops, WithWindow(0))

	var during []ReadyState
	ops.duringFn = func() { during = append(during, s.State().ReadyState) }

	s.List(context.Background(), nil)
	if st := s.State(); st.ReadyState != Ready || !st.Ready || st.Pending {
		t.Fatalf("after first list = %+v, want Ready", st)
	}

	ops.list = Failed[[]item](502, "Bad Gateway", "upstream down")
	s.List(context.Background(), nil)
	if st := s.State(); st.ReadyState != Ready {
		t.Fatalf("after failed list ready-state = %v, want READY", st.ReadyState)
	}
	if diff := cmp.Diff([]item{itemA}, s.State().Items); diff != "" {
		t.Fatalf("failed list changed items (-want +got):\n%s", diff)
	}

	want := []ReadyState{Fetching, Updating}
	if diff := cmp.Diff(want, during); diff != "" {
		t.Fatalf("ready-states while in flight (-want +got):\n%s", diff)
	}
}

func TestStore_FailedFirstListStillBecomesReady(t *testing.T) {
	ops := &fakeOps{list: Rejected[[]item]("unauthorized")}
	s := New[item]("items", ops, WithWindow(0))

	resp := s.List(context.Background(), nil)
	if resp.Body.Reason != "unauthorized" {
		t.Fatalf("response reason = %q, want unauthorized", resp.Body.Reason)
	}
	if st := s.State(); st.ReadyState != Ready || len(st.Items) != 0 {
		t.Fatalf("state = %+v, want Ready with no items", st)
	}
}

func TestStore_CreateAppendsOnSuccessOnly(t *testing.T) {
	ops := &fakeOps{}
	s := seeded(t, ops, itemA, itemB)

	ops.create = Rejected[item]("title already used")
	resp := s.Create(context.Background(), Payload{"title": "Fuel"})
	if resp.Succeeded() || resp.Body.Reason != "title already used" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if diff := cmp.Diff([]item{itemA, itemB}, s.State().Items); diff != "" {
		t.Fatalf("failed create changed items (-want +got):\n%s", diff)
	}

	ops.create = Success(itemC)
	s.Create(context.Background(), Payload{"title": "Fuel"})
	if diff := cmp.Diff([]item{itemA, itemB, itemC}, s.State().Items); diff != "" {
		t.Fatalf("items after create (-want +got):\n%s", diff)
	}
	if s.State().ReadyState != Ready {
		t.Fatalf("create changed ready-state to %v", s.State().ReadyState)
	}
}

func TestStore_UpdateReplacesOnlyMatchingID(t *testing.T) {
	ops := &fakeOps{}
	s := seeded(t, ops, itemA, itemB, itemC)

	renamed := item{ID: "b", Title: "Groceries"}
	ops.update = Success(renamed)
	s.Update(context.Background(), "b", Payload{"title": "Groceries"})

	if diff := cmp.Diff([]item{itemA, renamed, itemC}, s.State().Items); diff != "" {
		t.Fatalf("items after update (-want +got):\n%s", diff)
	}

	ops.update = Failed[item](500, "Internal Server Error", "boom")
	s.Update(context.Background(), "a", Payload{"title": "x"})
	if diff := cmp.Diff([]item{itemA, renamed, itemC}, s.State().Items); diff != "" {
		t.Fatalf("failed update changed items (-want +got):\n%s", diff)
	}
}

func TestStore_RemoveKeepsRelativeOrder(t *testing.T) {
	ops := &fakeOps{remove: Success(item{})}
	s := seeded(t, ops, itemA, itemB, itemC)

	s.Remove(context.Background(), "b")

	if diff := cmp.Diff([]item{itemA, itemC}, s.State().Items); diff != "" {
		t.Fatalf("items after remove (-want +got):\n%s", diff)
	}
}

func TestStore_ReadUpserts(t *testing.T) {
	ops := &fakeOps{}
	s := seeded(t, ops, itemA, itemB)

	fresh := item{ID: "a", Title: "Mortgage"}
	ops.read = Success(fresh)
	s.Read(context.Background(), "a")
	ops.read = Success(itemC)
	s.Read(context.Background(), "c")

	if diff := cmp.Diff([]item{fresh, itemB, itemC}, s.State().Items); diff != "" {
		t.Fatalf("items after read (-want +got):\n%s", diff)
	}
}

func TestStore_ReadBeforeListKeepsReadyState(t *testing.T) {
	ops := &fakeOps{read: Success(itemA)}
	s := New[item]("items", ops, WithWindow(0))

	s.Read(context.Background(), "a")

	st := s.State()
	if st.ReadyState != Initial {
		t.Fatalf("ready-state = %v, want INITIAL", st.ReadyState)
	}
	if _, ok := st.Find("a"); !ok {
		t.Fatal("read item not cached")
	}
}

type recordingObserver struct {
	changes []string
}

func (r *recordingObserver) ResourceChanged(_ context.Context, resource string, op Op, id string) error {
	r.changes = append(r.changes, resource+":"+string(op)+":"+id)
	return nil
}

func TestStore_ObserverSeesSuccessfulMutations(t *testing.T) {
	obs := &recordingObserver{}
	ops := &fakeOps{list: Success([]item{itemA}), create: Success(itemB), remove: Rejected[item]("locked")}
	s := New[item]("items", ops, WithWindow(0), WithObserver(obs))
	s.List(context.Background(), nil)

	s.Create(context.Background(), Payload{})
	s.Remove(context.Background(), "a")

	want := []string{"items:create:b"}
	if diff := cmp.Diff(want, obs.changes); diff != "" {
		t.Fatalf("observed changes (-want +got):\n%s", diff)
	}
}

func TestStore_SubscribersSeeLatestState(t *testing.T) {
	ops := &fakeOps{list: Success([]item{itemA, itemB})}
	s := New[item]("items", ops, WithWindow(0))

	var last State[item]
	s.Subscribe(func(st State[item]) { last = st })
	s.List(context.Background(), nil)

	if last.ReadyState != Ready || len(last.Items) != 2 {
		t.Fatalf("last notified state = %+v", last)
	}
}

func TestReadyStateString(t *testing.T) {
	got := make([]string, 0, len(ReadyStates))
	for _, rs := range ReadyStates {
		got = append(got, rs.String())
	}
	want := []string{"INITIAL", "FETCHING", "READY", "UPDATING"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ReadyState strings (-want +got):\n%s", diff)
	}
}
