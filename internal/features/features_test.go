package features

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"portafoglio/internal/core"
	"portafoglio/internal/resources"
)

// fakeOps answers from function fields; unset ones reject.
type fakeOps[T resources.Entity] struct {
	mu       sync.Mutex
	created  []resources.Payload
	updated  map[string]resources.Payload
	removed  []string
	existN   atomic.Int32
	create   func(resources.Payload) resources.Response[T]
	update   func(string, resources.Payload) resources.Response[T]
	exist    func(string) resources.Response[bool]
	removeFn func(string) resources.Response[T]
}

func (o *fakeOps[T]) List(context.Context, url.Values) resources.Response[[]T] {
	return resources.Success([]T{})
}

func (o *fakeOps[T]) Read(context.Context, string) resources.Response[T] {
	return resources.Rejected[T]("not found")
}

func (o *fakeOps[T]) Create(_ context.Context, p resources.Payload) resources.Response[T] {
	o.mu.Lock()
	o.created = append(o.created, p)
	o.mu.Unlock()
	if o.create == nil {
		return resources.Rejected[T]("create not allowed")
	}
	return o.create(p)
}

func (o *fakeOps[T]) Update(_ context.Context, id string, p resources.Payload) resources.Response[T] {
	o.mu.Lock()
	if o.updated == nil {
		o.updated = make(map[string]resources.Payload)
	}
	o.updated[id] = p
	o.mu.Unlock()
	if o.update == nil {
		return resources.Rejected[T]("update not allowed")
	}
	return o.update(id, p)
}

func (o *fakeOps[T]) Remove(_ context.Context, id string) resources.Response[T] {
	o.mu.Lock()
	o.removed = append(o.removed, id)
	o.mu.Unlock()
	if o.removeFn == nil {
		var zero T
		return resources.Success(zero)
	}
	return o.removeFn(id)
}

func (o *fakeOps[T]) Exist(_ context.Context, id string) resources.Response[bool] {
	o.existN.Add(1)
	if o.exist == nil {
		return resources.Success(false)
	}
	return o.exist(id)
}

func (o *fakeOps[T]) Empty() T {
	var zero T
	return zero
}

var sync0 = Options{Window: -1}

func TestCategories_SubmitCreates(t *testing.T) {
	ops := &fakeOps[core.Category]{
		create: func(p resources.Payload) resources.Response[core.Category] {
			return resources.Success(core.Category{
				ID: p["id"].(string), Title: p["title"].(string), Kind: core.Kind(p["kind"].(string)),
			})
		},
	}
	cats := NewCategories(ops, sync0)
	ctx := context.Background()

	f, err := cats.NewForm(ctx, nil)
	if err != nil {
		t.Fatalf("NewForm: %v", err)
	}
	f.Update(map[string]any{"id": "food", "title": "Food", "kind": "expense"})

	got, err := cats.Submit(ctx, f, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.ID != "food" {
		t.Fatalf("created %+v", got)
	}
	if items := cats.Store.State().Items; len(items) != 1 || items[0].ID != "food" {
		t.Fatalf("cache items = %+v", items)
	}
	if v := f.View(); v.AnyChanged || v.AnyDirty {
		t.Fatal("successful submit should reset the form baseline")
	}
}

func TestCategories_InvalidFormIsNotSent(t *testing.T) {
	ops := &fakeOps[core.Category]{}
	cats := NewCategories(ops, sync0)
	ctx := context.Background()

	f, _ := cats.NewForm(ctx, nil)
	_, err := cats.Submit(ctx, f, "")
	if !errors.Is(err, ErrInvalidForm) {
		t.Fatalf("err = %v, want ErrInvalidForm", err)
	}
	if len(ops.created) != 0 {
		t.Fatal("invalid form reached the API")
	}
	v := f.View()
	if !v.Field("id").Failed || !v.Field("title").Failed {
		t.Fatal("submit should surface failures on every field")
	}
	if msgs := v.Field("title").Messages; len(msgs) != 1 || msgs[0] != "Title is required" {
		t.Fatalf("title messages = %v", msgs)
	}
}

func TestCategories_TakenIDFailsAsync(t *testing.T) {
	ops := &fakeOps[core.Category]{
		exist: func(id string) resources.Response[bool] { return resources.Success(id == "food") },
	}
	cats := NewCategories(ops, sync0)
	ctx := context.Background()

	f, _ := cats.NewForm(ctx, nil)
	f.Update(map[string]any{"id": "food", "title": "Food", "kind": "expense"})
	f.Wait()

	fv := f.View().Field("id")
	if !fv.Failed || !fv.Validations["taken"] {
		t.Fatalf("id field = %+v", fv)
	}
	if diff := cmp.Diff([]string{"Identifier already in use"}, fv.Messages); diff != "" {
		t.Fatalf("messages (-want +got):\n%s", diff)
	}
	if _, err := cats.Submit(ctx, f, ""); !errors.Is(err, ErrInvalidForm) {
		t.Fatalf("err = %v, want ErrInvalidForm", err)
	}
}

func TestCategories_EditKeepsOwnID(t *testing.T) {
	ops := &fakeOps[core.Category]{
		exist: func(id string) resources.Response[bool] { return resources.Success(true) },
		update: func(id string, p resources.Payload) resources.Response[core.Category] {
			return resources.Success(core.Category{ID: id, Title: p["title"].(string), Kind: core.Expense})
		},
	}
	cats := NewCategories(ops, sync0)
	ctx := context.Background()

	f, err := cats.NewForm(ctx, &core.Category{ID: "food", Title: "Food", Kind: core.Expense})
	if err != nil {
		t.Fatalf("NewForm: %v", err)
	}
	f.Wait()
	if f.View().AnyInvalid {
		t.Fatalf("seeded form invalid: %+v", f.View().Field("id"))
	}

	f.Update(map[string]any{"title": "Groceries"})
	got, err := cats.Submit(ctx, f, "food")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.Title != "Groceries" {
		t.Fatalf("updated %+v", got)
	}
	if diff := cmp.Diff(resources.Payload{"title": "Groceries"}, ops.updated["food"]); diff != "" {
		t.Fatalf("patch (-want +got):\n%s", diff)
	}
}

func TestCategories_CreatedIDIsNotTakenAfterSubmit(t *testing.T) {
	var created atomic.Bool
	ops := &fakeOps[core.Category]{
		exist: func(id string) resources.Response[bool] {
			return resources.Success(created.Load() && id == "travel")
		},
		create: func(p resources.Payload) resources.Response[core.Category] {
			created.Store(true)
			return resources.Success(core.Category{ID: "travel", Title: "Travel", Kind: core.Expense})
		},
	}
	cats := NewCategories(ops, sync0)
	ctx := context.Background()

	f, _ := cats.NewForm(ctx, nil)
	f.Update(map[string]any{"id": "travel", "title": "Travel", "kind": "expense"})
	if _, err := cats.Submit(ctx, f, ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	f.Wait()
	if fv := f.View().Field("id"); fv.Invalid {
		t.Fatalf("id after create = %+v, want valid", fv)
	}
}

func TestModule_ExistsIsMemoized(t *testing.T) {
	ops := &fakeOps[core.Category]{
		exist: func(string) resources.Response[bool] { return resources.Success(true) },
	}
	cats := NewCategories(ops, sync0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		taken, err := cats.Exists(ctx, "food")
		if err != nil || !taken {
			t.Fatalf("Exists = %v, %v", taken, err)
		}
	}
	if n := ops.existN.Load(); n != 1 {
		t.Fatalf("API asked %d times, want 1", n)
	}

	if err := cats.Remove(ctx, "food"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	cats.Exists(ctx, "food")
	if n := ops.existN.Load(); n != 2 {
		t.Fatalf("remove should forget the memo; API asked %d times", n)
	}
}

func TestModule_ExistsFailureIsNotMemoized(t *testing.T) {
	ops := &fakeOps[core.Category]{
		exist: func(string) resources.Response[bool] {
			return resources.Failed[bool](0, "Network error", "dial tcp: refused")
		},
	}
	cats := NewCategories(ops, sync0)

	if _, err := cats.Exists(context.Background(), "food"); err == nil {
		t.Fatal("want error")
	}
	cats.Exists(context.Background(), "food")
	if ops.existN.Load() != 2 {
		t.Fatal("failed answers must not be cached")
	}
}

func TestTransactions_EditSendsOnlyChanges(t *testing.T) {
	existing := core.Transaction{
		ID: "t1", Kind: core.Expense, Date: core.NewDate(2025, 3, 2),
		CategoryID: "food", Amount: core.Money{Cents: 1250}, Note: "market",
	}
	ops := &fakeOps[core.Transaction]{
		update: func(id string, p resources.Payload) resources.Response[core.Transaction] {
			out := existing
			out.Amount = core.Money{Cents: p["amount"].(int64)}
			return resources.Success(out)
		},
	}
	txs := NewTransactions(ops, sync0)
	ctx := context.Background()

	f, err := txs.NewForm(ctx, &existing)
	if err != nil {
		t.Fatalf("NewForm: %v", err)
	}
	if f.View().AnyInvalid {
		t.Fatalf("existing transaction should be valid: %+v", f.View())
	}
	f.Update(map[string]any{"amount": "13,40", "note": "market"})

	got, err := txs.Submit(ctx, f, "t1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if diff := cmp.Diff(resources.Payload{"amount": int64(1340)}, ops.updated["t1"]); diff != "" {
		t.Fatalf("payload (-want +got):\n%s", diff)
	}
	if got.Amount.Cents != 1340 {
		t.Fatalf("returned %+v", got)
	}
	if f.Values()["amount"] != "13.40" {
		t.Fatalf("form baseline amount = %v", f.Values()["amount"])
	}
}

func TestTransactions_SubmitErrorCarriesReason(t *testing.T) {
	ops := &fakeOps[core.Transaction]{
		create: func(resources.Payload) resources.Response[core.Transaction] {
			return resources.Rejected[core.Transaction]("Category is archived")
		},
	}
	txs := NewTransactions(ops, sync0)
	ctx := context.Background()

	f, _ := txs.NewForm(ctx, nil)
	f.Update(map[string]any{"date": "2025-03-02", "amount": "5", "categoryId": "food"})

	_, err := txs.Submit(ctx, f, "")
	var se *SubmitError
	if !errors.As(err, &se) || se.Reason != "Category is archived" {
		t.Fatalf("err = %v", err)
	}
	if len(txs.Store.State().Items) != 0 {
		t.Fatal("rejected create must not touch the cache")
	}
	if !f.View().AnyChanged {
		t.Fatal("rejected submit keeps the user's edits")
	}
}

func TestNotDate(t *testing.T) {
	for value, want := range map[any]bool{
		"2025-03-02":             false,
		"2025-13-01":             true,
		"yesterday":              true,
		3:                        true,
		core.NewDate(2025, 1, 1): false,
	} {
		if got := NotDate(value); got != want {
			t.Errorf("NotDate(%v) = %v, want %v", value, got, want)
		}
	}
}

func TestProfile_EmptyPINIsOptional(t *testing.T) {
	ops := &fakeOps[core.Profile]{
		update: func(id string, p resources.Payload) resources.Response[core.Profile] {
			return resources.Success(core.Profile{ID: id, Name: p["name"].(string), Currency: "EUR"})
		},
	}
	profile := NewProfile(ops, sync0)
	ctx := context.Background()

	f, _ := profile.NewForm(ctx, &core.Profile{ID: "me", Name: "Ada", Currency: "EUR"})
	f.Update(map[string]any{"name": "Ada L."})
	if _, err := profile.Submit(ctx, f, "me"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, ok := ops.updated["me"]["pin"]; ok {
		t.Fatal("empty pin should not be sent")
	}

	f.Update(map[string]any{"pin": "12"})
	if _, err := profile.Submit(ctx, f, "me"); !errors.Is(err, ErrInvalidForm) {
		t.Fatalf("short pin: err = %v", err)
	}
}

type memVault struct {
	session *core.Session
}

func (v *memVault) Save(_ context.Context, s core.Session) error { v.session = &s; return nil }
func (v *memVault) Current(context.Context) (core.Session, error) {
	if v.session == nil {
		return core.Session{}, errors.New("no active session")
	}
	return *v.session, nil
}
func (v *memVault) Clear(context.Context) error { v.session = nil; return nil }

func TestSessions_LoginLogout(t *testing.T) {
	ops := &fakeOps[core.Session]{
		create: func(p resources.Payload) resources.Response[core.Session] {
			if p["pin"] != "1234" {
				return resources.Rejected[core.Session]("Wrong PIN")
			}
			return resources.Success(core.Session{ID: "s1", Token: "tok"})
		},
	}
	vault := &memVault{}
	sessions := NewSessions(ops, vault, sync0)
	ctx := context.Background()

	f, _ := sessions.NewForm(ctx, nil)
	f.Update(map[string]any{"pin": "9999"})
	_, err := sessions.Login(ctx, f)
	var se *SubmitError
	if !errors.As(err, &se) || se.Reason != "Wrong PIN" {
		t.Fatalf("wrong pin err = %v", err)
	}
	if vault.session != nil {
		t.Fatal("failed login stored a session")
	}

	f.Update(map[string]any{"pin": "1234"})
	s, err := sessions.Login(ctx, f)
	if err != nil || s.Token != "tok" || vault.session == nil {
		t.Fatalf("Login = %+v, %v", s, err)
	}

	if err := sessions.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if vault.session != nil || len(ops.removed) != 1 || ops.removed[0] != "s1" {
		t.Fatalf("logout left vault=%v removed=%v", vault.session, ops.removed)
	}
	if err := sessions.Logout(ctx); err == nil {
		t.Fatal("second logout should fail")
	}
}
