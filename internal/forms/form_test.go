package forms

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newForm(t *testing.T, cfg Config) *Form {
	t.Helper()
	cfg.Window = -1
	f, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestForm_UpdateTracksChangedAndDirty(t *testing.T) {
	f := newForm(t, Config{Values: Values{"title": "x"}})

	f.Update(Values{"title": "y"})
	fv := f.View().Field("title")
	if !fv.Changed || !fv.Dirty {
		t.Fatalf("after update to y: changed=%v dirty=%v, want true/true", fv.Changed, fv.Dirty)
	}

	f.Update(Values{"title": "x"})
	fv = f.View().Field("title")
	if fv.Changed || !fv.Dirty {
		t.Fatalf("after update back to x: changed=%v dirty=%v, want false/true", fv.Changed, fv.Dirty)
	}
}

func TestForm_SetCommitsBaseline(t *testing.T) {
	f := newForm(t, Config{Values: Values{"title": "x"}})
	f.Update(Values{"title": "y"})

	f.Set(Values{"title": "z"})
	fv := f.View().Field("title")
	if fv.Changed || fv.Dirty {
		t.Fatalf("after set: changed=%v dirty=%v, want false/false", fv.Changed, fv.Dirty)
	}

	f.Update(Values{"title": "z"})
	if f.View().Field("title").Changed {
		t.Fatal("updating to the committed value should not mark changed")
	}
}

func TestForm_ResetKeepsValuesAndSkipsValidation(t *testing.T) {
	var runs atomic.Int32
	counting := Check(func(v any) bool { runs.Add(1); return false })
	f := newForm(t, Config{
		Values: Values{"title": "a"},
		Schema: Schema{"title": {"count": counting}},
	})
	f.Update(Values{"title": "b"})
	before := runs.Load()

	f.Reset()

	fv := f.View().Field("title")
	if fv.Value != "b" || fv.Changed || fv.Dirty {
		t.Fatalf("after reset: %+v", fv)
	}
	if runs.Load() != before {
		t.Fatal("reset re-ran validators")
	}
	f.Update(Values{"title": "b"})
	if f.View().Field("title").Changed {
		t.Fatal("reset should make the current value the baseline")
	}
}

func TestForm_AsyncValidatorPendingThenFailed(t *testing.T) {
	release := make(chan struct{})
	slow := AsyncCheck(func(ctx context.Context, v any) (bool, error) {
		if v == "" {
			return false, nil
		}
		<-release
		return true, nil
	})
	f := newForm(t, Config{
		Values: Values{"id": ""},
		Schema: Schema{"id": {"taken": slow}},
	})
	f.Wait()

	f.Update(Values{"id": "food"})
	fv := f.View().Field("id")
	if !fv.Pending {
		t.Fatal("field should be pending right after update")
	}
	if !f.View().AnyPending {
		t.Fatal("AnyPending should be true while validator runs")
	}

	close(release)
	f.Wait()

	fv = f.View().Field("id")
	if fv.Pending || !fv.Invalid || !fv.Failed {
		t.Fatalf("after resolve: pending=%v invalid=%v failed=%v", fv.Pending, fv.Invalid, fv.Failed)
	}
	if !fv.Validations["taken"] {
		t.Fatal("validations[taken] should record the failure")
	}
}

func TestForm_InitialFailureNotSurfacedUntilDirty(t *testing.T) {
	f := newForm(t, Config{
		Values: Values{"title": ""},
		Schema: Schema{"title": {"isEmpty": IsEmpty}},
	})

	fv := f.View().Field("title")
	if !fv.Invalid || fv.Failed || fv.Dirty {
		t.Fatalf("fresh form: invalid=%v failed=%v dirty=%v", fv.Invalid, fv.Failed, fv.Dirty)
	}

	f.Validate()
	if !f.View().Field("title").Failed {
		t.Fatal("Validate should surface the failure")
	}
}

func TestForm_FailsClosed(t *testing.T) {
	panicking := Check(func(any) bool { panic("boom") })
	erroring := AsyncCheck(func(context.Context, any) (bool, error) { return false, errors.New("network down") })
	panickingAsync := AsyncCheck(func(context.Context, any) (bool, error) { panic("boom") })

	f := newForm(t, Config{
		Values: Values{"a": "x", "b": "x", "c": "x"},
		Schema: Schema{
			"a": {"p": panicking},
			"b": {"e": erroring},
			"c": {"p": panickingAsync},
		},
	})
	f.Wait()

	v := f.View()
	for _, name := range []string{"a", "b", "c"} {
		if !v.Field(name).Invalid {
			t.Errorf("field %s should be invalid", name)
		}
	}
	if v.AnyPending {
		t.Error("no validator should remain pending")
	}
}

func TestForm_ChangedReturnsOnlyEditedFields(t *testing.T) {
	f := newForm(t, Config{Values: Values{"id": "food", "title": "Food", "kind": "expense"}})
	f.Update(Values{"title": "Groceries", "kind": "expense"})

	want := Values{"title": "Groceries"}
	if diff := cmp.Diff(want, f.Changed()); diff != "" {
		t.Fatalf("Changed (-want +got):\n%s", diff)
	}
	all := Values{"id": "food", "title": "Groceries", "kind": "expense"}
	if diff := cmp.Diff(all, f.Values()); diff != "" {
		t.Fatalf("Values (-want +got):\n%s", diff)
	}
}

func TestForm_MessagesOnlyForFailedFields(t *testing.T) {
	f := newForm(t, Config{
		Values: Values{"title": ""},
		Schema: Schema{"title": {"isEmpty": IsEmpty, "tooLong": MaxLength(3)}},
		Messages: map[string]map[string]string{
			"title": {"isEmpty": "Title is required", "tooLong": "Title is too long"},
		},
	})
	if msgs := f.View().Field("title").Messages; len(msgs) != 0 {
		t.Fatalf("clean field has messages %v", msgs)
	}

	f.Update(Values{"title": "Groceries"})
	want := []string{"Title is too long"}
	if diff := cmp.Diff(want, f.View().Field("title").Messages); diff != "" {
		t.Fatalf("messages (-want +got):\n%s", diff)
	}
}

func TestForm_OnChangeUpdatesField(t *testing.T) {
	f := newForm(t, Config{Values: Values{"note": ""}})
	f.View().Field("note").OnChange("weekly shop")

	fv := f.View().Field("note")
	if fv.Value != "weekly shop" || !fv.Dirty || !fv.Changed {
		t.Fatalf("after OnChange: %+v", fv)
	}
}

func TestForm_UnknownFieldsIgnored(t *testing.T) {
	f := newForm(t, Config{Values: Values{"title": "a"}})
	f.Update(Values{"nope": 1})
	if _, ok := f.Values()["nope"]; ok {
		t.Fatal("unknown field should not be created")
	}
}

func TestNew_RejectsBadSchema(t *testing.T) {
	_, err := New(context.Background(), Config{
		Values: Values{"title": ""},
		Schema: Schema{"missing": {"isEmpty": IsEmpty}},
	})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}

	var nilCheck Check
	_, err = New(context.Background(), Config{
		Values: Values{"title": ""},
		Schema: Schema{"title": {"isEmpty": nilCheck}},
	})
	if !errors.Is(err, ErrNilValidator) {
		t.Fatalf("err = %v, want ErrNilValidator", err)
	}
}

func TestForm_StaleAsyncResultIsApplied(t *testing.T) {
	first := make(chan struct{})
	check := AsyncCheck(func(ctx context.Context, v any) (bool, error) {
		if v == "old" {
			<-first
			return true, nil
		}
		return false, nil
	})
	f := newForm(t, Config{
		Values: Values{"id": ""},
		Schema: Schema{"id": {"taken": check}},
	})
	f.Wait()

	f.Update(Values{"id": "old"})
	f.Update(Values{"id": "new"})
	time.Sleep(10 * time.Millisecond)
	close(first)
	f.Wait()

	if !f.View().Field("id").Invalid {
		t.Fatal("the late result for the old value should win")
	}
}

func TestForm_SubscribersNotified(t *testing.T) {
	f := newForm(t, Config{Values: Values{"title": ""}})
	var last View
	f.Subscribe(func(v View) { last = v })

	f.Update(Values{"title": "Rent"})
	if last.Field("title").Value != "Rent" {
		t.Fatalf("subscriber saw %v", last.Field("title").Value)
	}
}

// The full create-category flow: required fields start invalid but quiet,
// Validate surfaces them, valid input clears them.
func TestForm_CategoryScenario(t *testing.T) {
	f := newForm(t, Config{
		Values: Values{"id": "", "title": ""},
		Schema: Schema{
			"id":    {"isEmpty": IsEmpty},
			"title": {"isEmpty": IsEmpty},
		},
	})

	v := f.View()
	for _, name := range []string{"id", "title"} {
		fv := v.Field(name)
		if !fv.Invalid || fv.Dirty || fv.Failed {
			t.Fatalf("%s at creation: %+v", name, fv)
		}
	}

	f.Validate()
	v = f.View()
	if !v.Field("id").Dirty || !v.Field("title").Dirty || !v.AnyFailed {
		t.Fatalf("after Validate: %+v", v)
	}

	f.Update(Values{"id": "abc", "title": "Groceries"})
	v = f.View()
	if v.AnyInvalid {
		t.Fatal("AnyInvalid should be false once both fields are filled")
	}
	if !v.AnyChanged {
		t.Fatal("AnyChanged should be true after editing")
	}
}

func TestTaken_OwnCommittedValuePasses(t *testing.T) {
	inUse := map[string]bool{"food": true, "rent": true}
	var lookups atomic.Int32
	exists := func(_ context.Context, id string) (bool, error) {
		lookups.Add(1)
		return inUse[id], nil
	}
	f := newForm(t, Config{
		Values: Values{"id": "food"},
		Schema: Schema{"id": {"taken": Taken(exists)}},
	})
	f.Wait()
	if f.View().AnyInvalid {
		t.Fatal("seeded id reported as taken")
	}

	f.Update(Values{"id": "rent"})
	f.Wait()
	if !f.View().Field("id").Failed {
		t.Fatal("another entity's id should be taken")
	}

	f.Update(Values{"id": " food "})
	f.Wait()
	if f.View().AnyInvalid {
		t.Fatal("returning to the committed id should pass")
	}

	// A new baseline moves ownership.
	f.Set(Values{"id": "rent"})
	f.Wait()
	if f.View().AnyInvalid {
		t.Fatal("id committed by Set reported as taken")
	}
	if got := lookups.Load(); got != 1 {
		t.Fatalf("exists called %d times, want 1", got)
	}
}
