package column

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gridstonedb/gridstone/internal/types"
)

func mustCategory(t *testing.T, values []string, valid []bool) *Column {
	t.Helper()
	c, err := NewCategory(values, valid)
	if err != nil {
		t.Fatalf("NewCategory: %v", err)
	}
	return c
}

func decoded(t *testing.T, c *Column) []types.Value {
	t.Helper()
	out := make([]types.Value, c.Size)
	for i := 0; i < c.Size; i++ {
		out[i] = c.Value(i)
	}
	return out
}

func TestCopyRange_CategoryAddsUnseenValues(t *testing.T) {
	dst := mustCategory(t, []string{"red", "green", "red"}, nil)
	src := mustCategory(t, []string{"blue", "green", "blue"}, nil)

	if !dst.Dict.Contains("red") || dst.Dict.Contains("blue") {
		t.Fatalf("test premise broken: dst dictionary %v", dst.Dict.Values())
	}

	if err := CopyRange(dst, src, 0, 2, 0); err != nil {
		t.Fatalf("CopyRange: %v", err)
	}
	if !dst.Dict.Contains("blue") {
		t.Fatalf("destination dictionary missing copied value: %v", dst.Dict.Values())
	}
	want := []types.Value{"blue", "green", "red"}
	if got := decoded(t, dst); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if dst.NullCount != 0 {
		t.Fatalf("expected null_count 0, got %d", dst.NullCount)
	}
}

func TestCopyRange_CategoryValidityAndOutsideRange(t *testing.T) {
	dst := mustCategory(t,
		[]string{"a", "b", "c", "d", "e"},
		[]bool{true, true, true, true, false})
	src := mustCategory(t,
		[]string{"x", "y", "z"},
		[]bool{true, false, true})

	if err := CopyRange(dst, src, 1, 4, 0); err != nil {
		t.Fatalf("CopyRange: %v", err)
	}
	want := []types.Value{"a", "x", nil, "z", nil}
	if got := decoded(t, dst); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	// Validity outside the target range is preserved from the original.
	if !dst.IsValid(0) || dst.IsValid(4) {
		t.Fatalf("validity outside range changed")
	}
	if dst.NullCount != 2 {
		t.Fatalf("expected null_count 2, got %d", dst.NullCount)
	}
}

func TestCopyRange_CategoryReconcileFailureLeavesDestination(t *testing.T) {
	dst := mustCategory(t, []string{"a", "b"}, nil)
	src := mustCategory(t, []string{"c", "d"}, nil)
	// Corrupt the source codes past its dictionary so synchronization
	// cannot succeed.
	src.Data.([]uint32)[1] = 42

	before := dst.Clone()
	err := CopyRange(dst, src, 0, 2, 0)
	if !errors.Is(err, ErrReconcile) {
		t.Fatalf("expected ErrReconcile, got %v", err)
	}
	assertUnchanged(t, dst, before)
	if !reflect.DeepEqual(dst.Dict.Values(), before.Dict.Values()) {
		t.Fatalf("destination dictionary changed on failed reconciliation")
	}
}

func TestCopyRange_CategorySharedWordParallel(t *testing.T) {
	const n = 4096
	vals := make([]string, n)
	valid := make([]bool, n)
	for i := range vals {
		vals[i] = []string{"alpha", "beta", "gamma"}[i%3]
		valid[i] = i%7 != 0
	}
	dst := mustCategory(t, make([]string, n), nil)
	src := mustCategory(t, vals, valid)

	if err := CopyRange(dst, src, 0, n, 0); err != nil {
		t.Fatalf("CopyRange: %v", err)
	}
	for i := 0; i < n; i++ {
		if dst.IsValid(i) != (i%7 != 0) {
			t.Fatalf("index %d: wrong validity", i)
		}
		if dst.IsValid(i) && dst.Value(i) != vals[i] {
			t.Fatalf("index %d: expected %q, got %v", i, vals[i], dst.Value(i))
		}
	}
	if dst.NullCount != dst.Valid.CountUnset() {
		t.Fatalf("null count cache %d != bitmap scan %d", dst.NullCount, dst.Valid.CountUnset())
	}
}

func TestFill_Category(t *testing.T) {
	dst := mustCategory(t, []string{"a", "b", "a", "b"}, nil)

	if err := Fill(dst, types.NewScalar(types.TypeCategory, "c"), 1, 3); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	want := []types.Value{"a", "c", "c", "b"}
	if got := decoded(t, dst); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !dst.Dict.Contains("c") {
		t.Fatalf("dictionary missing filled value")
	}
}

func TestFill_CategoryNullScalar(t *testing.T) {
	dst := mustCategory(t, []string{"a", "b", "c"}, nil)

	if err := Fill(dst, types.NullScalar(types.TypeCategory), 0, 2); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if dst.IsValid(0) || dst.IsValid(1) || !dst.IsValid(2) {
		t.Fatalf("wrong validity after null fill")
	}
	if dst.NullCount != 2 {
		t.Fatalf("expected null_count 2, got %d", dst.NullCount)
	}
}
