package column

import (
	"reflect"
	"testing"

	"github.com/gridstonedb/gridstone/internal/types"
)

func TestDictionary_InsertIsStable(t *testing.T) {
	d := NewDictionary(nil)
	if code := d.Insert("a"); code != 0 {
		t.Fatalf("first value: expected code 0, got %d", code)
	}
	if code := d.Insert("b"); code != 1 {
		t.Fatalf("second value: expected code 1, got %d", code)
	}
	if code := d.Insert("a"); code != 0 {
		t.Fatalf("repeat insert changed code: got %d", code)
	}
	if d.Len() != 2 {
		t.Fatalf("expected 2 distinct values, got %d", d.Len())
	}
	if d.Value(1) != "b" {
		t.Fatalf("expected code 1 -> b, got %q", d.Value(1))
	}
}

func TestDictionary_CloneIsIndependent(t *testing.T) {
	d := NewDictionary([]string{"a", "b"})
	c := d.Clone()
	c.Insert("c")
	if d.Len() != 2 {
		t.Fatalf("clone insert leaked into original: %v", d.Values())
	}
	if code, ok := c.Code("c"); !ok || code != 2 {
		t.Fatalf("clone missing inserted value")
	}
}

func TestSynchronizeDictionaries_RemapsAndShares(t *testing.T) {
	a := mustCategory(t, []string{"x", "y", "x"}, nil)
	b := mustCategory(t, []string{"y", "z", "z"}, nil)
	tmpA := a.Clone()
	tmpB := b.Clone()

	err := SynchronizeDictionaries([]SyncPair{
		{From: a, To: tmpA},
		{From: b, To: tmpB},
	})
	if err != nil {
		t.Fatalf("SynchronizeDictionaries: %v", err)
	}
	if tmpA.Dict != tmpB.Dict {
		t.Fatalf("outputs do not share a dictionary handle")
	}
	want := []string{"x", "y", "z"}
	if !reflect.DeepEqual(tmpA.Dict.Values(), want) {
		t.Fatalf("merged dictionary %v, want %v", tmpA.Dict.Values(), want)
	}
	// Codes from the two outputs are directly comparable now.
	if tmpA.Value(1) != tmpB.Value(0) {
		t.Fatalf("remapped codes disagree: %v vs %v", tmpA.Value(1), tmpB.Value(0))
	}
	wantA := []types.Value{"x", "y", "x"}
	if got := decoded(t, tmpA); !reflect.DeepEqual(got, wantA) {
		t.Fatalf("output decodes to %v, want %v", got, wantA)
	}
}

func TestSynchronizeDictionaries_LeavesValidityAlone(t *testing.T) {
	a := mustCategory(t, []string{"x", "y"}, []bool{true, false})
	tmpA := a.Clone()

	if err := SynchronizeDictionaries([]SyncPair{{From: a, To: tmpA}}); err != nil {
		t.Fatalf("SynchronizeDictionaries: %v", err)
	}
	if !tmpA.Valid.IsSet(0) || tmpA.Valid.IsSet(1) {
		t.Fatalf("synchronization touched the validity bitmap")
	}
}

func TestSynchronizeDictionaries_RejectsNonCategory(t *testing.T) {
	a := mustFromSlice(t, types.TypeInt32, []int32{1}, nil)
	if err := SynchronizeDictionaries([]SyncPair{{From: a, To: a.Clone()}}); err == nil {
		t.Fatalf("expected error for non-category column")
	}
}
