package column

import (
	"github.com/gridstonedb/gridstone/internal/bitmask"
)

// elementSource supplies value and validity per logical index of a
// destination range. The copy kernel is generic over the source, so the
// parallel loop is compiled once per physical type, not per variant.
type elementSource[T any] interface {
	valueAt(i int) T
	validAt(i int) bool
}

// scalarSource repeats one value and validity flag for every index.
type scalarSource[T any] struct {
	value T
	valid bool
}

func (s scalarSource[T]) valueAt(int) T    { return s.value }
func (s scalarSource[T]) validAt(int) bool { return s.valid }

// rangeSource reads from a fixed offset into a backing column's buffer and
// bitmap. The caller guarantees offset+i stays in bounds for every i used.
type rangeSource[T any] struct {
	data   []T
	valid  *bitmask.Bitmask
	offset int
}

func newRangeSource[T any](backing *Column, offset int) rangeSource[T] {
	return rangeSource[T]{
		data:   backing.Data.([]T),
		valid:  backing.Valid,
		offset: offset,
	}
}

func (s rangeSource[T]) valueAt(i int) T    { return s.data[s.offset+i] }
func (s rangeSource[T]) validAt(i int) bool { return s.valid.IsSet(s.offset + i) }
