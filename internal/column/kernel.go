package column

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/gridstonedb/gridstone/internal/types"
)

// copyRangeKernel writes src's value and validity into dst for every logical
// index of [outBegin, outEnd), then recomputes dst's null count from the
// bitmap. The range is chunked across workers; the data buffer slots are
// disjoint per index, while neighboring validity bits may share a packed
// word, which the bitmask handles with atomic updates.
func copyRangeKernel[T any](dst *Column, outBegin, outEnd int, src elementSource[T]) error {
	if outBegin == outEnd {
		return nil
	}
	if outBegin < 0 || outEnd < outBegin || outEnd > dst.Size {
		return errors.Wrapf(ErrRange, "destination range [%d, %d) of column with %d elements", outBegin, outEnd, dst.Size)
	}
	data, ok := dst.Data.([]T)
	if !ok {
		return errors.Wrapf(ErrTypeMismatch, "destination buffer is %T", dst.Data)
	}

	n := outEnd - outBegin
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	valid := dst.Valid
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, n)
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				data[outBegin+i] = src.valueAt(i)
				valid.SetTo(outBegin+i, src.validAt(i))
			}
		}(lo, hi)
	}
	wg.Wait()

	dst.refreshNullCount()
	return nil
}

// dispatchCopyRange resolves dst's runtime type tag to the matching kernel
// instantiation over a column-range source. Dispatch is total over the known
// tags and deterministic; an unrecognized tag fails with ErrUnknownType.
// Category columns are dispatched on their uint32 code buffers, which is
// only meaningful once both dictionaries are synchronized — the public
// CopyRange routes category pairs through the reconciliation path first.
func dispatchCopyRange(dst, src *Column, outBegin, outEnd, inBegin int) error {
	switch dst.Type {
	case types.TypeUInt8:
		return copyRangeKernel[uint8](dst, outBegin, outEnd, newRangeSource[uint8](src, inBegin))
	case types.TypeUInt16:
		return copyRangeKernel[uint16](dst, outBegin, outEnd, newRangeSource[uint16](src, inBegin))
	case types.TypeUInt32, types.TypeDateTime, types.TypeCategory:
		return copyRangeKernel[uint32](dst, outBegin, outEnd, newRangeSource[uint32](src, inBegin))
	case types.TypeUInt64:
		return copyRangeKernel[uint64](dst, outBegin, outEnd, newRangeSource[uint64](src, inBegin))
	case types.TypeInt8:
		return copyRangeKernel[int8](dst, outBegin, outEnd, newRangeSource[int8](src, inBegin))
	case types.TypeInt16:
		return copyRangeKernel[int16](dst, outBegin, outEnd, newRangeSource[int16](src, inBegin))
	case types.TypeInt32:
		return copyRangeKernel[int32](dst, outBegin, outEnd, newRangeSource[int32](src, inBegin))
	case types.TypeInt64:
		return copyRangeKernel[int64](dst, outBegin, outEnd, newRangeSource[int64](src, inBegin))
	case types.TypeFloat32:
		return copyRangeKernel[float32](dst, outBegin, outEnd, newRangeSource[float32](src, inBegin))
	case types.TypeFloat64:
		return copyRangeKernel[float64](dst, outBegin, outEnd, newRangeSource[float64](src, inBegin))
	default:
		return errors.Wrapf(ErrUnknownType, "tag %d", dst.Type)
	}
}

// dispatchFill resolves dst's runtime type tag to the matching kernel
// instantiation over a scalar source.
func dispatchFill(dst *Column, s types.Scalar, begin, end int) error {
	switch dst.Type {
	case types.TypeUInt8:
		return fillTyped[uint8](dst, s, begin, end)
	case types.TypeUInt16:
		return fillTyped[uint16](dst, s, begin, end)
	case types.TypeUInt32, types.TypeDateTime:
		return fillTyped[uint32](dst, s, begin, end)
	case types.TypeCategory:
		return fillCategory(dst, s, begin, end)
	case types.TypeUInt64:
		return fillTyped[uint64](dst, s, begin, end)
	case types.TypeInt8:
		return fillTyped[int8](dst, s, begin, end)
	case types.TypeInt16:
		return fillTyped[int16](dst, s, begin, end)
	case types.TypeInt32:
		return fillTyped[int32](dst, s, begin, end)
	case types.TypeInt64:
		return fillTyped[int64](dst, s, begin, end)
	case types.TypeFloat32:
		return fillTyped[float32](dst, s, begin, end)
	case types.TypeFloat64:
		return fillTyped[float64](dst, s, begin, end)
	default:
		return errors.Wrapf(ErrUnknownType, "tag %d", dst.Type)
	}
}

// fillTyped unwraps the scalar's payload into the destination's physical
// type and runs the kernel over a scalar source. The stored value is written
// even for an invalid scalar, matching the range copy semantics where data
// slots under null bits hold unspecified but real bytes.
func fillTyped[T any](dst *Column, s types.Scalar, begin, end int) error {
	var v T
	if s.Data != nil {
		x, ok := s.Data.(T)
		if !ok {
			return errors.Wrapf(ErrTypeMismatch, "scalar payload %T for %s column", s.Data, dst.Type.Name())
		}
		v = x
	}
	return copyRangeKernel[T](dst, begin, end, scalarSource[T]{value: v, valid: s.Valid})
}

// fillCategory encodes the scalar through the destination's dictionary and
// fills the code buffer.
func fillCategory(dst *Column, s types.Scalar, begin, end int) error {
	var code uint32
	if s.Data != nil {
		v, ok := s.Data.(string)
		if !ok {
			return errors.Wrapf(ErrTypeMismatch, "scalar payload %T for category column", s.Data)
		}
		code = dst.Dict.Insert(v)
	}
	return copyRangeKernel[uint32](dst, begin, end, scalarSource[uint32]{value: code, valid: s.Valid})
}
