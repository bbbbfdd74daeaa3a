package column

import (
	"github.com/pkg/errors"

	"github.com/gridstonedb/gridstone/internal/types"
)

// CopyRange overwrites dst's elements in [outBegin, outEnd) with src's
// elements starting at inBegin, propagating per-element validity, and
// recomputes dst's null count. A zero-length range is a no-op. All
// validation happens before any byte of dst is touched; on error dst is
// unchanged.
//
// When both columns are category-encoded their integer codes are not
// directly comparable, so the copy routes through dictionary reconciliation
// (see copyRangeCategory) instead of the raw kernel.
func CopyRange(dst, src *Column, outBegin, outEnd, inBegin int) error {
	if outBegin == outEnd {
		return nil
	}
	if err := Validate(dst); err != nil {
		return errors.WithMessage(err, "destination")
	}
	if err := Validate(src); err != nil {
		return errors.WithMessage(err, "source")
	}
	if dst.Type != src.Type {
		return errors.Wrapf(ErrTypeMismatch, "copy %s into %s", src.Type.Name(), dst.Type.Name())
	}
	if inBegin < 0 || inBegin+(outEnd-outBegin) > src.Size {
		return errors.Wrapf(ErrRange, "source range [%d, %d) of column with %d elements",
			inBegin, inBegin+(outEnd-outBegin), src.Size)
	}
	// The destination range bound is validated inside the kernel path.
	if dst.Type == types.TypeCategory {
		return copyRangeCategory(dst, src, outBegin, outEnd, inBegin)
	}
	return dispatchCopyRange(dst, src, outBegin, outEnd, inBegin)
}

// Fill overwrites dst's elements in [begin, end) with the scalar's value and
// marks each of them valid or null according to the scalar's validity flag,
// then recomputes dst's null count. A zero-length range is a no-op. The
// scalar's type tag must equal the column's.
func Fill(dst *Column, s types.Scalar, begin, end int) error {
	if begin == end {
		return nil
	}
	if err := Validate(dst); err != nil {
		return err
	}
	if s.Type != dst.Type {
		return errors.Wrapf(ErrTypeMismatch, "fill %s column with %s scalar", dst.Type.Name(), s.Type.Name())
	}
	if begin < 0 || end < begin || end > dst.Size {
		return errors.Wrapf(ErrRange, "fill range [%d, %d) of column with %d elements", begin, end, dst.Size)
	}
	return dispatchFill(dst, s, begin, end)
}
