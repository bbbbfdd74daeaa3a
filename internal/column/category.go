package column

import (
	"github.com/pkg/errors"
)

// copyRangeCategory copies a range between two category-encoded columns.
// The stored codes are only meaningful relative to each column's own
// dictionary, so the columns must first be rewritten against a shared one:
//
//  1. clone both columns into temporaries (data, bitmap and dictionary);
//  2. synchronize the originals' dictionaries, writing the remapped codes
//     and the merged dictionary into the temporaries — synchronization
//     touches only code buffers and dictionary handles, the temporaries
//     keep the cloned validity bitmaps;
//  3. run the ordinary code-buffer kernel from the temporary source into
//     the temporary destination;
//  4. swap data, bitmap, null count and dictionary handle from the
//     temporary destination into the real one.
//
// Both temporaries are released on every exit path. If synchronization or
// the copy fails, the real destination is left unmodified.
func copyRangeCategory(dst, src *Column, outBegin, outEnd, inBegin int) error {
	tmpDst := dst.Clone()
	tmpSrc := src.Clone()
	defer tmpDst.Release()
	defer tmpSrc.Release()

	pairs := []SyncPair{
		{From: dst, To: tmpDst},
		{From: src, To: tmpSrc},
	}
	if err := SynchronizeDictionaries(pairs); err != nil {
		return errors.Wrap(ErrReconcile, err.Error())
	}

	if err := dispatchCopyRange(tmpDst, tmpSrc, outBegin, outEnd, inBegin); err != nil {
		return err
	}

	dst.swapFrom(tmpDst)
	return nil
}
