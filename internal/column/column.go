// Package column implements the in-memory columnar data model and the range
// copy/fill engine over it: typed columns with packed null-validity bitmaps,
// a scalar fill operation, a column-to-column range copy, and the dictionary
// reconciliation path for category-encoded columns.
package column

import (
	"github.com/pkg/errors"

	"github.com/gridstonedb/gridstone/internal/bitmask"
	"github.com/gridstonedb/gridstone/internal/types"
)

// Column is a handle to a contiguous typed buffer plus its validity bitmap.
//
// Data holds a []T of the physical element type (e.g. []int32 for TypeInt32);
// for TypeCategory it holds the []uint32 code buffer and Dict maps codes to
// their decoded values. NullCount caches the number of clear bits in the
// first Size bits of Valid; every mutating operation in this package
// recomputes it before returning.
type Column struct {
	Type      types.DataType
	Size      int
	Data      interface{}
	Valid     *bitmask.Bitmask
	NullCount int
	Dict      *Dictionary
}

// New creates a column of n zero-valued, all-valid elements.
func New(dt types.DataType, n int) (*Column, error) {
	data, err := allocData(dt, n)
	if err != nil {
		return nil, err
	}
	c := &Column{
		Type:  dt,
		Size:  n,
		Data:  data,
		Valid: bitmask.NewAllValid(n),
	}
	if dt == types.TypeCategory {
		c.Dict = NewDictionary(nil)
	}
	return c, nil
}

// FromSlice creates a column over the given typed slice. valid may be nil,
// meaning all elements are valid; otherwise it must match the slice length.
// The slice is copied.
func FromSlice(dt types.DataType, data interface{}, valid []bool) (*Column, error) {
	n := sliceLen(data)
	if n < 0 {
		return nil, errors.Wrapf(ErrTypeMismatch, "slice %T does not match %s", data, dt.Name())
	}
	if valid != nil && len(valid) != n {
		return nil, errors.Wrapf(ErrInvalidColumn, "validity length %d != data length %d", len(valid), n)
	}
	c, err := New(dt, n)
	if err != nil {
		return nil, err
	}
	if !copyInto(c.Data, data) {
		return nil, errors.Wrapf(ErrTypeMismatch, "slice %T does not match %s", data, dt.Name())
	}
	if valid != nil {
		c.Valid = bitmask.FromBools(valid)
		c.NullCount = c.Valid.CountUnset()
	}
	return c, nil
}

// NewCategory creates a dictionary-encoded column from decoded values.
// valid may be nil, meaning all elements are valid.
func NewCategory(values []string, valid []bool) (*Column, error) {
	if valid != nil && len(valid) != len(values) {
		return nil, errors.Wrapf(ErrInvalidColumn, "validity length %d != data length %d", len(valid), len(values))
	}
	dict := NewDictionary(nil)
	codes := make([]uint32, len(values))
	for i, v := range values {
		codes[i] = dict.Insert(v)
	}
	c := &Column{
		Type:  types.TypeCategory,
		Size:  len(values),
		Data:  codes,
		Valid: bitmask.NewAllValid(len(values)),
		Dict:  dict,
	}
	if valid != nil {
		c.Valid = bitmask.FromBools(valid)
		c.NullCount = c.Valid.CountUnset()
	}
	return c, nil
}

// Validate checks structural invariants: a non-nil handle, a data buffer and
// bitmap sized for Size, and a dictionary on category columns. It does not
// verify the NullCount cache.
func Validate(c *Column) error {
	if c == nil {
		return errors.Wrap(ErrInvalidColumn, "nil column")
	}
	if c.Size < 0 {
		return errors.Wrapf(ErrInvalidColumn, "negative size %d", c.Size)
	}
	if c.Size > 0 && c.Data == nil {
		return errors.Wrap(ErrInvalidColumn, "nil data buffer with nonzero size")
	}
	// An unrecognized tag is the dispatcher's ErrUnknownType, not a
	// structural defect; skip the buffer/tag check for it.
	if c.Data != nil && c.Type.Known() {
		if !bufferMatches(c.Type, c.Data) {
			return errors.Wrapf(ErrInvalidColumn, "data buffer %T does not match type %s", c.Data, c.Type.Name())
		}
		if n := sliceLen(c.Data); n < c.Size {
			return errors.Wrapf(ErrInvalidColumn, "data buffer holds %d elements, size is %d", n, c.Size)
		}
	}
	if c.Valid == nil {
		return errors.Wrap(ErrInvalidColumn, "nil validity bitmap")
	}
	if c.Valid.Len() != c.Size {
		return errors.Wrapf(ErrInvalidColumn, "bitmap covers %d bits, size is %d", c.Valid.Len(), c.Size)
	}
	if c.Type == types.TypeCategory && c.Dict == nil {
		return errors.Wrap(ErrInvalidColumn, "category column without dictionary")
	}
	return nil
}

// IsValid reports whether element i is non-null.
func (c *Column) IsValid(i int) bool {
	return c.Valid.IsSet(i)
}

// Value returns the decoded value at index i, or nil if the element is null.
// Category columns decode through the dictionary.
func (c *Column) Value(i int) types.Value {
	if !c.Valid.IsSet(i) {
		return nil
	}
	switch d := c.Data.(type) {
	case []uint8:
		return d[i]
	case []uint16:
		return d[i]
	case []uint32:
		if c.Type == types.TypeCategory {
			return c.Dict.Value(d[i])
		}
		return d[i]
	case []uint64:
		return d[i]
	case []int8:
		return d[i]
	case []int16:
		return d[i]
	case []int32:
		return d[i]
	case []int64:
		return d[i]
	case []float32:
		return d[i]
	case []float64:
		return d[i]
	default:
		panic("column: unsupported data buffer type")
	}
}

// Clone returns a deep copy of the column, including its dictionary.
func (c *Column) Clone() *Column {
	out := &Column{
		Type:      c.Type,
		Size:      c.Size,
		NullCount: c.NullCount,
		Valid:     c.Valid.Clone(),
	}
	if c.Data != nil {
		data, err := allocData(c.Type, c.Size)
		if err != nil || !copyInto(data, c.Data) {
			panic("column: clone of malformed column")
		}
		out.Data = data
	}
	if c.Dict != nil {
		out.Dict = c.Dict.Clone()
	}
	return out
}

// Release drops the column's buffers, bitmap and dictionary handle. The
// temporaries created by the category reconciliation path are released on
// every exit path; after Release the column fails Validate.
func (c *Column) Release() {
	c.Data = nil
	c.Valid = nil
	c.Dict = nil
	c.Size = 0
	c.NullCount = 0
}

// swapFrom moves src's data buffer, bitmap, null count and dictionary handle
// into c, leaving src empty. Used to publish reconciled temporaries.
func (c *Column) swapFrom(src *Column) {
	c.Data = src.Data
	c.Valid = src.Valid
	c.NullCount = src.NullCount
	c.Dict = src.Dict
	c.Size = src.Size
	src.Data = nil
	src.Valid = nil
	src.Dict = nil
}

// refreshNullCount recomputes the cached null count from the bitmap.
func (c *Column) refreshNullCount() {
	c.NullCount = c.Valid.CountUnset()
}

// allocData allocates a zeroed typed buffer for n elements of dt.
func allocData(dt types.DataType, n int) (interface{}, error) {
	switch dt {
	case types.TypeUInt8:
		return make([]uint8, n), nil
	case types.TypeUInt16:
		return make([]uint16, n), nil
	case types.TypeUInt32, types.TypeDateTime, types.TypeCategory:
		return make([]uint32, n), nil
	case types.TypeUInt64:
		return make([]uint64, n), nil
	case types.TypeInt8:
		return make([]int8, n), nil
	case types.TypeInt16:
		return make([]int16, n), nil
	case types.TypeInt32:
		return make([]int32, n), nil
	case types.TypeInt64:
		return make([]int64, n), nil
	case types.TypeFloat32:
		return make([]float32, n), nil
	case types.TypeFloat64:
		return make([]float64, n), nil
	default:
		return nil, errors.Wrapf(ErrUnknownType, "tag %d", dt)
	}
}

// bufferMatches reports whether data is the typed slice expected for dt.
func bufferMatches(dt types.DataType, data interface{}) bool {
	switch dt {
	case types.TypeUInt8:
		_, ok := data.([]uint8)
		return ok
	case types.TypeUInt16:
		_, ok := data.([]uint16)
		return ok
	case types.TypeUInt32, types.TypeDateTime, types.TypeCategory:
		_, ok := data.([]uint32)
		return ok
	case types.TypeUInt64:
		_, ok := data.([]uint64)
		return ok
	case types.TypeInt8:
		_, ok := data.([]int8)
		return ok
	case types.TypeInt16:
		_, ok := data.([]int16)
		return ok
	case types.TypeInt32:
		_, ok := data.([]int32)
		return ok
	case types.TypeInt64:
		_, ok := data.([]int64)
		return ok
	case types.TypeFloat32:
		_, ok := data.([]float32)
		return ok
	case types.TypeFloat64:
		_, ok := data.([]float64)
		return ok
	default:
		return false
	}
}

// sliceLen returns the length of a supported typed slice, or -1.
func sliceLen(data interface{}) int {
	switch d := data.(type) {
	case []uint8:
		return len(d)
	case []uint16:
		return len(d)
	case []uint32:
		return len(d)
	case []uint64:
		return len(d)
	case []int8:
		return len(d)
	case []int16:
		return len(d)
	case []int32:
		return len(d)
	case []int64:
		return len(d)
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	default:
		return -1
	}
}

// truncData returns the first n elements of a supported typed slice.
func truncData(data interface{}, n int) interface{} {
	switch d := data.(type) {
	case []uint8:
		return d[:n]
	case []uint16:
		return d[:n]
	case []uint32:
		return d[:n]
	case []uint64:
		return d[:n]
	case []int8:
		return d[:n]
	case []int16:
		return d[:n]
	case []int32:
		return d[:n]
	case []int64:
		return d[:n]
	case []float32:
		return d[:n]
	case []float64:
		return d[:n]
	default:
		return data
	}
}

// copyInto copies src into dst when both are the same typed slice.
func copyInto(dst, src interface{}) bool {
	switch d := dst.(type) {
	case []uint8:
		s, ok := src.([]uint8)
		if ok {
			copy(d, s)
		}
		return ok
	case []uint16:
		s, ok := src.([]uint16)
		if ok {
			copy(d, s)
		}
		return ok
	case []uint32:
		s, ok := src.([]uint32)
		if ok {
			copy(d, s)
		}
		return ok
	case []uint64:
		s, ok := src.([]uint64)
		if ok {
			copy(d, s)
		}
		return ok
	case []int8:
		s, ok := src.([]int8)
		if ok {
			copy(d, s)
		}
		return ok
	case []int16:
		s, ok := src.([]int16)
		if ok {
			copy(d, s)
		}
		return ok
	case []int32:
		s, ok := src.([]int32)
		if ok {
			copy(d, s)
		}
		return ok
	case []int64:
		s, ok := src.([]int64)
		if ok {
			copy(d, s)
		}
		return ok
	case []float32:
		s, ok := src.([]float32)
		if ok {
			copy(d, s)
		}
		return ok
	case []float64:
		s, ok := src.([]float64)
		if ok {
			copy(d, s)
		}
		return ok
	default:
		return false
	}
}
