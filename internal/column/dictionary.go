package column

import (
	"github.com/pkg/errors"

	"github.com/gridstonedb/gridstone/internal/types"
)

// Dictionary maps the uint32 codes stored in a category column to their
// distinct decoded values. Code assignment is stable: a value keeps its code
// for the dictionary's lifetime, and new values append.
type Dictionary struct {
	values []string
	lookup map[string]uint32
}

// NewDictionary creates a dictionary seeded with the given values in order.
func NewDictionary(values []string) *Dictionary {
	d := &Dictionary{lookup: make(map[string]uint32, len(values))}
	for _, v := range values {
		d.Insert(v)
	}
	return d
}

// Insert returns the code for v, adding it to the dictionary if absent.
func (d *Dictionary) Insert(v string) uint32 {
	if code, ok := d.lookup[v]; ok {
		return code
	}
	code := uint32(len(d.values))
	d.values = append(d.values, v)
	d.lookup[v] = code
	return code
}

// Value returns the decoded value for a code. Panics if the code is out of
// range; codes are only produced by Insert or dictionary synchronization.
func (d *Dictionary) Value(code uint32) string {
	return d.values[code]
}

// Code returns the code for v if present.
func (d *Dictionary) Code(v string) (uint32, bool) {
	code, ok := d.lookup[v]
	return code, ok
}

// Contains reports whether v is in the dictionary.
func (d *Dictionary) Contains(v string) bool {
	_, ok := d.lookup[v]
	return ok
}

// Len returns the number of distinct values.
func (d *Dictionary) Len() int { return len(d.values) }

// Values returns the decoded values in code order. The slice aliases the
// dictionary and must not be mutated.
func (d *Dictionary) Values() []string { return d.values }

// Clone returns a deep copy.
func (d *Dictionary) Clone() *Dictionary {
	return NewDictionary(d.values)
}

// SyncPair names one column pair for dictionary synchronization: From is the
// original (read only), To receives the remapped code buffer and the shared
// merged dictionary.
type SyncPair struct {
	From *Column
	To   *Column
}

// SynchronizeDictionaries merges the dictionaries of all From columns into
// one superset dictionary and rewrites each pair's codes into its To column
// so that codes from different pairs are directly comparable. All To columns
// end up sharing the same *Dictionary handle.
//
// Only the To code buffers and dictionary handles are written; validity
// bitmaps and null counts of the To columns are left untouched and remain
// whatever the caller put there.
func SynchronizeDictionaries(pairs []SyncPair) error {
	merged := NewDictionary(nil)
	remaps := make([][]uint32, len(pairs))

	for pi, p := range pairs {
		if p.From == nil || p.To == nil {
			return errors.Errorf("pair %d: nil column", pi)
		}
		if p.From.Type != types.TypeCategory || p.To.Type != types.TypeCategory {
			return errors.Errorf("pair %d: not category-encoded", pi)
		}
		if p.From.Dict == nil {
			return errors.Errorf("pair %d: source has no dictionary", pi)
		}
		if p.To.Size != p.From.Size {
			return errors.Errorf("pair %d: size mismatch %d != %d", pi, p.To.Size, p.From.Size)
		}
		remap := make([]uint32, p.From.Dict.Len())
		for code, v := range p.From.Dict.Values() {
			remap[code] = merged.Insert(v)
		}
		remaps[pi] = remap
	}

	for pi, p := range pairs {
		fromCodes, ok := p.From.Data.([]uint32)
		if !ok {
			return errors.Errorf("pair %d: source code buffer is %T", pi, p.From.Data)
		}
		toCodes, ok := p.To.Data.([]uint32)
		if !ok || len(toCodes) < p.From.Size {
			return errors.Errorf("pair %d: output code buffer too small", pi)
		}
		remap := remaps[pi]
		for i := 0; i < p.From.Size; i++ {
			code := fromCodes[i]
			if int(code) >= len(remap) {
				return errors.Errorf("pair %d: code %d exceeds dictionary of %d", pi, code, len(remap))
			}
			toCodes[i] = remap[code]
		}
		p.To.Dict = merged
	}
	return nil
}
