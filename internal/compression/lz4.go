package compression

import (
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// LZ4Codec implements LZ4 block compression.
type LZ4Codec struct{}

func (LZ4Codec) MethodByte() byte { return MethodLZ4 }

func (LZ4Codec) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compress")
	}
	if n == 0 {
		// Incompressible; report the raw bytes and let the block framer
		// fall back to MethodNone.
		dst = make([]byte, len(src))
		copy(dst, src)
		return dst, nil
	}
	return dst[:n], nil
}

func (LZ4Codec) Decompress(src []byte, rawSize int) ([]byte, error) {
	if rawSize == 0 {
		return []byte{}, nil
	}
	dst := make([]byte, rawSize)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 decompress")
	}
	if n != rawSize {
		return nil, errors.Errorf("lz4 decompress: expected %d bytes, got %d", rawSize, n)
	}
	return dst, nil
}
