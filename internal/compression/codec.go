// Package compression provides block compression for column snapshots.
// A framed block is self-describing:
//
//	[method byte (1)] [compressed payload size (4 LE)] [raw size (4 LE)] [payload]
package compression

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Codec compresses and decompresses byte blocks.
type Codec interface {
	// MethodByte returns the single-byte codec identifier stored in the
	// block header.
	MethodByte() byte
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte, rawSize int) ([]byte, error)
}

// Method byte constants.
const (
	MethodNone byte = 0x00
	MethodLZ4  byte = 0x01
)

// HeaderSize is the framed block header length in bytes.
const HeaderSize = 9

// NoneCodec is the identity codec.
type NoneCodec struct{}

func (NoneCodec) MethodByte() byte { return MethodNone }

func (NoneCodec) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst, nil
}

func (NoneCodec) Decompress(src []byte, rawSize int) ([]byte, error) {
	if len(src) != rawSize {
		return nil, errors.Errorf("raw block size mismatch: header says %d, have %d", rawSize, len(src))
	}
	dst := make([]byte, rawSize)
	copy(dst, src)
	return dst, nil
}

// CompressBlock compresses data with the codec and returns a framed block.
// Incompressible data is stored raw under MethodNone so decompression never
// sees a payload that did not come out of the codec.
func CompressBlock(codec Codec, data []byte) ([]byte, error) {
	payload, err := codec.Compress(data)
	if err != nil {
		return nil, err
	}
	method := codec.MethodByte()
	if len(payload) >= len(data) && method != MethodNone {
		payload, method = append([]byte(nil), data...), MethodNone
	}
	block := make([]byte, HeaderSize+len(payload))
	block[0] = method
	binary.LittleEndian.PutUint32(block[1:5], uint32(len(payload)))
	binary.LittleEndian.PutUint32(block[5:9], uint32(len(data)))
	copy(block[HeaderSize:], payload)
	return block, nil
}

// DecompressBlock validates a framed block's header and decompresses the
// payload. It returns the raw bytes and the total block length consumed,
// allowing blocks to be read back to back from one buffer.
func DecompressBlock(block []byte) ([]byte, int, error) {
	if len(block) < HeaderSize {
		return nil, 0, errors.Errorf("block too small: %d bytes", len(block))
	}
	method := block[0]
	payloadSize := int(binary.LittleEndian.Uint32(block[1:5]))
	rawSize := int(binary.LittleEndian.Uint32(block[5:9]))
	if HeaderSize+payloadSize > len(block) {
		return nil, 0, errors.Errorf("block truncated: header says %d payload bytes, have %d",
			payloadSize, len(block)-HeaderSize)
	}

	var codec Codec
	switch method {
	case MethodNone:
		codec = NoneCodec{}
	case MethodLZ4:
		codec = LZ4Codec{}
	default:
		return nil, 0, errors.Errorf("unknown compression method: 0x%02x", method)
	}

	raw, err := codec.Decompress(block[HeaderSize:HeaderSize+payloadSize], rawSize)
	if err != nil {
		return nil, 0, err
	}
	return raw, HeaderSize + payloadSize, nil
}
