package column

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/gridstonedb/gridstone/internal/bitmask"
	"github.com/gridstonedb/gridstone/internal/compression"
	"github.com/gridstonedb/gridstone/internal/types"
)

// Snapshot format:
//
//	magic "GSNP" (4) | version (1) | type tag (1) | size (4 LE) | null count (4 LE) | dict len (4 LE)
//	framed block: element data, little-endian
//	framed block: validity bitmap words, little-endian
//	framed block: dictionary values (uvarint length + bytes each), category only
//
// Blocks are LZ4-compressed (see internal/compression); incompressible
// payloads are stored raw.

var snapshotMagic = [4]byte{'G', 'S', 'N', 'P'}

const snapshotVersion = 1

// writeVarUInt writes a variable-length unsigned integer (protobuf varint).
func writeVarUInt(w io.Writer, v uint64) error {
	var buf [10]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

// EncodeSnapshot serializes a column, its bitmap and its dictionary into a
// self-contained compressed snapshot.
func EncodeSnapshot(c *Column) ([]byte, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(snapshotMagic[:])
	buf.WriteByte(snapshotVersion)
	buf.WriteByte(byte(c.Type))
	dictLen := 0
	if c.Dict != nil {
		dictLen = c.Dict.Len()
	}
	var header [12]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(c.Size))
	binary.LittleEndian.PutUint32(header[4:8], uint32(c.NullCount))
	binary.LittleEndian.PutUint32(header[8:12], uint32(dictLen))
	buf.Write(header[:])

	var data bytes.Buffer
	if c.Size > 0 {
		// The buffer may hold capacity past Size; only the first Size
		// elements are part of the column.
		if err := binary.Write(&data, binary.LittleEndian, truncData(c.Data, c.Size)); err != nil {
			return nil, errors.Wrap(err, "encode data")
		}
	}
	if err := appendBlock(&buf, data.Bytes()); err != nil {
		return nil, err
	}

	var valid bytes.Buffer
	if err := binary.Write(&valid, binary.LittleEndian, c.Valid.Words()); err != nil {
		return nil, errors.Wrap(err, "encode bitmap")
	}
	if err := appendBlock(&buf, valid.Bytes()); err != nil {
		return nil, err
	}

	if c.Type == types.TypeCategory {
		var dict bytes.Buffer
		for _, v := range c.Dict.Values() {
			if err := writeVarUInt(&dict, uint64(len(v))); err != nil {
				return nil, errors.Wrap(err, "encode dictionary")
			}
			dict.WriteString(v)
		}
		if err := appendBlock(&buf, dict.Bytes()); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// DecodeSnapshot reconstructs a column from an encoded snapshot.
func DecodeSnapshot(b []byte) (*Column, error) {
	if len(b) < 18 || !bytes.Equal(b[:4], snapshotMagic[:]) {
		return nil, errors.New("not a column snapshot")
	}
	if b[4] != snapshotVersion {
		return nil, errors.Errorf("unsupported snapshot version %d", b[4])
	}
	dt := types.DataType(b[5])
	if !dt.Known() {
		return nil, errors.Wrapf(ErrUnknownType, "tag %d", b[5])
	}
	size := int(binary.LittleEndian.Uint32(b[6:10]))
	nullCount := int(binary.LittleEndian.Uint32(b[10:14]))
	dictLen := int(binary.LittleEndian.Uint32(b[14:18]))
	rest := b[18:]

	dataRaw, n, err := compression.DecompressBlock(rest)
	if err != nil {
		return nil, errors.Wrap(err, "data block")
	}
	rest = rest[n:]
	data, err := allocData(dt, size)
	if err != nil {
		return nil, err
	}
	if size > 0 {
		if len(dataRaw) != size*dt.FixedSize() {
			return nil, errors.Errorf("data block holds %d bytes, want %d", len(dataRaw), size*dt.FixedSize())
		}
		if err := binary.Read(bytes.NewReader(dataRaw), binary.LittleEndian, data); err != nil {
			return nil, errors.Wrap(err, "decode data")
		}
	}

	validRaw, n, err := compression.DecompressBlock(rest)
	if err != nil {
		return nil, errors.Wrap(err, "bitmap block")
	}
	rest = rest[n:]
	words := make([]uint32, len(validRaw)/4)
	if err := binary.Read(bytes.NewReader(validRaw), binary.LittleEndian, words); err != nil {
		return nil, errors.Wrap(err, "decode bitmap")
	}
	valid := bitmask.FromWords(words, size)

	c := &Column{
		Type:  dt,
		Size:  size,
		Data:  data,
		Valid: valid,
	}
	c.refreshNullCount()
	if c.NullCount != nullCount {
		return nil, errors.Errorf("null count mismatch: header says %d, bitmap has %d", nullCount, c.NullCount)
	}

	if dt == types.TypeCategory {
		dictRaw, _, err := compression.DecompressBlock(rest)
		if err != nil {
			return nil, errors.Wrap(err, "dictionary block")
		}
		values := make([]string, 0, dictLen)
		r := bytes.NewReader(dictRaw)
		for i := 0; i < dictLen; i++ {
			l, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, errors.Wrap(err, "decode dictionary")
			}
			v := make([]byte, l)
			if _, err := io.ReadFull(r, v); err != nil {
				return nil, errors.Wrap(err, "decode dictionary")
			}
			values = append(values, string(v))
		}
		c.Dict = NewDictionary(values)
	}

	return c, nil
}

func appendBlock(buf *bytes.Buffer, raw []byte) error {
	block, err := compression.CompressBlock(compression.LZ4Codec{}, raw)
	if err != nil {
		return err
	}
	buf.Write(block)
	return nil
}
