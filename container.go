package rangecoder

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/fumin/rangecoder/ac"
	"github.com/fumin/rangecoder/ac/order0"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	// ErrFormat is returned when the input of Decompress is not in the format written by Compress.
	ErrFormat = errors.New("not a range coded stream")

	// ErrChecksum is returned when the decompressed data does not match the checksum of the original.
	ErrChecksum = errors.New("checksum mismatch")
)

// magic starts every compressed stream, followed by the format version.
var magic = [4]byte{'R', 'C', '0', 1}

// maxHeaderLen bounds the header: three fields, and 256 counts of at most 3 bytes each.
const maxHeaderLen = 1024

// Header fields, in protocol buffer wire format.
const (
	fieldSize   protowire.Number = 1 // varint
	fieldCounts protowire.Number = 2 // packed varints, one per byte value
	fieldSum    protowire.Number = 3 // fixed64, xxhash of the original data
)

// A header holds the side channels of the coder: the number of symbols, and the scaled counts.
type header struct {
	size   int64
	counts order0.Counts
	sum    uint64
}

var _ ac.Sizer = (*header)(nil)

// Size returns the number of symbols in the body.
func (h *header) Size() (int64, error) {
	return h.size, nil
}

func (h *header) marshal() []byte {
	var packed []byte
	for _, c := range h.counts {
		packed = protowire.AppendVarint(packed, uint64(c))
	}

	var b []byte
	b = protowire.AppendTag(b, fieldSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.size))
	b = protowire.AppendTag(b, fieldCounts, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)
	b = protowire.AppendTag(b, fieldSum, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, h.sum)
	return b
}

func (h *header) unmarshal(b []byte) error {
	var hasSize, hasCounts, hasSum bool
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(ErrFormat, protowire.ParseError(n).Error())
		}
		b = b[n:]

		switch {
		case num == fieldSize && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			if n >= 0 && int64(v) < 0 {
				return errors.Wrapf(ErrFormat, "size %d", v)
			}
			h.size = int64(v)
			hasSize = true
		case num == fieldCounts && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				if err := h.unmarshalCounts(packed); err != nil {
					return err
				}
			}
			hasCounts = true
		case num == fieldSum && typ == protowire.Fixed64Type:
			h.sum, n = protowire.ConsumeFixed64(b)
			hasSum = true
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return errors.Wrapf(ErrFormat, "field %d: %v", num, protowire.ParseError(n))
		}
		b = b[n:]
	}

	if !hasSize || !hasCounts || !hasSum {
		return errors.Wrapf(ErrFormat, "missing fields: size %t, counts %t, sum %t", hasSize, hasCounts, hasSum)
	}
	return nil
}

func (h *header) unmarshalCounts(packed []byte) error {
	for i := range h.counts {
		v, n := protowire.ConsumeVarint(packed)
		if n < 0 {
			return errors.Wrapf(ErrFormat, "count %d: %v", i, protowire.ParseError(n))
		}
		if v > order0.MaxCount {
			return errors.Wrapf(ErrFormat, "count %d: %d", i, v)
		}
		h.counts[i] = uint16(v)
		packed = packed[n:]
	}
	if len(packed) != 0 {
		return errors.Wrapf(ErrFormat, "%d bytes after counts", len(packed))
	}
	return nil
}

// A headerWriter is the frequency channel of a compressor.
// It writes the header as soon as it has received the count of every symbol,
// which is before the coder writes its body.
type headerWriter struct {
	w io.Writer
	h header
}

func (hw *headerWriter) WriteCount(symbol byte, count uint16) error {
	hw.h.counts[symbol] = count
	if symbol != order0.NumSymbols-1 {
		return nil
	}

	b := hw.h.marshal()
	b = append(protowire.AppendVarint(nil, uint64(len(b))), b...)
	if _, err := hw.w.Write(b); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func readHeader(br *bufio.Reader) (*header, error) {
	var m [len(magic)]byte
	if _, err := io.ReadFull(br, m[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrap(ErrFormat, "short magic")
		}
		return nil, errors.Wrap(err, "")
	}
	if m != magic {
		return nil, errors.Wrapf(ErrFormat, "magic %q", m[:])
	}

	hlen, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errors.Wrap(ErrFormat, err.Error())
	}
	if hlen > maxHeaderLen {
		return nil, errors.Wrapf(ErrFormat, "header length %d", hlen)
	}
	b := make([]byte, hlen)
	if _, err := io.ReadFull(br, b); err != nil {
		return nil, errors.Wrap(ErrFormat, err.Error())
	}

	h := &header{}
	if err := h.unmarshal(b); err != nil {
		return nil, err
	}
	return h, nil
}
