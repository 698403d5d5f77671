package order0

import (
	"io"

	"github.com/fumin/rangecoder/ac"
	"github.com/pkg/errors"
)

// A Decoder carries the state required to decode a stream produced by an Encoder.
type Decoder struct {
	in    io.ByteReader
	model *Model
	total uint64

	low register
	rng register
}

// NewDecoder returns a Decoder reading from r, which must hold the output of an Encoder using the same Model.
// NewDecoder reads the first 5 bytes of r.
func NewDecoder(r io.Reader, model *Model) (*Decoder, error) {
	d := &Decoder{
		in:    byteReader(r),
		model: model,
		total: uint64(model.Total()),
		rng:   register(registerMax),
	}
	for i := 0; i < registerBits/8; i++ {
		c, err := d.next()
		if err != nil {
			return nil, err
		}
		d.low = d.low<<8 | register(c)
	}
	return d, nil
}

// next reads the next byte of input. Input past the end reads as zeros.
func (d *Decoder) next() (byte, error) {
	c, err := d.in.ReadByte()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	return c, nil
}

// Decode returns the next symbol.
// ac.ErrDecodeRange or ac.ErrZeroFrequency is returned if the input does not correspond to any symbol,
// after which the Decoder must not be used.
func (d *Decoder) Decode() (byte, error) {
	if d.total == 0 {
		return 0, ac.ErrDecodeRange
	}
	step := uint64(d.rng) / d.total
	value := uint64(d.low) / step
	if value >= d.total {
		return 0, ac.ErrDecodeRange
	}

	symbol := d.model.Search(uint32(value))
	ent := d.model.Entry(symbol)
	if ent.Count == 0 {
		return 0, ac.ErrZeroFrequency
	}

	d.low -= register(uint64(ent.Cumulated) * step)
	d.rng = register(uint64(ent.Count) * step)
	for uint64(d.rng) < bottom {
		c, err := d.next()
		if err != nil {
			return 0, err
		}
		d.rng <<= 8
		d.low.shift()
		d.low |= register(c)
	}
	return symbol, nil
}
