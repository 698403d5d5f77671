// Package order0 implements a semi-static order-0 range coder on bytes.
//
// Compression takes two passes over its input.
// The first counts the occurrences of each byte value, which are scaled to 16 bits and sent through a frequency channel.
// The second codes each byte against the cumulative frequencies of the scaled counts,
// in a 40 bit low register and a 40 bit range register.
// Carries out of the low register are propagated into bytes not yet written, so the output is a plain byte stream.
//
// The divisor of both the encoder and the decoder is the cumulated count of byte value 0xFF,
// which excludes the count of 0xFF itself.
// As a consequence, inputs containing 0xFF do not decode: Decompress reports ac.ErrDecodeRange, or may produce wrong output.
// Inputs made only of 0xFF are refused by Compress with ac.ErrEmptyModel.
package order0

import (
	"io"

	"github.com/fumin/rangecoder/ac"
	"github.com/pkg/errors"
)

// Compress encodes r into w, and sends the scaled counts of its model to fw.
// r must be rewindable in the sense of NewSource, since it is read twice.
// Compress returns the number of symbols encoded, which Decompress needs to know.
func Compress(w io.Writer, r io.Reader, fw ac.FrequencyWriter) (int64, error) {
	src, err := NewSource(r)
	if err != nil {
		return 0, err
	}

	hist, err := Count(src)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	if err := src.Rewind(); err != nil {
		return 0, errors.Wrap(err, "")
	}
	counts := hist.Scaled(hist.Scale())
	model := NewModel(&counts)
	var size uint64
	for _, c := range hist {
		size += c
	}
	if size > 0 && model.Total() == 0 {
		return 0, ac.ErrEmptyModel
	}
	if err := WriteCounts(fw, &counts); err != nil {
		return 0, errors.Wrap(err, "")
	}

	e := NewEncoder(w, model)
	var n int64
	for {
		c, err := src.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, errors.Wrap(err, "")
		}
		if err := e.Encode(c); err != nil {
			return n, errors.Wrapf(err, "symbol %d", n)
		}
		n++
	}
	if err := e.Close(); err != nil {
		return n, errors.Wrap(err, "")
	}
	return n, nil
}

// Decompress decodes r into w.
// The model is read from fr, and the number of symbols to decode from sizer.
//
// If an error is returned, the bytes already written to w are not valid and should be discarded.
func Decompress(w io.Writer, r io.Reader, fr ac.FrequencyReader, sizer ac.Sizer) error {
	model, err := ReadModel(fr)
	if err != nil {
		return errors.Wrap(err, "")
	}
	size, err := sizer.Size()
	if err != nil {
		return errors.Wrap(err, "")
	}
	if size < 0 {
		return errors.Errorf("negative size %d", size)
	}
	d, err := NewDecoder(r, model)
	if err != nil {
		return errors.Wrap(err, "")
	}

	out := newSink(w)
	for i := int64(0); i < size; i++ {
		symbol, err := d.Decode()
		if err == nil {
			err = out.writeByte(symbol)
		}
		if err != nil {
			out.close()
			return errors.Wrapf(err, "symbol %d", i)
		}
	}
	return out.close()
}
