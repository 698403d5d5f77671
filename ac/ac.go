// Package ac defines the capabilities the range coding algorithm consumes from its host,
// and the errors it reports.
// See its subpackages for particular finite precision realizations of the algorithm.
package ac

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrDecodeRange is returned when the decoder's lookup value is not covered by the cumulative range of any symbol.
	ErrDecodeRange = errors.New("decoded value out of range")

	// ErrZeroFrequency is returned when the decoder lands in the slot of a symbol whose scaled count is zero.
	ErrZeroFrequency = errors.New("decoded symbol has zero frequency")

	// ErrNotRewindable is returned when an encoder is given an input that cannot be read a second time.
	ErrNotRewindable = errors.New("input cannot be rewound")

	// ErrEmptyModel is returned when symbols are coded against a model whose total frequency is zero.
	ErrEmptyModel = errors.New("model has zero total frequency")
)

// A Source is the input of a two-pass encoder.
type Source interface {
	io.ByteReader

	// Rewind repositions the Source at its first byte.
	Rewind() error
}

// A FrequencyWriter receives the scaled count of each symbol, in order of byte value.
type FrequencyWriter interface {
	WriteCount(symbol byte, count uint16) error
}

// A FrequencyReader supplies the scaled count of each symbol, in order of byte value.
type FrequencyReader interface {
	ReadCount(symbol byte) (uint16, error)
}

// A Sizer reports the number of symbols a decoder should produce.
type Sizer interface {
	Size() (int64, error)
}

// FixedSize is a Sizer of a size known in advance.
type FixedSize int64

func (s FixedSize) Size() (int64, error) {
	return int64(s), nil
}
