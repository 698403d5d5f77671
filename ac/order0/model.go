package order0

import (
	"io"

	"github.com/fumin/rangecoder/ac"
	"github.com/pkg/errors"
)

const (
	// NumSymbols is the size of the alphabet.
	NumSymbols = 256

	// MaxCount is the largest scaled count, fixed by the 16 bit width of the frequency channel.
	MaxCount = 1<<16 - 1
)

// An Entry holds a symbol's scaled count, and the sum of the counts of all symbols before it.
type Entry struct {
	Count     uint32
	Cumulated uint32
}

// A Model is a static order-0 probabilistic model on bytes.
// A Model is immutable once built.
type Model struct {
	entries [NumSymbols]Entry
}

// NewModel derives the cumulative frequencies of the given scaled counts.
func NewModel(counts *Counts) *Model {
	m := &Model{}
	for i, c := range counts {
		m.entries[i].Count = uint32(c)
		if i > 0 {
			prev := m.entries[i-1]
			m.entries[i].Cumulated = prev.Cumulated + prev.Count
		}
	}
	return m
}

// ReadModel reads 256 scaled counts from fr, in order of byte value, and derives a Model from them.
func ReadModel(fr ac.FrequencyReader) (*Model, error) {
	var counts Counts
	for i := range counts {
		c, err := fr.ReadCount(byte(i))
		if err != nil {
			return nil, errors.Wrapf(err, "symbol %d", i)
		}
		counts[i] = c
	}
	return NewModel(&counts), nil
}

// Entry returns the entry of symbol.
func (m *Model) Entry(symbol byte) Entry {
	return m.entries[symbol]
}

// Total returns the divisor shared by the encoder and decoder.
// It is the cumulated count of the last symbol, and thus does not include the last symbol's own count.
func (m *Model) Total() uint32 {
	return m.entries[NumSymbols-1].Cumulated
}

// Search returns the symbol s with Cumulated[s] <= value < Cumulated[s+1],
// where Cumulated[256] is taken to be unbounded.
// Among symbols with equal cumulated counts, the last one is returned.
func (m *Model) Search(value uint32) byte {
	lo, hi := 0, NumSymbols-1
	for lo < hi {
		mid := (lo + hi) / 2
		if m.entries[mid+1].Cumulated <= value {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return byte(lo)
}

// Counts is a table of one scaled count per byte value.
// Counts is an in-memory frequency channel: it implements both ac.FrequencyWriter and ac.FrequencyReader.
type Counts [NumSymbols]uint16

func (c *Counts) WriteCount(symbol byte, count uint16) error {
	c[symbol] = count
	return nil
}

func (c *Counts) ReadCount(symbol byte) (uint16, error) {
	return c[symbol], nil
}

// Histogram holds the exact number of occurrences of each byte value.
type Histogram [NumSymbols]uint64

// Count reads src until its end, counting the occurrences of each byte value.
func Count(src io.ByteReader) (Histogram, error) {
	var h Histogram
	for {
		c, err := src.ReadByte()
		if err == io.EOF {
			return h, nil
		}
		if err != nil {
			return h, errors.Wrap(err, "")
		}
		h[c]++
	}
}

// Scale returns the smallest right shift that brings every count of h within MaxCount.
func (h *Histogram) Scale() uint {
	var peak uint64 = 1
	for _, c := range h {
		if c > peak {
			peak = c
		}
	}
	var scale uint
	for ; peak > MaxCount; peak >>= 1 {
		scale++
	}
	return scale
}

// Scaled returns the counts of h shifted right by scale.
// A symbol that occurred at least once keeps a positive count, so that it remains decodable.
func (h *Histogram) Scaled(scale uint) Counts {
	var counts Counts
	for i, c := range h {
		s := c >> scale
		if c != 0 {
			s |= 1
		}
		counts[i] = uint16(s & MaxCount)
	}
	return counts
}

// WriteCounts writes counts to fw in order of byte value.
func WriteCounts(fw ac.FrequencyWriter, counts *Counts) error {
	for i, c := range counts {
		if err := fw.WriteCount(byte(i), c); err != nil {
			return errors.Wrapf(err, "symbol %d", i)
		}
	}
	return nil
}
