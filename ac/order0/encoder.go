package order0

import (
	"io"

	"github.com/fumin/rangecoder/ac"
)

// A pendingByte is the most recent output byte that a carry may still increment.
type pendingByte struct {
	b  byte
	ok bool // false before any byte has been buffered
}

// carry adds one to the pending byte.
// A carry into an empty buffer yields a zero byte.
func (p *pendingByte) carry() {
	if !p.ok {
		*p = pendingByte{b: 0, ok: true}
		return
	}
	p.b++
}

// An Encoder carries the state required to range code a stream of bytes against a Model.
type Encoder struct {
	out   sink
	model *Model
	total uint64

	low register
	rng register

	pending pendingByte

	// run is the number of 0xFF bytes buffered after the pending byte.
	// A carry turns them into zeros.
	run uint64
}

// NewEncoder returns an Encoder writing to w.
// If w is not an io.ByteWriter, it is buffered, and the buffer is flushed by Close.
func NewEncoder(w io.Writer, model *Model) *Encoder {
	return &Encoder{
		out:   newSink(w),
		model: model,
		total: uint64(model.Total()),
		rng:   register(registerMax),
	}
}

// Encode narrows the coding interval to the slot of symbol.
func (e *Encoder) Encode(symbol byte) error {
	if e.total == 0 {
		return ac.ErrEmptyModel
	}
	ent := e.model.Entry(symbol)
	if ent.Count == 0 {
		return ac.ErrZeroFrequency
	}

	step := uint64(e.rng) / e.total
	e.low += register(uint64(ent.Cumulated) * step)
	e.rng = register(uint64(ent.Count) * step)

	// Only the last symbol's slot reaches past the total, and only it can widen the range.
	if uint64(e.rng) > registerMax {
		e.rng = register(registerMax)
	}

	return e.normalize()
}

func (e *Encoder) normalize() error {
	if e.low.overflowed() {
		e.pending.carry()
		e.low.clamp()
		if e.run > 0 {
			// The carry resolves the buffered 0xFF bytes into zeros.
			// The last of them becomes the new pending byte.
			if err := e.flush(0x00, e.run-1); err != nil {
				return err
			}
			e.pending = pendingByte{b: 0, ok: true}
			e.run = 0
		}
	}

	for uint64(e.rng) < bottom {
		if e.low.top() != 0xFF || e.low.low32() == 0 {
			// No future carry can reach the pending byte.
			if err := e.flush(0xFF, e.run); err != nil {
				return err
			}
			e.pending = pendingByte{b: byte(e.low.top()), ok: true}
			e.run = 0
		} else {
			e.run++
		}
		e.low.shift()
		e.rng <<= 8
	}
	return nil
}

// flush writes the pending byte, if any, followed by n copies of fill.
func (e *Encoder) flush(fill byte, n uint64) error {
	if e.pending.ok {
		if err := e.out.writeByte(e.pending.b); err != nil {
			return err
		}
	}
	return e.out.writeRun(fill, n)
}

// Close writes the bytes needed to identify the final interval, and flushes the output.
// The Encoder must not be used after Close.
func (e *Encoder) Close() error {
	fill := byte(0xFF)
	code := uint64(e.low)
	if e.pending.ok && uint64(e.low)+uint64(e.rng) > registerMax+1 {
		// The interval contains the top of the window,
		// so the code point can be a carry followed by zeros.
		e.pending.carry()
		fill = 0x00
		code = 0
	}
	if err := e.flush(fill, e.run); err != nil {
		return err
	}

	var trailer [registerBits / 8]byte
	for i := range trailer {
		trailer[i] = byte(code >> (topShift - 8*i))
	}
	// The decoder reads past the end of its input as zeros.
	n := len(trailer)
	for n > 0 && trailer[n-1] == 0 {
		n--
	}
	for _, c := range trailer[:n] {
		if err := e.out.writeByte(c); err != nil {
			return err
		}
	}

	return e.out.close()
}
