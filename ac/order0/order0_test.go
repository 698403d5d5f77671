package order0_test

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"testing"
	"testing/iotest"

	"github.com/fumin/rangecoder/ac"
	"github.com/fumin/rangecoder/ac/order0"
	"github.com/pkg/errors"
)

func roundTrip(t *testing.T, name string, data []byte) {
	t.Helper()
	var counts order0.Counts
	var compressed bytes.Buffer
	n, err := order0.Compress(&compressed, bytes.NewReader(data), &counts)
	if err != nil {
		t.Fatalf("%s: %+v", name, err)
	}
	if n != int64(len(data)) {
		t.Fatalf("%s: %d != %d", name, n, len(data))
	}

	var decompressed bytes.Buffer
	if err := order0.Decompress(&decompressed, &compressed, &counts, ac.FixedSize(n)); err != nil {
		t.Fatalf("%s: %+v", name, err)
	}
	if !bytes.Equal(decompressed.Bytes(), data) {
		t.Fatalf("%s: decompressed %d bytes differ from the original %d bytes", name, decompressed.Len(), len(data))
	}
	t.Logf("%s: %d -> %d bytes", name, len(data), compressed.Len())
}

func TestRoundTrip(t *testing.T) {
	roundTrip(t, "empty", nil)
	roundTrip(t, "single", []byte{'x'})
	roundTrip(t, "zero", []byte{0})
	roundTrip(t, "pair", []byte("aa"))
	roundTrip(t, "text", []byte("Four score and seven years ago our fathers brought forth on this continent, a new nation."))

	every := make([]byte, 0, order0.NumSymbols-1)
	for i := 0; i < order0.NumSymbols-1; i++ {
		every = append(every, byte(i))
	}
	roundTrip(t, "each byte below 0xFF once", every)
	roundTrip(t, "each byte below 0xFF once, descending", reversed(every))
}

func TestRoundTripRepeated(t *testing.T) {
	for _, c := range []byte{0x00, 'a', 0xFE} {
		for _, n := range []int{1, 2, 1000, 100000} {
			roundTrip(t, "repeated", bytes.Repeat([]byte{c}, n))
		}
	}
}

// TestRoundTripScaled checks inputs whose counts do not fit in 16 bits.
func TestRoundTripScaled(t *testing.T) {
	data := bytes.Repeat([]byte{'a'}, 200000)
	data = append(data, 'b', 'c', 0)
	data = append(data, bytes.Repeat([]byte{'d'}, 70000)...)
	data = append(data, 'e')
	roundTrip(t, "scaled", data)
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 50; trial++ {
		data := make([]byte, rng.Intn(1<<14))
		switch trial % 3 {
		case 0:
			for i := range data {
				data[i] = byte(rng.Intn(order0.NumSymbols - 1))
			}
		case 1:
			// Skewed, to produce long runs of narrow intervals.
			for i := range data {
				if rng.Intn(64) == 0 {
					data[i] = byte(rng.Intn(order0.NumSymbols - 1))
				} else {
					data[i] = 'e'
				}
			}
		default:
			alphabet := []byte{0, 1, 0x7F, 0xFE}
			for i := range data {
				data[i] = alphabet[rng.Intn(len(alphabet))]
			}
		}
		roundTrip(t, "random", data)
	}
}

func TestRoundTripFile(t *testing.T) {
	data, err := os.ReadFile("../../testdata/gettysburg.txt")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	roundTrip(t, "gettysburg", data)
}

// TestLastSymbol pins down the behavior of inputs containing 0xFF,
// whose count is left out of the total frequency.
func TestLastSymbol(t *testing.T) {
	// The first symbol's slot begins at the total, where no value can be decoded.
	var counts order0.Counts
	var compressed bytes.Buffer
	n, err := order0.Compress(&compressed, bytes.NewReader([]byte{0xFF, 0x00}), &counts)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !bytes.Equal(compressed.Bytes(), []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("%x", compressed.Bytes())
	}
	err = order0.Decompress(io.Discard, &compressed, &counts, ac.FixedSize(n))
	if errors.Cause(err) != ac.ErrDecodeRange {
		t.Fatalf("%+v", err)
	}

	// Every byte value once does not survive the round trip.
	every := make([]byte, order0.NumSymbols)
	for i := range every {
		every[i] = byte(i)
	}
	counts = order0.Counts{}
	compressed.Reset()
	if _, err := order0.Compress(&compressed, bytes.NewReader(every), &counts); err != nil {
		t.Fatalf("%+v", err)
	}
	var decompressed bytes.Buffer
	err = order0.Decompress(&decompressed, &compressed, &counts, ac.FixedSize(len(every)))
	if err == nil && bytes.Equal(decompressed.Bytes(), every) {
		t.Fatalf("0xFF decoded")
	}

	// With nothing but 0xFF, the total is zero.
	counts = order0.Counts{}
	_, err = order0.Compress(io.Discard, bytes.NewReader([]byte{0xFF, 0xFF}), &counts)
	if errors.Cause(err) != ac.ErrEmptyModel {
		t.Fatalf("%+v", err)
	}
	if counts != (order0.Counts{}) {
		t.Fatalf("counts written: %v", counts)
	}
}

func TestNotRewindable(t *testing.T) {
	var counts order0.Counts
	r := io.LimitReader(bytes.NewReader([]byte("abc")), 3)
	if _, err := order0.Compress(io.Discard, r, &counts); errors.Cause(err) != ac.ErrNotRewindable {
		t.Fatalf("%+v", err)
	}
}

type failingChannel struct{ err error }

func (c failingChannel) WriteCount(symbol byte, count uint16) error { return c.err }

func (c failingChannel) ReadCount(symbol byte) (uint16, error) { return 0, c.err }

type failingSizer struct{ err error }

func (s failingSizer) Size() (int64, error) { return 0, s.err }

func TestStreamFailure(t *testing.T) {
	errBoom := errors.New("boom")

	_, err := order0.Compress(io.Discard, bytes.NewReader([]byte("abc")), failingChannel{errBoom})
	if errors.Cause(err) != errBoom {
		t.Errorf("frequency writer: %+v", err)
	}

	var counts order0.Counts
	counts['a'] = 1
	err = order0.Decompress(io.Discard, bytes.NewReader(nil), failingChannel{errBoom}, ac.FixedSize(1))
	if errors.Cause(err) != errBoom {
		t.Errorf("frequency reader: %+v", err)
	}
	err = order0.Decompress(io.Discard, bytes.NewReader(nil), &counts, failingSizer{errBoom})
	if errors.Cause(err) != errBoom {
		t.Errorf("sizer: %+v", err)
	}
	err = order0.Decompress(io.Discard, iotest.ErrReader(errBoom), &counts, ac.FixedSize(1))
	if errors.Cause(err) != errBoom {
		t.Errorf("reader: %+v", err)
	}
	err = order0.Decompress(io.Discard, bytes.NewReader(nil), &counts, ac.FixedSize(-1))
	if err == nil {
		t.Errorf("negative size")
	}
}

// TestIndependentStreams codes several streams concurrently, each with its own state.
func TestIndependentStreams(t *testing.T) {
	inputs := [][]byte{
		[]byte("the quick brown fox"),
		bytes.Repeat([]byte("ab"), 5000),
		{0, 0, 0, 1},
	}
	errc := make(chan error, len(inputs))
	for _, data := range inputs {
		data := data
		go func() {
			var counts order0.Counts
			var compressed, decompressed bytes.Buffer
			n, err := order0.Compress(&compressed, bytes.NewReader(data), &counts)
			if err != nil {
				errc <- err
				return
			}
			if err := order0.Decompress(&decompressed, &compressed, &counts, ac.FixedSize(n)); err != nil {
				errc <- err
				return
			}
			if !bytes.Equal(decompressed.Bytes(), data) {
				errc <- errors.Errorf("%q != %q", decompressed.Bytes(), data)
				return
			}
			errc <- nil
		}()
	}
	for range inputs {
		if err := <-errc; err != nil {
			t.Errorf("%+v", err)
		}
	}
}

func reversed(b []byte) []byte {
	r := make([]byte, len(b))
	for i, c := range b {
		r[len(b)-1-i] = c
	}
	return r
}
