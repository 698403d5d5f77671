package order0

import (
	"bufio"
	"io"

	"github.com/fumin/rangecoder/ac"
	"github.com/pkg/errors"
)

// NewSource returns an ac.Source reading r.
// r must either be an ac.Source already, or an io.ReadSeeker, which is rewound to the offset it has now.
// Otherwise, ac.ErrNotRewindable is returned.
func NewSource(r io.Reader) (ac.Source, error) {
	if src, ok := r.(ac.Source); ok {
		return src, nil
	}
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return nil, ac.ErrNotRewindable
	}
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(ac.ErrNotRewindable, err.Error())
	}
	return &seekSource{rs: rs, start: start, br: bufio.NewReader(rs)}, nil
}

type seekSource struct {
	rs    io.ReadSeeker
	start int64
	br    *bufio.Reader
}

func (s *seekSource) ReadByte() (byte, error) {
	return s.br.ReadByte()
}

func (s *seekSource) Rewind() error {
	if _, err := s.rs.Seek(s.start, io.SeekStart); err != nil {
		return errors.Wrap(err, "")
	}
	s.br.Reset(s.rs)
	return nil
}

// sink is the output of an Encoder.
type sink struct {
	bw io.ByteWriter

	// flush is nil when the destination has nothing to flush.
	flush func() error
}

func newSink(w io.Writer) sink {
	if bw, ok := w.(io.ByteWriter); ok {
		s := sink{bw: bw}
		if f, ok := w.(interface{ Flush() error }); ok {
			s.flush = f.Flush
		}
		return s
	}
	buf := bufio.NewWriter(w)
	return sink{bw: buf, flush: buf.Flush}
}

func (s sink) writeByte(c byte) error {
	if err := s.bw.WriteByte(c); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (s sink) writeRun(c byte, n uint64) error {
	for ; n > 0; n-- {
		if err := s.writeByte(c); err != nil {
			return err
		}
	}
	return nil
}

func (s sink) close() error {
	if s.flush == nil {
		return nil
	}
	if err := s.flush(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// byteReader returns r as an io.ByteReader, buffering it if necessary.
func byteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}
