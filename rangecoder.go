// Package rangecoder compresses files with a semi-static order-0 range coder.
// The coder itself lives in package ac/order0; this package stores its side channels,
// the frequency table and the original size, in a small header in front of the coded body.
//
// Below is an example of compressing Lincoln's Gettysburg address:
//    go run compress/main.go testdata/gettysburg.txt > gettys.rc
//    cat gettys.rc | go run decompress/main.go > gettys.drc
//    diff testdata/gettysburg.txt gettys.drc
package rangecoder

import (
	"bufio"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/fumin/rangecoder/ac/order0"
	"github.com/pkg/errors"
)

// Compress compresses the file name into w.
func Compress(w io.Writer, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()
	if err := CompressFrom(w, f); err != nil {
		return errors.Wrap(err, name)
	}
	return nil
}

// CompressFrom compresses rs into w.
// rs is read three times: once to checksum it, and twice by the coder.
func CompressFrom(w io.Writer, rs io.ReadSeeker) error {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(err, "")
	}
	digest := xxhash.New()
	size, err := io.Copy(digest, rs)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return errors.Wrap(err, "")
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(magic[:]); err != nil {
		return errors.Wrap(err, "")
	}
	hw := &headerWriter{w: bw, h: header{size: size, sum: digest.Sum64()}}
	n, err := order0.Compress(bw, rs, hw)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if n != size {
		return errors.Errorf("input changed during compression: %d != %d bytes", n, size)
	}
	return nil
}

// Decompress decompresses r into w.
// ErrFormat is returned if r was not produced by Compress, and ErrChecksum if the decompressed data is corrupt.
// In both cases, and on any other error, the data already written to w should be discarded.
func Decompress(w io.Writer, r io.Reader) error {
	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return errors.Wrap(err, "")
	}

	digest := xxhash.New()
	bw := bufio.NewWriter(io.MultiWriter(w, digest))
	if err := order0.Decompress(bw, br, &h.counts, h); err != nil {
		return errors.Wrap(err, "")
	}
	if sum := digest.Sum64(); sum != h.sum {
		return errors.Wrapf(ErrChecksum, "%016x != %016x", sum, h.sum)
	}
	return nil
}
