package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fumin/rangecoder"
	"github.com/pkg/errors"
)

var verbose = flag.Bool("verbose", false, "log the compression ratio")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] filename\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	name := flag.Arg(0)
	if name == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(os.Stdout, name); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(w io.Writer, name string) error {
	cw := &countingWriter{w: w}
	if err := rangecoder.Compress(cw, name); err != nil {
		return errors.Wrap(err, "")
	}
	if !*verbose {
		return nil
	}

	info, err := os.Stat(name)
	if err != nil {
		return errors.Wrap(err, "")
	}
	ratio := 0.0
	if info.Size() > 0 {
		ratio = float64(cw.n) / float64(info.Size())
	}
	log.Printf("%s: %d -> %d bytes, ratio %.3f", name, info.Size(), cw.n, ratio)
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
