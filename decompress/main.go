package main

import (
	"bufio"
	"flag"
	"log"
	"os"

	"github.com/fumin/rangecoder"
)

var verbose = flag.Bool("verbose", false, "log the decompressed size")

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	w := &countingWriter{w: bufio.NewWriter(os.Stdout)}
	if err := rangecoder.Decompress(w, os.Stdin); err != nil {
		log.Fatalf("%+v", err)
	}
	if err := w.w.Flush(); err != nil {
		log.Fatalf("%+v", err)
	}
	if *verbose {
		log.Printf("decompressed %d bytes", w.n)
	}
}

type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
