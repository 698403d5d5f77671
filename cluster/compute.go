// Command cluster prints the normalized compression distance between every pair of files in a directory,
// for use with a hierarchical clustering tool.
package main

import (
	"bytes"
	"compress/gzip"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
	"github.com/fumin/rangecoder"
	"github.com/pkg/errors"
	"github.com/therootcompany/xz"
)

var (
	intelligenceType = flag.String("i", "rc", "intelligence type, rc or gzip")
	dataDir          = flag.String("d", "testdata", "data directory")
	pattern          = flag.String("p", "**/*", "pattern of the files in the data directory")
	cacheSize        = flag.Int("cache", 1024, "number of complexities to cache")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	if err := run(*intelligenceType, *dataDir, *pattern); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(intelligence, dir, pattern string) error {
	names, err := listFiles(dir, pattern)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if len(names) < 2 {
		return errors.Errorf("need at least 2 files, found %d in %s matching %s", len(names), dir, pattern)
	}
	data := make([][]byte, 0, len(names))
	for _, name := range names {
		b, err := load(name)
		if err != nil {
			return errors.Wrap(err, name)
		}
		data = append(data, b)
	}

	c := newComplexity(intelligence, *cacheSize)
	distMat, err := distanceMatrix(c, names, data)
	if err != nil {
		return errors.Wrap(err, "")
	}

	if err := display(names, distMat); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func display(names []string, distMat []float64) error {
	// Print names as a comma separated array.
	buf := bytes.NewBuffer(nil)
	for i, fpath := range names {
		if err := buf.WriteByte('"'); err != nil {
			return errors.Wrap(err, "")
		}

		name := filepath.Base(fpath)
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if _, err := buf.WriteString(base); err != nil {
			return errors.Wrap(err, "")
		}

		if err := buf.WriteByte('"'); err != nil {
			return errors.Wrap(err, "")
		}

		if i == len(names)-1 {
			break
		}
		if err := buf.WriteByte(','); err != nil {
			return errors.Wrap(err, "")
		}
	}
	log.Printf("[%s]", buf.Bytes())

	// Print distance matrix as a comma separated array.
	buf.Reset()
	for i, f := range distMat {
		if _, err := buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64)); err != nil {
			return errors.Wrap(err, "")
		}
		if i == len(distMat)-1 {
			break
		}
		if err := buf.WriteByte(','); err != nil {
			return errors.Wrap(err, "")
		}
	}
	log.Printf("[%s]", buf.Bytes())

	return nil
}

// distance returns the normalized compression distance between x and y.
func distance(c *complexity, x, y []byte) (float64, error) {
	xy := make([]byte, 0, len(x)+len(y))
	xy = append(xy, x...)
	xy = append(xy, y...)

	kxy, err := c.of(xy)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}
	kx, err := c.of(x)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}
	ky, err := c.of(y)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}

	minxy := kx
	if ky < kx {
		minxy = ky
	}
	maxxy := kx
	if ky > kx {
		maxxy = ky
	}

	dist := (kxy - minxy) / maxxy
	return dist, nil
}

// A complexity approximates the Kolmogorov complexity of data by its compressed size.
type complexity struct {
	intelligence string
	cache        *tinylfu.T[uint64, float64]
}

func newComplexity(intelligence string, cacheSize int) *complexity {
	hash := func(sum uint64) uint64 { return sum }
	return &complexity{
		intelligence: intelligence,
		cache:        tinylfu.New[uint64, float64](cacheSize, cacheSize*10, hash),
	}
}

func (c *complexity) of(data []byte) (float64, error) {
	sum := xxhash.Sum64(data)
	if size, ok := c.cache.Get(sum); ok {
		return size, nil
	}

	var size float64
	var err error
	switch c.intelligence {
	case "rc":
		size, err = complexityRC(data)
	case "gzip":
		size, err = complexityGzip(data)
	default:
		err = errors.Errorf("unknown intelligence %q", c.intelligence)
	}
	if err != nil {
		return -1, errors.Wrap(err, "")
	}

	c.cache.Add(sum, size)
	return size, nil
}

func complexityRC(data []byte) (float64, error) {
	cw := &countingWriter{}
	if err := rangecoder.CompressFrom(cw, bytes.NewReader(data)); err != nil {
		return -1, errors.Wrap(err, "")
	}
	return float64(cw.n), nil
}

func complexityGzip(data []byte) (float64, error) {
	cw := &countingWriter{}
	zw, err := gzip.NewWriterLevel(cw, gzip.BestCompression)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}
	if _, err := zw.Write(data); err != nil {
		return -1, errors.Wrap(err, "")
	}
	if err := zw.Close(); err != nil {
		return -1, errors.Wrap(err, "")
	}
	return float64(cw.n), nil
}

type countingWriter struct {
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	cw.n += int64(len(p))
	return len(p), nil
}

// load reads the file fpath, decompressing it if it is xz compressed.
func load(fpath string) ([]byte, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(fpath) == ".xz" {
		xr, err := xz.NewReader(f, xz.DefaultDictMax)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		r = xr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return b, nil
}

func distanceMatrix(c *complexity, names []string, data [][]byte) ([]float64, error) {
	n := len(data)
	mat := make([]float64, 0, n*(n-1)/2)
	for i, dx := range data[:n-1] {
		for j, dy := range data[i+1:] {
			dist, err := distance(c, dx, dy)
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			mat = append(mat, dist)
			log.Printf("\"%s\"-\"%s\": %f", names[i], names[i+1+j], dist)
		}
	}
	return mat, nil
}

// listFiles returns the files in dir matching pattern, in lexical order.
func listFiles(dir, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	data := make([]string, 0, len(matches))
	for _, m := range matches {
		data = append(data, filepath.Join(dir, filepath.FromSlash(m)))
	}
	sort.Strings(data)
	return data, nil
}
