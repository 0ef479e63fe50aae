package mrf

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"

	"github.com/klauspost/pgzip"
)

// NewGzipReader opens a gzip decompression reader over r. By default it
// uses pgzip, which parallelizes inflation across blocks; useStdGzip
// selects the single-threaded standard library implementation instead,
// which some operators prefer for its simpler failure mode on
// truncated or corrupt input.
func NewGzipReader(r io.Reader, useStdGzip bool) (io.ReadCloser, error) {
	if useStdGzip {
		return gzip.NewReader(r)
	}
	return pgzip.NewReader(r)
}

// OpenData opens path and returns its gzip decompression stream wrapped
// in a buffered reader of bufSize bytes, plus a Closer that releases
// both the gzip reader and the underlying file. bufSize mirrors the
// optional third CLI positional argument (spec §6).
func OpenData(path string, bufSize int, useStdGzip bool) (io.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	gz, err := NewGzipReader(f, useStdGzip)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return bufio.NewReaderSize(gz, bufSize), multiCloser{gz, f}, nil
}

type multiCloser struct {
	gz io.Closer
	f  io.Closer
}

func (m multiCloser) Close() error {
	gzErr := m.gz.Close()
	fErr := m.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}
