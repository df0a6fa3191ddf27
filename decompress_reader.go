package zstdkit

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// DecompressionReader reads compressed data from a source and yields the
// decompressed stream.
//
// Not safe for concurrent use.
type DecompressionReader struct {
	dec    *zstd.Decoder
	cr     *countingReader
	n      int64
	closed bool
}

// NewReader creates a reader producing the decompressed form of the frames
// read from src.
func (d *Decompressor) NewReader(src io.Reader) (*DecompressionReader, error) {
	cr := &countingReader{r: src}

	dec, err := d.newStreamDecoder(cr, 1)
	if err != nil {
		return nil, err
	}

	return &DecompressionReader{dec: dec, cr: cr}, nil
}

// Read fills p with decompressed data.
func (r *DecompressionReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}

	n, err := r.dec.Read(p)
	r.n += int64(n)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("zstd decompress error: %w", err)
	}

	return n, err
}

// WriteTo decompresses the remaining stream into w.
func (r *DecompressionReader) WriteTo(w io.Writer) (int64, error) {
	if r.closed {
		return 0, ErrClosed
	}

	n, err := r.dec.WriteTo(w)
	r.n += n
	if err != nil {
		return n, fmt.Errorf("zstd decompress error: %w", err)
	}

	return n, nil
}

// Skip discards the next n decompressed bytes. It enables cheap forward
// seeks over content that does not need to be materialized.
func (r *DecompressionReader) Skip(n int64) error {
	if r.closed {
		return ErrClosed
	}
	if n < 0 {
		return fmt.Errorf("cannot skip backwards, got %d", n)
	}

	m, err := io.CopyN(io.Discard, r, n)
	if err == io.EOF && m < n {
		return fmt.Errorf("cannot skip %d bytes: %w", n, io.ErrUnexpectedEOF)
	}

	return err
}

// Tell returns the number of decompressed bytes returned so far.
func (r *DecompressionReader) Tell() int64 {
	return r.n
}

// CompressedBytesRead returns the number of compressed bytes consumed from
// the source so far.
func (r *DecompressionReader) CompressedBytesRead() int64 {
	return r.cr.n
}

// Close releases the reader's decoding resources.
func (r *DecompressionReader) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	r.dec.Close()

	return nil
}
