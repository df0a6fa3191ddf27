package zstdkit

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// CompressionWriter compresses data written to it into a zstd frame on an
// underlying writer.
//
// The frame is finalized by Close; a frame that is never closed is truncated
// and will not decompress. Close does not close the underlying writer.
//
// Not safe for concurrent use.
type CompressionWriter struct {
	enc    *zstd.Encoder
	cw     *countingWriter
	read   int64
	closed bool
}

// NewWriter creates a streaming compression writer on top of w.
func (c *Compressor) NewWriter(w io.Writer) (*CompressionWriter, error) {
	cw := &countingWriter{w: w}

	enc, err := c.newStreamEncoder(cw, c.params.concurrency())
	if err != nil {
		return nil, err
	}

	return &CompressionWriter{enc: enc, cw: cw}, nil
}

// Write compresses p into the frame.
func (w *CompressionWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}

	n, err := w.enc.Write(p)
	w.read += int64(n)
	if err != nil {
		return n, fmt.Errorf("zstd compress error: %w", err)
	}

	return n, nil
}

// Flush compresses buffered input into a complete block and writes it to the
// underlying writer. The frame stays open.
func (w *CompressionWriter) Flush() error {
	if w.closed {
		return ErrClosed
	}

	if err := w.enc.Flush(); err != nil {
		return fmt.Errorf("zstd compress error: %w", err)
	}

	return nil
}

// Close finalizes the frame. It does not close the underlying writer.
func (w *CompressionWriter) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("zstd compress error: %w", err)
	}

	return nil
}

// Tell returns the number of compressed bytes written to the underlying
// writer so far.
func (w *CompressionWriter) Tell() int64 {
	return w.cw.n
}

// BytesIn returns the number of plain bytes accepted so far.
func (w *CompressionWriter) BytesIn() int64 {
	return w.read
}
