package zstdkit

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/calyptra/zstdkit/internal/pool"
)

// CompressionReader reads plain data from a source and yields it compressed.
//
// It is the pull-mode counterpart of CompressionWriter: each Read pumps the
// source through the compression context until output is available. The frame
// is finalized when the source reports EOF.
//
// Not safe for concurrent use.
type CompressionReader struct {
	src io.Reader
	enc *zstd.Encoder
	buf bytes.Buffer

	scratch   []byte
	release   func()
	srcDone   bool
	closed    bool
	stickyErr error
}

// NewReader creates a reader producing the compressed form of everything
// read from src.
func (c *Compressor) NewReader(src io.Reader) (*CompressionReader, error) {
	r := &CompressionReader{src: src}

	// Synchronous encoder so compressed output lands in r.buf during Write.
	enc, err := c.newStreamEncoder(&r.buf, 1)
	if err != nil {
		return nil, err
	}
	r.enc = enc
	r.scratch, r.release = pool.GetReadBuf()

	return r, nil
}

// Read fills p with compressed data, pumping the source as needed.
func (r *CompressionReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}

	for r.buf.Len() == 0 && r.stickyErr == nil && !r.srcDone {
		r.pump()
	}

	if r.buf.Len() > 0 {
		return r.buf.Read(p)
	}
	if r.stickyErr != nil {
		return 0, r.stickyErr
	}

	return 0, io.EOF
}

// pump feeds one chunk of source data into the compression context, closing
// the frame when the source is exhausted.
func (r *CompressionReader) pump() {
	n, err := r.src.Read(r.scratch)
	if n > 0 {
		if _, werr := r.enc.Write(r.scratch[:n]); werr != nil {
			r.stickyErr = fmt.Errorf("zstd compress error: %w", werr)
			return
		}
	}

	switch {
	case err == io.EOF:
		r.srcDone = true
		if cerr := r.enc.Close(); cerr != nil {
			r.stickyErr = fmt.Errorf("zstd compress error: %w", cerr)
		}
	case err != nil:
		r.stickyErr = err
	}
}

// WriteTo pumps the entire source through the compression context into w.
func (r *CompressionReader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	buf, release := pool.GetReadBuf()
	defer release()

	for {
		n, err := r.Read(buf)
		if n > 0 {
			wn, werr := w.Write(buf[:n])
			total += int64(wn)
			if werr != nil {
				return total, werr
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Close releases the reader. If the source was not exhausted the frame is
// abandoned unfinished.
func (r *CompressionReader) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true

	if !r.srcDone {
		r.enc.Close()
	}
	if r.release != nil {
		r.release()
		r.release = nil
		r.scratch = nil
	}

	return nil
}
