package zstdkit

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
)

// DecompressionWriter accepts compressed input via Write and forwards the
// decompressed stream to an underlying writer.
//
// The pure-Go engine decodes pull-mode only, so the writer bridges with an
// in-process pipe: Write feeds the pipe, a decode goroutine drains it into
// the destination. Close waits for the goroutine and reports any decode
// error; a writer must always be closed. Close does not close the underlying
// writer.
//
// Not safe for concurrent use.
type DecompressionWriter struct {
	pw     *io.PipeWriter
	done   chan struct{}
	err    error
	n      atomic.Int64 // written by the decode goroutine
	closed bool
}

// NewWriter creates a streaming decompression writer on top of w.
func (d *Decompressor) NewWriter(w io.Writer) *DecompressionWriter {
	pr, pw := io.Pipe()
	dw := &DecompressionWriter{
		pw:   pw,
		done: make(chan struct{}),
	}

	go func() {
		defer close(dw.done)

		dec, err := zstd.NewReader(pr, d.decoderOptions(1)...)
		if err != nil {
			dw.err = err
			pr.CloseWithError(err)
			return
		}
		defer dec.Close()

		_, err = dec.WriteTo(&tellWriter{w: w, n: &dw.n})
		if err != nil {
			dw.err = fmt.Errorf("zstd decompress error: %w", err)
			pr.CloseWithError(dw.err)
			return
		}
		pr.Close()
	}()

	return dw
}

// Write feeds compressed data to the decode goroutine. A decode failure
// surfaces on the Write that follows it, or on Close.
func (w *DecompressionWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}

	return w.pw.Write(p)
}

// Close signals end of input, waits for decoding to finish, and returns any
// decode error. The compressed input must contain complete frames by then.
func (w *DecompressionWriter) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	w.pw.Close()
	<-w.done

	return w.err
}

// Tell returns the number of decompressed bytes written to the underlying
// writer. The count settles once Close has returned; before that it trails
// the decode goroutine.
func (w *DecompressionWriter) Tell() int64 {
	return w.n.Load()
}

// tellWriter counts bytes atomically so Tell can observe decode progress from
// outside the decode goroutine.
type tellWriter struct {
	w io.Writer
	n *atomic.Int64
}

func (tw *tellWriter) Write(p []byte) (int, error) {
	n, err := tw.w.Write(p)
	tw.n.Add(int64(n))

	return n, err
}
