package zstdkit

import (
	"io"
	"iter"
)

// ReadToIter reads plain data from src and yields compressed chunks as they
// are produced, ending the frame when src is exhausted.
//
// The iterator yields at most one non-nil error, as its final element.
// Yielded chunks are freshly allocated and remain valid after the next
// iteration step.
//
// Example:
//
//	cctx, _ := zstdkit.NewCompressor()
//	for chunk, err := range cctx.ReadToIter(f) {
//	    if err != nil {
//	        return err
//	    }
//	    sink.Write(chunk)
//	}
func (c *Compressor) ReadToIter(src io.Reader) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		r, err := c.NewReader(src)
		if err != nil {
			yield(nil, err)
			return
		}
		defer r.Close()

		emitReaderChunks(r, yield)
	}
}

// emitReaderChunks pumps r and yields each produced chunk until EOF or error.
func emitReaderChunks(r io.Reader, yield func([]byte, error) bool) {
	buf := make([]byte, DefaultStreamOutSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !yield(chunk, nil) {
				return
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			yield(nil, err)
			return
		}
	}
}
