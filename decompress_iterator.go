package zstdkit

import (
	"io"
	"iter"
)

// ReadToIter reads compressed frames from src and yields decompressed chunks
// as they are produced.
//
// The iterator yields at most one non-nil error, as its final element.
// Yielded chunks are freshly allocated and remain valid after the next
// iteration step.
func (d *Decompressor) ReadToIter(src io.Reader) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		r, err := d.NewReader(src)
		if err != nil {
			yield(nil, err)
			return
		}
		defer r.Close()

		emitReaderChunks(r, yield)
	}
}
