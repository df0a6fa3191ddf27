package zstdkit

import (
	"errors"
	"fmt"

	"github.com/calyptra/zstdkit/internal/pool"
)

// DecompressionObj is a push-style decompression context for a single frame.
//
// Compressed input is fed in with Decompress in arbitrarily-sized pieces.
// The pure-Go engine decodes pull-mode only, so the obj buffers input and
// emits the frame's content once the final block has arrived; until then
// Decompress returns an empty slice. Skippable frames are consumed silently.
// Input past the end of the frame is retained and available via UnusedData.
//
// Not safe for concurrent use.
type DecompressionObj struct {
	d   *Decompressor
	buf *pool.ByteBuffer

	eof    bool
	unused []byte
}

// NewObj creates a push-style decompression context.
func (d *Decompressor) NewObj() *DecompressionObj {
	return &DecompressionObj{
		d:   d,
		buf: pool.GetStreamBuffer(),
	}
}

// Decompress feeds compressed data in and returns any decompressed output now
// available. After the frame completes, further calls fail with ErrFinished.
func (o *DecompressionObj) Decompress(data []byte) ([]byte, error) {
	if o.eof {
		return nil, fmt.Errorf("cannot use a decompressobj multiple times: %w", ErrFinished)
	}

	o.buf.B = append(o.buf.B, data...)

	for {
		size, err := frameCompressedSize(o.buf.B)
		if errors.Is(err, ErrNeedMoreData) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("zstd decompress error: %w", err)
		}

		frame := o.buf.B[:size]
		if isSkippableFrame(frame) {
			// Consume and keep scanning.
			o.buf.B = o.buf.B[size:]
			if len(o.buf.B) == 0 {
				return nil, nil
			}

			continue
		}

		out, err := o.d.Decompress(frame)
		if err != nil {
			return nil, err
		}

		o.eof = true
		if rest := o.buf.B[size:]; len(rest) > 0 {
			o.unused = make([]byte, len(rest))
			copy(o.unused, rest)
		}
		o.releaseBuf()

		return out, nil
	}
}

// Flush exists for API symmetry with CompressionObj and returns no data.
func (o *DecompressionObj) Flush() ([]byte, error) {
	return nil, nil
}

// Eof reports whether the frame has been fully decoded.
func (o *DecompressionObj) Eof() bool {
	return o.eof
}

// UnusedData returns input bytes that followed the end of the frame.
func (o *DecompressionObj) UnusedData() []byte {
	return o.unused
}

func (o *DecompressionObj) releaseBuf() {
	if o.buf != nil {
		pool.PutStreamBuffer(o.buf)
		o.buf = nil
	}
}

// isSkippableFrame reports whether data starts with a skippable frame magic.
func isSkippableFrame(data []byte) bool {
	if len(data) < 4 {
		return false
	}

	magic := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24

	return magic >= SkippableFrameMagicMin && magic <= SkippableFrameMagicMax
}
