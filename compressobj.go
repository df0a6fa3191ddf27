package zstdkit

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressionObj is a push-style compression context.
//
// Input is fed in with Compress, which returns whatever compressed output the
// context produced so far; output for a given input may surface in a later
// call once a block boundary is reached. Flush forces buffered input out in a
// complete block, and Finish ends the frame.
//
// Not safe for concurrent use.
type CompressionObj struct {
	enc      *zstd.Encoder
	buf      bytes.Buffer
	finished bool
}

// NewObj creates a push-style compression context producing one frame.
func (c *Compressor) NewObj() (*CompressionObj, error) {
	obj := &CompressionObj{}

	enc, err := c.newStreamEncoder(&obj.buf, 1)
	if err != nil {
		return nil, err
	}
	obj.enc = enc

	return obj, nil
}

// Compress feeds data into the context and returns any compressed output
// produced. The returned slice may be empty while the context accumulates a
// block.
func (o *CompressionObj) Compress(data []byte) ([]byte, error) {
	if o.finished {
		return nil, fmt.Errorf("cannot call compress() after compressor finished: %w", ErrFinished)
	}

	if _, err := o.enc.Write(data); err != nil {
		return nil, fmt.Errorf("zstd compress error: %w", err)
	}

	return o.drain(), nil
}

// Flush compresses all buffered input into a complete block and returns the
// output. The frame stays open.
func (o *CompressionObj) Flush() ([]byte, error) {
	if o.finished {
		return nil, fmt.Errorf("cannot call flush() after compressor finished: %w", ErrFinished)
	}

	if err := o.enc.Flush(); err != nil {
		return nil, fmt.Errorf("zstd compress error: %w", err)
	}

	return o.drain(), nil
}

// Finish ends the frame and returns the remaining output. The context cannot
// be used afterwards.
func (o *CompressionObj) Finish() ([]byte, error) {
	if o.finished {
		return nil, fmt.Errorf("cannot call finish() after compressor finished: %w", ErrFinished)
	}
	o.finished = true

	if err := o.enc.Close(); err != nil {
		return nil, fmt.Errorf("zstd compress error: %w", err)
	}

	return o.drain(), nil
}

// drain returns and resets the buffered compressed output.
func (o *CompressionObj) drain() []byte {
	if o.buf.Len() == 0 {
		return nil
	}

	out := make([]byte, o.buf.Len())
	copy(out, o.buf.Bytes())
	o.buf.Reset()

	return out
}
