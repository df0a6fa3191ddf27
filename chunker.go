package zstdkit

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/klauspost/compress/zstd"
)

// Chunker is a manual chunk pump producing uniform-size compressed chunks.
//
// Unlike CompressionObj, whose output sizes follow the compressor's block
// boundaries, a Chunker re-slices the compressed stream so every emitted
// chunk has exactly the configured size; only the final chunk of the frame
// may be shorter. This suits callers that persist or transmit fixed-size
// records.
//
// Each of Compress, Flush and Finish returns an iterator over the chunks the
// operation makes available. The iterator must be fully consumed before the
// next operation is started.
//
// Not safe for concurrent use.
type Chunker struct {
	enc       *zstd.Encoder
	buf       bytes.Buffer
	chunkSize int

	finished    bool
	frameEnded  bool
	outstanding bool
}

// NewChunker creates a chunk pump emitting chunks of chunkSize bytes.
// A chunkSize of 0 selects DefaultStreamOutSize.
func (c *Compressor) NewChunker(chunkSize int) (*Chunker, error) {
	if chunkSize < 0 {
		return nil, fmt.Errorf("chunk size must not be negative, got %d", chunkSize)
	}
	if chunkSize == 0 {
		chunkSize = DefaultStreamOutSize
	}

	ch := &Chunker{chunkSize: chunkSize}

	enc, err := c.newStreamEncoder(&ch.buf, 1)
	if err != nil {
		return nil, err
	}
	ch.enc = enc

	return ch, nil
}

// Compress feeds data into the chunker and returns an iterator over the
// complete chunks now available. Partial trailing data stays buffered until
// more input arrives or Flush/Finish is called.
func (c *Chunker) Compress(data []byte) (iter.Seq2[[]byte, error], error) {
	if err := c.checkState("compress"); err != nil {
		return nil, err
	}

	if _, err := c.enc.Write(data); err != nil {
		return nil, fmt.Errorf("zstd compress error: %w", err)
	}

	return c.emit(false), nil
}

// Flush forces buffered input through the compressor and returns an iterator
// draining everything buffered, including a final partial chunk. The frame
// stays open.
func (c *Chunker) Flush() (iter.Seq2[[]byte, error], error) {
	if err := c.checkState("flush"); err != nil {
		return nil, err
	}

	if err := c.enc.Flush(); err != nil {
		return nil, fmt.Errorf("zstd compress error: %w", err)
	}

	return c.emit(true), nil
}

// Finish ends the frame and returns an iterator draining all remaining
// chunks. The chunker cannot be used afterwards.
func (c *Chunker) Finish() (iter.Seq2[[]byte, error], error) {
	if err := c.checkState("finish"); err != nil {
		return nil, err
	}
	c.frameEnded = true

	if err := c.enc.Close(); err != nil {
		return nil, fmt.Errorf("zstd compress error: %w", err)
	}

	return c.emit(true), nil
}

func (c *Chunker) checkState(op string) error {
	if c.finished {
		return fmt.Errorf("cannot call %s() after compression finished: %w", op, ErrFinished)
	}
	if c.outstanding {
		return fmt.Errorf("cannot call %s(): %w", op, ErrOutstandingIterator)
	}

	return nil
}

// emit returns an iterator slicing the buffered compressed stream into
// chunks. With drain set, a final partial chunk is emitted as well.
func (c *Chunker) emit(drain bool) iter.Seq2[[]byte, error] {
	c.outstanding = true

	return func(yield func([]byte, error) bool) {
		for c.buf.Len() >= c.chunkSize {
			if !yield(c.takeChunk(c.chunkSize), nil) {
				return
			}
		}

		if drain && c.buf.Len() > 0 {
			if !yield(c.takeChunk(c.buf.Len()), nil) {
				return
			}
		}

		c.outstanding = false
		if c.frameEnded {
			c.finished = true
		}
	}
}

// takeChunk removes and returns the first n buffered bytes.
func (c *Chunker) takeChunk(n int) []byte {
	chunk := make([]byte, n)
	copy(chunk, c.buf.Bytes()[:n])
	c.buf.Next(n)

	return chunk
}
