package zstdkit

import (
	"fmt"
	"iter"
)

// BufferSegment describes one segment inside a BufferWithSegments.
type BufferSegment struct {
	Offset uint64
	Length uint64
}

// BufferWithSegments is a single backing byte slice logically divided into
// segments.
//
// Batch operations produce and consume this shape: one allocation holds many
// logical buffers, with segment descriptors recording where each one lives.
type BufferWithSegments struct {
	data     []byte
	segments []BufferSegment
}

// NewBufferWithSegments creates a segmented view over data.
// Every segment must lie within data.
func NewBufferWithSegments(data []byte, segments []BufferSegment) (*BufferWithSegments, error) {
	for i, seg := range segments {
		// Checked in two steps so Offset+Length cannot wrap around.
		if seg.Length > uint64(len(data)) || seg.Offset > uint64(len(data))-seg.Length {
			return nil, fmt.Errorf("segment %d (offset %d, length %d) exceeds buffer size %d",
				i, seg.Offset, seg.Length, len(data))
		}
	}

	return &BufferWithSegments{data: data, segments: segments}, nil
}

// newSegmentedResult packs per-source result slices into one contiguous
// segmented buffer.
func newSegmentedResult(results [][]byte) *BufferWithSegments {
	var total int
	for _, r := range results {
		total += len(r)
	}

	data := make([]byte, 0, total)
	segments := make([]BufferSegment, 0, len(results))
	for _, r := range results {
		segments = append(segments, BufferSegment{
			Offset: uint64(len(data)),
			Length: uint64(len(r)),
		})
		data = append(data, r...)
	}

	return &BufferWithSegments{data: data, segments: segments}
}

// Len returns the number of segments.
func (b *BufferWithSegments) Len() int {
	return len(b.segments)
}

// Size returns the total size of the backing buffer in bytes.
func (b *BufferWithSegments) Size() int {
	return len(b.data)
}

// Bytes returns the backing buffer. The returned slice must not be modified.
func (b *BufferWithSegments) Bytes() []byte {
	return b.data
}

// Segment returns the bytes of segment i.
func (b *BufferWithSegments) Segment(i int) ([]byte, error) {
	if i < 0 || i >= len(b.segments) {
		return nil, fmt.Errorf("segment index %d out of range [0, %d)", i, len(b.segments))
	}

	seg := b.segments[i]

	return b.data[seg.Offset : seg.Offset+seg.Length], nil
}

// Segments returns the segment descriptors. The returned slice must not be
// modified.
func (b *BufferWithSegments) Segments() []BufferSegment {
	return b.segments
}

// All iterates over the segments in order.
func (b *BufferWithSegments) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for i, seg := range b.segments {
			if !yield(i, b.data[seg.Offset:seg.Offset+seg.Length]) {
				return
			}
		}
	}
}

// BufferWithSegmentsCollection groups several segmented buffers behind a
// single global segment index.
type BufferWithSegmentsCollection struct {
	buffers []*BufferWithSegments
	// firstSegments[i] is the global index of buffers[i]'s first segment.
	firstSegments []int
	totalSegments int
	totalSize     int
}

// NewBufferWithSegmentsCollection creates a collection over the given
// buffers. At least one buffer is required and every buffer must contain at
// least one segment.
func NewBufferWithSegmentsCollection(buffers ...*BufferWithSegments) (*BufferWithSegmentsCollection, error) {
	if len(buffers) == 0 {
		return nil, fmt.Errorf("must pass at least one buffer")
	}

	c := &BufferWithSegmentsCollection{
		buffers:       buffers,
		firstSegments: make([]int, len(buffers)),
	}
	for i, b := range buffers {
		if b.Len() == 0 {
			return nil, fmt.Errorf("buffer %d contains no segments", i)
		}
		c.firstSegments[i] = c.totalSegments
		c.totalSegments += b.Len()
		c.totalSize += b.Size()
	}

	return c, nil
}

// Len returns the total number of segments across all buffers.
func (c *BufferWithSegmentsCollection) Len() int {
	return c.totalSegments
}

// Size returns the total byte size across all buffers.
func (c *BufferWithSegmentsCollection) Size() int {
	return c.totalSize
}

// Buffer returns the i-th underlying segmented buffer.
func (c *BufferWithSegmentsCollection) Buffer(i int) (*BufferWithSegments, error) {
	if i < 0 || i >= len(c.buffers) {
		return nil, fmt.Errorf("buffer index %d out of range [0, %d)", i, len(c.buffers))
	}

	return c.buffers[i], nil
}

// Segment returns the bytes of global segment i.
func (c *BufferWithSegmentsCollection) Segment(i int) ([]byte, error) {
	if i < 0 || i >= c.totalSegments {
		return nil, fmt.Errorf("segment index %d out of range [0, %d)", i, c.totalSegments)
	}

	for bi := len(c.buffers) - 1; bi >= 0; bi-- {
		if i >= c.firstSegments[bi] {
			return c.buffers[bi].Segment(i - c.firstSegments[bi])
		}
	}

	// Unreachable given the bounds check above.
	return nil, fmt.Errorf("segment index %d not found", i)
}
