package zstdkit

import "errors"

var (
	// ErrClosed is returned when an adapter is used after Close.
	ErrClosed = errors.New("zstdkit: used after close")

	// ErrFinished is returned when an operation is attempted on a context
	// whose frame has already been finished.
	ErrFinished = errors.New("zstdkit: operation after compression finished")

	// ErrOutstandingIterator is returned by the Chunker when a new operation
	// is started before the iterator returned by the previous operation has
	// been fully consumed.
	ErrOutstandingIterator = errors.New("zstdkit: previous operation output not fully consumed")

	// ErrEmptyInput is returned when a decompression operation receives no
	// input where at least a frame header is required.
	ErrEmptyInput = errors.New("zstdkit: empty input")

	// ErrOutputLimitExceeded is returned when decompressed output would exceed
	// the caller-supplied limit.
	ErrOutputLimitExceeded = errors.New("zstdkit: decompressed size exceeds output limit")

	// ErrContentSizeUnknown is returned by operations that require frames to
	// declare their decompressed size in the frame header.
	ErrContentSizeUnknown = errors.New("zstdkit: frame header does not declare content size")

	// ErrNotZstdFrame is returned when input does not begin with a zstd frame.
	ErrNotZstdFrame = errors.New("zstdkit: not a zstd frame")

	// ErrNeedMoreData is returned by frame introspection when the supplied
	// prefix is too short to parse.
	ErrNeedMoreData = errors.New("zstdkit: not enough data")
)
