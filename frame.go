package zstdkit

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// FrameParams holds the parameters parsed from a zstd frame header.
type FrameParams struct {
	// ContentSize is the decompressed size declared in the header, or -1
	// when the frame does not declare one. Skippable frames report 0.
	ContentSize int64

	// WindowSize is the window required to decompress the frame. For
	// single-segment frames this equals the content size.
	WindowSize uint64

	// DictID is the ID of the dictionary the frame was compressed with,
	// or 0 when no dictionary is referenced.
	DictID uint32

	// HasChecksum reports whether the frame ends with a content checksum.
	HasChecksum bool
}

// GetFrameParams parses the frame header at the start of data.
//
// The input needs to contain at least the complete frame header; frame
// content may be truncated or absent.
func GetFrameParams(data []byte) (FrameParams, error) {
	var h zstd.Header
	if err := h.Decode(data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return FrameParams{}, fmt.Errorf("cannot get frame parameters: %w", ErrNeedMoreData)
		}

		return FrameParams{}, fmt.Errorf("cannot get frame parameters: %w", err)
	}

	if h.Skippable {
		return FrameParams{ContentSize: 0}, nil
	}

	fp := FrameParams{
		ContentSize: -1,
		WindowSize:  h.WindowSize,
		DictID:      h.DictionaryID,
		HasChecksum: h.HasCheckSum,
	}
	if h.HasFCS {
		fp.ContentSize = int64(h.FrameContentSize)
		if h.SingleSegment {
			fp.WindowSize = h.FrameContentSize
		}
	}

	return fp, nil
}

// FrameHeaderSize returns the size in bytes of the zstd frame header at the
// start of data. At least frameHeaderSizeMin bytes are required.
func FrameHeaderSize(data []byte) (int, error) {
	var h zstd.Header
	if err := h.Decode(data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("could not determine frame header size: %w", ErrNeedMoreData)
		}

		return 0, fmt.Errorf("could not determine frame header size: %w", err)
	}

	return h.HeaderSize, nil
}

// FrameContentSize returns the decompressed size declared by the frame at the
// start of data, or -1 when the frame does not declare one.
func FrameContentSize(data []byte) (int64, error) {
	fp, err := GetFrameParams(data)
	if err != nil {
		return 0, err
	}

	return fp.ContentSize, nil
}

// Block header layout: 3 bytes little endian, bit 0 = last block,
// bits 1-2 = block type, bits 3+ = size.
const (
	blockTypeRaw        = 0
	blockTypeRLE        = 1
	blockTypeCompressed = 2
)

// frameCompressedSize walks the frame at the start of data and returns its
// exact compressed length, including header, block chain, and checksum.
//
// Only length fields are parsed; no block content is decoded. Returns
// ErrNeedMoreData (wrapping io.ErrUnexpectedEOF semantics) when data holds an
// incomplete frame.
func frameCompressedSize(data []byte) (int, error) {
	var h zstd.Header
	if err := h.Decode(data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrNeedMoreData
		}

		return 0, err
	}

	if h.Skippable {
		n := skippableFrameHeaderSize + int(h.SkippableSize)
		if len(data) < n {
			return 0, ErrNeedMoreData
		}

		return n, nil
	}

	n := h.HeaderSize
	for {
		if len(data) < n+3 {
			return 0, ErrNeedMoreData
		}

		bh := uint32(data[n]) | uint32(data[n+1])<<8 | uint32(data[n+2])<<16
		n += 3

		last := bh&1 != 0
		size := int(bh >> 3)

		switch (bh >> 1) & 3 {
		case blockTypeRaw, blockTypeCompressed:
			n += size
		case blockTypeRLE:
			n++
		default:
			return 0, fmt.Errorf("%w: reserved block type", ErrNotZstdFrame)
		}

		if n > len(data) {
			return 0, ErrNeedMoreData
		}
		if last {
			break
		}
	}

	if h.HasCheckSum {
		n += 4
		if n > len(data) {
			return 0, ErrNeedMoreData
		}
	}

	return n, nil
}
