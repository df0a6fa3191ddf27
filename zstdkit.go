// Package zstdkit provides a complete Go interface to Zstandard (zstd)
// compression: one-shot helpers, reusable compression and decompression
// contexts, five streaming adapter shapes per direction, dictionaries with
// training, frame introspection, and segmented buffers for batch operations.
//
// zstdkit implements no compression itself. All entropy coding, match
// finding, and dictionary training happen in the backing engines; this
// package sequences their APIs, manages buffers, validates parameters, and
// translates failures into wrapped sentinel errors. The pure-Go engine
// (github.com/klauspost/compress/zstd) backs everything; when built with cgo,
// one-shot calls with default settings are routed through libzstd
// (github.com/valyala/gozstd) instead.
//
// # Basic Usage
//
// One-shot compression:
//
//	compressed, _ := zstdkit.Compress(data, 3)
//	original, _ := zstdkit.Decompress(compressed)
//
// Reusable contexts are cheaper when called in a loop:
//
//	cctx, _ := zstdkit.NewCompressor(zstdkit.WithLevel(19))
//	for _, payload := range payloads {
//	    frame, _ := cctx.Compress(payload)
//	    store(frame)
//	}
//
// Streaming:
//
//	cctx, _ := zstdkit.NewCompressor()
//	w, _ := cctx.NewWriter(dst)
//	io.Copy(w, src)
//	w.Close()
//
// Dictionaries:
//
//	dict, _ := zstdkit.TrainDict(samples, zstdkit.WithDictSize(16*1024))
//	cctx, _ := zstdkit.NewCompressor(zstdkit.WithDict(dict))
//	dctx, _ := zstdkit.NewDecompressor(zstdkit.WithDecompressDict(dict))
//
// # Adapter Shapes
//
// Each direction offers the same five shapes, so callers can pick whichever
// matches their data flow instead of adapting around a single API:
//
//   - one-shot: Compress / Decompress on the context
//   - push object: NewObj (CompressionObj / DecompressionObj)
//   - stream writer: NewWriter
//   - stream reader: NewReader
//   - iterator: ReadToIter; plus the Chunker for uniform-size output
package zstdkit

import (
	"fmt"
	"io"
)

// Backend returns the name of the active compression engine:
// "cgo" when one-shot calls go through libzstd, "purego" otherwise.
func Backend() string {
	return backendName
}

// Compress compresses data into a single zstd frame using basic settings.
//
// This helper creates a throwaway compression context. When compressing in a
// tight loop, construct a Compressor once and call Compress on it instead.
func Compress(data []byte, level int) ([]byte, error) {
	cctx, err := NewCompressor(WithLevel(level))
	if err != nil {
		return nil, err
	}

	return cctx.Compress(data)
}

// Decompress decompresses the zstd frames in data using default settings.
//
// This helper creates a throwaway decompression context. When decompressing
// in a tight loop, construct a Decompressor once and call Decompress on it
// instead.
func Decompress(data []byte) ([]byte, error) {
	dctx, err := NewDecompressor()
	if err != nil {
		return nil, err
	}

	return dctx.Decompress(data)
}

// NewWriter creates a streaming compression writer on top of w using a
// default compression context.
func NewWriter(w io.Writer, opts ...CompressorOption) (*CompressionWriter, error) {
	cctx, err := NewCompressor(opts...)
	if err != nil {
		return nil, err
	}

	return cctx.NewWriter(w)
}

// NewReader creates a streaming decompression reader on top of r using a
// default decompression context.
func NewReader(r io.Reader, opts ...DecompressorOption) (*DecompressionReader, error) {
	dctx, err := NewDecompressor(opts...)
	if err != nil {
		return nil, err
	}

	return dctx.NewReader(r)
}

// CompressionRatio reports compressed size relative to original size.
// Values below 1.0 indicate successful compression; it returns 0 when
// originalSize is zero.
func CompressionRatio(originalSize, compressedSize int) float64 {
	if originalSize == 0 {
		return 0
	}

	return float64(compressedSize) / float64(originalSize)
}

// errUnsupported marks features the active engines cannot express.
func errUnsupported(feature string) error {
	return fmt.Errorf("zstdkit: %s is not supported by the %s engine", feature, backendName)
}
