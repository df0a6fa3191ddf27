//go:build cgo

package zstdkit

import (
	"fmt"

	"github.com/valyala/gozstd"
)

// backendName identifies the active compression engine.
const backendName = "cgo"

// compressPlain routes one-shot compression with the default parameter shape
// through libzstd, which is markedly faster than the pure-Go engine for
// one-shot calls. Anything beyond a bare level falls back to the configured
// pure-Go context in CompressInto.
func (c *Compressor) compressPlain(dst, data []byte) ([]byte, error) {
	return gozstd.CompressLevel(dst, data, c.params.effectiveLevel()), nil
}

// decompressPlain routes one-shot decompression without dictionaries or
// limits through libzstd.
func (d *Decompressor) decompressPlain(dst, data []byte) ([]byte, error) {
	out, err := gozstd.Decompress(dst, data)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress error: %w", err)
	}

	return out, nil
}
