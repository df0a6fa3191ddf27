//go:build !cgo

package zstdkit

import "fmt"

// backendName identifies the active compression engine.
const backendName = "purego"

// compressPlain handles the default parameter shape. Without cgo there is no
// separate fast path; the pooled pure-Go context serves every shape.
func (c *Compressor) compressPlain(dst, data []byte) ([]byte, error) {
	return c.enc.EncodeAll(data, dst), nil
}

// decompressPlain handles decompression without dictionaries or limits.
func (d *Decompressor) decompressPlain(dst, data []byte) ([]byte, error) {
	out, err := d.dec.DecodeAll(data, dst)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress error: %w", err)
	}

	return out, nil
}
