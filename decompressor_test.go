package zstdkit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecompressor_Reuse(t *testing.T) {
	dctx, err := NewDecompressor()
	require.NoError(t, err)

	for i := range 5 {
		payload := testPayload(2048 * (i + 1))

		frame, err := Compress(payload, 3)
		require.NoError(t, err)

		out, err := dctx.Decompress(frame)
		require.NoError(t, err)
		require.Equal(t, payload, out)
	}
}

func TestDecompressor_MultipleFrames(t *testing.T) {
	a := testPayload(1024)
	b := testPayload(4096)

	frameA, err := Compress(a, 3)
	require.NoError(t, err)
	frameB, err := Compress(b, 3)
	require.NoError(t, err)

	out, err := Decompress(append(append([]byte{}, frameA...), frameB...))
	require.NoError(t, err)
	require.Equal(t, append(append([]byte{}, a...), b...), out)
}

func TestDecompressLimit(t *testing.T) {
	payload := testPayload(64 * 1024)

	frame, err := Compress(payload, 3)
	require.NoError(t, err)

	dctx, err := NewDecompressor()
	require.NoError(t, err)

	out, err := dctx.DecompressLimit(frame, len(payload))
	require.NoError(t, err)
	require.Equal(t, payload, out)

	_, err = dctx.DecompressLimit(frame, 1024)
	require.ErrorIs(t, err, ErrOutputLimitExceeded)

	// No limit falls back to plain decompression.
	out, err = dctx.DecompressLimit(frame, 0)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestDecompressor_MaxWindowLog(t *testing.T) {
	_, err := NewDecompressor(WithMaxWindowLog(5))
	require.Error(t, err)

	dctx, err := NewDecompressor(WithMaxWindowLog(27))
	require.NoError(t, err)

	payload := testPayload(16 * 1024)
	frame, err := Compress(payload, 3)
	require.NoError(t, err)

	out, err := dctx.Decompress(frame)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestDecompressorCopyStream(t *testing.T) {
	payload := testPayload(200 * 1024)

	frame, err := Compress(payload, 3)
	require.NoError(t, err)

	dctx, err := NewDecompressor()
	require.NoError(t, err)

	var out bytes.Buffer
	read, written, err := dctx.CopyStream(&out, bytes.NewReader(frame))
	require.NoError(t, err)
	require.Equal(t, int64(len(frame)), read)
	require.Equal(t, int64(len(payload)), written)
	require.Equal(t, payload, out.Bytes())
}

func TestMultiDecompress(t *testing.T) {
	sources := [][]byte{
		testPayload(100),
		testPayload(10 * 1024),
		testPayload(64 * 1024),
	}

	cctx, err := NewCompressor()
	require.NoError(t, err)

	frames := make([][]byte, len(sources))
	for i, src := range sources {
		frames[i], err = cctx.Compress(src)
		require.NoError(t, err)
	}

	dctx, err := NewDecompressor()
	require.NoError(t, err)

	for _, concurrency := range []int{0, 3} {
		result, err := dctx.MultiDecompress(frames, concurrency)
		require.NoError(t, err, "concurrency %d", concurrency)
		require.Equal(t, len(sources), result.Len())

		for i, src := range sources {
			seg, err := result.Segment(i)
			require.NoError(t, err)
			require.Equal(t, src, seg, "segment %d", i)
		}
	}
}

func TestMultiDecompress_BadFrame(t *testing.T) {
	frame, err := Compress(testPayload(100), 3)
	require.NoError(t, err)

	dctx, err := NewDecompressor()
	require.NoError(t, err)

	_, err = dctx.MultiDecompress([][]byte{frame, []byte("garbage")}, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "source 1")
}

func TestContentDictChain(t *testing.T) {
	v1 := testPayload(8 * 1024)
	v2 := append(append([]byte{}, v1[:6*1024]...), "tail revision two, mostly shared content"...)

	cctx, err := NewCompressor()
	require.NoError(t, err)

	frame1, err := cctx.Compress(v1)
	require.NoError(t, err)

	dict, err := NewDict(v1, WithDictType(DictTypeRawContent))
	require.NoError(t, err)

	cctxDelta, err := NewCompressor(WithDict(dict))
	require.NoError(t, err)

	frame2, err := cctxDelta.Compress(v2)
	require.NoError(t, err)

	dctx, err := NewDecompressor()
	require.NoError(t, err)

	out, err := dctx.ContentDictChain([][]byte{frame1, frame2})
	require.NoError(t, err)
	require.Equal(t, v2, out)

	// Single-element chain is just a plain decompression.
	out, err = dctx.ContentDictChain([][]byte{frame1})
	require.NoError(t, err)
	require.Equal(t, v1, out)
}

func TestContentDictChain_Errors(t *testing.T) {
	dctx, err := NewDecompressor()
	require.NoError(t, err)

	_, err = dctx.ContentDictChain(nil)
	require.Error(t, err)

	_, err = dctx.ContentDictChain([][]byte{[]byte("not a frame")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "chunk 0")

	// Streamed frames declare no content size and cannot anchor a chain.
	cctx, err := NewCompressor()
	require.NoError(t, err)

	obj, err := cctx.NewObj()
	require.NoError(t, err)

	part, err := obj.Compress(testPayload(1024))
	require.NoError(t, err)

	rest, err := obj.Finish()
	require.NoError(t, err)

	streamed := append(append([]byte{}, part...), rest...)

	_, err = dctx.ContentDictChain([][]byte{streamed})
	require.ErrorIs(t, err, ErrContentSizeUnknown)
}
