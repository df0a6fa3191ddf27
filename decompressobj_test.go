package zstdkit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecompressionObj_FedInPieces(t *testing.T) {
	payload := testPayload(32 * 1024)

	frame, err := Compress(payload, 3)
	require.NoError(t, err)

	dctx, err := NewDecompressor()
	require.NoError(t, err)

	obj := dctx.NewObj()

	var out []byte
	for off := 0; off < len(frame); off += 7 {
		end := min(off+7, len(frame))

		part, err := obj.Decompress(frame[off:end])
		require.NoError(t, err)

		if end < len(frame) {
			require.Empty(t, part, "no output before the frame completes")
			require.False(t, obj.Eof())
		}
		out = append(out, part...)
	}

	require.Equal(t, payload, out)
	require.True(t, obj.Eof())
	require.Empty(t, obj.UnusedData())
}

func TestDecompressionObj_UnusedData(t *testing.T) {
	payload := testPayload(1024)

	frame, err := Compress(payload, 3)
	require.NoError(t, err)

	trailer := []byte("bytes after the frame")
	input := append(append([]byte{}, frame...), trailer...)

	dctx, err := NewDecompressor()
	require.NoError(t, err)

	obj := dctx.NewObj()

	out, err := obj.Decompress(input)
	require.NoError(t, err)
	require.Equal(t, payload, out)
	require.True(t, obj.Eof())
	require.Equal(t, trailer, obj.UnusedData())
}

func TestDecompressionObj_SkippablePrefix(t *testing.T) {
	payload := testPayload(1024)

	frame, err := Compress(payload, 3)
	require.NoError(t, err)

	input := append(makeSkippableFrame([]byte("sidecar metadata")), frame...)

	dctx, err := NewDecompressor()
	require.NoError(t, err)

	obj := dctx.NewObj()

	out, err := obj.Decompress(input)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestDecompressionObj_SingleUse(t *testing.T) {
	frame, err := Compress(testPayload(100), 3)
	require.NoError(t, err)

	dctx, err := NewDecompressor()
	require.NoError(t, err)

	obj := dctx.NewObj()

	_, err = obj.Decompress(frame)
	require.NoError(t, err)

	_, err = obj.Decompress(frame)
	require.ErrorIs(t, err, ErrFinished)
}

func TestDecompressionObj_Flush(t *testing.T) {
	dctx, err := NewDecompressor()
	require.NoError(t, err)

	obj := dctx.NewObj()

	out, err := obj.Flush()
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestDecompressionObj_InvalidInput(t *testing.T) {
	dctx, err := NewDecompressor()
	require.NoError(t, err)

	obj := dctx.NewObj()

	_, err = obj.Decompress([]byte("this is not a zstd frame, clearly"))
	require.Error(t, err)
}
