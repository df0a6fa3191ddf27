package zstdkit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressionObj_RoundTrip(t *testing.T) {
	payload := testPayload(200 * 1024)

	cctx, err := NewCompressor()
	require.NoError(t, err)

	obj, err := cctx.NewObj()
	require.NoError(t, err)

	var frame []byte
	for off := 0; off < len(payload); off += 10 * 1024 {
		end := min(off+10*1024, len(payload))

		out, err := obj.Compress(payload[off:end])
		require.NoError(t, err)
		frame = append(frame, out...)
	}

	out, err := obj.Finish()
	require.NoError(t, err)
	frame = append(frame, out...)

	original, err := Decompress(frame)
	require.NoError(t, err)
	require.Equal(t, payload, original)
}

func TestCompressionObj_FlushKeepsFrameOpen(t *testing.T) {
	payload := testPayload(4 * 1024)

	cctx, err := NewCompressor()
	require.NoError(t, err)

	obj, err := cctx.NewObj()
	require.NoError(t, err)

	var frame []byte

	out, err := obj.Compress(payload[:2048])
	require.NoError(t, err)
	frame = append(frame, out...)

	out, err = obj.Flush()
	require.NoError(t, err)
	require.NotEmpty(t, out, "flush must force buffered input out")
	frame = append(frame, out...)

	out, err = obj.Compress(payload[2048:])
	require.NoError(t, err)
	frame = append(frame, out...)

	out, err = obj.Finish()
	require.NoError(t, err)
	frame = append(frame, out...)

	original, err := Decompress(frame)
	require.NoError(t, err)
	require.Equal(t, payload, original)
}

func TestCompressionObj_UseAfterFinish(t *testing.T) {
	cctx, err := NewCompressor()
	require.NoError(t, err)

	obj, err := cctx.NewObj()
	require.NoError(t, err)

	_, err = obj.Compress([]byte("data"))
	require.NoError(t, err)

	_, err = obj.Finish()
	require.NoError(t, err)

	_, err = obj.Compress([]byte("more"))
	require.ErrorIs(t, err, ErrFinished)

	_, err = obj.Flush()
	require.ErrorIs(t, err, ErrFinished)

	_, err = obj.Finish()
	require.ErrorIs(t, err, ErrFinished)
}
