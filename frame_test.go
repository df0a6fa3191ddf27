package zstdkit

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// makeSkippableFrame builds a skippable frame with the given payload.
func makeSkippableFrame(payload []byte) []byte {
	frame := make([]byte, skippableFrameHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(frame[0:4], SkippableFrameMagicMin)
	binary.LittleEndian.PutUint32(frame[4:8], uint32(len(payload)))
	copy(frame[8:], payload)

	return frame
}

func TestGetFrameParams_OneShotFrame(t *testing.T) {
	payload := testPayload(10 * 1024)

	frame, err := Compress(payload, 3)
	require.NoError(t, err)

	fp, err := GetFrameParams(frame)
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), fp.ContentSize)
	require.Equal(t, uint32(0), fp.DictID)
	require.False(t, fp.HasChecksum)
	require.NotZero(t, fp.WindowSize)
}

func TestGetFrameParams_Checksum(t *testing.T) {
	cctx, err := NewCompressor(WithChecksum(true))
	require.NoError(t, err)

	frame, err := cctx.Compress(testPayload(1024))
	require.NoError(t, err)

	fp, err := GetFrameParams(frame)
	require.NoError(t, err)
	require.True(t, fp.HasChecksum)
}

func TestGetFrameParams_StreamedFrameNoContentSize(t *testing.T) {
	payload := testPayload(64 * 1024)

	cctx, err := NewCompressor()
	require.NoError(t, err)

	obj, err := cctx.NewObj()
	require.NoError(t, err)

	part, err := obj.Compress(payload)
	require.NoError(t, err)

	rest, err := obj.Finish()
	require.NoError(t, err)

	frame := append(append([]byte{}, part...), rest...)

	fp, err := GetFrameParams(frame)
	require.NoError(t, err)
	require.Equal(t, int64(-1), fp.ContentSize, "streamed frames do not declare content size")
}

func TestGetFrameParams_Skippable(t *testing.T) {
	fp, err := GetFrameParams(makeSkippableFrame([]byte("metadata")))
	require.NoError(t, err)
	require.Equal(t, int64(0), fp.ContentSize)
}

func TestGetFrameParams_Errors(t *testing.T) {
	_, err := GetFrameParams([]byte("not a frame at all"))
	require.Error(t, err)

	frame, err := Compress(testPayload(1024), 3)
	require.NoError(t, err)

	_, err = GetFrameParams(frame[:3])
	require.ErrorIs(t, err, ErrNeedMoreData)
}

func TestFrameHeaderSize(t *testing.T) {
	frame, err := Compress(testPayload(1024), 3)
	require.NoError(t, err)

	n, err := FrameHeaderSize(frame)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, frameHeaderSizeMin)
	require.Less(t, n, len(frame))

	_, err = FrameHeaderSize(frame[:2])
	require.ErrorIs(t, err, ErrNeedMoreData)
}

func TestFrameContentSize(t *testing.T) {
	payload := testPayload(7777)

	frame, err := Compress(payload, 3)
	require.NoError(t, err)

	size, err := FrameContentSize(frame)
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), size)
}

func TestFrameCompressedSize_ExactLength(t *testing.T) {
	for _, n := range []int{0, 100, 64 * 1024, 300 * 1024} {
		frame, err := Compress(testPayload(n), 3)
		require.NoError(t, err)

		size, err := frameCompressedSize(frame)
		require.NoError(t, err, "payload size %d", n)
		require.Equal(t, len(frame), size, "payload size %d", n)
	}
}

func TestFrameCompressedSize_TrailingData(t *testing.T) {
	frame, err := Compress(testPayload(1024), 3)
	require.NoError(t, err)

	withTrailer := append(append([]byte{}, frame...), "next frame starts here"...)

	size, err := frameCompressedSize(withTrailer)
	require.NoError(t, err)
	require.Equal(t, len(frame), size)
}

func TestFrameCompressedSize_Checksum(t *testing.T) {
	cctx, err := NewCompressor(WithChecksum(true))
	require.NoError(t, err)

	frame, err := cctx.Compress(testPayload(2048))
	require.NoError(t, err)

	size, err := frameCompressedSize(frame)
	require.NoError(t, err)
	require.Equal(t, len(frame), size)
}

func TestFrameCompressedSize_Truncated(t *testing.T) {
	frame, err := Compress(testPayload(64*1024), 3)
	require.NoError(t, err)

	for _, cut := range []int{2, 6, len(frame) / 2, len(frame) - 1} {
		_, err := frameCompressedSize(frame[:cut])
		require.ErrorIs(t, err, ErrNeedMoreData, "cut at %d", cut)
	}
}

func TestFrameCompressedSize_Skippable(t *testing.T) {
	frame := makeSkippableFrame(testPayload(100))

	size, err := frameCompressedSize(frame)
	require.NoError(t, err)
	require.Equal(t, len(frame), size)

	_, err = frameCompressedSize(frame[:20])
	require.ErrorIs(t, err, ErrNeedMoreData)
}
