package zstdkit

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/require"
)

// collectChunks fully consumes a chunk iterator.
func collectChunks(t *testing.T, it iter.Seq2[[]byte, error]) [][]byte {
	t.Helper()

	var chunks [][]byte
	for chunk, err := range it {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}

	return chunks
}

func TestChunker_UniformChunks(t *testing.T) {
	payload := testPayload(100 * 1024)
	const chunkSize = 512

	cctx, err := NewCompressor()
	require.NoError(t, err)

	ch, err := cctx.NewChunker(chunkSize)
	require.NoError(t, err)

	var chunks [][]byte
	for off := 0; off < len(payload); off += 16 * 1024 {
		end := min(off+16*1024, len(payload))

		it, err := ch.Compress(payload[off:end])
		require.NoError(t, err)
		chunks = append(chunks, collectChunks(t, it)...)
	}

	it, err := ch.Finish()
	require.NoError(t, err)
	chunks = append(chunks, collectChunks(t, it)...)
	require.NotEmpty(t, chunks)

	// Every chunk but the last has exactly the configured size.
	var frame []byte
	for i, chunk := range chunks {
		if i < len(chunks)-1 {
			require.Len(t, chunk, chunkSize, "chunk %d", i)
		} else {
			require.LessOrEqual(t, len(chunk), chunkSize)
			require.Positive(t, len(chunk))
		}
		frame = append(frame, chunk...)
	}

	out, err := Decompress(frame)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestChunker_FlushEmitsPartialChunk(t *testing.T) {
	cctx, err := NewCompressor()
	require.NoError(t, err)

	ch, err := cctx.NewChunker(1 << 20)
	require.NoError(t, err)

	it, err := ch.Compress(testPayload(1024))
	require.NoError(t, err)
	require.Empty(t, collectChunks(t, it), "well below the chunk size, nothing complete yet")

	it, err = ch.Flush()
	require.NoError(t, err)
	flushed := collectChunks(t, it)
	require.Len(t, flushed, 1, "flush drains the partial chunk")

	it, err = ch.Finish()
	require.NoError(t, err)
	final := collectChunks(t, it)

	var frame []byte
	for _, chunk := range append(flushed, final...) {
		frame = append(frame, chunk...)
	}

	out, err := Decompress(frame)
	require.NoError(t, err)
	require.Equal(t, testPayload(1024), out)
}

func TestChunker_OutstandingIterator(t *testing.T) {
	cctx, err := NewCompressor()
	require.NoError(t, err)

	ch, err := cctx.NewChunker(64)
	require.NoError(t, err)

	// Never consumed.
	_, err = ch.Compress(testPayload(4 * 1024))
	require.NoError(t, err)

	_, err = ch.Compress(testPayload(100))
	require.ErrorIs(t, err, ErrOutstandingIterator)

	_, err = ch.Flush()
	require.ErrorIs(t, err, ErrOutstandingIterator)

	_, err = ch.Finish()
	require.ErrorIs(t, err, ErrOutstandingIterator)
}

func TestChunker_UseAfterFinish(t *testing.T) {
	cctx, err := NewCompressor()
	require.NoError(t, err)

	ch, err := cctx.NewChunker(64)
	require.NoError(t, err)

	it, err := ch.Finish()
	require.NoError(t, err)
	collectChunks(t, it)

	_, err = ch.Compress([]byte("data"))
	require.ErrorIs(t, err, ErrFinished)
}

func TestNewChunker_InvalidSize(t *testing.T) {
	cctx, err := NewCompressor()
	require.NoError(t, err)

	_, err = cctx.NewChunker(-1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be negative")
}
