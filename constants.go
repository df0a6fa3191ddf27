package zstdkit

// Zstandard format constants.
//
// These mirror the values fixed by the zstd frame and dictionary formats
// (RFC 8878). They are format properties, not tunables.
const (
	// FrameMagic is the little-endian magic number that opens every zstd frame.
	FrameMagic uint32 = 0xFD2FB528

	// SkippableFrameMagicMin and SkippableFrameMagicMax bound the magic number
	// range reserved for skippable frames.
	SkippableFrameMagicMin uint32 = 0x184D2A50
	SkippableFrameMagicMax uint32 = 0x184D2A5F

	// DictMagic is the magic number that opens a trained (structured) zstd
	// dictionary. Dictionary blobs without this prefix are raw-content
	// dictionaries.
	DictMagic uint32 = 0xEC30A437
)

// Compression level bounds.
//
// Levels below 1 select the fastest mode. The pure-Go engine maps the 1..22
// range onto its four internal speed levels; the cgo engine passes the value
// straight to libzstd.
const (
	// DefaultCompressionLevel matches ZSTD_CLEVEL_DEFAULT.
	DefaultCompressionLevel = 3

	// MinCompressionLevel is the lowest accepted (fastest) level.
	MinCompressionLevel = -131072

	// MaxCompressionLevel matches ZSTD_maxCLevel().
	MaxCompressionLevel = 22
)

// Streaming buffer sizing.
//
// zstd processes input in blocks of at most 128KiB, so streaming adapters
// default to buffers of that order. These are recommendations, not limits.
const (
	// DefaultStreamInSize is the recommended read size when feeding a
	// streaming compression or decompression context.
	DefaultStreamInSize = 128 * 1024

	// DefaultStreamOutSize is the recommended output chunk size for
	// streaming adapters and the default Chunker chunk size.
	DefaultStreamOutSize = 128 * 1024
)

// frameHeaderSizeMin is the smallest possible zstd frame header
// (magic + frame header descriptor).
const frameHeaderSizeMin = 5

// skippableFrameHeaderSize is the fixed header size of a skippable frame
// (magic + 4-byte payload length).
const skippableFrameHeaderSize = 8
