package zstdkit

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/calyptra/zstdkit/internal/options"
)

// Compressor is a reusable zstd compression context.
//
// A Compressor carries a validated parameter set and an optional dictionary,
// and hands out one-shot and streaming adapters that all compress with that
// configuration. Creating a Compressor is comparatively expensive; create one
// and reuse it across operations.
//
// One-shot Compress calls are safe for concurrent use. Each streaming adapter
// owns its own encoder state and is single-goroutine like any other Go
// stream.
type Compressor struct {
	params Params
	dict   *Dict

	enc *zstd.Encoder // one-shot context, EncodeAll only
}

// CompressorOption configures a Compressor.
type CompressorOption = options.Option[*Compressor]

// WithLevel sets the compression level.
func WithLevel(level int) CompressorOption {
	return options.NoError(func(c *Compressor) {
		c.params.Level = level
	})
}

// WithParams replaces the whole compression parameter bag.
// The parameters are validated by NewCompressor.
func WithParams(p Params) CompressorOption {
	return options.NoError(func(c *Compressor) {
		c.params = p
	})
}

// WithWindowLog caps the match window as a power of two.
func WithWindowLog(log int) CompressorOption {
	return options.NoError(func(c *Compressor) {
		c.params.WindowLog = log
	})
}

// WithChecksum appends a 32-bit content checksum to each frame.
// Checksums are off by default, matching the zstd default.
func WithChecksum(enabled bool) CompressorOption {
	return options.NoError(func(c *Compressor) {
		c.params.Checksum = enabled
	})
}

// WithThreads sets the number of concurrent compression workers.
// Zero means single threaded; negative means one worker per logical CPU.
func WithThreads(n int) CompressorOption {
	return options.NoError(func(c *Compressor) {
		c.params.Threads = n
	})
}

// WithFormat selects the frame format to emit.
func WithFormat(f FrameFormat) CompressorOption {
	return options.New(func(c *Compressor) error {
		if f != FormatZstd1 {
			return errUnsupported("magicless frame format")
		}

		return nil
	})
}

// WithDict compresses with the given dictionary.
func WithDict(d *Dict) CompressorOption {
	return options.NoError(func(c *Compressor) {
		c.dict = d
	})
}

// NewCompressor creates a compression context.
func NewCompressor(opts ...CompressorOption) (*Compressor, error) {
	c := &Compressor{}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}
	if err := c.params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid compression parameters: %w", err)
	}

	var (
		enc *zstd.Encoder
		err error
	)
	if c.dict != nil && c.defaultShape() {
		// Reuse the dictionary's digested form across contexts.
		enc, err = c.dict.digestedEncoder(c.params.encoderLevel())
	} else {
		enc, err = zstd.NewWriter(nil, c.encoderOptions(c.params.concurrency())...)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot create compression context: %w", err)
	}
	c.enc = enc

	return c, nil
}

// encoderOptions assembles the pure-Go encoder options for this context.
func (c *Compressor) encoderOptions(concurrency int) []zstd.EOption {
	opts := []zstd.EOption{
		zstd.WithEncoderLevel(c.params.encoderLevel()),
		zstd.WithEncoderCRC(c.params.Checksum),
		zstd.WithEncoderConcurrency(concurrency),
		// libzstd emits a valid frame for empty input; keep both engines
		// consistent.
		zstd.WithZeroFrames(true),
	}
	if ws := c.params.windowSize(); ws > 0 {
		opts = append(opts, zstd.WithWindowSize(ws))
	}
	if c.dict != nil {
		opts = append(opts, c.dict.encoderOption())
	}

	return opts
}

// newStreamEncoder creates a dedicated encoder for a streaming adapter.
// Synchronous adapters pass concurrency 1 so output appears in Write order.
func (c *Compressor) newStreamEncoder(w io.Writer, concurrency int) (*zstd.Encoder, error) {
	enc, err := zstd.NewWriter(w, c.encoderOptions(concurrency)...)
	if err != nil {
		return nil, fmt.Errorf("cannot create compression stream: %w", err)
	}

	return enc, nil
}

// defaultShape reports whether every parameter other than Level holds its
// default. Contexts in this shape can share a dictionary's cached digested
// form.
func (c *Compressor) defaultShape() bool {
	return !c.params.Checksum &&
		c.params.WindowLog == 0 &&
		c.params.Strategy == 0 &&
		c.params.Threads == 0 &&
		c.params.HashLog == 0 && c.params.ChainLog == 0 && c.params.SearchLog == 0 &&
		c.params.MinMatch == 0 && c.params.TargetLength == 0 && !c.params.EnableLDM
}

// plainShape reports whether this context uses only the default parameter
// shape (level only), which the one-shot cgo fast path can serve.
func (c *Compressor) plainShape() bool {
	return c.dict == nil && c.defaultShape()
}

// Compress compresses data into a single zstd frame.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	return c.CompressInto(nil, data)
}

// CompressInto compresses data into a single zstd frame, appending the result
// to dst and returning the extended slice.
func (c *Compressor) CompressInto(dst, data []byte) ([]byte, error) {
	if c.plainShape() {
		return c.compressPlain(dst, data)
	}

	return c.enc.EncodeAll(data, dst), nil
}

// CopyStream compresses everything read from src into dst as one frame.
// It returns the number of plain bytes read and compressed bytes written.
func (c *Compressor) CopyStream(dst io.Writer, src io.Reader) (read, written int64, err error) {
	cw := &countingWriter{w: dst}
	cr := &countingReader{r: src}

	enc, err := c.newStreamEncoder(cw, c.params.concurrency())
	if err != nil {
		return 0, 0, err
	}

	if _, err := io.Copy(enc, cr); err != nil {
		enc.Close()
		return cr.n, cw.n, fmt.Errorf("zstd compress error: %w", err)
	}
	if err := enc.Close(); err != nil {
		return cr.n, cw.n, fmt.Errorf("zstd compress error: %w", err)
	}

	return cr.n, cw.n, nil
}

// MultiCompress compresses each source into its own frame, using up to
// concurrency workers, and collects the frames into a single segmented
// buffer. Source order is preserved. Concurrency below 2 compresses
// sequentially.
func (c *Compressor) MultiCompress(sources [][]byte, concurrency int) (*BufferWithSegments, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("must pass at least one source buffer")
	}

	results := make([][]byte, len(sources))

	if concurrency < 2 {
		for i, src := range sources {
			frame, err := c.Compress(src)
			if err != nil {
				return nil, fmt.Errorf("compressing source %d: %w", i, err)
			}
			results[i] = frame
		}
	} else if err := c.multiCompressParallel(sources, results, concurrency); err != nil {
		return nil, err
	}

	return newSegmentedResult(results), nil
}

func (c *Compressor) multiCompressParallel(sources, results [][]byte, concurrency int) error {
	if concurrency > len(sources) {
		concurrency = len(sources)
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	jobs := make(chan int)
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				frame, err := c.Compress(sources[i])
				if err != nil {
					errOnce.Do(func() {
						firstErr = fmt.Errorf("compressing source %d: %w", i, err)
					})

					continue
				}
				results[i] = frame
			}
		}()
	}

	for i := range sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return firstErr
}

// countingWriter counts bytes passed through to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)

	return n, err
}

// countingReader counts bytes read from the underlying reader.
type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)

	return n, err
}
