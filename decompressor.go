package zstdkit

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/calyptra/zstdkit/internal/options"
)

// Decompressor is a reusable zstd decompression context.
//
// Like Compressor, it carries validated configuration and hands out one-shot
// and streaming adapters. One-shot Decompress calls are safe for concurrent
// use; streaming adapters are single-goroutine.
type Decompressor struct {
	dict         *Dict
	maxWindowLog int
	maxMemory    uint64

	dec *zstd.Decoder // one-shot context, DecodeAll only
}

// DecompressorOption configures a Decompressor.
type DecompressorOption = options.Option[*Decompressor]

// WithDecompressDict decompresses frames that reference the given dictionary.
func WithDecompressDict(d *Dict) DecompressorOption {
	return options.NoError(func(dc *Decompressor) {
		dc.dict = d
	})
}

// WithMaxWindowLog rejects frames requiring a window larger than 2^log bytes.
// This bounds the memory an untrusted frame can demand.
func WithMaxWindowLog(log int) DecompressorOption {
	return options.New(func(dc *Decompressor) error {
		if err := boundedLog("maxWindowLog", log, windowLogMin, windowLogMax); err != nil {
			return err
		}
		dc.maxWindowLog = log

		return nil
	})
}

// WithMaxMemory caps the total decompressed size a one-shot operation may
// produce.
func WithMaxMemory(n uint64) DecompressorOption {
	return options.NoError(func(dc *Decompressor) {
		dc.maxMemory = n
	})
}

// WithDecompressFormat selects the frame format to accept.
func WithDecompressFormat(f FrameFormat) DecompressorOption {
	return options.New(func(dc *Decompressor) error {
		if f != FormatZstd1 {
			return errUnsupported("magicless frame format")
		}

		return nil
	})
}

// NewDecompressor creates a decompression context.
func NewDecompressor(opts ...DecompressorOption) (*Decompressor, error) {
	d := &Decompressor{}
	if err := options.Apply(d, opts...); err != nil {
		return nil, err
	}

	var (
		dec *zstd.Decoder
		err error
	)
	if d.dict != nil && d.maxWindowLog == 0 && d.maxMemory == 0 {
		// Reuse the dictionary's digested form across contexts.
		dec, err = d.dict.digestedDecoder()
	} else {
		dec, err = zstd.NewReader(nil, d.decoderOptions(0)...)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot create decompression context: %w", err)
	}
	d.dec = dec

	return d, nil
}

// decoderOptions assembles pure-Go decoder options for this context.
// concurrency 0 keeps the backend default.
func (d *Decompressor) decoderOptions(concurrency int) []zstd.DOption {
	var opts []zstd.DOption
	if concurrency > 0 {
		opts = append(opts, zstd.WithDecoderConcurrency(concurrency))
	}
	if d.maxWindowLog > 0 {
		opts = append(opts, zstd.WithDecoderMaxWindow(uint64(1)<<d.maxWindowLog))
	}
	if d.maxMemory > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(d.maxMemory))
	}
	if d.dict != nil {
		opts = append(opts, d.dict.decoderOption())
	}

	return opts
}

// newStreamDecoder creates a dedicated decoder for a streaming adapter.
func (d *Decompressor) newStreamDecoder(r io.Reader, concurrency int) (*zstd.Decoder, error) {
	dec, err := zstd.NewReader(r, d.decoderOptions(concurrency)...)
	if err != nil {
		return nil, fmt.Errorf("cannot create decompression stream: %w", err)
	}

	return dec, nil
}

// plainShape reports whether the one-shot cgo fast path can serve this
// context.
func (d *Decompressor) plainShape() bool {
	return d.dict == nil && d.maxWindowLog == 0 && d.maxMemory == 0
}

// Decompress decompresses all zstd frames in data.
func (d *Decompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot decompress: %w", ErrEmptyInput)
	}

	if d.plainShape() {
		return d.decompressPlain(nil, data)
	}

	out, err := d.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress error: %w", err)
	}

	return out, nil
}

// DecompressLimit decompresses data, failing with ErrOutputLimitExceeded if
// the output would exceed maxOutputSize bytes.
func (d *Decompressor) DecompressLimit(data []byte, maxOutputSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot decompress: %w", ErrEmptyInput)
	}
	if maxOutputSize <= 0 {
		return d.Decompress(data)
	}

	opts := append(d.decoderOptions(1), zstd.WithDecoderMaxMemory(uint64(maxOutputSize)))
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create decompression context: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
			return nil, fmt.Errorf("%w (%d bytes)", ErrOutputLimitExceeded, maxOutputSize)
		}

		return nil, fmt.Errorf("zstd decompress error: %w", err)
	}

	return out, nil
}

// CopyStream decompresses everything read from src into dst.
// It returns the number of compressed bytes read and plain bytes written.
func (d *Decompressor) CopyStream(dst io.Writer, src io.Reader) (read, written int64, err error) {
	cr := &countingReader{r: src}

	dec, err := d.newStreamDecoder(cr, 1)
	if err != nil {
		return 0, 0, err
	}
	defer dec.Close()

	n, err := dec.WriteTo(dst)
	if err != nil {
		return cr.n, n, fmt.Errorf("zstd decompress error: %w", err)
	}

	return cr.n, n, nil
}

// MultiDecompress decompresses each source frame, using up to concurrency
// workers, and collects the results into a single segmented buffer. Source
// order is preserved.
func (d *Decompressor) MultiDecompress(sources [][]byte, concurrency int) (*BufferWithSegments, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("must pass at least one source buffer")
	}

	results := make([][]byte, len(sources))

	if concurrency < 2 {
		for i, src := range sources {
			out, err := d.Decompress(src)
			if err != nil {
				return nil, fmt.Errorf("decompressing source %d: %w", i, err)
			}
			results[i] = out
		}

		return newSegmentedResult(results), nil
	}

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
				out, err := d.Decompress(sources[i])
				if err != nil {
					errOnce.Do(func() {
						firstErr = fmt.Errorf("decompressing source %d: %w", i, err)
					})

					continue
				}
				results[i] = out
			}
		}()
	}

	for i := range sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return newSegmentedResult(results), nil
}

// ContentDictChain decompresses a chain of frames where each frame after the
// first was compressed using the previous frame's decompressed content as a
// raw dictionary. It returns the content of the final frame.
//
// Every frame must be a zstd frame declaring its content size.
func (d *Decompressor) ContentDictChain(chain [][]byte) ([]byte, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("empty input chain")
	}

	var content []byte
	for i, frame := range chain {
		fp, err := GetFrameParams(frame)
		if err != nil {
			return nil, fmt.Errorf("chunk %d is not a valid zstd frame: %w", i, err)
		}
		if fp.ContentSize < 0 {
			return nil, fmt.Errorf("chunk %d: %w", i, ErrContentSizeUnknown)
		}

		var dopts []zstd.DOption
		if i > 0 {
			dopts = append(dopts, zstd.WithDecoderDictRaw(0, content))
		}
		if d.maxWindowLog > 0 {
			dopts = append(dopts, zstd.WithDecoderMaxWindow(uint64(1)<<d.maxWindowLog))
		}

		dec, err := zstd.NewReader(nil, dopts...)
		if err != nil {
			return nil, fmt.Errorf("cannot create decompression context: %w", err)
		}

		out, err := dec.DecodeAll(frame, nil)
		dec.Close()
		if err != nil {
			return nil, fmt.Errorf("could not decompress chunk %d: %w", i, err)
		}
		content = out
	}

	return content, nil
}
