package zstdkit

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	zdict "github.com/klauspost/compress/dict"
	"github.com/klauspost/compress/zstd"

	"github.com/calyptra/zstdkit/internal/options"
)

// DictType describes how a dictionary blob is interpreted.
type DictType int

const (
	// DictTypeAuto detects the type from the blob: blobs starting with
	// DictMagic are trained dictionaries, everything else is raw content.
	DictTypeAuto DictType = iota

	// DictTypeTrained requires a structured dictionary produced by training.
	DictTypeTrained

	// DictTypeRawContent treats the blob as plain prefix content.
	DictTypeRawContent
)

// Dict is a compression dictionary.
//
// It owns the dictionary blob and the lazily-built digested state derived
// from it. A Dict is immutable after construction and safe for concurrent
// use by any number of Compressors and Decompressors.
//
// Trained dictionaries carry an ID in their header; raw-content dictionaries
// have no header and report ID 0. Internally dictionaries are identified by an
// xxHash64 fingerprint of their content, which keys the digested-form caches;
// IDs are caller-assigned and need not be unique.
type Dict struct {
	data []byte
	typ  DictType
	id   uint32

	fpOnce sync.Once
	fp     uint64
}

// DictOption configures NewDict.
type DictOption = options.Option[*dictConfig]

type dictConfig struct {
	typ DictType
}

// WithDictType forces the dictionary type instead of auto-detecting it.
func WithDictType(t DictType) DictOption {
	return options.New(func(c *dictConfig) error {
		switch t {
		case DictTypeAuto, DictTypeTrained, DictTypeRawContent:
			c.typ = t
			return nil
		default:
			return fmt.Errorf("invalid dictionary type: %d", t)
		}
	})
}

// NewDict creates a dictionary from an existing blob.
//
// The blob is typically the output of TrainDict or of the zstd CLI's --train
// mode, but any byte sequence can serve as a raw-content dictionary.
func NewDict(data []byte, opts ...DictOption) (*Dict, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("dictionary data must not be empty")
	}

	cfg := &dictConfig{typ: DictTypeAuto}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	trained := len(data) >= 8 && binary.LittleEndian.Uint32(data) == DictMagic

	typ := cfg.typ
	if typ == DictTypeAuto {
		if trained {
			typ = DictTypeTrained
		} else {
			typ = DictTypeRawContent
		}
	}
	if typ == DictTypeTrained && !trained {
		return nil, fmt.Errorf("%w: trained dictionary lacks magic header", ErrNotZstdFrame)
	}

	d := &Dict{
		data: data,
		typ:  typ,
	}
	if typ == DictTypeTrained {
		d.id = binary.LittleEndian.Uint32(data[4:8])
	}

	return d, nil
}

// ID returns the dictionary ID, or 0 for raw-content dictionaries.
func (d *Dict) ID() uint32 {
	return d.id
}

// Type returns how the dictionary blob is interpreted.
func (d *Dict) Type() DictType {
	return d.typ
}

// Bytes returns the dictionary blob. The returned slice must not be modified.
func (d *Dict) Bytes() []byte {
	return d.data
}

// Len returns the size of the dictionary blob in bytes.
func (d *Dict) Len() int {
	return len(d.data)
}

// Fingerprint returns an xxHash64 digest of the dictionary content.
//
// Trained dictionaries are usually identified by ID; the fingerprint gives
// raw-content dictionaries a stable identity as well. It is computed once on
// first use.
func (d *Dict) Fingerprint() uint64 {
	d.fpOnce.Do(func() {
		d.fp = xxhash.Sum64(d.data)
	})

	return d.fp
}

func (d *Dict) String() string {
	if d.typ == DictTypeTrained {
		return fmt.Sprintf("Dict(trained, id=%d, %d bytes)", d.id, len(d.data))
	}

	return fmt.Sprintf("Dict(raw, fp=%016x, %d bytes)", d.Fingerprint(), len(d.data))
}

// encoderOption returns the compression form of the dictionary for the
// pure-Go engine.
func (d *Dict) encoderOption() zstd.EOption {
	if d.typ == DictTypeTrained {
		return zstd.WithEncoderDict(d.data)
	}

	return zstd.WithEncoderDictRaw(0, d.data)
}

// decoderOption returns the decompression form of the dictionary.
func (d *Dict) decoderOption() zstd.DOption {
	if d.typ == DictTypeTrained {
		return zstd.WithDecoderDicts(d.data)
	}

	return zstd.WithDecoderDictRaw(0, d.data)
}

// Digesting a dictionary into an encoder or decoder rebuilds its match tables,
// which is the expensive part of dictionary compression. The digested forms
// are shared process-wide, keyed by content fingerprint so that dictionaries
// with equal content reuse one form regardless of which Dict instance carries
// it. Compression forms are additionally keyed by level, since the tables are
// tuned per level.
type digestedEncKey struct {
	fp    uint64
	typ   DictType
	level zstd.EncoderLevel
}

type digestedDecKey struct {
	fp  uint64
	typ DictType
}

var (
	digestedEncoders sync.Map // digestedEncKey -> *zstd.Encoder
	digestedDecoders sync.Map // digestedDecKey -> *zstd.Decoder
)

// digestedEncoder returns a shared EncodeAll-only encoder digested for this
// dictionary at the given level, building and caching it on first use.
//
// The cached form is built with default frame settings; contexts that deviate
// from those build their own encoder instead.
func (d *Dict) digestedEncoder(level zstd.EncoderLevel) (*zstd.Encoder, error) {
	key := digestedEncKey{fp: d.Fingerprint(), typ: d.typ, level: level}
	if cached, ok := digestedEncoders.Load(key); ok {
		return cached.(*zstd.Encoder), nil
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderCRC(false),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true),
		d.encoderOption(),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot digest dictionary: %w", err)
	}

	actual, _ := digestedEncoders.LoadOrStore(key, enc)

	return actual.(*zstd.Encoder), nil
}

// digestedDecoder returns a shared DecodeAll-only decoder with this dictionary
// registered, building and caching it on first use.
func (d *Dict) digestedDecoder() (*zstd.Decoder, error) {
	key := digestedDecKey{fp: d.Fingerprint(), typ: d.typ}
	if cached, ok := digestedDecoders.Load(key); ok {
		return cached.(*zstd.Decoder), nil
	}

	dec, err := zstd.NewReader(nil, d.decoderOption())
	if err != nil {
		return nil, fmt.Errorf("cannot digest dictionary: %w", err)
	}

	actual, loaded := digestedDecoders.LoadOrStore(key, dec)
	if loaded {
		dec.Close()
	}

	return actual.(*zstd.Decoder), nil
}

// DefaultDictSize is the default target size for trained dictionaries,
// matching the zstd CLI's --maxdict default.
const DefaultDictSize = 112640

// TrainOption configures TrainDict.
type TrainOption = options.Option[*trainConfig]

type trainConfig struct {
	dictSize int
	dictID   uint32
	level    int
	compat   bool
}

// WithDictSize sets the target size of the trained dictionary in bytes.
func WithDictSize(n int) TrainOption {
	return options.New(func(c *trainConfig) error {
		if n <= 0 {
			return fmt.Errorf("dictionary size must be positive, got %d", n)
		}
		c.dictSize = n

		return nil
	})
}

// WithTrainDictID sets an explicit ID for the trained dictionary.
// When unset the trainer assigns one.
func WithTrainDictID(id uint32) TrainOption {
	return options.NoError(func(c *trainConfig) {
		c.dictID = id
	})
}

// WithTrainLevel sets the compression level the dictionary content tables are
// tuned for.
func WithTrainLevel(level int) TrainOption {
	return options.New(func(c *trainConfig) error {
		if level < MinCompressionLevel || level > MaxCompressionLevel {
			return fmt.Errorf("compression level %d out of range [%d, %d]", level, MinCompressionLevel, MaxCompressionLevel)
		}
		c.level = level

		return nil
	})
}

// WithDictCompat emits a dictionary compatible with zstd versions older than
// v1.5.2 at a small efficiency cost.
func WithDictCompat(enabled bool) TrainOption {
	return options.NoError(func(c *trainConfig) {
		c.compat = enabled
	})
}

// TrainDict trains a compression dictionary from sample data.
//
// Training itself is delegated to the dictionary builder of
// github.com/klauspost/compress; this function only validates input,
// forwards options, and wraps the result in a Dict.
//
// Samples should be representative of the data the dictionary will compress.
// Hundreds of samples or more are recommended; training rejects sample sets
// that are too small to be useful.
func TrainDict(samples [][]byte, opts ...TrainOption) (*Dict, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("must have at least one sample to train a dictionary")
	}

	cfg := &trainConfig{
		dictSize: DefaultDictSize,
		level:    DefaultCompressionLevel,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	lvl := zstd.EncoderLevelFromZstd(cfg.level)
	if cfg.level < 1 {
		lvl = zstd.SpeedFastest
	}

	data, err := zdict.BuildZstdDict(samples, zdict.Options{
		MaxDictSize:    cfg.dictSize,
		HashBytes:      6,
		ZstdDictID:     cfg.dictID,
		ZstdDictCompat: cfg.compat,
		ZstdLevel:      lvl,
	})
	if err != nil {
		return nil, fmt.Errorf("dictionary training failed: %w", err)
	}

	return NewDict(data, WithDictType(DictTypeTrained))
}
