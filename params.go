package zstdkit

import (
	"fmt"
	"runtime"

	"github.com/klauspost/compress/zstd"
)

// Strategy selects the zstd match-finder strategy.
//
// The values mirror ZSTD_strategy from zstd.h. Higher strategies are slower
// and compress better. The pure-Go engine does not expose match-finder
// internals, so a strategy is mapped onto the nearest encoder speed level;
// the value is still validated against the zstd range so misconfiguration
// fails the same way it would against libzstd.
type Strategy int

const (
	StrategyFast     Strategy = 1
	StrategyDFast    Strategy = 2
	StrategyGreedy   Strategy = 3
	StrategyLazy     Strategy = 4
	StrategyLazy2    Strategy = 5
	StrategyBTLazy2  Strategy = 6
	StrategyBTOpt    Strategy = 7
	StrategyBTUltra  Strategy = 8
	StrategyBTUltra2 Strategy = 9
)

// FrameFormat selects the frame container format.
type FrameFormat int

const (
	// FormatZstd1 is the standard zstd frame format.
	FormatZstd1 FrameFormat = iota

	// FormatZstd1Magicless is the zstd frame format without the leading
	// magic number. Neither Go engine can produce or consume it; selecting
	// it is a configuration error.
	FormatZstd1Magicless
)

// Parameter bounds from zstd.h. A zero value always means "use default".
const (
	windowLogMin        = 10
	windowLogMax        = 31
	hashLogMin          = 6
	hashLogMax          = 30
	chainLogMin         = 6
	chainLogMax         = 30
	searchLogMin        = 1
	searchLogMax        = 30
	minMatchMin         = 3
	minMatchMax         = 7
	targetLengthMax     = 131072
	ldmMinMatchMin      = 4
	ldmMinMatchMax      = 4096
	ldmBucketSizeLogMax = 8
	ldmHashRateLogMax   = windowLogMax - hashLogMin
	overlapLogMax       = 9
)

// Params is the compression parameter property bag.
//
// It carries the knobs of the zstd advanced compression API. Zero values mean
// "use the zstd default" for every field, matching ZSTD_CCtx_setParameter
// semantics. Validate reports the first out-of-range field.
//
// Engines honor what they can express: Level, WindowLog, Checksum, Threads
// and dictionaries are applied directly; the match-finder shape knobs
// (HashLog, ChainLog, SearchLog, MinMatch, TargetLength, Strategy) and the
// long-distance-matching group are validated and folded into the encoder
// speed level where an analogue exists.
type Params struct {
	// Level is the compression level. Zero selects DefaultCompressionLevel.
	// Negative levels select faster, weaker compression.
	Level int

	// WindowLog caps the match window as a power of two.
	WindowLog int

	// HashLog, ChainLog, SearchLog, MinMatch and TargetLength pin the
	// match-finder shape.
	HashLog      int
	ChainLog     int
	SearchLog    int
	MinMatch     int
	TargetLength int

	// Strategy pins the match-finder strategy.
	Strategy Strategy

	// EnableLDM turns on long distance matching.
	EnableLDM        bool
	LDMHashLog       int
	LDMMinMatch      int
	LDMBucketSizeLog int
	LDMHashRateLog   int

	// Checksum appends a 32-bit content checksum to each frame.
	Checksum bool

	// NoDictID suppresses the dictionary ID field in frame headers when
	// compressing with a dictionary.
	NoDictID bool

	// Threads sets the number of concurrent workers. Zero means single
	// threaded; negative means one worker per logical CPU.
	Threads int

	// JobSize and OverlapLog tune multithreaded compression job splitting.
	JobSize    int
	OverlapLog int
}

// Validate checks every field against the zstd parameter bounds.
func (p *Params) Validate() error {
	if p.Level < MinCompressionLevel || p.Level > MaxCompressionLevel {
		return fmt.Errorf("compression level %d out of range [%d, %d]", p.Level, MinCompressionLevel, MaxCompressionLevel)
	}
	if err := boundedLog("windowLog", p.WindowLog, windowLogMin, windowLogMax); err != nil {
		return err
	}
	if err := boundedLog("hashLog", p.HashLog, hashLogMin, hashLogMax); err != nil {
		return err
	}
	if err := boundedLog("chainLog", p.ChainLog, chainLogMin, chainLogMax); err != nil {
		return err
	}
	if err := boundedLog("searchLog", p.SearchLog, searchLogMin, searchLogMax); err != nil {
		return err
	}
	if p.MinMatch != 0 && (p.MinMatch < minMatchMin || p.MinMatch > minMatchMax) {
		return fmt.Errorf("minMatch %d out of range [%d, %d]", p.MinMatch, minMatchMin, minMatchMax)
	}
	if p.TargetLength < 0 || p.TargetLength > targetLengthMax {
		return fmt.Errorf("targetLength %d out of range [0, %d]", p.TargetLength, targetLengthMax)
	}
	if p.Strategy != 0 && (p.Strategy < StrategyFast || p.Strategy > StrategyBTUltra2) {
		return fmt.Errorf("strategy %d out of range [%d, %d]", p.Strategy, StrategyFast, StrategyBTUltra2)
	}
	if err := boundedLog("ldmHashLog", p.LDMHashLog, hashLogMin, hashLogMax); err != nil {
		return err
	}
	if p.LDMMinMatch != 0 && (p.LDMMinMatch < ldmMinMatchMin || p.LDMMinMatch > ldmMinMatchMax) {
		return fmt.Errorf("ldmMinMatch %d out of range [%d, %d]", p.LDMMinMatch, ldmMinMatchMin, ldmMinMatchMax)
	}
	if p.LDMBucketSizeLog < 0 || p.LDMBucketSizeLog > ldmBucketSizeLogMax {
		return fmt.Errorf("ldmBucketSizeLog %d out of range [0, %d]", p.LDMBucketSizeLog, ldmBucketSizeLogMax)
	}
	if p.LDMHashRateLog < 0 || p.LDMHashRateLog > ldmHashRateLogMax {
		return fmt.Errorf("ldmHashRateLog %d out of range [0, %d]", p.LDMHashRateLog, ldmHashRateLogMax)
	}
	if p.OverlapLog < 0 || p.OverlapLog > overlapLogMax {
		return fmt.Errorf("overlapLog %d out of range [0, %d]", p.OverlapLog, overlapLogMax)
	}
	if p.JobSize < 0 {
		return fmt.Errorf("jobSize must not be negative, got %d", p.JobSize)
	}

	return nil
}

func boundedLog(name string, v, minV, maxV int) error {
	if v == 0 {
		return nil
	}
	if v < minV || v > maxV {
		return fmt.Errorf("%s %d out of range [%d, %d]", name, v, minV, maxV)
	}

	return nil
}

// effectiveLevel resolves the level actually requested, applying the default
// for the zero value.
func (p *Params) effectiveLevel() int {
	if p.Level == 0 {
		return DefaultCompressionLevel
	}

	return p.Level
}

// encoderLevel maps the parameter bag onto a pure-Go encoder speed level.
//
// An explicit Strategy wins over Level since it pins the match finder, which
// is what the speed levels approximate.
func (p *Params) encoderLevel() zstd.EncoderLevel {
	if p.Strategy != 0 {
		switch {
		case p.Strategy <= StrategyDFast:
			return zstd.SpeedFastest
		case p.Strategy <= StrategyLazy:
			return zstd.SpeedDefault
		case p.Strategy <= StrategyBTLazy2:
			return zstd.SpeedBetterCompression
		default:
			return zstd.SpeedBestCompression
		}
	}

	lvl := p.effectiveLevel()
	if lvl < 1 {
		return zstd.SpeedFastest
	}

	return zstd.EncoderLevelFromZstd(lvl)
}

// concurrency resolves the Threads field to an encoder worker count.
func (p *Params) concurrency() int {
	switch {
	case p.Threads < 0:
		return runtime.GOMAXPROCS(0)
	case p.Threads == 0:
		return 1
	default:
		return p.Threads
	}
}

// windowSize resolves WindowLog to a byte count clamped to what the pure-Go
// encoder accepts, or 0 when unset.
func (p *Params) windowSize() int {
	if p.WindowLog == 0 {
		return 0
	}

	size := 1 << p.WindowLog
	if size < zstd.MinWindowSize {
		size = zstd.MinWindowSize
	}
	if size > zstd.MaxWindowSize {
		size = zstd.MaxWindowSize
	}

	return size
}
