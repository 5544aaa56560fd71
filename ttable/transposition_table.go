// Package ttable implements the solver's transposition table: a
// fixed-size, prime-bucketed, open-addressing hash map from a position's
// Key() to a packed lower/upper score bound.
//
// There is no probe chain and no tombstone: a collision simply
// overwrites whatever was stored at that bucket ("latest wins"), and the
// truncated stored key makes the rare false-positive statistically safe
// (the search only ever uses a hit to tighten a window, never to trust a
// result outright). This mirrors the collision policy of the teacher's
// own endgame/negamax.TranspositionTable, adapted here from a
// power-of-two mask (valid only because that table's bucket index
// recovers the key's low bits exactly) to the spec's prime-sized bucket
// count, which needs an explicit truncated key comparison instead.
package ttable

import (
	"math"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/connectfour/config"
)

const (
	// MinScore and MaxScore bound the score convention the solver works
	// in: a win with the winner's n-th stone scores (22-n); the fastest
	// possible win and the fastest possible loss are +-18 on a 7x6 board.
	MinScore = -18
	MaxScore = 18

	// boundSpan is maxScore-minScore+1, the width of the score range.
	boundSpan = MaxScore - MinScore + 1 // 37

	// DefaultKeyBits is K from spec.md 3: 7 columns x 7 bits per column.
	DefaultKeyBits = 49
	// DefaultValueBits is V from spec.md 3, wide enough to hold both the
	// lower-bound range [boundSpan+1, 2*boundSpan] and the upper-bound
	// range [1, boundSpan].
	DefaultValueBits = 7
	// DefaultLogSize is L from spec.md 3: log2 of the target bucket count
	// before rounding up to the next prime.
	DefaultLogSize = 23

	entrySize = 5 // 4-byte truncated key + 1-byte packed value
)

// Params fixes the three compile-time constants the original C++
// TranspositionTable is templated on. Go has no runtime-selected numeric
// generics, so the widths are picked once at construction time instead
// (see spec.md's Design Notes) and the underlying arrays are always
// uint32/uint8, which comfortably covers the spec's own K=49, V=7
// defaults.
type Params struct {
	KeyBits   uint
	ValueBits uint
	LogSize   uint
}

// DefaultParams returns spec.md's defaults: K=49, V=7, L=23.
func DefaultParams() Params {
	return Params{KeyBits: DefaultKeyBits, ValueBits: DefaultValueBits, LogSize: DefaultLogSize}
}

type entry struct {
	key   uint32
	value uint8
}

// TranspositionTable is a fixed-capacity, open-addressing position cache.
// It is not safe for concurrent use: the solver that owns one runs
// single-threaded, per spec.md section 5.
type TranspositionTable struct {
	params  Params
	entries []entry
	size    uint64

	created    uint64
	lookups    uint64
	hits       uint64
	collisions uint64
}

// New allocates a table sized nextPrime(2^L) for the given Params.
func New(params Params) *TranspositionTable {
	size := nextPrime(uint64(1) << params.LogSize)
	t := &TranspositionTable{
		params:  params,
		entries: make([]entry, size),
		size:    size,
	}
	log.Info().
		Uint64("size", size).
		Uint("key-bits", params.KeyBits).
		Uint("value-bits", params.ValueBits).
		Int("estimated-bytes", int(size)*entrySize).
		Msg("transposition-table-allocated")
	return t
}

// NewDefault allocates a table using DefaultParams.
func NewDefault() *TranspositionTable {
	return New(DefaultParams())
}

// NewFromConfig allocates a table sized from c's K/V/L fields instead of
// spec.md's hardcoded defaults, letting a driver's flags (config.Load)
// actually reach the table it builds.
func NewFromConfig(c config.Config) *TranspositionTable {
	return New(Params{KeyBits: c.KeyBits, ValueBits: c.ValueBits, LogSize: c.LogSize})
}

// NewAuto picks a log2 bucket count that keeps the table within
// fractionOfMemory of total system memory, but never larger than
// DefaultParams().LogSize — the spec table is meant to be compile-time
// sized, so this only ever shrinks it for memory-constrained hosts. This
// mirrors the role github.com/pbnjay/memory plays in the teacher's own
// TranspositionTable.Reset(fractionOfMemory, ...).
func NewAuto(fractionOfMemory float64) *TranspositionTable {
	params := DefaultParams()
	total := memory.TotalMemory()
	if total > 0 {
		desired := fractionOfMemory * (float64(total) / float64(entrySize))
		logSize := uint(math.Log2(desired))
		if logSize < 10 {
			logSize = 10
		}
		if logSize < params.LogSize {
			params.LogSize = logSize
		}
	}
	return New(params)
}

func (t *TranspositionTable) index(key uint64) uint64 {
	return key % t.size
}

func (t *TranspositionTable) truncate(key uint64) uint32 {
	return uint32(key)
}

// Store writes value under key, overwriting any prior occupant at that
// bucket. It panics if key or value do not fit in the configured K/V bit
// widths: per spec.md section 7, an oversize key or value is a
// precondition violation, not a recoverable error.
func (t *TranspositionTable) Store(key uint64, value uint8) {
	if key>>t.params.KeyBits != 0 {
		panic("ttable: key exceeds configured key-bit width")
	}
	if uint(value)>>t.params.ValueBits != 0 {
		panic("ttable: value exceeds configured value-bit width")
	}
	idx := t.index(key)
	t.entries[idx] = entry{key: t.truncate(key), value: value}
	t.created++
}

// Lookup returns the packed value stored under key, or 0 ("absent") if
// nothing is stored there or the truncated stored key does not match —
// the latter is a type-2 collision: two distinct positions sharing a
// bucket but not a truncated key, which is counted but otherwise silently
// treated as a miss.
func (t *TranspositionTable) Lookup(key uint64) uint8 {
	t.lookups++
	idx := t.index(key)
	e := t.entries[idx]
	if e.value == 0 {
		return 0
	}
	if e.key != t.truncate(key) {
		t.collisions++
		return 0
	}
	t.hits++
	return e.value
}

// Reset zeros every entry and the Stats counters without reallocating.
func (t *TranspositionTable) Reset() {
	clear(t.entries)
	t.created, t.lookups, t.hits, t.collisions = 0, 0, 0, 0
}

// Size returns the number of buckets (nextPrime(2^L)).
func (t *TranspositionTable) Size() uint64 { return t.size }

// Stats returns (created, lookups, hits, collisions) counters, purely for
// diagnostics/logging.
func (t *TranspositionTable) Stats() (created, lookups, hits, collisions uint64) {
	return t.created, t.lookups, t.hits, t.collisions
}

// Bound encoding (spec.md section 3): a lower bound b >= s_true is
// stored as b+MaxScore-2*MinScore+2, landing in [boundSpan+1, 2*boundSpan];
// an upper bound b <= s_true is stored as b-MinScore+1, landing in
// [1, boundSpan]. Zero always means "absent".

// EncodeLower packs a lower-bound score for storage.
func EncodeLower(score int) uint8 {
	return uint8(score + MaxScore - 2*MinScore + 2)
}

// EncodeUpper packs an upper-bound score for storage.
func EncodeUpper(score int) uint8 {
	return uint8(score - MinScore + 1)
}

// IsLower reports whether a non-zero packed value encodes a lower bound.
func IsLower(value uint8) bool {
	return int(value) > boundSpan
}

// DecodeLower unpacks a value known (via IsLower) to hold a lower bound.
func DecodeLower(value uint8) int {
	return int(value) - MaxScore + 2*MinScore - 2
}

// DecodeUpper unpacks a value known (via !IsLower) to hold an upper bound.
func DecodeUpper(value uint8) int {
	return int(value) + MinScore - 1
}

// nextPrime returns the smallest prime >= n (n >= 2), by trial division
// up to sqrt(candidate). It is only ever called once per table
// construction, so simplicity wins over a sieve.
func nextPrime(n uint64) uint64 {
	if n < 2 {
		n = 2
	}
	for !isPrime(n) {
		n++
	}
	return n
}

func isPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := uint64(3); d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}
