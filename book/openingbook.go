// Package book implements the bulk loader half of the opening-book
// feature described in spec.md section 4.E: a fixed binary layout of
// (key, score) records that get re-encoded as absolute lower bounds and
// poured into a ttable.TranspositionTable. The writer half of the
// original OpeningBook (the save/serialize path, see original_source's
// openingbook.cpp) is explicitly out of scope per spec.md section 1,
// which describes this component as "a mere bulk loader".
package book

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/samber/lo"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/connectfour/ttable"
)

// MaxRecords is the largest record count the 2-byte little-endian count
// field can express.
const MaxRecords = 65535

const recordSize = 8 + 4 // 8-byte key + 4-byte signed score

// ErrTruncated is returned when the file's declared record count implies
// more bytes than the file actually contains.
var ErrTruncated = errors.New("book: truncated opening book file")

// record is one decoded (key, score) pair.
type record struct {
	key   uint64
	score int32
}

// Load reads the opening book at path and stores every record into tt as
// an absolute lower bound, matching OpeningBook::load in the original
// source: score is re-encoded by adding 2*MaxScore-3*MinScore+3 before
// storage. A missing file is a no-op, matching the original's
// `!f.is_open()` branch — this is the one spot in the solver where a
// missing asset is expected, not an error.
func Load(path string, tt *ttable.TranspositionTable) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", path).Msg("no-opening-book-detected")
			return nil
		}
		return err
	}
	defer f.Close()

	recs, err := decode(f)
	if err != nil {
		return err
	}

	lo.ForEach(recs, func(r record, _ int) {
		tt.Store(r.key, uint8(absoluteLowerBound(r.score)))
	})

	log.Info().Str("path", path).Int("records", len(recs)).Msg("opening-book-loaded")
	return nil
}

// boundOffset is the affine shift absoluteLowerBound applies, per spec.md
// section 4.E. Its range ([2*boundSpan+1, 3*boundSpan], boundSpan =
// ttable.MaxScore-ttable.MinScore+1) sits strictly above both of
// ttable's own EncodeLower/EncodeUpper ranges, so a lookup can always
// tell a book-seeded entry apart from one negamax wrote itself.
const boundOffset = 2*ttable.MaxScore - 3*ttable.MinScore + 3

// absoluteLowerBound re-encodes a raw opening-book score as an absolute
// lower-bound score, per spec.md section 4.E.
func absoluteLowerBound(score int32) int {
	return int(score) + boundOffset
}

// IsAbsoluteLowerBound reports whether a non-zero value read from a
// transposition table was written by Load's wider encoding rather than
// ttable.EncodeLower/EncodeUpper — the two conventions occupy disjoint
// byte ranges by construction.
func IsAbsoluteLowerBound(value uint8) bool {
	return int(value) > 2*(ttable.MaxScore-ttable.MinScore+1)
}

// DecodeAbsoluteLowerBound unpacks a value known (via IsAbsoluteLowerBound)
// to hold a book-seeded absolute lower bound.
func DecodeAbsoluteLowerBound(value uint8) int {
	return int(value) - boundOffset
}

// decode reads the whole file into memory first (matching the original
// OpeningBook::load, which slurps the file into a buffer before touching
// the table) and then parses records, rejecting a short trailing record
// instead of panicking.
func decode(r io.Reader) ([]record, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(buf) < 2 {
		return nil, ErrTruncated
	}

	// n is a uint16, so it can never exceed MaxRecords; the field width
	// itself is what enforces the "at most 65535 records" limit.
	n := binary.LittleEndian.Uint16(buf[0:2])

	recs := make([]record, 0, n)
	off := 2
	for i := uint16(0); i < n; i++ {
		if off+recordSize > len(buf) {
			return nil, ErrTruncated
		}
		key := binary.LittleEndian.Uint64(buf[off : off+8])
		score := int32(binary.LittleEndian.Uint32(buf[off+8 : off+12]))
		recs = append(recs, record{key: key, score: score})
		off += recordSize
	}
	return recs, nil
}
