package book

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"

	"github.com/yourusername/connectfour/ttable"
)

func writeBook(t *testing.T, records map[uint64]int32) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "book.bin")

	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(len(records)))
	for k, s := range records {
		rec := make([]byte, recordSize)
		binary.LittleEndian.PutUint64(rec[0:8], k)
		binary.LittleEndian.PutUint32(rec[8:12], uint32(s))
		buf = append(buf, rec...)
	}
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSeedsLowerBounds(t *testing.T) {
	is := is.New(t)
	path := writeBook(t, map[uint64]int32{111: 5, 222: -3})

	tt := ttable.New(ttable.Params{KeyBits: 49, ValueBits: 7, LogSize: 10})
	is.NoErr(Load(path, tt))

	v := tt.Lookup(111)
	is.Equal(v, uint8(absoluteLowerBound(5)))
	is.True(IsAbsoluteLowerBound(v))
	is.Equal(DecodeAbsoluteLowerBound(v), 5)

	v = tt.Lookup(222)
	is.Equal(v, uint8(absoluteLowerBound(-3)))
	is.True(IsAbsoluteLowerBound(v))
	is.Equal(DecodeAbsoluteLowerBound(v), -3)
}

func TestAbsoluteLowerBoundRangeDisjointFromTTableRanges(t *testing.T) {
	is := is.New(t)
	for score := ttable.MinScore; score <= ttable.MaxScore; score++ {
		v := uint8(absoluteLowerBound(int32(score)))
		is.True(IsAbsoluteLowerBound(v))
		is.Equal(DecodeAbsoluteLowerBound(v), score)

		// A book-seeded value also satisfies ttable.IsLower (it is, after
		// all, a kind of lower bound), which is exactly why negamax must
		// check IsAbsoluteLowerBound first: ttable.DecodeLower on this
		// same byte would silently recover the wrong score.
		is.True(ttable.IsLower(v))
		is.True(ttable.DecodeLower(v) != score)
	}

	for score := ttable.MinScore; score <= ttable.MaxScore; score++ {
		is.True(!IsAbsoluteLowerBound(ttable.EncodeLower(score)))
		is.True(!IsAbsoluteLowerBound(ttable.EncodeUpper(score)))
	}
}

func TestMissingFileIsNoOp(t *testing.T) {
	is := is.New(t)
	tt := ttable.New(ttable.Params{KeyBits: 49, ValueBits: 7, LogSize: 10})
	is.NoErr(Load(filepath.Join(t.TempDir(), "missing.bin"), tt))
	is.Equal(tt.Lookup(1), uint8(0))
}

func TestTruncatedTailIsRejected(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "short.bin")

	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, 1) // claims one record
	buf = append(buf, 0, 1, 2, 3)          // but only 4 bytes follow, not 12

	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatal(err)
	}

	tt := ttable.New(ttable.Params{KeyBits: 49, ValueBits: 7, LogSize: 10})
	err := Load(path, tt)
	is.True(err != nil)
}
