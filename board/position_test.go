package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func playSeq(t *testing.T, seq string) Position {
	t.Helper()
	p, n := Init(seq)
	assert.Equal(t, len(seq), n, "sequence %q should play in full", seq)
	return p
}

func TestInvariants(t *testing.T) {
	for _, seq := range []string{"", "4", "444444", "4455454", "12345671234567"} {
		p := playSeq(t, seq)
		assert.Equal(t, p.moves, popcount(p.mask))
		assert.Zero(t, p.pos&^p.mask)
		assert.Zero(t, p.mask&^boardMask)
	}
}

func popcount(x uint64) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}

func TestCanPlayFullColumn(t *testing.T) {
	p := New()
	for i := 0; i < Height; i++ {
		assert.True(t, p.CanPlay(0))
		assert.NoError(t, p.PlayColumn(1)) // column 1 takes the other player's turns; PlayColumn does not check for wins
		assert.NoError(t, p.PlayColumn(0))
	}
	assert.False(t, p.CanPlay(0))
}

func TestKeyIgnoresMoveOrder(t *testing.T) {
	// "123" and "321" reach the same position, so they share one key.
	a, na := Init("123")
	b, nb := Init("321")
	assert.Equal(t, 3, na)
	assert.Equal(t, 3, nb)
	assert.Equal(t, a.Key(), b.Key())
}

func TestNonLosingMovesOnlyLegal(t *testing.T) {
	p := playSeq(t, "444")
	if p.CanWinNext() {
		return
	}
	possible := p.possibleMoves()
	nl := p.NonLosingMoves()
	assert.Zero(t, nl&^possible, "non-losing moves must be a subset of legal moves")
}

func TestMirrorRoundTrips(t *testing.T) {
	p := playSeq(t, "4455")
	mm := p.Mirror().Mirror()
	assert.Equal(t, p.pos, mm.pos)
	assert.Equal(t, p.mask, mm.mask)
}

func TestImmediateWinDetection(t *testing.T) {
	// Columns 1-3 (1-indexed) each hold one stone of the player to move
	// at row 0; columns 5, 5 and 7 absorb the three replies. Column 4 would
	// complete the horizontal four.
	p := playSeq(t, "152537")
	assert.True(t, p.CanWinNext())
}

func TestPlayColumnErrors(t *testing.T) {
	p := New()
	assert.ErrorIs(t, p.PlayColumn(-1), ErrColumnOutOfRange)
	assert.ErrorIs(t, p.PlayColumn(7), ErrColumnOutOfRange)

	for i := 0; i < Height; i++ {
		assert.NoError(t, p.PlayColumn(0))
	}
	assert.ErrorIs(t, p.PlayColumn(0), ErrColumnFull)
}
