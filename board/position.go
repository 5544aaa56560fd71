// Package board represents a 7x6 Connect Four position as a pair of
// bitboards, following the encoding used by Pascal Pons' solver (ported
// here from the IBN5100 C++ reimplementation that this package is
// adapted from).
//
// Each column is encoded with 7 bits (6 playable rows plus a sentinel
// row on top), column-major:
//
//	.  .  .  .  .  .  .
//	5 12 19 26 33 40 47
//	4 11 18 25 32 39 46
//	3 10 17 24 31 38 45
//	2  9 16 23 30 37 44
//	1  8 15 22 29 36 43
//	0  7 14 21 28 35 42
//
// The sentinel row is never set during legal play. It lets column
// overflow and diagonal shifts be checked without bounds-checking each
// bit individually.
package board

import (
	"errors"
	"math/bits"
)

const (
	Width  = 7
	Height = 6

	MinScore = -18
	MaxScore = 18
)

var (
	// ErrColumnOutOfRange is returned when a column index is not in [0, Width).
	ErrColumnOutOfRange = errors.New("board: column out of range")
	// ErrColumnFull is returned when Play/PlayColumn targets a full column.
	ErrColumnFull = errors.New("board: column is full")
)

// bottomMask has bit 7*c set for every column: the lowest playable cell.
const bottomMask uint64 = 1<<(0*7) | 1<<(1*7) | 1<<(2*7) | 1<<(3*7) | 1<<(4*7) | 1<<(5*7) | 1<<(6*7)

// boardMask marks every playable (non-sentinel) cell.
const boardMask uint64 = bottomMask * ((1 << Height) - 1)

// ColumnMask returns the bitmask of the Height playable cells of column c;
// the sentinel row is not included.
func ColumnMask(c int) uint64 {
	return ((uint64(1) << Height) - 1) << (7 * c)
}

func topMask(c int) uint64 {
	return uint64(1) << (Height - 1 + 7*c)
}

// Position is the mover-relative state of a Connect Four game: pos holds a
// 1 bit for every cell occupied by the player to move, mask holds a 1 bit
// for every occupied cell (either player), and moves counts plies played.
//
// Position is a small value type, cheap to copy; the solver clones one per
// child node instead of mutating and unwinding.
type Position struct {
	pos   uint64
	mask  uint64
	moves int
}

// New returns the empty starting position.
func New() Position {
	return Position{}
}

// FromRaw builds a Position directly from its bitboard pair, bypassing
// Play's alternation. It exists for tests that build a position from its
// bitboards rather than from the sequence of moves that reached it; the
// caller is responsible for
// pos/mask describing a reachable state.
func FromRaw(pos, mask uint64, moves int) Position {
	return Position{pos: pos, mask: mask, moves: moves}
}

// CanPlay reports whether column c has room for another piece.
func (p Position) CanPlay(c int) bool {
	return p.mask&topMask(c) == 0
}

// Moves returns the number of plies played so far.
func (p Position) Moves() int {
	return p.moves
}

// Key returns pos+mask, a bijective encoding of the reachable state
// (pos, mask): adding mask promotes the top occupied bit of every column
// by one row, synthesizing a unique terminator bit per column. It fits in
// 49 bits (7 columns x 7 bits).
func (p Position) Key() uint64 {
	return p.pos + p.mask
}

// PlayColumn drops a piece for the player to move into column c.
func (p *Position) PlayColumn(c int) error {
	if c < 0 || c >= Width {
		return ErrColumnOutOfRange
	}
	if !p.CanPlay(c) {
		return ErrColumnFull
	}
	p.Play((p.mask + bottomMaskCol(c)) & ColumnMask(c))
	return nil
}

func bottomMaskCol(c int) uint64 {
	return uint64(1) << (7 * c)
}

// Play drops a piece on the single-bit cell move. The caller must have
// already verified the move is legal (e.g. via NonLosingMoves or
// PlayColumn); Play itself does not validate it.
func (p *Position) Play(move uint64) {
	// The mover's bitboard is XORed with mask before mask absorbs the new
	// bit, so pos always ends up describing the *other* player: negamax's
	// "player to move" flips for free on every ply.
	p.pos ^= p.mask
	p.mask |= move
	p.moves++
}

// Init plays a sequence of 1-indexed column digits ('1'..'7'), stopping at
// the first illegal move or the first move that would immediately win.
// It returns the count of moves successfully played; the caller should
// compare this against len(seq) to detect a short sequence.
func Init(seq string) (Position, int) {
	p := New()
	for i := 0; i < len(seq); i++ {
		c := int(seq[i] - '1')
		if c < 0 || c >= Width || !p.CanPlay(c) || p.IsWin(c) {
			return p, i
		}
		p.PlayColumn(c)
	}
	return p, len(seq)
}

// IsWin reports whether dropping into column c would complete four in a
// row for the player to move, without mutating the position.
func (p Position) IsWin(c int) bool {
	return p.winningPositions()&p.possibleMoves()&ColumnMask(c) != 0
}

// CanWinNext reports whether some legal move wins immediately.
func (p Position) CanWinNext() bool {
	return p.winningPositions()&p.possibleMoves() != 0
}

func (p Position) possibleMoves() uint64 {
	return (p.mask + bottomMask) & boardMask
}

func (p Position) winningPositions() uint64 {
	return computeWinPositions(p.pos, p.mask)
}

func (p Position) opponentWinningPositions() uint64 {
	return computeWinPositions(p.pos^p.mask, p.mask)
}

// computeWinPositions returns, for every direction (vertical, horizontal,
// and both diagonals), the bitmap of empty cells that would complete four
// in a row for the player described by pos. The sentinel row being always
// zero is what keeps the horizontal and diagonal shifts from wrapping
// across column boundaries.
func computeWinPositions(pos, mask uint64) uint64 {
	// vertical
	r := (pos << 1) & (pos << 2) & (pos << 3)

	// horizontal
	p := (pos << 7) & (pos << 14)
	r |= p & (pos << 21)
	r |= p & (pos >> 7)
	p = (pos >> 7) & (pos >> 14)
	r |= p & (pos >> 21)
	r |= p & (pos << 7)

	// diagonal (\)
	p = (pos << 6) & (pos << 12)
	r |= p & (pos << 18)
	r |= p & (pos >> 6)
	p = (pos >> 6) & (pos >> 12)
	r |= p & (pos >> 18)
	r |= p & (pos << 6)

	// diagonal (/)
	p = (pos << 8) & (pos << 16)
	r |= p & (pos << 24)
	r |= p & (pos >> 8)
	p = (pos >> 8) & (pos >> 16)
	r |= p & (pos >> 24)
	r |= p & (pos << 8)

	return r & (boardMask ^ mask)
}

// NonLosingMoves returns the bitmap of legal moves that do not hand the
// opponent an immediate win on their following move. The caller must
// already know CanWinNext is false.
func (p Position) NonLosingMoves() uint64 {
	possible := p.possibleMoves()
	oppWin := p.opponentWinningPositions()
	forced := possible & oppWin

	if forced != 0 {
		if forced&(forced-1) != 0 {
			// Two forced squares: the opponent has a double threat we
			// cannot block both of. Every move loses.
			return 0
		}
		possible = forced
	}

	// Never play immediately below a cell that would let the opponent win.
	return possible &^ (oppWin >> 1)
}

// MoveScore counts the number of four-in-a-row threats the player to move
// would hold after playing move. Used only to order candidate moves.
func (p Position) MoveScore(move uint64) int {
	return bits.OnesCount64(computeWinPositions(p.pos|move, p.mask))
}

// Mirror reflects columns 0<->6, 1<->5, 2<->4 (column 3 is the axis). It is
// used by tests to check the solver's column symmetry.
func (p Position) Mirror() Position {
	var mpos, mmask uint64
	for c := 0; c < Width; c++ {
		src := ColumnMask(c)
		dst := 6 - c
		shift := (dst - c) * 7
		if shift >= 0 {
			mpos |= (p.pos & src) << uint(shift)
			mmask |= (p.mask & src) << uint(shift)
		} else {
			mpos |= (p.pos & src) >> uint(-shift)
			mmask |= (p.mask & src) >> uint(-shift)
		}
	}
	return Position{pos: mpos, mask: mmask, moves: p.moves}
}
