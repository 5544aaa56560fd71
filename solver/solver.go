// Package solver implements the negamax search described in spec.md
// section 4.D: alpha-beta pruning tightened against Connect Four's
// game-theoretic score bounds, transposition-table-assisted window
// narrowing, and an outer null-window (MTD-style) binary iterative
// deepening driver.
//
// This is adapted from the teacher's own endgame/negamax.Solver
// (negamax.go, solver.go): same recursive negamax shape, same
// alpha/beta threading through recursive calls, same background
// node-rate reporter goroutine — generalized from Scrabble spreads and
// a zobrist-hashed board to Connect Four's closed-form Position.Key()
// and its exact game-theoretic score bounds, and stripped of every
// optimization spec.md's Non-goals rule out (lazy SMP, killer moves,
// iterative-deepening move-order carryover) rather than just left
// unused.
package solver

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/connectfour/board"
	"github.com/yourusername/connectfour/book"
	"github.com/yourusername/connectfour/config"
	"github.com/yourusername/connectfour/sorter"
	"github.com/yourusername/connectfour/ttable"
)

// defaultDrawCutoffPly is spec.md section 4.D's hardcoded ply count beyond
// which no further win is possible, used when a Solver is built with New
// rather than NewFromConfig.
const defaultDrawCutoffPly = 40

// ErrAlreadyTerminal names the error for a position in which a player has
// already won. Solve does not check for such a position and never
// returns this error.
var ErrAlreadyTerminal = errors.New("solver: position already decided")

// columnOrder is the center-outward column priority from spec.md 4.D:
// searching the center first finds strong moves sooner and prunes more.
var columnOrder = [board.Width]int{3, 4, 2, 5, 1, 6, 0}

// Solver owns a transposition table and a running node count across
// calls to Solve. It is not safe for concurrent use: per spec.md
// section 5, search is single-threaded and synchronous.
type Solver struct {
	tt            *ttable.TranspositionTable
	nodes         atomic.Uint64
	drawCutoffPly int
}

// New returns a Solver backed by tt, using spec.md's default draw-cutoff
// ply. The caller owns tt's lifetime (and may have already seeded it via
// the book package).
func New(tt *ttable.TranspositionTable) *Solver {
	return &Solver{tt: tt, drawCutoffPly: defaultDrawCutoffPly}
}

// NewFromConfig builds a Solver whose transposition table is sized from
// c's K/V/L bit widths (ttable.NewFromConfig) and whose draw-cutoff ply
// is c.DrawCutoffPly rather than the hardcoded default, seeding the table
// from c.OpeningBookPath when one is configured.
func NewFromConfig(c config.Config) (*Solver, error) {
	tt := ttable.NewFromConfig(c)
	if c.OpeningBookPath != "" {
		if err := book.Load(c.OpeningBookPath, tt); err != nil {
			return nil, err
		}
	}
	return &Solver{tt: tt, drawCutoffPly: c.DrawCutoffPly}, nil
}

// SolveConfigured calls Solve with weak taken from c.Weak, so a driver
// built from config.Load can thread the whole tunable set through one
// call instead of re-deriving weak separately.
func (s *Solver) SolveConfigured(ctx context.Context, pos board.Position, c config.Config) (int, error) {
	return s.Solve(ctx, pos, c.Weak)
}

// NodeCount returns the number of negamax calls made across every Solve
// since construction or the last Reset.
func (s *Solver) NodeCount() uint64 {
	return s.nodes.Load()
}

// Reset clears the node counter and the transposition table, so that two
// Solve calls on equal positions are fully comparable (spec.md section 8:
// determinism).
func (s *Solver) Reset() {
	s.nodes.Store(0)
	s.tt.Reset()
}

// Solve returns the exact minimax score of pos (assuming optimal play by
// both sides) if weak is false, or just its sign (-1, 0, +1) if weak is
// true. pos must be a legal position in which nobody has won yet; Solve
// does not check this, and its result for a finished game is undefined.
func (s *Solver) Solve(ctx context.Context, pos board.Position, weak bool) (int, error) {
	if pos.CanWinNext() {
		if weak {
			return 1, nil
		}
		return (43 - pos.Moves()) / 2, nil
	}

	min := -(42 - pos.Moves()) / 2
	max := (43-pos.Moves())/2 - 1
	if weak {
		min, max = -1, 1
	}

	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.reportNodeRate(gctx, done)
	})
	defer func() {
		close(done)
		_ = g.Wait()
	}()

	for min < max {
		med := min + (max-min)/2
		if med <= 0 && min/2 < med {
			med = min / 2
		} else if med >= 0 && max/2 > med {
			med = max / 2
		}

		r, err := s.negamax(ctx, pos, med, med+1)
		if err != nil {
			return 0, err
		}

		if r <= med {
			max = r
		} else {
			min = r
		}
		log.Debug().Int("min", min).Int("max", max).Uint64("nodes", s.nodes.Load()).Msg("null-window-probe")
	}
	return min, nil
}

// reportNodeRate logs a nodes-per-second Debug line on a ticker until
// done is closed or ctx is cancelled. It mirrors the goroutine the
// teacher's own Solve spins up around s.nodes, purely for observability:
// the search itself still runs entirely on the caller's goroutine, so
// this carries no search state and does not parallelize anything.
func (s *Solver) reportNodeRate(ctx context.Context, done <-chan struct{}) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	var last uint64
	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			nodes := s.nodes.Load()
			log.Debug().Uint64("nps", nodes-last).Msg("nodes-per-second")
			last = nodes
		}
	}
}

// negamax implements spec.md section 4.D.2. Its precondition is that pos
// is not already a win for the side to move: every recursive call only
// ever plays a move drawn from NonLosingMoves, which by construction
// never hands the new side to move an immediate win, so the invariant
// holds all the way down without negamax needing to re-check it.
func (s *Solver) negamax(ctx context.Context, pos board.Position, alpha, beta int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.nodes.Add(1)

	moves := pos.Moves()
	possible := pos.NonLosingMoves()
	if possible == 0 {
		// Every legal move hands the opponent an immediate win next ply.
		return -(42 - moves) / 2, nil
	}
	if moves >= s.drawCutoffPly {
		// At most two plies remain and neither side can win them.
		return 0, nil
	}

	min := -(40 - moves) / 2
	if alpha < min {
		alpha = min
		if alpha >= beta {
			return alpha, nil
		}
	}
	max := (41 - moves) / 2
	if beta > max {
		beta = max
		if alpha >= beta {
			return beta, nil
		}
	}

	key := pos.Key()
	if v := s.tt.Lookup(key); v != 0 {
		switch {
		case book.IsAbsoluteLowerBound(v):
			// book.Load seeds entries with a wider offset than
			// EncodeLower's own range so the two conventions never
			// collide; decode with the matching inverse rather than
			// ttable.DecodeLower, which would misread it as a score
			// boundSpan higher than the book actually recorded.
			if lb := book.DecodeAbsoluteLowerBound(v); lb > alpha {
				alpha = lb
				if alpha >= beta {
					return alpha, nil
				}
			}
		case ttable.IsLower(v):
			if lb := ttable.DecodeLower(v); lb > alpha {
				alpha = lb
				if alpha >= beta {
					return alpha, nil
				}
			}
		default:
			if ub := ttable.DecodeUpper(v); ub < beta {
				beta = ub
				if alpha >= beta {
					return beta, nil
				}
			}
		}
	}

	candidateMoves := lo.Map(columnOrder[:], func(col int, _ int) uint64 {
		return possible & board.ColumnMask(col)
	})
	candidateMoves = lo.Filter(candidateMoves, func(move uint64, _ int) bool {
		return move != 0
	})

	var ms sorter.MoveSorter
	for _, move := range candidateMoves {
		ms.Add(move, pos.MoveScore(move))
	}

	for move := ms.GetNext(); move != 0; move = ms.GetNext() {
		child := pos
		child.Play(move)

		score, err := s.negamax(ctx, child, -beta, -alpha)
		if err != nil {
			return 0, err
		}
		score = -score

		if score >= beta {
			s.tt.Store(key, ttable.EncodeLower(score))
			return score, nil
		}
		if score > alpha {
			alpha = score
		}
	}

	s.tt.Store(key, ttable.EncodeUpper(alpha))
	return alpha, nil
}
