package engine

import "github.com/hailam/chessplay/internal/board"

// SearchMTDF runs MTD(f) (Memory-enhanced Test Driver) at a single fixed
// depth: a series of null-window searches against the shared transposition
// table, each one narrowing the [lower, upper] bound on the position's
// minimax value until they meet. firstGuess seeds the first window, normally
// the previous iterative-deepening depth's score.
//
// Grounded on the zero-window convergence loop in the original engine's
// MTD(f) searcher; the null-window search itself is NegaScoutSearcher's
// negaScout, reused rather than duplicated since a null window is exactly
// what NegaScout already scouts subsequent moves with.
func SearchMTDF(s *NegaScoutSearcher, pos *board.Position, depth int, firstGuess int) (board.Move, int) {
	g := firstGuess
	upper := MateScore
	lower := -MateScore
	var bestMove board.Move

	for lower < upper {
		if s.IsStopped() {
			break
		}

		beta := g
		if g == lower {
			beta = g + 1
		}

		g = s.searchNullWindow(pos, depth, beta)

		if g < beta {
			upper = g
		} else {
			lower = g
			// A fail-high probe ends with the root move that reached g.
			if s.pv.length[0] > 0 {
				bestMove = s.pv.moves[0][0]
			} else if entry, found := s.tt.Probe(pos.Hash); found {
				bestMove = entry.BestMove
			}
		}
	}

	// A fail-low final probe leaves no root PV; fall back to the root's
	// table move when no probe failed high.
	if bestMove == board.NoMove {
		if entry, found := s.tt.Probe(pos.Hash); found {
			bestMove = entry.BestMove
		}
	}
	return bestMove, g
}
