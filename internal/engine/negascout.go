package engine

import (
	"sync/atomic"

	"github.com/hailam/chessplay/internal/board"
)

// NegaScoutSearcher implements the NegaScout (Principal Variation Search)
// algorithm: the first move at each node is searched with a full window,
// every subsequent move is first "scouted" with a null window (alpha,
// alpha+1) and only re-searched with the full window if the scout suggests
// it might beat alpha. On well-ordered trees this visits fewer nodes than
// plain alpha-beta while converging on the same score; SearchMTDF (mtdf.go)
// reuses this same null-window scout as its inner loop.
type NegaScoutSearcher struct {
	pos       *board.Position
	tt        *TranspositionTable
	orderer   *MoveOrderer
	pawnTable *PawnTable
	corrHist  *CorrectionHistory

	nodes    uint64
	selDepth int
	stopFlag atomic.Bool

	rootHistory   []uint64
	searchHistory [MaxPly]uint64

	pv PVTable

	undoStack [MaxPly]board.UndoInfo
}

// NewNegaScoutSearcher creates a NegaScout searcher sharing the same
// transposition, pawn and correction-history tables as the primary searcher.
func NewNegaScoutSearcher(tt *TranspositionTable, pawnTable *PawnTable, corrHist *CorrectionHistory) *NegaScoutSearcher {
	return &NegaScoutSearcher{
		tt:        tt,
		orderer:   NewMoveOrderer(),
		pawnTable: pawnTable,
		corrHist:  corrHist,
	}
}

// Stop signals the search to abort.
func (s *NegaScoutSearcher) Stop() { s.stopFlag.Store(true) }

// IsStopped reports whether Stop has been called.
func (s *NegaScoutSearcher) IsStopped() bool { return s.stopFlag.Load() }

// Reset clears per-search counters, keeping move-ordering tables warm
// between iterative-deepening depths.
func (s *NegaScoutSearcher) Reset() {
	s.stopFlag.Store(false)
	s.nodes = 0
	s.selDepth = 0
}

// Nodes returns the number of nodes visited by the last search.
func (s *NegaScoutSearcher) Nodes() uint64 { return s.nodes }

// SelDepth returns the deepest ply reached.
func (s *NegaScoutSearcher) SelDepth() int { return s.selDepth }

// SetRootHistory supplies game history hashes for repetition detection.
func (s *NegaScoutSearcher) SetRootHistory(hashes []uint64) { s.rootHistory = hashes }

// GetPV returns the principal variation of the last search.
func (s *NegaScoutSearcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	for i := 0; i < s.pv.length[0]; i++ {
		pv[i] = s.pv.moves[0][i]
	}
	return pv
}

// SearchNegaScout runs one fixed-depth NegaScout pass and returns the best
// root move and its score; matches Searcher.Search's call signature so
// Engine's iterative-deepening driver can use either interchangeably.
func SearchNegaScout(s *NegaScoutSearcher, pos *board.Position, depth int) (board.Move, int) {
	s.pos = pos.Copy()
	s.Reset()

	score := s.negaScout(depth, 0, -Infinity, Infinity, board.NoMove)

	var bestMove board.Move
	if s.pv.length[0] > 0 {
		bestMove = s.pv.moves[0][0]
	}
	return bestMove, score
}

// searchNullWindow runs a null-window ((beta-1, beta)) search at depth and
// returns the score. Used directly by MTD(f), which drives NegaScout through
// a sequence of null-window probes rather than one full-window search per
// depth.
func (s *NegaScoutSearcher) searchNullWindow(pos *board.Position, depth int, beta int) int {
	s.pos = pos.Copy()
	s.Reset()
	return s.negaScout(depth, 0, beta-1, beta, board.NoMove)
}

func (s *NegaScoutSearcher) negaScout(depth, ply int, alpha, beta int, prevMove board.Move) int {
	if s.nodes&4095 == 0 && s.stopFlag.Load() {
		return 0
	}
	s.nodes++
	if ply > s.selDepth {
		s.selDepth = ply
	}

	s.pv.length[ply] = ply

	if ply > 0 && s.isDraw(ply) {
		return 0
	}
	if ply >= MaxPly-1 {
		return Evaluate(s.pos)
	}

	var ttMove board.Move
	ttEntry, found := s.tt.Probe(s.pos.Hash)
	if found {
		ttMove = ttEntry.BestMove
		if int(ttEntry.Depth) >= depth {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score > alpha {
					alpha = score
				}
			case TTUpperBound:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score
			}
		}
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	inCheck := s.pos.InCheck()
	moves := s.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	extension := 0
	if inCheck {
		extension = checkExtension
	}

	scores := s.orderer.ScoreMovesWithCounter(s.pos, moves, ply, ttMove, prevMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound
	searchedAny := false
	b := beta // search window for the next move; narrows to a null window after the first

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		s.undoStack[ply] = s.pos.MakeMove(move)
		if !s.undoStack[ply].Valid {
			continue
		}
		s.searchHistory[ply] = s.pos.Hash
		searchedAny = true

		newDepth := depth - 1 + extension
		score := -s.negaScout(newDepth, ply+1, -b, -alpha, move)

		// If the null-window scout indicates the move might beat alpha, but
		// we weren't already doing a full-window search, re-search with the
		// full window to get an exact score.
		if alpha < score && score < beta && b != beta {
			score = -s.negaScout(newDepth, ply+1, -beta, -alpha, move)
		}

		s.pos.UnmakeMove(move, s.undoStack[ply])

		if s.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact

				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		if alpha >= beta {
			s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, bestMove)
			if !move.IsCapture(s.pos) && !move.IsPromotion() {
				s.orderer.UpdateKillers(move, ply)
				s.orderer.UpdateHistory(move, depth, true)
			}
			return alpha
		}

		// Every move after the first is scouted with a null window.
		b = alpha + 1
	}

	if !searchedAny {
		return alpha
	}

	s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)
	return bestScore
}

func (s *NegaScoutSearcher) quiescence(ply int, alpha, beta int) int {
	const maxQuiescencePly = 32
	if ply >= MaxPly || ply > maxQuiescencePly {
		return Evaluate(s.pos)
	}
	if s.stopFlag.Load() {
		return 0
	}
	s.nodes++

	var standPat int
	if s.pawnTable != nil {
		standPat = EvaluateWithPawnTable(s.pos, s.pawnTable)
	} else {
		standPat = Evaluate(s.pos)
	}

	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}
	if standPat+QueenValue < alpha {
		return alpha
	}

	moves := s.pos.GenerateCaptures()
	scores := s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		if !s.pos.InCheck() && SEE(s.pos, move) < 0 {
			continue
		}

		undo := s.pos.MakeMove(move)
		if !undo.Valid {
			continue
		}
		score := -s.quiescence(ply+1, -beta, -alpha)
		s.pos.UnmakeMove(move, undo)

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}

func (s *NegaScoutSearcher) isDraw(ply int) bool {
	if s.pos.HalfMoveClock >= 100 {
		return true
	}
	if s.pos.IsInsufficientMaterial() {
		return true
	}
	hash := s.pos.Hash
	for p := ply - 3; p >= 0; p -= 2 {
		if s.searchHistory[p] == hash {
			return true
		}
	}
	for i := len(s.rootHistory) - 1; i >= 0; i-- {
		if s.rootHistory[i] == hash {
			return true
		}
	}
	return false
}
