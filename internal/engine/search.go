package engine

import (
	"sync/atomic"

	"github.com/hailam/chessplay/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Pruning/reduction constants, tuned to the scale Stockfish-family engines
// use for these same techniques; kept modest since this is a single-threaded
// searcher with no Lazy-SMP depth to make up the difference.
const (
	nullMoveMinDepth  = 3
	nullMoveBaseR     = 3
	rfpMaxDepth       = 3
	rfpMarginPerDepth = 120
	futilityMaxDepth  = 5
	checkExtension    = 1
)

var futilityMargins = [futilityMaxDepth + 1]int{0, 200, 300, 500, 700, 900}

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher performs a single-threaded alpha-beta search. Spec mandates one
// cooperative search thread (no Lazy-SMP); MultiPV is implemented by running
// this same searcher repeatedly with the previous best moves excluded at the
// root rather than by adding worker goroutines.
type Searcher struct {
	pos        *board.Position
	tt         *TranspositionTable
	orderer    *MoveOrderer
	pawnTable  *PawnTable
	corrHist   *CorrectionHistory

	// Search state
	nodes    uint64
	selDepth int
	stopFlag atomic.Bool

	// rootHistory holds Zobrist hashes of positions played before the search
	// root (game history), used for repetition detection together with the
	// hashes pushed onto searchHistory as the search descends.
	rootHistory   []uint64
	searchHistory [MaxPly]uint64

	// excludedRoot holds root moves MultiPV has already reported, so the next
	// pass searches around them instead of re-finding the same best move.
	excludedRoot []board.Move

	rootDelta int

	// PV tracking
	pv PVTable

	// Undo stack
	undoStack [MaxPly]board.UndoInfo
}

// NewSearcher creates a new searcher.
func NewSearcher(tt *TranspositionTable, pawnTable *PawnTable, corrHist *CorrectionHistory) *Searcher {
	return &Searcher{
		tt:        tt,
		orderer:   NewMoveOrderer(),
		pawnTable: pawnTable,
		corrHist:  corrHist,
	}
}

// Stop signals the search to stop.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// IsStopped reports whether the search has been signalled to stop.
func (s *Searcher) IsStopped() bool {
	return s.stopFlag.Load()
}

// Reset resets the searcher for a new search, keeping accumulated history
// tables (killers/counter-moves persist across iterative-deepening depths).
func (s *Searcher) Reset() {
	s.stopFlag.Store(false)
	s.nodes = 0
	s.selDepth = 0
}

// ClearOrderer resets the move-ordering tables: killers and counter moves are
// cleared, history and capture-history scores are halved.
// Called between unrelated searches (e.g. a new game) rather than between
// iterative-deepening depths of the same search.
func (s *Searcher) ClearOrderer() {
	s.orderer.Clear()
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// SelDepth returns the maximum ply reached (selective depth).
func (s *Searcher) SelDepth() int {
	return s.selDepth
}

// SetRootHistory supplies the game's position hashes prior to the search
// root, so repetitions spanning the root (not just within the search tree)
// are detected.
func (s *Searcher) SetRootHistory(hashes []uint64) {
	s.rootHistory = hashes
}

// SetExcludedMoves excludes the given root moves from consideration, used to
// drive MultiPV one line at a time without a second search thread.
func (s *Searcher) SetExcludedMoves(moves []board.Move) {
	s.excludedRoot = moves
}

func (s *Searcher) isExcludedRoot(m board.Move) bool {
	for _, e := range s.excludedRoot {
		if e == m {
			return true
		}
	}
	return false
}

// Search performs the search at the given depth, aborting early if stopFlag
// is set (see Stop). It checks no deadline itself; the engine's drivers check
// time limits only between depths.
func (s *Searcher) Search(pos *board.Position, depth int) (board.Move, int) {
	s.pos = pos.Copy()
	s.Reset()
	s.rootDelta = Infinity

	score := s.negamax(depth, 0, -Infinity, Infinity, board.NoMove, board.NoMove)

	var bestMove board.Move
	if s.pv.length[0] > 0 {
		bestMove = s.pv.moves[0][0]
	}

	return bestMove, score
}

// SearchAspiration runs Search with an aspiration window centered on
// prevScore, widening and re-searching on fail-high/fail-low until the score
// lands inside the window. depth 1-2 always use a full window since there is
// no prior score to center on.
func (s *Searcher) SearchAspiration(pos *board.Position, depth int, prevScore int) (board.Move, int) {
	if depth <= 2 {
		return s.Search(pos, depth)
	}

	window := 25
	alpha := prevScore - window
	beta := prevScore + window

	for {
		s.pos = pos.Copy()
		s.Reset()
		s.rootDelta = beta - alpha

		score := s.negamax(depth, 0, alpha, beta, board.NoMove, board.NoMove)
		if s.stopFlag.Load() {
			var bestMove board.Move
			if s.pv.length[0] > 0 {
				bestMove = s.pv.moves[0][0]
			}
			return bestMove, score
		}

		if score <= alpha {
			alpha -= window
			window *= 2
		} else if score >= beta {
			beta += window
			window *= 2
		} else {
			var bestMove board.Move
			if s.pv.length[0] > 0 {
				bestMove = s.pv.moves[0][0]
			}
			return bestMove, score
		}

		if alpha < -Infinity {
			alpha = -Infinity
		}
		if beta > Infinity {
			beta = Infinity
		}
	}
}

// negamax implements negamax with alpha-beta pruning plus the standard
// forward-pruning/reduction suite: null-move pruning, reverse futility
// pruning, futility pruning, late move reductions and check extensions.
func (s *Searcher) negamax(depth, ply int, alpha, beta int, prevMove, excludedMove board.Move) int {
	// Check for stop signal periodically
	if s.nodes&4095 == 0 && s.stopFlag.Load() {
		return 0
	}

	s.nodes++
	if ply > s.selDepth {
		s.selDepth = ply
	}

	isPvNode := beta-alpha > 1
	isRoot := ply == 0

	// Initialize PV length for this ply
	s.pv.length[ply] = ply

	// Check for draw
	if ply > 0 && s.isDraw(ply) {
		return 0
	}

	if ply >= MaxPly-1 {
		return Evaluate(s.pos)
	}

	// Probe transposition table
	var ttMove board.Move
	if excludedMove == board.NoMove {
		ttEntry, found := s.tt.Probe(s.pos.Hash)
		if found {
			ttMove = ttEntry.BestMove
			if int(ttEntry.Depth) >= depth && !isPvNode {
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
	}

	// Quiescence search at depth 0
	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	inCheck := s.pos.InCheck()

	staticEval := 0
	if !inCheck {
		staticEval = Evaluate(s.pos)
		if s.corrHist != nil {
			staticEval += s.corrHist.Get(s.pos)
		}
	}

	// Reverse futility pruning: if static eval is already far above beta at
	// shallow depth, assume the position holds and cut.
	if !isPvNode && !inCheck && excludedMove == board.NoMove && depth <= rfpMaxDepth && ply > 0 {
		margin := rfpMarginPerDepth * depth
		if staticEval-margin >= beta {
			return staticEval - margin
		}
	}

	// Null move pruning: skip our move and see if the opponent still can't
	// beat beta from a worse position. Disabled in check, at shallow depth,
	// in pure pawn endgames (zugzwang risk), and to avoid doing it twice in a
	// row.
	if !isPvNode && !inCheck && excludedMove == board.NoMove && depth >= nullMoveMinDepth &&
		ply > 0 && prevMove != board.NoMove && s.pos.HasNonPawnMaterial() && staticEval >= beta {
		r := nullMoveBaseR + depth/6
		undo := s.pos.MakeNullMove()
		score := -s.negamax(depth-1-r, ply+1, -beta, -beta+1, board.NoMove, board.NoMove)
		s.pos.UnmakeNullMove(undo)

		if s.stopFlag.Load() {
			return 0
		}
		if score >= beta {
			if score > MateScore-MaxPly {
				score = beta
			}
			return score
		}
	}

	// Generate moves
	moves := s.pos.GenerateLegalMoves()

	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	// Check extension: searching one ply deeper when in check avoids
	// evaluating tactically unresolved positions at the horizon.
	extension := 0
	if inCheck {
		extension = checkExtension
	}

	// Score and sort moves
	scores := s.orderer.ScoreMovesWithCounter(s.pos, moves, ply, ttMove, prevMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound
	movesSearched := 0

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		if move == excludedMove {
			continue
		}
		if isRoot && s.isExcludedRoot(move) {
			continue
		}

		isCapture := move.IsCapture(s.pos)
		isPromotion := move.IsPromotion()
		isQuiet := !isCapture && !isPromotion

		// Futility pruning: a quiet move at shallow depth that can't plausibly
		// reach alpha even with a generous margin is skipped outright.
		if !isPvNode && !inCheck && isQuiet && depth <= futilityMaxDepth &&
			movesSearched > 0 && bestScore > -MateScore+MaxPly {
			if staticEval+futilityMargins[depth] <= alpha {
				continue
			}
		}

		s.undoStack[ply] = s.pos.MakeMove(move)
		if !s.undoStack[ply].Valid {
			continue
		}
		s.searchHistory[ply] = s.pos.Hash
		movesSearched++

		newDepth := depth - 1 + extension

		var score int
		if movesSearched == 1 {
			score = -s.negamax(newDepth, ply+1, -beta, -alpha, move, board.NoMove)
		} else {
			// Late move reduction: search later, quiet, non-critical moves to
			// a reduced depth first; re-search at full depth only if that
			// shallow search suggests the move might actually be good.
			reduction := 0
			if depth >= 3 && movesSearched > 3 && isQuiet && !inCheck {
				reduction = 1 + movesSearched/6
				if isPvNode {
					reduction--
				}
				if reduction < 0 {
					reduction = 0
				}
				if newDepth-reduction < 1 {
					reduction = newDepth - 1
				}
			}

			score = -s.negamax(newDepth-reduction, ply+1, -alpha-1, -alpha, move, board.NoMove)
			if score > alpha && reduction > 0 {
				score = -s.negamax(newDepth, ply+1, -alpha-1, -alpha, move, board.NoMove)
			}
			if score > alpha && score < beta {
				score = -s.negamax(newDepth, ply+1, -beta, -alpha, move, board.NoMove)
			}
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

		if score >= beta {
			if excludedMove == board.NoMove {
				s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, bestMove)
			}

			if isQuiet {
				s.orderer.UpdateKillers(move, ply)
				s.orderer.UpdateHistory(move, depth, true)
				if prevMove != board.NoMove {
					s.orderer.UpdateCounterMove(prevMove, move, s.pos)
				}
			}

			return score
		}
	}

	if movesSearched == 0 {
		// Every root move was excluded (MultiPV); nothing to report for
		// this node.
		return alpha
	}

	if excludedMove == board.NoMove {
		if !inCheck && s.corrHist != nil && bestScore > -MateScore+MaxPly && bestScore < MateScore-MaxPly {
			s.corrHist.Update(s.pos, bestScore, staticEval, depth)
		}
		s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)
	}

	return bestScore
}

// quiescence searches only captures to avoid horizon effect.
func (s *Searcher) quiescence(ply int, alpha, beta int) int {
	const maxQuiescencePly = 32
	if ply >= MaxPly || ply > maxQuiescencePly {
		return Evaluate(s.pos)
	}

	if s.stopFlag.Load() {
		return 0
	}

	s.nodes++
	if ply > s.selDepth {
		s.selDepth = ply
	}

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

	bigDelta := QueenValue
	if standPat+bigDelta < alpha {
		return alpha
	}

	moves := s.pos.GenerateCaptures()
	scores := s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		if !s.pos.InCheck() {
			var captureValue int
			if move.IsEnPassant() {
				captureValue = PawnValue
			} else {
				capturedPiece := s.pos.PieceAt(move.To())
				if capturedPiece != board.NoPiece {
					captureValue = pieceValues[capturedPiece.Type()]
				}
			}
			if move.IsPromotion() {
				captureValue += QueenValue - PawnValue
			}
			if standPat+captureValue+200 < alpha {
				continue
			}
			if SEE(s.pos, move) < 0 {
				continue
			}
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

// isDraw checks for draw by repetition (game history plus in-search path) or
// the 50-move rule / insufficient material.
func (s *Searcher) isDraw(ply int) bool {
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

// GetPV returns the principal variation from the last search.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	for i := 0; i < s.pv.length[0]; i++ {
		pv[i] = s.pv.moves[0][i]
	}
	return pv
}
