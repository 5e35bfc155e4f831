package engine

import (
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/book"
)

// SearchInfo reports progress during an iterative-deepening search, sent to
// Engine.OnInfo after each completed depth.
type SearchInfo struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Infinite bool          // Search until stopped
	MultiPV  int           // Number of principal variations to find (0 or 1 = single best move)
}

// SearchResult contains the result of a single PV search.
type SearchResult struct {
	Move  board.Move
	Score int
	PV    []board.Move
	Depth int
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // ~2-3 ply, 500ms
	Medium                   // depth 7, 1s
	Hard                     // Maximum strength (depth 40), 3s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 7, MoveTime: 1 * time.Second},
	Hard:   {Depth: 40, MoveTime: 3 * time.Second}, // Max strength (time-limited)
}

// Algorithm selects which search variant Engine.Search/SearchWithUCILimits
// runs. AlphaBeta is the default; the others exist to satisfy the engine's
// cross-algorithm validation scenarios (same position, independently-derived
// moves/scores that should largely agree) and the UCI Algorithm option.
type Algorithm int

const (
	AlgoAlphaBeta Algorithm = iota
	AlgoNegaScout
	AlgoMTDF
	AlgoMCTSClassic
	AlgoMCTSEval
)

func (a Algorithm) String() string {
	switch a {
	case AlgoNegaScout:
		return "NegaScout"
	case AlgoMTDF:
		return "MTD(f)"
	case AlgoMCTSClassic:
		return "MCTS-Classic"
	case AlgoMCTSEval:
		return "MCTS-Eval"
	default:
		return "AlphaBeta"
	}
}

// Engine is the chess AI engine. Search is single-threaded and cooperative:
// one goroutine runs iterative deepening and polls a stop flag, there is no
// Lazy-SMP worker pool. Threads is therefore always 1, matching the UCI
// Threads option exposed by internal/uci.
type Engine struct {
	tt        *TranspositionTable
	pawnTable *PawnTable
	corrHist  *CorrectionHistory
	searcher  *Searcher

	difficulty Difficulty
	algorithm  Algorithm
	book       *book.Book

	rootPosHashes []uint64

	OnInfo func(SearchInfo)
}

// NewEngine creates a new engine with a transposition table of the given size.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	pawnTable := NewPawnTable(4)
	corrHist := NewCorrectionHistory()

	return &Engine{
		tt:        tt,
		pawnTable: pawnTable,
		corrHist:  corrHist,
		searcher:  NewSearcher(tt, pawnTable, corrHist),
		algorithm: AlgoAlphaBeta,
	}
}

// SetDifficulty sets the AI difficulty level.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// SetAlgorithm selects the search variant used by Search/SearchWithUCILimits.
func (e *Engine) SetAlgorithm(a Algorithm) {
	e.algorithm = a
}

// Algorithm returns the currently selected search variant.
func (e *Engine) Algorithm() Algorithm {
	return e.algorithm
}

// CorrectionSnapshot returns a copy of the correction-history table for
// persistence (see internal/store) across process restarts.
func (e *Engine) CorrectionSnapshot() []int16 {
	return e.corrHist.Snapshot()
}

// RestoreCorrectionHistory loads a correction-history table previously
// returned by CorrectionSnapshot.
func (e *Engine) RestoreCorrectionHistory(data []int16) {
	e.corrHist.Restore(data)
}

// LoadBook loads a Polyglot opening book from a file.
func (e *Engine) LoadBook(path string) error {
	b, err := book.LoadPolyglot(path)
	if err != nil {
		return err
	}
	e.book = b
	return nil
}

// SetBook sets the opening book directly (used by tests).
func (e *Engine) SetBook(b *book.Book) {
	e.book = b
}

// HasBook reports whether an opening book is loaded.
func (e *Engine) HasBook() bool {
	return e.book != nil
}

// SetPositionHistory records the game's position hashes up to (and
// including) the search root, for repetition detection that spans outside
// the search tree.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.rootPosHashes = hashes
	e.searcher.SetRootHistory(hashes)
}

// Search runs a search bounded by the engine's configured difficulty and
// returns the best move. Used by difficulty-based play.
func (e *Engine) Search(pos *board.Position) board.Move {
	if move, ok := e.probeBook(pos); ok {
		return move
	}
	limits := DifficultySettings[e.difficulty]
	move, _, _, _ := e.iterativeDeepen(pos, limits, nil)
	return move
}

// SearchWithLimits runs a time/depth/node-bounded search and returns the
// best move found.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	if move, ok := e.probeBook(pos); ok {
		return move
	}
	move, _, _, _ := e.iterativeDeepen(pos, limits, nil)
	return move
}

// SearchWithUCILimits runs a search governed by UCI "go" parameters (time
// left, increment, moves-to-go) via TimeManager, and streams SearchInfo
// through OnInfo as each depth completes.
func (e *Engine) SearchWithUCILimits(pos *board.Position, uciLimits UCILimits) board.Move {
	if move, ok := e.probeBook(pos); ok {
		return move
	}

	tm := NewTimeManager()
	tm.Init(uciLimits, pos.SideToMove, pos.FullMoveNumber*2)

	limits := SearchLimits{
		Depth:    uciLimits.Depth,
		Nodes:    uciLimits.Nodes,
		Infinite: uciLimits.Infinite,
	}
	if uciLimits.MoveTime > 0 {
		limits.MoveTime = uciLimits.MoveTime
	} else if !uciLimits.Infinite {
		limits.MoveTime = tm.MaximumTime()
	}

	move, _, _, _ := e.iterativeDeepen(pos, limits, tm)
	return move
}

// iterativeDeepen runs the selected algorithm's iterative-deepening loop and
// reports progress via OnInfo. tm may be nil (plain depth/movetime search).
func (e *Engine) iterativeDeepen(pos *board.Position, limits SearchLimits, tm *TimeManager) (board.Move, int, []board.Move, int) {
	if moves := pos.GenerateLegalMoves(); moves.Len() == 1 {
		// Nothing to deepen into: report depth 1 and stop immediately rather
		// than burning the full time budget on a forced move.
		only := moves.Get(0)
		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{Depth: 1, Score: 0, PV: []board.Move{only}})
		}
		return only, 0, []board.Move{only}, 1
	}

	switch e.algorithm {
	case AlgoNegaScout:
		return e.iterativeDeepenWith(pos, limits, tm, SearchNegaScout)
	case AlgoMTDF:
		return e.iterativeDeepenMTDF(pos, limits, tm)
	case AlgoMCTSClassic:
		return e.searchMCTS(pos, limits, tm, false)
	case AlgoMCTSEval:
		return e.searchMCTS(pos, limits, tm, true)
	default:
		return e.iterativeDeepenAlphaBeta(pos, limits, tm)
	}
}

// iterativeDeepenAlphaBeta drives the Searcher through successively deeper
// fixed-depth passes using aspiration windows around the previous score,
// stopping on the caller's limits (depth, nodes, move time, or an external
// Stop()).
func (e *Engine) iterativeDeepenAlphaBeta(pos *board.Position, limits SearchLimits, tm *TimeManager) (board.Move, int, []board.Move, int) {
	e.searcher.Reset()
	e.tt.NewSearch()

	start := time.Now()
	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth > MaxPly-1 {
		maxDepth = MaxPly - 1
	}

	var bestMove board.Move
	var bestScore int
	var bestPV []board.Move
	var stability int
	lastBestMove := board.NoMove

	for depth := 1; depth <= maxDepth; depth++ {
		var move board.Move
		var score int
		if depth <= 2 {
			move, score = e.searcher.Search(pos, depth)
		} else {
			move, score = e.searcher.SearchAspiration(pos, depth, bestScore)
		}

		if e.searcher.IsStopped() && depth > 1 {
			break
		}

		bestMove = move
		bestScore = score
		bestPV = e.searcher.GetPV()

		if move == lastBestMove {
			stability++
		} else {
			stability = 0
		}
		lastBestMove = move

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				SelDepth: e.searcher.SelDepth(),
				Score:    score,
				Nodes:    e.searcher.Nodes(),
				Time:     time.Since(start),
				PV:       bestPV,
				HashFull: e.tt.HashFull(),
			})
		}

		if limits.Nodes > 0 && e.searcher.Nodes() >= limits.Nodes {
			break
		}

		if tm != nil {
			tm.AdjustForStability(stability)
			if tm.ShouldStop() {
				break
			}
		} else if limits.MoveTime > 0 && time.Since(start) >= limits.MoveTime {
			break
		}

		if score > MateScore-MaxPly || score < -MateScore+MaxPly {
			break
		}
	}

	return bestMove, bestScore, bestPV, maxDepth
}

// iterativeDeepenWith runs iterative deepening with a fresh NegaScoutSearcher,
// calling searchFn once per depth; it repeats the depth/time/node stopping
// logic of iterativeDeepenAlphaBeta for the NegaScout variant.
func (e *Engine) iterativeDeepenWith(pos *board.Position, limits SearchLimits, tm *TimeManager, searchFn func(*NegaScoutSearcher, *board.Position, int) (board.Move, int)) (board.Move, int, []board.Move, int) {
	ns := NewNegaScoutSearcher(e.tt, e.pawnTable, e.corrHist)
	ns.SetRootHistory(e.rootPosHashes)

	start := time.Now()
	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth > MaxPly-1 {
		maxDepth = MaxPly - 1
	}

	var bestMove board.Move
	var bestScore int
	var bestPV []board.Move

	for depth := 1; depth <= maxDepth; depth++ {
		move, score := searchFn(ns, pos, depth)
		if ns.IsStopped() && depth > 1 {
			break
		}

		bestMove = move
		bestScore = score
		bestPV = ns.GetPV()

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth: depth, SelDepth: ns.SelDepth(), Score: score,
				Nodes: ns.Nodes(), Time: time.Since(start), PV: bestPV,
				HashFull: e.tt.HashFull(),
			})
		}

		if limits.Nodes > 0 && ns.Nodes() >= limits.Nodes {
			break
		}
		if tm != nil && tm.ShouldStop() {
			break
		} else if tm == nil && limits.MoveTime > 0 && time.Since(start) >= limits.MoveTime {
			break
		}
		if score > MateScore-MaxPly || score < -MateScore+MaxPly {
			break
		}
	}

	return bestMove, bestScore, bestPV, maxDepth
}

// iterativeDeepenMTDF drives SearchMTDF through successive depths, reusing
// the previous depth's score as MTD(f)'s first guess.
func (e *Engine) iterativeDeepenMTDF(pos *board.Position, limits SearchLimits, tm *TimeManager) (board.Move, int, []board.Move, int) {
	ns := NewNegaScoutSearcher(e.tt, e.pawnTable, e.corrHist)
	ns.SetRootHistory(e.rootPosHashes)

	start := time.Now()
	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth > MaxPly-1 {
		maxDepth = MaxPly - 1
	}

	var bestMove board.Move
	var bestScore int
	var bestPV []board.Move
	firstGuess := 0

	for depth := 1; depth <= maxDepth; depth++ {
		move, score := SearchMTDF(ns, pos, depth, firstGuess)
		if ns.IsStopped() && depth > 1 {
			break
		}

		firstGuess = score
		bestMove = move
		bestScore = score
		bestPV = ns.GetPV()

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth: depth, SelDepth: ns.SelDepth(), Score: score,
				Nodes: ns.Nodes(), Time: time.Since(start), PV: bestPV,
				HashFull: e.tt.HashFull(),
			})
		}

		if limits.Nodes > 0 && ns.Nodes() >= limits.Nodes {
			break
		}
		if tm != nil && tm.ShouldStop() {
			break
		} else if tm == nil && limits.MoveTime > 0 && time.Since(start) >= limits.MoveTime {
			break
		}
	}

	return bestMove, bestScore, bestPV, maxDepth
}

// searchMCTS runs the Monte Carlo Tree Search variant for a fixed time/node
// budget rather than a fixed depth, since MCTS iterations don't correspond
// to ply depth.
func (e *Engine) searchMCTS(pos *board.Position, limits SearchLimits, tm *TimeManager, useEval bool) (board.Move, int, []board.Move, int) {
	budget := MCTSBudget{Iterations: 100000}
	if limits.Nodes > 0 {
		budget.Iterations = int(limits.Nodes)
	}
	if tm != nil {
		budget.TimeLimit = tm.MaximumTime()
	} else if limits.MoveTime > 0 {
		budget.TimeLimit = limits.MoveTime
	} else {
		budget.TimeLimit = 2 * time.Second
	}

	mcts := NewMCTSSearcher(useEval)
	move, score, visits := mcts.Search(pos, budget, func(info MCTSInfo) {
		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth: info.Depth, Score: info.Score, Nodes: uint64(info.Simulations),
				Time: info.Elapsed, PV: []board.Move{info.BestMove},
			})
		}
	})

	return move, score, []board.Move{move}, visits
}

// probeBook returns a book move for pos if one is loaded and a move matches.
func (e *Engine) probeBook(pos *board.Position) (board.Move, bool) {
	if e.book == nil {
		return board.NoMove, false
	}
	return e.book.Probe(pos)
}

// SearchMultiPV finds multiple best moves (principal variations) for
// analysis, by repeatedly running the single-threaded searcher with the
// previously found root moves excluded.
func (e *Engine) SearchMultiPV(pos *board.Position, limits SearchLimits) []SearchResult {
	numPV := limits.MultiPV
	if numPV <= 0 {
		numPV = 1
	}

	results := make([]SearchResult, 0, numPV)
	excludedMoves := make([]board.Move, 0, numPV)

	for i := 0; i < numPV; i++ {
		move, score, pv, depth := e.searchWithExclusions(pos, limits, excludedMoves)
		if move == board.NoMove {
			break
		}

		results = append(results, SearchResult{
			Move:  move,
			Score: score,
			PV:    pv,
			Depth: depth,
		})

		excludedMoves = append(excludedMoves, move)
	}

	e.searcher.SetExcludedMoves(nil)
	return results
}

// searchWithExclusions runs one PV line of SearchMultiPV, excluding the
// already-reported root moves.
func (e *Engine) searchWithExclusions(pos *board.Position, limits SearchLimits, excluded []board.Move) (board.Move, int, []board.Move, int) {
	e.searcher.SetExcludedMoves(excluded)
	defer e.searcher.SetExcludedMoves(nil)
	return e.iterativeDeepenAlphaBeta(pos, limits, nil)
}

// Stop signals the engine's AlphaBeta searcher (also used for MultiPV) to stop
// as soon as it next polls. NegaScout, MTD(f) and MCTS searches run on
// searchers local to their driver and are not reached by Stop.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Clear resets the transposition table, pawn hash table, correction history
// and move-ordering tables for a new game.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.pawnTable.Clear()
	e.corrHist.Clear()
	e.searcher.ClearOrderer()
}

// Perft counts leaf nodes at the given depth, for move generator validation.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	return Perft(pos, depth)
}

// Evaluate returns the static evaluation of pos from the side to move's perspective.
func (e *Engine) Evaluate(pos *board.Position) int {
	return EvaluateWithPawnTable(pos, e.pawnTable)
}

// ScoreToString formats a score for display, using "#N" for mate distances.
func ScoreToString(score int) string {
	if score > MateScore-MaxPly {
		return "#" + itoa((MateScore-score+1)/2)
	}
	if score < -MateScore+MaxPly {
		return "#-" + itoa((MateScore+score+1)/2)
	}
	return itoa(score)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Perft performs a move-generation-correctness node count at the given
// depth: it recursively makes every legal move and counts leaf positions,
// exercising make/unmake and legality filtering exhaustively.
func Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		if undo.Valid {
			nodes += Perft(pos, depth-1)
		}
		pos.UnmakeMove(move, undo)
	}
	return nodes
}
