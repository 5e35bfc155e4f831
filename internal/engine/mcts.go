package engine

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// mctsExplorationConstant is the UCB1 exploration term's weight, sqrt(2).
const mctsExplorationConstant = 1.414

// maxPlayoutMoves bounds a classic random playout; a game that hasn't ended
// by then is scored as a draw.
const maxPlayoutMoves = 200

// mctsNode is one node of the search tree: a position reached by mv (NoMove
// at the root), its explored children, and the moves not yet expanded.
type mctsNode struct {
	mv           board.Move
	children     []*mctsNode
	visits       int
	totalValue   float64
	untriedMoves []board.Move
}

func newMCTSNode(mv board.Move, untried []board.Move) *mctsNode {
	return &mctsNode{mv: mv, untriedMoves: untried}
}

func (n *mctsNode) averageValue() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.totalValue / float64(n.visits)
}

// ucb1 scores n as a candidate child of a node with parentVisits visits.
// Unvisited children are always preferred (+Inf) so every move gets at
// least one sample before exploitation kicks in.
func (n *mctsNode) ucb1(parentVisits int, c float64) float64 {
	if n.visits == 0 {
		return math.Inf(1)
	}
	exploitation := -n.averageValue()
	exploration := c * math.Sqrt(math.Log(float64(parentVisits))/float64(n.visits))
	return exploitation + exploration
}

func (n *mctsNode) selectChild(c float64) *mctsNode {
	if len(n.children) == 0 {
		return nil
	}
	best := n.children[0]
	bestUCB := math.Inf(-1)
	for _, child := range n.children {
		ucb := child.ucb1(n.visits, c)
		if ucb > bestUCB {
			bestUCB = ucb
			best = child
		}
	}
	return best
}

func (n *mctsNode) bestChildByVisits() *mctsNode {
	if len(n.children) == 0 {
		return nil
	}
	best := n.children[0]
	for _, child := range n.children {
		if child.visits > best.visits {
			best = child
		}
	}
	return best
}

// expand detaches untried move idx and adds it as a new child node.
func (n *mctsNode) expand(idx int, childMoves []board.Move) *mctsNode {
	mv := n.untriedMoves[idx]
	last := len(n.untriedMoves) - 1
	n.untriedMoves[idx] = n.untriedMoves[last]
	n.untriedMoves = n.untriedMoves[:last]

	child := newMCTSNode(mv, childMoves)
	n.children = append(n.children, child)
	return child
}

func (n *mctsNode) backpropagate(value float64) {
	n.visits++
	n.totalValue += value
}

// MCTSBudget bounds one MCTS search by node visits and/or wall time,
// whichever is exhausted first. Iterations caps the number of tree nodes
// visited (each iteration visits one node per ply of its path), not the
// number of iterations.
type MCTSBudget struct {
	Iterations int
	TimeLimit  time.Duration
}

// MCTSInfo is a progress snapshot reported periodically during search.
type MCTSInfo struct {
	Depth       int
	Score       int
	Simulations int
	Elapsed     time.Duration
	BestMove    board.Move
}

// MCTSSearcher runs Monte Carlo Tree Search: either classic random playouts
// to terminal positions (useEval=false, a theoretical baseline) or playouts
// truncated to one ply and scored by the static evaluator, converted to a
// win probability via a logistic curve (useEval=true). Both share the same
// UCB1 selection and node bookkeeping in mctsNode.
type MCTSSearcher struct {
	useEval   bool
	pawnTable *PawnTable
	rng       *rand.Rand
	nodes     uint64
	stopFlag  atomic.Bool

	startTime time.Time
	hardLimit time.Duration
	nodeLimit int
}

// NewMCTSSearcher creates an MCTS searcher. useEval selects the
// evaluation-guided variant over classic random playouts.
func NewMCTSSearcher(useEval bool) *MCTSSearcher {
	return &MCTSSearcher{
		useEval: useEval,
		rng:     rand.New(rand.NewSource(1)),
	}
}

// SetPawnTable wires a shared pawn hash table into the evaluation-guided
// variant's static evaluation calls.
func (s *MCTSSearcher) SetPawnTable(pt *PawnTable) { s.pawnTable = pt }

func (s *MCTSSearcher) Stop() { s.stopFlag.Store(true) }

func (s *MCTSSearcher) shouldStop() bool {
	if s.stopFlag.Load() {
		return true
	}
	if !s.startTime.IsZero() && s.hardLimit > 0 && time.Since(s.startTime) >= s.hardLimit {
		return true
	}
	if s.nodeLimit > 0 && int(s.nodes) >= s.nodeLimit {
		return true
	}
	return false
}

// Search runs MCTS from pos until budget is exhausted and returns the most
// visited root move, its score (converted from win probability to
// centipawns), and the total number of simulations run.
func (s *MCTSSearcher) Search(pos *board.Position, budget MCTSBudget, onInfo func(MCTSInfo)) (board.Move, int, int) {
	s.stopFlag.Store(false)
	s.nodes = 0
	s.startTime = time.Now()
	s.hardLimit = budget.TimeLimit
	s.nodeLimit = budget.Iterations

	legalMoves := pos.GenerateLegalMoves().Slice()
	if len(legalMoves) == 0 {
		score := 0
		if pos.InCheck() {
			score = -MateScore
		}
		return board.NoMove, score, 0
	}
	if len(legalMoves) == 1 {
		return legalMoves[0], 0, 1
	}

	fallback := legalMoves[0]
	untried := make([]board.Move, len(legalMoves))
	copy(untried, legalMoves)
	root := newMCTSNode(board.NoMove, untried)

	const minIterations = 10
	reportEvery := 1000
	iteration := 0
	lastReport := s.startTime

	for {
		if iteration >= minIterations && s.shouldStop() {
			break
		}

		search := pos.Copy()
		s.runIteration(root, search)
		iteration++

		if iteration%reportEvery == 0 && time.Since(lastReport) >= time.Second {
			lastReport = time.Now()
			if best := root.bestChildByVisits(); best != nil && onInfo != nil {
				onInfo(MCTSInfo{
					Depth:       int(math.Ceil(math.Log2(float64(root.visits + 1)))),
					Score:       s.valueToScore(-best.averageValue()),
					Simulations: iteration,
					Elapsed:     time.Since(s.startTime),
					BestMove:    best.mv,
				})
			}
		}
	}

	best := root.bestChildByVisits()
	if best == nil {
		if len(root.untriedMoves) > 0 {
			return root.untriedMoves[0], 0, iteration
		}
		return fallback, 0, iteration
	}

	score := s.valueToScore(-best.averageValue())
	if onInfo != nil {
		onInfo(MCTSInfo{
			Depth:       int(math.Ceil(math.Log2(float64(root.visits + 1)))),
			Score:       score,
			Simulations: iteration,
			Elapsed:     time.Since(s.startTime),
			BestMove:    best.mv,
		})
	}
	return best.mv, score, iteration
}

// runIteration performs one selection/expansion/simulation/backpropagation
// pass starting at node, whose position is pos (mutated in place via
// make/unmake, matching the rest of the engine's node-walking style).
// Returns the value recorded at node, from the perspective of node's side to
// move; the caller negates it before recording it at the parent.
func (s *MCTSSearcher) runIteration(node *mctsNode, pos *board.Position) float64 {
	s.nodes++
	if s.nodes%64 == 0 && s.shouldStop() {
		return 0
	}

	if len(node.untriedMoves) > 0 {
		idx := s.rng.Intn(len(node.untriedMoves))
		mv := node.untriedMoves[idx]

		undo := pos.MakeMove(mv)
		childMoves := pos.GenerateLegalMoves().Slice()
		childMovesCopy := make([]board.Move, len(childMoves))
		copy(childMovesCopy, childMoves)

		child := node.expand(idx, childMovesCopy)
		value := s.evaluateLeaf(pos)
		pos.UnmakeMove(mv, undo)

		child.backpropagate(value)
		parentValue := -value
		node.backpropagate(parentValue)
		return parentValue
	}

	if len(node.children) == 0 {
		value := s.evaluateLeaf(pos)
		node.backpropagate(value)
		return value
	}

	child := node.selectChild(mctsExplorationConstant)
	undo := pos.MakeMove(child.mv)
	childValue := s.runIteration(child, pos)
	pos.UnmakeMove(child.mv, undo)

	value := -childValue
	node.backpropagate(value)
	return value
}

// evaluateLeaf scores pos from the side-to-move's perspective as a value in
// [-1, 1]: either by playing a random game to completion (classic MCTS) or
// by converting the static evaluation to a win probability via a logistic
// curve (evaluation-guided MCTS).
func (s *MCTSSearcher) evaluateLeaf(pos *board.Position) float64 {
	if s.useEval {
		if !pos.HasLegalMoves() {
			if pos.InCheck() {
				return -1
			}
			return 0
		}
		return s.scoreToWinProbability(s.staticEval(pos))
	}
	return s.randomPlayout(pos)
}

func (s *MCTSSearcher) staticEval(pos *board.Position) int {
	if s.pawnTable != nil {
		return EvaluateWithPawnTable(pos, s.pawnTable)
	}
	return Evaluate(pos)
}

// randomPlayout plays uniformly-random legal moves from pos (on a private
// copy) until the game ends or maxPlayoutMoves is reached, returning the
// result from the perspective of the side to move in pos.
func (s *MCTSSearcher) randomPlayout(pos *board.Position) float64 {
	game := pos.Copy()
	original := game.SideToMove

	for i := 0; i < maxPlayoutMoves; i++ {
		if i%16 == 0 && s.shouldStop() {
			return 0
		}

		moves := game.GenerateLegalMoves()
		if moves.Len() == 0 {
			if game.InCheck() {
				if game.SideToMove == original {
					return -1
				}
				return 1
			}
			return 0
		}
		if game.IsDraw() {
			return 0
		}

		mv := moves.Get(s.rng.Intn(moves.Len()))
		game.MakeMove(mv)
	}
	return 0
}

// scoreToWinProbability maps a centipawn score to a win probability in
// [-1, 1] using the standard logistic curve (400 centipawns ~= 10x odds).
func (s *MCTSSearcher) scoreToWinProbability(score int) float64 {
	winProb := 1.0 / (1.0 + math.Pow(10, -float64(score)/400.0))
	return 2*winProb - 1
}

// valueToScore inverts scoreToWinProbability, converting an MCTS value back
// to a centipawn score for UCI reporting.
func (s *MCTSSearcher) valueToScore(value float64) int {
	winProb := (value + 1) / 2
	if winProb < 0.001 {
		winProb = 0.001
	}
	if winProb > 0.999 {
		winProb = 0.999
	}
	return int(-400.0 * math.Log10(1.0/winProb-1.0))
}
