// Command chessplay-perft counts leaf nodes of the move generator from a
// given position, the standard correctness/speed check for a bitboard move
// generator. Divide output (per-root-move subtree counts) lets a mismatch
// against a known-good perft table be narrowed down to the offending move.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func main() {
	fen := flag.String("fen", startFEN, "FEN of the position to run perft from")
	depth := flag.Int("depth", 5, "perft depth")
	divide := flag.Bool("divide", false, "print per-root-move subtree counts (perft divide)")
	flag.Parse()

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid FEN: %v\n", err)
		os.Exit(1)
	}

	if *divide {
		runDivide(pos, *depth)
		return
	}

	start := time.Now()
	nodes := engine.Perft(pos, *depth)
	elapsed := time.Since(start)

	nps := uint64(0)
	if secs := elapsed.Seconds(); secs > 0 {
		nps = uint64(float64(nodes) / secs)
	}
	fmt.Printf("depth %d: %d nodes in %s (%d nps)\n", *depth, nodes, elapsed, nps)
}

// runDivide prints, for each legal root move, the perft count of the
// resulting subtree at depth-1, then the grand total — the classic way to
// isolate a move generator bug against a reference implementation.
func runDivide(pos *board.Position, depth int) {
	if depth < 1 {
		fmt.Println("divide requires depth >= 1")
		return
	}

	moves := pos.GenerateLegalMoves()
	var total uint64
	start := time.Now()
	for _, m := range moves.Slice() {
		undo := pos.MakeMove(m)
		var subNodes uint64
		if depth == 1 {
			subNodes = 1
		} else {
			subNodes = engine.Perft(pos, depth-1)
		}
		pos.UnmakeMove(m, undo)

		fmt.Printf("%s: %d\n", m.String(), subNodes)
		total += subNodes
	}
	elapsed := time.Since(start)
	fmt.Printf("\nmoves: %d\ntotal: %d nodes in %s\n", moves.Len(), total, elapsed)
}
