// Command chessplay-bench compares the engine's search algorithms
// (AlphaBeta, NegaScout, MTD(f), and the two MCTS variants) against a fixed
// suite of positions, reporting nodes searched, time, nodes-per-second and
// the move/score each algorithm settled on. It is the Go counterpart of the
// original engine's cross-algorithm benchmark harness: the same position run
// through independently-derived search algorithms should mostly agree on the
// best move, and divergences are worth a human look.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/epd"
)

// benchPositions is the default fixed suite: a spread across game phases
// (opening, middlegame, endgame, tactical) so slow algorithms can't hide
// behind one easy position.
var benchPositions = []struct {
	id  string
	fen string
}{
	{"startpos", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"},
	{"endgame-rook", "8/8/8/8/8/5k2/5P2/5K1R w - - 0 1"},
	{"mate-in-1", "r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4"},
}

var algorithms = []engine.Algorithm{
	engine.AlgoAlphaBeta,
	engine.AlgoNegaScout,
	engine.AlgoMTDF,
	engine.AlgoMCTSClassic,
	engine.AlgoMCTSEval,
}

func main() {
	depth := flag.Int("depth", 6, "search depth for AlphaBeta/NegaScout/MTD(f); MCTS ignores it and runs to its default iteration cap or -movetime")
	moveTime := flag.Duration("movetime", 5*time.Second, "per-search time cap")
	ttMB := flag.Int("hash", 64, "transposition table size in MB")
	suitePath := flag.String("suite", "", "optional EPD file of extra positions to benchmark (bm/am ignored, position only)")
	csvPath := flag.String("csv", "", "optional path to write results as CSV")
	flag.Parse()

	positions := benchPositions
	var extra []struct{ id, fen string }
	if *suitePath != "" {
		loaded, err := epd.LoadFile(*suitePath, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading suite: %v\n", err)
			os.Exit(1)
		}
		for i, p := range loaded {
			id := p.ID
			if id == "" {
				id = fmt.Sprintf("suite-%d", i+1)
			}
			extra = append(extra, struct{ id, fen string }{id, p.FEN})
		}
	}

	var results []benchResult
	for _, p := range positions {
		results = append(results, runPosition(p.id, p.fen, *depth, *moveTime, *ttMB)...)
	}
	for _, p := range extra {
		results = append(results, runPosition(p.id, p.fen, *depth, *moveTime, *ttMB)...)
	}

	printTable(results)

	if *csvPath != "" {
		if err := writeCSV(*csvPath, results); err != nil {
			fmt.Fprintf(os.Stderr, "writing CSV: %v\n", err)
			os.Exit(1)
		}
	}
}

type benchResult struct {
	positionID string
	algorithm  string
	depth      int
	nodes      uint64
	elapsed    time.Duration
	bestMove   string
	score      int
}

func (r benchResult) nps() uint64 {
	secs := r.elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return uint64(float64(r.nodes) / secs)
}

func runPosition(id, fen string, depth int, moveTime time.Duration, ttMB int) []benchResult {
	var out []benchResult
	for _, algo := range algorithms {
		eng := engine.NewEngine(ttMB)
		eng.SetAlgorithm(algo)

		var last engine.SearchInfo
		eng.OnInfo = func(info engine.SearchInfo) { last = info }

		pos, err := board.ParseFEN(fen)
		if err != nil {
			fmt.Fprintf(os.Stderr, "position %s: %v\n", id, err)
			continue
		}

		limits := engine.SearchLimits{Depth: depth, MoveTime: moveTime}
		start := time.Now()
		move := eng.SearchWithLimits(pos, limits)
		elapsed := time.Since(start)

		out = append(out, benchResult{
			positionID: id,
			algorithm:  algo.String(),
			depth:      last.Depth,
			nodes:      last.Nodes,
			elapsed:    elapsed,
			bestMove:   move.String(),
			score:      last.Score,
		})
	}
	return out
}

func printTable(results []benchResult) {
	fmt.Printf("%-14s %-11s %5s %10s %10s %10s %8s %6s\n",
		"Position", "Algorithm", "Depth", "Nodes", "Time(ms)", "NPS", "BestMv", "Score")
	fmt.Println(strings.Repeat("-", 90))

	lastPos := ""
	for _, r := range results {
		pos := r.positionID
		if pos == lastPos {
			pos = ""
		} else {
			lastPos = r.positionID
		}
		fmt.Printf("%-14s %-11s %5d %10d %10.0f %10d %8s %6d\n",
			pos, r.algorithm, r.depth, r.nodes, r.elapsed.Seconds()*1000, r.nps(), r.bestMove, r.score)
	}
}

func writeCSV(path string, results []benchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "position,algorithm,depth,nodes,time_ms,nps,best_move,score"); err != nil {
		return err
	}
	for _, r := range results {
		_, err := fmt.Fprintf(f, "%s,%s,%d,%d,%.3f,%d,%s,%d\n",
			r.positionID, r.algorithm, r.depth, r.nodes, r.elapsed.Seconds()*1000, r.nps(), r.bestMove, r.score)
		if err != nil {
			return err
		}
	}
	return nil
}
