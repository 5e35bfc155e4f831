package epd

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
)

// Result is the outcome of solving a single EPD position.
type Result struct {
	Position Position
	Move     board.Move
	Score    int
	Elapsed  time.Duration
	Passed   bool
	Err      error
}

// RunOptions controls how each position is solved.
type RunOptions struct {
	Limits      engine.SearchLimits
	Concurrency int // 0 defaults to 1 (sequential)
	TTSizeMB    int // transposition table size per worker engine, 0 defaults to 16
}

// Run solves every position in positions concurrently (bounded by
// opts.Concurrency) and checks each result against its bm/am assertions.
// Each position gets its own *engine.Engine: Engine's transposition table,
// move orderer and search history are not safe for concurrent reuse, and an
// EPD suite's positions are independent solves by construction, so no
// shared state is needed between them — this is the one place in the
// engine's design where running several searches at once is legitimate.
func Run(ctx context.Context, positions []Position, opts RunOptions) ([]Result, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	ttSize := opts.TTSizeMB
	if ttSize <= 0 {
		ttSize = 16
	}

	results := make([]Result, len(positions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, p := range positions {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = solveOne(p, ttSize, opts.Limits)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func solveOne(p Position, ttSizeMB int, limits engine.SearchLimits) Result {
	pos, err := board.ParseFEN(p.FEN)
	if err != nil {
		return Result{Position: p, Err: fmt.Errorf("parse FEN: %w", err)}
	}

	eng := engine.NewEngine(ttSizeMB)

	start := time.Now()
	move := eng.SearchWithLimits(pos, limits)
	elapsed := time.Since(start)

	score := eng.Evaluate(pos)

	res := Result{
		Position: p,
		Move:     move,
		Score:    score,
		Elapsed:  elapsed,
		Passed:   true,
	}

	if p.BestMove != "" {
		expected, err := board.ParseSAN(p.BestMove, pos)
		if err != nil {
			res.Err = fmt.Errorf("parse bm %q: %w", p.BestMove, err)
			res.Passed = false
			return res
		}
		res.Passed = move == expected
	}

	for _, am := range p.AvoidMoves {
		avoid, err := board.ParseSAN(am, pos)
		if err != nil {
			continue
		}
		if move == avoid {
			res.Passed = false
		}
	}

	return res
}

// Summary tallies pass/fail counts across a batch of Results.
type Summary struct {
	Total  int
	Passed int
	Failed int
	Errors int
}

// Summarize aggregates Results into a Summary.
func Summarize(results []Result) Summary {
	var s Summary
	s.Total = len(results)
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Errors++
		case r.Passed:
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}
