package engine

import (
	"testing"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

func TestClassicMCTSBasic(t *testing.T) {
	pos := board.NewPosition()
	s := NewMCTSSearcher(false)

	move, _, simulations := s.Search(pos, MCTSBudget{Iterations: 500}, nil)
	if move == board.NoMove {
		t.Fatal("classic MCTS returned NoMove for starting position")
	}
	if simulations == 0 {
		t.Error("expected at least one simulation")
	}
}

func TestEvalMCTSFindsMateInOne(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	s := NewMCTSSearcher(true)
	move, _, _ := s.Search(pos, MCTSBudget{Iterations: 20000}, nil)
	if move == board.NoMove {
		t.Fatal("eval-guided MCTS returned NoMove")
	}
	if move.String() != "a1a8" {
		t.Errorf("expected Ra8# (a1a8), got %s", move.String())
	}
}

func TestMCTSRespectsTimeLimit(t *testing.T) {
	pos := board.NewPosition()
	s := NewMCTSSearcher(false)

	start := time.Now()
	move, _, _ := s.Search(pos, MCTSBudget{Iterations: 10_000_000, TimeLimit: 100 * time.Millisecond}, nil)
	elapsed := time.Since(start)

	if move == board.NoMove {
		t.Error("expected a move within the time budget")
	}
	if elapsed > time.Second {
		t.Errorf("search ran far past its time budget: %v", elapsed)
	}
}
