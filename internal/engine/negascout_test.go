package engine

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

func newNegaScoutSearcher() *NegaScoutSearcher {
	tt := NewTranspositionTable(4)
	pawnTable := NewPawnTable(1)
	corrHist := NewCorrectionHistory()
	return NewNegaScoutSearcher(tt, pawnTable, corrHist)
}

func TestNegaScoutFindsMateInOne(t *testing.T) {
	// Ra8# is the only mate.
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	s := newNegaScoutSearcher()
	move, score := SearchNegaScout(s, pos, 3)

	if move == board.NoMove {
		t.Fatal("NegaScout returned NoMove")
	}
	if score < MateScore-10 {
		t.Errorf("expected near-mate score, got %d for move %s", score, move)
	}
}

func TestNegaScoutBasicSearch(t *testing.T) {
	pos := board.NewPosition()
	s := newNegaScoutSearcher()

	move, _ := SearchNegaScout(s, pos, 4)
	if move == board.NoMove {
		t.Error("NegaScout returned NoMove for starting position")
	}
	if s.Nodes() == 0 {
		t.Error("expected NegaScout to visit at least one node")
	}
}
