package engine

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

func TestMTDFFindsMateInOne(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	tt := NewTranspositionTable(4)
	pawnTable := NewPawnTable(1)
	corrHist := NewCorrectionHistory()
	s := NewNegaScoutSearcher(tt, pawnTable, corrHist)

	move, score := SearchMTDF(s, pos, 3, 0)
	if move == board.NoMove {
		t.Fatal("MTD(f) returned NoMove")
	}
	if score < MateScore-10 {
		t.Errorf("expected near-mate score, got %d for move %s", score, move)
	}
}

func TestMTDFConvergesAcrossDepths(t *testing.T) {
	pos := board.NewPosition()
	tt := NewTranspositionTable(4)
	pawnTable := NewPawnTable(1)
	corrHist := NewCorrectionHistory()
	s := NewNegaScoutSearcher(tt, pawnTable, corrHist)

	firstGuess := 0
	for depth := 1; depth <= 4; depth++ {
		move, score := SearchMTDF(s, pos, depth, firstGuess)
		if move == board.NoMove {
			t.Fatalf("depth %d: MTD(f) returned NoMove", depth)
		}
		firstGuess = score
	}
}
