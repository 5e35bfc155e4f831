package board

// Piece-square tables, tapered between middlegame and endgame. Indexed by the
// raw LERF square as seen from Black; White's index is obtained by flipping
// the rank, mirroring the tables around the board's horizontal center line.

var pawnPSTMg = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	20, 20, 30, 40, 40, 30, 20, 20,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 15, 25, 25, 15, 5, 5,
	0, 0, 10, 20, 20, 10, 0, 0,
	5, 10, 0, -5, -5, 0, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPSTMg = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 20, 25, 25, 20, 0, -30,
	-30, 5, 20, 25, 25, 20, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPSTMg = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 0, 15, 15, 15, 15, 0, -10,
	-10, 5, 15, 15, 15, 15, 5, -10,
	-10, 0, 10, 15, 15, 10, 0, -10,
	-10, 10, 0, 5, 5, 0, 10, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPSTMg = [64]int{
	0, 0, 0, 5, 5, 0, 0, 0,
	10, 15, 15, 20, 20, 15, 15, 10,
	0, 0, 0, 5, 5, 0, 0, 0,
	0, 0, 0, 5, 5, 0, 0, 0,
	0, 0, 0, 5, 5, 0, 0, 0,
	0, 0, 0, 5, 5, 0, 0, 0,
	0, 0, 0, 5, 5, 0, 0, 0,
	-5, 0, 5, 10, 10, 5, 0, -5,
}

var queenPSTMg = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-10, 5, 10, 10, 10, 10, 5, -10,
	-5, 0, 10, 10, 10, 10, 0, -5,
	-5, 0, 10, 10, 10, 10, 0, -5,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingPSTMg = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, -10, 0, 0, -10, -30, -30,
	20, 30, -5, -30, -10, -30, 30, 20,
}

var pawnPSTEg = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	100, 100, 100, 100, 100, 100, 100, 100,
	60, 60, 60, 60, 60, 60, 60, 60,
	40, 40, 40, 40, 40, 40, 40, 40,
	20, 20, 20, 20, 20, 20, 20, 20,
	10, 10, 10, 10, 10, 10, 10, 10,
	5, 5, 5, 5, 5, 5, 5, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPSTEg = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPSTEg = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 5, 10, 15, 15, 10, 5, -10,
	-10, 0, 10, 15, 15, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPSTEg = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	15, 15, 15, 15, 15, 15, 15, 15,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var queenPSTEg = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-10, 5, 10, 15, 15, 10, 5, -10,
	-5, 0, 15, 20, 20, 15, 0, -5,
	-5, 0, 15, 20, 20, 15, 0, -5,
	-10, 5, 10, 15, 15, 10, 5, -10,
	-10, 0, 0, 5, 5, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingPSTEg = [64]int{
	-50, -30, -20, -10, -10, -20, -30, -50,
	-30, -10, 0, 10, 10, 0, -10, -30,
	-20, 0, 20, 30, 30, 20, 0, -20,
	-10, 10, 30, 40, 40, 30, 10, -10,
	-10, 10, 30, 40, 40, 30, 10, -10,
	-20, 0, 20, 30, 30, 20, 0, -20,
	-30, -10, 0, 10, 10, 0, -10, -30,
	-50, -30, -20, -10, -10, -20, -30, -50,
}

var pstMg = [6]*[64]int{&pawnPSTMg, &knightPSTMg, &bishopPSTMg, &rookPSTMg, &queenPSTMg, &kingPSTMg}
var pstEg = [6]*[64]int{&pawnPSTEg, &knightPSTEg, &bishopPSTEg, &rookPSTEg, &queenPSTEg, &kingPSTEg}

// PhaseWeight is the game-phase contribution of one instance of a piece type,
// used to blend middlegame/endgame scores. Pawns and kings don't count.
var PhaseWeight = [6]int{0, 1, 1, 2, 4, 0}

// TotalPhase is the phase weight sum of a full initial non-pawn, non-king
// army: 4 knights + 4 bishops + 4 rooks + 2 queens.
const TotalPhase = 4*1 + 4*1 + 4*2 + 2*4

// pstIndex returns the table index for sq from color's point of view. Tables
// are authored from Black's perspective; White mirrors across the rank axis.
func pstIndex(sq Square, c Color) int {
	if c == White {
		return int(sq ^ 56)
	}
	return int(sq)
}

// PSTValue returns the signed (middlegame, endgame) material+placement value
// of piece on sq, from White's perspective (negative for Black pieces).
func PSTValue(piece Piece, sq Square) (mg, eg int) {
	pt := piece.Type()
	c := piece.Color()
	idx := pstIndex(sq, c)
	material := PieceValue[pt]
	m := material + pstMg[pt][idx]
	e := material + pstEg[pt][idx]
	if c == Black {
		return -m, -e
	}
	return m, e
}

// ComputePST computes the tapered PST score and phase weight from scratch.
// Used to initialize a Position and to verify incremental maintenance.
func ComputePST(pieces *[2][6]Bitboard) (mg, eg, phase int) {
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				pmg, peg := PSTValue(NewPiece(pt, c), sq)
				mg += pmg
				eg += peg
				phase += PhaseWeight[pt]
			}
		}
	}
	return mg, eg, phase
}
