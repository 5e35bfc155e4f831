package epd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hailam/chessplay/internal/engine"
)

func TestParseLineSimple(t *testing.T) {
	pos, ok := ParseLine("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -")
	if !ok {
		t.Fatal("expected a valid EPD line")
	}
	want := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	if pos.FEN != want {
		t.Errorf("FEN = %q, want %q", pos.FEN, want)
	}
}

func TestParseLineWithBestMove(t *testing.T) {
	pos, ok := ParseLine("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 bm e5;")
	if !ok {
		t.Fatal("expected a valid EPD line")
	}
	if pos.BestMove != "e5" {
		t.Errorf("BestMove = %q, want e5", pos.BestMove)
	}
}

func TestParseLineWithID(t *testing.T) {
	pos, ok := ParseLine(`rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - bm e4; id "starting";`)
	if !ok {
		t.Fatal("expected a valid EPD line")
	}
	if pos.BestMove != "e4" {
		t.Errorf("BestMove = %q, want e4", pos.BestMove)
	}
	if pos.ID != "starting" {
		t.Errorf("ID = %q, want starting", pos.ID)
	}
}

func TestParseLineSkipsBlankAndComments(t *testing.T) {
	if _, ok := ParseLine(""); ok {
		t.Error("expected blank line to be skipped")
	}
	if _, ok := ParseLine("# comment"); ok {
		t.Error("expected comment line to be skipped")
	}
	if _, ok := ParseLine("   "); ok {
		t.Error("expected whitespace-only line to be skipped")
	}
}

func TestParseLineTooFewFields(t *testing.T) {
	if _, ok := ParseLine("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq"); ok {
		t.Error("expected line with too few fields to be rejected")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.epd")
	content := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - bm e4; id \"1\";\n" +
		"# a comment\n" +
		"\n" +
		"6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - bm Ra8; id \"2\";\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	positions, err := LoadFile(path, 0)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].ID != "1" || positions[1].ID != "2" {
		t.Errorf("unexpected IDs: %q, %q", positions[0].ID, positions[1].ID)
	}
}

func TestLoadFileRespectsLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.epd")
	content := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - bm e4;\n" +
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - bm d4;\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	positions, err := LoadFile(path, 1)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
}

func TestRunFindsMateInOne(t *testing.T) {
	positions := []Position{
		{FEN: "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", BestMove: "Ra8#", ID: "mate-in-1"},
	}

	results, err := Run(context.Background(), positions, RunOptions{
		Limits:      engine.SearchLimits{Depth: 4, MoveTime: 2 * time.Second},
		Concurrency: 2,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("unexpected error: %v", results[0].Err)
	}

	summary := Summarize(results)
	if summary.Passed != 1 {
		t.Errorf("expected the mate-in-one to pass, got move %s (passed=%d failed=%d)",
			results[0].Move, summary.Passed, summary.Failed)
	}
}
