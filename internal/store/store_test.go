package store

import (
	"os"
	"path/filepath"
	"testing"
)

func withTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "chessplay-store-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	t.Setenv("XDG_DATA_HOME", tmpDir)
	t.Setenv("HOME", tmpDir)

	s, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCorrectionHistoryRoundTrip(t *testing.T) {
	s := withTestStore(t)

	table := make([]int16, 65536)
	table[0] = 123
	table[42] = -500

	if err := s.SaveCorrectionHistory(table); err != nil {
		t.Fatalf("SaveCorrectionHistory: %v", err)
	}

	loaded, err := s.LoadCorrectionHistory()
	if err != nil {
		t.Fatalf("LoadCorrectionHistory: %v", err)
	}
	if len(loaded) != len(table) {
		t.Fatalf("expected %d entries, got %d", len(table), len(loaded))
	}
	if loaded[0] != 123 || loaded[42] != -500 {
		t.Errorf("round-trip mismatch: loaded[0]=%d loaded[42]=%d", loaded[0], loaded[42])
	}
}

func TestLoadCorrectionHistoryEmpty(t *testing.T) {
	s := withTestStore(t)

	loaded, err := s.LoadCorrectionHistory()
	if err != nil {
		t.Fatalf("LoadCorrectionHistory: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil for unset correction history, got %v entries", len(loaded))
	}
}

func TestBookCacheRoundTrip(t *testing.T) {
	s := withTestStore(t)

	blob := []byte{0x01, 0x02, 0x03, 0x04}
	if err := s.SaveBookCache(blob); err != nil {
		t.Fatalf("SaveBookCache: %v", err)
	}

	loaded, err := s.LoadBookCache()
	if err != nil {
		t.Fatalf("LoadBookCache: %v", err)
	}
	if string(loaded) != string(blob) {
		t.Errorf("expected %v, got %v", blob, loaded)
	}
}

func TestGetDataDirIsCreated(t *testing.T) {
	s := withTestStore(t)
	_ = s

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir: %v", err)
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("data directory was not created: %v", err)
	}
	if filepath.Base(dataDir) != appName {
		t.Errorf("expected data dir to end in %q, got %q", appName, dataDir)
	}
}
