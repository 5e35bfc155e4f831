package main

import (
	"bytes"
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/hailam/chessplay/internal/book"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/store"
	"github.com/hailam/chessplay/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	bookPath   = flag.String("book", "", "path to a Polyglot opening book (.bin)")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	// Create engine with 64MB hash table. Search is single-threaded.
	eng := engine.NewEngine(64)

	// Restore correction-history learned in a previous session, if any.
	db, err := store.Open()
	if err != nil {
		log.Printf("Warning: persistent store unavailable: %v", err)
	} else {
		if table, err := db.LoadCorrectionHistory(); err == nil && table != nil {
			eng.RestoreCorrectionHistory(table)
		}
	}

	loadBook(eng, db)

	// Create and run UCI protocol handler
	protocol := uci.New(eng)
	if db != nil {
		protocol.SetOnQuit(func() {
			db.SaveCorrectionHistory(eng.CorrectionSnapshot())
			db.Close()
		})
	}
	protocol.Run()
}

// loadBook wires an opening book into eng. If -book points at a file, it is
// parsed and its raw bytes are cached in db so a future run with no -book
// flag (or an unreachable file) can still load the same book from the
// database. db may be nil if the persistent store failed to open.
func loadBook(eng *engine.Engine, db *store.Store) {
	if *bookPath != "" {
		if err := eng.LoadBook(*bookPath); err != nil {
			log.Printf("Warning: failed to load opening book %s: %v", *bookPath, err)
		} else if db != nil {
			if raw, err := os.ReadFile(*bookPath); err == nil {
				if err := db.SaveBookCache(raw); err != nil {
					log.Printf("Warning: failed to cache opening book: %v", err)
				}
			}
		}
		return
	}

	if db == nil {
		return
	}
	raw, err := db.LoadBookCache()
	if err != nil || raw == nil {
		return
	}
	b, err := book.LoadPolyglotReader(bytes.NewReader(raw))
	if err != nil {
		log.Printf("Warning: failed to parse cached opening book: %v", err)
		return
	}
	eng.SetBook(b)
	log.Printf("Loaded opening book from cache (%d positions)", b.Size())
}
