package store

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys. Correction-history and book-cache are the only engine state
// worth surviving a restart; everything else (transposition table, pawn
// hash, history/killer tables) is rebuilt cheaply from scratch each run.
const (
	keyCorrectionHistory = "correction_history"
	keyBookCache         = "book_cache"
)

// Store wraps a badger key-value database holding engine state that should
// persist across ucinewgame/process restarts.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the badger database under
// GetDatabaseDir.
func Open() (*Store, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveCorrectionHistory persists a CorrectionHistory.Snapshot() result.
func (s *Store) SaveCorrectionHistory(table []int16) error {
	data := make([]byte, len(table)*2)
	for i, v := range table {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyCorrectionHistory), data)
	})
}

// LoadCorrectionHistory returns a previously saved correction table, or
// (nil, nil) if none has been saved yet.
func (s *Store) LoadCorrectionHistory() ([]int16, error) {
	var table []int16

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyCorrectionHistory))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			table = make([]int16, len(val)/2)
			for i := range table {
				table[i] = int16(binary.LittleEndian.Uint16(val[i*2:]))
			}
			return nil
		})
	})

	return table, err
}

// SaveBookCache persists the raw bytes of a parsed polyglot book so a future
// process can skip re-reading the .bin file from disk.
func (s *Store) SaveBookCache(data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyBookCache), data)
	})
}

// LoadBookCache returns a previously cached book blob, or (nil, nil) if
// none has been saved yet.
func (s *Store) LoadBookCache() ([]byte, error) {
	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyBookCache))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = make([]byte, len(val))
			copy(data, val)
			return nil
		})
	})

	return data, err
}
