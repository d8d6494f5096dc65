package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// Document names used by the core. Each participant owns exactly two
// documents; the graph and the personality engine snapshot under fixed
// names.
const (
	KnowledgeSnapshotKey   = "knowledge-graph"
	PersonalitySnapshotKey = "personality-profiles"
)

// MemoryDocKey returns the name of a participant's memory log document.
func MemoryDocKey(participantID string) string {
	return fmt.Sprintf("%s-memory", participantID)
}

// PatternsDocKey returns the name of a participant's pattern document.
func PatternsDocKey(participantID string) string {
	return fmt.Sprintf("%s-patterns", participantID)
}

// Store is the persistence surface consumed by the memory store, the
// knowledge graph, and the personality engine. Every write replaces a
// whole document atomically; existing documents are never mutated in
// place, so a crash mid-write can lose at most the document being
// written.
type Store interface {
	Put(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	GetByPrefix(prefix string) (map[string][]byte, error)
	PutObject(key string, obj interface{}) error
	GetObject(key string, obj interface{}) error

	Close() error
	RunGC() error
}

// ErrKeyNotFound is returned by Get/GetObject for missing documents.
var ErrKeyNotFound = badger.ErrKeyNotFound

// BadgerStore is a persistent Store backed by BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	mu     sync.Mutex
	config BadgerConfig
	stopGC chan struct{}
}

// OpenBadger opens (or creates) a Badger-backed store under
// <dataDir>/badger and starts the value-log GC routine if configured.
func OpenBadger(config BadgerConfig) (*BadgerStore, error) {
	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Join(config.DataDir, "badger"))
	}
	if config.DisableLogging {
		opts.Logger = nil
	}
	opts.SyncWrites = config.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %v", err)
	}

	s := &BadgerStore{
		db:     db,
		config: config,
		stopGC: make(chan struct{}),
	}

	if config.GCInterval > 0 && !config.InMemory {
		go s.gcRoutine(time.Duration(config.GCInterval) * time.Second)
	}

	return s, nil
}

func (s *BadgerStore) gcRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			if err := s.RunGC(); err != nil && err != badger.ErrNoRewrite {
				log.Printf("BadgerDB GC failed: %v", err)
			}
		}
	}
}

// Put stores a key-value pair in the database.
func (s *BadgerStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Get retrieves a value by key. Returns ErrKeyNotFound for missing keys.
func (s *BadgerStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var valCopy []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			valCopy = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get value: %v", err)
	}

	return valCopy, nil
}

// Delete removes a key-value pair from the database.
func (s *BadgerStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// GetByPrefix retrieves all key-value pairs with a given prefix.
func (s *BadgerStore) GetByPrefix(prefix string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string][]byte)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			k := item.Key()
			err := item.Value(func(v []byte) error {
				// Copy key and value; they are only valid inside the txn.
				keyCopy := append([]byte{}, k...)
				valCopy := append([]byte{}, v...)
				result[string(keyCopy)] = valCopy
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get values by prefix: %v", err)
	}

	return result, nil
}

// PutObject serializes and stores an object under key.
func (s *BadgerStore) PutObject(key string, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal object: %v", err)
	}
	return s.Put(key, data)
}

// GetObject retrieves and deserializes an object stored under key.
func (s *BadgerStore) GetObject(key string, obj interface{}) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return fmt.Errorf("failed to unmarshal object at %s: %v", key, err)
	}
	return nil
}

// RunGC runs value-log garbage collection on the database.
func (s *BadgerStore) RunGC() error {
	return s.db.RunValueLogGC(0.5) // Clean up if at least 50% can be discarded
}

// Close stops the GC routine and closes the database.
func (s *BadgerStore) Close() error {
	close(s.stopGC)
	return s.db.Close()
}
