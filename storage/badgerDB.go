// Package storage persists consensus round results and validation reports.
// The consensus core itself never touches storage; only the API layer
// writes here, after a round completes.
package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/BioMeshLabs/foldswarm/core"
)

// Storage is the persistence surface consumed by the API layer.
type Storage interface {
	// Generic operations
	Put(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	GetByPrefix(prefix string) (map[string][]byte, error)
	PutObject(key string, obj interface{}) error
	GetObject(key string, obj interface{}) error

	// Domain-specific operations
	SaveConsensusResult(roundID string, result core.ConsensusResult) error
	GetConsensusResult(sequenceID, roundID string) (core.ConsensusResult, error)
	ListConsensusResults(sequenceID string) ([]core.ConsensusResult, error)
	SaveValidation(sequenceID, roundID string, result core.ValidationResult) error
	GetValidation(sequenceID, roundID string) (core.ValidationResult, error)

	Close() error
}

// DBStorage is the BadgerDB-backed Storage implementation.
type DBStorage struct {
	db *badger.DB
	mu sync.Mutex
}

var (
	instances    = make(map[string]*DBStorage)
	instancesMu  sync.Mutex
	gcInterval   = time.Hour
	gcDiscardPct = 0.5
)

// Open returns the storage instance for dataDir, opening it on first use.
func Open(dataDir string) (*DBStorage, error) {
	instancesMu.Lock()
	defer instancesMu.Unlock()

	if s, ok := instances[dataDir]; ok {
		return s, nil
	}

	opts := badger.DefaultOptions(filepath.Join(dataDir, "results"))
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", dataDir, err)
	}

	s := &DBStorage{db: db}
	instances[dataDir] = s
	go s.gcLoop()
	return s, nil
}

// OpenInMemory returns an ephemeral storage instance (tests).
func OpenInMemory() (*DBStorage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &DBStorage{db: db}, nil
}

func (s *DBStorage) gcLoop() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := s.db.RunValueLogGC(gcDiscardPct); err != nil && err != badger.ErrNoRewrite {
			log.Printf("Badger GC failed: %v", err)
		}
	}
}

// Close closes the underlying database.
func (s *DBStorage) Close() error {
	return s.db.Close()
}

// Put stores a raw value.
func (s *DBStorage) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Get retrieves a value by key; a missing key returns a nil value.
func (s *DBStorage) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var valCopy []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			valCopy = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get value: %w", err)
	}
	return valCopy, nil
}

// Delete removes a key.
func (s *DBStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// GetByPrefix retrieves all key-value pairs under a prefix.
func (s *DBStorage) GetByPrefix(prefix string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string][]byte)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				result[key] = append([]byte{}, v...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}
	return result, nil
}

// PutObject stores an object as JSON.
func (s *DBStorage) PutObject(key string, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal object: %w", err)
	}
	return s.Put(key, data)
}

// GetObject retrieves and unmarshals a JSON object.
func (s *DBStorage) GetObject(key string, obj interface{}) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("key not found: %s", key)
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return fmt.Errorf("failed to unmarshal object: %w", err)
	}
	return nil
}

func resultKey(sequenceID, roundID string) string {
	return fmt.Sprintf("result:%s:%s", sequenceID, roundID)
}

func validationKey(sequenceID, roundID string) string {
	return fmt.Sprintf("validation:%s:%s", sequenceID, roundID)
}

// SaveConsensusResult persists the durable output of a round.
func (s *DBStorage) SaveConsensusResult(roundID string, result core.ConsensusResult) error {
	return s.PutObject(resultKey(result.ConsensusStructure.SequenceID, roundID), result)
}

// GetConsensusResult loads one round's result.
func (s *DBStorage) GetConsensusResult(sequenceID, roundID string) (core.ConsensusResult, error) {
	var result core.ConsensusResult
	err := s.GetObject(resultKey(sequenceID, roundID), &result)
	return result, err
}

// ListConsensusResults returns all stored results for a sequence, ordered
// by key.
func (s *DBStorage) ListConsensusResults(sequenceID string) ([]core.ConsensusResult, error) {
	raw, err := s.GetByPrefix(fmt.Sprintf("result:%s:", sequenceID))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]core.ConsensusResult, 0, len(keys))
	for _, k := range keys {
		var r core.ConsensusResult
		if err := json.Unmarshal(raw[k], &r); err != nil {
			return nil, fmt.Errorf("corrupt result at %s: %w", k, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// SaveValidation persists the validation report for a round.
func (s *DBStorage) SaveValidation(sequenceID, roundID string, result core.ValidationResult) error {
	return s.PutObject(validationKey(sequenceID, roundID), result)
}

// GetValidation loads a round's validation report.
func (s *DBStorage) GetValidation(sequenceID, roundID string) (core.ValidationResult, error) {
	var result core.ValidationResult
	err := s.GetObject(validationKey(sequenceID, roundID), &result)
	return result, err
}
