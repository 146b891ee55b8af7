package storage

import (
	"fmt"
	"sync"
	"time"

	"skillconnect/internal/models"

	"go.etcd.io/bbolt"
)

var (
	bucketSession = []byte("session")
)

// BboltStorage persists the session key-value entries in a local bbolt file.
type BboltStorage struct {
	db  *bbolt.DB
	now func() time.Time
}

func NewBboltStorage(path string) (*BboltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BboltStorage{db: db, now: time.Now}, nil
}

func (s *BboltStorage) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key or models.ErrNotFound.
func (s *BboltStorage) Get(key string) (string, error) {
	var entry DBEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSession).Get([]byte(key))
		if data == nil {
			return models.ErrNotFound
		}
		return entry.UnmarshalBinary(data)
	})
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

// Set stores value under key, replacing any previous value.
func (s *BboltStorage) Set(key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket(bucketSession), &DBEntry{
			Name:      key,
			Value:     value,
			UpdatedAt: s.now().Unix(),
		})
	})
}

func put(b *bbolt.Bucket, item Storeable) error {
	data, err := item.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", item.Key(), err)
	}
	return b.Put(item.Key(), data)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *BboltStorage) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).Delete([]byte(key))
	})
}

// Keys lists the stored keys.
func (s *BboltStorage) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).ForEach(func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// MemoryStorage is an in-process store with the same contract, used when
// no token file is configured.
type MemoryStorage struct {
	entries map[string]string
	mu      sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	if !ok {
		return "", models.ErrNotFound
	}
	return v, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
