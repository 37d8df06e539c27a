// Package kv provides the flat key/value persistence used to keep the
// logged-in user between runs.
package kv

import (
	"fmt"
	"log"
	"strings"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Store is a string key/value store. Get reports whether the key exists.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// StorageError wraps a failed read or write on the underlying store.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Open returns a store for the requested backend. When the backend cannot be
// opened an in-memory store is returned instead; values then do not survive a
// restart.
func Open(backend, path string) Store {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(backend) {
	case BackendSQLite:
		s, err = NewSQLiteStore(path)
	case BackendFile:
		s, err = NewFileStore(path)
	case BackendMemory:
		return NewMemoryStore()
	default:
		err = fmt.Errorf("unknown kv backend: %s", backend)
	}
	if err != nil {
		log.Printf("kv backend %q not available, using in-memory fallback (not persistent): %v", backend, err)
		return NewMemoryStore()
	}
	return s
}
