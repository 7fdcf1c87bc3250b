// Package kvstore is the local key/value storage used for search history and
// the persisted BaaS session.
//
// Two backends exist: SQLite (a single kv table migrated with goose) and File
// (one JSON document on an afero filesystem, optionally guarded by a lock
// file so several processes can share it).
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Common errors
var (
	// ErrClosed is returned by operations on a closed store
	ErrClosed = errors.New("store is closed")
	// ErrEmptyKey is returned when a key is blank
	ErrEmptyKey = errors.New("key must not be empty")
)

// Store is a string key/value store
type Store interface {
	// Get returns the value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes the key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Drivers accepted by Open
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Open creates a store for driver rooted in dir
func Open(driver, dir string, logger zerolog.Logger) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite, "":
		return NewSQLite(filepath.Join(dir, "marquee.db"), logger)
	case DriverFile:
		path := filepath.Join(dir, "marquee.json")
		return NewFile(afero.NewOsFs(), path, logger, WithLockFile(path+".lock"))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}
