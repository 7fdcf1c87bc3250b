package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// FileOption configures a File store
type FileOption func(*File)

// WithLockFile guards every read-modify-write with an flock on lockPath.
// Only meaningful on the OS filesystem.
func WithLockFile(lockPath string) FileOption {
	return func(f *File) {
		f.lock = flock.New(lockPath)
	}
}

// File is a Store kept as a single JSON object in a file
type File struct {
	fs     afero.Fs
	path   string
	lock   *flock.Flock
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// NewFile creates a file store at path on fs. The file is created on first write.
func NewFile(fs afero.Fs, path string, logger zerolog.Logger, opts ...FileOption) (*File, error) {
	if path == "" {
		return nil, errors.New("file store path is required")
	}
	f := &File{
		fs:     fs,
		path:   path,
		logger: logger.With().Str("component", "kvstore").Str("path", path).Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	if f.lock != nil {
		if err := os.MkdirAll(filepath.Dir(f.lock.Path()), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create lock directory: %w", err)
		}
	}
	return f, nil
}

// withLock runs fn holding the in-process mutex and, if configured, the file lock
func (f *File) withLock(ctx context.Context, shared bool, fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	if f.lock != nil {
		var err error
		if shared {
			err = f.lock.RLock()
		} else {
			err = f.lock.Lock()
		}
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		defer func() {
			if err := f.lock.Unlock(); err != nil {
				f.logger.Warn().Err(err).Msg("Failed to release lock")
			}
		}()
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

func (f *File) read() (map[string]string, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return values, nil
}

func (f *File) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}

	tmp := f.path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Get implements Store
func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	var (
		value string
		ok    bool
	)
	err := f.withLock(ctx, true, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		value, ok = values[key]
		return nil
	})
	return value, ok, err
}

// Set implements Store
func (f *File) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return f.withLock(ctx, false, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		values[key] = value
		return f.write(values)
	})
}

// Delete implements Store
func (f *File) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return f.withLock(ctx, false, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		if _, ok := values[key]; !ok {
			return nil
		}
		delete(values, key)
		return f.write(values)
	})
}

// Close marks the store closed
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
