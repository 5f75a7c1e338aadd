package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mrz1836/structure/internal/constants"
	structerrors "github.com/mrz1836/structure/internal/errors"
	"github.com/mrz1836/structure/internal/flock"
)

// Directory and file permission constants.
const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// FileBackend stores one JSON file per record under <root>/<kind>/<id>.json.
// Reads and writes take an exclusive lock on <id>.json.lock so several CLI
// processes can share the same home directory.
type FileBackend struct {
	root        string
	lockTimeout time.Duration
}

// NewFileBackend roots the backend at dir. An empty dir uses
// ~/.structure.
func NewFileBackend(dir string, lockTimeout time.Duration) (*FileBackend, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(home, constants.StructureHome)
	}
	if lockTimeout <= 0 {
		lockTimeout = constants.DefaultLockTimeout
	}
	return &FileBackend{root: dir, lockTimeout: lockTimeout}, nil
}

// Root returns the base directory.
func (b *FileBackend) Root() string { return b.root }

// Load implements Backend.
func (b *FileBackend) Load(ctx context.Context, kind Kind, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := b.path(kind, id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, structerrors.ErrRecordNotFound
	}

	lock, err := flock.Acquire(ctx, path+constants.LockFileExt, b.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	data, err := os.ReadFile(path) //#nosec G304 -- path is built from a validated id
	if err != nil {
		if os.IsNotExist(err) {
			return nil, structerrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// Save implements Backend.
func (b *FileBackend) Save(ctx context.Context, kind Kind, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(b.dir(kind), dirPerm); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	path := b.path(kind, id)

	lock, err := flock.Acquire(ctx, path+constants.LockFileExt, b.lockTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	return atomicWrite(path, data)
}

// Remove implements Backend.
func (b *FileBackend) Remove(ctx context.Context, kind Kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := b.path(kind, id)

	lock, err := flock.Acquire(ctx, path+constants.LockFileExt, b.lockTimeout)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		_ = lock.Release()
		return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
	}
	_ = lock.Release()
	_ = os.Remove(path + constants.LockFileExt)
	return nil
}

// Keys implements Backend.
func (b *FileBackend) Keys(ctx context.Context, kind Kind) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(b.dir(kind))
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, constants.StateFileExt) {
			continue
		}
		id := strings.TrimSuffix(name, constants.StateFileExt)
		if ValidateID(id) != nil {
			continue
		}
		keys = append(keys, id)
	}
	slices.Sort(keys)
	return keys, nil
}

// Close implements Backend.
func (b *FileBackend) Close() error { return nil }

func (b *FileBackend) dir(kind Kind) string {
	return filepath.Join(b.root, string(kind))
}

func (b *FileBackend) path(kind Kind, id string) string {
	return filepath.Join(b.dir(kind), id+constants.StateFileExt)
}

// atomicWrite writes data to a file atomically using write-then-rename.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	// Data must be on disk before the rename makes it visible.
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

var _ Backend = (*FileBackend)(nil)
