//go:build unix

package flock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLock(t *testing.T) {
	t.Parallel()

	t.Run("second descriptor reports busy until the first unlocks", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "state.lock")

		f1, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) // #nosec G304 -- test temp dir
		require.NoError(t, err)
		defer func() { _ = f1.Close() }()
		busy, err := tryLock(f1)
		require.NoError(t, err)
		require.False(t, busy)

		f2, err := os.OpenFile(path, os.O_RDWR, 0o600) // #nosec G304 -- test temp dir
		require.NoError(t, err)
		defer func() { _ = f2.Close() }()
		busy, err = tryLock(f2)
		require.NoError(t, err)
		assert.True(t, busy)

		require.NoError(t, unlock(f1))
		busy, err = tryLock(f2)
		require.NoError(t, err)
		assert.False(t, busy)
		require.NoError(t, unlock(f2))
	})

	t.Run("closed file is an error, not contention", func(t *testing.T) {
		t.Parallel()
		f, err := os.Create(filepath.Join(t.TempDir(), "closed.lock")) // #nosec G304 -- test temp dir
		require.NoError(t, err)
		require.NoError(t, f.Close())

		busy, err := tryLock(f)
		require.Error(t, err)
		assert.False(t, busy)
	})
}
