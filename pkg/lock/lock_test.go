package lock

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlee/eoss/internal/logger"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(t.TempDir(), logger.NewWithWriter("object_client", io.Discard, "ERROR"))
}

func TestExclusiveBlocksExclusive(t *testing.T) {
	m := newManager(t)

	first, err := m.AcquireExclusive("obj")
	require.NoError(t, err)
	defer first.Release()

	_, err = m.AcquireExclusive("obj")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestExclusiveBlocksShared(t *testing.T) {
	m := newManager(t)

	w, err := m.AcquireExclusive("obj")
	require.NoError(t, err)
	defer w.Release()

	_, err = m.AcquireShared("obj")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestSharedBlocksExclusive(t *testing.T) {
	m := newManager(t)

	r, err := m.AcquireShared("obj")
	require.NoError(t, err)
	defer r.Release()

	_, err = m.AcquireExclusive("obj")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestSharedHoldersCoexist(t *testing.T) {
	m := newManager(t)

	r1, err := m.AcquireShared("obj")
	require.NoError(t, err)
	defer r1.Release()

	r2, err := m.AcquireShared("obj")
	require.NoError(t, err)
	defer r2.Release()
}

func TestReleaseAllowsReacquire(t *testing.T) {
	m := newManager(t)

	w, err := m.AcquireExclusive("obj")
	require.NoError(t, err)
	w.Release()

	w2, err := m.AcquireExclusive("obj")
	require.NoError(t, err)
	w2.Release()
}

func TestLocksAreKeyedByObject(t *testing.T) {
	m := newManager(t)

	a, err := m.AcquireExclusive("a")
	require.NoError(t, err)
	defer a.Release()

	b, err := m.AcquireExclusive("b")
	require.NoError(t, err)
	defer b.Release()
}

func TestSentinelStaysOnDisk(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, logger.NewWithWriter("object_client", io.Discard, "ERROR"))

	w, err := m.AcquireExclusive("obj")
	require.NoError(t, err)
	w.Release()

	_, err = os.Stat(filepath.Join(dir, "obj.lock"))
	assert.NoError(t, err)
}
