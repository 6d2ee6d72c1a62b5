package object

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/pkg/mds"
)

const testSalt = "snoopy"

type fixture struct {
	storageDir string
	client     *mds.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.NewWithWriter("test", io.Discard, "ERROR")
	cfg := mds.Config{
		Path:  filepath.Join(t.TempDir(), "mds.sql"),
		Table: "metadata",
	}
	require.NoError(t, mds.Bootstrap(cfg, log))

	client := mds.NewClient(cfg, log)
	require.NoError(t, client.Open())
	t.Cleanup(client.Close)

	return &fixture{
		storageDir: t.TempDir(),
		client:     client,
	}
}

func (f *fixture) coordinator(filename, version string) *Coordinator {
	return NewCoordinator(testSalt, f.storageDir, filename, version, f.client,
		logger.NewWithWriter("object_client", io.Discard, "ERROR"))
}

func (f *fixture) row(t *testing.T, id string) (state int64, size, ts []int64) {
	t.Helper()
	states, err := f.client.QueryInts("SELECT state FROM metadata WHERE id = ?", id)
	require.NoError(t, err)
	require.Len(t, states, 1)
	size, err = f.client.QueryInts("SELECT size FROM metadata WHERE id = ?", id)
	require.NoError(t, err)
	ts, err = f.client.QueryInts("SELECT timestamp FROM metadata WHERE id = ?", id)
	require.NoError(t, err)
	return states[0], size, ts
}

func TestCheckExists_Absent(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator("hello.txt", "")

	state, err := c.CheckExists()
	require.NoError(t, err)
	assert.Equal(t, StateAbsent, state)
}

func TestPut_ClosesObject(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator("hello.txt", "")

	require.NoError(t, c.Put([]byte("hi"), false))

	state, err := c.CheckExists()
	require.NoError(t, err)
	assert.Equal(t, StatePresent, state)

	data, err := os.ReadFile(c.FinalPath())
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	// no staging remnant may survive a closed upload
	_, err = os.Stat(c.StagingPath())
	assert.True(t, os.IsNotExist(err))

	lifecycle, size, ts := f.row(t, c.ObjectName())
	assert.Equal(t, int64(0), lifecycle)
	require.Len(t, size, 1)
	assert.Equal(t, int64(2), size[0])
	require.Len(t, ts, 1)
	assert.Positive(t, ts[0])
}

func TestPut_OverrideReplacesContent(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator("hello.txt", "")

	require.NoError(t, c.Put([]byte("first"), false))
	require.NoError(t, c.Put([]byte("second version"), true))

	data, err := os.ReadFile(c.FinalPath())
	require.NoError(t, err)
	assert.Equal(t, "second version", string(data))

	ids, err := f.client.QueryStrings("SELECT id FROM metadata")
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	_, size, _ := f.row(t, c.ObjectName())
	require.Len(t, size, 1)
	assert.Equal(t, int64(len("second version")), size[0])
}

func TestPut_VersionedObjectsCoexist(t *testing.T) {
	f := newFixture(t)
	a := f.coordinator("hello.txt", "a")
	b := f.coordinator("hello.txt", "b")

	require.NoError(t, a.Put([]byte("A"), false))
	require.NoError(t, b.Put([]byte("B"), false))

	dataA, err := os.ReadFile(a.FinalPath())
	require.NoError(t, err)
	dataB, err := os.ReadFile(b.FinalPath())
	require.NoError(t, err)
	assert.Equal(t, "A", string(dataA))
	assert.Equal(t, "B", string(dataB))
}

func TestCheckExists_InitAndStaged(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator("hello.txt", "")

	require.NoError(t, f.client.Exec(
		"INSERT INTO metadata VALUES (?, ?, ?, ?, ?, ?)",
		c.ObjectName(), "hello.txt", nil, nil, nil, 1))
	require.NoError(t, f.client.Commit())

	state, err := c.CheckExists()
	require.NoError(t, err)
	assert.Equal(t, StateInit, state)

	require.NoError(t, f.client.Exec(
		"UPDATE metadata SET state = ? WHERE id = ?", 2, c.ObjectName()))
	require.NoError(t, f.client.Commit())

	state, err = c.CheckExists()
	require.NoError(t, err)
	assert.Equal(t, StateStaged, state)
}

func TestCheckExists_Lost(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator("hello.txt", "")

	require.NoError(t, c.Put([]byte("hi"), false))
	require.NoError(t, os.Remove(c.FinalPath()))

	state, err := c.CheckExists()
	require.NoError(t, err)
	assert.Equal(t, StateLost, state)
}

func TestCheckExists_UnknownStateIsInternal(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator("hello.txt", "")

	require.NoError(t, f.client.Exec(
		"INSERT INTO metadata VALUES (?, ?, ?, ?, ?, ?)",
		c.ObjectName(), "hello.txt", nil, nil, nil, 9))
	require.NoError(t, f.client.Commit())

	_, err := c.CheckExists()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestPut_FailureRollsBackToAbsent(t *testing.T) {
	f := newFixture(t)
	// staging writes will fail: the storage directory does not exist
	f.storageDir = filepath.Join(f.storageDir, "missing")
	c := f.coordinator("hello.txt", "")

	err := c.Put([]byte("hi"), false)
	require.Error(t, err)

	var rbErr *RollbackError
	require.ErrorAs(t, err, &rbErr)
	assert.Equal(t, RollbackOK, rbErr.Result)
	assert.ErrorIs(t, rbErr.Cause, ErrInternal)

	state, err := c.CheckExists()
	require.NoError(t, err)
	assert.Equal(t, StateAbsent, state)
}

func TestRollback_RemovesFilesAndRow(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator("hello.txt", "")

	require.NoError(t, f.client.Exec(
		"INSERT INTO metadata VALUES (?, ?, ?, ?, ?, ?)",
		c.ObjectName(), "hello.txt", nil, nil, nil, 2))
	require.NoError(t, f.client.Commit())
	require.NoError(t, os.WriteFile(c.StagingPath(), []byte("partial"), 0o644))
	require.NoError(t, os.WriteFile(c.FinalPath(), []byte("stale"), 0o644))

	result := c.Rollback()
	assert.Equal(t, RollbackOK, result)

	_, err := os.Stat(c.StagingPath())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(c.FinalPath())
	assert.True(t, os.IsNotExist(err))

	state, err := c.CheckExists()
	require.NoError(t, err)
	assert.Equal(t, StateAbsent, state)
}

func TestRollback_PartialWhenRecordDeletionFails(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator("hello.txt", "")

	require.NoError(t, f.client.Exec("DROP TABLE metadata"))
	require.NoError(t, f.client.Commit())

	result := c.Rollback()
	assert.Equal(t, RollbackPartial, result)
}

func TestDelete_RemovesFileAndRow(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator("hello.txt", "")

	require.NoError(t, c.Put([]byte("hi"), false))
	require.NoError(t, c.Delete())

	_, err := os.Stat(c.FinalPath())
	assert.True(t, os.IsNotExist(err))

	state, err := c.CheckExists()
	require.NoError(t, err)
	assert.Equal(t, StateAbsent, state)
}

func TestDelete_MissingFileIsInternal(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator("hello.txt", "")

	require.NoError(t, c.Put([]byte("hi"), false))
	require.NoError(t, os.Remove(c.FinalPath()))

	err := c.Delete()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestPut_SuccessiveObjectsIndependent(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		c := f.coordinator(fmt.Sprintf("file-%d.bin", i), "")
		require.NoError(t, c.Put([]byte{byte(i)}, false))
	}

	ids, err := f.client.QueryStrings("SELECT id FROM metadata WHERE state = 0")
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}
