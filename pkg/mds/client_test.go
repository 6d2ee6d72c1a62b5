package mds

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlee/eoss/internal/logger"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Path:  filepath.Join(t.TempDir(), "mds.sql"),
		Table: "metadata",
	}
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("mds_client", io.Discard, "ERROR")
}

func openClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	require.NoError(t, Bootstrap(cfg, testLogger()))

	client := NewClient(cfg, testLogger())
	require.NoError(t, client.Open())
	t.Cleanup(client.Close)
	return client
}

func TestExecCommitQuery(t *testing.T) {
	cfg := testConfig(t)
	client := openClient(t, cfg)

	err := client.Exec(
		"INSERT INTO metadata VALUES (?, ?, ?, ?, ?, ?)",
		"aGk=", "hi", nil, nil, nil, 1)
	require.NoError(t, err)
	require.NoError(t, client.Commit())

	states, err := client.QueryInts("SELECT state FROM metadata WHERE id = ?", "aGk=")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, states)

	ids, err := client.QueryStrings("SELECT id FROM metadata WHERE state != 0")
	require.NoError(t, err)
	assert.Equal(t, []string{"aGk="}, ids)
}

func TestQuery_NoRowsIsEmptyNotNil(t *testing.T) {
	client := openClient(t, testConfig(t))

	states, err := client.QueryInts("SELECT state FROM metadata WHERE id = ?", "missing")
	require.NoError(t, err)
	require.NotNil(t, states)
	assert.Empty(t, states)

	ids, err := client.QueryStrings("SELECT id FROM metadata WHERE id = ?", "missing")
	require.NoError(t, err)
	require.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestUncommittedMutationsRollBackOnClose(t *testing.T) {
	cfg := testConfig(t)

	client := openClient(t, cfg)
	require.NoError(t, client.Exec(
		"INSERT INTO metadata VALUES (?, ?, ?, ?, ?, ?)",
		"lost", "lost", nil, nil, nil, 1))
	client.Close()

	reopened := NewClient(cfg, testLogger())
	require.NoError(t, reopened.Open())
	defer reopened.Close()

	ids, err := reopened.QueryStrings("SELECT id FROM metadata")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestExec_BadStatementIsExecKind(t *testing.T) {
	client := openClient(t, testConfig(t))

	err := client.Exec("INSERT INTO nosuchtable VALUES (?)", 1)
	require.Error(t, err)
	assert.True(t, IsExec(err))
	assert.False(t, IsConnect(err))
	assert.False(t, IsCommit(err))
}

func TestOpen_BadPathIsConnectKind(t *testing.T) {
	client := NewClient(Config{
		Path:  filepath.Join(t.TempDir(), "missing-dir", "mds.sql"),
		Table: "metadata",
	}, testLogger())

	err := client.Open()
	require.Error(t, err)
	assert.True(t, IsConnect(err))
}

func TestExec_WithoutOpenIsConnectKind(t *testing.T) {
	client := NewClient(testConfig(t), testLogger())

	err := client.Exec("SELECT 1")
	require.Error(t, err)
	assert.True(t, IsConnect(err))
}

func TestStats(t *testing.T) {
	cfg := testConfig(t)
	client := openClient(t, cfg)

	rows := []struct {
		id    string
		size  any
		ts    any
		state int
	}{
		{"a", 5, 100, 0},
		{"b", 7, 200, 0},
		{"c", nil, nil, 1},
		{"d", nil, nil, 2},
	}
	for _, r := range rows {
		require.NoError(t, client.Exec(
			"INSERT INTO metadata VALUES (?, ?, ?, ?, ?, ?)",
			r.id, r.id, nil, r.size, r.ts, r.state))
	}
	require.NoError(t, client.Commit())

	stats, err := client.Stats()
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalNumberObjects)
	assert.Equal(t, int64(12), stats.TotalStorageUsage)
	require.NotNil(t, stats.YoungestObjectUpdatedTimestamp)
	require.NotNil(t, stats.OldestObjectUpdatedTimestamp)
	assert.Equal(t, int64(100), *stats.YoungestObjectUpdatedTimestamp)
	assert.Equal(t, int64(200), *stats.OldestObjectUpdatedTimestamp)
	assert.Equal(t, int64(2), stats.NumberObjectUploaded)
	assert.Equal(t, int64(1), stats.NumberObjectUploadInit)
	assert.Equal(t, int64(1), stats.NumberObjectSavedInTempName)
}

func TestStats_EmptyCatalog(t *testing.T) {
	client := openClient(t, testConfig(t))

	stats, err := client.Stats()
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalNumberObjects)
	assert.Equal(t, int64(0), stats.TotalStorageUsage)
	assert.Nil(t, stats.YoungestObjectUpdatedTimestamp)
	assert.Nil(t, stats.OldestObjectUpdatedTimestamp)
}
