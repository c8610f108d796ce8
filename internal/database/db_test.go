package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistoryDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{Path: filepath.Join(t.TempDir(), "history.db"), Name: "history"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	db, err := New(Config{Path: path, Name: "history"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	assert.Equal(t, "history", db.Name())
	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestHistoryDB(t)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	var count int
	err := db.Conn().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'portfolio_history'",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "other.db"), Name: "other"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Migrate())
}

func TestBuildConnectionString(t *testing.T) {
	assert.Contains(t, buildConnectionString("/tmp/a.db"), "/tmp/a.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, buildConnectionString("file:x?mode=memory"), "file:x?mode=memory&_pragma=journal_mode(WAL)")
}

func TestWithTransaction(t *testing.T) {
	db := newTestHistoryDB(t)
	_, err := db.Conn().Exec("CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO t (v) VALUES (1)")
		return err
	})
	require.NoError(t, err)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO t (v) VALUES (2)"); err != nil {
			return err
		}
		return errors.New("abort")
	})
	assert.ErrorContains(t, err, "abort")

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.Exec("INSERT INTO t (v) VALUES (3)")
		panic("boom")
	})
	assert.ErrorContains(t, err, "panic in transaction")

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 1, count)

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}

func TestHealthCheckAndStats(t *testing.T) {
	db := newTestHistoryDB(t)
	require.NoError(t, db.Migrate())

	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, db.WALCheckpoint(""))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}

func TestSnapshotTo(t *testing.T) {
	db := newTestHistoryDB(t)
	require.NoError(t, db.Migrate())
	_, err := db.Conn().Exec(
		`INSERT INTO portfolio_history (cycle_id, portfolio, recorded_at, total_investment, total_pnl, holdings)
		 VALUES ('c1', 'bro', 1, '10', '1', x'90')`,
	)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, db.SnapshotTo(context.Background(), dest))

	copyDB, err := New(Config{Path: dest, Name: "history"})
	require.NoError(t, err)
	defer copyDB.Close()

	var count int
	require.NoError(t, copyDB.Conn().QueryRow("SELECT COUNT(*) FROM portfolio_history").Scan(&count))
	assert.Equal(t, 1, count)

	assert.Error(t, db.SnapshotTo(context.Background(), dest))
}

func TestSchema(t *testing.T) {
	schema, err := Schema("history")
	require.NoError(t, err)
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS portfolio_history")

	_, err = Schema("nope")
	assert.Error(t, err)
}
