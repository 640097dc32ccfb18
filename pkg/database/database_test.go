package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/elibbooks/elib/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newFileConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 2,
		DatabaseConnectRetryDelay: 10 * time.Millisecond,
		DatabaseFilePath:          filepath.Join(t.TempDir(), "data.sqlite"),
		DatabaseMaxRetries:        2,
	}
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := New(newFileConfig(t))
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestNewConnectsWithShimDriver(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	var one int
	err := db.QueryRow("SELECT 1").Scan(&one)
	require.NoError(t, err)
	assert.Equal(t, 1, one)
}

func TestNewAppliesPragmasOnEveryConnection(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	// Drop every pooled connection so the next query runs on a fresh one.
	db.SetMaxIdleConns(0)
	db.SetMaxIdleConns(2)

	var foreignKeys int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys)
	require.NoError(t, err)
	assert.Equal(t, 1, foreignKeys)

	var busyTimeout int
	err = db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout)
	require.NoError(t, err)
	assert.Equal(t, 5000, busyTimeout)
}

func TestNewEnforcesCascadesAcrossPooledConnections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.ExecContext(ctx, `CREATE TABLE parents (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
		CREATE TABLE children (
			id INTEGER PRIMARY KEY,
			parent_id INTEGER REFERENCES parents (id) ON DELETE CASCADE NOT NULL
		)
	`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO parents (id) VALUES (1)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO children (id, parent_id) VALUES (1, 1)`)
	require.NoError(t, err)

	// Cycle the pool so the delete runs on a connection that was opened after
	// setup; the cascade must still fire on it.
	db.SetMaxIdleConns(0)
	db.SetMaxIdleConns(2)

	_, err = db.ExecContext(ctx, `DELETE FROM parents WHERE id = 1`)
	require.NoError(t, err)

	var remaining int
	err = db.QueryRowContext(ctx, `SELECT count(*) FROM children`).Scan(&remaining)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}
