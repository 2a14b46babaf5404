package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteCreatesSchema(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "ws.db") + "?_pragma=busy_timeout(5000)"
	conn, err := Open(ctx, DriverSQLite, dsn)
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='workspaces'`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='activity_log'`).Scan(&n))
	assert.Equal(t, 1, n)

	// idempotent
	require.NoError(t, ensureSchema(ctx, conn, DriverSQLite))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Driver("oracle"), "")
	require.ErrorContains(t, err, "unsupported driver")
}
