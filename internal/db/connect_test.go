package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteEnsuresSchemaTwice(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "t.db") + "?mode=rwc"

	for i := 0; i < 2; i++ {
		db, err := Open(ctx, DriverSQLite, dsn)
		require.NoError(t, err)
		var n int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('reports','event_log')`).Scan(&n))
		assert.Equal(t, 2, n)
		require.NoError(t, db.Close())
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Driver("oracle"), "")
	assert.Error(t, err)
}
