package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSQLiteAdapter(t *testing.T) *SQLAdapter {
	t.Helper()
	ctx := context.Background()

	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "formalin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := NewSQLAdapter(db, DialectSQLite)
	require.NoError(t, adapter.Migrate(ctx))
	return adapter
}

// newMySQLAdapter connects to the database named by MYSQL_DSN and empties
// its tables. Point it at a throwaway database only.
func newMySQLAdapter(t *testing.T) *SQLAdapter {
	t.Helper()
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}

	ctx := context.Background()
	db, err := OpenMySQL(ctx, dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	adapter := NewSQLAdapter(db, DialectMySQL)
	require.NoError(t, adapter.Migrate(ctx))
	for _, stmt := range []string{"DELETE FROM item_history", "DELETE FROM items", "DELETE FROM users"} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	return adapter
}

// forEachDialect runs fn against SQLite and, when configured, MySQL.
func forEachDialect(t *testing.T, fn func(t *testing.T, a *SQLAdapter)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteAdapter(t)) })
	t.Run("mysql", func(t *testing.T) { fn(t, newMySQLAdapter(t)) })
}

func strPtr(s string) *string { return &s }
