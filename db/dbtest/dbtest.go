// Package dbtest opens a throwaway sqlite database with the full schema applied.
package dbtest

import (
	"path/filepath"
	"testing"

	"Gin_postgres_redis_library/db"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func Open(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.db")
	conn, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), db.Config())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func Repo(t *testing.T) *db.Repo {
	return db.NewRepo(Open(t))
}
