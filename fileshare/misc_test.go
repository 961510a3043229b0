package fileshare

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _seedStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newSeededDB opens a private in-memory database with n seeded files.
func newSeededDB(t *testing.T, n int) (*gorm.DB, []File) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))

	files, err := Seed(context.Background(), db, n, _seedStart)
	require.NoError(t, err)

	return db, files
}

func fileNames(nodes []FileNode) []string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.FileName)
	}
	return names
}
