package tester

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/emrgen/bookshelf/internal/config"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Setup returns a config rooted in a fresh temporary directory.
func Setup(t *testing.T) *config.Config {
	t.Helper()

	_ = os.Setenv("ENV", "test")

	cfg := config.Default()
	cfg.RootDirectory = filepath.Join(t.TempDir(), "bookshelf")
	require.NoError(t, os.MkdirAll(cfg.RootDirectory, os.ModePerm))

	return cfg
}

// TestDB opens the database of cfg and closes it when the test ends.
func TestDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()

	db, err := config.GetDb(cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// WriteFile creates dir/name with content and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, os.ModePerm))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

// ReadFile returns the content of path.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}
