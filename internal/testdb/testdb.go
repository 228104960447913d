// Package testdb opens migrated throwaway databases for tests.
package testdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"moviehub/pkg/database"
)

// Open returns a migrated sqlite database living in t.TempDir().
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// SeedUser inserts a bare user row so foreign keys on user_id resolve.
func SeedUser(t testing.TB, db *sql.DB, id, username string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, username, email, password_hash) VALUES (?, ?, ?, 'x')`,
		id, username, username+"@example.com")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}
