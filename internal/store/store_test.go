// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"candycounter/internal/database"
	"candycounter/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "candycounter")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "candycounter")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Reset goose global state for other packages.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testName returns a unique candy name so parallel test runs never
// collide on the catalog's name uniqueness.
func testName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// createItem inserts a catalog item for a test and registers cleanup of
// the item and any tallies pointing at it.
func createItem(t *testing.T, s *CatalogStore, db *sql.DB, name string) *models.CatalogItem {
	t.Helper()
	item, err := s.Create(name, "")
	if err != nil {
		t.Fatalf("create catalog item %q: %v", name, err)
	}
	t.Cleanup(func() { cleanItem(t, db, item.ID) })
	return item
}

// cleanItem removes a catalog item and its tallies. Call in t.Cleanup().
func cleanItem(t *testing.T, db *sql.DB, id int64) {
	t.Helper()
	db.Exec("DELETE FROM candy_counts WHERE catalog_id = $1", id)
	db.Exec("DELETE FROM candy_catalog WHERE id = $1", id)
}
