// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL is unavailable.
package handlers

import (
	"database/sql"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"candycounter/internal/cache"
	"candycounter/internal/database"
	"candycounter/internal/render"
	"candycounter/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "candycounter")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "candycounter")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testApp wires stores and handlers onto a chi router, mirroring the
// production route layout. The page cache runs with a nil client so no
// Valkey instance is needed.
type testApp struct {
	db      *sql.DB
	mux     *chi.Mux
	tallies *store.TallyStore
	catalog *store.CatalogStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testDB(t)
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("create renderer: %v", err)
	}

	tallies := store.NewTallyStore(db)
	catalogStore := store.NewCatalogStore(db)
	dashCache := cache.NewDashboardCache(nil, cache.DefaultDashboardTTL)

	candy := NewCandy(renderer, tallies, catalogStore, dashCache)
	catalog := NewCatalog(renderer, catalogStore, dashCache)
	api := NewAPI(tallies, catalogStore, dashCache)

	mux := chi.NewRouter()
	mux.Get("/", candy.Dashboard)
	mux.Post("/candy", candy.Add)
	mux.Post("/candy/reset", candy.Reset)
	mux.Post("/candy/{id}/increment", candy.Increment)
	mux.Post("/candy/{id}/decrement", candy.Decrement)
	mux.Post("/candy/{id}/delete", candy.Delete)
	mux.Get("/catalog", catalog.Page)
	mux.Post("/catalog", catalog.Create)
	mux.Put("/catalog/{id}", catalog.Update)
	mux.Post("/catalog/{id}/deactivate", catalog.Deactivate)
	mux.Post("/catalog/{id}/activate", catalog.Activate)
	mux.Post("/catalog/merge", catalog.Merge)

	mux.Route("/api", func(r chi.Router) {
		r.Get("/candy", api.ListTallies)
		r.Post("/candy", api.AddTally)
		r.Post("/candy/reset", api.ResetTallies)
		r.Get("/candy/compare", api.CompareYears)
		r.Put("/candy/{id}", api.UpdateTally)
		r.Delete("/candy/{id}", api.DeleteTally)
		r.Get("/years", api.ListYears)
		r.Get("/catalog", api.ListCatalog)
		r.Post("/catalog", api.CreateCatalogItem)
		r.Put("/catalog/{id}", api.UpdateCatalogItem)
		r.Post("/catalog/{id}/deactivate", api.SetCatalogActive(false))
		r.Post("/catalog/{id}/activate", api.SetCatalogActive(true))
		r.Post("/catalog/merge", api.MergeCatalogItems)
	})

	return &testApp{db: db, mux: mux, tallies: tallies, catalog: catalogStore}
}

// testName returns a unique candy name so test runs never collide on
// the catalog's name uniqueness.
func testName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// createItem inserts a catalog item and registers cleanup of the item
// and any tallies pointing at it.
func (app *testApp) createItem(t *testing.T, name string) int64 {
	t.Helper()
	item, err := app.catalog.Create(name, "")
	if err != nil {
		t.Fatalf("create catalog item %q: %v", name, err)
	}
	t.Cleanup(func() {
		app.db.Exec("DELETE FROM candy_counts WHERE catalog_id = $1", item.ID)
		app.db.Exec("DELETE FROM candy_catalog WHERE id = $1", item.ID)
	})
	return item.ID
}
