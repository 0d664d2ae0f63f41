package repo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/pressly/goose/v3"

	"github.com/pkordes/villa-admin/migrations"
	"github.com/pkordes/villa-admin/testutil"
)

// TestMain applies all pending migrations to the test database once for the
// whole package so individual tests never need to think about schema state.
func TestMain(m *testing.M) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		// No test DB configured: Postgres tests skip themselves, memory tests still run.
		os.Exit(m.Run())
	}

	db := testutil.MustOpenSQLDB(os.Getenv("TEST_DATABASE_URL"))
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		log.Fatalf("TestMain: create goose provider: %v", err)
	}

	if _, err := provider.Up(context.Background()); err != nil {
		log.Fatalf("TestMain: run migrations: %v", err)
	}

	os.Exit(m.Run())
}
