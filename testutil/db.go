// Package testutil provides shared helpers for the Postgres integration tests.
// Every helper skips the calling test when TEST_DATABASE_URL is not set, so
// `go test ./...` stays green on machines without a database.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
)

// NewPool opens a *pgxpool.Pool against TEST_DATABASE_URL and closes it when
// the test finishes.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// NewTx begins a transaction on a fresh pool and rolls it back when the test
// finishes, so each test sees an untouched schema.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()

	tx, err := NewPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewSQLDB opens a *sql.DB through the pgx stdlib driver, for goose.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: open: %v", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		t.Fatalf("testutil.NewSQLDB: ping: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// MustOpenSQLDB is NewSQLDB for TestMain, where no *testing.T exists.
// Callers close the returned *sql.DB.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: open: " + err.Error())
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		panic("testutil.MustOpenSQLDB: ping: " + err.Error())
	}
	return db
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	return dsn
}
