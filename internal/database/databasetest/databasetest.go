package databasetest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/wichananm65/pet-shop-admin/internal/database"
)

// Open returns a private in-memory sqlite database with the schema applied.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.Setup(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
