// Package databasetest provides in-memory databases for repository tests.
package databasetest

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/Additional-Code/sistemact/internal/database"
	"github.com/Additional-Code/sistemact/internal/entity"
)

var models = []any{
	(*entity.OrderLine)(nil),
	(*entity.Credential)(nil),
	(*entity.Task)(nil),
	(*entity.IncomingStock)(nil),
}

// NewSQLite opens a private in-memory sqlite database with every table created.
func NewSQLite(t testing.TB) *database.Connections {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// each connection to :memory: is a separate database
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	return database.FromDB(db)
}
