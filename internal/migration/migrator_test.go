package migration

import (
	"context"
	"database/sql"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/db/migrations"
	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/internal/database"
	"github.com/Additional-Code/sistemact/internal/entity"
)

func TestGooseDialect(t *testing.T) {
	cases := map[string]string{
		"postgres": "postgres",
		"pg":       "postgres",
		"mysql":    "mysql",
		"sqlite":   "sqlite3",
		"sqlite3":  "sqlite3",
	}
	for driver, want := range cases {
		got, err := gooseDialect(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, want, got)

		dir, err := migrations.Dir(driver)
		require.NoError(t, err, driver)
		assert.True(t, strings.HasPrefix(dir, migrations.Root+"/"), dir)
	}

	_, err := gooseDialect("oracle")
	assert.Error(t, err)
	_, err = migrations.Dir("oracle")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsMatchAcrossDialects(t *testing.T) {
	tables := []string{"sales", "platform_credentials", "tasks", "incoming_stock"}
	var names []string

	for _, dialect := range migrations.Dialects {
		files, err := fs.Glob(migrations.FS, path.Join(migrations.Root, dialect, "*.sql"))
		require.NoError(t, err)
		require.Len(t, files, 3, dialect)

		var all strings.Builder
		base := make([]string, 0, len(files))
		for _, f := range files {
			body, err := fs.ReadFile(migrations.FS, f)
			require.NoError(t, err)
			assert.Contains(t, string(body), "-- +goose Up", f)
			assert.Contains(t, string(body), "-- +goose Down", f)
			all.Write(body)
			base = append(base, path.Base(f))
		}
		for _, table := range tables {
			assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" ", dialect)
		}
		if dialect != "postgres" {
			assert.NotContains(t, all.String(), "BIGSERIAL", dialect)
			assert.NotContains(t, all.String(), "TIMESTAMPTZ", dialect)
		}

		if names == nil {
			names = base
		} else {
			assert.Equal(t, names, base, "%s versions differ", dialect)
		}
	}
}

func newSQLiteMigrator(t *testing.T) (*Migrator, *bun.DB) {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "sistemact.db"))
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{Database: config.Database{Driver: "sqlite"}}
	m, err := New(cfg, database.FromDB(db), zap.NewNop())
	require.NoError(t, err)
	return m, db
}

func TestUpAppliesSQLiteSchema(t *testing.T) {
	ctx := context.Background()
	m, db := newSQLiteMigrator(t)

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx))

	first := entity.OrderLine{SaleNumber: "M-1", SKU: "S", ProductName: "P", Quantity: 1, UnitPrice: decimal.NewFromInt(10), CustomerName: "C", DispatchPoint: entity.DispatchFlex}
	second := first
	second.SaleNumber = "TN-1-1"
	second.Completed = true
	second.SetSource(entity.SourceStorefront)
	rows := []entity.OrderLine{first, second}
	_, err := db.NewInsert().Model(&rows).Exec(ctx)
	require.NoError(t, err)

	var got []entity.OrderLine
	require.NoError(t, db.NewSelect().Model(&got).Order("id ASC").Scan(ctx))
	require.Len(t, got, 2)
	assert.NotZero(t, got[0].ID)
	assert.Greater(t, got[1].ID, got[0].ID)
	assert.False(t, got[0].CreatedAt.IsZero())
	assert.True(t, got[1].Completed)
	assert.True(t, got[1].IsStorefrontOrder)

	dup := []entity.OrderLine{first}
	_, err = db.NewInsert().Model(&dup).Exec(ctx)
	assert.True(t, database.IsUniqueViolation(err))

	task := entity.Task{Description: "Contar cajas", Priority: "media"}
	_, err = db.NewInsert().Model(&task).Exec(ctx)
	require.NoError(t, err)
	assert.NotZero(t, task.ID)

	require.NoError(t, m.Down(ctx, 0, true))
	_, err = db.NewSelect().Model((*entity.OrderLine)(nil)).Count(ctx)
	assert.Error(t, err)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(config.Config{Database: config.Database{Driver: "oracle"}}, &database.Connections{}, zap.NewNop())
	assert.Error(t, err)
}
