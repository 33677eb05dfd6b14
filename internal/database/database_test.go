package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/config"
)

func TestLookupDriverAliases(t *testing.T) {
	cases := map[string]string{
		"postgres": Postgres,
		"pg":       Postgres,
		" MySQL ":  MySQL,
		"sqlite":   SQLite,
		"sqlite3":  SQLite,
	}
	for in, want := range cases {
		d, err := lookupDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, d.name)
	}

	_, err := lookupDriver("oracle")
	assert.Error(t, err)
}

func TestMySQLDSNEnablesParseTime(t *testing.T) {
	dsn, err := mysqlDSN("ct:secret@tcp(db:3306)/sistemact")
	require.NoError(t, err)

	mc, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, mc.ParseTime)
	assert.Equal(t, "sistemact", mc.DBName)
	assert.Equal(t, "db:3306", mc.Addr)

	_, err = mysqlDSN("not a dsn")
	assert.Error(t, err)
}

func TestNewSQLiteLifecycle(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Database: config.Database{Driver: "sqlite3", WriterDSN: "file::memory:?cache=shared", MaxOpenConns: 10}}

	conns, err := New(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Same(t, conns.Writer, conns.Reader)
	assert.Equal(t, 1, conns.Writer.Stats().MaxOpenConnections)

	lc.RequireStart()
	var one int
	require.NoError(t, conns.Reader.NewRaw("SELECT 1").Scan(context.Background(), &one))
	assert.Equal(t, 1, one)
	lc.RequireStop()
}

func TestNewRejectsEmptyDSN(t *testing.T) {
	_, err := New(fxtest.NewLifecycle(t), config.Config{Database: config.Database{Driver: "sqlite"}}, zap.NewNop())
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: sales.sale_number")))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"}))
}
