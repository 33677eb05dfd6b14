package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/config"
)

// Supported drivers, as accepted in DB_DRIVER.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// Connections bundles writer and reader bun instances.
type Connections struct {
	Writer *bun.DB
	Reader *bun.DB
}

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// New opens the writer pool and, when DB_READER_DSN differs, a separate reader pool.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	d, err := lookupDriver(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	writer, err := d.open(cfg.Database.WriterDSN, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	reader := writer
	if cfg.Database.ReaderDSN != "" && cfg.Database.ReaderDSN != cfg.Database.WriterDSN {
		if reader, err = d.open(cfg.Database.ReaderDSN, cfg.Database); err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("open reader: %w", err)
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := ping(ctx, writer); err != nil {
				return fmt.Errorf("ping writer: %w", err)
			}
			if reader != writer {
				if err := ping(ctx, reader); err != nil {
					return fmt.Errorf("ping reader: %w", err)
				}
			}
			logger.Info("database connected",
				zap.String("driver", d.name),
				zap.Bool("replica", reader != writer),
			)
			return nil
		},
		OnStop: func(context.Context) error {
			err := writer.Close()
			if reader != writer {
				err = errors.Join(err, reader.Close())
			}
			return err
		},
	})

	return &Connections{Writer: writer, Reader: reader}, nil
}

// FromDB wraps a single bun instance as both writer and reader.
func FromDB(db *bun.DB) *Connections {
	return &Connections{Writer: db, Reader: db}
}

type driver struct {
	name    string
	dialect func() schema.Dialect
	connect func(dsn string) (*sql.DB, error)
}

var drivers = map[string]driver{
	Postgres: {
		name:    Postgres,
		dialect: func() schema.Dialect { return pgdialect.New() },
		connect: func(dsn string) (*sql.DB, error) {
			return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), nil
		},
	},
	MySQL: {
		name:    MySQL,
		dialect: func() schema.Dialect { return mysqldialect.New() },
		connect: func(dsn string) (*sql.DB, error) {
			dsn, err := mysqlDSN(dsn)
			if err != nil {
				return nil, err
			}
			return sql.Open("mysql", dsn)
		},
	},
	SQLite: {
		name:    SQLite,
		dialect: func() schema.Dialect { return sqlitedialect.New() },
		connect: func(dsn string) (*sql.DB, error) {
			return sql.Open("sqlite3", dsn)
		},
	},
}

func lookupDriver(name string) (driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Postgres, "pg":
		return drivers[Postgres], nil
	case MySQL:
		return drivers[MySQL], nil
	case SQLite, "sqlite3":
		return drivers[SQLite], nil
	default:
		return driver{}, fmt.Errorf("unsupported database driver: %s", name)
	}
}

func (d driver) open(dsn string, cfg config.Database) (*bun.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("empty DSN")
	}
	sqldb, err := d.connect(dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	// every connection to an in-memory sqlite database sees its own empty schema
	if d.name == SQLite && strings.Contains(dsn, ":memory:") {
		sqldb.SetMaxOpenConns(1)
	}

	return bun.NewDB(sqldb, d.dialect()), nil
}

// mysqlDSN turns on parseTime so DATETIME columns scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	mc.ParseTime = true
	if mc.Loc == nil {
		mc.Loc = time.UTC
	}
	return mc.FormatDSN(), nil
}

func ping(ctx context.Context, db *bun.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
	sqliteUniqueFailed  = "UNIQUE constraint failed"
)

// IsUniqueViolation reports whether err is a unique constraint failure on any supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	return strings.Contains(err.Error(), sqliteUniqueFailed)
}
