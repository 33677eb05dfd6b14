// Package migrations embeds the goose SQL migrations, one directory per database dialect.
package migrations

import (
	"embed"
	"fmt"
	"path"
)

// FS holds every migration under sql/<dialect>/.
//
//go:embed sql/postgres/*.sql sql/mysql/*.sql sql/sqlite/*.sql
var FS embed.FS

// Root is the migrations directory inside FS.
const Root = "sql"

// Dialects lists the directories under Root.
var Dialects = []string{"postgres", "mysql", "sqlite"}

// Dir returns the migration directory for a database driver.
func Dir(driver string) (string, error) {
	switch driver {
	case "postgres", "pg":
		return path.Join(Root, "postgres"), nil
	case "mysql":
		return path.Join(Root, "mysql"), nil
	case "sqlite", "sqlite3":
		return path.Join(Root, "sqlite"), nil
	default:
		return "", fmt.Errorf("no migrations for driver %s", driver)
	}
}
