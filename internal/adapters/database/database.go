package database

import (
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"
)

// Open connects to postgres when a database url is configured, otherwise to
// the sqlite file in the data dir. It returns the schema the tables live in.
func Open(databaseURL string, dataDir string, isTesting bool) (*sqlx.DB, string, error) {
	if databaseURL != "" {
		db, err := NewPostgresDatabase(databaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open postgres database: %w", err)
		}
		return db, GetSchemaName(db, isTesting), nil
	}

	db, err := NewSQLiteDatabase(filepath.Join(dataDir, SQLITE_FILE_NAME))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, GetSchemaName(db, isTesting), nil
}

func GetSchemaName(db *sqlx.DB, isTesting bool) string {
	if db.DriverName() == SQLITE_DRIVER {
		return SQLITE_SCHEMA
	}
	if isTesting {
		return TESTING_SCHEMA
	}
	return MAIN_SCHEMA
}
