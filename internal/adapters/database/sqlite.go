package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const SQLITE_DRIVER = "sqlite"

const SQLITE_FILE_NAME = "ps2_master.db"

// SQLite only has the one schema per database file
const SQLITE_SCHEMA = "main"

func init() {
	sqlx.BindDriver(SQLITE_DRIVER, sqlx.QUESTION)
}

func NewSQLiteDatabase(path string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sqlx.Connect(SQLITE_DRIVER, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db at %s: %w", path, err)
	}

	// Serialize writers on the single file
	db.SetMaxOpenConns(1)

	return db, nil
}
