package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const DB_NAME = "censusoverlay"

const LOCAL_CONNECTION_STRING = "user=postgres password=postgres dbname=censusoverlay sslmode=disable"

const MAIN_SCHEMA = "census_overlay"
const TESTING_SCHEMA = "census_overlay_test"

func NewPostgresDatabase(connectionString string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	err = createDatabaseIfNotExists(db, DB_NAME)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return db, nil
}

func createDatabaseIfNotExists(db *sqlx.DB, dbName string) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM pg_database WHERE datname = $1", dbName); err != nil {
		return fmt.Errorf("createDB: failed to check if database exists: %w", err)
	}

	if count > 0 {
		return nil
	}

	_, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName)))
	if err != nil {
		return fmt.Errorf("createDB: failed to create database: %w", err)
	}

	return nil
}
