package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratedatabase "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

type migrator struct {
	db *sqlx.DB

	logger *slog.Logger
}

func NewDatabaseMigrator(db *sqlx.DB, logger *slog.Logger) *migrator {
	return &migrator{
		db:     db,
		logger: logger,
	}
}

func (m *migrator) Migrate(ctx context.Context, schemaName string) error {
	instance, closeInstance, err := m.newInstance(ctx, schemaName)
	if err != nil {
		return err
	}
	defer closeInstance()

	m.logger.InfoContext(ctx, "Starting migrations...", slog.String("driver", m.db.DriverName()), slog.String("schema", schemaName))
	if err := instance.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.InfoContext(ctx, "No migrations to run.")
		} else {
			return fmt.Errorf("migrate: failed to migrate: %w", err)
		}
	}
	m.logger.InfoContext(ctx, "Migrations completed successfully.")

	return nil
}

func (m *migrator) newInstance(ctx context.Context, schemaName string) (*migrate.Migrate, func(), error) {
	migrationSource, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("migrate: failed to create driver from embedded migrations: %w", err)
	}

	var dbDriver migratedatabase.Driver
	var closeConn func()
	switch m.db.DriverName() {
	case SQLITE_DRIVER:
		dbDriver, err = sqlite.WithInstance(m.db.DB, &sqlite.Config{})
		if err != nil {
			migrationSource.Close()
			return nil, nil, fmt.Errorf("migrate: failed to create sqlite driver: %w", err)
		}
		closeConn = func() {}
	default:
		conn, err := m.db.Conn(ctx)
		if err != nil {
			migrationSource.Close()
			return nil, nil, fmt.Errorf("migrate: failed to connect to db: %w", err)
		}
		closeConn = func() { conn.Close() }

		_, err = conn.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(schemaName)))
		if err != nil {
			closeConn()
			migrationSource.Close()
			return nil, nil, fmt.Errorf("migrate: failed to create schema: %w", err)
		}

		_, err = conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(schemaName)))
		if err != nil {
			closeConn()
			migrationSource.Close()
			return nil, nil, fmt.Errorf("migrate: failed to set search path: %w", err)
		}

		dbDriver, err = postgres.WithConnection(ctx, conn, &postgres.Config{
			DatabaseName: DB_NAME,
			SchemaName:   schemaName,
		})
		if err != nil {
			closeConn()
			migrationSource.Close()
			return nil, nil, fmt.Errorf("migrate: failed to create postgres driver: %w", err)
		}
	}

	instance, err := migrate.NewWithInstance("iofs", migrationSource, m.db.DriverName(), dbDriver)
	if err != nil {
		closeConn()
		migrationSource.Close()
		return nil, nil, fmt.Errorf("migrate: failed to create migration instance: %w", err)
	}

	// NOTE: The instance itself is never closed, the sqlite driver would close the shared *sql.DB
	return instance, func() {
		migrationSource.Close()
		closeConn()
	}, nil
}
