package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func postgresConnectionString(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres tests in short mode.")
	}
	connectionString := os.Getenv("OVERLAY_TEST_POSTGRES")
	if connectionString == "" {
		t.Skip("skipping postgres tests without OVERLAY_TEST_POSTGRES")
	}
	return connectionString
}

func tableNames(t *testing.T, db *sqlx.DB, query string) []string {
	t.Helper()

	var names []string
	require.NoError(t, db.Select(&names, query))
	return names
}

func TestSQLiteMigrator(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("migrate up is idempotent", func(t *testing.T) {
		t.Parallel()

		db, err := NewSQLiteDatabase(filepath.Join(t.TempDir(), "nested", SQLITE_FILE_NAME))
		require.NoError(t, err)
		defer db.Close()

		migrator := NewDatabaseMigrator(db, logger)
		require.NoError(t, migrator.Migrate(t.Context(), SQLITE_SCHEMA))
		require.NoError(t, migrator.Migrate(t.Context(), SQLITE_SCHEMA))

		names := tableNames(t, db, "SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('player_cache', 'my_chars') ORDER BY name")
		require.Equal(t, []string{"my_chars", "player_cache"}, names)

		// The handle is still usable after migrating
		require.NoError(t, db.PingContext(t.Context()))
	})

	t.Run("open defaults to sqlite in the data dir", func(t *testing.T) {
		t.Parallel()

		dataDir := t.TempDir()
		db, schema, err := Open("", dataDir, false)
		require.NoError(t, err)
		defer db.Close()

		require.Equal(t, SQLITE_SCHEMA, schema)
		require.Equal(t, SQLITE_DRIVER, db.DriverName())
		require.FileExists(t, filepath.Join(dataDir, SQLITE_FILE_NAME))
	})
}

func TestPostgresMigrator(t *testing.T) {
	connectionString := postgresConnectionString(t)
	t.Parallel()

	t.Run("migrate up and down", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		schemaName := "migrate_up_down"

		db, err := NewPostgresDatabase(connectionString)
		require.NoError(t, err)
		defer db.Close()

		db.MustExec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(schemaName)))

		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		migrator := NewDatabaseMigrator(db, logger)

		require.NoError(t, migrator.Migrate(ctx, schemaName), "error migrating up")

		names := tableNames(t, db, fmt.Sprintf(
			"SELECT table_name FROM information_schema.tables WHERE table_schema = '%s' AND table_name IN ('player_cache', 'my_chars') ORDER BY table_name",
			schemaName,
		))
		require.Equal(t, []string{"my_chars", "player_cache"}, names)

		instance, closeInstance, err := migrator.newInstance(ctx, schemaName)
		require.NoError(t, err)
		defer closeInstance()

		require.NoError(t, instance.Down(), "error migrating down") // Should not even be ErrNoChange
	})

	t.Run("schema name", func(t *testing.T) {
		t.Parallel()

		db, err := NewPostgresDatabase(connectionString)
		require.NoError(t, err)
		defer db.Close()

		require.Equal(t, MAIN_SCHEMA, GetSchemaName(db, false))
		require.Equal(t, TESTING_SCHEMA, GetSchemaName(db, true))
	})
}
