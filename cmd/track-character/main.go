// Command track-character manages the roster of characters the overlay follows.
//
//	track-character add <name>
//	track-character remove <name>
//	track-character list
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Amund211/censusoverlay/internal/adapters/cache"
	"github.com/Amund211/censusoverlay/internal/adapters/censusapi"
	"github.com/Amund211/censusoverlay/internal/adapters/characterprovider"
	"github.com/Amund211/censusoverlay/internal/adapters/characterrepository"
	"github.com/Amund211/censusoverlay/internal/adapters/database"
	"github.com/Amund211/censusoverlay/internal/app"
	"github.com/Amund211/censusoverlay/internal/config"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/logging"

	_ "golang.org/x/crypto/x509roots/fallback"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: track-character add <name> | remove <name> | list")
	os.Exit(2)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]
	name := ""
	switch command {
	case "add", "remove":
		if len(os.Args) != 3 || os.Args[2] == "" {
			usage()
		}
		name = os.Args[2]
	case "list":
	default:
		usage()
	}

	ctx := logging.AddToContext(context.Background(), logger)

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}

	if err := os.MkdirAll(config.DataDir(), 0o755); err != nil {
		fail("Failed to create data dir", "error", err.Error(), "dataDir", config.DataDir())
	}

	db, schemaName, err := database.Open(config.DatabaseURL(), config.DataDir(), !config.IsProduction())
	if err != nil {
		fail("Failed to initialize database", "error", err.Error())
	}
	defer db.Close()

	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
	if err != nil {
		fail("Failed to migrate database", "error", err.Error())
	}

	repo := characterrepository.NewSQLCharacterRepository(db, schemaName)

	switch command {
	case "list":
		characters, err := repo.LoadMyCharacters(ctx)
		if err != nil {
			fail("Failed to load roster", "error", err.Error())
		}
		for _, character := range characters {
			worldID := "-"
			if character.WorldID != nil {
				worldID = *character.WorldID
			}
			fmt.Printf("%s\t%s\t%s\n", character.CharacterID, character.Name, worldID)
		}

	case "remove":
		if err := app.BuildUntrackCharacter(repo)(ctx, name); err != nil {
			fail("Failed to remove character", "error", err.Error(), "name", name)
		}
		fmt.Printf("Removed %s\n", name)

	case "add":
		censusClient, err := censusapi.NewClient(&http.Client{Timeout: 10 * time.Second}, config.CensusServiceID(), time.Now, time.After)
		if err != nil {
			fail("Failed to initialize census client", "error", err.Error())
		}
		provider, err := characterprovider.NewCensusCharacterProvider(censusClient)
		if err != nil {
			fail("Failed to initialize character provider", "error", err.Error())
		}

		nameCache, stopNameCache := cache.NewTTLCache[domain.CharacterEntry](time.Minute)
		defer stopNameCache()
		lookup := app.BuildLookupCharacterByName(nameCache, repo, provider, config.BatchLookupTimeout())

		entry, err := app.BuildTrackCharacter(lookup, repo)(ctx, name)
		if err != nil {
			fail("Failed to add character", "error", err.Error(), "name", name)
		}
		fmt.Printf("Tracking %s (%s)\n", entry.Name, entry.CharacterID)
	}
}
