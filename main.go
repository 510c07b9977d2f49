package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/Amund211/censusoverlay/internal/adapters/cache"
	"github.com/Amund211/censusoverlay/internal/adapters/censusapi"
	"github.com/Amund211/censusoverlay/internal/adapters/characterprovider"
	"github.com/Amund211/censusoverlay/internal/adapters/characterrepository"
	"github.com/Amund211/censusoverlay/internal/adapters/database"
	"github.com/Amund211/censusoverlay/internal/adapters/eventstream"
	"github.com/Amund211/censusoverlay/internal/adapters/filestore"
	"github.com/Amund211/censusoverlay/internal/adapters/weaponprovider"
	"github.com/Amund211/censusoverlay/internal/app"
	"github.com/Amund211/censusoverlay/internal/catalog"
	"github.com/Amund211/censusoverlay/internal/config"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/ingest"
	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/Amund211/censusoverlay/internal/lookup"
	"github.com/Amund211/censusoverlay/internal/overlay"
	"github.com/Amund211/censusoverlay/internal/ports"
	"github.com/Amund211/censusoverlay/internal/refdata"
	"github.com/Amund211/censusoverlay/internal/reporting"
	"github.com/Amund211/censusoverlay/internal/session"
	"github.com/Amund211/censusoverlay/internal/sidechannel"
	"github.com/Amund211/censusoverlay/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/crypto/x509roots/fallback"
)

const shutdownTimeout = 10 * time.Second

func main() {
	exitCode := 0
	// Registered first so it runs after every other deferred cleanup
	defer func() { os.Exit(exitCode) }()

	instanceID := uuid.New().String()
	logger := slog.New(logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil))).With("instanceID", instanceID)
	slog.SetDefault(logger)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.AddToContext(ctx, logger)

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	if config.OTelEnabled() {
		shutdownOTel, err := telemetry.SetupOTelSDK(ctx, "census-overlay")
		if err != nil {
			fail("Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer func() {
			if err := shutdownOTel(context.Background()); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	if err := os.MkdirAll(config.DataDir(), 0o755); err != nil {
		fail("Failed to create data dir", "error", err.Error(), "dataDir", config.DataDir())
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	censusClient, err := censusapi.NewClient(httpClient, config.CensusServiceID(), time.Now, time.After)
	if err != nil {
		fail("Failed to initialize census client", "error", err.Error())
	}
	characterProvider, err := characterprovider.NewCensusCharacterProvider(censusClient)
	if err != nil {
		fail("Failed to initialize character provider", "error", err.Error())
	}
	weaponProvider, err := weaponprovider.NewCensusWeaponProvider(censusClient)
	if err != nil {
		fail("Failed to initialize weapon provider", "error", err.Error())
	}
	logger.Info("Initialized census providers")

	logger.Info("Initializing database connection")
	db, schemaName, err := database.Open(config.DatabaseURL(), config.DataDir(), !config.IsProduction())
	if err != nil {
		fail("Failed to initialize database", "error", err.Error())
	}
	defer db.Close()

	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
	if err != nil {
		fail("Failed to migrate database", "error", err.Error())
	}
	logger.Info("Initialized database", "driver", db.DriverName(), "schema", schemaName)

	characterRepo := characterrepository.NewSQLCharacterRepository(db, schemaName)

	playerCache, err := characterRepo.LoadPlayerCache(ctx)
	if err != nil {
		// NOTE: The repository reports its own errors. Names are fetched again as players are seen.
		logger.Warn("Failed to load player cache", "error", err.Error())
	}
	knownIDs := slices.Sorted(maps.Keys(playerCache.Names))

	characterMemo := cache.LoadPersisted[domain.PlayerCacheEntry](ctx, characterrepository.NewPlayerCacheStore(characterRepo), cache.FlushImmediately())
	weaponCache := cache.LoadPersisted[domain.WeaponCacheEntry](ctx, filestore.NewWeaponCacheStore(config.DataDir()), cache.FlushAfter(8))
	defer func() {
		if err := weaponCache.Close(context.Background()); err != nil {
			logger.Error("Failed to flush weapon cache", "error", err.Error())
		}
	}()

	characterByNameCache, stopCharacterByNameCache := cache.NewTTLCache[domain.CharacterEntry](10 * time.Minute)
	defer stopCharacterByNameCache()

	pool := lookup.NewPool(config.LookupWorkers())
	defer pool.Wait()

	resolver := app.NewCharacterResolver(characterMemo, characterRepo, characterProvider, config.LookupTimeout())
	classifyWeapon := app.BuildClassifyWeapon(weaponCache, weaponProvider, config.WeaponLookupEnabled(), config.LookupTimeout())
	lookupCharacterByName := app.BuildLookupCharacterByName(characterByNameCache, characterRepo, characterProvider, config.LookupTimeout())
	loadTrackedCharacters := app.BuildLoadTrackedCharacters(characterRepo, config.CharacterID())

	assets := catalog.DetectAssetRoots(config.AssetsDir())
	configPath, _ := catalog.LocateConfigFile(config.ConfigPath())
	events, streakTemplate := catalog.Load(ctx, configPath, assets)
	vehicles := refdata.LoadVehicleEventMaps(ctx, assets)
	facilities := refdata.LoadFacilityMap(ctx, assets)

	gunnerKills, vehicleKills, repairs := vehicles.Counts()
	logger.Info(
		"Loaded presentation data",
		"assetRoots", assets.Dirs(),
		"configPath", configPath,
		"events", events.Len(),
		"streakActive", streakTemplate.Active,
		"gunnerKillExperiences", gunnerKills,
		"vehicleKillExperiences", vehicleKills,
		"repairExperiences", repairs,
		"facilities", facilities.Len(),
		"knownCharacters", len(knownIDs),
	)

	engine := session.NewEngine(
		session.Config{
			MultiKillWindow:     config.MultiKillWindow(),
			DuplicateKillWindow: config.DuplicateKillWindow(),
			KDModeRevive:        config.KDModeRevive(),
		},
		overlay.NewPresenter(events, streakTemplate, overlay.ChooseByClock),
		vehicles,
		facilities,
		session.Resolvers{
			ClassifyWeapon: classifyWeapon,
			ResolveName:    resolver.ResolveName,
		},
		pool,
		time.Now,
	)

	side := sidechannel.New(
		characterProvider,
		characterRepo,
		resolver.Remember,
		pool,
		config.BatchLookupTimeout(),
		knownIDs,
	)

	tracked, err := loadTrackedCharacters(ctx)
	if err != nil {
		logger.Warn("Failed to load character roster, tracking the configured character only", "error", err.Error())
	}
	logger.Info("Loaded tracked characters", "characterIDs", tracked)

	dialer, err := eventstream.NewDialer(config.CensusServiceID())
	if err != nil {
		fail("Failed to initialize event stream dialer", "error", err.Error())
	}
	dial := func(ctx context.Context) (ingest.Stream, error) {
		stream, err := dialer.Connect(ctx)
		if err != nil {
			return nil, err
		}
		return stream, nil
	}

	hub := ports.NewHub()
	loop := ingest.NewLoop(
		dial,
		engine,
		side,
		hub,
		tracked,
		config.CharacterID(),
		config.ReconnectDelay(),
		time.Now,
		time.After,
	)

	allowedOrigins, err := ports.NewAllowedOrigins(config.AllowedOrigins()...)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}
	portOptions := ports.PortOptions{
		RootLogger:       logger,
		SentryMiddleware: sentryMiddleware,
		AllowedOrigins:   allowedOrigins,
	}

	mux := http.NewServeMux()

	mux.HandleFunc(
		"GET /v1/overlay/stream",
		ports.MakeOverlayStreamHandler(hub, portOptions),
	)

	mux.HandleFunc(
		"OPTIONS /v1/session",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"GET /v1/session",
		ports.MakeGetSessionHandler(engine, time.Now, portOptions),
	)

	mux.HandleFunc(
		"OPTIONS /v1/character/name/{name}",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"GET /v1/character/name/{name}",
		ports.MakeGetCharacterByNameHandler(lookupCharacterByName, portOptions),
	)

	mux.HandleFunc("GET /healthz", ports.MakeHealthHandler(hub))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port()),
		Handler:           otelhttp.NewHandler(mux, "census-overlay"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Init complete")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := loop.Run(reporting.NewBackgroundContext(gctx, "ingest"))
		if errors.Is(err, domain.ErrSinkClosed) && gctx.Err() != nil {
			// The hub closes during shutdown
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Exited with error", "error", err.Error())
		exitCode = 1
		return
	}
	logger.Info("Server shutdown")
}
