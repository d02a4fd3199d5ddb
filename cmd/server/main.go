package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/geodbsync/internal/config"
	"github.com/evyataryagoni/geodbsync/internal/geodb"
	"github.com/evyataryagoni/geodbsync/internal/handler"
	"github.com/evyataryagoni/geodbsync/internal/limiter"
	"github.com/evyataryagoni/geodbsync/internal/logger"
	"github.com/evyataryagoni/geodbsync/internal/metrics"
	"github.com/evyataryagoni/geodbsync/internal/observer"
	"github.com/evyataryagoni/geodbsync/internal/router"
	"github.com/evyataryagoni/geodbsync/internal/service"
	"github.com/evyataryagoni/geodbsync/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	appConfig := config.Load()
	appLogger := setupLogger(appConfig)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsCollector := setupMetrics(appLogger)

	redisClient := setupRedisClient(appConfig, appLogger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	mysqlDB := setupMySQL(appConfig, appLogger)

	opts := setupOptions(appConfig, appLogger)
	layout := geodb.Layout{Root: opts.Root}

	readers := geodb.NewReaders(opts)
	if err := readers.Reload(); err != nil {
		appLogger.Warn().Err(err).Msg("Failed to open committed databases, waiting for the next update")
	}
	defer readers.Close()

	dataStore := setupDataStore(appConfig, redisClient, mysqlDB, layout.CountryCSV(), appLogger)

	rateLimiter := setupRateLimiter(appConfig, redisClient, appLogger)
	defer rateLimiter.Close()

	oracle := geodb.NewOracle(opts, appLogger)
	publisher := geodb.NewPublisher(opts, oracle, geodb.NewFetcher(opts, appLogger), appLogger)
	cycleObserver := setupObservers(appConfig, metricsCollector, redisClient, mysqlDB, appLogger,
		observer.Target{Name: "databases", Reloader: readers},
		observer.Target{Name: "countries", Reloader: dataStore},
	)
	driver := geodb.NewDriver(publisher, appConfig.CheckInterval, cycleObserver, appLogger)

	geoService := service.NewGeoService(readers, dataStore, metricsCollector, appLogger)
	defer geoService.Close()

	appRouter := router.SetupRouter(router.Dependencies{
		Geo:     handler.NewGeoHandler(geoService),
		Sync:    handler.NewSyncHandler(driver, oracle),
		Limiter: rateLimiter,
		Metrics: metricsCollector,
		Logger:  appLogger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := driver.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return startServer(gctx, appConfig, appRouter, appLogger)
	})

	if err := g.Wait(); err != nil {
		appLogger.Fatal().Err(err).Msg("Server failed")
	}
	appLogger.Info().Msg("Shutdown complete")
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:      appConfig.LogLevel,
		Pretty:     appConfig.LogPretty,
		OutputFile: appConfig.LogFile,
	})

	appLogger.Info().Msg("Starting GeoDB Sync Server...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("db_dir", appConfig.DBDir).
		Bool("frozen", appConfig.Frozen).
		Strs("editions", appConfig.Editions).
		Dur("refresh_interval", appConfig.RefreshInterval).
		Dur("check_interval", appConfig.CheckInterval).
		Bool("parallel_fetch", appConfig.ParallelFetch).
		Strs("observers", appConfig.Observers).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Int("rate_limit_window", appConfig.RateLimitWindow).
		Str("datastore_type", appConfig.DatastoreType).
		Bool("license_key_set", appConfig.LicenseKey != "").
		Msg("Configuration loaded")

	if appConfig.LicenseKey == "" {
		appLogger.Warn().Msg("MAXMIND_KEY is not set, database updates will fail")
	}
	return appLogger
}

// setupOptions converts configuration into the update cycle options
func setupOptions(appConfig *config.Config, log *logger.Logger) geodb.Options {
	kinds, err := geodb.KindsFromNames(appConfig.Editions)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid GEODB_EDITIONS")
	}

	return geodb.Options{
		Root:            appConfig.DBDir,
		LicenseKey:      appConfig.LicenseKey,
		Frozen:          appConfig.Frozen,
		Kinds:           kinds,
		RefreshInterval: appConfig.RefreshInterval,
		DownloadURL:     appConfig.DownloadURL,
		CountryCSVURL:   appConfig.CountryCSVURL,
		ParallelFetch:   appConfig.ParallelFetch,
		HTTPClient:      &http.Client{Timeout: appConfig.DownloadTimeout},
	}
}

// setupRedisClient opens the shared client used by the Redis country store,
// limiter and observer. Returns nil when none is configured.
func setupRedisClient(appConfig *config.Config, log *logger.Logger) *redis.Client {
	if appConfig.DatastoreType != "redis" && appConfig.RateLimitType != "redis" && !appConfig.HasObserver("redis") {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     appConfig.RedisAddr,
		Password: appConfig.RedisPassword,
		DB:       appConfig.RedisDB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", appConfig.RedisAddr).Msg("Failed to connect to Redis")
	}
	log.Info().Str("addr", appConfig.RedisAddr).Msg("Redis client initialized")
	return client
}

// setupMySQL opens the shared GORM connection for the MySQL store and the
// cycle history. Returns nil when neither is configured.
func setupMySQL(appConfig *config.Config, log *logger.Logger) *gorm.DB {
	if appConfig.DatastoreType != "mysql" && !appConfig.HasObserver("mysql") {
		return nil
	}

	db, err := store.OpenMySQL(appConfig.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MySQL")
	}
	log.Info().Msg("MySQL connection initialized")
	return db
}

// setupDataStore initializes the country store based on configuration
// Supports CSV, MySQL, and Redis backends
func setupDataStore(appConfig *config.Config, client *redis.Client, db *gorm.DB, csvPath string, log *logger.Logger) store.Store {
	switch appConfig.DatastoreType {
	case "csv":
		csvStore, err := store.NewCSVStore(csvPath)
		if err != nil {
			log.Warn().Err(err).Msg("Country CSV not loaded yet, waiting for the next update")
		}
		log.Info().Int("countries", csvStore.Len()).Msg("CSV store initialized")
		return csvStore

	case "mysql":
		mysqlStore := store.NewMySQLStore(db, csvPath)
		if err := mysqlStore.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize MySQL store")
		}
		if err := mysqlStore.Reload(); err != nil {
			log.Warn().Err(err).Msg("Failed to load countries into MySQL")
		}
		log.Info().Msg("MySQL store initialized")
		return mysqlStore

	case "redis":
		redisStore := store.NewRedisStoreFromClient(client, csvPath)
		loadRedisDataIfEmpty(redisStore, csvPath, log)
		log.Info().Msg("Redis store initialized")
		return redisStore

	default:
		log.Fatal().Str("type", appConfig.DatastoreType).Msg("Unknown datastore type")
		return nil
	}
}

// loadRedisDataIfEmpty seeds Redis from the committed CSV on first start
func loadRedisDataIfEmpty(redisStore *store.RedisStore, csvPath string, log *logger.Logger) {
	isEmpty, err := redisStore.IsEmpty()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check if Redis is empty")
		return
	}

	if isEmpty {
		log.Info().Str("path", csvPath).Msg("Redis is empty, loading countries from CSV")
		if err := redisStore.LoadFromCSV(csvPath); err != nil {
			log.Warn().Err(err).Msg("Failed to load countries")
		}
	}
}

// setupRateLimiter initializes the rate limiter
// Supports in-memory and Redis-based rate limiting
func setupRateLimiter(appConfig *config.Config, client *redis.Client, log *logger.Logger) limiter.Limiter {
	window := time.Duration(appConfig.RateLimitWindow) * time.Second

	rateLimiter, err := limiter.New(limiter.Config{
		Type:   appConfig.RateLimitType,
		Limit:  appConfig.RateLimit,
		Window: window,
		Redis:  client,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	log.Info().
		Str("type", appConfig.RateLimitType).
		Int("limit", appConfig.RateLimit).
		Dur("window", window).
		Msg("Rate limiter initialized")
	return rateLimiter
}

// setupMetrics initializes the Prometheus metrics collector
func setupMetrics(log *logger.Logger) *metrics.Metrics {
	metricsCollector := metrics.New(prometheus.DefaultRegisterer)
	log.Info().Msg("Metrics initialized")
	return metricsCollector
}

// setupObservers composes the cycle observers named in GEODB_OBSERVERS.
// The reload hook is always installed.
func setupObservers(appConfig *config.Config, m *metrics.Metrics, client *redis.Client, db *gorm.DB, log *logger.Logger, targets ...observer.Target) geodb.Observer {
	observers := []geodb.Observer{observer.NewReloadObserver(m, log, targets...)}

	if appConfig.HasObserver("metrics") {
		observers = append(observers, observer.NewMetricsObserver(m))
	}
	if appConfig.HasObserver("redis") {
		observers = append(observers, observer.NewRedisObserver(client, log))
	}
	if appConfig.HasObserver("mysql") {
		history := observer.NewHistoryObserver(db, log)
		if err := history.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cycle history")
		}
		observers = append(observers, history)
	}

	return observer.Multi(observers...)
}

// startServer serves until ctx is cancelled, then drains in-flight requests
func startServer(ctx context.Context, appConfig *config.Config, appRouter http.Handler, log *logger.Logger) error {
	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("port", appConfig.Port).
		Str("api_endpoint", "http://localhost:"+appConfig.Port+"/v1/lookup?ip=<ip>").
		Str("status", "http://localhost:"+appConfig.Port+"/v1/status").
		Str("health_check", "http://localhost:"+appConfig.Port+"/health").
		Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
		Msg("Server is running")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
