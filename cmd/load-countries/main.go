package main

import (
	"flag"
	"os"

	"github.com/evyataryagoni/geodbsync/internal/config"
	"github.com/evyataryagoni/geodbsync/internal/geodb"
	"github.com/evyataryagoni/geodbsync/internal/logger"
	"github.com/evyataryagoni/geodbsync/internal/store"
)

// This tool pushes the committed country CSV into the Redis or MySQL store
// Usage: go run ./cmd/load-countries [-target redis|mysql] [-csv path]
func main() {
	appConfig := config.Load()
	log := logger.New(logger.Config{Level: appConfig.LogLevel, Pretty: true}).WithComponent("load-countries")

	target := flag.String("target", appConfig.DatastoreType, "country store to load: redis or mysql")
	csvPath := flag.String("csv", geodb.Layout{Root: appConfig.DBDir}.CountryCSV(), "country CSV to load")
	flag.Parse()

	switch *target {
	case "redis":
		log.Info().Str("addr", appConfig.RedisAddr).Msg("Connecting to Redis")
		redisStore, err := store.NewRedisStore(appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB, *csvPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisStore.Close()

		if err := redisStore.Reload(); err != nil {
			log.Fatal().Err(err).Str("path", *csvPath).Msg("Failed to load countries")
		}

	case "mysql":
		db, err := store.OpenMySQL(appConfig.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MySQL")
		}
		mysqlStore := store.NewMySQLStore(db, *csvPath)
		defer mysqlStore.Close()

		if err := mysqlStore.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate")
		}
		if err := mysqlStore.Reload(); err != nil {
			log.Fatal().Err(err).Str("path", *csvPath).Msg("Failed to load countries")
		}

	default:
		log.Error().Str("target", *target).Msg("Target must be redis or mysql")
		os.Exit(2)
	}

	log.Info().Str("target", *target).Str("path", *csvPath).Msg("Countries loaded successfully")
}
