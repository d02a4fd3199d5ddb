package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default provider endpoints. The edition download URL gets the
// edition_id/license_key/suffix query appended per archive.
const (
	DefaultDownloadURL   = "https://download.maxmind.com/app/geoip_download"
	DefaultCountryCSVURL = "https://raw.githubusercontent.com/datasets/country-codes/master/data/country-codes.csv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Logging
	LogLevel  string
	LogPretty bool
	LogFile   string

	// Database sync
	DBDir           string        // root holding version, version.new, scratch/ and dbs/
	LicenseKey      string        // provider credential
	Frozen          bool          // never refresh once a committed version exists
	Editions        []string      // optional archive kinds: "asn", "city"
	RefreshInterval time.Duration // minimum age before a refresh is due
	CheckInterval   time.Duration // driver tick period
	ParallelFetch   bool
	DownloadURL     string
	CountryCSVURL   string
	DownloadTimeout time.Duration // zero keeps the HTTP client's default (none)

	// Cycle observers: any of "metrics", "redis", "mysql"
	Observers []string

	// Rate limiting
	RateLimitType   string // "memory" or "redis"
	RateLimit       int    // number of requests allowed
	RateLimitWindow int    // time window in seconds

	// Country datastore: "csv", "mysql" or "redis"
	DatastoreType string

	// MySQL configuration
	MySQLDSN string

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables
// with sensible defaults
func Load() *Config {
	// .env is optional; in containers the environment is set directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		Port: getEnv("PORT", "3000"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		LogFile:   getEnv("LOG_FILE", ""),

		DBDir:           getEnv("GL2_DBDIR", "./data/geolite2"),
		LicenseKey:      getEnv("MAXMIND_KEY", ""),
		Frozen:          getEnvAsBool("GEODB_FROZEN", false),
		Editions:        getEnvAsList("GEODB_EDITIONS", []string{"asn", "city"}),
		RefreshInterval: getEnvAsDuration("GEODB_REFRESH_INTERVAL", 7*24*time.Hour),
		CheckInterval:   getEnvAsDuration("GEODB_CHECK_INTERVAL", time.Hour),
		ParallelFetch:   getEnvAsBool("GEODB_PARALLEL_FETCH", false),
		DownloadURL:     getEnv("GEODB_DOWNLOAD_URL", DefaultDownloadURL),
		CountryCSVURL:   getEnv("GEODB_COUNTRY_CSV_URL", DefaultCountryCSVURL),
		DownloadTimeout: getEnvAsDuration("GEODB_DOWNLOAD_TIMEOUT", 0),

		Observers: getEnvAsList("GEODB_OBSERVERS", []string{"metrics"}),

		RateLimitType:   getEnv("RATE_LIMITER_TYPE", "memory"),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 10),
		RateLimitWindow: getEnvAsInt("RATE_LIMIT_WINDOW", 1),

		DatastoreType: getEnv("DATASTORE_TYPE", "csv"),

		MySQLDSN: getEnv("MYSQL_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
	}
}

// HasObserver reports whether the named cycle observer is enabled
func (c *Config) HasObserver(name string) bool {
	for _, o := range c.Observers {
		if o == name {
			return true
		}
	}
	return false
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool accepts anything strconv.ParseBool does
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration reads a Go duration string ("1h", "168h")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil || value < 0 {
		return defaultValue
	}

	return value
}

// getEnvAsList splits a comma separated variable, dropping blanks.
// An explicitly empty list can be requested with "none".
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	if strings.EqualFold(valueStr, "none") {
		return []string{}
	}

	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
