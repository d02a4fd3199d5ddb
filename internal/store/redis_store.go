package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/evyataryagoni/geodbsync/internal/countries"
	"github.com/evyataryagoni/geodbsync/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// countriesKey holds one field per ISO2 code, each a JSON-encoded Country
	countriesKey = "geodb:countries"
	stagingKey   = "geodb:countries:staging"
)

// RedisStore implements Store on top of a Redis hash so that several
// API instances can share one country table.
type RedisStore struct {
	client  *redis.Client
	ctx     context.Context
	csvPath string

	// ownsClient is false when the client is shared with other components
	ownsClient bool
}

// NewRedisStore creates a new Redis store
//
// Parameters:
//   - addr: Redis server address (e.g., "localhost:6379")
//   - password: Redis password (empty string if no password)
//   - db: Redis database number
//   - csvPath: committed country CSV used by Reload
func NewRedisStore(addr, password string, db int, csvPath string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:     client,
		ctx:        ctx,
		csvPath:    csvPath,
		ownsClient: true,
	}, nil
}

// NewRedisStoreFromClient builds a store on a client owned by the caller.
// Close leaves the client open.
func NewRedisStoreFromClient(client *redis.Client, csvPath string) *RedisStore {
	return &RedisStore{
		client:  client,
		ctx:     context.Background(),
		csvPath: csvPath,
	}
}

// FindByCode reads one field of the countries hash
func (s *RedisStore) FindByCode(code string) (*models.Country, error) {
	val, err := s.client.HGet(s.ctx, countriesKey, code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCountryNotFound
		}
		return nil, fmt.Errorf("Redis query failed: %w", err)
	}

	var country models.Country
	if err := json.Unmarshal([]byte(val), &country); err != nil {
		return nil, fmt.Errorf("failed to decode country: %w", err)
	}
	return &country, nil
}

// Reload replaces the hash from the committed CSV
func (s *RedisStore) Reload() error {
	return s.LoadFromCSV(s.csvPath)
}

// LoadFromCSV parses csvPath and replaces the countries hash. The new table
// is written under a staging key and renamed over the live one, so readers
// see either the old or the new table.
func (s *RedisStore) LoadFromCSV(csvPath string) error {
	table, err := countries.Load(csvPath)
	if err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	if len(table) == 0 {
		return fmt.Errorf("country CSV %s has no rows", csvPath)
	}

	fields := make(map[string]interface{}, len(table))
	for code, country := range table {
		data, err := json.Marshal(country)
		if err != nil {
			return fmt.Errorf("failed to encode country %s: %w", code, err)
		}
		fields[code] = data
	}

	_, err = s.client.TxPipelined(s.ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(s.ctx, stagingKey)
		pipe.HSet(s.ctx, stagingKey, fields)
		pipe.Rename(s.ctx, stagingKey, countriesKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store countries in Redis: %w", err)
	}
	return nil
}

// IsEmpty reports whether the countries hash has been populated
func (s *RedisStore) IsEmpty() (bool, error) {
	n, err := s.client.Exists(s.ctx, countriesKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check Redis keys: %w", err)
	}
	return n == 0, nil
}

// Close closes the Redis connection if the store opened it
func (s *RedisStore) Close() error {
	if s.client != nil && s.ownsClient {
		return s.client.Close()
	}
	return nil
}
