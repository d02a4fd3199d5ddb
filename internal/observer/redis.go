package observer

import (
	"context"
	"encoding/json"

	"github.com/evyataryagoni/geodbsync/internal/geodb"
	"github.com/evyataryagoni/geodbsync/internal/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// CyclesChannel receives one JSON Event per cycle
	CyclesChannel = "geodb:cycles"
	// LastCycleKey holds the JSON Event of the most recent cycle
	LastCycleKey = "geodb:last_cycle"
)

// RedisObserver publishes every cycle so other instances sharing the data
// directory or the Redis country store can react to updates.
type RedisObserver struct {
	client *redis.Client
	logger *logger.Logger
}

func NewRedisObserver(client *redis.Client, log *logger.Logger) *RedisObserver {
	return &RedisObserver{client: client, logger: log.WithComponent("RedisObserver")}
}

func (o *RedisObserver) OnCycleComplete(ctx context.Context, r geodb.CycleResult) {
	payload, err := json.Marshal(NewEvent(r))
	if err != nil {
		o.logger.Error().Err(err).Msg("Failed to encode cycle event")
		return
	}

	pipe := o.client.TxPipeline()
	pipe.Set(ctx, LastCycleKey, payload, 0)
	pipe.Publish(ctx, CyclesChannel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to publish cycle event")
	}
}

// LastEvent reads back the most recently published event
func LastEvent(ctx context.Context, client *redis.Client) (*Event, error) {
	raw, err := client.Get(ctx, LastCycleKey).Bytes()
	if err != nil {
		return nil, err
	}
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
