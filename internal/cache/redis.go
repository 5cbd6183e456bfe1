package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
)

const defaultListTTL = 10 * time.Minute

// NewRedisClient creates a go-redis client from a URL such as "redis://localhost:6379/0".
func NewRedisClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// RedisListCache stores the JSON encoded activity list of a destination next
// to a generation counter. Read and write failures are logged and treated as misses.
// Generation keys carry no TTL so a counter never restarts under a pending Set.
type RedisListCache struct {
	rdb    goredis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// unknownGeneration never matches a stored generation, so a Set after a failed Get is skipped.
const unknownGeneration int64 = -1

var errStaleGeneration = errors.New("activity list generation changed")

// NewRedisListCache constructs a RedisListCache. A non-positive ttl selects the default.
func NewRedisListCache(rdb goredis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisListCache {
	if ttl <= 0 {
		ttl = defaultListTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisListCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get implements domain.ListCache. The list and its generation are read in one MGET.
func (c *RedisListCache) Get(ctx context.Context, ownerID string, destinationID int64) ([]domain.Activity, int64, bool) {
	values, err := c.rdb.MGet(ctx, listKey(ownerID, destinationID), generationKey(ownerID, destinationID)).Result()
	if err != nil {
		c.logger.Warn("activity list cache MGET failed", "destination_id", destinationID, "error", err)
		return nil, unknownGeneration, false
	}

	generation, err := parseGeneration(values[1])
	if err != nil {
		c.logger.Warn("activity list generation is corrupt", "destination_id", destinationID, "error", err)
		return nil, unknownGeneration, false
	}

	data, ok := values[0].(string)
	if !ok {
		return nil, generation, false
	}
	var activities []domain.Activity
	if err := json.Unmarshal([]byte(data), &activities); err != nil {
		c.logger.Warn("activity list cache entry is corrupt", "destination_id", destinationID, "error", err)
		return nil, generation, false
	}
	return activities, generation, true
}

// Set implements domain.ListCache. The write runs in a WATCH transaction on the
// generation key and is dropped when the generation moved since Get.
func (c *RedisListCache) Set(ctx context.Context, ownerID string, destinationID int64, generation int64, activities []domain.Activity) {
	if generation == unknownGeneration {
		return
	}
	encoded, err := json.Marshal(activities)
	if err != nil {
		c.logger.Warn("failed to marshal activity list for cache", "destination_id", destinationID, "error", err)
		return
	}

	genKey := generationKey(ownerID, destinationID)
	err = c.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, listKey(ownerID, destinationID), encoded, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, goredis.TxFailedErr):
		c.logger.Debug("activity list changed while loading, not caching", "destination_id", destinationID)
	default:
		c.logger.Warn("activity list cache SET failed", "destination_id", destinationID, "error", err)
	}
}

// Invalidate implements domain.ListCache.
func (c *RedisListCache) Invalidate(ctx context.Context, ownerID string, destinationID int64) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(ownerID, destinationID))
		pipe.Del(ctx, listKey(ownerID, destinationID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate activity list cache: %w", err)
	}
	return nil
}

func listKey(ownerID string, destinationID int64) string {
	return fmt.Sprintf("itinerary:activities:%s:%d", ownerID, destinationID)
}

func generationKey(ownerID string, destinationID int64) string {
	return listKey(ownerID, destinationID) + ":gen"
}

func parseGeneration(value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected generation type %T", value)
	}
}
