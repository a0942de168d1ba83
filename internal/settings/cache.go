package settings

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKey = "coverage:settings"
	cacheTTL = 10 * time.Minute
)

// openRedisFromEnv returns a client when REDIS_HOST is configured, nil
// otherwise. The cache is strictly optional; a nil client means every load
// goes to the database.
func openRedisFromEnv() *redis.Client {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	return redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASS"),
	})
}

func cacheGet(ctx context.Context, rdb *redis.Client) (CoverageSettings, bool) {
	if rdb == nil {
		return CoverageSettings{}, false
	}
	raw, err := rdb.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return CoverageSettings{}, false
	}
	var s CoverageSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return CoverageSettings{}, false
	}
	return s, true
}

func cacheSet(ctx context.Context, rdb *redis.Client, s CoverageSettings) {
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := rdb.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
		log.Printf("[Settings] cache set failed: %v", err)
	}
}

func cacheInvalidate(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, cacheKey).Err(); err != nil {
		log.Printf("[Settings] cache invalidate failed: %v", err)
	}
}
