// File: utils/cache.go
package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tutorhive/config"
	"tutorhive/models"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the generic cache client.
var CacheClient *redis.Client

const availabilityCachePrefix = "availability:"

// AvailabilityCacheTTL bounds how stale a cached availability view may be.
const AvailabilityCacheTTL = 2 * time.Minute

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// CacheAvailabilityView stores a tutor's availability view with a TTL.
// Fallback views are never cached — they must always be recomputed so the
// flag reflects current provider reachability.
func CacheAvailabilityView(ctx context.Context, client *redis.Client, view models.AvailabilityView) error {
	if view.UsingFallback {
		return nil
	}
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal availability view: %w", err)
	}
	if err := client.Set(ctx, availabilityCachePrefix+view.TutorID, data, AvailabilityCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache availability view: %w", err)
	}
	return nil
}

// GetCachedAvailabilityView retrieves a cached availability view, if any.
func GetCachedAvailabilityView(ctx context.Context, client *redis.Client, tutorID string) (*models.AvailabilityView, error) {
	data, err := client.Get(ctx, availabilityCachePrefix+tutorID).Result()
	if err != nil {
		return nil, err
	}
	var view models.AvailabilityView
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal availability view: %w", err)
	}
	return &view, nil
}

// InvalidateAvailabilityView drops a tutor's cached view after a write.
func InvalidateAvailabilityView(ctx context.Context, client *redis.Client, tutorID string) error {
	return client.Del(ctx, availabilityCachePrefix+tutorID).Err()
}
