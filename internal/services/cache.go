package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultCacheTTL bounds how stale a cached entry can get if an
	// invalidation is lost.
	DefaultCacheTTL = 10 * time.Minute
)

// Cache stores JSON values in Redis. A miss or a Redis failure reads as not found.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Get decodes the value under key into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, CacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, CacheKeyPrefix+key, data, c.ttl).Err()
}

// Delete removes keys; missing keys are ignored.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = CacheKeyPrefix + k
	}
	return c.client.Del(ctx, full...).Err()
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s:%s", resource, identifier)
}

var icebreakerCategories = []models.IcebreakerCategory{
	models.CategoryFun, models.CategoryPersonal, models.CategoryProfessional,
	models.CategoryPhilosophical, models.CategoryOther,
}

func icebreakerListKey(category models.IcebreakerCategory) string {
	if category == "" {
		return CacheKey("icebreakers", "all")
	}
	return CacheKey("icebreakers", string(category))
}

// CachedIcebreakers is an IcebreakerStore whose catalog listings are served
// from Redis. Every write drops all cached listings.
type CachedIcebreakers struct {
	IcebreakerStore
	cache *Cache
}

func NewCachedIcebreakers(next IcebreakerStore, cache *Cache) *CachedIcebreakers {
	return &CachedIcebreakers{IcebreakerStore: next, cache: cache}
}

func (c *CachedIcebreakers) List(ctx context.Context, category models.IcebreakerCategory) ([]models.Icebreaker, error) {
	key := icebreakerListKey(category)
	var cached []models.Icebreaker
	if ok, err := c.cache.Get(ctx, key, &cached); err != nil {
		log.Printf("icebreaker cache read failed: %v", err)
	} else if ok {
		return cached, nil
	}

	list, err := c.IcebreakerStore.List(ctx, category)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, list); err != nil {
		log.Printf("icebreaker cache write failed: %v", err)
	}
	return list, nil
}

func (c *CachedIcebreakers) Create(ctx context.Context, ib *models.Icebreaker) error {
	if err := c.IcebreakerStore.Create(ctx, ib); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedIcebreakers) Update(ctx context.Context, id primitive.ObjectID, patch models.IcebreakerPatch) (*models.Icebreaker, error) {
	ib, err := c.IcebreakerStore.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return ib, nil
}

func (c *CachedIcebreakers) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := c.IcebreakerStore.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedIcebreakers) invalidate(ctx context.Context) {
	keys := []string{icebreakerListKey("")}
	for _, cat := range icebreakerCategories {
		keys = append(keys, icebreakerListKey(cat))
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		log.Printf("icebreaker cache invalidation failed: %v", err)
	}
}
