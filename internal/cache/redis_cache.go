package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/labor-market/internal/config"
	"github.com/weiawesome/labor-market/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

type RedisSearchCache struct {
	client *redis.Client
	prefix string
}

// NewRedisSearchCache creates a new Redis-based search cache.
func NewRedisSearchCache(client *redis.Client, prefix string) *RedisSearchCache {
	return &RedisSearchCache{
		client: client,
		prefix: prefix,
	}
}

// cacheKey is the canonical form of a query that is hashed into a key.
type cacheKey struct {
	Query     string           `json:"q,omitempty"`
	Category  string           `json:"c,omitempty"`
	Location  string           `json:"l,omitempty"`
	BudgetMin *float64         `json:"bmin,omitempty"`
	BudgetMax *float64         `json:"bmax,omitempty"`
	Duration  string           `json:"d,omitempty"`
	Sort      []domain.SortKey `json:"s"`
	Page      int              `json:"p"`
	Limit     int              `json:"n"`
}

// BuildKey creates a cache key from the resolved query. Equal queries give
// equal keys; the free text is hashed so keys stay short.
func (c *RedisSearchCache) BuildKey(kind string, q domain.JobQuery) string {
	data, _ := json.Marshal(cacheKey{
		Query:     q.Filter.Query,
		Category:  q.Filter.Category,
		Location:  q.Filter.Location,
		BudgetMin: q.Filter.BudgetMin,
		BudgetMax: q.Filter.BudgetMax,
		Duration:  q.Filter.Duration,
		Sort:      q.Sort,
		Page:      q.Page.Number,
		Limit:     q.Page.Limit,
	})
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s:%s", c.prefix, kind, hex.EncodeToString(sum[:16]))
}

func (c *RedisSearchCache) Get(ctx context.Context, key string) (*SearchResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var result SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &result, nil
}

func (c *RedisSearchCache) Set(ctx context.Context, key string, result *SearchResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

// RedisEmployerCache stores one JSON summary per employer key.
type RedisEmployerCache struct {
	client *redis.Client
	prefix string
}

// NewRedisEmployerCache creates a new Redis-based employer cache.
func NewRedisEmployerCache(client *redis.Client, prefix string) *RedisEmployerCache {
	return &RedisEmployerCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisEmployerCache) key(id string) string {
	return fmt.Sprintf("%s:employer:%s", c.prefix, id)
}

func (c *RedisEmployerCache) GetMany(ctx context.Context, ids []string) (map[string]*domain.EmployerSummary, error) {
	out := make(map[string]*domain.EmployerSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to mget from redis: %w", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var summary domain.EmployerSummary
		if err := json.Unmarshal([]byte(s), &summary); err != nil {
			continue
		}
		out[ids[i]] = &summary
	}
	return out, nil
}

func (c *RedisEmployerCache) SetMany(ctx context.Context, summaries map[string]*domain.EmployerSummary, ttl time.Duration) error {
	if len(summaries) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for id, s := range summaries {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal cache data: %w", err)
		}
		pipe.Set(ctx, c.key(id), data, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}
