package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"capturemoments/models"

	"github.com/go-redis/redis/v8"
)

// QuoteCache stores issued quotes and the per-provider snapshot version they
// were computed against.
type QuoteCache interface {
	Put(ctx context.Context, q models.Quote, ttl time.Duration) error
	Get(ctx context.Context, id string) (models.Quote, bool, error)
	Version(ctx context.Context, providerID string) (int64, error)
	BumpVersion(ctx context.Context, providerID string) (int64, error)
}

type RedisQuoteCache struct {
	client *redis.Client
}

func NewRedisQuoteCache(client *redis.Client) *RedisQuoteCache {
	return &RedisQuoteCache{client: client}
}

func quoteKey(id string) string           { return "quote:" + id }
func versionKey(providerID string) string { return "quote-version:" + providerID }

func (c *RedisQuoteCache) Put(ctx context.Context, q models.Quote, ttl time.Duration) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	return c.client.Set(ctx, quoteKey(q.ID), raw, ttl).Err()
}

func (c *RedisQuoteCache) Get(ctx context.Context, id string) (models.Quote, bool, error) {
	raw, err := c.client.Get(ctx, quoteKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Quote{}, false, nil
	}
	if err != nil {
		return models.Quote{}, false, err
	}
	var q models.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return models.Quote{}, false, fmt.Errorf("failed to unmarshal quote %s: %w", id, err)
	}
	return q, true, nil
}

func (c *RedisQuoteCache) Version(ctx context.Context, providerID string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(providerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisQuoteCache) BumpVersion(ctx context.Context, providerID string) (int64, error) {
	return c.client.Incr(ctx, versionKey(providerID)).Result()
}

// MemoryQuoteCache is the in-process QuoteCache.
type MemoryQuoteCache struct {
	mu       sync.Mutex
	quotes   map[string]memoryQuote
	versions map[string]int64
	now      func() time.Time
}

type memoryQuote struct {
	quote     models.Quote
	expiresAt time.Time
}

func NewMemoryQuoteCache() *MemoryQuoteCache {
	return &MemoryQuoteCache{
		quotes:   make(map[string]memoryQuote),
		versions: make(map[string]int64),
		now:      time.Now,
	}
}

func (c *MemoryQuoteCache) Put(_ context.Context, q models.Quote, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[q.ID] = memoryQuote{quote: q, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryQuoteCache) Get(_ context.Context, id string) (models.Quote, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mq, ok := c.quotes[id]
	if !ok {
		return models.Quote{}, false, nil
	}
	if !c.now().Before(mq.expiresAt) {
		delete(c.quotes, id)
		return models.Quote{}, false, nil
	}
	return mq.quote, true, nil
}

func (c *MemoryQuoteCache) Version(_ context.Context, providerID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[providerID], nil
}

func (c *MemoryQuoteCache) BumpVersion(_ context.Context, providerID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[providerID]++
	return c.versions[providerID], nil
}
