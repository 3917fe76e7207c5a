package pinning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cidCachePrefix = "cid:content:" // cid:content:{cid} - ciphertext bytes

// ContentCache optional cache consulted before the gateway fallback loop.
// Content addressed bytes are immutable, so cached entries never need
// invalidation beyond TTL expiry.
type ContentCache interface {
	/*
		Get look up cached content

			@param ctx context.Context - execution context
			@param cid string - content identifier
			@returns the cached bytes, or nil on a miss
	*/
	Get(ctx context.Context, cid string) ([]byte, error)

	/*
		Set cache content

			@param ctx context.Context - execution context
			@param cid string - content identifier
			@param content []byte - the bytes to cache
	*/
	Set(ctx context.Context, cid string, content []byte) error
}

// redisContentCache implements ContentCache over Redis
type redisContentCache struct {
	rdb *redis.Client
	ttl time.Duration
}

/*
NewRedisContentCache define a Redis backed content cache

	@param rdb *redis.Client - Redis client
	@param ttl time.Duration - cache entry lifetime
	@returns cache instance
*/
func NewRedisContentCache(rdb *redis.Client, ttl time.Duration) ContentCache {
	return &redisContentCache{rdb: rdb, ttl: ttl}
}

/*
Get look up cached content

	@param ctx context.Context - execution context
	@param cid string - content identifier
	@returns the cached bytes, or nil on a miss
*/
func (c *redisContentCache) Get(ctx context.Context, cid string) ([]byte, error) {
	content, err := c.rdb.Get(ctx, cidCachePrefix+cid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("content cache lookup for %s failed [%w]", cid, err)
	}
	return content, nil
}

/*
Set cache content

	@param ctx context.Context - execution context
	@param cid string - content identifier
	@param content []byte - the bytes to cache
*/
func (c *redisContentCache) Set(ctx context.Context, cid string, content []byte) error {
	if err := c.rdb.Set(ctx, cidCachePrefix+cid, content, c.ttl).Err(); err != nil {
		return fmt.Errorf("content cache store for %s failed [%w]", cid, err)
	}
	return nil
}
