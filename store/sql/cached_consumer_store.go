package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-authflow/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const consumerCacheKeyPrefix = "go-authflow::consumer::v1"

// CachedConsumerStore front-loads consumer lookups with a read-through cache.
// Token issuance hits the consumer record on every request, so consumer reads
// dominate the store traffic while consumer writes are rare.
type CachedConsumerStore struct {
	base  core.ConsumerStore
	cache repositorycache.CacheService
}

func NewCachedConsumerStore(
	base core.ConsumerStore,
	cacheService repositorycache.CacheService,
) (*CachedConsumerStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base consumer store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: consumer cache service is required")
	}
	return &CachedConsumerStore{base: base, cache: cacheService}, nil
}

// ConsumerCacheKey returns the deterministic cache key for one consumer:
// go-authflow::consumer::v1::<key> with the key segment URL-path escaped.
func ConsumerCacheKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("sqlstore: consumer key is required")
	}
	return consumerCacheKeyPrefix + "::" + url.PathEscape(key), nil
}

func (s *CachedConsumerStore) Create(ctx context.Context, consumer core.Consumer) (core.Consumer, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Consumer{}, fmt.Errorf("sqlstore: cached consumer store is not configured")
	}
	created, err := s.base.Create(ctx, consumer)
	if err != nil {
		return core.Consumer{}, err
	}
	cacheKey, keyErr := ConsumerCacheKey(created.Key)
	if keyErr != nil {
		return core.Consumer{}, keyErr
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		return core.Consumer{}, err
	}
	return created, nil
}

func (s *CachedConsumerStore) Get(ctx context.Context, key string) (core.Consumer, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Consumer{}, fmt.Errorf("sqlstore: cached consumer store is not configured")
	}
	cacheKey, err := ConsumerCacheKey(key)
	if err != nil {
		return core.Consumer{}, err
	}

	consumer, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Consumer, error) {
		fetched, fetchErr := s.base.Get(ctx, key)
		if fetchErr != nil {
			return core.Consumer{}, fetchErr
		}
		return cloneConsumer(fetched), nil
	})
	if err != nil {
		return core.Consumer{}, err
	}
	return cloneConsumer(consumer), nil
}

func (s *CachedConsumerStore) Revoke(ctx context.Context, key string, reason string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached consumer store is not configured")
	}
	if err := s.base.Revoke(ctx, key, reason); err != nil {
		return err
	}
	cacheKey, err := ConsumerCacheKey(key)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func cloneConsumer(consumer core.Consumer) core.Consumer {
	cloned := consumer
	cloned.Metadata = copyAnyMap(consumer.Metadata)
	return cloned
}

var _ core.ConsumerStore = (*CachedConsumerStore)(nil)
