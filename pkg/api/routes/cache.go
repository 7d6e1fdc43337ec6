package routes

import (
	"context"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/redis_client"
)

const draftCacheExpiration = 30 * time.Minute

var draftCache *cache.Cache[string]

// SetupCache wires the draft read cache. Needs redis connected first;
// without it every read goes straight to the database.
func SetupCache() {
	redisStore := redisstore.NewRedis(redis_client.Client, store.WithExpiration(draftCacheExpiration))

	draftCache = cache.New[string](redisStore)
}

func cacheGet(key string) (string, bool) {
	if draftCache == nil {
		return "", false
	}

	value, err := draftCache.Get(context.Background(), key)
	if err != nil || value == "" {
		return "", false
	}

	return value, true
}

func cacheSet(key string, value string) {
	if draftCache == nil {
		return
	}

	draftCache.Set(context.Background(), key, value)
}

func cacheInvalidate(keys ...string) {
	if draftCache == nil {
		return
	}

	for _, key := range keys {
		draftCache.Delete(context.Background(), key)
	}
}
