package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"setrag/internal/logger"
	"setrag/internal/models"
)

const routeKeyPrefix = "setrag:route:"

// RouteResolver resolves a trip to its station names.
type RouteResolver interface {
	ResolveTrip(ctx context.Context, tripID int64) (*models.TripRoute, error)
}

// RouteCache keeps resolved trip routes in Redis for a bounded TTL.
// Lookup errors are never cached. Redis failures degrade to the next resolver.
type RouteCache struct {
	client *redis.Client
	next   RouteResolver
	ttl    time.Duration
}

func NewRouteCache(client *redis.Client, next RouteResolver, ttl time.Duration) *RouteCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RouteCache{client: client, next: next, ttl: ttl}
}

func routeKey(tripID int64) string {
	return routeKeyPrefix + strconv.FormatInt(tripID, 10)
}

func (c *RouteCache) ResolveTrip(ctx context.Context, tripID int64) (*models.TripRoute, error) {
	key := routeKey(tripID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var route models.TripRoute
		if jsonErr := json.Unmarshal(raw, &route); jsonErr == nil {
			return &route, nil
		}
		logger.WithContext(ctx).Warn("Corrupt route cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.WithContext(ctx).Warn("Route cache read failed", "key", key, "error", err)
	}

	route, err := c.next.ResolveTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(route)
	if err != nil {
		return route, nil
	}
	if err := c.client.Set(ctx, key, string(payload), c.ttl).Err(); err != nil {
		logger.WithContext(ctx).Warn("Route cache write failed", "key", key, "error", err)
	}

	return route, nil
}

// Invalidate drops the cached route of a trip.
func (c *RouteCache) Invalidate(ctx context.Context, tripID int64) error {
	return c.client.Del(ctx, routeKey(tripID)).Err()
}
