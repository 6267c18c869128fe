// README: Driver position cache backed by Redis GEO plus per-driver freshness keys.
package location

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rideflow/internal/types"
)

const (
	driverGeoKey   = "location:drivers"
	freshKeyPrefix = "location:driver:%s"
)

// RedisStore keeps positions in a GEO set and tracks freshness with a
// per-driver key that expires after the TTL. GEO members have no expiry of
// their own, so a member whose freshness key is gone is stale: it is
// filtered out of search results and lazily evicted.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

var _ Cache = (*RedisStore)(nil)

func (s *RedisStore) Upsert(ctx context.Context, driverID types.ID, p types.Point) error {
	pipe := s.rdb.Pipeline()
	pipe.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      string(driverID),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	})
	pipe.Set(ctx, freshKey(driverID), time.Now().UTC().Format(time.RFC3339), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, driverID types.ID) error {
	pipe := s.rdb.Pipeline()
	pipe.ZRem(ctx, driverGeoKey, string(driverID))
	pipe.Del(ctx, freshKey(driverID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Search(ctx context.Context, center types.Point, radiusMeters float64) ([]Candidate, error) {
	locs, err := s.rdb.GeoSearchLocation(ctx, driverGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  center.Lng,
			Latitude:   center.Lat,
			Radius:     radiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if len(locs) == 0 {
		return nil, nil
	}

	// One freshness probe per hit, batched.
	pipe := s.rdb.Pipeline()
	probes := make([]*redis.IntCmd, len(locs))
	for i, l := range locs {
		probes[i] = pipe.Exists(ctx, freshKey(types.ID(l.Name)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	out := make([]Candidate, 0, len(locs))
	var stale []interface{}
	for i, l := range locs {
		if probes[i].Val() == 0 {
			stale = append(stale, l.Name)
			continue
		}
		out = append(out, Candidate{
			DriverID:       types.ID(l.Name),
			Position:       types.Point{Lat: l.Latitude, Lng: l.Longitude},
			DistanceMeters: l.Dist,
		})
	}
	if len(stale) > 0 {
		// Best-effort eviction; search results are already correct.
		s.rdb.ZRem(context.WithoutCancel(ctx), driverGeoKey, stale...)
	}
	return out, nil
}

func freshKey(driverID types.ID) string {
	return fmt.Sprintf(freshKeyPrefix, string(driverID))
}
