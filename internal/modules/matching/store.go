// README: Dispatch bookkeeping backed by Redis.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rideflow/internal/types"
)

const (
	dispatchKeyPrefix = "matching:ride:%s:dispatched_at"
	notifiedKeyPrefix = "matching:ride:%s:notified"
	// Rides resolve well within a day; keys self-clean after that.
	keyTTL = 24 * time.Hour
)

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

var _ Store = (*RedisStore)(nil)

// RecordDispatch stores the dispatch timestamp and the set of notified
// drivers for a ride.
func (s *RedisStore) RecordDispatch(ctx context.Context, rideID types.ID, driverIDs []types.ID) error {
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, dispatchedAtKey(rideID), time.Now().UTC().Format(time.RFC3339), keyTTL)
	if len(driverIDs) > 0 {
		members := make([]interface{}, len(driverIDs))
		for i, d := range driverIDs {
			members[i] = string(d)
		}
		pipe.SAdd(ctx, notifiedKey(rideID), members...)
		pipe.Expire(ctx, notifiedKey(rideID), keyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetDispatchedAt returns when the ride was first dispatched, and whether
// it has been dispatched at all.
func (s *RedisStore) GetDispatchedAt(ctx context.Context, rideID types.ID) (time.Time, bool, error) {
	val, err := s.rdb.Get(ctx, dispatchedAtKey(rideID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// NotifiedDrivers returns the drivers that were offered the ride.
func (s *RedisStore) NotifiedDrivers(ctx context.Context, rideID types.ID) ([]types.ID, error) {
	members, err := s.rdb.SMembers(ctx, notifiedKey(rideID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(members))
	for i, m := range members {
		ids[i] = types.ID(m)
	}
	return ids, nil
}

func dispatchedAtKey(rideID types.ID) string {
	return fmt.Sprintf(dispatchKeyPrefix, string(rideID))
}

func notifiedKey(rideID types.ID) string {
	return fmt.Sprintf(notifiedKeyPrefix, string(rideID))
}
