// README: Redis-backed cache integration tests (require RIDEFLOW_REDIS_ADDR).
package location

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"rideflow/internal/types"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("RIDEFLOW_REDIS_ADDR")
	if addr == "" {
		t.Skip("RIDEFLOW_REDIS_ADDR not set; skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisStore_UpsertSearchRemove(t *testing.T) {
	rdb := testRedis(t)
	store := NewRedisStore(rdb, 5*time.Minute)
	ctx := context.Background()

	id := types.ID(fmt.Sprintf("driver_test_%d", time.Now().UnixNano()))
	p := types.Point{Lat: 40.7128, Lng: -74.0060}
	if err := store.Upsert(ctx, id, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	t.Cleanup(func() { _ = store.Remove(ctx, id) })

	cands, err := store.Search(ctx, p, 500)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	found := false
	for _, c := range cands {
		if c.DriverID == id {
			found = true
			if c.DistanceMeters > 50 {
				t.Errorf("driver at center reported %fm away", c.DistanceMeters)
			}
		}
	}
	if !found {
		t.Fatalf("upserted driver %s not in search results", id)
	}

	if err := store.Remove(ctx, id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	cands, err = store.Search(ctx, p, 500)
	if err != nil {
		t.Fatalf("Search after remove: %v", err)
	}
	for _, c := range cands {
		if c.DriverID == id {
			t.Fatalf("removed driver %s still in search results", id)
		}
	}
}

func TestRedisStore_StaleEntryFiltered(t *testing.T) {
	rdb := testRedis(t)
	store := NewRedisStore(rdb, 200*time.Millisecond)
	ctx := context.Background()

	id := types.ID(fmt.Sprintf("driver_stale_%d", time.Now().UnixNano()))
	p := types.Point{Lat: 40.7306, Lng: -73.9866}
	if err := store.Upsert(ctx, id, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	t.Cleanup(func() { _ = store.Remove(ctx, id) })

	// Wait for the freshness key to lapse; the GEO member lingers but must
	// not be returned.
	time.Sleep(400 * time.Millisecond)

	cands, err := store.Search(ctx, p, 500)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, c := range cands {
		if c.DriverID == id {
			t.Fatalf("expired driver %s still in search results", id)
		}
	}
}
