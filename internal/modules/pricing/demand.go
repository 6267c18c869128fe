// README: Demand-signal sources feeding the surge computation.
package pricing

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"rideflow/internal/modules/location"
	"rideflow/internal/types"
)

// DemandSignal is the supply/demand snapshot around a pickup point.
type DemandSignal struct {
	Ratio            float64
	PendingRequests  int
	AvailableDrivers int
}

// DemandSource supplies the demand ratio for surge pricing.
type DemandSource interface {
	Demand(ctx context.Context, near types.Point, at time.Time) (DemandSignal, error)
}

// StaticDemand returns a fixed ratio. Used in tests and as the degraded
// fallback when no live source is configured.
type StaticDemand struct {
	Ratio float64
}

func (s StaticDemand) Demand(context.Context, types.Point, time.Time) (DemandSignal, error) {
	return DemandSignal{Ratio: s.Ratio}, nil
}

const (
	// demandCellDegrees quantizes coordinates into ~1km demand cells.
	demandCellDegrees = 0.01
	demandKeyPrefix   = "surge:%s:%d"
	pendingKeyPrefix  = "demand:pending:%s"
	demandCacheTTL    = 5 * time.Minute
	demandRadiusMiles = 5.0
)

// RedisDemandSource derives the ratio from a pending-request counter per
// demand cell and the live driver count from the location cache. Computed
// ratios are cached per cell and hour so prices stay stable within the
// cache window.
type RedisDemandSource struct {
	rdb   *redis.Client
	cache location.Cache
}

func NewRedisDemandSource(rdb *redis.Client, cache location.Cache) *RedisDemandSource {
	return &RedisDemandSource{rdb: rdb, cache: cache}
}

var _ DemandSource = (*RedisDemandSource)(nil)

// RecordRequest bumps the pending-request counter for the pickup cell.
// Called once per ride creation.
func (s *RedisDemandSource) RecordRequest(ctx context.Context, near types.Point) {
	key := fmt.Sprintf(pendingKeyPrefix, cell(near))
	pipe := s.rdb.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, demandCacheTTL)
	_, _ = pipe.Exec(ctx)
}

func (s *RedisDemandSource) Demand(ctx context.Context, near types.Point, at time.Time) (DemandSignal, error) {
	cacheKey := fmt.Sprintf(demandKeyPrefix, cell(near), at.Hour())
	if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
		if ratio, perr := strconv.ParseFloat(cached, 64); perr == nil {
			return DemandSignal{Ratio: ratio}, nil
		}
	}

	pending := 0
	if v, err := s.rdb.Get(ctx, fmt.Sprintf(pendingKeyPrefix, cell(near))).Result(); err == nil {
		if n, perr := strconv.Atoi(v); perr == nil {
			pending = n
		}
	} else if err != redis.Nil {
		return DemandSignal{}, err
	}

	cands, err := s.cache.Search(ctx, near, demandRadiusMiles*location.MetersPerMile)
	if err != nil {
		return DemandSignal{}, err
	}
	drivers := len(cands)

	ratio := 0.0
	switch {
	case pending == 0:
		ratio = 0
	case drivers == 0:
		ratio = 1
	default:
		ratio = float64(pending) / float64(drivers)
		if ratio > 1 {
			ratio = 1
		}
	}

	s.rdb.Set(ctx, cacheKey, strconv.FormatFloat(ratio, 'f', 4, 64), demandCacheTTL)
	return DemandSignal{Ratio: ratio, PendingRequests: pending, AvailableDrivers: drivers}, nil
}

func cell(p types.Point) string {
	return fmt.Sprintf("%.2f:%.2f",
		snapCell(p.Lat), snapCell(p.Lng))
}

// snapCell floors to the cell's lower edge. Floor, not truncation, so cells
// are uniform width on both sides of the 0-degree meridian and equator.
func snapCell(v float64) float64 {
	return math.Floor(v/demandCellDegrees) * demandCellDegrees
}
