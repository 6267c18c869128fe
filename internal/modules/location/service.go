// README: Location service handles high-frequency driver pings and offline eviction.
package location

import (
	"context"
	"errors"
	"log/slog"

	"rideflow/internal/types"
)

// Events receives location changes for fan-out. Calls must not block.
type Events interface {
	DriverLocationUpdated(driverID types.ID, p types.Point)
}

type Service struct {
	cache  Cache
	events Events
	log    *slog.Logger
}

var ErrBadPosition = errors.New("position missing or out of range")

func NewService(cache Cache, events Events, log *slog.Logger) *Service {
	return &Service{cache: cache, events: events, log: log}
}

// Update overwrites the driver's cached position and announces the change.
func (s *Service) Update(ctx context.Context, driverID types.ID, p types.Point) error {
	if driverID == "" || !p.Valid() {
		return ErrBadPosition
	}
	if err := s.cache.Upsert(ctx, driverID, p); err != nil {
		return err
	}
	if s.events != nil {
		s.events.DriverLocationUpdated(driverID, p)
	}
	return nil
}

// GoOffline evicts the driver from the cache so matching stops seeing them.
func (s *Service) GoOffline(ctx context.Context, driverID types.ID) error {
	if driverID == "" {
		return ErrBadPosition
	}
	return s.cache.Remove(ctx, driverID)
}

// Nearby wraps Search, degrading cache outages to an empty candidate set.
func (s *Service) Nearby(ctx context.Context, center types.Point, radiusMeters float64) ([]Candidate, error) {
	cands, err := s.cache.Search(ctx, center, radiusMeters)
	if err != nil {
		if errors.Is(err, ErrCacheUnavailable) {
			s.log.Warn("location cache unavailable, returning no candidates", "err", err)
			return nil, nil
		}
		return nil, err
	}
	return cands, nil
}
