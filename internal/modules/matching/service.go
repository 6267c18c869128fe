// README: Matching service: bounded expanding-ring search over the location cache.
package matching

import (
	"context"
	"errors"
	"log/slog"

	"rideflow/internal/config"
	"rideflow/internal/modules/location"
	"rideflow/internal/types"
)

// Store records dispatch bookkeeping. May be nil (tests, no Redis).
type Store interface {
	RecordDispatch(ctx context.Context, rideID types.ID, driverIDs []types.ID) error
}

type Service struct {
	cache location.Cache
	store Store
	cfg   config.MatchingConfig
	log   *slog.Logger
}

func NewService(cache location.Cache, store Store, cfg config.MatchingConfig, log *slog.Logger) *Service {
	return &Service{cache: cache, store: store, cfg: cfg, log: log}
}

// FindCandidates widens the search radius ring by ring until at least one
// driver is found or the largest ring is exhausted, then returns the
// nearest candidates capped at the fan-out limit. An empty result is not an
// error: the ride stays requested with nobody notified.
func (s *Service) FindCandidates(ctx context.Context, pickup types.Point) []Candidate {
	for _, radiusKm := range s.cfg.RingRadiiKm {
		found, err := s.cache.Search(ctx, pickup, radiusKm*1000)
		if err != nil {
			if errors.Is(err, location.ErrCacheUnavailable) {
				s.log.Warn("location cache unavailable during matching", "err", err)
				return nil
			}
			s.log.Error("candidate search failed", "err", err, "radius_km", radiusKm)
			return nil
		}
		if len(found) == 0 {
			continue
		}
		if len(found) > s.cfg.FanOut {
			found = found[:s.cfg.FanOut]
		}
		out := make([]Candidate, len(found))
		for i, c := range found {
			out[i] = Candidate{DriverID: c.DriverID, Position: c.Position, DistanceMeters: c.DistanceMeters}
		}
		return out
	}
	return nil
}

// CandidatesForRide finds, records, and returns the drivers to offer a new
// ride to, nearest first. This is the shape the ride state machine consumes.
func (s *Service) CandidatesForRide(ctx context.Context, rideID types.ID, pickup types.Point) []types.ID {
	cands := s.FindCandidates(ctx, pickup)
	s.Dispatch(ctx, rideID, cands)
	ids := make([]types.ID, len(cands))
	for i, c := range cands {
		ids[i] = c.DriverID
	}
	return ids
}

// Dispatch records which drivers were notified for a ride. Best-effort.
func (s *Service) Dispatch(ctx context.Context, rideID types.ID, cands []Candidate) {
	if s.store == nil || len(cands) == 0 {
		return
	}
	ids := make([]types.ID, len(cands))
	for i, c := range cands {
		ids[i] = c.DriverID
	}
	if err := s.store.RecordDispatch(ctx, rideID, ids); err != nil {
		s.log.Warn("dispatch record failed", "ride_id", rideID, "err", err)
	}
}
