// README: In-memory driver position cache (mutex-guarded haversine scan).
package location

import (
	"context"
	"sync"
	"time"

	"rideflow/internal/types"
)

// MemStore is a Cache for tests and single-node deployments. A linear scan
// with the shared haversine keeps its candidate sets identical to the Redis
// implementation's.
type MemStore struct {
	mu      sync.RWMutex
	entries map[types.ID]Entry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemStore(ttl time.Duration) *MemStore {
	return &MemStore{
		entries: make(map[types.ID]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

var _ Cache = (*MemStore)(nil)

func (s *MemStore) Upsert(_ context.Context, driverID types.ID, p types.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[driverID] = Entry{DriverID: driverID, Position: p, UpdatedAt: s.now()}
	return nil
}

func (s *MemStore) Remove(_ context.Context, driverID types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, driverID)
	return nil
}

func (s *MemStore) Search(_ context.Context, center types.Point, radiusMeters float64) ([]Candidate, error) {
	now := s.now()

	s.mu.RLock()
	var out []Candidate
	for _, e := range s.entries {
		if now.Sub(e.UpdatedAt) > s.ttl {
			continue
		}
		d := DistanceMeters(center.Lat, center.Lng, e.Position.Lat, e.Position.Lng)
		if d > radiusMeters {
			continue
		}
		out = append(out, Candidate{DriverID: e.DriverID, Position: e.Position, DistanceMeters: d})
	}
	s.mu.RUnlock()

	sortByDistance(out, func(c Candidate) float64 { return c.DistanceMeters })
	return out, nil
}
