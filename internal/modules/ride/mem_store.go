// README: In-memory ride store with the same CAS semantics as the Postgres store.
package ride

import (
	"context"
	"sync"
	"time"

	"rideflow/internal/types"
)

// MemStore satisfies Store for tests and zero-infra runs. The single mutex
// makes UpdateStatus an atomic check-and-set, so accept races resolve to
// exactly one winner just as they do against Postgres.
type MemStore struct {
	mu     sync.Mutex
	rides  map[types.ID]*Ride
	events []Event
	now    func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		rides: make(map[types.ID]*Ride),
		now:   time.Now,
	}
}

var _ Store = (*MemStore)(nil)

func (s *MemStore) Create(_ context.Context, r *Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rides[r.ID] = &cp
	return nil
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, patch Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return false, nil
	}
	if r.Status != from || r.StatusVersion != version {
		return false, nil
	}
	// Same invariant the Postgres partial unique index carries: a driver
	// holds at most one active ride.
	if patch.DriverID != nil && to.Active() {
		for _, other := range s.rides {
			if other.ID == id {
				continue
			}
			if other.DriverID != nil && *other.DriverID == *patch.DriverID && other.Status.Active() {
				return false, nil
			}
		}
	}
	r.Status = to
	r.StatusVersion++
	if patch.DriverID != nil {
		r.DriverID = patch.DriverID
	}
	if patch.ActualFare != nil {
		r.ActualFare = patch.ActualFare
	}
	if patch.CancelReason != nil {
		r.CancelReason = patch.CancelReason
	}
	now := s.now()
	switch to {
	case StatusAccepted:
		r.AcceptedAt = &now
	case StatusInProgress:
		r.StartedAt = &now
	case StatusCompleted:
		r.CompletedAt = &now
	case StatusCancelled:
		r.CancelledAt = &now
	}
	return true, nil
}

func (s *MemStore) HasActiveByCustomer(_ context.Context, customerID types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rides {
		if r.CustomerID == customerID && r.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) HasActiveByDriver(_ context.Context, driverID types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rides {
		if r.DriverID != nil && *r.DriverID == driverID && r.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) StaleRequested(_ context.Context, cutoff time.Time) ([]types.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []types.ID
	for _, r := range s.rides {
		if r.Status == StatusRequested && r.RequestedAt.Before(cutoff) {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (s *MemStore) AppendEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	cp.ID = int64(len(s.events) + 1)
	s.events = append(s.events, cp)
	return nil
}

// Events returns a copy of the audit trail, oldest first.
func (s *MemStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
