// README: Ride service implements the lifecycle state machine and its side effects.
package ride

import (
	"context"
	"log/slog"
	"time"

	"rideflow/internal/types"
)

// Pricing produces fare numbers. Implementations never fail a ride: any
// upstream trouble is absorbed behind deterministic fallbacks.
type Pricing interface {
	EstimateFare(ctx context.Context, pickup, dropoff types.Point, vehicleType string, at time.Time) (float64, error)
	FinalFare(ctx context.Context, pickup, dropoff types.Point, vehicleType string, pickupAt, dropoffAt time.Time) (float64, error)
}

// Matcher finds drivers to offer a new ride to, nearest first.
type Matcher interface {
	CandidatesForRide(ctx context.Context, rideID types.ID, pickup types.Point) []types.ID
}

// Notifier fans out lifecycle changes. Calls must not block and must never
// return an error into the state machine.
type Notifier interface {
	RideRequested(r *Ride, drivers []types.ID)
	RideTransition(t Transition)
}

// DemandRecorder feeds the surge signal. Optional.
type DemandRecorder interface {
	RecordRequest(ctx context.Context, near types.Point)
}

type Service struct {
	store    Store
	pricing  Pricing
	matcher  Matcher
	notifier Notifier
	demand   DemandRecorder
	log      *slog.Logger
}

func NewService(store Store, pricing Pricing, matcher Matcher, notifier Notifier, demand DemandRecorder, log *slog.Logger) *Service {
	return &Service{store: store, pricing: pricing, matcher: matcher, notifier: notifier, demand: demand, log: log}
}

type CreateCommand struct {
	CustomerID    types.ID
	Pickup        types.Point
	Dropoff       types.Point
	VehicleType   string
	PaymentMethod string
}

type CancelCommand struct {
	RideID    types.ID
	ActorID   types.ID
	ActorType string // "customer", "driver", "admin"
	Reason    string
}

// Create validates the request, obtains an estimate, persists the ride in
// requested state, and triggers matching. "No drivers nearby" is not a
// failure: the ride is returned with nobody notified.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	if cmd.CustomerID == "" || cmd.VehicleType == "" {
		return nil, ErrValidation
	}
	if !cmd.Pickup.Valid() || !cmd.Dropoff.Valid() {
		return nil, ErrValidation
	}
	active, err := s.store.HasActiveByCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveRide
	}

	now := time.Now()
	if s.demand != nil {
		s.demand.RecordRequest(ctx, cmd.Pickup)
	}
	estimate, err := s.pricing.EstimateFare(ctx, cmd.Pickup, cmd.Dropoff, cmd.VehicleType, now)
	if err != nil {
		// Pricing is expected to absorb its own failures; log and keep going.
		s.log.Error("estimate failed on create", "err", err)
	}

	r := &Ride{
		ID:            types.NewID(),
		CustomerID:    cmd.CustomerID,
		Status:        StatusRequested,
		StatusVersion: 0,
		Pickup:        cmd.Pickup,
		Dropoff:       cmd.Dropoff,
		VehicleType:   cmd.VehicleType,
		PaymentMethod: cmd.PaymentMethod,
		EstimatedFare: estimate,
		RequestedAt:   now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RideID:     r.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusRequested,
		ActorType:  "customer",
		ActorID:    &cmd.CustomerID,
		CreatedAt:  now,
	})

	drivers := s.matcher.CandidatesForRide(ctx, r.ID, r.Pickup)
	if len(drivers) == 0 {
		s.log.Info("no drivers available", "ride_id", r.ID)
	}
	if s.notifier != nil {
		s.notifier.RideRequested(r, drivers)
	}
	return r, nil
}

// Accept binds the first driver to win the conditional update. Exactly one
// of N racing drivers succeeds; the rest get ErrConflict.
func (s *Service) Accept(ctx context.Context, rideID, driverID types.ID) (*Ride, error) {
	if driverID == "" {
		return nil, ErrValidation
	}
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusAccepted) {
		return nil, ErrConflict
	}
	busy, err := s.store.HasActiveByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, ErrActiveRide
	}

	ok, err := s.store.UpdateStatus(ctx, r.ID, StatusRequested, StatusAccepted, r.StatusVersion, Patch{DriverID: &driverID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return s.committed(ctx, r.ID, StatusRequested, StatusAccepted, "driver", &driverID)
}

// Begin starts the trip. Only the bound driver may do this.
func (s *Service) Begin(ctx context.Context, rideID, driverID types.ID) (*Ride, error) {
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.DriverID == nil || *r.DriverID != driverID {
		return nil, ErrForbidden
	}
	if !CanTransition(r.Status, StatusInProgress) {
		return nil, ErrConflict
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, StatusAccepted, StatusInProgress, r.StatusVersion, Patch{})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return s.committed(ctx, r.ID, StatusAccepted, StatusInProgress, "driver", &driverID)
}

// Complete ends the trip, recomputing the fare from realized time on road.
func (s *Service) Complete(ctx context.Context, rideID, driverID types.ID) (*Ride, error) {
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.DriverID == nil || *r.DriverID != driverID {
		return nil, ErrForbidden
	}
	if !CanTransition(r.Status, StatusCompleted) {
		return nil, ErrConflict
	}

	pickupAt := r.RequestedAt
	if r.StartedAt != nil {
		pickupAt = *r.StartedAt
	} else if r.AcceptedAt != nil {
		pickupAt = *r.AcceptedAt
	}
	fare, err := s.pricing.FinalFare(ctx, r.Pickup, r.Dropoff, r.VehicleType, pickupAt, time.Now())
	if err != nil {
		s.log.Error("final fare failed, falling back to estimate", "ride_id", r.ID, "err", err)
		fare = r.EstimatedFare
	}

	ok, err := s.store.UpdateStatus(ctx, r.ID, StatusInProgress, StatusCompleted, r.StatusVersion, Patch{ActualFare: &fare})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return s.committed(ctx, r.ID, StatusInProgress, StatusCompleted, "driver", &driverID)
}

// Cancel is callable by the bound customer, the bound driver, or an admin,
// while the ride is still requested or accepted.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if !s.mayCancel(r, cmd) {
		return nil, ErrForbidden
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return nil, ErrConflict
	}
	reason := cmd.Reason
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, StatusCancelled, r.StatusVersion, Patch{CancelReason: &reason})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return s.committed(ctx, r.ID, r.Status, StatusCancelled, cmd.ActorType, &cmd.ActorID)
}

func (s *Service) mayCancel(r *Ride, cmd CancelCommand) bool {
	switch cmd.ActorType {
	case "admin":
		return true
	case "customer":
		return r.CustomerID == cmd.ActorID
	case "driver":
		return r.DriverID != nil && *r.DriverID == cmd.ActorID
	default:
		return false
	}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	return s.store.Get(ctx, id)
}

// committed re-reads the ride after a successful CAS, appends the audit
// event, and hands the transition to the dispatcher.
func (s *Service) committed(ctx context.Context, id types.ID, from, to Status, actorType string, actorID *types.ID) (*Ride, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	_ = s.store.AppendEvent(ctx, &Event{
		RideID:     id,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  now,
	})
	if s.notifier != nil {
		s.notifier.RideTransition(Transition{
			RideID:         id,
			PreviousStatus: from,
			NewStatus:      to,
			Ride:           r,
			At:             now,
		})
	}
	return r, nil
}

// RunRequestExpiry cancels rides that sat in requested state past maxAge.
func (s *Service) RunRequestExpiry(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := s.store.StaleRequested(ctx, time.Now().Add(-maxAge))
			if err != nil {
				s.log.Error("stale ride scan failed", "err", err)
				continue
			}
			for _, id := range ids {
				_, err := s.Cancel(ctx, CancelCommand{
					RideID:    id,
					ActorType: "admin",
					Reason:    "request timed out",
				})
				if err != nil && err != ErrConflict && err != ErrNotFound {
					s.log.Error("expire cancel failed", "ride_id", id, "err", err)
				}
			}
		}
	}
}
