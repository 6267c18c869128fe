// README: Storage contract for durable ride records.
package ride

import (
	"context"
	"time"

	"rideflow/internal/types"
)

// Patch carries the fields a transition may set alongside the status.
type Patch struct {
	DriverID     *types.ID
	ActualFare   *float64
	CancelReason *string
}

// Store is the durable-ride collaborator. UpdateStatus is the heart of the
// state machine: it must apply "transition iff current status == expected"
// as one atomic operation, succeeding for exactly one caller when raced.
type Store interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	// UpdateStatus performs the conditional transition and stamps the
	// timestamp matching the new status. Returns false when the ride was
	// not in the expected state (the caller lost the race).
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, patch Patch) (bool, error)
	HasActiveByCustomer(ctx context.Context, customerID types.ID) (bool, error)
	HasActiveByDriver(ctx context.Context, driverID types.ID) (bool, error)
	// StaleRequested lists rides still requested since before cutoff.
	StaleRequested(ctx context.Context, cutoff time.Time) ([]types.ID, error)
	AppendEvent(ctx context.Context, e *Event) error
}
