// README: Ride aggregate, status definitions, and the legal transition table.
package ride

import (
	"time"

	"rideflow/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusRequested  Status = "requested"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Ride struct {
	ID            types.ID
	CustomerID    types.ID
	DriverID      *types.ID
	Status        Status
	StatusVersion int
	Pickup        types.Point
	Dropoff       types.Point
	VehicleType   string
	PaymentMethod string
	EstimatedFare float64
	ActualFare    *float64
	CancelReason  *string
	RequestedAt   time.Time
	AcceptedAt    *time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
}

// Event is one committed transition, kept as an audit trail.
type Event struct {
	ID         int64
	RideID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string // "customer", "driver", "admin", "system"
	ActorID    *types.ID
	CreatedAt  time.Time
}

// Transition is what the notification dispatcher receives after a commit.
type Transition struct {
	RideID         types.ID
	PreviousStatus Status
	NewStatus      Status
	Ride           *Ride
	At             time.Time
}

// AllowedTransitions represents the ride state flow as code. Requested and
// accepted rides can still be cancelled; an in-progress ride cannot.
var AllowedTransitions = map[Status][]Status{
	StatusRequested:  {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Active reports whether the status still occupies the driver/customer.
func (s Status) Active() bool {
	switch s {
	case StatusRequested, StatusAccepted, StatusInProgress:
		return true
	default:
		return false
	}
}
