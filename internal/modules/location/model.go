// README: Driver position entries and nearby-driver candidates.
package location

import (
	"errors"
	"time"

	"rideflow/internal/types"
)

// Entry is one driver's last reported position. Overwritten on every ping;
// past its TTL it is treated as unknown.
type Entry struct {
	DriverID  types.ID
	Position  types.Point
	UpdatedAt time.Time
}

// Candidate is a driver returned by a radius search, nearest first.
type Candidate struct {
	DriverID       types.ID
	Position       types.Point
	DistanceMeters float64
}

// ErrCacheUnavailable signals the cache backend could not be reached.
// Callers degrade to an empty candidate set rather than failing the ride.
var ErrCacheUnavailable = errors.New("location cache unavailable")
