// README: Matched-driver candidates for ride dispatch.
package matching

import (
	"rideflow/internal/types"
)

// Candidate is a driver eligible for a ride request, with its distance from
// the pickup point at match time.
type Candidate struct {
	DriverID       types.ID
	Position       types.Point
	DistanceMeters float64
}
