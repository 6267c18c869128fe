// README: Sentinel errors surfaced at the API boundary.
package ride

import "errors"

var (
	// ErrValidation rejects malformed input before any mutation.
	ErrValidation = errors.New("invalid ride request")
	// ErrNotFound means the ride id is unknown.
	ErrNotFound = errors.New("ride not found")
	// ErrConflict covers illegal transitions, including the lost accept
	// race: the ride is no longer available.
	ErrConflict = errors.New("ride no longer available")
	// ErrForbidden means the actor is not permitted to act on this ride.
	ErrForbidden = errors.New("actor not permitted for this ride")
	// ErrActiveRide means the party already has an open ride.
	ErrActiveRide = errors.New("an active ride already exists")
)
