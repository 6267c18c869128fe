// README: Cache contract for perishable driver positions.
package location

import (
	"context"

	"rideflow/internal/types"
)

// Cache is a perishable, geospatially indexed store of driver positions.
// Implementations must be safe for concurrent use; writes must not block
// radius searches.
type Cache interface {
	// Upsert overwrites the driver's entry and resets its TTL clock.
	Upsert(ctx context.Context, driverID types.ID, p types.Point) error
	// Remove evicts the driver (went offline).
	Remove(ctx context.Context, driverID types.ID) error
	// Search returns drivers within radiusMeters of center, ascending by
	// distance, with expired entries excluded.
	Search(ctx context.Context, center types.Point, radiusMeters float64) ([]Candidate, error)
}
