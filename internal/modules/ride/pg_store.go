// README: Ride store backed by PostgreSQL; conditional updates carry the CAS.
package ride

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rideflow/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

var _ Store = (*PGStore)(nil)

func (s *PGStore) Create(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO rides (
            id, customer_id, driver_id, status, status_version,
            pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
            vehicle_type, payment_method, estimated_fare, actual_fare,
            requested_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8, $9,
            $10, $11, $12, $13,
            $14
        )`,
		string(r.ID),
		string(r.CustomerID),
		toStringPtr(r.DriverID),
		string(r.Status),
		r.StatusVersion,
		r.Pickup.Lat, r.Pickup.Lng,
		r.Dropoff.Lat, r.Dropoff.Lng,
		r.VehicleType,
		r.PaymentMethod,
		r.EstimatedFare,
		r.ActualFare,
		r.RequestedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, customer_id, driver_id, status, status_version,
               pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
               vehicle_type, payment_method, estimated_fare, actual_fare,
               cancellation_reason,
               requested_at, accepted_at, started_at, completed_at, cancelled_at
        FROM rides
        WHERE id = $1`, string(id),
	)

	var r Ride
	var driverID sql.NullString
	var actualFare sql.NullFloat64
	var cancelReason sql.NullString
	var acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.CustomerID, &driverID, &r.Status, &r.StatusVersion,
		&r.Pickup.Lat, &r.Pickup.Lng, &r.Dropoff.Lat, &r.Dropoff.Lng,
		&r.VehicleType, &r.PaymentMethod, &r.EstimatedFare, &actualFare,
		&cancelReason,
		&r.RequestedAt, &acceptedAt, &startedAt, &completedAt, &cancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		d := types.ID(driverID.String)
		r.DriverID = &d
	}
	if actualFare.Valid {
		v := actualFare.Float64
		r.ActualFare = &v
	}
	if cancelReason.Valid {
		r.CancelReason = &cancelReason.String
	}
	r.AcceptedAt = toTimePtr(acceptedAt)
	r.StartedAt = toTimePtr(startedAt)
	r.CompletedAt = toTimePtr(completedAt)
	r.CancelledAt = toTimePtr(cancelledAt)
	return &r, nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, patch Patch) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE rides
        SET status = $1,
            status_version = status_version + 1,
            driver_id = COALESCE($2, driver_id),
            actual_fare = COALESCE($3, actual_fare),
            cancellation_reason = COALESCE($4, cancellation_reason),
            accepted_at = CASE WHEN $1 = 'accepted' THEN NOW() ELSE accepted_at END,
            started_at = CASE WHEN $1 = 'in_progress' THEN NOW() ELSE started_at END,
            completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
            cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
        WHERE id = $5 AND status = $6 AND status_version = $7`,
		string(to),
		toStringPtr(patch.DriverID),
		patch.ActualFare,
		patch.CancelReason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		// The partial unique index on active driver assignments rejects a
		// driver binding a second live ride; treat it as losing the update.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) HasActiveByCustomer(ctx context.Context, customerID types.ID) (bool, error) {
	return s.hasActive(ctx, "customer_id", customerID)
}

func (s *PGStore) HasActiveByDriver(ctx context.Context, driverID types.ID) (bool, error) {
	return s.hasActive(ctx, "driver_id", driverID)
}

func (s *PGStore) hasActive(ctx context.Context, column string, id types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM rides
            WHERE `+column+` = $1
              AND status IN ('requested','accepted','in_progress')
        )`, string(id),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PGStore) StaleRequested(ctx context.Context, cutoff time.Time) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id FROM rides
        WHERE status = 'requested' AND requested_at < $1`, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, types.ID(id))
	}
	return ids, rows.Err()
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO ride_state_events (
            ride_id, from_status, to_status, actor_type, actor_id, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.RideID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
