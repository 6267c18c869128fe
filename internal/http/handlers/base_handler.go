// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideflow/internal/modules/ride"
	"rideflow/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID ensures IDs are alphanumeric and at most 32 chars (matches the
// ID generator).
func isValidID(v string) bool {
	if v == "" || len(v) > 32 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeRideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ride.ErrConflict), errors.Is(err, ride.ErrActiveRide):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// actor pulls the authenticated identity the auth middleware resolved.
func actor(c *gin.Context) (types.ID, string) {
	id, _ := c.Get("actor_id")
	role, _ := c.Get("actor_role")
	aid, _ := id.(string)
	arole, _ := role.(string)
	return types.ID(aid), arole
}

type rideResponse struct {
	ID            types.ID    `json:"id"`
	CustomerID    types.ID    `json:"customer_id"`
	DriverID      *types.ID   `json:"driver_id,omitempty"`
	Status        ride.Status `json:"status"`
	Pickup        types.Point `json:"pickup"`
	Dropoff       types.Point `json:"dropoff"`
	VehicleType   string      `json:"vehicle_type"`
	EstimatedFare float64     `json:"estimated_fare"`
	ActualFare    *float64    `json:"actual_fare,omitempty"`
	CancelReason  *string     `json:"cancellation_reason,omitempty"`
}

func toRideResponse(r *ride.Ride) rideResponse {
	return rideResponse{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		DriverID:      r.DriverID,
		Status:        r.Status,
		Pickup:        r.Pickup,
		Dropoff:       r.Dropoff,
		VehicleType:   r.VehicleType,
		EstimatedFare: r.EstimatedFare,
		ActualFare:    r.ActualFare,
		CancelReason:  r.CancelReason,
	}
}
