// README: Pre-ride fare quote handler. Read-only; no state mutation.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideflow/internal/modules/pricing"
	"rideflow/internal/types"
)

type PricingHandler struct {
	pricing *pricing.Service
}

func NewPricingHandler(svc *pricing.Service) *PricingHandler {
	return &PricingHandler{pricing: svc}
}

type estimateReq struct {
	PickupLat    float64 `json:"pickup_lat"`
	PickupLng    float64 `json:"pickup_lng"`
	DropoffLat   float64 `json:"dropoff_lat"`
	DropoffLng   float64 `json:"dropoff_lng"`
	VehicleType  string  `json:"vehicle_type"`
	RequestTime  string  `json:"request_time,omitempty"` // RFC3339; defaults to now
	Weather      string  `json:"weather,omitempty"`
	SpecialEvent bool    `json:"special_event,omitempty"`
}

func (h *PricingHandler) Estimate(c *gin.Context) {
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	pickup := types.Point{Lat: req.PickupLat, Lng: req.PickupLng}
	dropoff := types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng}
	if !pickup.Valid() || !dropoff.Valid() {
		writeError(c, http.StatusBadRequest, "pickup and dropoff coordinates are required")
		return
	}
	at := time.Now()
	if req.RequestTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.RequestTime)
		if err != nil {
			writeError(c, http.StatusBadRequest, "request_time must be RFC3339")
			return
		}
		at = parsed
	}

	quote := h.pricing.Estimate(c.Request.Context(), pricing.EstimateRequest{
		Pickup:       pickup,
		Dropoff:      dropoff,
		VehicleType:  pricing.VehicleType(req.VehicleType),
		RequestTime:  at,
		Weather:      req.Weather,
		SpecialEvent: req.SpecialEvent,
	})
	writeJSON(c, http.StatusOK, quote)
}
