// README: Ride lifecycle handlers: create, get, accept, start, complete, cancel.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideflow/internal/modules/ride"
	"rideflow/internal/types"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(svc *ride.Service) *RideHandler {
	return &RideHandler{rides: svc}
}

type createRideReq struct {
	PickupLat     float64 `json:"pickup_lat"`
	PickupLng     float64 `json:"pickup_lng"`
	DropoffLat    float64 `json:"dropoff_lat"`
	DropoffLng    float64 `json:"dropoff_lng"`
	VehicleType   string  `json:"vehicle_type"`
	PaymentMethod string  `json:"payment_method"`
}

func (h *RideHandler) Create(c *gin.Context) {
	actorID, role := actor(c)
	if role != "customer" {
		writeError(c, http.StatusForbidden, "only customers can request rides")
		return
	}
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.rides.Create(c.Request.Context(), ride.CreateCommand{
		CustomerID:    actorID,
		Pickup:        types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:       types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
		VehicleType:   req.VehicleType,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toRideResponse(r))
}

func (h *RideHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return
	}
	r, err := h.rides.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

func (h *RideHandler) Accept(c *gin.Context) {
	actorID, role := actor(c)
	if role != "driver" {
		writeError(c, http.StatusForbidden, "only drivers can accept rides")
		return
	}
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return
	}
	r, err := h.rides.Accept(c.Request.Context(), types.ID(id), actorID)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

func (h *RideHandler) Start(c *gin.Context) {
	actorID, role := actor(c)
	if role != "driver" {
		writeError(c, http.StatusForbidden, "only drivers can start rides")
		return
	}
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return
	}
	r, err := h.rides.Begin(c.Request.Context(), types.ID(id), actorID)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

func (h *RideHandler) Complete(c *gin.Context) {
	actorID, role := actor(c)
	if role != "driver" {
		writeError(c, http.StatusForbidden, "only drivers can complete rides")
		return
	}
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return
	}
	r, err := h.rides.Complete(c.Request.Context(), types.ID(id), actorID)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

type cancelRideReq struct {
	Reason string `json:"reason"`
}

func (h *RideHandler) Cancel(c *gin.Context) {
	actorID, role := actor(c)
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return
	}
	var req cancelRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.rides.Cancel(c.Request.Context(), ride.CancelCommand{
		RideID:    types.ID(id),
		ActorID:   actorID,
		ActorType: role,
		Reason:    req.Reason,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}
