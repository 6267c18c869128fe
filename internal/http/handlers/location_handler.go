// README: Driver location handlers: ping and go-offline.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideflow/internal/modules/location"
	"rideflow/internal/types"
)

type LocationHandler struct {
	locations *location.Service
}

func NewLocationHandler(svc *location.Service) *LocationHandler {
	return &LocationHandler{locations: svc}
}

type locationUpdateReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Update handles the periodic driver GPS ping.
func (h *LocationHandler) Update(c *gin.Context) {
	actorID, role := actor(c)
	driverID := c.Param("id")
	if !isValidID(driverID) {
		writeError(c, http.StatusBadRequest, "invalid driver id")
		return
	}
	if role != "admin" && (role != "driver" || string(actorID) != driverID) {
		writeError(c, http.StatusForbidden, "cannot update another driver's location")
		return
	}
	var req locationUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.locations.Update(c.Request.Context(), types.ID(driverID), types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		if errors.Is(err, location.ErrBadPosition) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		writeError(c, http.StatusServiceUnavailable, "location cache unavailable")
		return
	}
	c.Status(http.StatusNoContent)
}

// Offline evicts the driver from matching.
func (h *LocationHandler) Offline(c *gin.Context) {
	actorID, role := actor(c)
	driverID := c.Param("id")
	if !isValidID(driverID) {
		writeError(c, http.StatusBadRequest, "invalid driver id")
		return
	}
	if role != "admin" && (role != "driver" || string(actorID) != driverID) {
		writeError(c, http.StatusForbidden, "cannot evict another driver")
		return
	}
	if err := h.locations.GoOffline(c.Request.Context(), types.ID(driverID)); err != nil {
		writeError(c, http.StatusServiceUnavailable, "location cache unavailable")
		return
	}
	c.Status(http.StatusNoContent)
}
