// README: Fare quote shapes, vehicle classes, and rate constants.
package pricing

import (
	"time"

	"rideflow/internal/types"
)

type VehicleType string

const (
	VehicleEconomy VehicleType = "economy"
	VehicleXL      VehicleType = "xl"
	VehiclePremium VehicleType = "premium"
)

// vehicleMultipliers scale the metered subtotal per vehicle class.
var vehicleMultipliers = map[VehicleType]float64{
	VehicleEconomy: 1.0,
	VehicleXL:      1.5,
	VehiclePremium: 2.0,
}

// maxVehicleMultiplier is the premium class, used for the fare upper bound.
const maxVehicleMultiplier = 2.0

func VehicleMultiplier(v VehicleType) float64 {
	if m, ok := vehicleMultipliers[v]; ok {
		return m
	}
	return vehicleMultipliers[VehicleEconomy]
}

// EstimateRequest prices a prospective ride before any driver is assigned.
type EstimateRequest struct {
	Pickup       types.Point
	Dropoff      types.Point
	VehicleType  VehicleType
	RequestTime  time.Time
	Weather      string // "rain", "snow", or anything else for clear
	SpecialEvent bool
}

// FinalRequest prices a completed ride from realized pickup/dropoff times.
type FinalRequest struct {
	Pickup       types.Point
	Dropoff      types.Point
	VehicleType  VehicleType
	PickupAt     time.Time
	DropoffAt    time.Time
	Weather      string
	SpecialEvent bool
}

// Quote is the full fare breakdown. Ephemeral: only the final number is
// persisted on the ride.
type Quote struct {
	DistanceMiles   float64 `json:"distance_miles"`
	DurationMinutes float64 `json:"duration_minutes"`

	BaseFare     float64 `json:"base_fare"`
	DistanceCost float64 `json:"distance_cost"`
	TimeCost     float64 `json:"time_cost"`
	BookingFee   float64 `json:"booking_fee"`

	SurgeMultiplier   float64 `json:"surge_multiplier"`
	VehicleMultiplier float64 `json:"vehicle_multiplier"`
	DemandRatio       float64 `json:"demand_ratio"`

	Fare float64 `json:"fare"`

	// ModelPredictionUsed is true when the external predictor produced the
	// fare instead of the deterministic formula.
	ModelPredictionUsed bool `json:"model_prediction_used"`
}

// Features is the input handed to an external fare predictor.
type Features struct {
	DistanceMiles   float64
	DurationMinutes float64
	PickupTime      time.Time
	Pickup          types.Point
	Dropoff         types.Point
	VehicleType     VehicleType
}
