// README: Pricing service: formula path, surge, and external-prediction override.
package pricing

import (
	"context"
	"log/slog"
	"math"
	"time"

	"rideflow/internal/config"
	"rideflow/internal/modules/location"
	"rideflow/internal/types"
)

// Predictor is the external fare-prediction collaborator. It is unreliable:
// callers bound it with a timeout and fall back to the formula on any error.
type Predictor interface {
	PredictFare(ctx context.Context, f Features) (float64, error)
}

// RouteEstimator optionally supplies road distance and duration instead of
// the haversine/speed-table estimate.
type RouteEstimator interface {
	Route(ctx context.Context, origin, dest types.Point) (miles, minutes float64, err error)
}

type Service struct {
	cfg       config.PricingConfig
	demand    DemandSource
	predictor Predictor
	routes    RouteEstimator
	log       *slog.Logger
}

// NewService wires the engine. demand is required; predictor and routes may
// be nil, in which case the deterministic path is the only path.
func NewService(cfg config.PricingConfig, demand DemandSource, predictor Predictor, routes RouteEstimator, log *slog.Logger) *Service {
	return &Service{cfg: cfg, demand: demand, predictor: predictor, routes: routes, log: log}
}

// Estimate prices a prospective ride. It never fails: every enrichment
// signal (routes, demand, predictor) degrades to a deterministic default.
func (s *Service) Estimate(ctx context.Context, req EstimateRequest) Quote {
	miles, minutes := s.travel(ctx, req.Pickup, req.Dropoff, req.RequestTime)
	return s.quote(ctx, req.Pickup, req.Dropoff, req.VehicleType, req.RequestTime,
		req.Weather, req.SpecialEvent, miles, minutes)
}

// Final prices a completed ride from the realized duration between pickup
// and dropoff, through the same pipeline as Estimate.
func (s *Service) Final(ctx context.Context, req FinalRequest) Quote {
	miles := location.DistanceMiles(req.Pickup.Lat, req.Pickup.Lng, req.Dropoff.Lat, req.Dropoff.Lng)
	minutes := req.DropoffAt.Sub(req.PickupAt).Minutes()
	if minutes <= 0 {
		minutes = EstimateDurationMinutes(miles, req.PickupAt)
	}
	return s.quote(ctx, req.Pickup, req.Dropoff, req.VehicleType, req.PickupAt,
		req.Weather, req.SpecialEvent, miles, minutes)
}

func (s *Service) quote(ctx context.Context, pickup, dropoff types.Point, vt VehicleType,
	at time.Time, weather string, event bool, miles, minutes float64) Quote {

	ratio := 0.0
	if s.demand != nil {
		sig, err := s.demand.Demand(ctx, pickup, at)
		if err != nil {
			s.log.Warn("demand source failed, pricing without surge", "err", err)
		} else {
			ratio = sig.Ratio
		}
	}
	surge := ComputeSurge(ratio, at, weather, event)

	q := s.formula(miles, minutes, surge, vt)
	q.DemandRatio = ratio

	if s.predictor != nil {
		if fare, ok := s.predict(ctx, Features{
			DistanceMiles:   miles,
			DurationMinutes: minutes,
			PickupTime:      at,
			Pickup:          pickup,
			Dropoff:         dropoff,
			VehicleType:     vt,
		}, miles); ok {
			q.Fare = fare
			q.ModelPredictionUsed = true
		}
	}
	return q
}

// formula is the deterministic fare path:
//
//	(base + miles*perMile + minutes*perMinute) * surge * vehicle + booking
//
// clamped to [minimumFare, MaxFare(miles)]. Pure function of its inputs.
func (s *Service) formula(miles, minutes, surge float64, vt VehicleType) Quote {
	vm := VehicleMultiplier(vt)
	distanceCost := miles * s.cfg.PerMileRate
	timeCost := minutes * s.cfg.PerMinuteRate
	subtotal := s.cfg.BaseFare + distanceCost + timeCost
	fare := subtotal*surge*vm + s.cfg.BookingFee

	fare = clamp(fare, s.cfg.MinimumFare, s.MaxFare(miles))

	return Quote{
		DistanceMiles:     miles,
		DurationMinutes:   minutes,
		BaseFare:          s.cfg.BaseFare,
		DistanceCost:      roundCents(distanceCost),
		TimeCost:          roundCents(timeCost),
		BookingFee:        s.cfg.BookingFee,
		SurgeMultiplier:   surge,
		VehicleMultiplier: vm,
		Fare:              roundCents(fare),
	}
}

// MaxFare bounds any quote for the given distance: the extreme surge tier,
// the premium vehicle class, and the slowest traffic all at once. Guards
// against runaway multiplication.
func (s *Service) MaxFare(miles float64) float64 {
	worstMinutes := miles / slowestSpeedMph * 60
	subtotal := s.cfg.BaseFare + miles*s.cfg.PerMileRate + worstMinutes*s.cfg.PerMinuteRate
	return subtotal*maxSurgeTier*maxVehicleMultiplier + s.cfg.BookingFee
}

// predict runs the external call under its timeout and sanity-checks the
// result. Returns ok=false on any failure; the formula fare stands.
func (s *Service) predict(ctx context.Context, f Features, miles float64) (float64, bool) {
	pctx, cancel := context.WithTimeout(ctx, s.cfg.PredictorTimeout)
	defer cancel()

	fare, err := s.predictor.PredictFare(pctx, f)
	if err != nil {
		s.log.Warn("fare predictor unavailable, using formula", "err", err)
		return 0, false
	}
	if math.IsNaN(fare) || math.IsInf(fare, 0) || fare <= 0 || fare > s.MaxFare(miles) {
		s.log.Warn("fare predictor returned implausible value, using formula", "fare", fare)
		return 0, false
	}
	if fare < s.cfg.MinimumFare {
		fare = s.cfg.MinimumFare
	}
	return roundCents(fare), true
}

// travel resolves distance and duration, preferring the route estimator.
func (s *Service) travel(ctx context.Context, pickup, dropoff types.Point, at time.Time) (float64, float64) {
	if s.routes != nil {
		if miles, minutes, err := s.routes.Route(ctx, pickup, dropoff); err == nil && miles > 0 {
			return miles, minutes
		} else if err != nil {
			s.log.Debug("route estimator failed, using haversine", "err", err)
		}
	}
	miles := location.DistanceMiles(pickup.Lat, pickup.Lng, dropoff.Lat, dropoff.Lng)
	return miles, EstimateDurationMinutes(miles, at)
}

// EstimateFare adapts Estimate to the narrow fare-only contract the ride
// state machine consumes.
func (s *Service) EstimateFare(ctx context.Context, pickup, dropoff types.Point, vehicleType string, at time.Time) (float64, error) {
	q := s.Estimate(ctx, EstimateRequest{
		Pickup: pickup, Dropoff: dropoff,
		VehicleType: VehicleType(vehicleType), RequestTime: at,
	})
	return q.Fare, nil
}

// FinalFare adapts Final likewise.
func (s *Service) FinalFare(ctx context.Context, pickup, dropoff types.Point, vehicleType string, pickupAt, dropoffAt time.Time) (float64, error) {
	q := s.Final(ctx, FinalRequest{
		Pickup: pickup, Dropoff: dropoff,
		VehicleType: VehicleType(vehicleType),
		PickupAt:    pickupAt, DropoffAt: dropoffAt,
	})
	return q.Fare, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
