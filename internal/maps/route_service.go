// Package maps wraps the Google Maps Directions API as an optional route
// estimator for pricing. When unavailable the engine falls back to the
// haversine distance and the time-of-day speed table.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"rideflow/internal/modules/location"
	"rideflow/internal/types"
)

type RouteService struct {
	client *maps.Client
}

func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// Route returns the driving distance in miles and duration in minutes for a
// trip between two coordinates.
func (s *RouteService) Route(ctx context.Context, origin, dest types.Point) (float64, float64, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", dest.Lat, dest.Lng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, 0, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	miles := float64(leg.Distance.Meters) / location.MetersPerMile
	minutes := leg.Duration.Minutes()
	return miles, minutes, nil
}
