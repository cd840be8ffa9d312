// Package maps wraps the Google Maps APIs the quoting surface needs: driving
// estimates for a pickup/dropoff pair and geocoding of free-text addresses.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"etoile/internal/types"
)

// RouteService fetches driving estimates used to fill a pricing request when
// the caller only has coordinates.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// Estimate is a driving-mode route summary in the units the engine consumes.
type Estimate struct {
	DistanceKm      float64
	DurationMinutes float64
}

// DrivingEstimate returns the distance and duration of the best driving route
// between two coordinates, biased to France.
func (s *RouteService) DrivingEstimate(ctx context.Context, origin, destination types.Point) (Estimate, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", destination.Lat, destination.Lng),
		Mode:        maps.TravelModeDriving,
		Language:    "fr",
		Region:      "FR",
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return Estimate{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Estimate{}, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	return Estimate{
		DistanceKm:      float64(leg.Distance.Meters) / 1000,
		DurationMinutes: leg.Duration.Minutes(),
	}, nil
}
