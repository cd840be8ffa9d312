// Package types holds the small value objects shared across modules.
package types

import "math"

type ID string

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TripType distinguishes the three commercial trip shapes.
type TripType string

const (
	TripTransfer  TripType = "transfer"
	TripDispo     TripType = "dispo"
	TripExcursion TripType = "excursion"
)

func (t TripType) Valid() bool {
	switch t {
	case TripTransfer, TripDispo, TripExcursion:
		return true
	}
	return false
}

// Round2 rounds a monetary amount to 2 decimal places. Every price published
// by the engine goes through this, matching the rounding point of the quote
// history already in production.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
