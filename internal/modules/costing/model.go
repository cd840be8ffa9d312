// Package costing turns distance/duration segments into operational cost
// breakdowns. Everything here is a pure function over plain values.
package costing

type FuelType string

const (
	FuelDiesel   FuelType = "diesel"
	FuelGasoline FuelType = "gasoline"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
)

// Default cost parameters, used whenever the organization settings leave a
// field at zero. Fuel prices are €/L (€/kWh for electric).
const (
	DefaultConsumptionPer100Km = 8.5
	DefaultTollRatePerKm       = 0.15
	DefaultWearRatePerKm       = 0.12
	DefaultDriverHourlyRate    = 22.0
)

func DefaultFuelPrices() map[FuelType]float64 {
	return map[FuelType]float64{
		FuelDiesel:   1.789,
		FuelGasoline: 1.849,
		FuelElectric: 0.25,
		FuelHybrid:   1.60,
	}
}

// Parameters carries the per-organization operational cost settings. Zero
// values fall back to the documented defaults above.
type Parameters struct {
	FuelType            FuelType
	ConsumptionPer100Km float64
	FuelPrices          map[FuelType]float64
	TollRatePerKm       float64
	WearRatePerKm       float64
	DriverHourlyRate    float64
}

// Component is one leaf of a cost breakdown. Rate and Quantity are retained
// so a reviewer can re-derive Amount = Quantity × Rate.
type Component struct {
	Amount   float64 `json:"amount"`
	Rate     float64 `json:"rate"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

type Breakdown struct {
	Fuel    Component `json:"fuel"`
	Tolls   Component `json:"tolls"`
	Wear    Component `json:"wear"`
	Driver  Component `json:"driver"`
	Parking Component `json:"parking"`
	Total   float64   `json:"total"`
}

type SegmentKind string

const (
	SegmentApproach SegmentKind = "approach"
	SegmentService  SegmentKind = "service"
	SegmentReturn   SegmentKind = "return"
	SegmentWaiting  SegmentKind = "waiting"
)

// Segment is a named leg of a trip with its own cost breakdown.
type Segment struct {
	Kind            SegmentKind `json:"kind"`
	Label           string      `json:"label,omitempty"`
	DistanceKm      float64     `json:"distanceKm"`
	DurationMinutes float64     `json:"durationMinutes"`
	Cost            Breakdown   `json:"cost"`
}

// TripAnalysis aggregates segments. It is never mutated after construction;
// later pricing stages that need to extend it build a copy.
type TripAnalysis struct {
	Segments             []Segment `json:"segments"`
	TotalDistanceKm      float64   `json:"totalDistanceKm"`
	TotalDurationMinutes float64   `json:"totalDurationMinutes"`
	TotalCost            float64   `json:"totalCost"`
	TotalStops           int       `json:"totalStops"`
}
