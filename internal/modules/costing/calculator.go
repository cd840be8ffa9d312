package costing

import "etoile/internal/types"

// FuelCost computes the fuel component for a segment. customPrices overrides
// the default pump price table per fuel type; a nil map or a missing entry
// falls back to DefaultFuelPrices.
func FuelCost(distanceKm, consumptionPer100Km float64, fuel FuelType, customPrices map[FuelType]float64) Component {
	if consumptionPer100Km <= 0 {
		consumptionPer100Km = DefaultConsumptionPer100Km
	}
	if fuel == "" {
		fuel = FuelDiesel
	}
	price, ok := customPrices[fuel]
	if !ok || price <= 0 {
		price = DefaultFuelPrices()[fuel]
	}
	liters := distanceKm * consumptionPer100Km / 100
	return Component{
		Amount:   types.Round2(liters * price),
		Rate:     price,
		Quantity: liters,
		Unit:     "L",
	}
}

func TollCost(distanceKm, ratePerKm float64) Component {
	if ratePerKm <= 0 {
		ratePerKm = DefaultTollRatePerKm
	}
	return Component{
		Amount:   types.Round2(distanceKm * ratePerKm),
		Rate:     ratePerKm,
		Quantity: distanceKm,
		Unit:     "km",
	}
}

func WearCost(distanceKm, ratePerKm float64) Component {
	if ratePerKm <= 0 {
		ratePerKm = DefaultWearRatePerKm
	}
	return Component{
		Amount:   types.Round2(distanceKm * ratePerKm),
		Rate:     ratePerKm,
		Quantity: distanceKm,
		Unit:     "km",
	}
}

func DriverCost(durationMinutes, hourlyRate float64) Component {
	if hourlyRate <= 0 {
		hourlyRate = DefaultDriverHourlyRate
	}
	hours := durationMinutes / 60
	return Component{
		Amount:   types.Round2(hours * hourlyRate),
		Rate:     hourlyRate,
		Quantity: hours,
		Unit:     "h",
	}
}

// CostBreakdown sums the four operational components plus parking for one
// distance/duration segment. Inputs are assumed non-negative; callers
// validate upstream.
func CostBreakdown(distanceKm, durationMinutes float64, p Parameters, parkingAmount float64, parkingDesc string) Breakdown {
	b := Breakdown{
		Fuel:   FuelCost(distanceKm, p.ConsumptionPer100Km, p.FuelType, p.FuelPrices),
		Tolls:  TollCost(distanceKm, p.TollRatePerKm),
		Wear:   WearCost(distanceKm, p.WearRatePerKm),
		Driver: DriverCost(durationMinutes, p.DriverHourlyRate),
	}
	if parkingAmount > 0 {
		b.Parking = Component{
			Amount:   types.Round2(parkingAmount),
			Rate:     parkingAmount,
			Quantity: 1,
			Unit:     parkingDesc,
		}
	}
	b.Total = types.Round2(b.Fuel.Amount + b.Tolls.Amount + b.Wear.Amount + b.Driver.Amount + b.Parking.Amount)
	return b
}

// NewSegment builds a named segment with its cost breakdown.
func NewSegment(kind SegmentKind, label string, distanceKm, durationMinutes float64, p Parameters) Segment {
	return Segment{
		Kind:            kind,
		Label:           label,
		DistanceKm:      distanceKm,
		DurationMinutes: durationMinutes,
		Cost:            CostBreakdown(distanceKm, durationMinutes, p, 0, ""),
	}
}

// BuildTrip aggregates segments into a TripAnalysis. Totals are plain segment
// sums; stops are counted by the caller (excursions only).
func BuildTrip(segments []Segment, totalStops int) TripAnalysis {
	t := TripAnalysis{
		Segments:   segments,
		TotalStops: totalStops,
	}
	for _, s := range segments {
		t.TotalDistanceKm += s.DistanceKm
		t.TotalDurationMinutes += s.DurationMinutes
		t.TotalCost += s.Cost.Total
	}
	t.TotalCost = types.Round2(t.TotalCost)
	return t
}

// WithSegment returns a copy of the analysis extended by one segment.
func (t TripAnalysis) WithSegment(s Segment) TripAnalysis {
	segs := make([]Segment, 0, len(t.Segments)+1)
	segs = append(segs, t.Segments...)
	segs = append(segs, s)
	return BuildTrip(segs, t.TotalStops)
}
