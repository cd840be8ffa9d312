package pricing

import "etoile/internal/types"

const (
	methodDistance = "distance"
	methodDuration = "duration"
)

// calculateBase computes the dynamic base price: the larger of the distance
// and duration candidates, ties going to the distance method, plus the target
// margin. The returned rule alone is enough to re-derive the result.
func calculateBase(distanceKm, durationMinutes float64, s Settings) DynamicBaseRule {
	hours := durationMinutes / 60
	distancePrice := types.Round2(distanceKm * s.BaseRatePerKm)
	durationPrice := types.Round2(hours * s.BaseRatePerHour)

	method := methodDistance
	base := distancePrice
	if durationPrice > distancePrice {
		method = methodDuration
		base = durationPrice
	}

	return DynamicBaseRule{
		Kind:                RuleDynamicBase,
		DistanceKm:          distanceKm,
		DurationHours:       hours,
		RatePerKm:           s.BaseRatePerKm,
		RatePerHour:         s.BaseRatePerHour,
		DistancePrice:       distancePrice,
		DurationPrice:       durationPrice,
		SelectedMethod:      method,
		BasePrice:           base,
		TargetMarginPercent: s.TargetMarginPercent,
		PriceWithMargin:     types.Round2(base * (1 + s.TargetMarginPercent/100)),
	}
}
