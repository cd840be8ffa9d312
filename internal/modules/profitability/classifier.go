package profitability

import "etoile/internal/types"

// MarginPercent is (price − cost) / price × 100, rounded to 2 decimals.
// A zero or negative price has no meaningful margin and yields 0.
func MarginPercent(price, cost float64) float64 {
	if price <= 0 {
		return 0
	}
	return types.Round2((price - cost) / price * 100)
}

// Classify maps a margin to its traffic-light indicator. Boundaries are
// inclusive on the way up: exactly 20% is green, exactly 0% is orange.
func Classify(marginPercent float64, t Thresholds) Indicator {
	switch {
	case marginPercent >= t.GreenMinPercent:
		return IndicatorGreen
	case marginPercent >= t.OrangeMinPercent:
		return IndicatorOrange
	default:
		return IndicatorRed
	}
}

// ValidateOverride checks a manually entered price against the cost floor.
// The override must be strictly positive and keep the margin at or above
// MinOverrideMarginPercent (or the orange boundary when unset).
func ValidateOverride(overridePrice, cost float64, t Thresholds) OverrideCheck {
	if overridePrice <= 0 {
		return OverrideCheck{Reason: OverrideInvalidPrice, Indicator: IndicatorRed}
	}

	floor := t.MinOverrideMarginPercent
	if floor == 0 {
		floor = t.OrangeMinPercent
	}

	margin := MarginPercent(overridePrice, cost)
	check := OverrideCheck{
		MarginPercent: margin,
		Indicator:     Classify(margin, t),
	}
	if margin < floor {
		check.Reason = OverrideBelowMinimumMargin
		check.MinimumPrice = minimumPriceFor(cost, floor)
		return check
	}
	check.Allowed = true
	return check
}

// minimumPriceFor inverts the margin formula: price = cost / (1 − m/100).
func minimumPriceFor(cost, marginPercent float64) float64 {
	if marginPercent >= 100 {
		return 0
	}
	return types.Round2(cost / (1 - marginPercent/100))
}
