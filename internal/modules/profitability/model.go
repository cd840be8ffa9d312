// Package profitability classifies quotes against margin thresholds and
// guards manual price overrides.
package profitability

type Indicator string

const (
	IndicatorGreen  Indicator = "GREEN"
	IndicatorOrange Indicator = "ORANGE"
	IndicatorRed    Indicator = "RED"
)

const (
	DefaultGreenMinPercent  = 20.0
	DefaultOrangeMinPercent = 0.0
)

// Thresholds are inclusive lower bounds: margin ≥ GreenMinPercent is green,
// margin ≥ OrangeMinPercent is orange, below that is red.
type Thresholds struct {
	GreenMinPercent  float64 `json:"greenMinPercent"`
	OrangeMinPercent float64 `json:"orangeMinPercent"`
	// MinOverrideMarginPercent floors manual overrides; zero means overrides
	// may go down to the orange boundary.
	MinOverrideMarginPercent float64 `json:"minOverrideMarginPercent"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		GreenMinPercent:  DefaultGreenMinPercent,
		OrangeMinPercent: DefaultOrangeMinPercent,
	}
}

type OverrideRejectReason string

const (
	OverrideInvalidPrice       OverrideRejectReason = "INVALID_PRICE"
	OverrideBelowMinimumMargin OverrideRejectReason = "BELOW_MINIMUM_MARGIN"
)

// OverrideCheck is the outcome of validating a manual price. When rejected,
// MinimumPrice tells the operator the lowest acceptable value.
type OverrideCheck struct {
	Allowed       bool                 `json:"allowed"`
	Reason        OverrideRejectReason `json:"reason,omitempty"`
	MarginPercent float64              `json:"marginPercent"`
	Indicator     Indicator            `json:"indicator"`
	MinimumPrice  float64              `json:"minimumPrice,omitempty"`
}
