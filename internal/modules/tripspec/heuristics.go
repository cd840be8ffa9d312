package tripspec

import "etoile/internal/modules/zones"

const (
	DefaultDenseZoneSpeedKmh    = 15.0
	DefaultBlockedBufferMinutes = 30.0
	DefaultMaxReturnDistanceKm  = 50.0
)

// DenseZoneConfig drives the dense-zone MAD-switch heuristic: in configured
// dense urban zones, a commercial speed below the threshold suggests hourly
// pricing over the per-km transfer price.
type DenseZoneConfig struct {
	Codes             []string
	SpeedThresholdKmh float64
	AutoApply         bool
}

type DenseZoneDecision struct {
	Applicable         bool    `json:"applicable"`
	CommercialSpeedKmh float64 `json:"commercialSpeedKmh"`
	ThresholdKmh       float64 `json:"thresholdKmh"`
	TransferPrice      float64 `json:"transferPrice"`
	DispoPrice         float64 `json:"dispoPrice"`
	Suggested          bool    `json:"suggested"`
	Applied            bool    `json:"applied"`
}

// EvaluateDenseZoneMAD suggests (or, when AutoApply is set, applies)
// switching a transfer to disposal pricing: both endpoints in dense zones,
// commercial speed strictly below the threshold, and the disposal price
// exceeding the transfer price. A zero duration makes the speed undefined;
// the decision then degrades to "not suggested" instead of failing.
func EvaluateDenseZoneMAD(pickupCodes, dropoffCodes []string, distanceKm, durationMinutes, transferPrice, dispoPrice float64, cfg DenseZoneConfig) DenseZoneDecision {
	threshold := cfg.SpeedThresholdKmh
	if threshold <= 0 {
		threshold = DefaultDenseZoneSpeedKmh
	}
	codes := cfg.Codes
	if len(codes) == 0 {
		codes = zones.DefaultCentralZoneCodes()
	}

	d := DenseZoneDecision{
		ThresholdKmh:  threshold,
		TransferPrice: transferPrice,
		DispoPrice:    dispoPrice,
	}
	d.Applicable = containsAny(pickupCodes, codes) && containsAny(dropoffCodes, codes)
	if !d.Applicable || durationMinutes <= 0 {
		return d
	}
	d.CommercialSpeedKmh = distanceKm / (durationMinutes / 60)
	if d.CommercialSpeedKmh < threshold && dispoPrice > transferPrice {
		d.Suggested = true
		d.Applied = cfg.AutoApply
	}
	return d
}

// BlockedDriverConfig drives the round-trip → MAD heuristic.
type BlockedDriverConfig struct {
	BufferMinutes       float64
	MaxReturnDistanceKm float64
	AutoApply           bool
}

type BlockedReason string

const (
	BlockedByReturnTime BlockedReason = "RETURN_TIME_EXCEEDS_WAIT"
	BlockedByDistance   BlockedReason = "DISTANCE_EXCEEDS_MAX"
)

type BlockedDriverDecision struct {
	Blocked          bool          `json:"blocked"`
	Reason           BlockedReason `json:"reason,omitempty"`
	TwoTransferPrice float64       `json:"twoTransferPrice"`
	MadPrice         float64       `json:"madPrice"`
	Suggested        bool          `json:"suggested"`
	Applied          bool          `json:"applied"`
}

// EvaluateBlockedDriver decides whether a round-trip driver is blocked on
// site: returning to base (2× outbound duration plus buffer) does not fit in
// the waiting window, or the outbound distance exceeds the configured return
// maximum. A blocked driver is idle either way, so the switch to MAD pricing
// is suggested when MAD pays MORE than the two transfer legs, not less.
func EvaluateBlockedDriver(outboundKm, outboundMinutes float64, waitingMinutes *float64, twoTransferPrice, madPrice float64, cfg BlockedDriverConfig) BlockedDriverDecision {
	buffer := cfg.BufferMinutes
	if buffer <= 0 {
		buffer = DefaultBlockedBufferMinutes
	}
	maxReturn := cfg.MaxReturnDistanceKm
	if maxReturn <= 0 {
		maxReturn = DefaultMaxReturnDistanceKm
	}

	d := BlockedDriverDecision{
		TwoTransferPrice: twoTransferPrice,
		MadPrice:         madPrice,
	}
	if waitingMinutes != nil && 2*outboundMinutes+buffer > *waitingMinutes {
		d.Blocked = true
		d.Reason = BlockedByReturnTime
	} else if outboundKm > maxReturn {
		d.Blocked = true
		d.Reason = BlockedByDistance
	}
	if d.Blocked && madPrice > twoTransferPrice {
		d.Suggested = true
		d.Applied = cfg.AutoApply
	}
	return d
}

func containsAny(haystack, needles []string) bool {
	for _, h := range haystack {
		for _, n := range needles {
			if h == n {
				return true
			}
		}
	}
	return false
}
