package tripspec

import (
	"etoile/internal/modules/costing"
	"etoile/internal/types"
)

const DefaultRoundTripBufferMinutes = 120.0

type RoundTripConfig struct {
	// BufferMinutes is added to 2× the outbound duration when deciding
	// whether the driver waits on site or returns to base between legs.
	BufferMinutes float64
}

type RoundTripMode string

const (
	WaitOnSite        RoundTripMode = "WAIT_ON_SITE"
	ReturnBetweenLegs RoundTripMode = "RETURN_BETWEEN_LEGS"
)

// SelectMode compares the provided waiting time against
// 2×outbound + buffer. Waiting at or above the threshold, or an undefined
// waiting time, sends the driver back to base between legs.
func SelectMode(waitingMinutes *float64, outboundDurationMinutes float64, cfg RoundTripConfig) (RoundTripMode, float64) {
	buffer := cfg.BufferMinutes
	if buffer <= 0 {
		buffer = DefaultRoundTripBufferMinutes
	}
	threshold := 2*outboundDurationMinutes + buffer
	if waitingMinutes == nil || *waitingMinutes >= threshold {
		return ReturnBetweenLegs, threshold
	}
	return WaitOnSite, threshold
}

// RoundTripQuote is the rebuilt round-trip price and cost. AdjustedPrice
// preserves the single-leg margin ratio (price/internalCost) applied to the
// rebuilt cost, not a flat doubling.
type RoundTripQuote struct {
	Mode             RoundTripMode        `json:"mode"`
	ThresholdMinutes float64              `json:"thresholdMinutes"`
	WaitingMinutes   float64              `json:"waitingMinutes"`
	Trip             costing.TripAnalysis `json:"trip"`
	MarginRatio      float64              `json:"marginRatio"`
	AdjustedPrice    float64              `json:"adjustedPrice"`
	NaiveDoublePrice float64              `json:"naiveDoublePrice"`
	// EliminatedSegments lists the legs WAIT_ON_SITE removed compared to
	// the full return-between-legs shape.
	EliminatedSegments []string `json:"eliminatedSegments,omitempty"`
}

// BuildRoundTrip rebuilds a round trip from its possible segments:
//
//	outbound service            (always)
//	return to base              (RETURN_BETWEEN_LEGS only)
//	second approach             (RETURN_BETWEEN_LEGS only)
//	waiting on site             (WAIT_ON_SITE only, driver time at zero km)
//	return service              (always)
//
// The empty legs assume symmetry with the outbound service leg; the final leg
// ends at base by the same assumption. The single-leg price/cost pair fixes
// the margin ratio carried over to the rebuilt cost.
func BuildRoundTrip(outboundKm, outboundMinutes float64, waitingMinutes *float64, singleLegPrice, singleLegCost float64, params costing.Parameters, cfg RoundTripConfig) RoundTripQuote {
	mode, threshold := SelectMode(waitingMinutes, outboundMinutes, cfg)

	var waiting float64
	if waitingMinutes != nil {
		waiting = *waitingMinutes
	}

	segments := []costing.Segment{
		costing.NewSegment(costing.SegmentService, "outbound", outboundKm, outboundMinutes, params),
	}
	var eliminated []string
	if mode == ReturnBetweenLegs {
		segments = append(segments,
			costing.NewSegment(costing.SegmentReturn, "return to base", outboundKm, outboundMinutes, params),
			costing.NewSegment(costing.SegmentApproach, "second approach", outboundKm, outboundMinutes, params),
		)
	} else {
		eliminated = []string{"return to base", "second approach"}
		segments = append(segments,
			costing.NewSegment(costing.SegmentWaiting, "wait on site", 0, waiting, params),
		)
	}
	segments = append(segments,
		costing.NewSegment(costing.SegmentService, "return service", outboundKm, outboundMinutes, params),
	)

	trip := costing.BuildTrip(segments, 0)

	ratio := 0.0
	if singleLegCost > 0 {
		ratio = singleLegPrice / singleLegCost
	}
	return RoundTripQuote{
		Mode:               mode,
		ThresholdMinutes:   threshold,
		WaitingMinutes:     waiting,
		Trip:               trip,
		MarginRatio:        ratio,
		AdjustedPrice:      types.Round2(trip.TotalCost * ratio),
		NaiveDoublePrice:   types.Round2(2 * singleLegPrice),
		EliminatedSegments: eliminated,
	}
}
