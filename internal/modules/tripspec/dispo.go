// Package tripspec holds the trip-type-specific pricing recalculations:
// hourly disposal, multi-leg excursions, round-trip segmentation, and the
// MAD-switch heuristics.
package tripspec

import (
	"math"
	"sort"

	"etoile/internal/types"
)

const (
	DefaultIncludedKmPerHour = 50.0
	DefaultOverageRatePerKm  = 0.50
)

type InterpolationStrategy string

const (
	InterpolateRoundUp      InterpolationStrategy = "ROUND_UP"
	InterpolateRoundDown    InterpolationStrategy = "ROUND_DOWN"
	InterpolateProportional InterpolationStrategy = "PROPORTIONAL"
)

// TimeBucket fixes the price of a disposal block of the given duration.
type TimeBucket struct {
	Hours float64 `json:"hours"`
	Price float64 `json:"price"`
}

type DispoConfig struct {
	RatePerHour       float64
	IncludedKmPerHour float64
	OverageRatePerKm  float64
	// Buckets, when present, supersede the hourly formula for the covered
	// duration range.
	Buckets       []TimeBucket
	Interpolation InterpolationStrategy
}

type DispoPriceSource string

const (
	SourceHourlyRate         DispoPriceSource = "HOURLY_RATE"
	SourceBucketExact        DispoPriceSource = "BUCKET_EXACT"
	SourceBucketRoundUp      DispoPriceSource = "BUCKET_ROUND_UP"
	SourceBucketRoundDown    DispoPriceSource = "BUCKET_ROUND_DOWN"
	SourceBucketProportional DispoPriceSource = "BUCKET_PROPORTIONAL"
	SourceBucketPlusHourly   DispoPriceSource = "BUCKET_PLUS_HOURLY"
)

// DispoQuote records every intermediate of the disposal computation so the
// applied rule can replay it.
type DispoQuote struct {
	Hours            float64          `json:"hours"`
	ActualKm         float64          `json:"actualKm"`
	RatePerHour      float64          `json:"ratePerHour"`
	Source           DispoPriceSource `json:"source"`
	BasePrice        float64          `json:"basePrice"`
	IncludedKm       float64          `json:"includedKm"`
	OverageKm        float64          `json:"overageKm"`
	OverageRatePerKm float64          `json:"overageRatePerKm"`
	OveragePrice     float64          `json:"overagePrice"`
	Total            float64          `json:"total"`
	BucketLow        *TimeBucket      `json:"bucketLow,omitempty"`
	BucketHigh       *TimeBucket      `json:"bucketHigh,omitempty"`
}

// QuoteDispo prices an hourly disposal: base price from the bucket table when
// one covers the duration, from hours × rate otherwise, plus the kilometre
// overage which is always computed on top.
func QuoteDispo(hours, actualKm float64, cfg DispoConfig) DispoQuote {
	includedPerHour := cfg.IncludedKmPerHour
	if includedPerHour <= 0 {
		includedPerHour = DefaultIncludedKmPerHour
	}
	overageRate := cfg.OverageRatePerKm
	if overageRate <= 0 {
		overageRate = DefaultOverageRatePerKm
	}

	q := DispoQuote{
		Hours:            hours,
		ActualKm:         actualKm,
		RatePerHour:      cfg.RatePerHour,
		OverageRatePerKm: overageRate,
		IncludedKm:       types.Round2(hours * includedPerHour),
	}
	q.OverageKm = math.Max(0, actualKm-q.IncludedKm)
	q.OveragePrice = types.Round2(q.OverageKm * overageRate)

	q.Source, q.BasePrice, q.BucketLow, q.BucketHigh = dispoBasePrice(hours, cfg)
	q.BasePrice = types.Round2(q.BasePrice)
	q.Total = types.Round2(q.BasePrice + q.OveragePrice)
	return q
}

func dispoBasePrice(hours float64, cfg DispoConfig) (DispoPriceSource, float64, *TimeBucket, *TimeBucket) {
	buckets := make([]TimeBucket, len(cfg.Buckets))
	copy(buckets, cfg.Buckets)
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Hours < buckets[j].Hours })

	if len(buckets) == 0 || hours < buckets[0].Hours {
		// Below the smallest bucket (or no table): hourly formula.
		return SourceHourlyRate, hours * cfg.RatePerHour, nil, nil
	}

	largest := buckets[len(buckets)-1]
	if hours > largest.Hours {
		// Above the largest bucket: its price plus hourly rate for the
		// excess hours.
		b := largest
		return SourceBucketPlusHourly, largest.Price + (hours-largest.Hours)*cfg.RatePerHour, &b, nil
	}

	for i, b := range buckets {
		if b.Hours == hours {
			bb := b
			return SourceBucketExact, b.Price, &bb, nil
		}
		if b.Hours > hours {
			low, high := buckets[i-1], b
			switch cfg.Interpolation {
			case InterpolateRoundDown:
				return SourceBucketRoundDown, low.Price, &low, &high
			case InterpolateProportional:
				frac := (hours - low.Hours) / (high.Hours - low.Hours)
				return SourceBucketProportional, low.Price + frac*(high.Price-low.Price), &low, &high
			default: // ROUND_UP
				return SourceBucketRoundUp, high.Price, &low, &high
			}
		}
	}
	// Unreachable: hours ≤ largest and no bracket found.
	return SourceHourlyRate, hours * cfg.RatePerHour, nil, nil
}
