package pricing

import (
	"sort"
	"time"

	"etoile/internal/modules/zones"
	"etoile/internal/types"
)

// The modifier pipeline applies only to DYNAMIC prices, strictly in this
// order: vehicle-category multiplier, zone multiplier (or ring multiplier when
// the waterfall picked a shared ring), advanced rates by descending priority,
// seasonal multipliers. Every applied step emits one rule with its
// before/after prices.

// applyVehicleMultiplier scales by the category multiplier. A multiplier of
// exactly 1.0 (or an unset one) produces no rule: no-op transparency.
func applyVehicleMultiplier(price float64, cat VehicleCategory) (float64, AppliedRule) {
	if cat.PriceMultiplier <= 0 || cat.PriceMultiplier == 1.0 {
		return price, nil
	}
	after := types.Round2(price * cat.PriceMultiplier)
	return after, VehicleMultiplierRule{
		Kind:         RuleVehicleMultiplier,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Multiplier:   cat.PriceMultiplier,
		PriceBefore:  price,
		PriceAfter:   after,
	}
}

// endpointMultiplier reduces an endpoint's zone matches to one multiplier:
// the highest among them. No matching zone means a neutral 1.0.
func endpointMultiplier(matches []zones.Match) float64 {
	mult := 1.0
	for _, m := range matches {
		if m.Zone.PriceMultiplier > mult {
			mult = m.Zone.PriceMultiplier
		}
	}
	return mult
}

func combineMultipliers(pickup, dropoff float64, strategy ZoneAggregation) float64 {
	switch strategy {
	case AggregatePickupOnly:
		return pickup
	case AggregateDropoffOnly:
		return dropoff
	case AggregateAverage:
		return (pickup + dropoff) / 2
	default: // MAX, the backward-compatible default
		if dropoff > pickup {
			return dropoff
		}
		return pickup
	}
}

func applyZoneMultiplier(price float64, pickup, dropoff []zones.Match, strategy ZoneAggregation) (float64, AppliedRule) {
	if strategy == "" {
		strategy = AggregateMax
	}
	pm := endpointMultiplier(pickup)
	dm := endpointMultiplier(dropoff)
	effective := combineMultipliers(pm, dm, strategy)
	if effective == 1.0 {
		return price, nil
	}
	after := types.Round2(price * effective)
	return after, ZoneMultiplierRule{
		Kind:              RuleZoneMultiplier,
		Strategy:          strategy,
		PickupMultiplier:  pm,
		DropoffMultiplier: dm,
		Effective:         effective,
		PriceBefore:       price,
		PriceAfter:        after,
	}
}

func applyRingMultiplier(price float64, ringCode string, multiplier float64) (float64, AppliedRule) {
	if multiplier <= 0 || multiplier == 1.0 {
		return price, nil
	}
	after := types.Round2(price * multiplier)
	return after, RingMultiplierRule{
		Kind:        RuleRingMultiplier,
		RingCode:    ringCode,
		Multiplier:  multiplier,
		PriceBefore: price,
		PriceAfter:  after,
	}
}

// applyAdvancedRates evaluates night and weekend rates against the pickup
// time, by descending priority (ID breaks ties so the order is stable).
// Without a pickup time no rate can be evaluated and the price is untouched.
func applyAdvancedRates(price float64, rates []AdvancedRate, pickupAt, endAt *time.Time) (float64, []AppliedRule) {
	if pickupAt == nil || len(rates) == 0 {
		return price, nil
	}

	sorted := make([]AdvancedRate, len(rates))
	copy(sorted, rates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})

	var applied []AppliedRule
	for _, rate := range sorted {
		if !rate.Active {
			continue
		}
		var weight, overlap, total float64
		switch rate.Kind {
		case RateWeekend:
			if wd := pickupAt.Weekday(); wd == time.Saturday || wd == time.Sunday {
				weight = 1
			}
		case RateNight:
			if endAt != nil && endAt.After(*pickupAt) {
				// Weighted overlap: scale the adjustment by the share of
				// the trip spent inside the night window.
				total = endAt.Sub(*pickupAt).Minutes()
				overlap = nightOverlapMinutes(*pickupAt, *endAt, rate.StartMinute, rate.EndMinute)
				weight = overlap / total
			} else if inDailyWindow(*pickupAt, rate.StartMinute, rate.EndMinute) {
				// No end time: binary check against pickup alone. This is a
				// deliberate simplification, kept as-is.
				weight = 1
			}
		}
		if weight <= 0 {
			continue
		}

		var after float64
		if rate.Adjustment == AdjustFixed {
			after = types.Round2(price + rate.Value*weight)
		} else {
			after = types.Round2(price * (1 + rate.Value/100*weight))
		}
		applied = append(applied, AdvancedRateRule{
			Kind:                RuleAdvancedRate,
			RateID:              rate.ID,
			Label:               rate.Label,
			RateKind:            rate.Kind,
			Adjustment:          rate.Adjustment,
			Value:               rate.Value,
			Weight:              weight,
			NightOverlapMinutes: overlap,
			TripMinutes:         total,
			PriceBefore:         price,
			PriceAfter:          after,
		})
		price = after
	}
	return price, applied
}

// nightOverlapMinutes clips the trip interval against the night window for
// every calendar day it touches. Windows crossing midnight (end ≤ start) and
// multi-day trips both resolve correctly because the window of each day is
// materialized as a concrete interval before clipping.
func nightOverlapMinutes(start, end time.Time, startMinute, endMinute int) float64 {
	if !end.After(start) {
		return 0
	}
	total := 0.0
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()).AddDate(0, 0, -1)
	for !day.After(end) {
		ws := day.Add(time.Duration(startMinute) * time.Minute)
		we := day.Add(time.Duration(endMinute) * time.Minute)
		if endMinute <= startMinute {
			we = we.Add(24 * time.Hour)
		}
		total += clippedMinutes(start, end, ws, we)
		day = day.AddDate(0, 0, 1)
	}
	return total
}

func clippedMinutes(aStart, aEnd, bStart, bEnd time.Time) float64 {
	s := aStart
	if bStart.After(s) {
		s = bStart
	}
	e := aEnd
	if bEnd.Before(e) {
		e = bEnd
	}
	if !e.After(s) {
		return 0
	}
	return e.Sub(s).Minutes()
}

// inDailyWindow tests a clock time against a minutes-from-midnight window,
// crossing midnight when end ≤ start.
func inDailyWindow(t time.Time, startMinute, endMinute int) bool {
	m := t.Hour()*60 + t.Minute()
	if endMinute <= startMinute {
		return m >= startMinute || m < endMinute
	}
	return m >= startMinute && m < endMinute
}

// applySeasonalMultipliers scales by every active season covering the pickup
// date, applied last, in table order.
func applySeasonalMultipliers(price float64, seasons []SeasonalMultiplier, pickupAt *time.Time) (float64, []AppliedRule) {
	if pickupAt == nil {
		return price, nil
	}
	var applied []AppliedRule
	for _, s := range seasons {
		if !s.Active || s.Multiplier <= 0 || s.Multiplier == 1.0 {
			continue
		}
		if pickupAt.Before(s.From) || pickupAt.After(s.To) {
			continue
		}
		after := types.Round2(price * s.Multiplier)
		applied = append(applied, SeasonalMultiplierRule{
			Kind:        RuleSeasonalMultiplier,
			SeasonID:    s.ID,
			Label:       s.Label,
			Multiplier:  s.Multiplier,
			PriceBefore: price,
			PriceAfter:  after,
		})
		price = after
	}
	return price, applied
}
