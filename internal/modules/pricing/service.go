package pricing

import (
	"etoile/internal/modules/catalog"
	"etoile/internal/modules/compliance"
	"etoile/internal/modules/costing"
	"etoile/internal/modules/profitability"
	"etoile/internal/modules/tripspec"
	"etoile/internal/modules/zones"
	"etoile/internal/types"
)

// Calculate prices one request against the contact's catalog and the
// organization bundle. The same inputs always produce the same result,
// applied-rule order included.
func Calculate(req PricingRequest, contact catalog.Contact, b Bundle) PricingResult {
	s := b.Settings
	conflict := s.ZoneConflict
	if conflict == "" {
		conflict = zones.ConflictCombined
	}
	pickupMatches := zones.Resolve(req.Pickup, b.Zones, conflict)
	dropoffMatches := zones.Resolve(req.Dropoff, b.Zones, conflict)

	cat := b.Category(req.VehicleCategoryID)
	trip, excursion := buildTrip(req, s)

	res := PricingResult{Mode: ModeDynamic, Trip: trip}

	// Engagement rule first: a contracted catalog price is fixed and
	// bypasses the waterfall and every modifier.
	outcome := catalog.Match(catalog.MatchInput{
		TripType:          req.TripType,
		VehicleCategoryID: req.VehicleCategoryID,
		Pickup:            req.Pickup,
		Dropoff:           req.Dropoff,
		DurationHours:     req.DurationHours,
	}, contact, b.Zones)

	if outcome.Match != nil {
		res.Mode = ModeFixedGrid
		res.MatchedGrid = outcome.Match
		res.Price = types.Round2(outcome.Match.FixedPrice)
		res.AppliedRules = append(res.AppliedRules, CatalogPriceRule{
			Kind:  RuleCatalogPrice,
			Match: *outcome.Match,
			Price: res.Price,
		})
	} else {
		res.FallbackReason = outcome.Fallback
		res.GridSearch = outcome.Trace
		dynamicPrice(req, cat, b, pickupMatches, dropoffMatches, excursion, &res)
	}

	finish(cat, s, &res)
	return res
}

// buildTrip assembles the operational trip analysis for the request's trip
// type. A transfer is costed as service plus a symmetric return to base; a
// disposal is one service block; an excursion is the waypoint chain plus its
// return trip.
func buildTrip(req PricingRequest, s Settings) (costing.TripAnalysis, *tripspec.ExcursionAnalysis) {
	p := s.Cost
	switch req.TripType {
	case types.TripDispo:
		minutes := req.DurationHours * 60
		if minutes <= 0 {
			minutes = req.EstimatedDurationMinutes
		}
		seg := serviceSegment(req, req.EstimatedDistanceKm, minutes, p)
		return costing.BuildTrip([]costing.Segment{seg}, 0), nil

	case types.TripExcursion:
		finalKm := req.EstimatedDistanceKm
		finalMin := req.EstimatedDurationMinutes
		for _, stop := range req.Stops {
			finalKm -= stop.LegDistanceKm
			finalMin -= stop.LegDurationMinutes
		}
		if finalKm < 0 {
			finalKm = 0
		}
		if finalMin < 0 {
			finalMin = 0
		}
		a := tripspec.BuildExcursion(tripspec.ExcursionInput{
			Stops:           req.Stops,
			FinalLegKm:      finalKm,
			FinalLegMinutes: finalMin,
			Params:          p,
		})
		return a.Trip, &a

	default: // transfer
		service := serviceSegment(req, req.EstimatedDistanceKm, req.EstimatedDurationMinutes, p)
		ret := costing.NewSegment(costing.SegmentReturn, "return to base",
			req.EstimatedDistanceKm, req.EstimatedDurationMinutes, p)
		return costing.BuildTrip([]costing.Segment{service, ret}, 0), nil
	}
}

func serviceSegment(req PricingRequest, km, minutes float64, p costing.Parameters) costing.Segment {
	return costing.Segment{
		Kind:            costing.SegmentService,
		Label:           "service",
		DistanceKm:      km,
		DurationMinutes: minutes,
		Cost:            costing.CostBreakdown(km, minutes, p, req.ParkingAmount, req.ParkingDescription),
	}
}

// dynamicPrice runs the computed-price path: zone-grid waterfall, base
// calculation per trip type, modifier pipeline, then the trip-type
// specializations (round trip, MAD-switch heuristics).
func dynamicPrice(req PricingRequest, cat VehicleCategory, b Bundle, pickup, dropoff []zones.Match, excursion *tripspec.ExcursionAnalysis, res *PricingResult) {
	s := b.Settings

	// The zone grid prices point-to-point transfers; disposals and excursions
	// keep their hours/legs formulas regardless of where the endpoints sit.
	if s.Waterfall != nil && req.TripType == types.TripTransfer {
		wf := catalog.EvaluateWaterfall(*s.Waterfall, req.VehicleCategoryID, pickup, dropoff, s.CentralZones)
		res.Waterfall = &wf
		if wf.FixedPrice != nil {
			// Levels 1–2 fix the price outright; modifiers never touch it.
			res.Mode = ModeFixedGrid
			res.Price = *wf.FixedPrice
			res.AppliedRules = append(res.AppliedRules, ZoneGridRule{
				Kind:  RuleZoneGridPrice,
				Level: wf.AppliedLevel,
				Price: *wf.FixedPrice,
			})
			return
		}
	}

	switch req.TripType {
	case types.TripDispo:
		q := tripspec.QuoteDispo(req.DurationHours, req.EstimatedDistanceKm, s.Dispo)
		res.Price = q.Total
		res.AppliedRules = append(res.AppliedRules, TimeBucketRule{Kind: RuleTimeBucket, Quote: q})

	case types.TripExcursion:
		base := calculateBase(res.Trip.TotalDistanceKm, res.Trip.TotalDurationMinutes, s)
		res.Price = base.PriceWithMargin
		res.AppliedRules = append(res.AppliedRules, base)
		if excursion != nil {
			res.AppliedRules = append(res.AppliedRules, ExcursionReturnRule{
				Kind:                  RuleExcursionReturn,
				Basis:                 excursion.ReturnBasis,
				ReturnDistanceKm:      excursion.ReturnDistanceKm,
				ReturnDurationMinutes: excursion.ReturnDurationMinutes,
				Legs:                  len(excursion.Legs),
			})
		}

	default: // transfer, priced on the single service leg
		base := calculateBase(req.EstimatedDistanceKm, req.EstimatedDurationMinutes, s)
		res.Price = base.PriceWithMargin
		res.AppliedRules = append(res.AppliedRules, base)
	}

	res.Price = applyModifiers(req, cat, b, pickup, dropoff, res)

	if req.TripType == types.TripTransfer {
		if req.IsRoundTrip {
			specializeRoundTrip(req, s, res)
		} else {
			specializeDenseZone(req, s, pickup, dropoff, res)
		}
	}
}

func applyModifiers(req PricingRequest, cat VehicleCategory, b Bundle, pickup, dropoff []zones.Match, res *PricingResult) float64 {
	s := b.Settings
	price := res.Price

	price, rule := applyVehicleMultiplier(price, cat)
	if rule != nil {
		res.AppliedRules = append(res.AppliedRules, rule)
	}

	if res.Waterfall != nil && res.Waterfall.RingMultiplier != nil {
		// Shared ring: its multiplier stands in for the zone aggregation.
		price, rule = applyRingMultiplier(price, res.Waterfall.RingCode, *res.Waterfall.RingMultiplier)
	} else {
		price, rule = applyZoneMultiplier(price, pickup, dropoff, s.ZoneAggregation)
	}
	if rule != nil {
		res.AppliedRules = append(res.AppliedRules, rule)
	}

	price, rules := applyAdvancedRates(price, b.AdvancedRates, req.PickupAt, req.EstimatedEndAt)
	res.AppliedRules = append(res.AppliedRules, rules...)

	price, rules = applySeasonalMultipliers(price, b.SeasonalMultipliers, req.PickupAt)
	res.AppliedRules = append(res.AppliedRules, rules...)

	return price
}

// specializeRoundTrip rebuilds the trip from its round-trip segments, carries
// the single-leg margin ratio over to the rebuilt cost, then runs the
// blocked-driver heuristic against a disposal quote for the same span.
func specializeRoundTrip(req PricingRequest, s Settings, res *PricingResult) {
	rt := tripspec.BuildRoundTrip(
		req.EstimatedDistanceKm, req.EstimatedDurationMinutes,
		req.WaitingTimeMinutes, res.Price, res.Trip.TotalCost,
		s.Cost, s.RoundTrip,
	)
	res.AppliedRules = append(res.AppliedRules, RoundTripRule{
		Kind:               RuleRoundTripSegments,
		Mode:               rt.Mode,
		ThresholdMinutes:   rt.ThresholdMinutes,
		MarginRatio:        rt.MarginRatio,
		EliminatedSegments: rt.EliminatedSegments,
		SingleLegPrice:     res.Price,
		NaiveDoublePrice:   rt.NaiveDoublePrice,
		PriceAfter:         rt.AdjustedPrice,
	})
	twoTransfer := res.Price * 2
	res.Trip = rt.Trip
	res.Price = rt.AdjustedPrice

	if !dispoConfigured(s.Dispo) {
		return
	}
	mad := tripspec.QuoteDispo(rt.Trip.TotalDurationMinutes/60, rt.Trip.TotalDistanceKm, s.Dispo)
	d := tripspec.EvaluateBlockedDriver(
		req.EstimatedDistanceKm, req.EstimatedDurationMinutes,
		req.WaitingTimeMinutes, types.Round2(twoTransfer), mad.Total,
		s.BlockedDriver,
	)
	if d.Applied {
		res.AppliedRules = append(res.AppliedRules, BlockedDriverSwitchRule{
			Kind:        RuleBlockedDriverSwitch,
			Decision:    d,
			PriceBefore: res.Price,
			PriceAfter:  mad.Total,
		})
		res.Price = mad.Total
	}
}

// specializeDenseZone may switch a slow urban transfer to disposal pricing
// when that pays more.
func specializeDenseZone(req PricingRequest, s Settings, pickup, dropoff []zones.Match, res *PricingResult) {
	if !dispoConfigured(s.Dispo) {
		return
	}
	mad := tripspec.QuoteDispo(req.EstimatedDurationMinutes/60, req.EstimatedDistanceKm, s.Dispo)
	d := tripspec.EvaluateDenseZoneMAD(
		zones.Codes(pickup), zones.Codes(dropoff),
		req.EstimatedDistanceKm, req.EstimatedDurationMinutes,
		res.Price, mad.Total, s.DenseZone,
	)
	if d.Applied {
		res.AppliedRules = append(res.AppliedRules, DenseZoneSwitchRule{
			Kind:        RuleDenseZoneSwitch,
			Decision:    d,
			PriceBefore: res.Price,
			PriceAfter:  mad.Total,
		})
		res.Price = mad.Total
	}
}

func dispoConfigured(cfg tripspec.DispoConfig) bool {
	return cfg.RatePerHour > 0 || len(cfg.Buckets) > 0
}

// finish folds in compliance staffing, then publishes the rounded price,
// cost, margin, and indicator.
func finish(cat VehicleCategory, s Settings, res *PricingResult) {
	res.InternalCost = res.Trip.TotalCost

	facts := compliance.TripFacts{
		DrivingMinutes:        drivingMinutes(res.Trip),
		LongestStretchMinutes: longestDrivingStretch(res.Trip),
		AmplitudeMinutes:      res.Trip.TotalDurationMinutes,
	}
	plan := compliance.Evaluate(cat.RegulatoryClass, facts, s.Compliance)
	res.CompliancePlan = plan
	if plan != nil && plan.Feasible && plan.Cost.Total > 0 {
		before := res.Price
		res.Price = types.Round2(res.Price + plan.Cost.Total)
		res.InternalCost = types.Round2(res.InternalCost + plan.Cost.Total)
		res.AppliedRules = append(res.AppliedRules, ComplianceStaffingRule{
			Kind:        RuleComplianceStaffing,
			Plan:        plan.Kind,
			Cost:        plan.Cost,
			PriceBefore: before,
			PriceAfter:  res.Price,
		})
	}

	res.Price = types.Round2(res.Price)
	res.InternalCost = types.Round2(res.InternalCost)
	res.Margin = types.Round2(res.Price - res.InternalCost)
	res.MarginPercent = profitability.MarginPercent(res.Price, res.InternalCost)
	res.Indicator = profitability.Classify(res.MarginPercent, normalizeThresholds(s.Thresholds))
}

// drivingMinutes excludes on-site waiting from the wheel-time total.
func drivingMinutes(trip costing.TripAnalysis) float64 {
	total := 0.0
	for _, seg := range trip.Segments {
		if seg.Kind != costing.SegmentWaiting {
			total += seg.DurationMinutes
		}
	}
	return total
}

// longestDrivingStretch is the longest run of consecutive wheel segments; an
// on-site wait interrupts a stretch.
func longestDrivingStretch(trip costing.TripAnalysis) float64 {
	var longest, run float64
	for _, seg := range trip.Segments {
		if seg.Kind == costing.SegmentWaiting {
			run = 0
			continue
		}
		run += seg.DurationMinutes
		if run > longest {
			longest = run
		}
	}
	return longest
}

func normalizeThresholds(t profitability.Thresholds) profitability.Thresholds {
	if t.GreenMinPercent == 0 {
		t.GreenMinPercent = profitability.DefaultGreenMinPercent
	}
	return t
}

// ApplyOverride validates a manually entered price and, when accepted,
// derives a new result from the previous one. The audit history is kept, but
// any earlier override entry is replaced: overrides never stack.
func ApplyOverride(prev PricingResult, newPrice float64, reason string, t profitability.Thresholds) (PricingResult, profitability.OverrideCheck) {
	check := profitability.ValidateOverride(newPrice, prev.InternalCost, normalizeThresholds(t))
	if !check.Allowed {
		return prev, check
	}

	next := prev
	rules := make([]AppliedRule, 0, len(prev.AppliedRules)+1)
	for _, r := range prev.AppliedRules {
		if r.RuleKind() != RuleManualOverride {
			rules = append(rules, r)
		}
	}
	rounded := types.Round2(newPrice)
	rules = append(rules, ManualOverrideRule{
		Kind:                  RuleManualOverride,
		PreviousPrice:         prev.Price,
		NewPrice:              rounded,
		Delta:                 types.Round2(rounded - prev.Price),
		Reason:                reason,
		BypassedContractPrice: prev.Mode == ModeFixedGrid,
	})
	next.AppliedRules = rules
	next.Price = rounded
	next.Margin = types.Round2(rounded - prev.InternalCost)
	next.MarginPercent = check.MarginPercent
	next.Indicator = check.Indicator
	return next, check
}
