package pricing

import (
	"reflect"
	"testing"
	"time"

	"etoile/internal/modules/catalog"
	"etoile/internal/modules/compliance"
	"etoile/internal/modules/costing"
	"etoile/internal/modules/profitability"
	"etoile/internal/modules/tripspec"
	"etoile/internal/modules/zones"
	"etoile/internal/types"
)

func testSettings() Settings {
	return Settings{
		BaseRatePerKm:       2.5,
		BaseRatePerHour:     45,
		TargetMarginPercent: 20,
		Cost: costing.Parameters{
			FuelType:            costing.FuelDiesel,
			ConsumptionPer100Km: 8,
			FuelPrices:          map[costing.FuelType]float64{costing.FuelDiesel: 2.00},
			TollRatePerKm:       0.15,
			WearRatePerKm:       0.10,
			DriverHourlyRate:    30,
		},
	}
}

func parisZone() zones.Zone {
	return zones.Zone{
		ID: "z-paris", Code: "PARIS", Geometry: zones.GeometryRadius,
		Center: types.Point{Lat: 48.8566, Lng: 2.3522}, RadiusKm: 10,
		PriceMultiplier: 1.0, Active: true,
	}
}

func cdgZone() zones.Zone {
	return zones.Zone{
		ID: "z-cdg", Code: "CDG", Geometry: zones.GeometryRadius,
		Center: types.Point{Lat: 49.0097, Lng: 2.5479}, RadiusKm: 5,
		PriceMultiplier: 1.0, Active: true,
	}
}

func testBundle() Bundle {
	return Bundle{
		Settings: testSettings(),
		Zones:    []zones.Zone{parisZone(), cdgZone()},
		VehicleCategories: []VehicleCategory{
			{ID: "sedan", Name: "Berline", PriceMultiplier: 1.0, RegulatoryClass: compliance.ClassLight},
		},
	}
}

func privateClient() catalog.Contact {
	return catalog.Contact{ID: "c-priv", IsPartner: false}
}

func partnerWithRoute() catalog.Contact {
	return catalog.Contact{
		ID: "c-part", IsPartner: true,
		Contract: &catalog.PartnerContract{
			ZoneRoutes: []catalog.ZoneRoute{{
				ID: "r1", VehicleCategoryID: "sedan", Direction: catalog.Bidirectional,
				Active: true, OriginZoneID: "z-paris", DestinationZoneID: "z-cdg",
				FixedPrice: 75,
			}},
		},
	}
}

func transferRequest() PricingRequest {
	return PricingRequest{
		ContactID:                "c-priv",
		Pickup:                   types.Point{Lat: 48.8566, Lng: 2.3522},
		Dropoff:                  types.Point{Lat: 49.0097, Lng: 2.5479},
		VehicleCategoryID:        "sedan",
		TripType:                 types.TripTransfer,
		EstimatedDistanceKm:      30,
		EstimatedDurationMinutes: 45,
	}
}

func TestCalculate_DynamicTransfer(t *testing.T) {
	res := Calculate(transferRequest(), privateClient(), testBundle())

	if res.Mode != ModeDynamic {
		t.Fatalf("mode = %s, want DYNAMIC", res.Mode)
	}
	if res.FallbackReason != catalog.FallbackPrivateClient {
		t.Errorf("fallback = %s, want PRIVATE_CLIENT", res.FallbackReason)
	}
	// 30 km × 2.5 = 75 → +20% margin = 90.
	if res.Price != 90 {
		t.Errorf("price = %v, want 90", res.Price)
	}
	// Per leg: fuel 4.80 + tolls 4.50 + wear 3.00 + driver 22.50 = 34.80;
	// service + symmetric return = 69.60.
	if res.InternalCost != 69.6 {
		t.Errorf("internal cost = %v, want 69.60", res.InternalCost)
	}
	if res.Margin != 20.4 || res.MarginPercent != 22.67 {
		t.Errorf("margin = %v (%v%%), want 20.40 (22.67%%)", res.Margin, res.MarginPercent)
	}
	if res.Indicator != profitability.IndicatorGreen {
		t.Errorf("indicator = %s, want GREEN", res.Indicator)
	}
	if len(res.AppliedRules) != 1 || res.AppliedRules[0].RuleKind() != RuleDynamicBase {
		t.Errorf("rules = %+v, want a single DYNAMIC_BASE_CALCULATION", res.AppliedRules)
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	req := transferRequest()
	pickupAt := time.Date(2026, 6, 5, 23, 0, 0, 0, time.UTC)
	end := pickupAt.Add(45 * time.Minute)
	req.PickupAt = &pickupAt
	req.EstimatedEndAt = &end

	b := testBundle()
	b.AdvancedRates = []AdvancedRate{
		{ID: "night", Kind: RateNight, Adjustment: AdjustPercentage, Value: 20,
			StartMinute: 22 * 60, EndMinute: 6 * 60, Active: true},
	}

	first := Calculate(req, partnerWithRoute(), b)
	second := Calculate(req, partnerWithRoute(), b)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different results:\n%+v\n%+v", first, second)
	}
}

func TestCalculate_FixedGridBypassesModifiers(t *testing.T) {
	b := testBundle()
	b.AdvancedRates = []AdvancedRate{
		{ID: "night", Kind: RateNight, Adjustment: AdjustPercentage, Value: 20,
			StartMinute: 22 * 60, EndMinute: 6 * 60, Active: true},
	}

	day := transferRequest()
	dayAt := time.Date(2026, 6, 5, 10, 0, 0, 0, time.UTC)
	day.PickupAt = &dayAt

	night := transferRequest()
	nightAt := time.Date(2026, 6, 5, 23, 0, 0, 0, time.UTC)
	night.PickupAt = &nightAt

	dayRes := Calculate(day, partnerWithRoute(), b)
	nightRes := Calculate(night, partnerWithRoute(), b)

	if dayRes.Mode != ModeFixedGrid || dayRes.MatchedGrid == nil {
		t.Fatalf("mode = %s matched = %v, want FIXED_GRID with a match", dayRes.Mode, dayRes.MatchedGrid)
	}
	if dayRes.Price != 75 || nightRes.Price != 75 {
		t.Errorf("prices = %v / %v, want the contracted 75 at any hour", dayRes.Price, nightRes.Price)
	}
	for _, r := range nightRes.AppliedRules {
		if r.RuleKind() == RuleAdvancedRate {
			t.Errorf("advanced rate applied to a fixed-grid price")
		}
	}
}

func TestCalculate_NoRouteMatchCarriesTrace(t *testing.T) {
	contact := partnerWithRoute()
	contact.Contract.ZoneRoutes[0].VehicleCategoryID = "van"

	res := Calculate(transferRequest(), contact, testBundle())
	if res.FallbackReason != catalog.FallbackNoRouteMatch {
		t.Fatalf("fallback = %s, want NO_ROUTE_MATCH", res.FallbackReason)
	}
	if res.GridSearch == nil || len(res.GridSearch.RoutesChecked) != 1 {
		t.Fatalf("trace = %+v, want the checked route recorded", res.GridSearch)
	}
	if res.GridSearch.RoutesChecked[0].Reason != catalog.RejectCategoryMismatch {
		t.Errorf("reason = %s, want CATEGORY_MISMATCH", res.GridSearch.RoutesChecked[0].Reason)
	}
	// The engine still prices the trip dynamically.
	if res.Price != 90 {
		t.Errorf("price = %v, want dynamic 90", res.Price)
	}
}

func TestCalculate_Dispo(t *testing.T) {
	b := testBundle()
	b.Settings.Dispo.RatePerHour = 45

	req := transferRequest()
	req.TripType = types.TripDispo
	req.DurationHours = 4
	req.EstimatedDistanceKm = 250

	res := Calculate(req, privateClient(), b)
	// 4 h × 45 = 180, overage 50 km × 0.50 = 25.
	if res.Price != 205 {
		t.Errorf("price = %v, want 205", res.Price)
	}
	if len(res.AppliedRules) != 1 || res.AppliedRules[0].RuleKind() != RuleTimeBucket {
		t.Fatalf("rules = %+v, want a single TIME_BUCKET entry", res.AppliedRules)
	}
	q := res.AppliedRules[0].(TimeBucketRule).Quote
	if q.Source != "HOURLY_RATE" || q.OveragePrice != 25 {
		t.Errorf("quote = %+v, want hourly source with 25 overage", q)
	}
}

func TestCalculate_RoundTripWaitOnSite(t *testing.T) {
	req := transferRequest()
	req.EstimatedDistanceKm = 40
	req.EstimatedDurationMinutes = 60
	req.IsRoundTrip = true
	waiting := 45.0
	req.WaitingTimeMinutes = &waiting

	res := Calculate(req, privateClient(), testBundle())

	var rt RoundTripRule
	found := false
	for _, r := range res.AppliedRules {
		if v, ok := r.(RoundTripRule); ok {
			rt, found = v, true
		}
	}
	if !found {
		t.Fatalf("no ROUND_TRIP_SEGMENTS rule in %+v", res.AppliedRules)
	}
	if rt.Mode != "WAIT_ON_SITE" {
		t.Errorf("mode = %s, want WAIT_ON_SITE for a 45 min wait", rt.Mode)
	}
	// Eliminated segments must pull the price under the naive doubling.
	if res.Price >= rt.NaiveDoublePrice {
		t.Errorf("price %v not below naive double %v", res.Price, rt.NaiveDoublePrice)
	}
	if len(res.Trip.Segments) != 3 {
		t.Errorf("segments = %d, want outbound + wait + return", len(res.Trip.Segments))
	}
	// Margin ratio carried over: single leg 120 over 92.80 cost, rebuilt
	// cost 115.30 → 115.30 × (120/92.80) = 149.09.
	if res.Price != 149.09 {
		t.Errorf("price = %v, want 149.09", res.Price)
	}
}

func TestCalculate_BlockedDriverSwitchesToMAD(t *testing.T) {
	b := testBundle()
	b.Settings.Dispo.RatePerHour = 100
	b.Settings.BlockedDriver.AutoApply = true

	req := transferRequest()
	req.EstimatedDistanceKm = 40
	req.EstimatedDurationMinutes = 60
	req.IsRoundTrip = true
	waiting := 60.0
	req.WaitingTimeMinutes = &waiting

	res := Calculate(req, privateClient(), b)

	// Driver blocked (2×60+30 > 60); MAD over the 3 h on-site span pays
	// 300, above the 240 of two transfers, so the switch applies.
	last := res.AppliedRules[len(res.AppliedRules)-1]
	sw, ok := last.(BlockedDriverSwitchRule)
	if !ok {
		t.Fatalf("last rule = %+v, want BLOCKED_DRIVER_MAD_SWITCH", last)
	}
	if !sw.Decision.Blocked || sw.Decision.Reason != "RETURN_TIME_EXCEEDS_WAIT" {
		t.Errorf("decision = %+v, want blocked by return time", sw.Decision)
	}
	if res.Price != 300 {
		t.Errorf("price = %v, want the MAD 300", res.Price)
	}
}

func TestCalculate_DenseZoneSwitchesToMAD(t *testing.T) {
	b := testBundle()
	b.Settings.Dispo.RatePerHour = 100
	b.Settings.DenseZone.AutoApply = true

	req := transferRequest()
	// Both endpoints inside the PARIS zone, 8 km/h commercial speed.
	req.Dropoff = types.Point{Lat: 48.87, Lng: 2.36}
	req.EstimatedDistanceKm = 8
	req.EstimatedDurationMinutes = 60

	res := Calculate(req, privateClient(), b)

	// Transfer prices at 54 (45 base + 20%), MAD at 100 → switch.
	last := res.AppliedRules[len(res.AppliedRules)-1]
	sw, ok := last.(DenseZoneSwitchRule)
	if !ok {
		t.Fatalf("last rule = %+v, want DENSE_ZONE_MAD_SWITCH", last)
	}
	if sw.PriceBefore != 54 || res.Price != 100 {
		t.Errorf("switch %v → %v, want 54 → 100", sw.PriceBefore, res.Price)
	}
}

func TestCalculate_ComplianceStaffing(t *testing.T) {
	b := testBundle()
	b.VehicleCategories = append(b.VehicleCategories, VehicleCategory{
		ID: "coach", Name: "Autocar", PriceMultiplier: 1.0,
		RegulatoryClass: compliance.ClassHeavy,
	})

	req := transferRequest()
	req.VehicleCategoryID = "coach"
	req.EstimatedDistanceKm = 300
	req.EstimatedDurationMinutes = 300

	res := Calculate(req, privateClient(), b)

	if res.CompliancePlan == nil || !res.CompliancePlan.Required {
		t.Fatalf("plan = %+v, want a required staffing plan for 10 h of driving", res.CompliancePlan)
	}
	// Multi-day is the cheapest cover: 95 hotel + 40 meals = 135 on top of
	// the 900 dynamic price.
	if res.CompliancePlan.Kind != compliance.PlanMultiDay {
		t.Errorf("plan = %s, want MULTI_DAY", res.CompliancePlan.Kind)
	}
	if res.Price != 1035 {
		t.Errorf("price = %v, want 900 + 135 staffing", res.Price)
	}
	last := res.AppliedRules[len(res.AppliedRules)-1]
	if last.RuleKind() != RuleComplianceStaffing {
		t.Errorf("last rule = %s, want COMPLIANCE_STAFFING", last.RuleKind())
	}
}

func TestCalculate_LightVehicleSkipsCompliance(t *testing.T) {
	res := Calculate(transferRequest(), privateClient(), testBundle())
	if res.CompliancePlan != nil {
		t.Errorf("plan = %+v, want nil for a LIGHT category", res.CompliancePlan)
	}
}

func TestCalculate_WaterfallIntraCentralFlat(t *testing.T) {
	b := testBundle()
	b.Settings.Waterfall = &catalog.WaterfallConfig{
		IntraCentralEnabled:   true,
		IntraCentralRates:     map[types.ID]float64{"sedan": 55},
		HorokilometricEnabled: true,
	}
	b.AdvancedRates = []AdvancedRate{
		{ID: "night", Kind: RateNight, Adjustment: AdjustPercentage, Value: 20,
			StartMinute: 22 * 60, EndMinute: 6 * 60, Active: true},
	}

	req := transferRequest()
	req.Dropoff = types.Point{Lat: 48.87, Lng: 2.36} // stays inside PARIS
	nightAt := time.Date(2026, 6, 5, 23, 0, 0, 0, time.UTC)
	req.PickupAt = &nightAt

	res := Calculate(req, privateClient(), b)
	if res.Mode != ModeFixedGrid {
		t.Fatalf("mode = %s, want FIXED_GRID from the intra-central level", res.Mode)
	}
	if res.Price != 55 {
		t.Errorf("price = %v, want the flat 55 untouched by the night rate", res.Price)
	}
	if res.Waterfall == nil || res.Waterfall.AppliedLevel != catalog.LevelIntraCentral {
		t.Errorf("waterfall = %+v, want level 1 applied", res.Waterfall)
	}
}

func TestCalculate_WaterfallOnlyAppliesToTransfers(t *testing.T) {
	b := testBundle()
	b.Settings.Waterfall = &catalog.WaterfallConfig{
		IntraCentralEnabled: true,
		IntraCentralRates:   map[types.ID]float64{"sedan": 55},
	}
	b.Settings.Dispo.RatePerHour = 45

	t.Run("dispo keeps hourly pricing", func(t *testing.T) {
		req := transferRequest()
		req.TripType = types.TripDispo
		req.Dropoff = types.Point{Lat: 48.87, Lng: 2.36} // both endpoints in PARIS
		req.DurationHours = 8
		req.EstimatedDistanceKm = 100

		res := Calculate(req, privateClient(), b)
		if res.Mode != ModeDynamic {
			t.Fatalf("mode = %s, want DYNAMIC for a disposal", res.Mode)
		}
		if res.Waterfall != nil {
			t.Errorf("waterfall = %+v, want none evaluated", res.Waterfall)
		}
		// 8 h × 45 = 360, 100 km inside the 400 km included.
		if res.Price != 360 {
			t.Errorf("price = %v, want 360, not the intra-central flat 55", res.Price)
		}
		if len(res.AppliedRules) != 1 || res.AppliedRules[0].RuleKind() != RuleTimeBucket {
			t.Errorf("rules = %+v, want a single TIME_BUCKET entry", res.AppliedRules)
		}
	})

	t.Run("excursion keeps leg pricing", func(t *testing.T) {
		req := transferRequest()
		req.TripType = types.TripExcursion
		req.Dropoff = types.Point{Lat: 48.87, Lng: 2.36}
		req.Stops = []tripspec.Stop{{Name: "Louvre", Order: 1, LegDistanceKm: 10, LegDurationMinutes: 15}}
		req.EstimatedDistanceKm = 30
		req.EstimatedDurationMinutes = 40

		res := Calculate(req, privateClient(), b)
		if res.Mode != ModeDynamic || res.Waterfall != nil {
			t.Fatalf("mode = %s waterfall = %+v, want dynamic leg pricing", res.Mode, res.Waterfall)
		}
		// 60 km round chain × 2.5 → +20% = 180, as without a waterfall.
		if res.Price != 180 {
			t.Errorf("price = %v, want 180", res.Price)
		}
	})
}

func TestCalculate_Excursion(t *testing.T) {
	req := transferRequest()
	req.TripType = types.TripExcursion
	req.Stops = []tripspec.Stop{{Name: "Louvre", Order: 1, LegDistanceKm: 10, LegDurationMinutes: 15}}
	req.EstimatedDistanceKm = 30
	req.EstimatedDurationMinutes = 40

	res := Calculate(req, privateClient(), testBundle())

	// Outbound 30 km/40 min plus symmetric return → 60 km, 80 min;
	// 60 × 2.5 = 150 → +20% = 180.
	if res.Price != 180 {
		t.Errorf("price = %v, want 180", res.Price)
	}
	foundReturn := false
	for _, r := range res.AppliedRules {
		if er, ok := r.(ExcursionReturnRule); ok {
			foundReturn = true
			if er.Basis != "SYMMETRIC_ESTIMATE" {
				t.Errorf("basis = %s, want SYMMETRIC_ESTIMATE", er.Basis)
			}
		}
	}
	if !foundReturn {
		t.Errorf("no EXCURSION_RETURN_TRIP rule in %+v", res.AppliedRules)
	}
	if res.Trip.TotalStops != 1 {
		t.Errorf("stops = %d, want 1", res.Trip.TotalStops)
	}
}

func TestApplyOverride(t *testing.T) {
	prev := Calculate(transferRequest(), privateClient(), testBundle())

	next, check := ApplyOverride(prev, 110, "commercial gesture", profitability.Thresholds{})
	if !check.Allowed {
		t.Fatalf("check = %+v, want allowed", check)
	}
	if next.Price != 110 {
		t.Errorf("price = %v, want 110", next.Price)
	}
	last := next.AppliedRules[len(next.AppliedRules)-1]
	ov, ok := last.(ManualOverrideRule)
	if !ok {
		t.Fatalf("last rule = %+v, want MANUAL_OVERRIDE", last)
	}
	if ov.PreviousPrice != 90 || ov.NewPrice != 110 || ov.Delta != 20 {
		t.Errorf("override = %+v, want 90 → 110 (+20)", ov)
	}
	if ov.BypassedContractPrice {
		t.Errorf("dynamic price marked as contract bypass")
	}
	// History is preserved: the base rule is still first.
	if next.AppliedRules[0].RuleKind() != RuleDynamicBase {
		t.Errorf("history lost: first rule = %s", next.AppliedRules[0].RuleKind())
	}
}

func TestApplyOverride_DoesNotStack(t *testing.T) {
	prev := Calculate(transferRequest(), privateClient(), testBundle())
	once, _ := ApplyOverride(prev, 110, "first", profitability.Thresholds{})
	twice, _ := ApplyOverride(once, 120, "second", profitability.Thresholds{})

	count := 0
	for _, r := range twice.AppliedRules {
		if ov, ok := r.(ManualOverrideRule); ok {
			count++
			if ov.NewPrice != 120 || ov.Reason != "second" {
				t.Errorf("override = %+v, want only the latest", ov)
			}
		}
	}
	if count != 1 {
		t.Errorf("override rules = %d, want exactly 1", count)
	}
}

func TestApplyOverride_Rejected(t *testing.T) {
	prev := Calculate(transferRequest(), privateClient(), testBundle())

	next, check := ApplyOverride(prev, 50, "too low", profitability.Thresholds{})
	if check.Allowed || check.Reason != profitability.OverrideBelowMinimumMargin {
		t.Fatalf("check = %+v, want BELOW_MINIMUM_MARGIN", check)
	}
	if !reflect.DeepEqual(next, prev) {
		t.Errorf("rejected override modified the result")
	}

	_, check = ApplyOverride(prev, 0, "zero", profitability.Thresholds{})
	if check.Allowed || check.Reason != profitability.OverrideInvalidPrice {
		t.Errorf("check = %+v, want INVALID_PRICE", check)
	}
}
