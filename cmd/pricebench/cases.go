package main

import (
	"fmt"
	"reflect"
	"time"

	"etoile/internal/modules/catalog"
	"etoile/internal/modules/compliance"
	"etoile/internal/modules/costing"
	"etoile/internal/modules/pricing"
	"etoile/internal/modules/tripspec"
	"etoile/internal/modules/zones"
	"etoile/internal/types"
)

type Runner struct {
	cfg Config
}

type Result struct {
	Name   string
	Status string
	Note   string
}

type Scenario struct {
	Name string
	Run  func(r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg}
}

func (r *Runner) RunAll() []Result {
	scenarios := r.scenarios()
	results := make([]Result, 0, len(scenarios))

	for _, sc := range scenarios {
		res := sc.Run(r)
		res.Name = sc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, sc.Name)
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

func fixtureBundle() pricing.Bundle {
	return pricing.Bundle{
		Settings: pricing.Settings{
			BaseRatePerKm:       2.5,
			BaseRatePerHour:     45,
			TargetMarginPercent: 20,
			Cost: costing.Parameters{
				FuelType:            costing.FuelDiesel,
				ConsumptionPer100Km: 8,
				FuelPrices:          map[costing.FuelType]float64{costing.FuelDiesel: 2.0},
				TollRatePerKm:       0.15,
				WearRatePerKm:       0.10,
				DriverHourlyRate:    30,
			},
			Dispo: tripspec.DispoConfig{RatePerHour: 50},
		},
		Zones: []zones.Zone{
			{ID: "z-paris", Code: "PARIS", Geometry: zones.GeometryRadius,
				Center: types.Point{Lat: 48.8566, Lng: 2.3522}, RadiusKm: 10,
				PriceMultiplier: 1.0, Active: true},
			{ID: "z-cdg", Code: "CDG", Geometry: zones.GeometryRadius,
				Center: types.Point{Lat: 49.0097, Lng: 2.5479}, RadiusKm: 5,
				PriceMultiplier: 1.0, Active: true},
		},
		VehicleCategories: []pricing.VehicleCategory{
			{ID: "sedan", Name: "Berline", PriceMultiplier: 1.0, RegulatoryClass: compliance.ClassLight},
			{ID: "coach", Name: "Autocar", PriceMultiplier: 1.0, RegulatoryClass: compliance.ClassHeavy},
		},
	}
}

func transferRequest() pricing.PricingRequest {
	return pricing.PricingRequest{
		ContactID:                "c-1",
		Pickup:                   types.Point{Lat: 48.8566, Lng: 2.3522},
		Dropoff:                  types.Point{Lat: 49.0097, Lng: 2.5479},
		VehicleCategoryID:        "sedan",
		TripType:                 types.TripTransfer,
		EstimatedDistanceKm:      30,
		EstimatedDurationMinutes: 45,
	}
}

func privateClient() catalog.Contact {
	return catalog.Contact{ID: "c-1"}
}

func partnerClient() catalog.Contact {
	return catalog.Contact{
		ID:        "c-2",
		IsPartner: true,
		Contract: &catalog.PartnerContract{
			ZoneRoutes: []catalog.ZoneRoute{{
				ID: "route-1", VehicleCategoryID: "sedan",
				Direction: catalog.Bidirectional, Active: true,
				OriginZoneID: "z-paris", DestinationZoneID: "z-cdg",
				FixedPrice: 75,
			}},
		},
	}
}

func pass(note string) Result { return Result{Status: "PASS", Note: note} }
func fail(note string) Result { return Result{Status: "FAIL", Note: note} }

func (r *Runner) scenarios() []Scenario {
	return []Scenario{
		{
			Name: "dynamic transfer, base price with margin",
			Run: func(r *Runner) Result {
				res := pricing.Calculate(transferRequest(), privateClient(), fixtureBundle())
				if res.Mode != pricing.ModeDynamic {
					return fail(fmt.Sprintf("mode=%s", res.Mode))
				}
				if res.Price != 90 {
					return fail(fmt.Sprintf("price=%.2f, want 90", res.Price))
				}
				return pass(fmt.Sprintf("price=%.2f margin=%.2f%%", res.Price, res.MarginPercent))
			},
		},
		{
			Name: "partner route, contracted price wins",
			Run: func(r *Runner) Result {
				res := pricing.Calculate(transferRequest(), partnerClient(), fixtureBundle())
				if res.Mode != pricing.ModeFixedGrid {
					return fail(fmt.Sprintf("mode=%s", res.Mode))
				}
				if res.Price != 75 {
					return fail(fmt.Sprintf("price=%.2f, want 75", res.Price))
				}
				return pass("")
			},
		},
		{
			Name: "night rate raises the dynamic price",
			Run: func(r *Runner) Result {
				b := fixtureBundle()
				b.AdvancedRates = []pricing.AdvancedRate{{
					ID: "night", Kind: pricing.RateNight, Adjustment: pricing.AdjustPercentage,
					Value: 20, StartMinute: 1320, EndMinute: 360, Active: true,
				}}
				req := transferRequest()
				at := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
				req.PickupAt = &at
				res := pricing.Calculate(req, privateClient(), b)
				if res.Price <= 90 {
					return fail(fmt.Sprintf("price=%.2f, want > 90", res.Price))
				}
				return pass(fmt.Sprintf("price=%.2f", res.Price))
			},
		},
		{
			Name: "round trip with wait beats naive doubling",
			Run: func(r *Runner) Result {
				req := transferRequest()
				req.IsRoundTrip = true
				wait := 60.0
				req.WaitingTimeMinutes = &wait
				res := pricing.Calculate(req, privateClient(), fixtureBundle())
				if res.Price >= 180 {
					return fail(fmt.Sprintf("price=%.2f, want < 180", res.Price))
				}
				for _, rule := range res.AppliedRules {
					if rt, ok := rule.(pricing.RoundTripRule); ok {
						if rt.Mode != tripspec.WaitOnSite {
							return fail(fmt.Sprintf("mode=%s", rt.Mode))
						}
						return pass(fmt.Sprintf("price=%.2f vs naive %.2f", res.Price, rt.NaiveDoublePrice))
					}
				}
				return fail("no round-trip rule applied")
			},
		},
		{
			Name: "heavy vehicle gets a staffing plan",
			Run: func(r *Runner) Result {
				req := transferRequest()
				req.VehicleCategoryID = "coach"
				req.EstimatedDistanceKm = 300
				req.EstimatedDurationMinutes = 300
				res := pricing.Calculate(req, privateClient(), fixtureBundle())
				if res.CompliancePlan == nil {
					return fail("no plan")
				}
				if !res.CompliancePlan.Required || !res.CompliancePlan.Feasible {
					return fail(fmt.Sprintf("required=%v feasible=%v",
						res.CompliancePlan.Required, res.CompliancePlan.Feasible))
				}
				return pass(fmt.Sprintf("plan=%s cost=%.2f", res.CompliancePlan.Kind, res.CompliancePlan.Cost.Total))
			},
		},
		{
			Name: "override below minimum margin is rejected",
			Run: func(r *Runner) Result {
				b := fixtureBundle()
				res := pricing.Calculate(transferRequest(), privateClient(), b)
				_, check := pricing.ApplyOverride(res, res.InternalCost*0.5, "too low", b.Settings.Thresholds)
				if check.Allowed {
					return fail("override accepted")
				}
				return pass(fmt.Sprintf("reason=%s minimum=%.2f", check.Reason, check.MinimumPrice))
			},
		},
		{
			Name: "same inputs, same result",
			Run: func(r *Runner) Result {
				first := pricing.Calculate(transferRequest(), partnerClient(), fixtureBundle())
				for i := 1; i < r.cfg.Runs; i++ {
					again := pricing.Calculate(transferRequest(), partnerClient(), fixtureBundle())
					if !reflect.DeepEqual(first, again) {
						return fail(fmt.Sprintf("run %d differs", i+1))
					}
				}
				return pass(fmt.Sprintf("runs=%d", r.cfg.Runs))
			},
		},
	}
}
