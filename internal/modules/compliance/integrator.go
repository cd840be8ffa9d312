package compliance

import (
	"math"

	"etoile/internal/types"
)

func (r *RuleSet) maxContinuous() float64 {
	if r != nil && r.MaxContinuousDrivingMinutes > 0 {
		return r.MaxContinuousDrivingMinutes
	}
	return DefaultMaxContinuousDrivingMinutes
}

func (r *RuleSet) maxDaily() float64 {
	if r != nil && r.MaxDailyDrivingMinutes > 0 {
		return r.MaxDailyDrivingMinutes
	}
	return DefaultMaxDailyDrivingMinutes
}

func (r *RuleSet) maxAmplitude() float64 {
	if r != nil && r.MaxAmplitudeMinutes > 0 {
		return r.MaxAmplitudeMinutes
	}
	return DefaultMaxAmplitudeMinutes
}

func (r *RuleSet) driverRate() float64 {
	if r != nil && r.ExtraDriverHourlyRate > 0 {
		return r.ExtraDriverHourlyRate
	}
	return DefaultExtraDriverHourlyRate
}

func (r *RuleSet) hotelCost() float64 {
	if r != nil && r.HotelNightCost > 0 {
		return r.HotelNightCost
	}
	return DefaultHotelNightCost
}

func (r *RuleSet) mealCost() float64 {
	if r != nil && r.MealAllowance > 0 {
		return r.MealAllowance
	}
	return DefaultMealAllowance
}

func (r *RuleSet) handoverFee() float64 {
	if r != nil && r.RelayHandoverFee > 0 {
		return r.RelayHandoverFee
	}
	return DefaultRelayHandoverFee
}

func (r *RuleSet) planAllowed(k PlanKind) bool {
	if r == nil || len(r.AllowedPlans) == 0 {
		return true
	}
	for _, p := range r.AllowedPlans {
		if p == k {
			return true
		}
	}
	return false
}

// Evaluate decides whether a trip needs reinforced staffing and which plan
// covers it. LIGHT vehicles are out of scope and get nil. For HEAVY vehicles
// a compliant trip gets a NONE plan with zero cost, so the caller always has
// something to attach to the quote.
func Evaluate(class VehicleClass, facts TripFacts, rules *RuleSet) *StaffingPlan {
	if class != ClassHeavy {
		return nil
	}

	violations := detectViolations(facts, rules)
	if len(violations) == 0 {
		return &StaffingPlan{Kind: PlanNone, Feasible: true}
	}

	candidates := []PlanOption{
		evalDoubleCrew(facts, rules),
		evalRelayDriver(facts, rules),
		evalMultiDay(facts, rules),
	}

	selected := selectPlan(candidates, rules)
	if selected == nil {
		return &StaffingPlan{
			Kind:       PlanNone,
			Required:   true,
			Feasible:   false,
			Violations: violations,
			Candidates: candidates,
		}
	}
	return &StaffingPlan{
		Kind:       selected.Kind,
		Required:   true,
		Feasible:   true,
		Violations: violations,
		Cost:       selected.Cost,
		Candidates: candidates,
	}
}

// longestStretch is the unbroken wheel time the continuous limit applies to.
// Without a break schedule the whole wheel time is one stretch.
func (f TripFacts) longestStretch() float64 {
	if f.LongestStretchMinutes > 0 {
		return f.LongestStretchMinutes
	}
	return f.DrivingMinutes
}

func detectViolations(facts TripFacts, rules *RuleSet) []Violation {
	var out []Violation
	if limit := rules.maxContinuous(); facts.longestStretch() > limit {
		out = append(out, Violation{Kind: ContinuousDrivingExceeded, LimitMinutes: limit, ActualMinutes: facts.longestStretch()})
	}
	if limit := rules.maxDaily(); facts.DrivingMinutes > limit {
		out = append(out, Violation{Kind: DailyDrivingExceeded, LimitMinutes: limit, ActualMinutes: facts.DrivingMinutes})
	}
	if limit := rules.maxAmplitude(); facts.AmplitudeMinutes > limit {
		out = append(out, Violation{Kind: AmplitudeExceeded, LimitMinutes: limit, ActualMinutes: facts.AmplitudeMinutes})
	}
	return out
}

// Two drivers on board share the wheel, which doubles the driving budget and
// stretches the legal amplitude by half. The second driver is paid for the
// whole amplitude plus one meal.
func evalDoubleCrew(facts TripFacts, rules *RuleSet) PlanOption {
	opt := PlanOption{Kind: PlanDoubleCrew}
	opt.Feasible = facts.DrivingMinutes <= 2*rules.maxDaily() &&
		facts.AmplitudeMinutes <= 1.5*rules.maxAmplitude()
	if opt.Feasible {
		opt.Cost.ExtraDriver = types.Round2(rules.driverRate() * facts.AmplitudeMinutes / 60)
		opt.Cost.Meals = types.Round2(rules.mealCost())
		opt.Cost.Total = types.Round2(opt.Cost.ExtraDriver + opt.Cost.Meals)
	}
	return opt
}

// A relay swaps in a fresh driver mid-route: each driver carries half the
// driving and half the amplitude. The relay driver is paid for their half,
// plus the handover logistics fee and one meal.
func evalRelayDriver(facts TripFacts, rules *RuleSet) PlanOption {
	opt := PlanOption{Kind: PlanRelayDriver}
	opt.Feasible = facts.DrivingMinutes/2 <= rules.maxDaily() &&
		facts.AmplitudeMinutes/2 <= rules.maxAmplitude()
	if opt.Feasible {
		opt.Cost.ExtraDriver = types.Round2(rules.driverRate() * facts.DrivingMinutes / 2 / 60)
		opt.Cost.Meals = types.Round2(rules.mealCost())
		opt.Cost.Other = types.Round2(rules.handoverFee())
		opt.Cost.Total = types.Round2(opt.Cost.ExtraDriver + opt.Cost.Meals + opt.Cost.Other)
	}
	return opt
}

// Splitting the mission over nights always restores legality; the price is
// hotel nights plus evening and morning meal allowances for the driver.
func evalMultiDay(facts TripFacts, rules *RuleSet) PlanOption {
	opt := PlanOption{Kind: PlanMultiDay, Feasible: true}
	days := math.Ceil(math.Max(
		facts.DrivingMinutes/rules.maxDaily(),
		facts.AmplitudeMinutes/rules.maxAmplitude(),
	))
	if days < 2 {
		days = 2
	}
	nights := days - 1
	opt.Cost.Hotel = types.Round2(nights * rules.hotelCost())
	opt.Cost.Meals = types.Round2(nights * 2 * rules.mealCost())
	opt.Cost.Total = types.Round2(opt.Cost.Hotel + opt.Cost.Meals)
	return opt
}

// selectPlan applies the organization's policy: the preferred plan wins when
// it is allowed and feasible, otherwise the cheapest feasible plan does.
// Ties keep the candidate order (double crew, relay, multi-day).
func selectPlan(candidates []PlanOption, rules *RuleSet) *PlanOption {
	var best *PlanOption
	for i := range candidates {
		c := &candidates[i]
		if !c.Feasible || !rules.planAllowed(c.Kind) {
			continue
		}
		if rules != nil && rules.PreferredPlan == c.Kind {
			return c
		}
		if best == nil || c.Cost.Total < best.Cost.Total {
			best = c
		}
	}
	return best
}
