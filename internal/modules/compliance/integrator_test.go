package compliance

import "testing"

func TestEvaluate_LightVehicleOutOfScope(t *testing.T) {
	plan := Evaluate(ClassLight, TripFacts{DrivingMinutes: 900, AmplitudeMinutes: 1000}, nil)
	if plan != nil {
		t.Fatalf("plan = %+v, want nil for LIGHT class", plan)
	}
}

func TestEvaluate_CompliantHeavyTrip(t *testing.T) {
	// 7 h driving in 4 h stretches between breaks, 8 h amplitude: inside
	// every default limit.
	plan := Evaluate(ClassHeavy, TripFacts{DrivingMinutes: 420, LongestStretchMinutes: 240, AmplitudeMinutes: 480}, nil)
	if plan == nil {
		t.Fatal("want a NONE plan, got nil")
	}
	if plan.Kind != PlanNone || plan.Required || !plan.Feasible {
		t.Errorf("plan = %+v, want feasible NONE", plan)
	}
	if plan.Cost.Total != 0 || len(plan.Violations) != 0 {
		t.Errorf("compliant trip should cost nothing: %+v", plan)
	}
}

func TestEvaluate_StretchDecidesContinuousBreach(t *testing.T) {
	// Same 7 h of wheel time both ways: split into sub-limit stretches the
	// trip is legal, as one unbroken stretch it needs staffing.
	facts := TripFacts{DrivingMinutes: 420, AmplitudeMinutes: 480}

	unbroken := Evaluate(ClassHeavy, facts, nil)
	if !unbroken.Required || len(unbroken.Violations) != 1 {
		t.Fatalf("plan = %+v, want a single continuous breach for an unbroken 7 h stretch", unbroken)
	}
	if unbroken.Violations[0].Kind != ContinuousDrivingExceeded || unbroken.Violations[0].ActualMinutes != 420 {
		t.Errorf("violation = %+v, want CONTINUOUS at 420 min", unbroken.Violations[0])
	}

	facts.LongestStretchMinutes = 240
	withBreaks := Evaluate(ClassHeavy, facts, nil)
	if withBreaks.Required || withBreaks.Cost.Total != 0 {
		t.Errorf("plan = %+v, want no staffing when breaks cap the stretch", withBreaks)
	}
}

func TestDetectViolations(t *testing.T) {
	tests := []struct {
		name  string
		facts TripFacts
		want  []ViolationKind
	}{
		{
			// 5 h wheel time breaches the 4 h 30 continuous cap only.
			name:  "continuous only",
			facts: TripFacts{DrivingMinutes: 300, AmplitudeMinutes: 360},
			want:  []ViolationKind{ContinuousDrivingExceeded},
		},
		{
			// 10 h driving breaches both driving caps.
			name:  "continuous and daily",
			facts: TripFacts{DrivingMinutes: 600, AmplitudeMinutes: 660},
			want:  []ViolationKind{ContinuousDrivingExceeded, DailyDrivingExceeded},
		},
		{
			// 4 h driving spread over a 13 h day.
			name:  "amplitude only",
			facts: TripFacts{DrivingMinutes: 240, AmplitudeMinutes: 780},
			want:  []ViolationKind{AmplitudeExceeded},
		},
		{
			name:  "at the limits is legal",
			facts: TripFacts{DrivingMinutes: 270, AmplitudeMinutes: 720},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectViolations(tt.facts, nil)
			if len(got) != len(tt.want) {
				t.Fatalf("violations = %+v, want kinds %v", got, tt.want)
			}
			for i, v := range got {
				if v.Kind != tt.want[i] {
					t.Errorf("violation[%d] = %s, want %s", i, v.Kind, tt.want[i])
				}
			}
		})
	}
}

func TestEvaluate_PicksCheapestFeasiblePlan(t *testing.T) {
	// 6 h driving, 7 h amplitude: continuous violation only.
	// Double crew: 26 × 7 + 20 meal      = 202.00
	// Relay:       26 × 3 + 20 + 60 fee  = 158.00  ← cheapest
	// Multi-day:   95 hotel + 2 × 20     = 135.00  ← cheaper still
	plan := Evaluate(ClassHeavy, TripFacts{DrivingMinutes: 360, AmplitudeMinutes: 420}, nil)
	if plan.Kind != PlanMultiDay {
		t.Fatalf("kind = %s, want MULTI_DAY (cheapest), candidates %+v", plan.Kind, plan.Candidates)
	}
	if !plan.Required || !plan.Feasible {
		t.Errorf("required=%v feasible=%v, want true/true", plan.Required, plan.Feasible)
	}
	if plan.Cost.Total != 135 {
		t.Errorf("total = %v, want 135 (95 hotel + 40 meals)", plan.Cost.Total)
	}
	if len(plan.Candidates) != 3 {
		t.Errorf("candidates = %d, want all three evaluated", len(plan.Candidates))
	}
}

func TestEvaluate_PreferredPlanOverridesCheapest(t *testing.T) {
	rules := &RuleSet{PreferredPlan: PlanDoubleCrew}
	plan := Evaluate(ClassHeavy, TripFacts{DrivingMinutes: 360, AmplitudeMinutes: 420}, rules)
	if plan.Kind != PlanDoubleCrew {
		t.Fatalf("kind = %s, want preferred DOUBLE_CREW", plan.Kind)
	}
	// 26 €/h × 7 h amplitude + 20 € meal.
	if plan.Cost.ExtraDriver != 182 || plan.Cost.Total != 202 {
		t.Errorf("cost = %+v, want 182 driver / 202 total", plan.Cost)
	}
}

func TestEvaluate_RelayCost(t *testing.T) {
	rules := &RuleSet{AllowedPlans: []PlanKind{PlanRelayDriver}}
	// 8 h driving split in two: relay driver paid 4 h.
	plan := Evaluate(ClassHeavy, TripFacts{DrivingMinutes: 480, AmplitudeMinutes: 540}, rules)
	if plan.Kind != PlanRelayDriver {
		t.Fatalf("kind = %s, want RELAY_DRIVER", plan.Kind)
	}
	// 26 × 4 = 104 driver + 20 meal + 60 handover = 184.
	if plan.Cost.ExtraDriver != 104 || plan.Cost.Other != 60 || plan.Cost.Total != 184 {
		t.Errorf("cost = %+v, want 104/60/184", plan.Cost)
	}
}

func TestEvaluate_MultiDayNightsScaleWithDriving(t *testing.T) {
	rules := &RuleSet{AllowedPlans: []PlanKind{PlanMultiDay}}
	// 20 h driving needs ceil(1200/540) = 3 days → 2 nights.
	plan := Evaluate(ClassHeavy, TripFacts{DrivingMinutes: 1200, AmplitudeMinutes: 1300}, rules)
	if plan.Kind != PlanMultiDay {
		t.Fatalf("kind = %s, want MULTI_DAY", plan.Kind)
	}
	// 2 × 95 hotel + 2 × 2 × 20 meals = 270.
	if plan.Cost.Hotel != 190 || plan.Cost.Meals != 80 || plan.Cost.Total != 270 {
		t.Errorf("cost = %+v, want 190/80/270", plan.Cost)
	}
}

func TestEvaluate_DoubleCrewInfeasibleWhenDrivingTooLong(t *testing.T) {
	rules := &RuleSet{AllowedPlans: []PlanKind{PlanDoubleCrew}}
	// 19 h driving exceeds even two drivers' combined 18 h budget.
	plan := Evaluate(ClassHeavy, TripFacts{DrivingMinutes: 1140, AmplitudeMinutes: 1140}, rules)
	if plan.Feasible || !plan.Required || plan.Kind != PlanNone {
		t.Fatalf("plan = %+v, want required but infeasible NONE", plan)
	}
	if plan.Cost.Total != 0 {
		t.Errorf("infeasible plan must carry zero cost, got %v", plan.Cost.Total)
	}
	if len(plan.Violations) == 0 {
		t.Errorf("violations must be reported even without a plan")
	}
}

func TestEvaluate_CustomLimits(t *testing.T) {
	rules := &RuleSet{MaxContinuousDrivingMinutes: 120, MaxDailyDrivingMinutes: 600, MaxAmplitudeMinutes: 800}
	plan := Evaluate(ClassHeavy, TripFacts{DrivingMinutes: 150, AmplitudeMinutes: 200}, rules)
	if len(plan.Violations) != 1 || plan.Violations[0].Kind != ContinuousDrivingExceeded {
		t.Fatalf("violations = %+v, want single continuous breach against custom 120 min limit", plan.Violations)
	}
	if plan.Violations[0].LimitMinutes != 120 {
		t.Errorf("limit = %v, want custom 120", plan.Violations[0].LimitMinutes)
	}
}
