// Package compliance folds driving-time regulation (RSE) into a trip: it
// detects violations for HEAVY vehicles and selects the staffing plan that
// keeps the mission legal.
package compliance

type VehicleClass string

const (
	ClassLight VehicleClass = "LIGHT"
	ClassHeavy VehicleClass = "HEAVY"
)

// Default RSE limits and staffing cost parameters.
const (
	DefaultMaxContinuousDrivingMinutes = 270.0 // 4 h 30
	DefaultMaxDailyDrivingMinutes      = 540.0 // 9 h
	DefaultMaxAmplitudeMinutes         = 720.0 // 12 h
	DefaultExtraDriverHourlyRate       = 26.0
	DefaultHotelNightCost              = 95.0
	DefaultMealAllowance               = 20.0
	DefaultRelayHandoverFee            = 60.0
)

type PlanKind string

const (
	PlanNone        PlanKind = "NONE"
	PlanDoubleCrew  PlanKind = "DOUBLE_CREW"
	PlanRelayDriver PlanKind = "RELAY_DRIVER"
	PlanMultiDay    PlanKind = "MULTI_DAY"
)

// RuleSet is the organization's RSE configuration. Zero values fall back to
// the defaults above; a nil RuleSet means "all defaults".
type RuleSet struct {
	MaxContinuousDrivingMinutes float64
	MaxDailyDrivingMinutes      float64
	MaxAmplitudeMinutes         float64

	ExtraDriverHourlyRate float64
	HotelNightCost        float64
	MealAllowance         float64
	RelayHandoverFee      float64

	// PreferredPlan overrides the cheapest-plan policy when it is feasible.
	PreferredPlan PlanKind
	// AllowedPlans restricts the candidate set; nil allows every plan.
	AllowedPlans []PlanKind
}

type ViolationKind string

const (
	ContinuousDrivingExceeded ViolationKind = "CONTINUOUS_DRIVING_EXCEEDED"
	DailyDrivingExceeded      ViolationKind = "DAILY_DRIVING_EXCEEDED"
	AmplitudeExceeded         ViolationKind = "AMPLITUDE_EXCEEDED"
)

type Violation struct {
	Kind          ViolationKind `json:"kind"`
	LimitMinutes  float64       `json:"limitMinutes"`
	ActualMinutes float64       `json:"actualMinutes"`
}

// PlanCost itemizes a staffing plan.
type PlanCost struct {
	ExtraDriver float64 `json:"extraDriver"`
	Hotel       float64 `json:"hotel"`
	Meals       float64 `json:"meals"`
	Other       float64 `json:"other"`
	Total       float64 `json:"total"`
}

// PlanOption is one evaluated candidate, kept for the audit trail.
type PlanOption struct {
	Kind     PlanKind `json:"kind"`
	Feasible bool     `json:"feasible"`
	Cost     PlanCost `json:"cost"`
}

// StaffingPlan is the selected decision. Required with Feasible=false means
// violations exist but no allowed plan can cover them: the trip is flagged,
// not silently discounted.
type StaffingPlan struct {
	Kind       PlanKind     `json:"kind"`
	Required   bool         `json:"required"`
	Feasible   bool         `json:"feasible"`
	Violations []Violation  `json:"violations,omitempty"`
	Cost       PlanCost     `json:"cost"`
	Candidates []PlanOption `json:"candidates,omitempty"`
}

// TripFacts is the regulatory shape of a trip: total wheel time, the longest
// unbroken driving stretch, and total amplitude (first pickup to final
// return, waiting included). A zero LongestStretchMinutes means no break is
// scheduled, so the whole wheel time counts as one stretch.
type TripFacts struct {
	DrivingMinutes        float64
	LongestStretchMinutes float64
	AmplitudeMinutes      float64
}
