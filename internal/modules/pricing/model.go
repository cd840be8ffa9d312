// Package pricing is the calculation engine: a deterministic, side-effect-free
// pipeline that resolves the pricing mode (contractual fixed grid vs. computed
// dynamic price), applies the ordered modifier stack, specializes per trip
// type, folds in compliance staffing, and classifies the margin. All
// configuration arrives by value; the engine performs no I/O and never mutates
// its inputs, so any number of calls may run concurrently.
package pricing

import (
	"time"

	"etoile/internal/modules/catalog"
	"etoile/internal/modules/compliance"
	"etoile/internal/modules/costing"
	"etoile/internal/modules/profitability"
	"etoile/internal/modules/tripspec"
	"etoile/internal/modules/zones"
	"etoile/internal/types"
)

type PricingMode string

const (
	ModeFixedGrid PricingMode = "FIXED_GRID"
	ModeDynamic   PricingMode = "DYNAMIC"
)

// PricingRequest is the immutable input for one quote.
type PricingRequest struct {
	ContactID                types.ID        `json:"contactId"`
	Pickup                   types.Point     `json:"pickup"`
	Dropoff                  types.Point     `json:"dropoff"`
	VehicleCategoryID        types.ID        `json:"vehicleCategoryId"`
	TripType                 types.TripType  `json:"tripType"`
	EstimatedDistanceKm      float64         `json:"estimatedDistanceKm"`
	EstimatedDurationMinutes float64         `json:"estimatedDurationMinutes"`
	PickupAt                 *time.Time      `json:"pickupAt,omitempty"`
	EstimatedEndAt           *time.Time      `json:"estimatedEndAt,omitempty"`
	IsRoundTrip              bool            `json:"isRoundTrip"`
	WaitingTimeMinutes       *float64        `json:"waitingTimeMinutes,omitempty"`
	Stops                    []tripspec.Stop `json:"stops,omitempty"`
	DurationHours            float64         `json:"durationHours,omitempty"`
	ParkingAmount            float64         `json:"parkingAmount,omitempty"`
	ParkingDescription       string          `json:"parkingDescription,omitempty"`
}

// VehicleCategory carries the pricing multiplier and the regulatory class
// that decides whether compliance staffing applies.
type VehicleCategory struct {
	ID              types.ID                `json:"id"`
	Name            string                  `json:"name"`
	PriceMultiplier float64                 `json:"priceMultiplier"`
	RegulatoryClass compliance.VehicleClass `json:"regulatoryClass"`
}

type AdvancedRateKind string

const (
	RateNight   AdvancedRateKind = "NIGHT"
	RateWeekend AdvancedRateKind = "WEEKEND"
)

type AdjustmentType string

const (
	AdjustPercentage AdjustmentType = "percentage"
	AdjustFixed      AdjustmentType = "fixed"
)

// AdvancedRate is a time-window price adjustment. The night window is defined
// in minutes from midnight and may cross it (start 1320 = 22:00, end 360 =
// 06:00). Weekend rates ignore the window and test the pickup weekday.
type AdvancedRate struct {
	ID          types.ID         `json:"id"`
	Label       string           `json:"label,omitempty"`
	Kind        AdvancedRateKind `json:"kind"`
	Priority    int              `json:"priority"`
	Adjustment  AdjustmentType   `json:"adjustment"`
	Value       float64          `json:"value"`
	StartMinute int              `json:"startMinute"`
	EndMinute   int              `json:"endMinute"`
	Active      bool             `json:"active"`
}

// SeasonalMultiplier scales the price inside a date range, bounds inclusive.
type SeasonalMultiplier struct {
	ID         types.ID  `json:"id"`
	Label      string    `json:"label,omitempty"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Multiplier float64   `json:"multiplier"`
	Active     bool      `json:"active"`
}

// ZoneAggregation combines the pickup and dropoff zone multipliers.
type ZoneAggregation string

const (
	AggregateMax         ZoneAggregation = "MAX"
	AggregatePickupOnly  ZoneAggregation = "PICKUP_ONLY"
	AggregateDropoffOnly ZoneAggregation = "DROPOFF_ONLY"
	AggregateAverage     ZoneAggregation = "AVERAGE"
)

// Settings is the organization's pricing configuration. Zero-valued fields
// fall back to documented defaults; the engine never mutates a Settings.
type Settings struct {
	BaseRatePerKm       float64                      `json:"baseRatePerKm"`
	BaseRatePerHour     float64                      `json:"baseRatePerHour"`
	TargetMarginPercent float64                      `json:"targetMarginPercent"`
	Cost                costing.Parameters           `json:"cost"`
	Thresholds          profitability.Thresholds     `json:"thresholds"`
	ZoneConflict        zones.ConflictStrategy       `json:"zoneConflict,omitempty"`
	ZoneAggregation     ZoneAggregation              `json:"zoneAggregation,omitempty"`
	CentralZones        zones.CentralZoneConfig      `json:"centralZones"`
	Dispo               tripspec.DispoConfig         `json:"dispo"`
	RoundTrip           tripspec.RoundTripConfig     `json:"roundTrip"`
	DenseZone           tripspec.DenseZoneConfig     `json:"denseZone"`
	BlockedDriver       tripspec.BlockedDriverConfig `json:"blockedDriver"`
	Waterfall           *catalog.WaterfallConfig     `json:"waterfall,omitempty"`
	Compliance          *compliance.RuleSet          `json:"compliance,omitempty"`
}

// Bundle is everything the caller loads for the organization before invoking
// the engine: settings plus the rate and zone tables.
type Bundle struct {
	Settings            Settings             `json:"settings"`
	Zones               []zones.Zone         `json:"zones"`
	VehicleCategories   []VehicleCategory    `json:"vehicleCategories"`
	AdvancedRates       []AdvancedRate       `json:"advancedRates"`
	SeasonalMultipliers []SeasonalMultiplier `json:"seasonalMultipliers"`
}

// Category looks up a vehicle category; a missing one degrades to a neutral
// multiplier and the LIGHT regulatory class.
func (b Bundle) Category(id types.ID) VehicleCategory {
	for _, c := range b.VehicleCategories {
		if c.ID == id {
			return c
		}
	}
	return VehicleCategory{ID: id, PriceMultiplier: 1.0, RegulatoryClass: compliance.ClassLight}
}

// PricingResult is the full outcome of one engine call, including the audit
// trail a UI needs to explain "why this price".
type PricingResult struct {
	Mode           PricingMode              `json:"mode"`
	Price          float64                  `json:"price"`
	InternalCost   float64                  `json:"internalCost"`
	Margin         float64                  `json:"margin"`
	MarginPercent  float64                  `json:"marginPercent"`
	Indicator      profitability.Indicator  `json:"indicator"`
	MatchedGrid    *catalog.GridMatch       `json:"matchedGrid,omitempty"`
	AppliedRules   []AppliedRule            `json:"appliedRules"`
	FallbackReason catalog.FallbackReason   `json:"fallbackReason,omitempty"`
	GridSearch     *catalog.SearchTrace     `json:"gridSearch,omitempty"`
	Waterfall      *catalog.WaterfallResult `json:"waterfall,omitempty"`
	Trip           costing.TripAnalysis     `json:"trip"`
	CompliancePlan *compliance.StaffingPlan `json:"compliancePlan,omitempty"`
}
