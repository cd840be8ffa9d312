package pricing

import (
	"etoile/internal/modules/catalog"
	"etoile/internal/modules/compliance"
	"etoile/internal/modules/tripspec"
	"etoile/internal/types"
)

// RuleKind tags every entry of the applied-rule audit trail.
type RuleKind string

const (
	RuleDynamicBase         RuleKind = "DYNAMIC_BASE_CALCULATION"
	RuleCatalogPrice        RuleKind = "CATALOG_PRICE"
	RuleZoneGridPrice       RuleKind = "ZONE_GRID_PRICE"
	RuleVehicleMultiplier   RuleKind = "VEHICLE_CATEGORY_MULTIPLIER"
	RuleZoneMultiplier      RuleKind = "ZONE_MULTIPLIER"
	RuleRingMultiplier      RuleKind = "RING_MULTIPLIER"
	RuleAdvancedRate        RuleKind = "ADVANCED_RATE"
	RuleSeasonalMultiplier  RuleKind = "SEASONAL_MULTIPLIER"
	RuleTimeBucket          RuleKind = "TIME_BUCKET"
	RuleRoundTripSegments   RuleKind = "ROUND_TRIP_SEGMENTS"
	RuleExcursionReturn     RuleKind = "EXCURSION_RETURN_TRIP"
	RuleDenseZoneSwitch     RuleKind = "DENSE_ZONE_MAD_SWITCH"
	RuleBlockedDriverSwitch RuleKind = "BLOCKED_DRIVER_MAD_SWITCH"
	RuleComplianceStaffing  RuleKind = "COMPLIANCE_STAFFING"
	RuleManualOverride      RuleKind = "MANUAL_OVERRIDE"
)

// AppliedRule is one step of the price derivation. Each variant carries the
// numeric before/after state needed to reconstruct the decision on its own;
// the slice order in PricingResult is the evaluation order.
type AppliedRule interface {
	RuleKind() RuleKind
	appliedRule()
}

// DynamicBaseRule records both candidate base prices and which method won,
// so the base can be re-derived from the rule alone.
type DynamicBaseRule struct {
	Kind                RuleKind `json:"kind"`
	DistanceKm          float64  `json:"distanceKm"`
	DurationHours       float64  `json:"durationHours"`
	RatePerKm           float64  `json:"ratePerKm"`
	RatePerHour         float64  `json:"ratePerHour"`
	DistancePrice       float64  `json:"distancePrice"`
	DurationPrice       float64  `json:"durationPrice"`
	SelectedMethod      string   `json:"selectedMethod"`
	BasePrice           float64  `json:"basePrice"`
	TargetMarginPercent float64  `json:"targetMarginPercent"`
	PriceWithMargin     float64  `json:"priceWithMargin"`
}

func (DynamicBaseRule) RuleKind() RuleKind { return RuleDynamicBase }
func (DynamicBaseRule) appliedRule()       {}

// CatalogPriceRule marks an engagement-rule hit: the contracted price stands
// and nothing downstream may modify it.
type CatalogPriceRule struct {
	Kind  RuleKind          `json:"kind"`
	Match catalog.GridMatch `json:"match"`
	Price float64           `json:"price"`
}

func (CatalogPriceRule) RuleKind() RuleKind { return RuleCatalogPrice }
func (CatalogPriceRule) appliedRule()       {}

// ZoneGridRule marks a fixed price decided by the hierarchical zone grid
// (intra-central flat rate or inter-zone forfait).
type ZoneGridRule struct {
	Kind  RuleKind          `json:"kind"`
	Level catalog.LevelKind `json:"level"`
	Price float64           `json:"price"`
}

func (ZoneGridRule) RuleKind() RuleKind { return RuleZoneGridPrice }
func (ZoneGridRule) appliedRule()       {}

type VehicleMultiplierRule struct {
	Kind         RuleKind `json:"kind"`
	CategoryID   types.ID `json:"categoryId"`
	CategoryName string   `json:"categoryName,omitempty"`
	Multiplier   float64  `json:"multiplier"`
	PriceBefore  float64  `json:"priceBefore"`
	PriceAfter   float64  `json:"priceAfter"`
}

func (VehicleMultiplierRule) RuleKind() RuleKind { return RuleVehicleMultiplier }
func (VehicleMultiplierRule) appliedRule()       {}

type ZoneMultiplierRule struct {
	Kind              RuleKind        `json:"kind"`
	Strategy          ZoneAggregation `json:"strategy"`
	PickupMultiplier  float64         `json:"pickupMultiplier"`
	DropoffMultiplier float64         `json:"dropoffMultiplier"`
	Effective         float64         `json:"effective"`
	PriceBefore       float64         `json:"priceBefore"`
	PriceAfter        float64         `json:"priceAfter"`
}

func (ZoneMultiplierRule) RuleKind() RuleKind { return RuleZoneMultiplier }
func (ZoneMultiplierRule) appliedRule()       {}

// RingMultiplierRule replaces the zone-multiplier step when both endpoints
// share a ring code (waterfall level 3).
type RingMultiplierRule struct {
	Kind        RuleKind `json:"kind"`
	RingCode    string   `json:"ringCode"`
	Multiplier  float64  `json:"multiplier"`
	PriceBefore float64  `json:"priceBefore"`
	PriceAfter  float64  `json:"priceAfter"`
}

func (RingMultiplierRule) RuleKind() RuleKind { return RuleRingMultiplier }
func (RingMultiplierRule) appliedRule()       {}

// AdvancedRateRule records a night/weekend adjustment. Weight is 1 for binary
// evaluation and overlap/total for the weighted night computation.
type AdvancedRateRule struct {
	Kind                RuleKind         `json:"kind"`
	RateID              types.ID         `json:"rateId"`
	Label               string           `json:"label,omitempty"`
	RateKind            AdvancedRateKind `json:"rateKind"`
	Adjustment          AdjustmentType   `json:"adjustment"`
	Value               float64          `json:"value"`
	Weight              float64          `json:"weight"`
	NightOverlapMinutes float64          `json:"nightOverlapMinutes,omitempty"`
	TripMinutes         float64          `json:"tripMinutes,omitempty"`
	PriceBefore         float64          `json:"priceBefore"`
	PriceAfter          float64          `json:"priceAfter"`
}

func (AdvancedRateRule) RuleKind() RuleKind { return RuleAdvancedRate }
func (AdvancedRateRule) appliedRule()       {}

type SeasonalMultiplierRule struct {
	Kind        RuleKind `json:"kind"`
	SeasonID    types.ID `json:"seasonId"`
	Label       string   `json:"label,omitempty"`
	Multiplier  float64  `json:"multiplier"`
	PriceBefore float64  `json:"priceBefore"`
	PriceAfter  float64  `json:"priceAfter"`
}

func (SeasonalMultiplierRule) RuleKind() RuleKind { return RuleSeasonalMultiplier }
func (SeasonalMultiplierRule) appliedRule()       {}

// TimeBucketRule carries the full disposal quote, hourly or bucket-based.
type TimeBucketRule struct {
	Kind  RuleKind            `json:"kind"`
	Quote tripspec.DispoQuote `json:"quote"`
}

func (TimeBucketRule) RuleKind() RuleKind { return RuleTimeBucket }
func (TimeBucketRule) appliedRule()       {}

type RoundTripRule struct {
	Kind               RuleKind               `json:"kind"`
	Mode               tripspec.RoundTripMode `json:"mode"`
	ThresholdMinutes   float64                `json:"thresholdMinutes"`
	MarginRatio        float64                `json:"marginRatio"`
	EliminatedSegments []string               `json:"eliminatedSegments,omitempty"`
	SingleLegPrice     float64                `json:"singleLegPrice"`
	NaiveDoublePrice   float64                `json:"naiveDoublePrice"`
	PriceAfter         float64                `json:"priceAfter"`
}

func (RoundTripRule) RuleKind() RuleKind { return RuleRoundTripSegments }
func (RoundTripRule) appliedRule()       {}

type ExcursionReturnRule struct {
	Kind                  RuleKind             `json:"kind"`
	Basis                 tripspec.ReturnBasis `json:"basis"`
	ReturnDistanceKm      float64              `json:"returnDistanceKm"`
	ReturnDurationMinutes float64              `json:"returnDurationMinutes"`
	Legs                  int                  `json:"legs"`
}

func (ExcursionReturnRule) RuleKind() RuleKind { return RuleExcursionReturn }
func (ExcursionReturnRule) appliedRule()       {}

type DenseZoneSwitchRule struct {
	Kind        RuleKind                   `json:"kind"`
	Decision    tripspec.DenseZoneDecision `json:"decision"`
	PriceBefore float64                    `json:"priceBefore"`
	PriceAfter  float64                    `json:"priceAfter"`
}

func (DenseZoneSwitchRule) RuleKind() RuleKind { return RuleDenseZoneSwitch }
func (DenseZoneSwitchRule) appliedRule()       {}

type BlockedDriverSwitchRule struct {
	Kind        RuleKind                       `json:"kind"`
	Decision    tripspec.BlockedDriverDecision `json:"decision"`
	PriceBefore float64                        `json:"priceBefore"`
	PriceAfter  float64                        `json:"priceAfter"`
}

func (BlockedDriverSwitchRule) RuleKind() RuleKind { return RuleBlockedDriverSwitch }
func (BlockedDriverSwitchRule) appliedRule()       {}

type ComplianceStaffingRule struct {
	Kind        RuleKind            `json:"kind"`
	Plan        compliance.PlanKind `json:"plan"`
	Cost        compliance.PlanCost `json:"cost"`
	PriceBefore float64             `json:"priceBefore"`
	PriceAfter  float64             `json:"priceAfter"`
}

func (ComplianceStaffingRule) RuleKind() RuleKind { return RuleComplianceStaffing }
func (ComplianceStaffingRule) appliedRule()       {}

// ManualOverrideRule replaces any prior override entry: overrides never stack.
type ManualOverrideRule struct {
	Kind                  RuleKind `json:"kind"`
	PreviousPrice         float64  `json:"previousPrice"`
	NewPrice              float64  `json:"newPrice"`
	Delta                 float64  `json:"delta"`
	Reason                string   `json:"reason,omitempty"`
	BypassedContractPrice bool     `json:"bypassedContractPrice"`
}

func (ManualOverrideRule) RuleKind() RuleKind { return RuleManualOverride }
func (ManualOverrideRule) appliedRule()       {}
