package catalog

import (
	"etoile/internal/modules/zones"
	"etoile/internal/types"
)

// The hierarchical variant used by zone-based organizations: four levels
// evaluated strictly in order, first applicable level wins. Implemented as an
// ordered decision table so the skip trace is testable on its own.

type LevelKind string

const (
	LevelIntraCentral   LevelKind = "INTRA_CENTRAL_FLAT"
	LevelInterZone      LevelKind = "INTER_ZONE_FORFAIT"
	LevelSameRing       LevelKind = "SAME_RING_DYNAMIC"
	LevelHorokilometric LevelKind = "HOROKILOMETRIC"
)

type SkipReason string

const (
	SkipNotApplicable    SkipReason = "NOT_APPLICABLE"
	SkipNoRateConfigured SkipReason = "NO_RATE_CONFIGURED"
	SkipDisabledByConfig SkipReason = "DISABLED_BY_CONFIG"
)

// ZonePairForfait is an explicit fixed price for a zone pair (level 2).
type ZonePairForfait struct {
	ID                types.ID `json:"id"`
	OriginZoneID      types.ID `json:"originZoneId"`
	DestinationZoneID types.ID `json:"destinationZoneId"`
	VehicleCategoryID types.ID `json:"vehicleCategoryId"`
	Bidirectional     bool     `json:"bidirectional"`
	Active            bool     `json:"active"`
	Price             float64  `json:"price"`
}

// WaterfallConfig enables and parameterizes each level independently.
type WaterfallConfig struct {
	IntraCentralEnabled bool
	// IntraCentralRates maps vehicle category → flat price inside the
	// central area.
	IntraCentralRates map[types.ID]float64

	ForfaitEnabled bool
	Forfaits       []ZonePairForfait

	SameRingEnabled bool
	// RingMultipliers overrides the ring zone's own price multiplier,
	// keyed by ring code.
	RingMultipliers map[string]float64

	HorokilometricEnabled bool
}

type LevelTrace struct {
	Level      int        `json:"level"`
	Kind       LevelKind  `json:"kind"`
	Applied    bool       `json:"applied"`
	SkipReason SkipReason `json:"skipReason,omitempty"`
}

// WaterfallResult reports which level decided the price. FixedPrice is set
// for levels 1–2; RingMultiplier for level 3 (applied to the dynamic price by
// the caller); Dynamic for level 4.
type WaterfallResult struct {
	Levels         []LevelTrace `json:"levels"`
	AppliedLevel   LevelKind    `json:"appliedLevel,omitempty"`
	FixedPrice     *float64     `json:"fixedPrice,omitempty"`
	RingCode       string       `json:"ringCode,omitempty"`
	RingMultiplier *float64     `json:"ringMultiplier,omitempty"`
	Dynamic        bool         `json:"dynamic"`
}

// EvaluateWaterfall walks the 4-level decision table for a transfer between
// the resolved pickup and dropoff zones. Levels it does not apply are still
// recorded with their skip reason.
func EvaluateWaterfall(cfg WaterfallConfig, vehicleCategoryID types.ID, pickup, dropoff []zones.Match, central zones.CentralZoneConfig) WaterfallResult {
	var res WaterfallResult
	record := func(level int, kind LevelKind, applied bool, skip SkipReason) {
		res.Levels = append(res.Levels, LevelTrace{Level: level, Kind: kind, Applied: applied, SkipReason: skip})
		if applied {
			res.AppliedLevel = kind
		}
	}
	done := func() bool { return res.AppliedLevel != "" }

	// Level 1: both endpoints central → vehicle-category flat rate.
	switch {
	case !cfg.IntraCentralEnabled:
		record(1, LevelIntraCentral, false, SkipDisabledByConfig)
	case !anyCentral(pickup, central) || !anyCentral(dropoff, central):
		record(1, LevelIntraCentral, false, SkipNotApplicable)
	default:
		rate, ok := cfg.IntraCentralRates[vehicleCategoryID]
		if !ok || rate <= 0 {
			record(1, LevelIntraCentral, false, SkipNoRateConfigured)
		} else {
			price := types.Round2(rate)
			res.FixedPrice = &price
			record(1, LevelIntraCentral, true, "")
		}
	}

	// Level 2: explicit zone-pair forfait.
	if !done() {
		switch {
		case !cfg.ForfaitEnabled:
			record(2, LevelInterZone, false, SkipDisabledByConfig)
		case len(cfg.Forfaits) == 0:
			record(2, LevelInterZone, false, SkipNoRateConfigured)
		default:
			if f, ok := findForfait(cfg.Forfaits, vehicleCategoryID, pickup, dropoff); ok {
				price := types.Round2(f.Price)
				res.FixedPrice = &price
				record(2, LevelInterZone, true, "")
			} else {
				record(2, LevelInterZone, false, SkipNotApplicable)
			}
		}
	}

	// Level 3: both endpoints share a ring code → ring multiplier on the
	// dynamic price.
	if !done() {
		switch {
		case !cfg.SameRingEnabled:
			record(3, LevelSameRing, false, SkipDisabledByConfig)
		default:
			if code, mult, ok := sharedRing(cfg, pickup, dropoff); ok {
				res.RingCode = code
				res.RingMultiplier = &mult
				record(3, LevelSameRing, true, "")
			} else {
				record(3, LevelSameRing, false, SkipNotApplicable)
			}
		}
	}

	// Level 4: plain horokilometric fallback.
	if !done() {
		if cfg.HorokilometricEnabled {
			res.Dynamic = true
			record(4, LevelHorokilometric, true, "")
		} else {
			record(4, LevelHorokilometric, false, SkipDisabledByConfig)
		}
	}
	return res
}

func anyCentral(matches []zones.Match, cfg zones.CentralZoneConfig) bool {
	for _, m := range matches {
		if zones.IsCentralZone(m.Zone, cfg) {
			return true
		}
	}
	return false
}

func findForfait(forfaits []ZonePairForfait, category types.ID, pickup, dropoff []zones.Match) (ZonePairForfait, bool) {
	pickupIDs := matchedIDs(pickup)
	dropoffIDs := matchedIDs(dropoff)
	for _, f := range forfaits {
		if !f.Active || f.VehicleCategoryID != category {
			continue
		}
		if pickupIDs[f.OriginZoneID] && dropoffIDs[f.DestinationZoneID] {
			return f, true
		}
		if f.Bidirectional && pickupIDs[f.DestinationZoneID] && dropoffIDs[f.OriginZoneID] {
			return f, true
		}
	}
	return ZonePairForfait{}, false
}

func sharedRing(cfg WaterfallConfig, pickup, dropoff []zones.Match) (string, float64, bool) {
	for _, pm := range pickup {
		for _, dm := range dropoff {
			if pm.Zone.Code == "" || pm.Zone.Code != dm.Zone.Code {
				continue
			}
			mult := pm.Zone.PriceMultiplier
			if override, ok := cfg.RingMultipliers[pm.Zone.Code]; ok && override > 0 {
				mult = override
			}
			if mult <= 0 {
				mult = 1.0
			}
			return pm.Zone.Code, mult, true
		}
	}
	return "", 0, false
}
