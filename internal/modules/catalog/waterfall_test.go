package catalog

import (
	"testing"

	"etoile/internal/modules/zones"
	"etoile/internal/types"
)

func match(id types.ID, code string, central bool, multiplier float64) zones.Match {
	return zones.Match{Zone: zones.Zone{
		ID: id, Code: code, IsCentralZone: central, PriceMultiplier: multiplier, Active: true,
	}}
}

func fullConfig() WaterfallConfig {
	return WaterfallConfig{
		IntraCentralEnabled: true,
		IntraCentralRates:   map[types.ID]float64{"sedan": 45},
		ForfaitEnabled:      true,
		Forfaits: []ZonePairForfait{
			{ID: "f1", OriginZoneID: "paris", DestinationZoneID: "cdg", VehicleCategoryID: "sedan", Bidirectional: true, Active: true, Price: 95},
		},
		SameRingEnabled:       true,
		HorokilometricEnabled: true,
	}
}

func TestEvaluateWaterfall_Level1IntraCentral(t *testing.T) {
	pickup := []zones.Match{match("paris", "PARIS", true, 1.2)}
	dropoff := []zones.Match{match("paris", "PARIS", true, 1.2)}

	res := EvaluateWaterfall(fullConfig(), "sedan", pickup, dropoff, zones.CentralZoneConfig{})
	if res.AppliedLevel != LevelIntraCentral {
		t.Fatalf("applied = %s, want intra-central", res.AppliedLevel)
	}
	if res.FixedPrice == nil || *res.FixedPrice != 45 {
		t.Errorf("fixed price = %v, want 45", res.FixedPrice)
	}
	if len(res.Levels) != 1 || !res.Levels[0].Applied {
		t.Errorf("levels = %+v, want single applied level", res.Levels)
	}
}

func TestEvaluateWaterfall_Level1NoRateFallsThrough(t *testing.T) {
	cfg := fullConfig()
	cfg.IntraCentralRates = nil
	pickup := []zones.Match{match("paris", "PARIS", true, 1.2)}
	dropoff := []zones.Match{match("paris", "PARIS", true, 1.2)}

	res := EvaluateWaterfall(cfg, "sedan", pickup, dropoff, zones.CentralZoneConfig{})
	if res.Levels[0].SkipReason != SkipNoRateConfigured {
		t.Errorf("level 1 skip = %s, want NO_RATE_CONFIGURED", res.Levels[0].SkipReason)
	}
	// Same code on both sides: level 3 catches it before level 4.
	if res.AppliedLevel != LevelSameRing {
		t.Errorf("applied = %s, want same-ring", res.AppliedLevel)
	}
}

func TestEvaluateWaterfall_Level2Forfait(t *testing.T) {
	pickup := []zones.Match{match("paris", "PARIS", false, 1.2)}
	dropoff := []zones.Match{match("cdg", "CDG", false, 1.0)}

	res := EvaluateWaterfall(fullConfig(), "sedan", pickup, dropoff, zones.CentralZoneConfig{Codes: []string{"NONE"}})
	if res.AppliedLevel != LevelInterZone {
		t.Fatalf("applied = %s, want inter-zone forfait", res.AppliedLevel)
	}
	if res.FixedPrice == nil || *res.FixedPrice != 95 {
		t.Errorf("fixed price = %v, want 95", res.FixedPrice)
	}
	if res.Levels[0].SkipReason != SkipNotApplicable {
		t.Errorf("level 1 skip = %s, want NOT_APPLICABLE", res.Levels[0].SkipReason)
	}

	// Bidirectional forfait also matches the reversed pair.
	res = EvaluateWaterfall(fullConfig(), "sedan", dropoff, pickup, zones.CentralZoneConfig{Codes: []string{"NONE"}})
	if res.AppliedLevel != LevelInterZone {
		t.Errorf("reversed forfait: applied = %s", res.AppliedLevel)
	}
}

func TestEvaluateWaterfall_Level3SameRing(t *testing.T) {
	pickup := []zones.Match{match("p20a", "PARIS_20", false, 1.3)}
	dropoff := []zones.Match{match("p20b", "PARIS_20", false, 1.3)}

	res := EvaluateWaterfall(fullConfig(), "sedan", pickup, dropoff, zones.CentralZoneConfig{Codes: []string{"NONE"}})
	if res.AppliedLevel != LevelSameRing {
		t.Fatalf("applied = %s, want same-ring", res.AppliedLevel)
	}
	if res.RingCode != "PARIS_20" || res.RingMultiplier == nil || *res.RingMultiplier != 1.3 {
		t.Errorf("ring = %s ×%v, want PARIS_20 ×1.3", res.RingCode, res.RingMultiplier)
	}

	// A configured override beats the zone's own multiplier.
	cfg := fullConfig()
	cfg.RingMultipliers = map[string]float64{"PARIS_20": 1.5}
	res = EvaluateWaterfall(cfg, "sedan", pickup, dropoff, zones.CentralZoneConfig{Codes: []string{"NONE"}})
	if res.RingMultiplier == nil || *res.RingMultiplier != 1.5 {
		t.Errorf("ring multiplier = %v, want override 1.5", res.RingMultiplier)
	}
}

func TestEvaluateWaterfall_Level4Fallback(t *testing.T) {
	pickup := []zones.Match{match("paris", "PARIS", false, 1.2)}
	dropoff := []zones.Match{match("lyon", "LYON", false, 1.0)}

	res := EvaluateWaterfall(fullConfig(), "van", pickup, dropoff, zones.CentralZoneConfig{Codes: []string{"NONE"}})
	if res.AppliedLevel != LevelHorokilometric || !res.Dynamic {
		t.Fatalf("applied = %s dynamic=%v, want horokilometric fallback", res.AppliedLevel, res.Dynamic)
	}
	// All four levels traced, first three skipped.
	if len(res.Levels) != 4 {
		t.Fatalf("levels traced = %d, want 4", len(res.Levels))
	}
	for _, l := range res.Levels[:3] {
		if l.Applied || l.SkipReason == "" {
			t.Errorf("level %d should carry a skip reason: %+v", l.Level, l)
		}
	}
}

func TestEvaluateWaterfall_DisabledLevels(t *testing.T) {
	cfg := fullConfig()
	cfg.IntraCentralEnabled = false
	cfg.ForfaitEnabled = false
	cfg.SameRingEnabled = false

	pickup := []zones.Match{match("paris", "PARIS", true, 1.2)}
	dropoff := []zones.Match{match("paris", "PARIS", true, 1.2)}

	res := EvaluateWaterfall(cfg, "sedan", pickup, dropoff, zones.CentralZoneConfig{})
	for _, l := range res.Levels[:3] {
		if l.SkipReason != SkipDisabledByConfig {
			t.Errorf("level %d skip = %s, want DISABLED_BY_CONFIG", l.Level, l.SkipReason)
		}
	}
	if res.AppliedLevel != LevelHorokilometric {
		t.Errorf("applied = %s, want horokilometric", res.AppliedLevel)
	}
}

func TestEvaluateWaterfall_FirstApplicableWins(t *testing.T) {
	// Both endpoints central AND a matching forfait: level 1 must win.
	cfg := fullConfig()
	cfg.Forfaits = []ZonePairForfait{
		{ID: "f2", OriginZoneID: "paris", DestinationZoneID: "paris", VehicleCategoryID: "sedan", Active: true, Price: 10},
	}
	pickup := []zones.Match{match("paris", "PARIS", true, 1.2)}
	dropoff := []zones.Match{match("paris", "PARIS", true, 1.2)}

	res := EvaluateWaterfall(cfg, "sedan", pickup, dropoff, zones.CentralZoneConfig{})
	if res.AppliedLevel != LevelIntraCentral || *res.FixedPrice != 45 {
		t.Errorf("applied = %s price=%v, want intra-central at 45", res.AppliedLevel, res.FixedPrice)
	}
}
