package pricing

import (
	"encoding/json"
	"fmt"
)

// Stored quotes round-trip through JSONB, so the tagged-union rule slice
// needs a kind-dispatched decoder.

func decodeAppliedRule(raw json.RawMessage) (AppliedRule, error) {
	var probe struct {
		Kind RuleKind `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("probe rule kind: %w", err)
	}

	decode := func(into any) error {
		if err := json.Unmarshal(raw, into); err != nil {
			return fmt.Errorf("decode %s rule: %w", probe.Kind, err)
		}
		return nil
	}

	switch probe.Kind {
	case RuleDynamicBase:
		var r DynamicBaseRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleCatalogPrice:
		var r CatalogPriceRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleZoneGridPrice:
		var r ZoneGridRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleVehicleMultiplier:
		var r VehicleMultiplierRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleZoneMultiplier:
		var r ZoneMultiplierRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleRingMultiplier:
		var r RingMultiplierRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleAdvancedRate:
		var r AdvancedRateRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleSeasonalMultiplier:
		var r SeasonalMultiplierRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleTimeBucket:
		var r TimeBucketRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleRoundTripSegments:
		var r RoundTripRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleExcursionReturn:
		var r ExcursionReturnRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleDenseZoneSwitch:
		var r DenseZoneSwitchRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleBlockedDriverSwitch:
		var r BlockedDriverSwitchRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleComplianceStaffing:
		var r ComplianceStaffingRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	case RuleManualOverride:
		var r ManualOverrideRule
		if err := decode(&r); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown rule kind %q", probe.Kind)
	}
}

// UnmarshalJSON restores the concrete rule types behind AppliedRules.
func (r *PricingResult) UnmarshalJSON(data []byte) error {
	type plain PricingResult
	aux := struct {
		*plain
		AppliedRules []json.RawMessage `json:"appliedRules"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.AppliedRules = make([]AppliedRule, 0, len(aux.AppliedRules))
	for _, raw := range aux.AppliedRules {
		rule, err := decodeAppliedRule(raw)
		if err != nil {
			return err
		}
		r.AppliedRules = append(r.AppliedRules, rule)
	}
	return nil
}
