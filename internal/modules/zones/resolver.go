package zones

import (
	"sort"

	"etoile/internal/types"
)

// Contains reports whether the point falls inside the zone geometry.
func Contains(p types.Point, z Zone) bool {
	switch z.Geometry {
	case GeometryPolygon:
		return pointInPolygon(p, z.Polygon)
	case GeometryRadius:
		return DistanceKm(p, z.Center) <= z.RadiusKm
	case GeometryPoint:
		return DistanceKm(p, z.Center) <= pointMatchToleranceKm
	}
	return false
}

// Resolve tests every active zone against the point and applies the conflict
// strategy. PRIORITY, MOST_EXPENSIVE and CLOSEST narrow to a single zone;
// COMBINED keeps all matches for downstream multiplier aggregation. The
// returned order is deterministic for identical inputs.
func Resolve(p types.Point, zoneSet []Zone, strategy ConflictStrategy) []Match {
	var matches []Match
	for _, z := range zoneSet {
		if !z.Active {
			continue
		}
		if Contains(p, z) {
			matches = append(matches, Match{Zone: z, CenterDistanceKm: DistanceKm(p, z.Center)})
		}
	}
	if len(matches) <= 1 {
		return matches
	}

	switch strategy {
	case ConflictMostExpensive:
		best := matches[0]
		for _, m := range matches[1:] {
			if m.Zone.PriceMultiplier > best.Zone.PriceMultiplier {
				best = m
			}
		}
		return []Match{best}
	case ConflictClosest:
		best := matches[0]
		for _, m := range matches[1:] {
			if m.CenterDistanceKm < best.CenterDistanceKm {
				best = m
			}
		}
		return []Match{best}
	case ConflictCombined:
		// Keep every match, highest priority first; ID breaks ties so the
		// order is stable across calls.
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].Zone.Priority != matches[j].Zone.Priority {
				return matches[i].Zone.Priority > matches[j].Zone.Priority
			}
			return matches[i].Zone.ID < matches[j].Zone.ID
		})
		return matches
	default: // PRIORITY
		best := matches[0]
		for _, m := range matches[1:] {
			if m.Zone.Priority > best.Zone.Priority {
				best = m
			}
		}
		return []Match{best}
	}
}

// ResolveOne returns the single effective zone for the point, collapsing a
// COMBINED result to its head.
func ResolveOne(p types.Point, zoneSet []Zone, strategy ConflictStrategy) (Zone, bool) {
	matches := Resolve(p, zoneSet, strategy)
	if len(matches) == 0 {
		return Zone{}, false
	}
	return matches[0].Zone, true
}

// IsCentralZone reports whether the zone belongs to the central pricing area:
// either its own flag is set or its code is in the configured list.
func IsCentralZone(z Zone, cfg CentralZoneConfig) bool {
	if z.IsCentralZone {
		return true
	}
	codes := cfg.Codes
	if len(codes) == 0 {
		codes = DefaultCentralZoneCodes()
	}
	for _, c := range codes {
		if z.Code == c {
			return true
		}
	}
	return false
}

// Codes extracts the zone codes from a match list, preserving order.
func Codes(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Zone.Code)
	}
	return out
}
