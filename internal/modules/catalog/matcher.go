package catalog

import (
	"math"

	"etoile/internal/modules/zones"
	"etoile/internal/types"
)

// MatchInput is the slice of a pricing request the catalog search needs.
type MatchInput struct {
	TripType          types.TripType
	VehicleCategoryID types.ID
	Pickup            types.Point
	Dropoff           types.Point
	DurationHours     float64 // dispo only
}

// Match runs the engagement-rule waterfall:
//
//  1. non-partner contact          → PRIVATE_CLIENT
//  2. partner without contract     → NO_CONTRACT
//  3. no zone for pickup/dropoff   → NO_ZONE_MATCH
//  4. first fully-matching, active entry wins; otherwise NO_ROUTE_MATCH with
//     every checked entry and its rejection reason in the trace.
//
// Catalog membership considers every zone containing the point, independent
// of the organization's display strategy, so COMBINED resolution is used.
func Match(in MatchInput, contact Contact, zoneSet []zones.Zone) Outcome {
	if !contact.IsPartner {
		return Outcome{Fallback: FallbackPrivateClient}
	}
	if contact.Contract == nil {
		return Outcome{Fallback: FallbackNoContract}
	}

	pickupMatches := zones.Resolve(in.Pickup, zoneSet, zones.ConflictCombined)
	dropoffMatches := zones.Resolve(in.Dropoff, zoneSet, zones.ConflictCombined)
	trace := &SearchTrace{
		PickupZoneCodes:  zones.Codes(pickupMatches),
		DropoffZoneCodes: zones.Codes(dropoffMatches),
	}
	if len(pickupMatches) == 0 || len(dropoffMatches) == 0 {
		return Outcome{Fallback: FallbackNoZoneMatch, Trace: trace}
	}

	pickupZoneIDs := matchedIDs(pickupMatches)
	dropoffZoneIDs := matchedIDs(dropoffMatches)

	switch in.TripType {
	case types.TripExcursion:
		return matchExcursions(in, contact.Contract.ExcursionPackages, dropoffZoneIDs, trace)
	case types.TripDispo:
		return matchDispos(in, contact.Contract.DispoPackages, trace)
	default:
		return matchRoutes(in, contact.Contract.ZoneRoutes, pickupZoneIDs, dropoffZoneIDs, trace)
	}
}

func matchRoutes(in MatchInput, routes []ZoneRoute, pickupZoneIDs, dropoffZoneIDs map[types.ID]bool, trace *SearchTrace) Outcome {
	for _, r := range routes {
		if r.VehicleCategoryID != in.VehicleCategoryID {
			trace.RoutesChecked = append(trace.RoutesChecked, RouteCheck{EntryID: r.ID, Label: r.Label, Reason: RejectCategoryMismatch})
			continue
		}

		fwd, rev, byProximity := endpointMatch(in, r, pickupZoneIDs, dropoffZoneIDs)

		allowFwd := r.Direction == Bidirectional || r.Direction == AToB || r.Direction == ""
		allowRev := r.Direction == Bidirectional || r.Direction == BToA
		if (fwd || rev) && !(fwd && allowFwd) && !(rev && allowRev) {
			trace.RoutesChecked = append(trace.RoutesChecked, RouteCheck{EntryID: r.ID, Label: r.Label, Reason: RejectDirectionMismatch})
			continue
		}
		if !r.Active {
			trace.RoutesChecked = append(trace.RoutesChecked, RouteCheck{EntryID: r.ID, Label: r.Label, Reason: RejectInactive})
			continue
		}
		if !fwd && !rev {
			trace.RoutesChecked = append(trace.RoutesChecked, RouteCheck{EntryID: r.ID, Label: r.Label, Reason: RejectZoneMismatch})
			continue
		}

		return Outcome{
			Match: &GridMatch{
				Kind:        MatchZoneRoute,
				EntryID:     r.ID,
				Label:       r.Label,
				FixedPrice:  types.Round2(r.FixedPrice),
				ByProximity: byProximity,
				Reversed:    !(fwd && allowFwd),
			},
			Trace: trace,
		}
	}
	return Outcome{Fallback: FallbackNoRouteMatch, Trace: trace}
}

// endpointMatch reports whether the request endpoints match the route in
// forward (pickup=origin) or reverse order. A configured address within 50 m
// decides the match and takes priority over any zone-based result.
func endpointMatch(in MatchInput, r ZoneRoute, pickupZoneIDs, dropoffZoneIDs map[types.ID]bool) (fwd, rev, byProximity bool) {
	if r.OriginAddress != nil && r.DestinationAddress != nil {
		proxFwd := nearAddress(in.Pickup, *r.OriginAddress) && nearAddress(in.Dropoff, *r.DestinationAddress)
		proxRev := nearAddress(in.Pickup, *r.DestinationAddress) && nearAddress(in.Dropoff, *r.OriginAddress)
		if proxFwd || proxRev {
			return proxFwd, proxRev, true
		}
	}

	origin := zoneIDSet(r.OriginZoneID, r.OriginZoneIDs)
	destination := zoneIDSet(r.DestinationZoneID, r.DestinationZoneIDs)
	fwd = intersects(pickupZoneIDs, origin) && intersects(dropoffZoneIDs, destination)
	rev = intersects(pickupZoneIDs, destination) && intersects(dropoffZoneIDs, origin)
	return fwd, rev, false
}

func matchExcursions(in MatchInput, packages []ExcursionPackage, dropoffZoneIDs map[types.ID]bool, trace *SearchTrace) Outcome {
	for _, p := range packages {
		if p.VehicleCategoryID != in.VehicleCategoryID {
			trace.RoutesChecked = append(trace.RoutesChecked, RouteCheck{EntryID: p.ID, Label: p.Label, Reason: RejectCategoryMismatch})
			continue
		}
		if !p.Active {
			trace.RoutesChecked = append(trace.RoutesChecked, RouteCheck{EntryID: p.ID, Label: p.Label, Reason: RejectInactive})
			continue
		}
		if len(p.DestinationZoneIDs) > 0 && !intersects(dropoffZoneIDs, zoneIDSet("", p.DestinationZoneIDs)) {
			trace.RoutesChecked = append(trace.RoutesChecked, RouteCheck{EntryID: p.ID, Label: p.Label, Reason: RejectZoneMismatch})
			continue
		}
		return Outcome{
			Match: &GridMatch{Kind: MatchExcursionPackage, EntryID: p.ID, Label: p.Label, FixedPrice: types.Round2(p.FixedPrice)},
			Trace: trace,
		}
	}
	return Outcome{Fallback: FallbackNoRouteMatch, Trace: trace}
}

func matchDispos(in MatchInput, packages []DispoPackage, trace *SearchTrace) Outcome {
	for _, p := range packages {
		if p.VehicleCategoryID != in.VehicleCategoryID {
			trace.RoutesChecked = append(trace.RoutesChecked, RouteCheck{EntryID: p.ID, Label: p.Label, Reason: RejectCategoryMismatch})
			continue
		}
		if !p.Active {
			trace.RoutesChecked = append(trace.RoutesChecked, RouteCheck{EntryID: p.ID, Label: p.Label, Reason: RejectInactive})
			continue
		}
		if math.Abs(p.DurationHours-in.DurationHours) > 1e-9 {
			trace.RoutesChecked = append(trace.RoutesChecked, RouteCheck{EntryID: p.ID, Label: p.Label, Reason: RejectDurationMismatch})
			continue
		}
		return Outcome{
			Match: &GridMatch{Kind: MatchDispoPackage, EntryID: p.ID, Label: p.Label, FixedPrice: types.Round2(p.FixedPrice)},
			Trace: trace,
		}
	}
	return Outcome{Fallback: FallbackNoRouteMatch, Trace: trace}
}

func nearAddress(p, address types.Point) bool {
	return zones.DistanceKm(p, address) <= addressMatchToleranceKm
}

func matchedIDs(matches []zones.Match) map[types.ID]bool {
	out := make(map[types.ID]bool, len(matches))
	for _, m := range matches {
		out[m.Zone.ID] = true
	}
	return out
}

func zoneIDSet(single types.ID, multi []types.ID) map[types.ID]bool {
	out := make(map[types.ID]bool, len(multi)+1)
	if single != "" {
		out[single] = true
	}
	for _, id := range multi {
		out[id] = true
	}
	return out
}

func intersects(a, b map[types.ID]bool) bool {
	for id := range b {
		if a[id] {
			return true
		}
	}
	return false
}
