// Package catalog evaluates partner contracts: the "engagement rule" that
// turns a contracted catalog entry into a fixed, non-negotiable price.
package catalog

import (
	"etoile/internal/types"
)

type Direction string

const (
	Bidirectional Direction = "BIDIRECTIONAL"
	AToB          Direction = "A_TO_B"
	BToA          Direction = "B_TO_A"
)

// addressMatchToleranceKm: a configured pickup/dropoff address within 50 m of
// the request coordinate counts as a match and takes priority over zones.
const addressMatchToleranceKm = 0.05

// ZoneRoute is a contracted point-to-point entry. Either the legacy single
// zone pair, the multi-zone sets, or the proximity addresses identify the
// route; proximity wins over any zone-based match.
type ZoneRoute struct {
	ID                 types.ID      `json:"id"`
	Label              string        `json:"label,omitempty"`
	VehicleCategoryID  types.ID      `json:"vehicleCategoryId"`
	Direction          Direction     `json:"direction"`
	Active             bool          `json:"active"`
	OriginZoneID       types.ID      `json:"originZoneId,omitempty"`
	DestinationZoneID  types.ID      `json:"destinationZoneId,omitempty"`
	OriginZoneIDs      []types.ID    `json:"originZoneIds,omitempty"`
	DestinationZoneIDs []types.ID    `json:"destinationZoneIds,omitempty"`
	OriginAddress      *types.Point  `json:"originAddress,omitempty"`
	DestinationAddress *types.Point  `json:"destinationAddress,omitempty"`
	FixedPrice         float64       `json:"fixedPrice"`
}

// ExcursionPackage fixes the price of a named excursion for a vehicle
// category, optionally scoped to a destination zone.
type ExcursionPackage struct {
	ID                 types.ID   `json:"id"`
	Label              string     `json:"label,omitempty"`
	VehicleCategoryID  types.ID   `json:"vehicleCategoryId"`
	Active             bool       `json:"active"`
	DestinationZoneIDs []types.ID `json:"destinationZoneIds,omitempty"`
	FixedPrice         float64    `json:"fixedPrice"`
}

// DispoPackage fixes the price of an hourly disposal block.
type DispoPackage struct {
	ID                types.ID `json:"id"`
	Label             string   `json:"label,omitempty"`
	VehicleCategoryID types.ID `json:"vehicleCategoryId"`
	Active            bool     `json:"active"`
	DurationHours     float64  `json:"durationHours"`
	FixedPrice        float64  `json:"fixedPrice"`
}

type PartnerContract struct {
	ZoneRoutes        []ZoneRoute        `json:"zoneRoutes"`
	ExcursionPackages []ExcursionPackage `json:"excursionPackages"`
	DispoPackages     []DispoPackage     `json:"dispoPackages"`
}

type Contact struct {
	ID        types.ID         `json:"id"`
	IsPartner bool             `json:"isPartner"`
	Contract  *PartnerContract `json:"contract,omitempty"`
}

// FallbackReason explains why no catalog price applied and the request fell
// through to dynamic pricing. These are expected outcomes, not errors.
type FallbackReason string

const (
	FallbackPrivateClient FallbackReason = "PRIVATE_CLIENT"
	FallbackNoContract    FallbackReason = "NO_CONTRACT"
	FallbackNoZoneMatch   FallbackReason = "NO_ZONE_MATCH"
	FallbackNoRouteMatch  FallbackReason = "NO_ROUTE_MATCH"
)

// RejectReason is recorded per checked entry in the search trace.
type RejectReason string

const (
	RejectCategoryMismatch  RejectReason = "CATEGORY_MISMATCH"
	RejectDirectionMismatch RejectReason = "DIRECTION_MISMATCH"
	RejectInactive          RejectReason = "INACTIVE"
	RejectZoneMismatch      RejectReason = "ZONE_MISMATCH"
	RejectDurationMismatch  RejectReason = "DURATION_MISMATCH"
)

type RouteCheck struct {
	EntryID types.ID     `json:"entryId"`
	Label   string       `json:"label,omitempty"`
	Reason  RejectReason `json:"reason"`
}

// SearchTrace enumerates every candidate and its rejection cause so a
// non-match can be debugged without exceptions.
type SearchTrace struct {
	PickupZoneCodes  []string     `json:"pickupZoneCodes"`
	DropoffZoneCodes []string     `json:"dropoffZoneCodes"`
	RoutesChecked    []RouteCheck `json:"routesChecked"`
}

type MatchKind string

const (
	MatchZoneRoute        MatchKind = "ZONE_ROUTE"
	MatchExcursionPackage MatchKind = "EXCURSION_PACKAGE"
	MatchDispoPackage     MatchKind = "DISPO_PACKAGE"
)

// GridMatch is a successful engagement-rule hit.
type GridMatch struct {
	Kind       MatchKind `json:"kind"`
	EntryID    types.ID  `json:"entryId"`
	Label      string    `json:"label,omitempty"`
	FixedPrice float64   `json:"fixedPrice"`
	// ByProximity is set when an address-proximity match decided the route.
	ByProximity bool `json:"byProximity,omitempty"`
	// Reversed is set when a BIDIRECTIONAL route matched in B→A order.
	Reversed bool `json:"reversed,omitempty"`
}

// Outcome is the full result of a catalog search: either a match, or a
// fallback reason with the trace of everything that was checked.
type Outcome struct {
	Match    *GridMatch     `json:"match,omitempty"`
	Fallback FallbackReason `json:"fallback,omitempty"`
	Trace    *SearchTrace   `json:"trace,omitempty"`
}
