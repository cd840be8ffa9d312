// Package zones matches coordinates against an organization's pricing zones.
package zones

import "etoile/internal/types"

type GeometryKind string

const (
	GeometryPolygon GeometryKind = "polygon"
	GeometryRadius  GeometryKind = "radius"
	GeometryPoint   GeometryKind = "point"
)

type Zone struct {
	ID              types.ID      `json:"id"`
	Code            string        `json:"code"`
	Name            string        `json:"name,omitempty"`
	Geometry        GeometryKind  `json:"geometry"`
	Polygon         []types.Point `json:"polygon,omitempty"`
	Center          types.Point   `json:"center"`
	RadiusKm        float64       `json:"radiusKm,omitempty"`
	PriceMultiplier float64       `json:"priceMultiplier"`
	Priority        int           `json:"priority"`
	IsCentralZone   bool          `json:"isCentralZone"`
	Active          bool          `json:"active"`
}

// ConflictStrategy picks the effective zone(s) when a point sits in several.
type ConflictStrategy string

const (
	ConflictPriority      ConflictStrategy = "PRIORITY"
	ConflictMostExpensive ConflictStrategy = "MOST_EXPENSIVE"
	ConflictClosest       ConflictStrategy = "CLOSEST"
	ConflictCombined      ConflictStrategy = "COMBINED"
)

// Match pairs a matched zone with its distance to the zone center, used by
// the CLOSEST strategy and kept for the audit trail.
type Match struct {
	Zone             Zone    `json:"zone"`
	CenterDistanceKm float64 `json:"centerDistanceKm"`
}

// CentralZoneConfig drives central-zone detection for the hierarchical grid.
type CentralZoneConfig struct {
	Codes []string
}

// DefaultCentralZoneCodes lists the codes treated as central when the
// organization has not configured its own list.
func DefaultCentralZoneCodes() []string {
	return []string{"PARIS", "PARIS_CENTRE", "PARIS_INTRA"}
}
