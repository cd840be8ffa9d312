package zones

import (
	"math"
	"testing"

	"etoile/internal/types"
)

// A rough square around central Paris.
var parisPolygon = []types.Point{
	{Lat: 48.90, Lng: 2.25},
	{Lat: 48.90, Lng: 2.42},
	{Lat: 48.81, Lng: 2.42},
	{Lat: 48.81, Lng: 2.25},
}

var (
	notreDame = types.Point{Lat: 48.853, Lng: 2.349}
	cdg       = types.Point{Lat: 49.0097, Lng: 2.5479}
	orly      = types.Point{Lat: 48.7262, Lng: 2.3652}
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      types.Point
		wantKm    float64
		tolerance float64
	}{
		{"same point", notreDame, notreDame, 0, 0.001},
		{"Notre-Dame to CDG (~23km)", notreDame, cdg, 23, 2},
		{"Paris to Lyon (~392km)", types.Point{Lat: 48.8566, Lng: 2.3522}, types.Point{Lat: 45.7640, Lng: 4.8357}, 392, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		p    types.Point
		z    Zone
		want bool
	}{
		{
			name: "polygon inside",
			p:    notreDame,
			z:    Zone{Geometry: GeometryPolygon, Polygon: parisPolygon},
			want: true,
		},
		{
			name: "polygon outside",
			p:    cdg,
			z:    Zone{Geometry: GeometryPolygon, Polygon: parisPolygon},
			want: false,
		},
		{
			name: "radius inside",
			p:    types.Point{Lat: 49.015, Lng: 2.55},
			z:    Zone{Geometry: GeometryRadius, Center: cdg, RadiusKm: 5},
			want: true,
		},
		{
			name: "radius outside",
			p:    notreDame,
			z:    Zone{Geometry: GeometryRadius, Center: cdg, RadiusKm: 5},
			want: false,
		},
		{
			name: "point near match within 100m",
			p:    types.Point{Lat: 48.7262, Lng: 2.3651},
			z:    Zone{Geometry: GeometryPoint, Center: orly},
			want: true,
		},
		{
			name: "point too far",
			p:    types.Point{Lat: 48.73, Lng: 2.38},
			z:    Zone{Geometry: GeometryPoint, Center: orly},
			want: false,
		},
		{
			name: "degenerate polygon",
			p:    notreDame,
			z:    Zone{Geometry: GeometryPolygon, Polygon: parisPolygon[:2]},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.p, tt.z); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func overlappingZones() []Zone {
	// Two radius zones both covering Notre-Dame, with distinct priority,
	// multiplier and center distance so each strategy picks differently.
	return []Zone{
		{
			ID: "wide", Code: "PARIS_WIDE", Geometry: GeometryRadius,
			Center: types.Point{Lat: 48.86, Lng: 2.35}, RadiusKm: 20,
			PriceMultiplier: 1.1, Priority: 1, Active: true,
		},
		{
			ID: "tight", Code: "PARIS_CENTRE", Geometry: GeometryRadius,
			Center: types.Point{Lat: 48.853, Lng: 2.350}, RadiusKm: 3,
			PriceMultiplier: 1.4, Priority: 5, Active: true,
		},
		{
			ID: "inactive", Code: "OLD", Geometry: GeometryRadius,
			Center: types.Point{Lat: 48.853, Lng: 2.349}, RadiusKm: 10,
			PriceMultiplier: 9.9, Priority: 99, Active: false,
		},
	}
}

func TestResolve_Strategies(t *testing.T) {
	zs := overlappingZones()

	tests := []struct {
		name     string
		strategy ConflictStrategy
		wantIDs  []types.ID
	}{
		{"priority picks highest priority", ConflictPriority, []types.ID{"tight"}},
		{"most expensive picks highest multiplier", ConflictMostExpensive, []types.ID{"tight"}},
		{"closest picks nearest center", ConflictClosest, []types.ID{"tight"}},
		{"combined keeps all ordered by priority", ConflictCombined, []types.ID{"tight", "wide"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(notreDame, zs, tt.strategy)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d matches, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].Zone.ID != id {
					t.Errorf("match[%d] = %s, want %s", i, got[i].Zone.ID, id)
				}
			}
		})
	}
}

func TestResolve_InactiveZonesSkipped(t *testing.T) {
	got := Resolve(notreDame, overlappingZones(), ConflictCombined)
	for _, m := range got {
		if m.Zone.ID == "inactive" {
			t.Errorf("inactive zone matched")
		}
	}
}

func TestResolve_NoMatch(t *testing.T) {
	marseille := types.Point{Lat: 43.2965, Lng: 5.3698}
	if got := Resolve(marseille, overlappingZones(), ConflictPriority); len(got) != 0 {
		t.Errorf("expected no match, got %v", got)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	zs := overlappingZones()
	// Equal priorities force the ID tie-break.
	zs[0].Priority = 5
	a := Resolve(notreDame, zs, ConflictCombined)
	b := Resolve(notreDame, zs, ConflictCombined)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic match count")
	}
	for i := range a {
		if a[i].Zone.ID != b[i].Zone.ID {
			t.Errorf("non-deterministic order at %d: %s vs %s", i, a[i].Zone.ID, b[i].Zone.ID)
		}
	}
	if a[0].Zone.ID != "tight" {
		t.Errorf("tie-break order = %s, want tight before wide", a[0].Zone.ID)
	}
}

func TestIsCentralZone(t *testing.T) {
	tests := []struct {
		name string
		z    Zone
		cfg  CentralZoneConfig
		want bool
	}{
		{"flag set", Zone{IsCentralZone: true, Code: "X"}, CentralZoneConfig{}, true},
		{"default code list", Zone{Code: "PARIS_CENTRE"}, CentralZoneConfig{}, true},
		{"configured code list", Zone{Code: "LYON_00"}, CentralZoneConfig{Codes: []string{"LYON_00"}}, true},
		{"configured list replaces defaults", Zone{Code: "PARIS_CENTRE"}, CentralZoneConfig{Codes: []string{"LYON_00"}}, false},
		{"no match", Zone{Code: "SUBURB"}, CentralZoneConfig{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCentralZone(tt.z, tt.cfg); got != tt.want {
				t.Errorf("IsCentralZone() = %v, want %v", got, tt.want)
			}
		})
	}
}
